// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import "errors"

// Failure classes surfaced to callers. Lower layers wrap these with %w so
// boundaries can classify any error with errors.Is.
var (
	// ErrNotFound indicates that no index exists for the requested corpus key.
	ErrNotFound = errors.New("index not found")

	// ErrInvalidInput indicates a malformed caption payload, key or query.
	ErrInvalidInput = errors.New("invalid input")

	// ErrResourceUnavailable indicates the embedding table or stopword list could not be loaded.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrTransientStore indicates a retryable persistence failure.
	ErrTransientStore = errors.New("transient store failure")
)

// Validation errors
var (
	// ErrEmptyKey indicates a corpus key that is empty after trimming.
	ErrEmptyKey = errors.New("corpus key cannot be empty")

	// ErrMissingCaptions indicates a caption payload without a captions field.
	ErrMissingCaptions = errors.New("payload has no captions field")

	// ErrMissingText indicates a caption object without a text field.
	ErrMissingText = errors.New("caption has no text field")

	// ErrInvalidDimension indicates embedding vectors of inconsistent length.
	ErrInvalidDimension = errors.New("inconsistent vector dimension")

	// ErrMalformedIndex indicates an index state whose parts disagree with each other.
	ErrMalformedIndex = errors.New("malformed index state")
)
