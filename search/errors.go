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

package search

import "errors"

var (
	// ErrRepositoryRequired is returned when an index repository is not provided.
	ErrRepositoryRequired = errors.New("index repository required")

	// ErrNormalizerRequired is returned when no normalizer is provided.
	ErrNormalizerRequired = errors.New("normalizer required")

	// ErrTokenizerMismatch is returned when an index was built with a
	// normalizer mode the searcher has no normalizer for.
	ErrTokenizerMismatch = errors.New("no normalizer for index tokenizer")

	// ErrInvalidParams is returned for out-of-range thresholds or limits.
	ErrInvalidParams = errors.New("invalid query parameters")

	// ErrInvalidCacheSize is returned when the engine cache would hold nothing.
	ErrInvalidCacheSize = errors.New("engine cache size must be at least 1")
)
