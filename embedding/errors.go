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

package embedding

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmptyTable is returned when a table would contain no vectors.
	ErrEmptyTable = errors.New("embedding table is empty")

	// ErrCacheCorrupt is returned when a cache file fails its checksum or cannot be decoded.
	ErrCacheCorrupt = errors.New("embedding cache is corrupt")

	// ErrUnsupportedCacheVersion is returned for cache files written by an unknown format version.
	ErrUnsupportedCacheVersion = errors.New("unsupported embedding cache version")

	// ErrNoSource is returned when no cache exists and no source is configured.
	ErrNoSource = errors.New("no embedding cache or source configured")
)
