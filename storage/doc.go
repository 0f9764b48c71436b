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

// Package storage provides the storage abstraction layer for capsearch.
//
// This package defines the repository interface that decouples index
// persistence from the build and query paths. A corpus (for example one
// video's captions) is stored as a single serialized IndexState blob under its
// normalized key, alongside a small manifest record used for listing.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction:
//
//	repo, err := badger.NewIndexRepository(backend)  // returns storage.IndexRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Blob Format
//
// MarshalIndexState writes a schema version byte, a BLAKE2b-256 checksum of
// the body, then the MUS-encoded body. Blobs written with another schema
// version are rejected with ErrUnsupportedVersion rather than misread.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewIndexRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
