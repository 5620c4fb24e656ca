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

package storage

import "errors"

var (
	// ErrNotFound indicates that the requested document was not found.
	ErrNotFound = errors.New("document not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrInvalidFilter indicates a filter with an unknown operator or malformed condition.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrBatchLimit indicates the store refused a write because the batch was too large.
	// WriteBatch chunks its input to avoid this, so callers should not normally see it.
	ErrBatchLimit = errors.New("batch size exceeds store limit")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrEmbeddingMismatch indicates the embedder returned a different number of
	// vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
