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

var (
	// ErrConfiguration indicates the embedding model or index backend is unavailable
	// or misconfigured. It is always fatal to the operation that hit it.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates the source table is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRecord indicates a source row had malformed or missing fields.
	// Ingestion recovers from it locally using defaults.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidDocument indicates a Document failed validation before indexing.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrNonScalarMetadata indicates a metadata value was not flattened.
	ErrNonScalarMetadata = errors.New("metadata value is not a scalar")
)
