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

// Package storage provides the storage abstraction layer for carefind.
//
// The central abstraction is VectorIndex: a persistent store of embedded hospital
// documents that supports batched writes and metadata-filtered similarity search.
// The badger sub-package is the only implementation.
//
// # Constructors
//
// badger.NewIndex returns the concrete *badger.Index so callers can also reach
// its langchaingo vectorstores.VectorStore methods. Code that only indexes and
// searches should hold it as a storage.VectorIndex:
//
//	var index storage.VectorIndex
//	index, err = badger.NewIndex(backend, embedder)
//
// # Filters
//
// Filter is the predicate language consumed by Search. Each field maps to one
// Condition, and all conditions must hold:
//
//	storage.Filter{
//	    "city":        storage.Eq("Jaipur"),
//	    "specialties": storage.Contains("cardiology"),
//	}
//
// The JSON form mirrors the operator names: {"city": {"$eq": "Jaipur"}}.
// ParseFilter converts that form into a Filter.
//
// # Thread Safety
//
// Implementations must be safe for concurrent readers. Writes are serialized by
// the underlying store.
//
// # Context Support
//
// All index methods accept context.Context for cancellation and timeout support.
package storage
