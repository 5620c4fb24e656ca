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

// Package search answers hospital queries.
//
// A query combines free text with optional city, specialty and insurer facets.
// BuildFilter turns the facets into a storage.Filter, the index ranks matching
// documents by embedding similarity, and the Searcher projects each match into
// a core.SearchResult carrying display fields and a short snippet.
//
// Results keep the index order. No re-ranking is applied.
package search
