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

import "fmt"

// ValidateDocument validates a Document before it is written to the index.
//
// Validation rules:
//   - Content must not be empty
//   - every metadata value must be a scalar (see IsScalar)
//
// NOT validated (populated by the index):
//   - Vector
//   - ID (0 is a legal hash value)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	for k, v := range doc.Metadata {
		if !IsScalar(v) {
			return fmt.Errorf("%w: %w: field %q has type %T", ErrInvalidDocument, ErrNonScalarMetadata, k, v)
		}
	}

	return nil
}

// IsScalar reports whether v can be stored as index metadata as-is.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
