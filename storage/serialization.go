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

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/carefind/core"
)

// Stored documents are laid out as:
//
//	ID        varint
//	Content   length-prefixed string
//	Metadata  varint count, then key (string) and value pairs sorted by key
//	Vector    length-prefixed float32 slice
//
// Metadata values carry a one-byte kind tag. Numbers of any Go type are
// stored as float64, so numeric metadata always decodes as float64.

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

const (
	valueNull byte = iota
	valueString
	valueNumber
	valueBool
)

var errValueKind = errors.New("unknown metadata value kind")

// MetadataValueMUS serializes one scalar metadata value.
var MetadataValueMUS mus.Serializer[any] = metadataValueMUS{}

type metadataValueMUS struct{}

func (metadataValueMUS) Marshal(v any, bs []byte) (n int) {
	switch t := storedValue(v).(type) {
	case string:
		bs[0] = valueString
		return 1 + ord.String.Marshal(t, bs[1:])
	case float64:
		bs[0] = valueNumber
		return 1 + raw.Float64.Marshal(t, bs[1:])
	case bool:
		bs[0] = valueBool
		return 1 + ord.Bool.Marshal(t, bs[1:])
	default:
		bs[0] = valueNull
		return 1
	}
}

func (metadataValueMUS) Unmarshal(bs []byte) (v any, n int, err error) {
	if len(bs) == 0 {
		return nil, 0, io.ErrUnexpectedEOF
	}
	switch bs[0] {
	case valueNull:
		return nil, 1, nil
	case valueString:
		v, n, err = ord.String.Unmarshal(bs[1:])
	case valueNumber:
		v, n, err = raw.Float64.Unmarshal(bs[1:])
	case valueBool:
		v, n, err = ord.Bool.Unmarshal(bs[1:])
	default:
		return nil, 1, fmt.Errorf("%w: %d", errValueKind, bs[0])
	}
	return v, n + 1, err
}

func (metadataValueMUS) Size(v any) (size int) {
	switch t := storedValue(v).(type) {
	case string:
		return 1 + ord.String.Size(t)
	case float64:
		return 1 + raw.Float64.Size(t)
	case bool:
		return 1 + ord.Bool.Size(t)
	default:
		return 1
	}
}

func (metadataValueMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = metadataValueMUS{}.Unmarshal(bs)
	return n, err
}

// storedValue maps a metadata value onto the stored kinds: nil, string,
// float64 or bool.
func storedValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return core.NormalizeMetadata(map[string]any{"": v})[""]
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrSerializationFailed)
	}
	keys := sortedKeys(doc.Metadata)

	size := varint.Uint64.Size(uint64(doc.ID)) +
		ord.String.Size(doc.Content) +
		varint.Uint64.Size(uint64(len(keys))) +
		vectorMUS.Size(doc.Vector)
	for _, k := range keys {
		size += ord.String.Size(k) + MetadataValueMUS.Size(doc.Metadata[k])
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(doc.ID), buf)
	n += ord.String.Marshal(doc.Content, buf[n:])
	n += varint.Uint64.Marshal(uint64(len(keys)), buf[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += MetadataValueMUS.Marshal(doc.Metadata[k], buf[n:])
	}
	n += vectorMUS.Marshal(doc.Vector, buf[n:])
	return buf[:n], nil
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return doc, nil
}

func unmarshalDocument(data []byte) (*core.Document, error) {
	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	content, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	n += m

	count, m, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("metadata count: %w", err)
	}
	n += m
	// Every entry takes at least two bytes.
	if count > uint64(len(data)-n)/2 {
		return nil, fmt.Errorf("metadata count %d: %w", count, io.ErrUnexpectedEOF)
	}

	var metadata map[string]any
	if count > 0 {
		metadata = make(map[string]any, count)
	}
	for range count {
		key, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("metadata key: %w", err)
		}
		n += m
		value, m, err := MetadataValueMUS.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", key, err)
		}
		n += m
		metadata[key] = value
	}

	vector, m, err := vectorMUS.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("vector: %w", err)
	}
	n += m
	if len(vector) == 0 {
		vector = nil
	}
	if n != len(data) {
		return nil, fmt.Errorf("%d trailing bytes", len(data)-n)
	}

	return &core.Document{
		ID:       core.ID(id),
		Content:  content,
		Metadata: metadata,
		Vector:   vector,
	}, nil
}
