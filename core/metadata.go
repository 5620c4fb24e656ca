package core

import (
	"fmt"
	"reflect"
	"strings"
)

// PipeSeparator joins list-valued metadata into a single scalar string.
const PipeSeparator = "|"

// ValueKind identifies which member of a Value is set.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

// Value is a metadata value before it is flattened for the index.
// Exactly one member is meaningful, selected by Kind.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []string
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a number.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// ListValue wraps a list of strings. The slice is copied.
func ListValue(items []string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// Kind returns the kind of the value.
func (v Value) Kind() ValueKind { return v.kind }

// List returns a copy of the list members, or nil when the value is not a list.
func (v Value) List() []string {
	if v.kind != KindList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// Flatten returns the scalar stored in the index for this value.
// Lists become pipe-joined strings. Everything else is returned as its Go scalar.
func (v Value) Flatten() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		return JoinPipe(v.list)
	default:
		return nil
	}
}

// FlattenMetadata flattens every tagged value into the scalar form the index stores.
func FlattenMetadata(in map[string]Value) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v.Flatten()
	}
	return out
}

// NormalizeMetadata maps arbitrary metadata onto index-safe scalars.
//
// Sequences become the pipe-joined stringification of their elements. Strings,
// booleans, integers, floats and nil pass through unchanged. A Value is flattened.
// Anything else is stringified. The input map is not modified, and applying the
// function to its own output returns an equal map.
func NormalizeMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Value:
		return t.Flatten()
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	case []byte:
		return string(t)
	case []string:
		return JoinPipe(t)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, PipeSeparator)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return strings.Join(parts, PipeSeparator)
	}
	return fmt.Sprint(v)
}

// JoinPipe joins list items with the pipe separator.
func JoinPipe(items []string) string {
	return strings.Join(items, PipeSeparator)
}

// SplitPipe splits pipe-delimited text, trimming each token and dropping empty ones.
// Order is preserved and duplicates are kept. Returns an empty, non-nil slice for
// blank input.
func SplitPipe(s string) []string {
	tokens := []string{}
	for _, part := range strings.Split(s, PipeSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
