package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/carefind/core"
)

// Operator names a metadata predicate.
type Operator string

const (
	// OpEq matches when the stored value equals the condition value.
	OpEq Operator = "$eq"
	// OpContains matches when the stored string contains the condition value.
	OpContains Operator = "$contains"
)

// Condition is a single predicate on one metadata field.
type Condition struct {
	Op    Operator
	Value any
}

// Eq returns an exact-equality condition.
func Eq(value any) Condition {
	return Condition{Op: OpEq, Value: value}
}

// Contains returns a substring-containment condition.
func Contains(substr string) Condition {
	return Condition{Op: OpContains, Value: substr}
}

// Filter maps metadata field names to conditions. All conditions must hold.
// A nil or empty Filter matches every document.
type Filter map[string]Condition

// IsEmpty reports whether the filter places no restriction.
func (f Filter) IsEmpty() bool {
	return len(f) == 0
}

// Validate checks every condition for a known operator and a usable value.
func (f Filter) Validate() error {
	for field, cond := range f {
		switch cond.Op {
		case OpEq:
			if !core.IsScalar(cond.Value) {
				return fmt.Errorf("%w: %s: $eq needs a scalar, got %T", ErrInvalidFilter, field, cond.Value)
			}
		case OpContains:
			if _, ok := cond.Value.(string); !ok {
				return fmt.Errorf("%w: %s: $contains needs a string, got %T", ErrInvalidFilter, field, cond.Value)
			}
		default:
			return fmt.Errorf("%w: %s: unknown operator %q", ErrInvalidFilter, field, cond.Op)
		}
	}
	return nil
}

// Matches reports whether metadata satisfies every condition.
// A field absent from metadata never matches.
func (f Filter) Matches(metadata map[string]any) bool {
	for field, cond := range f {
		stored, ok := metadata[field]
		if !ok || !cond.matches(stored) {
			return false
		}
	}
	return true
}

func (c Condition) matches(stored any) bool {
	switch c.Op {
	case OpEq:
		return scalarEqual(stored, c.Value)
	case OpContains:
		s, ok := stored.(string)
		if !ok {
			return false
		}
		sub, ok := c.Value.(string)
		return ok && strings.Contains(s, sub)
	default:
		return false
	}
}

func scalarEqual(a, b any) bool {
	if !core.IsScalar(a) || !core.IsScalar(b) {
		return false
	}
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Fields returns the filtered field names in sorted order.
func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// ToMap returns the filter in its native predicate form: {field: {"$op": value}}.
func (f Filter) ToMap() map[string]any {
	out := make(map[string]any, len(f))
	for field, cond := range f {
		out[field] = map[string]any{string(cond.Op): cond.Value}
	}
	return out
}

// ParseFilter converts the native predicate form into a Filter.
// Each field must map to an object holding exactly one known operator.
func ParseFilter(raw map[string]any) (Filter, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	f := make(Filter, len(raw))
	for field, v := range raw {
		pred, ok := v.(map[string]any)
		if !ok || len(pred) != 1 {
			return nil, fmt.Errorf("%w: %s: expected a single-operator object", ErrInvalidFilter, field)
		}
		for op, value := range pred {
			f[field] = Condition{Op: Operator(op), Value: value}
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// MarshalJSON encodes the filter in its native predicate form.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.ToMap())
}

// UnmarshalJSON decodes the native predicate form.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	parsed, err := ParseFilter(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
