package store

import (
	"fmt"
	"time"
)

// Op is the comparison applied by a Filter. An explicit enum instead of
// operator sentinels buried in maps: unknown operators fail loudly at the
// dispatcher instead of silently matching nothing.
type Op int

const (
	OpEquals Op = iota
	OpNotEquals
	OpGreaterOrEqual
	OpLessOrEqual
)

func (op Op) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "<>"
	case OpGreaterOrEqual:
		return ">="
	case OpLessOrEqual:
		return "<="
	default:
		return "?"
	}
}

// Filter narrows List results by one field comparison.
type Filter struct {
	Field string
	Op    Op
	Value any
}

func Equals(field string, value any) Filter         { return Filter{Field: field, Op: OpEquals, Value: value} }
func NotEquals(field string, value any) Filter      { return Filter{Field: field, Op: OpNotEquals, Value: value} }
func GreaterOrEqual(field string, value any) Filter { return Filter{Field: field, Op: OpGreaterOrEqual, Value: value} }
func LessOrEqual(field string, value any) Filter    { return Filter{Field: field, Op: OpLessOrEqual, Value: value} }

// Matches evaluates the filter against a field value. Strings compare
// lexically, numbers numerically, timestamps chronologically; mixing types
// is a caller bug and reported as an error.
func (f Filter) Matches(value any) (bool, error) {
	switch have := value.(type) {
	case string:
		want, ok := f.Value.(string)
		if !ok {
			return false, fmt.Errorf("filter %s: expected string, got %T", f.Field, f.Value)
		}
		return f.compareOrdered(compareStrings(have, want))
	case float64:
		want, err := toFloat(f.Value)
		if err != nil {
			return false, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		return f.compareOrdered(compareFloats(have, want))
	case time.Time:
		want, ok := f.Value.(time.Time)
		if !ok {
			return false, fmt.Errorf("filter %s: expected time.Time, got %T", f.Field, f.Value)
		}
		return f.compareOrdered(have.Compare(want))
	default:
		return false, fmt.Errorf("filter %s: unsupported field type %T", f.Field, value)
	}
}

func (f Filter) compareOrdered(cmp int) (bool, error) {
	switch f.Op {
	case OpEquals:
		return cmp == 0, nil
	case OpNotEquals:
		return cmp != 0, nil
	case OpGreaterOrEqual:
		return cmp >= 0, nil
	case OpLessOrEqual:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("filter %s: unknown op %d", f.Field, f.Op)
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", v)
	}
}
