package memory

import (
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/silt/pkg/core"
)

// matches reports whether doc satisfies filter. A plain value is an
// equality test; a map whose keys all start with '$' is an operator
// document.
func matches(doc core.Document, filter core.Filter) bool {
	for field, cond := range filter {
		val, exists := doc[field]
		if ops, ok := operatorDoc(cond); ok {
			if !matchOperators(val, exists, ops) {
				return false
			}
			continue
		}
		if !exists || !equal(val, cond) {
			return false
		}
	}
	return true
}

// operatorDoc unwraps cond into an operator map, if that is what it is.
func operatorDoc(cond any) (map[string]any, bool) {
	var m map[string]any
	switch c := cond.(type) {
	case map[string]any:
		m = c
	case core.Filter:
		m = c
	case core.Document:
		m = c
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchOperators(val any, exists bool, ops map[string]any) bool {
	for op, arg := range ops {
		switch op {
		case "$eq":
			if !exists || !equal(val, arg) {
				return false
			}
		case "$ne":
			if exists && equal(val, arg) {
				return false
			}
		case "$gt":
			if c, ok := compare(val, arg); !ok || c <= 0 {
				return false
			}
		case "$gte":
			if c, ok := compare(val, arg); !ok || c < 0 {
				return false
			}
		case "$lt":
			if c, ok := compare(val, arg); !ok || c >= 0 {
				return false
			}
		case "$lte":
			if c, ok := compare(val, arg); !ok || c > 0 {
				return false
			}
		case "$in":
			if !exists || !contains(arg, val) {
				return false
			}
		case "$nin":
			if exists && contains(arg, val) {
				return false
			}
		case "$exists":
			want, _ := arg.(bool)
			if exists != want {
				return false
			}
		default:
			// Unsupported operator: match nothing rather than guessing.
			return false
		}
	}
	return true
}

func contains(list any, val any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(val, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// equal compares two values, treating all numeric types as one domain.
func equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values when they are mutually comparable: numbers
// with numbers, strings with strings, instants with instants.
func compare(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
