// Package value centralizes how the engine walks and stringifies the
// duck-typed JSON values (map[string]any / []any / string / float64 / bool /
// nil, the shape encoding/json already produces) that flow through the
// variable map, step params, and step outputs. It is the deterministic
// stringification and dotted-path lookup the template engine and condition
// evaluator both depend on.
package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Map is a per-execution variable map: name -> value.
type Map map[string]any

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Get resolves a dot-separated path against data. Every intermediate key
// must exist and resolve to an object; the final segment's value is
// returned. Grounded on the teacher's GetNestedValue walking idiom
// (internal/workflows/runtime/starlark_eval.go), generalized to also walk
// top-level Map values.
func Get(data map[string]any, path string) (any, bool) {
	if path == "" {
		return data, true
	}
	parts := strings.Split(path, ".")
	var current any = data
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		val, ok := obj[part]
		if !ok {
			return nil, false
		}
		current = val
	}
	return current, true
}

// Stringify renders v the way template interpolation requires: numbers as
// decimal, booleans as true/false, strings unquoted, everything else
// (arrays, objects, null) as its JSON encoding.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// Truthy implements the engine's bare-value truthiness rule: literal true,
// a non-empty string, or a non-zero number.
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}

// Equal implements strict equality (== and === are identical per spec).
func Equal(a, b any) bool {
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		return af == bf
	}
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Compare orders a and b numerically or lexicographically for <,<=,>,>=.
// ok is false when the operands are not comparable this way.
func Compare(a, b any) (result int, ok bool) {
	if af, aOK := asFloat(a); aOK {
		if bf, bOK := asFloat(b); bOK {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	as, aOK := a.(string)
	bs, bOK := b.(string)
	if aOK && bOK {
		return strings.Compare(as, bs), true
	}
	return 0, false
}
