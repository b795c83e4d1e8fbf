// Package expr resolves dotted property paths such as "user.name" against
// observed objects and plain maps.
package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
)

// ErrInvalidPath reports a path containing characters outside [\w.$].
var ErrInvalidPath = errors.New("expr: invalid expression path")

var illegal = regexp.MustCompile(`[^\w.$]`)

// Getter is a keyed value source the resolver can descend into.
type Getter interface {
	Get(key string) any
}

// Accessor walks a parsed path from a root value.
type Accessor func(root any) any

// Parse trims exp and compiles it into an Accessor. ok is false when exp holds
// an illegal character; callers decide how to report that.
//
// The accessor stops at the first falsy intermediate value (see Falsy) and
// returns nil, so missing links resolve to nil instead of failing.
func Parse(exp string) (accessor Accessor, ok bool) {
	exp = strings.TrimSpace(exp)
	if illegal.MatchString(exp) {
		return nil, false
	}
	segments := strings.Split(exp, ".")

	return func(root any) any {
		cur := root
		for _, seg := range segments {
			if Falsy(cur) {
				return nil
			}
			cur = step(cur, seg)
		}
		return cur
	}, true
}

// Resolve parses exp and applies it to root.
func Resolve(exp string, root any) (any, error) {
	accessor, ok := Parse(exp)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, exp)
	}
	return accessor(root), nil
}

func step(cur any, key string) any {
	switch v := cur.(type) {
	case Getter:
		return v.Get(key)
	case map[string]any:
		return v[key]
	default:
		return nil
	}
}

// Falsy reports whether v is nil, false, a numeric zero, NaN or the empty
// string.
func Falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case float64:
		return x == 0 || math.IsNaN(x)
	case float32:
		return x == 0 || math.IsNaN(float64(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
