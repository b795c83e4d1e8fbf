package reactive

import "reflect"

// Same reports whether a and b are the identical value.
//
// Comparable values use ==, so NaN is never the same as itself and two
// distinct pointers are different even when they point at equal data. Maps,
// slices, funcs and channels compare by reference: a slice is the same only
// when it shares the backing array start and length. A comparable type whose
// value holds an uncomparable one, such as a struct field of type any holding
// a slice, is never the same.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ta.Comparable() {
		if !va.Comparable() || !vb.Comparable() {
			return false
		}
		return a == b
	}

	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}
