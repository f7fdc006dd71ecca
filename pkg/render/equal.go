package render

import "reflect"

// shallowEqual reports whether two item values are equal one level deep:
// identical references (or comparable values), or same-type structs and maps
// whose immediate fields/entries are pairwise reference-equal. It never
// recurses, so a changed nested value behind a shared pointer does not count
// as a change.
func shallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	if va.Type().Comparable() && a == b {
		return true
	}

	// One-level unwrap so *T items compare by pointee fields, not address.
	if va.Kind() == reflect.Pointer {
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		va, vb = va.Elem(), vb.Elem()
	}

	switch va.Kind() {
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !refEqual(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true

	case reflect.Map:
		if va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			bv := vb.MapIndex(iter.Key())
			if !bv.IsValid() || !refEqual(iter.Value(), bv) {
				return false
			}
		}
		return true

	default:
		return refEqual(va, vb)
	}
}

// refEqual compares two values by reference/identity without recursing.
func refEqual(a, b reflect.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Kind() == reflect.Func {
			return a.Pointer() == b.Pointer()
		}
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()

	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return refEqual(a.Elem(), b.Elem())

	default:
		if !a.Comparable() || !b.Comparable() {
			return false
		}
		if !a.CanInterface() || !b.CanInterface() {
			// Unexported field: fall back to a conservative "changed".
			return false
		}
		return a.Interface() == b.Interface()
	}
}
