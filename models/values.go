package models

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// coerce converts v to the canonical Go representation of t: float64 for floats,
// int for ints. The second result is false when v cannot be converted.
func coerce(t DataType, v any) (any, bool) {
	switch t {
	case TypeFloat:
		f, ok := toFloat(v)
		return f, ok
	case TypeInt:
		i, ok := toInt(v)
		return i, ok
	case TypeBool:
		b, ok := toBool(v)
		return b, ok
	case TypeString, TypeUnicode:
		switch x := v.(type) {
		case nil:
			return "", true
		case string:
			return x, true
		case []byte:
			return string(x), true
		case fmt.Stringer:
			return x.String(), true
		default:
			return fmt.Sprint(x), true
		}
	case TypeRefInfo:
		if v == nil {
			return (*RefinementInfo)(nil), true
		}
		info, err := RestoreRefinementInfo(v)
		if err != nil {
			return nil, false
		}
		return info, true
	default:
		return v, true
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		return i, err == nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < math.MinInt || i > math.MaxInt {
			return 0, false
		}
		return int(i), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		// float64(math.MaxInt) rounds up to 2^63, which no int can hold.
		if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}

func zeroValue(t DataType) any {
	switch t {
	case TypeFloat:
		return 0.0
	case TypeInt:
		return 0
	case TypeBool:
		return false
	case TypeString, TypeUnicode:
		return ""
	case TypeRefInfo:
		return (*RefinementInfo)(nil)
	default:
		return nil
	}
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	// Comparable structs and arrays may still hold slices behind interface
	// fields, where == panics.
	switch ta.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Ptr, reflect.Chan, reflect.UnsafePointer:
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
