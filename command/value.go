package command

import (
	"fmt"
	"reflect"
	"strconv"
)

type valueKind int

const (
	scalarValue valueKind = iota
	sequenceValue
	optionalValue
)

func (k valueKind) String() string {
	switch k {
	case scalarValue:
		return "scalar"
	case sequenceValue:
		return "sequence"
	default:
		return "optional"
	}
}

// Value is an interpolated template value: a scalar that renders to exactly
// one argument, a sequence that renders to one argument per element, or an
// optional that renders to nothing when absent and like a sequence when
// present.
type Value struct {
	kind  valueKind
	items []string
}

// Scalar returns a value that renders to exactly one argument, even when s
// is empty or contains whitespace.
func Scalar(s string) Value {
	return Value{kind: scalarValue, items: []string{s}}
}

// Seq returns a value that renders to one argument per item.
func Seq(items ...string) Value {
	return Value{kind: sequenceValue, items: append([]string{}, items...)}
}

// Some returns a present optional value.
func Some(items ...string) Value {
	return Value{kind: optionalValue, items: append([]string{}, items...)}
}

// None returns an absent optional value, which renders to no arguments.
func None() Value {
	return Value{kind: optionalValue}
}

// Args returns the arguments the value renders to.
func (v Value) Args() []string {
	return append([]string(nil), v.items...)
}

// IsScalar reports whether the value can be bound to a {name} marker.
func (v Value) IsScalar() bool {
	return v.kind == scalarValue
}

// ValueOf classifies a Go value:
//
//   - Value is used as is.
//   - strings (including named string types), []byte, booleans, integers,
//     floats and fmt.Stringer are scalars.
//   - slices and arrays of scalars are sequences.
//   - nil and pointers are optionals; a non-nil pointer renders its pointee.
//
// Anything else (maps, structs, funcs, channels) is rejected.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case nil:
		return None(), nil
	case string:
		return Scalar(x), nil
	case []string:
		return Seq(x...), nil
	case []byte:
		return Scalar(string(x)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return None(), nil
		}
		inner, err := ValueOf(rv.Elem().Interface())
		if err != nil {
			if s, ok := v.(fmt.Stringer); ok {
				return Some(s.String()), nil
			}
			return Value{}, err
		}
		return Some(inner.items...), nil
	case reflect.Slice, reflect.Array:
		if s, ok := v.(fmt.Stringer); ok {
			return Scalar(s.String()), nil
		}
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			s, ok := scalarString(elem)
			if !ok {
				return Value{}, fmt.Errorf("element %d of %T is not a scalar (%s)", i, v, elem.Kind())
			}
			items = append(items, s)
		}
		return Seq(items...), nil
	}

	if s, ok := scalarString(rv); ok {
		return Scalar(s), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", v)
}

// scalarString renders a single scalar, reporting false for non-scalars.
func scalarString(rv reflect.Value) (string, bool) {
	if !rv.IsValid() {
		return "", false
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case string:
			return x, true
		case []byte:
			return string(x), true
		case fmt.Stringer:
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return "", false
			}
			return x.String(), true
		}
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), true
	}
	return "", false
}
