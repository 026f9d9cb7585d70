package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Type: the closed enumeration of Fennec value kinds
// ---------------------------------------------------------------------------

// Type identifies the runtime kind of a Value. The enumeration is closed:
// every value a Fennec program can hold has exactly one of these kinds.
type Type uint8

const (
	TypeNil Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeBytes
	TypeList
	TypeMap
	TypeIntList
	TypeFloatList
	TypeStringList
	TypeObject
	TypeCallable
	TypeSignal

	typeMax // sentinel, not a real kind
)

var typeNames = [typeMax]string{
	TypeNil:        "Nil",
	TypeBool:       "Bool",
	TypeInt:        "Int",
	TypeFloat:      "Float",
	TypeString:     "String",
	TypeBytes:      "Bytes",
	TypeList:       "List",
	TypeMap:        "Map",
	TypeIntList:    "IntList",
	TypeFloatList:  "FloatList",
	TypeStringList: "StringList",
	TypeObject:     "Object",
	TypeCallable:   "Callable",
	TypeSignal:     "Signal",
}

// String implements the Stringer interface.
func (t Type) String() string {
	if t < typeMax {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ---------------------------------------------------------------------------
// Value: compact tagged variant
// ---------------------------------------------------------------------------

// Value is a Fennec runtime value. Scalar kinds live inline; composite kinds
// (bytes, list, map, object payloads) share the ref slot. The zero Value is
// nil.
type Value struct {
	typ Type
	b   bool
	i   int64
	f   float64
	s   string
	ref interface{}
}

// Nil returns the nil value.
func Nil() Value {
	return Value{}
}

// FromBool wraps a bool.
func FromBool(b bool) Value {
	return Value{typ: TypeBool, b: b}
}

// FromInt wraps an int64.
func FromInt(i int64) Value {
	return Value{typ: TypeInt, i: i}
}

// FromFloat wraps a float64.
func FromFloat(f float64) Value {
	return Value{typ: TypeFloat, f: f}
}

// FromString wraps a string.
func FromString(s string) Value {
	return Value{typ: TypeString, s: s}
}

// FromBytes wraps a byte slice.
func FromBytes(b []byte) Value {
	return Value{typ: TypeBytes, ref: b}
}

// FromList wraps a value slice.
func FromList(items []Value) Value {
	return Value{typ: TypeList, ref: items}
}

// FromMap wraps a string-keyed map.
func FromMap(m map[string]Value) Value {
	return Value{typ: TypeMap, ref: m}
}

// FromObject wraps an opaque object payload.
func FromObject(o interface{}) Value {
	return Value{typ: TypeObject, ref: o}
}

// Type returns the value's kind.
func (v Value) Type() Type {
	return v.typ
}

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool {
	return v.typ == TypeNil
}

// Bool returns the bool payload. Valid only for TypeBool.
func (v Value) Bool() bool {
	return v.b
}

// Int returns the integer payload. Valid only for TypeInt.
func (v Value) Int() int64 {
	return v.i
}

// Float returns the float payload. Valid only for TypeFloat.
func (v Value) Float() float64 {
	return v.f
}

// Str returns the string payload. Valid only for TypeString.
func (v Value) Str() string {
	return v.s
}

// Bytes returns the bytes payload, or nil for other kinds.
func (v Value) Bytes() []byte {
	if b, ok := v.ref.([]byte); ok {
		return b
	}
	return nil
}

// List returns the list payload, or nil for other kinds.
func (v Value) List() []Value {
	if l, ok := v.ref.([]Value); ok {
		return l
	}
	return nil
}

// Map returns the map payload, or nil for other kinds.
func (v Value) Map() map[string]Value {
	if m, ok := v.ref.(map[string]Value); ok {
		return m
	}
	return nil
}

// Object returns the opaque object payload, or nil for other kinds.
func (v Value) Object() interface{} {
	if v.typ != TypeObject {
		return nil
	}
	return v.ref
}

// String implements the Stringer interface.
func (v Value) String() string {
	switch v.typ {
	case TypeNil:
		return "nil"
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeString:
		return v.s
	case TypeList:
		items := v.List()
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("<%s>", v.typ)
	}
}
