// Package image implements the portable chunk encoding for compiled Fennec
// functions. Chunks are CBOR-encoded with canonical options, so the same
// function always serializes to the same bytes and a content hash over the
// encoding is stable.
package image

import (
	"fmt"

	"github.com/fennec-lang/fennec/vm"
)

// WireValue is the serializable form of a vm.Value. Only data-bearing kinds
// travel on the wire; objects, callables, and signals are runtime-only and
// are rejected at marshal time.
type WireValue struct {
	Type  uint8       `cbor:"1,keyasint"`
	Bool  bool        `cbor:"2,keyasint,omitempty"`
	Int   int64       `cbor:"3,keyasint,omitempty"`
	Float float64     `cbor:"4,keyasint,omitempty"`
	Str   string      `cbor:"5,keyasint,omitempty"`
	Bytes []byte      `cbor:"6,keyasint,omitempty"`
	List  []WireValue `cbor:"7,keyasint,omitempty"`
}

// Hint mirrors vm.OperatorHint on the wire.
type Hint struct {
	IP    int  `cbor:"1,keyasint"`
	Unary bool `cbor:"2,keyasint"`
}

// Chunk is the atomic unit of function storage and exchange: one compiled
// function's code, pools, and decoding hints. Bound tables never travel;
// they are re-established by the loading VM.
type Chunk struct {
	Name          string      `cbor:"1,keyasint"`
	ScriptPath    string      `cbor:"2,keyasint"`
	Code          []int32     `cbor:"3,keyasint"`
	Constants     []WireValue `cbor:"4,keyasint,omitempty"`
	GlobalNames   []string    `cbor:"5,keyasint,omitempty"`
	OperatorHints []Hint      `cbor:"6,keyasint,omitempty"`
}

// FromFunction converts a compiled function into its chunk form.
func FromFunction(f *vm.Function) (*Chunk, error) {
	c := &Chunk{
		Name:        f.Name,
		ScriptPath:  f.ScriptPath,
		Code:        f.Code,
		GlobalNames: f.GlobalNames,
	}
	for i, v := range f.Constants {
		wv, err := toWire(v)
		if err != nil {
			return nil, fmt.Errorf("image: constant %d: %w", i, err)
		}
		c.Constants = append(c.Constants, wv)
	}
	for _, h := range f.OperatorHints {
		c.OperatorHints = append(c.OperatorHints, Hint{IP: h.IP, Unary: h.Unary})
	}
	return c, nil
}

// Function reconstructs a vm.Function from the chunk. Tables and the
// interpreter hook must be bound by the caller before segments are built.
func (c *Chunk) Function() (*vm.Function, error) {
	f := &vm.Function{
		Name:        c.Name,
		ScriptPath:  c.ScriptPath,
		Code:        c.Code,
		GlobalNames: c.GlobalNames,
	}
	for i, wv := range c.Constants {
		v, err := fromWire(wv)
		if err != nil {
			return nil, fmt.Errorf("image: constant %d: %w", i, err)
		}
		f.Constants = append(f.Constants, v)
	}
	for _, h := range c.OperatorHints {
		f.OperatorHints = append(f.OperatorHints, vm.OperatorHint{IP: h.IP, Unary: h.Unary})
	}
	return f, nil
}

func toWire(v vm.Value) (WireValue, error) {
	wv := WireValue{Type: uint8(v.Type())}
	switch v.Type() {
	case vm.TypeNil:
	case vm.TypeBool:
		wv.Bool = v.Bool()
	case vm.TypeInt:
		wv.Int = v.Int()
	case vm.TypeFloat:
		wv.Float = v.Float()
	case vm.TypeString:
		wv.Str = v.Str()
	case vm.TypeBytes:
		wv.Bytes = v.Bytes()
	case vm.TypeList:
		for _, item := range v.List() {
			wi, err := toWire(item)
			if err != nil {
				return WireValue{}, err
			}
			wv.List = append(wv.List, wi)
		}
	default:
		return WireValue{}, fmt.Errorf("kind %s is not serializable", v.Type())
	}
	return wv, nil
}

func fromWire(wv WireValue) (vm.Value, error) {
	switch vm.Type(wv.Type) {
	case vm.TypeNil:
		return vm.Nil(), nil
	case vm.TypeBool:
		return vm.FromBool(wv.Bool), nil
	case vm.TypeInt:
		return vm.FromInt(wv.Int), nil
	case vm.TypeFloat:
		return vm.FromFloat(wv.Float), nil
	case vm.TypeString:
		return vm.FromString(wv.Str), nil
	case vm.TypeBytes:
		return vm.FromBytes(wv.Bytes), nil
	case vm.TypeList:
		items := make([]vm.Value, 0, len(wv.List))
		for _, wi := range wv.List {
			item, err := fromWire(wi)
			if err != nil {
				return vm.Nil(), err
			}
			items = append(items, item)
		}
		return vm.FromList(items), nil
	default:
		return vm.Nil(), fmt.Errorf("kind %d is not deserializable", wv.Type)
	}
}
