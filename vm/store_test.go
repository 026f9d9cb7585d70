package vm

import (
	"bytes"
	"testing"
)

func storedFunction(name string, code []int32) *Function {
	return &Function{
		Name:        name,
		ScriptPath:  "lib.fn",
		Code:        code,
		Constants:   []Value{FromInt(1), FromString("x")},
		GlobalNames: []string{"print"},
	}
}

func TestContentHashStable(t *testing.T) {
	a := storedFunction("f", []int32{int32(OpNop), int32(OpEnd)})
	b := storedFunction("f", []int32{int32(OpNop), int32(OpEnd)})
	if a.ContentHash() != b.ContentHash() {
		t.Error("identical functions hash differently")
	}
}

func TestContentHashDiscriminates(t *testing.T) {
	base := storedFunction("f", []int32{int32(OpNop)})
	tests := []struct {
		name string
		fn   *Function
	}{
		{"different name", storedFunction("g", []int32{int32(OpNop)})},
		{"different code", storedFunction("f", []int32{int32(OpEnd)})},
	}
	for _, tt := range tests {
		if tt.fn.ContentHash() == base.ContentHash() {
			t.Errorf("%s: hash collision", tt.name)
		}
	}

	mut := storedFunction("f", []int32{int32(OpNop)})
	mut.Constants = append(mut.Constants, FromFloat(2.5))
	if mut.ContentHash() == base.ContentHash() {
		t.Error("constant pool change not reflected in hash")
	}

	mut = storedFunction("f", []int32{int32(OpNop)})
	mut.GlobalNames = []string{"assert"}
	if mut.ContentHash() == base.ContentHash() {
		t.Error("global-name change not reflected in hash")
	}
}

func TestContentHashIgnoresRuntimeBindings(t *testing.T) {
	a := storedFunction("f", []int32{int32(OpNop)})
	b := storedFunction("f", []int32{int32(OpNop)})
	b.Tables = testTables()
	b.MinSegmentSteps = 1
	b.PrepareSegments()
	if a.ContentHash() != b.ContentHash() {
		t.Error("runtime bindings leaked into the content hash")
	}
}

func TestFunctionStore(t *testing.T) {
	fs := NewFunctionStore()
	a := storedFunction("a", []int32{int32(OpNop)})
	b := storedFunction("b", []int32{int32(OpEnd)})

	ha := fs.Index(a)
	hb := fs.Index(b)

	if fs.Count() != 2 {
		t.Errorf("count = %d, want 2", fs.Count())
	}
	if fs.Lookup(ha) != a || fs.Lookup(hb) != b {
		t.Error("lookup returned the wrong function")
	}
	if fs.Lookup([32]byte{0xFF}) != nil {
		t.Error("lookup of an unknown hash should return nil")
	}

	// Re-indexing the same content is a no-op on the count.
	fs.Index(storedFunction("a", []int32{int32(OpNop)}))
	if fs.Count() != 2 {
		t.Error("re-indexing identical content changed the count")
	}

	hashes := fs.Hashes()
	if len(hashes) != 2 {
		t.Fatalf("got %d hashes, want 2", len(hashes))
	}
	if bytes.Compare(hashes[0][:], hashes[1][:]) >= 0 {
		t.Error("hashes not sorted")
	}
}
