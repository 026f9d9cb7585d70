package vm

import "testing"

// ---------------------------------------------------------------------------
// Operand address tests
// ---------------------------------------------------------------------------

func TestDecodeAddr(t *testing.T) {
	tests := []struct {
		word  int32
		space AddrSpace
		index uint32
	}{
		{0, AddrSpaceStack, 0},
		{5, AddrSpaceStack, 5},
		{int32(uint32(AddrSpaceConstant)<<AddrBits | 9), AddrSpaceConstant, 9},
		{int32(uint32(AddrSpaceMember)<<AddrBits | 0), AddrSpaceMember, 0},
		{int32(uint32(AddrSpaceGlobal)<<AddrBits | AddrMask), AddrSpaceGlobal, AddrMask},
		{int32(uint32(AddrSpaceClassConstant)<<AddrBits | 1234), AddrSpaceClassConstant, 1234},
	}

	for _, tt := range tests {
		a := DecodeAddr(tt.word)
		if a.Space != tt.space {
			t.Errorf("DecodeAddr(%#x): Space = %v, want %v", tt.word, a.Space, tt.space)
		}
		if a.Index != tt.index {
			t.Errorf("DecodeAddr(%#x): Index = %d, want %d", tt.word, a.Index, tt.index)
		}
	}
}

func TestAddrRoundTrip(t *testing.T) {
	// Every (space, index) pair must survive encode/decode unchanged, and
	// every word must survive decode/encode unchanged.
	spaces := []AddrSpace{
		AddrSpaceStack, AddrSpaceConstant, AddrSpaceMember,
		AddrSpaceGlobal, AddrSpaceClassConstant,
	}
	indexes := []uint32{0, 1, 7, 255, 65535, AddrMask}

	for _, sp := range spaces {
		for _, idx := range indexes {
			a := Addr{Space: sp, Index: idx}
			got := DecodeAddr(EncodeAddr(a))
			if got != a {
				t.Errorf("round trip %v = %v", a, got)
			}
		}
	}

	words := []int32{0, 1, 42, 1 << 20, int32(uint32(3)<<AddrBits | 77)}
	for _, w := range words {
		if back := EncodeAddr(DecodeAddr(w)); back != w {
			t.Errorf("EncodeAddr(DecodeAddr(%#x)) = %#x", w, back)
		}
	}
}

func TestAddrSpaceString(t *testing.T) {
	if got := AddrSpaceConstant.String(); got != "const" {
		t.Errorf("AddrSpaceConstant.String() = %q", got)
	}
	if got := AddrSpace(200).String(); got != "space?" {
		t.Errorf("AddrSpace(200).String() = %q", got)
	}
}
