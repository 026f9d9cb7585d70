package vm

// ---------------------------------------------------------------------------
// Packed operand addresses
// ---------------------------------------------------------------------------

// Operands in the instruction stream are packed int32 words: the high 8 bits
// select an address space, the low 24 bits are an index within that space.
const (
	// AddrBits is the index width of a packed operand.
	AddrBits = 24
	// AddrMask extracts the index from a packed operand.
	AddrMask = (1 << AddrBits) - 1
	// AddrSpaceMask extracts the address-space bits from a packed operand.
	AddrSpaceMask = ^uint32(AddrMask)
)

// AddrSpace selects which value space an operand index refers to.
type AddrSpace uint8

const (
	AddrSpaceStack AddrSpace = iota
	AddrSpaceConstant
	AddrSpaceMember
	AddrSpaceGlobal
	AddrSpaceClassConstant
)

var addrSpaceNames = [...]string{
	AddrSpaceStack:         "stack",
	AddrSpaceConstant:      "const",
	AddrSpaceMember:        "member",
	AddrSpaceGlobal:        "global",
	AddrSpaceClassConstant: "classconst",
}

// String implements the Stringer interface.
func (s AddrSpace) String() string {
	if int(s) < len(addrSpaceNames) {
		return addrSpaceNames[s]
	}
	return "space?"
}

// Addr is a decoded operand address: an address space plus an index into it.
type Addr struct {
	Space AddrSpace
	Index uint32
}

// DecodeAddr unpacks an operand word into its (space, index) pair. It is a
// pure mask-and-shift, total over the full int32 domain.
func DecodeAddr(word int32) Addr {
	u := uint32(word)
	return Addr{
		Space: AddrSpace(u >> AddrBits),
		Index: u & AddrMask,
	}
}

// EncodeAddr packs a (space, index) pair back into an operand word.
// EncodeAddr(DecodeAddr(w)) == w for every w.
func EncodeAddr(a Addr) int32 {
	return int32(uint32(a.Space)<<AddrBits | a.Index&AddrMask)
}
