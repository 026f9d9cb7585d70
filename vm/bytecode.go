package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies one instruction. The instruction stream is a sequence of
// int32 words; each instruction occupies a word count determined solely by
// its opcode (plus, for calls, a trailing control word).
type Opcode int32

// Generic dispatch (executed one at a time by the interpreter loop)
const (
	OpNop         Opcode = 0x00 // no operation
	OpAssign      Opcode = 0x01 // dst = src
	OpJump        Opcode = 0x02 // unconditional jump (absolute target word)
	OpJumpIf      Opcode = 0x03 // jump if condition operand is truthy
	OpJumpIfNot   Opcode = 0x04 // jump if condition operand is falsy
	OpReturn      Opcode = 0x05 // return operand to caller
	OpCall        Opcode = 0x06 // generic (unvalidated) call
	OpAwait       Opcode = 0x07 // suspend at a wait point
	OpAwaitResume Opcode = 0x08 // receive the resume result
	OpLine        Opcode = 0x09 // source line marker
	OpEnd         Opcode = 0x0A // end of function body
)

// Validated fast path (eligible for native segments)
const (
	OpOperatorValidated        Opcode = 0x20 // a, b, dst, evaluator index
	OpGetNamedValidated        Opcode = 0x21 // src, dst, getter index
	OpSetNamedValidated        Opcode = 0x22 // dst, value, setter index
	OpGetKeyedValidated        Opcode = 0x23 // src, key, dst, getter index
	OpSetKeyedValidated        Opcode = 0x24 // dst, key, value, setter index
	OpGetIndexedValidated      Opcode = 0x25 // src, index, dst, getter index
	OpSetIndexedValidated      Opcode = 0x26 // dst, index, value, setter index
	OpCallBuiltinTypeValidated Opcode = 0x27 // argc-prefixed, builtin method index
	OpCallUtilityValidated     Opcode = 0x28 // argc-prefixed, utility index
	OpCallLangUtilityValidated Opcode = 0x29 // argc-prefixed, language utility index
)

// Type coercion opcodes, one per target kind. The block 0x40..0x5F is
// reserved for coercions; words inside the block with no assigned target are
// treated as a stream anomaly by the segment assembler.
const (
	OpTypeAdjustBool       Opcode = 0x40
	OpTypeAdjustInt        Opcode = 0x41
	OpTypeAdjustFloat      Opcode = 0x42
	OpTypeAdjustString     Opcode = 0x43
	OpTypeAdjustBytes      Opcode = 0x44
	OpTypeAdjustList       Opcode = 0x45
	OpTypeAdjustMap        Opcode = 0x46
	OpTypeAdjustIntList    Opcode = 0x47
	OpTypeAdjustFloatList  Opcode = 0x48
	OpTypeAdjustStringList Opcode = 0x49
	OpTypeAdjustObject     Opcode = 0x4A
	OpTypeAdjustCallable   Opcode = 0x4B
	OpTypeAdjustSignal     Opcode = 0x4C

	opTypeAdjustFirst Opcode = 0x40
	opTypeAdjustLast  Opcode = 0x5F
)

// adjustTargets maps a coercion opcode to its target kind. Opcodes inside
// the reserved coercion block but absent here have no known tag.
var adjustTargets = map[Opcode]Type{
	OpTypeAdjustBool:       TypeBool,
	OpTypeAdjustInt:        TypeInt,
	OpTypeAdjustFloat:      TypeFloat,
	OpTypeAdjustString:     TypeString,
	OpTypeAdjustBytes:      TypeBytes,
	OpTypeAdjustList:       TypeList,
	OpTypeAdjustMap:        TypeMap,
	OpTypeAdjustIntList:    TypeIntList,
	OpTypeAdjustFloatList:  TypeFloatList,
	OpTypeAdjustStringList: TypeStringList,
	OpTypeAdjustObject:     TypeObject,
	OpTypeAdjustCallable:   TypeCallable,
	OpTypeAdjustSignal:     TypeSignal,
}

// AdjustTarget returns the target kind of a coercion opcode, and whether op
// is a coercion with a known tag.
func AdjustTarget(op Opcode) (Type, bool) {
	t, ok := adjustTargets[op]
	return t, ok
}

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name  string // human-readable name
	Words int    // instruction word count, -1 for argc-dependent
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpNop:         {"NOP", 1},
	OpAssign:      {"ASSIGN", 3},
	OpJump:        {"JUMP", 2},
	OpJumpIf:      {"JUMP_IF", 3},
	OpJumpIfNot:   {"JUMP_IF_NOT", 3},
	OpReturn:      {"RETURN", 2},
	OpCall:        {"CALL", -1},
	OpAwait:       {"AWAIT", 2},
	OpAwaitResume: {"AWAIT_RESUME", 2},
	OpLine:        {"LINE", 2},
	OpEnd:         {"END", 1},

	OpOperatorValidated:        {"OPERATOR_VALIDATED", 5},
	OpGetNamedValidated:        {"GET_NAMED_VALIDATED", 4},
	OpSetNamedValidated:        {"SET_NAMED_VALIDATED", 4},
	OpGetKeyedValidated:        {"GET_KEYED_VALIDATED", 5},
	OpSetKeyedValidated:        {"SET_KEYED_VALIDATED", 5},
	OpGetIndexedValidated:      {"GET_INDEXED_VALIDATED", 5},
	OpSetIndexedValidated:      {"SET_INDEXED_VALIDATED", 5},
	OpCallBuiltinTypeValidated: {"CALL_BUILTIN_TYPE_VALIDATED", -1},
	OpCallUtilityValidated:     {"CALL_UTILITY_VALIDATED", -1},
	OpCallLangUtilityValidated: {"CALL_LANG_UTILITY_VALIDATED", -1},

	OpTypeAdjustBool:       {"TYPE_ADJUST_BOOL", 2},
	OpTypeAdjustInt:        {"TYPE_ADJUST_INT", 2},
	OpTypeAdjustFloat:      {"TYPE_ADJUST_FLOAT", 2},
	OpTypeAdjustString:     {"TYPE_ADJUST_STRING", 2},
	OpTypeAdjustBytes:      {"TYPE_ADJUST_BYTES", 2},
	OpTypeAdjustList:       {"TYPE_ADJUST_LIST", 2},
	OpTypeAdjustMap:        {"TYPE_ADJUST_MAP", 2},
	OpTypeAdjustIntList:    {"TYPE_ADJUST_INT_LIST", 2},
	OpTypeAdjustFloatList:  {"TYPE_ADJUST_FLOAT_LIST", 2},
	OpTypeAdjustStringList: {"TYPE_ADJUST_STRING_LIST", 2},
	OpTypeAdjustObject:     {"TYPE_ADJUST_OBJECT", 2},
	OpTypeAdjustCallable:   {"TYPE_ADJUST_CALLABLE", 2},
	OpTypeAdjustSignal:     {"TYPE_ADJUST_SIGNAL", 2},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", int32(op)), Words: 1}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Instruction stream decoding
// ---------------------------------------------------------------------------

// InstrLen returns the word count of the instruction at ip. For validated
// calls the count depends on the trailing control word after the opcode.
// Out-of-range positions decode to a length of 1 so scanning always
// advances; the decoder never fails.
func InstrLen(code []int32, ip int) int {
	if ip < 0 || ip >= len(code) {
		return 1
	}
	op := Opcode(code[ip])
	switch op {
	case OpCall, OpCallBuiltinTypeValidated, OpCallUtilityValidated, OpCallLangUtilityValidated:
		if ip+1 >= len(code) {
			return 1
		}
		// A negative control word clamps to 1 like every other malformed
		// read; the call itself is rejected later, at step decode.
		if n := 4 + int(code[ip+1]); n > 0 {
			return n
		}
		return 1
	}
	if n := op.Info().Words; n > 0 {
		return n
	}
	return 1
}

// IsFastPath reports whether an opcode is eligible for native segments:
// validated operator evaluation, validated named/keyed/indexed accessors,
// the three validated call forms, and the type coercion block. Generic
// (unvalidated) forms are excluded; they cannot be proven type-safe ahead
// of time.
func IsFastPath(op Opcode) bool {
	switch op {
	case OpOperatorValidated,
		OpGetNamedValidated, OpSetNamedValidated,
		OpGetKeyedValidated, OpSetKeyedValidated,
		OpGetIndexedValidated, OpSetIndexedValidated,
		OpCallBuiltinTypeValidated, OpCallUtilityValidated, OpCallLangUtilityValidated:
		return true
	}
	return op >= opTypeAdjustFirst && op <= opTypeAdjustLast
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

func fmtAddr(word int32) string {
	a := DecodeAddr(word)
	return fmt.Sprintf("%s:%d", a.Space, a.Index)
}

// DisassembleInstruction renders the instruction at ip and returns its text
// together with the next instruction pointer.
func DisassembleInstruction(code []int32, ip int) (string, int) {
	op := Opcode(code[ip])
	size := InstrLen(code, ip)
	if ip+size > len(code) {
		// Truncated tail; render the opcode word alone.
		return fmt.Sprintf("%04d  %s <truncated>", ip, op), len(code)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d  %s", ip, op)
	switch op {
	case OpAssign:
		fmt.Fprintf(&sb, " %s <- %s", fmtAddr(code[ip+1]), fmtAddr(code[ip+2]))
	case OpJump:
		fmt.Fprintf(&sb, " -> %04d", code[ip+1])
	case OpJumpIf, OpJumpIfNot:
		fmt.Fprintf(&sb, " %s -> %04d", fmtAddr(code[ip+1]), code[ip+2])
	case OpReturn, OpAwait, OpAwaitResume:
		fmt.Fprintf(&sb, " %s", fmtAddr(code[ip+1]))
	case OpLine:
		fmt.Fprintf(&sb, " %d", code[ip+1])
	case OpOperatorValidated:
		fmt.Fprintf(&sb, " %s %s -> %s fn=%d",
			fmtAddr(code[ip+1]), fmtAddr(code[ip+2]), fmtAddr(code[ip+3]), code[ip+4])
	case OpGetNamedValidated, OpSetNamedValidated:
		fmt.Fprintf(&sb, " %s %s fn=%d", fmtAddr(code[ip+1]), fmtAddr(code[ip+2]), code[ip+3])
	case OpGetKeyedValidated, OpSetKeyedValidated, OpGetIndexedValidated, OpSetIndexedValidated:
		fmt.Fprintf(&sb, " %s %s %s fn=%d",
			fmtAddr(code[ip+1]), fmtAddr(code[ip+2]), fmtAddr(code[ip+3]), code[ip+4])
	case OpCall, OpCallBuiltinTypeValidated, OpCallUtilityValidated, OpCallLangUtilityValidated:
		argc := int(code[ip+1])
		fmt.Fprintf(&sb, " argc=%d", argc)
		for i := 0; i < argc && ip+2+i < ip+size; i++ {
			fmt.Fprintf(&sb, " %s", fmtAddr(code[ip+2+i]))
		}
		fmt.Fprintf(&sb, " fn=%d", code[ip+size-1])
	default:
		if _, ok := adjustTargets[op]; ok {
			fmt.Fprintf(&sb, " %s", fmtAddr(code[ip+1]))
		}
	}
	return sb.String(), ip + size
}

// Disassemble returns a full disassembly of an instruction stream.
func Disassemble(code []int32) string {
	var sb strings.Builder
	ip := 0
	for ip < len(code) {
		line, next := DisassembleInstruction(code, ip)
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
		ip = next
	}
	return sb.String()
}
