package vm

// ---------------------------------------------------------------------------
// Bound function tables
// ---------------------------------------------------------------------------

// The tables below are supplied by the embedder (the interpreter and its
// property system). They are append-only and index-addressed; decoding only
// validates index bounds and stores the handle. Nothing in this package
// calls through a handle.

// OperatorEvaluator applies a pre-validated operator. For unary operators
// the second operand is ignored.
type OperatorEvaluator func(a, b *Value, dst *Value)

// NamedGetter reads a named property from base into dst.
type NamedGetter func(base *Value, dst *Value)

// NamedSetter writes value into a named property of dst.
type NamedSetter func(dst *Value, value *Value)

// IndexedGetter reads base[index] into dst for an integer-like index.
type IndexedGetter func(base *Value, index int64, dst *Value)

// IndexedSetter writes value into dst[index] for an integer-like index.
type IndexedSetter func(dst *Value, index int64, value *Value)

// KeyedGetter reads base[key] into dst for an arbitrary key.
type KeyedGetter func(base *Value, key *Value, dst *Value)

// KeyedSetter writes value into dst[key] for an arbitrary key.
type KeyedSetter func(dst *Value, key *Value, value *Value)

// BuiltinMethod invokes a pre-validated method of a builtin type.
type BuiltinMethod func(base *Value, args []*Value, dst *Value)

// UtilityFunc invokes a pre-validated engine utility function.
type UtilityFunc func(args []*Value, dst *Value)

// LangUtilityFunc invokes a language-level utility function.
type LangUtilityFunc func(args []*Value, dst *Value)

// BoundTables groups every function table a compiled function resolves its
// validated instructions against. A function's segments must be rebuilt
// whenever its tables are re-established.
type BoundTables struct {
	Operators      []OperatorEvaluator
	NamedGetters   []NamedGetter
	NamedSetters   []NamedSetter
	IndexedGetters []IndexedGetter
	IndexedSetters []IndexedSetter
	KeyedGetters   []KeyedGetter
	KeyedSetters   []KeyedSetter
	BuiltinMethods []BuiltinMethod
	Utilities      []UtilityFunc
	LangUtilities  []LangUtilityFunc
}

// ---------------------------------------------------------------------------
// Operator classification
// ---------------------------------------------------------------------------

// Operator identifies a language operator, independent of the evaluator
// handle bound for a particular operand-type pair.
type Operator int

const (
	OperatorAdd Operator = iota
	OperatorSubtract
	OperatorMultiply
	OperatorDivide
	OperatorNegate
	OperatorModulo
	OperatorPower
	OperatorEqual
	OperatorNotEqual
	OperatorLess
	OperatorLessEqual
	OperatorGreater
	OperatorGreaterEqual
	OperatorNot
	OperatorAnd
	OperatorOr
)

// IsMathOperator reports whether op is an arithmetic operator.
func IsMathOperator(op Operator) bool {
	switch op {
	case OperatorAdd, OperatorSubtract, OperatorMultiply, OperatorDivide,
		OperatorNegate, OperatorModulo, OperatorPower:
		return true
	default:
		return false
	}
}
