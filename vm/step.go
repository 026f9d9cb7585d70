package vm

// ---------------------------------------------------------------------------
// Native steps
// ---------------------------------------------------------------------------

// StepKind tags the variant of a NativeStep.
type StepKind uint8

const (
	StepOperator StepKind = iota
	StepNamedGet
	StepNamedSet
	StepIndexedGet
	StepIndexedSet
	StepKeyedGet
	StepKeyedSet
	StepCallValidated
	StepTypeAdjust
)

var stepKindNames = [...]string{
	StepOperator:      "operator",
	StepNamedGet:      "named-get",
	StepNamedSet:      "named-set",
	StepIndexedGet:    "indexed-get",
	StepIndexedSet:    "indexed-set",
	StepKeyedGet:      "keyed-get",
	StepKeyedSet:      "keyed-set",
	StepCallValidated: "call-validated",
	StepTypeAdjust:    "type-adjust",
}

// String implements the Stringer interface.
func (k StepKind) String() string {
	if int(k) < len(stepKindNames) {
		return stepKindNames[k]
	}
	return "step?"
}

// CallKind distinguishes the three validated call forms.
type CallKind uint8

const (
	CallBuiltin CallKind = iota
	CallUtility
	CallLangUtility
)

// OperatorStep evaluates a bound operator over two operands (one for unary
// operators) into a destination.
type OperatorStep struct {
	A, B, Dst Addr
	Evaluator OperatorEvaluator
	Unary     bool
}

// NamedGetStep reads a named property through a bound getter.
type NamedGetStep struct {
	Src, Dst Addr
	Getter   NamedGetter
}

// NamedSetStep writes a named property through a bound setter.
type NamedSetStep struct {
	Dst, Value Addr
	Setter     NamedSetter
}

// IndexedGetStep reads an integer-indexed element through a bound getter.
type IndexedGetStep struct {
	Src, Index, Dst Addr
	Getter          IndexedGetter
}

// IndexedSetStep writes an integer-indexed element through a bound setter.
type IndexedSetStep struct {
	Dst, Index, Value Addr
	Setter            IndexedSetter
}

// KeyedGetStep reads a keyed element through a bound getter.
type KeyedGetStep struct {
	Src, Key, Dst Addr
	Getter        KeyedGetter
}

// KeyedSetStep writes a keyed element through a bound setter.
type KeyedSetStep struct {
	Dst, Key, Value Addr
	Setter          KeyedSetter
}

// CallStep invokes a pre-validated callable with an argument address list
// sized exactly to the call's argument count. Only the handle matching Kind
// is set.
type CallStep struct {
	Kind        CallKind
	Base        Addr // receiver, CallBuiltin only
	Dst         Addr
	Args        []Addr
	Builtin     BuiltinMethod
	Utility     UtilityFunc
	LangUtility LangUtilityFunc
}

// TypeAdjustStep coerces the value at Dst to the target kind in place.
type TypeAdjustStep struct {
	Dst    Addr
	Target Type
}

// NativeStep is one decoded fast-path operation. Kind selects which variant
// pointer is set; the others are nil. A step owns only index and tag data
// plus stable handles into pre-existing function tables.
type NativeStep struct {
	Kind StepKind

	Operator   *OperatorStep
	NamedGet   *NamedGetStep
	NamedSet   *NamedSetStep
	IndexedGet *IndexedGetStep
	IndexedSet *IndexedSetStep
	KeyedGet   *KeyedGetStep
	KeyedSet   *KeyedSetStep
	Call       *CallStep
	Adjust     *TypeAdjustStep
}

// NativeSegment is a maximal contiguous run [StartIP, EndIP) of fast-path
// instructions, together with the steps they decode to. Built once,
// immutable thereafter.
type NativeSegment struct {
	StartIP int
	EndIP   int
	Steps   []NativeStep
}
