package vm

// ---------------------------------------------------------------------------
// Function: compiled Fennec function
// ---------------------------------------------------------------------------

// OperatorHint marks the validated operator instruction at IP as unary.
// Hints are recorded by the compiler when the function's code is emitted;
// an instruction without a hint is binary.
type OperatorHint struct {
	IP    int
	Unary bool
}

// CallFunc re-enters the interpreter loop for a suspended call. It returns
// the call's result and, if the call suspended again, the new suspension.
// The interpreter loop itself lives outside this package.
type CallFunc func(state *CallState) (Value, *FunctionState)

// Function is a compiled Fennec function: its instruction stream, constant
// pool, metadata, and the bound tables its validated instructions resolve
// against. Code and constants are set once at compile time and never
// mutated.
type Function struct {
	// Identity
	Name       string
	ScriptPath string

	// Compiled code
	Code        []int32
	Constants   []Value
	GlobalNames []string

	// Decoding inputs
	OperatorHints []OperatorHint
	Tables        *BoundTables

	// MinSegmentSteps overrides the minimum profitable segment length.
	// Zero selects DefaultMinSegmentSteps.
	MinSegmentSteps int

	// Invoke is the interpreter hook used by FunctionState.Resume.
	Invoke CallFunc

	segments      []NativeSegment
	segmentIndex  []int32
	segmentsReady bool
}

// Constant returns the constant-pool entry at idx, or an error-marker value
// for an out-of-range index.
func (f *Function) Constant(idx int) Value {
	if idx < 0 || idx >= len(f.Constants) {
		return FromString("<errconst>")
	}
	return f.Constants[idx]
}

// GlobalName returns the global-name entry at idx, or an error marker for an
// out-of-range index.
func (f *Function) GlobalName(idx int) string {
	if idx < 0 || idx >= len(f.GlobalNames) {
		return "<errgname>"
	}
	return f.GlobalNames[idx]
}

// SegmentsReady reports whether native segments have been built for the
// current code and tables.
func (f *Function) SegmentsReady() bool {
	return f.segmentsReady
}

// Segments returns the retained native segments, ordered by start
// instruction pointer. The returned slice is read-only.
func (f *Function) Segments() []NativeSegment {
	return f.segments
}

// SegmentStartingAt returns the segment whose range begins exactly at ip,
// if one was retained. Lookup is O(1) through the dense segment index.
func (f *Function) SegmentStartingAt(ip int) (*NativeSegment, bool) {
	if !f.segmentsReady || ip < 0 || ip >= len(f.segmentIndex) {
		return nil, false
	}
	slot := f.segmentIndex[ip]
	if slot < 0 {
		return nil, false
	}
	return &f.segments[slot], true
}

// InvalidateSegments drops built segments. Call it before rebinding Tables;
// the next PrepareSegments builds against the new handles.
func (f *Function) InvalidateSegments() {
	f.segments = nil
	f.segmentIndex = nil
	f.segmentsReady = false
}
