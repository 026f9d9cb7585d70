package vm

// ---------------------------------------------------------------------------
// Segment assembler
// ---------------------------------------------------------------------------

// DefaultMinSegmentSteps is the minimum step count a segment must reach to
// be worth a specialized dispatch path. Shorter runs are executed by the
// general interpreter.
const DefaultMinSegmentSteps = 10

// stepError classifies a failed step decode.
type stepError uint8

const (
	stepOK stepError = iota
	// stepFailed degrades the failing instruction to slow-path execution;
	// scanning continues past it.
	stepFailed
	// stepUnknownTag is a coercion opcode with no known target kind. The
	// rest of the scan is abandoned: the stream is anomalous and nothing
	// after this point is trusted as fast-path.
	stepUnknownTag
)

// segmentDecoder decodes single fast-path instructions against a function's
// bound tables.
type segmentDecoder struct {
	fn    *Function
	unary map[int]bool
}

func newSegmentDecoder(fn *Function) *segmentDecoder {
	d := &segmentDecoder{fn: fn, unary: make(map[int]bool, len(fn.OperatorHints))}
	for _, h := range fn.OperatorHints {
		d.unary[h.IP] = h.Unary
	}
	return d
}

func (d *segmentDecoder) tables() *BoundTables {
	if d.fn.Tables == nil {
		return &BoundTables{}
	}
	return d.fn.Tables
}

// decodeStep decodes the fast-path instruction at ip into a NativeStep.
// The caller guarantees IsFastPath holds for the opcode at ip.
func (d *segmentDecoder) decodeStep(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	if ip+InstrLen(code, ip) > len(code) {
		// Instruction runs past the end of the stream.
		return NativeStep{}, stepFailed
	}

	switch Opcode(code[ip]) {
	case OpOperatorValidated:
		return d.decodeOperator(ip)
	case OpGetNamedValidated:
		return d.decodeNamedGet(ip)
	case OpSetNamedValidated:
		return d.decodeNamedSet(ip)
	case OpGetKeyedValidated:
		return d.decodeKeyedGet(ip)
	case OpSetKeyedValidated:
		return d.decodeKeyedSet(ip)
	case OpGetIndexedValidated:
		return d.decodeIndexedGet(ip)
	case OpSetIndexedValidated:
		return d.decodeIndexedSet(ip)
	case OpCallBuiltinTypeValidated, OpCallUtilityValidated, OpCallLangUtilityValidated:
		return d.decodeCall(ip)
	default:
		return d.decodeTypeAdjust(ip)
	}
}

func (d *segmentDecoder) decodeOperator(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	fnIdx := int(code[ip+4])
	ops := d.tables().Operators
	if fnIdx < 0 || fnIdx >= len(ops) {
		return NativeStep{}, stepFailed
	}
	return NativeStep{Kind: StepOperator, Operator: &OperatorStep{
		A:         DecodeAddr(code[ip+1]),
		B:         DecodeAddr(code[ip+2]),
		Dst:       DecodeAddr(code[ip+3]),
		Evaluator: ops[fnIdx],
		Unary:     d.unary[ip],
	}}, stepOK
}

func (d *segmentDecoder) decodeNamedGet(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	fnIdx := int(code[ip+3])
	getters := d.tables().NamedGetters
	if fnIdx < 0 || fnIdx >= len(getters) {
		return NativeStep{}, stepFailed
	}
	return NativeStep{Kind: StepNamedGet, NamedGet: &NamedGetStep{
		Src:    DecodeAddr(code[ip+1]),
		Dst:    DecodeAddr(code[ip+2]),
		Getter: getters[fnIdx],
	}}, stepOK
}

func (d *segmentDecoder) decodeNamedSet(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	fnIdx := int(code[ip+3])
	setters := d.tables().NamedSetters
	if fnIdx < 0 || fnIdx >= len(setters) {
		return NativeStep{}, stepFailed
	}
	return NativeStep{Kind: StepNamedSet, NamedSet: &NamedSetStep{
		Dst:    DecodeAddr(code[ip+1]),
		Value:  DecodeAddr(code[ip+2]),
		Setter: setters[fnIdx],
	}}, stepOK
}

func (d *segmentDecoder) decodeKeyedGet(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	fnIdx := int(code[ip+4])
	getters := d.tables().KeyedGetters
	if fnIdx < 0 || fnIdx >= len(getters) {
		return NativeStep{}, stepFailed
	}
	return NativeStep{Kind: StepKeyedGet, KeyedGet: &KeyedGetStep{
		Src:    DecodeAddr(code[ip+1]),
		Key:    DecodeAddr(code[ip+2]),
		Dst:    DecodeAddr(code[ip+3]),
		Getter: getters[fnIdx],
	}}, stepOK
}

func (d *segmentDecoder) decodeKeyedSet(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	fnIdx := int(code[ip+4])
	setters := d.tables().KeyedSetters
	if fnIdx < 0 || fnIdx >= len(setters) {
		return NativeStep{}, stepFailed
	}
	return NativeStep{Kind: StepKeyedSet, KeyedSet: &KeyedSetStep{
		Dst:    DecodeAddr(code[ip+1]),
		Key:    DecodeAddr(code[ip+2]),
		Value:  DecodeAddr(code[ip+3]),
		Setter: setters[fnIdx],
	}}, stepOK
}

func (d *segmentDecoder) decodeIndexedGet(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	fnIdx := int(code[ip+4])
	getters := d.tables().IndexedGetters
	if fnIdx < 0 || fnIdx >= len(getters) {
		return NativeStep{}, stepFailed
	}
	return NativeStep{Kind: StepIndexedGet, IndexedGet: &IndexedGetStep{
		Src:    DecodeAddr(code[ip+1]),
		Index:  DecodeAddr(code[ip+2]),
		Dst:    DecodeAddr(code[ip+3]),
		Getter: getters[fnIdx],
	}}, stepOK
}

func (d *segmentDecoder) decodeIndexedSet(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	fnIdx := int(code[ip+4])
	setters := d.tables().IndexedSetters
	if fnIdx < 0 || fnIdx >= len(setters) {
		return NativeStep{}, stepFailed
	}
	return NativeStep{Kind: StepIndexedSet, IndexedSet: &IndexedSetStep{
		Dst:    DecodeAddr(code[ip+1]),
		Index:  DecodeAddr(code[ip+2]),
		Value:  DecodeAddr(code[ip+3]),
		Setter: setters[fnIdx],
	}}, stepOK
}

// Validated call layout: the word after the opcode counts every trailing
// word past the fixed prefix; the true argument count sits after the
// argument and destination operands, followed by the table index.
//
//	builtin:  [op][argc+2][args...][base][dst][argc][fn]
//	utility:  [op][argc+1][args...][dst][argc][fn]
func (d *segmentDecoder) decodeCall(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	instrArgc := int(code[ip+1])
	if instrArgc < 0 {
		return NativeStep{}, stepFailed
	}
	argc := int(code[ip+2+instrArgc])
	if argc < 0 {
		return NativeStep{}, stepFailed
	}

	step := &CallStep{Args: make([]Addr, argc)}
	argBase := ip + 2
	for i := 0; i < argc; i++ {
		step.Args[i] = DecodeAddr(code[argBase+i])
	}

	switch Opcode(code[ip]) {
	case OpCallBuiltinTypeValidated:
		basePos := argBase + argc
		dstPos := basePos + 1
		fnIdx := int(code[dstPos+2])
		methods := d.tables().BuiltinMethods
		if fnIdx < 0 || fnIdx >= len(methods) {
			return NativeStep{}, stepFailed
		}
		step.Kind = CallBuiltin
		step.Base = DecodeAddr(code[basePos])
		step.Dst = DecodeAddr(code[dstPos])
		step.Builtin = methods[fnIdx]
	case OpCallUtilityValidated:
		dstPos := argBase + argc
		fnIdx := int(code[dstPos+2])
		utils := d.tables().Utilities
		if fnIdx < 0 || fnIdx >= len(utils) {
			return NativeStep{}, stepFailed
		}
		step.Kind = CallUtility
		step.Dst = DecodeAddr(code[dstPos])
		step.Utility = utils[fnIdx]
	case OpCallLangUtilityValidated:
		dstPos := argBase + argc
		fnIdx := int(code[dstPos+2])
		utils := d.tables().LangUtilities
		if fnIdx < 0 || fnIdx >= len(utils) {
			return NativeStep{}, stepFailed
		}
		step.Kind = CallLangUtility
		step.Dst = DecodeAddr(code[dstPos])
		step.LangUtility = utils[fnIdx]
	default:
		return NativeStep{}, stepFailed
	}

	return NativeStep{Kind: StepCallValidated, Call: step}, stepOK
}

func (d *segmentDecoder) decodeTypeAdjust(ip int) (NativeStep, stepError) {
	code := d.fn.Code
	target, ok := adjustTargets[Opcode(code[ip])]
	if !ok {
		return NativeStep{}, stepUnknownTag
	}
	return NativeStep{Kind: StepTypeAdjust, Adjust: &TypeAdjustStep{
		Dst:    DecodeAddr(code[ip+1]),
		Target: target,
	}}, stepOK
}

// ---------------------------------------------------------------------------
// Segment construction
// ---------------------------------------------------------------------------

// PrepareSegments scans the instruction stream, groups maximal contiguous
// runs of fast-path instructions into native segments, drops runs below the
// profitability threshold, and builds the dense start-ip index.
//
// Construction cannot fail: every decode problem is recovered locally and
// the failing instruction falls back to one-at-a-time interpretation. An
// unrecognized coercion opcode is the one exception: it abandons the rest
// of the scan.
//
// Not safe against concurrent mutation of the function's tables; callers
// serialize (re)compilation. Once built, segments and the index are
// read-only and may be shared across goroutines.
func (f *Function) PrepareSegments() {
	f.segments = nil
	f.segmentIndex = nil
	f.segmentsReady = false

	if len(f.Code) == 0 {
		f.segmentsReady = true
		return
	}

	dec := newSegmentDecoder(f)
	n := len(f.Code)
	var segments []NativeSegment

	ip := 0
	for ip < n {
		if !IsFastPath(Opcode(f.Code[ip])) {
			ip += InstrLen(f.Code, ip)
			continue
		}

		seg := NativeSegment{StartIP: ip}
		cursor := ip
		status := stepOK
		for cursor < n {
			if !IsFastPath(Opcode(f.Code[cursor])) {
				break
			}
			step, err := dec.decodeStep(cursor)
			if err != stepOK {
				status = err
				break
			}
			seg.Steps = append(seg.Steps, step)
			cursor += InstrLen(f.Code, cursor)
		}
		seg.EndIP = cursor
		if len(seg.Steps) > 0 {
			segments = append(segments, seg)
		}

		switch status {
		case stepUnknownTag:
			ip = n
		case stepFailed:
			// The failing instruction degrades to slow-path execution.
			ip = cursor + InstrLen(f.Code, cursor)
		default:
			ip = cursor
		}
	}

	minSteps := f.MinSegmentSteps
	if minSteps <= 0 {
		minSteps = DefaultMinSegmentSteps
	}
	retained := make([]NativeSegment, 0, len(segments))
	for _, seg := range segments {
		if len(seg.Steps) < minSteps {
			continue
		}
		retained = append(retained, seg)
	}
	f.segments = retained

	f.segmentIndex = make([]int32, n)
	for i := range f.segmentIndex {
		f.segmentIndex[i] = -1
	}
	for i := range f.segments {
		start := f.segments[i].StartIP
		if start >= 0 && start < n {
			f.segmentIndex[start] = int32(i)
		}
	}

	f.segmentsReady = true
}
