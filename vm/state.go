package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("fennec.vm")

// Diagnostics enables human-readable messages on the suspension/resume
// failure paths. With diagnostics off those paths return a neutral result
// silently.
var Diagnostics = false

// ---------------------------------------------------------------------------
// Resumable execution state
// ---------------------------------------------------------------------------

// FixedAddressesMax is the reserved stack prefix (self, owner, nil scratch).
// Those slots are not owned by a saved state and are skipped when the stack
// is finalized.
const FixedAddressesMax = 3

// StateStatus tracks a FunctionState through its lifecycle.
type StateStatus uint8

const (
	// StateSuspended is the initial status: the call sits at a wait point.
	StateSuspended StateStatus = iota
	// StateResuming is transient while re-entering the interpreter.
	StateResuming
	// StateCompleted is terminal: the call finished and the stack was
	// released.
	StateCompleted
	// StateForwarded is terminal for this handle: the resumed call hit
	// another wait point and a new state carries the chain onward.
	StateForwarded
)

// CallState is the saved execution context of a suspended call: the stack
// beyond the reserved prefix, the pending resume result, and the suspension
// site for diagnostics.
type CallState struct {
	Stack        []Value
	Result       Value
	Line         int
	FunctionName string
	ScriptPath   string
	Instance     *Instance
}

// FunctionState captures a call suspended at an await point. It is
// re-entered with Resume; whoever holds the state keeps the saved stack
// alive. A state forwards its chain root to any follow-up suspension so the
// root's stack survives even when only the newest handle is reachable.
type FunctionState struct {
	fn       *Function
	script   *Script
	instance *Instance
	registry *LivenessRegistry

	state      CallState
	firstState *FunctionState
	status     StateStatus
}

// NewFunctionState records a suspension of fn owned by script (and
// optionally the instance inside state) and enrolls it for resumption.
func NewFunctionState(reg *LivenessRegistry, fn *Function, script *Script, state CallState) *FunctionState {
	st := &FunctionState{
		fn:       fn,
		script:   script,
		instance: state.Instance,
		registry: reg,
		state:    state,
		status:   StateSuspended,
	}
	reg.Enroll(st)
	return st
}

// Status returns the state's lifecycle status.
func (s *FunctionState) Status() StateStatus {
	return s.status
}

// FirstState returns the chain root, or nil if this state is the root or
// was never part of a chain.
func (s *FunctionState) FirstState() *FunctionState {
	return s.firstState
}

// IsValid reports whether the state can still be resumed. The cheap check
// only verifies the state has not been consumed; extended additionally
// verifies, under the registry lock, that the owning script and bound
// instance are still live.
func (s *FunctionState) IsValid(extended bool) bool {
	if s.fn == nil {
		return false
	}
	if extended {
		return s.registry.StateLive(s)
	}
	return true
}

// Resume re-enters the interpreter with result as the value produced at the
// wait point. A stale target (script or instance gone) is a non-fatal
// abnormal return: no stack mutation happens and the neutral nil value is
// returned. Resuming a consumed state is a caller bug and is reported
// loudly.
func (s *FunctionState) Resume(result Value) Value {
	if s.fn == nil {
		log.Criticalf("resume on a completed or already-resumed state of '%s()'", s.state.FunctionName)
		return Nil()
	}

	scriptLive, instanceLive := s.registry.checkAndDetach(s)
	if !scriptLive {
		if Diagnostics {
			log.Errorf("%s", s.staleMessage("script is gone"))
		}
		return Nil()
	}
	if !instanceLive {
		if Diagnostics {
			log.Errorf("%s", s.staleMessage("class instance is gone"))
		}
		return Nil()
	}

	s.status = StateResuming
	s.state.Result = result
	ret, next := s.fn.Invoke(&s.state)

	completed := true
	// A follow-up suspension of the same function means the call did not
	// finish; hand it the chain root so the root's stack stays alive.
	if next != nil && next.fn == s.fn {
		completed = false
		if s.firstState != nil {
			next.firstState = s.firstState
		} else {
			next.firstState = s
		}
	}

	s.fn = nil
	s.state.Result = Nil()

	if completed {
		s.clearStack()
		s.status = StateCompleted
	} else {
		s.status = StateForwarded
	}

	return ret
}

// SignalCallback folds event-callback arguments into a single resume value.
// The last argument must be this state (delivered by the event source that
// bound it); zero extra arguments resume with nil, one resumes with that
// argument, more resume with the collected list.
func (s *FunctionState) SignalCallback(args ...Value) (Value, error) {
	if len(args) == 0 {
		return Nil(), fmt.Errorf("signal callback: missing trailing state argument")
	}

	self, ok := args[len(args)-1].Object().(*FunctionState)
	if !ok || self != s {
		return Nil(), fmt.Errorf("signal callback: last argument is not this function state")
	}

	var result Value
	switch len(args) {
	case 1:
		result = Nil()
	case 2:
		result = args[0]
	default:
		extra := make([]Value, len(args)-1)
		copy(extra, args[:len(args)-1])
		result = FromList(extra)
	}

	return s.Resume(result), nil
}

// clearStack finalizes every live stack slot beyond the reserved prefix and
// releases the saved stack.
func (s *FunctionState) clearStack() {
	if len(s.state.Stack) == 0 {
		return
	}
	for i := FixedAddressesMax; i < len(s.state.Stack); i++ {
		s.state.Stack[i] = Nil()
	}
	s.state.Stack = nil
}

func (s *FunctionState) staleMessage(reason string) string {
	return fmt.Sprintf("Resumed function '%s()' after await, but %s. At script: %s:%d",
		s.state.FunctionName, reason, s.state.ScriptPath, s.state.Line)
}
