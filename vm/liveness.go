package vm

import (
	"sync"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Scripts, instances, and the liveness registry
// ---------------------------------------------------------------------------

// Script identifies a loaded script. The VM core only needs its identity
// and path; loading and compilation live elsewhere.
type Script struct {
	ID   uuid.UUID
	Path string
}

// NewScript creates a script identity for the given path.
func NewScript(path string) *Script {
	return &Script{ID: uuid.New(), Path: path}
}

// Instance identifies a live object instance a suspended call was bound to.
type Instance struct {
	ID     uuid.UUID
	Script *Script
}

// NewInstance creates an instance identity attached to a script.
func NewInstance(s *Script) *Instance {
	return &Instance{ID: uuid.New(), Script: s}
}

// LivenessRegistry tracks which suspended states are still resumable on
// behalf of which scripts and instances. A state is enrolled under its
// script (and instance, if bound) at suspension; tearing down a script or
// instance detaches every state enrolled under it, and a successful resume
// detaches the state so a second attempt is rejected.
//
// All reads and mutations happen under one mutex, held only for the registry
// operation itself. Validity check and removal are a single critical
// section.
type LivenessRegistry struct {
	mu        sync.Mutex
	scripts   map[uuid.UUID]map[*FunctionState]struct{}
	instances map[uuid.UUID]map[*FunctionState]struct{}
}

// NewLivenessRegistry creates an empty registry.
func NewLivenessRegistry() *LivenessRegistry {
	return &LivenessRegistry{
		scripts:   make(map[uuid.UUID]map[*FunctionState]struct{}),
		instances: make(map[uuid.UUID]map[*FunctionState]struct{}),
	}
}

// Enroll registers a suspended state under its script and, if bound, its
// instance.
func (r *LivenessRegistry) Enroll(st *FunctionState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.script != nil {
		set := r.scripts[st.script.ID]
		if set == nil {
			set = make(map[*FunctionState]struct{})
			r.scripts[st.script.ID] = set
		}
		set[st] = struct{}{}
	}
	if st.instance != nil {
		set := r.instances[st.instance.ID]
		if set == nil {
			set = make(map[*FunctionState]struct{})
			r.instances[st.instance.ID] = set
		}
		set[st] = struct{}{}
	}
}

// checkAndDetach verifies the state is still resumable and, if so, removes
// it from both sides of the registry in the same critical section. It
// returns false without mutation when the script or the bound instance is
// gone.
func (r *LivenessRegistry) checkAndDetach(st *FunctionState) (scriptLive, instanceLive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scriptLive = st.script != nil && r.contains(r.scripts, st.script.ID, st)
	instanceLive = st.instance == nil || r.contains(r.instances, st.instance.ID, st)
	if !scriptLive || !instanceLive {
		return scriptLive, instanceLive
	}

	r.remove(r.scripts, st.script.ID, st)
	if st.instance != nil {
		r.remove(r.instances, st.instance.ID, st)
	}
	return true, true
}

// StateLive reports whether the state is still enrolled on both sides.
func (r *LivenessRegistry) StateLive(st *FunctionState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st.script == nil || !r.contains(r.scripts, st.script.ID, st) {
		return false
	}
	if st.instance != nil && !r.contains(r.instances, st.instance.ID, st) {
		return false
	}
	return true
}

// DropScript detaches every state enrolled under the script. Their stacks
// stay alive through the states themselves; they just become unresumable.
func (r *LivenessRegistry) DropScript(s *Script) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scripts, s.ID)
}

// DropInstance detaches every state enrolled under the instance.
func (r *LivenessRegistry) DropInstance(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, inst.ID)
}

// PendingCount returns the number of states enrolled under the script.
func (r *LivenessRegistry) PendingCount(s *Script) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scripts[s.ID])
}

func (r *LivenessRegistry) contains(m map[uuid.UUID]map[*FunctionState]struct{}, id uuid.UUID, st *FunctionState) bool {
	set, ok := m[id]
	if !ok {
		return false
	}
	_, ok = set[st]
	return ok
}

func (r *LivenessRegistry) remove(m map[uuid.UUID]map[*FunctionState]struct{}, id uuid.UUID, st *FunctionState) {
	set, ok := m[id]
	if !ok {
		return
	}
	delete(set, st)
	if len(set) == 0 {
		delete(m, id)
	}
}
