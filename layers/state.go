package layers

import (
	"sync"
	"time"
)

// SourceState is the latest known state for one trace source.
type SourceState struct {
	SourceID  string    `json:"sourceId"`
	Layers    *LayerSet `json:"layers"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateTracker tracks the latest trace and converted layer set per source for
// the HTTP endpoints. Safe for concurrent use.
type StateTracker struct {
	mu     sync.RWMutex
	traces map[string]*Trace
	states map[string]*SourceState
}

// NewStateTracker creates a new state tracker
func NewStateTracker() *StateTracker {
	return &StateTracker{
		traces: make(map[string]*Trace),
		states: make(map[string]*SourceState),
	}
}

// Update stores the latest trace and layer set for a source
func (st *StateTracker) Update(sourceID string, trace *Trace, set *LayerSet) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.traces[sourceID] = trace
	st.states[sourceID] = &SourceState{
		SourceID:  sourceID,
		Layers:    set,
		UpdatedAt: time.Now(),
	}
}

// GetLayerSet returns the latest converted layer set for a source
func (st *StateTracker) GetLayerSet(sourceID string) (*LayerSet, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	state, ok := st.states[sourceID]
	if !ok {
		return nil, false
	}
	return state.Layers, true
}

// GetTrace returns the latest trace for a source
func (st *StateTracker) GetTrace(sourceID string) (*Trace, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	trace, ok := st.traces[sourceID]
	return trace, ok
}

// GetAll returns a copy of the latest state for every source
func (st *StateTracker) GetAll() map[string]*SourceState {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make(map[string]*SourceState, len(st.states))
	for id, state := range st.states {
		stateCopy := *state
		result[id] = &stateCopy
	}
	return result
}

// HasLayers returns true if any source has produced a layer set
func (st *StateTracker) HasLayers() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.states) > 0
}

// Clear removes a source's state (e.g., when its trace is withdrawn)
func (st *StateTracker) Clear(sourceID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.traces, sourceID)
	delete(st.states, sourceID)
}
