// CareBridge - Healthcare Speech Translation
//
// Package: session
// Description: Dual-language transcript state and session control
// License: MIT

package session

import (
	"sync"
	"time"
)

// CaptureState represents where a capture attempt currently is
type CaptureState int

const (
	// StateIdle - no capture in progress
	StateIdle CaptureState = iota

	// StateStarting - live capture requested, stream not yet open
	StateStarting

	// StateListening - live capture streaming audio
	StateListening

	// StateRecording - push-to-talk recording in progress
	StateRecording

	// StateUploading - recorded clip being transcribed
	StateUploading
)

// String returns the string representation of the state
func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateRecording:
		return "recording"
	case StateUploading:
		return "uploading"
	default:
		return "unknown"
	}
}

// CaptureStateMachine tracks capture state transitions. Illegal
// transitions are rejected rather than panicking so that stale
// callbacks from a torn-down capture cannot corrupt the session.
type CaptureStateMachine struct {
	mu        sync.RWMutex
	current   CaptureState
	previous  CaptureState
	stateTime time.Time
	listeners []StateChangeListener
}

// StateChangeListener is called when state changes
type StateChangeListener func(oldState, newState CaptureState)

// NewCaptureStateMachine creates a state machine starting at idle
func NewCaptureStateMachine() *CaptureStateMachine {
	return &CaptureStateMachine{
		current:   StateIdle,
		stateTime: time.Now(),
	}
}

// Current returns the current state
func (sm *CaptureStateMachine) Current() CaptureState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Previous returns the previous state
func (sm *CaptureStateMachine) Previous() CaptureState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.previous
}

// StateDuration returns how long the current state has been active
func (sm *CaptureStateMachine) StateDuration() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.stateTime)
}

// Transition changes to a new state, returning false when the
// transition is not allowed.
func (sm *CaptureStateMachine) Transition(newState CaptureState) bool {
	sm.mu.Lock()
	oldState := sm.current

	if !isValidTransition(oldState, newState) {
		sm.mu.Unlock()
		return false
	}

	sm.previous = oldState
	sm.current = newState
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}

	return true
}

// AddListener adds a state change listener
func (sm *CaptureStateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}

// isValidTransition checks the transition table. The live path runs
// idle -> starting -> listening -> idle, the push-to-talk path runs
// idle -> recording -> uploading -> idle. Any state may drop back to
// idle on failure or cancel.
func isValidTransition(from, to CaptureState) bool {
	validTransitions := map[CaptureState][]CaptureState{
		StateIdle:      {StateStarting, StateRecording},
		StateStarting:  {StateListening, StateIdle},
		StateListening: {StateIdle},
		StateRecording: {StateUploading, StateIdle},
		StateUploading: {StateIdle},
	}

	for _, valid := range validTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}

// Reset forces the machine back to idle regardless of current state
func (sm *CaptureStateMachine) Reset() {
	sm.mu.Lock()
	oldState := sm.current
	sm.previous = oldState
	sm.current = StateIdle
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	if oldState == StateIdle {
		return
	}
	for _, listener := range listeners {
		listener(oldState, StateIdle)
	}
}

// IsCapturing reports whether any capture activity is in progress
func (sm *CaptureStateMachine) IsCapturing() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current != StateIdle
}
