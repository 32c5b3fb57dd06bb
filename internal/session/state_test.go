package session

import "testing"

func TestLivePathTransitions(t *testing.T) {
	sm := NewCaptureStateMachine()

	steps := []CaptureState{StateStarting, StateListening, StateIdle}
	for _, next := range steps {
		if !sm.Transition(next) {
			t.Fatalf("transition %s -> %s rejected", sm.Current(), next)
		}
	}
	if sm.Current() != StateIdle {
		t.Errorf("final state = %s, want idle", sm.Current())
	}
}

func TestPushToTalkPathTransitions(t *testing.T) {
	sm := NewCaptureStateMachine()

	steps := []CaptureState{StateRecording, StateUploading, StateIdle}
	for _, next := range steps {
		if !sm.Transition(next) {
			t.Fatalf("transition %s -> %s rejected", sm.Current(), next)
		}
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	tests := []struct {
		name string
		path []CaptureState
		bad  CaptureState
	}{
		{"idle to listening", nil, StateListening},
		{"idle to uploading", nil, StateUploading},
		{"starting to recording", []CaptureState{StateStarting}, StateRecording},
		{"listening to uploading", []CaptureState{StateStarting, StateListening}, StateUploading},
		{"recording to listening", []CaptureState{StateRecording}, StateListening},
		{"uploading to recording", []CaptureState{StateRecording, StateUploading}, StateRecording},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewCaptureStateMachine()
			for _, s := range tt.path {
				if !sm.Transition(s) {
					t.Fatalf("setup transition to %s failed", s)
				}
			}
			before := sm.Current()
			if sm.Transition(tt.bad) {
				t.Errorf("transition %s -> %s must be rejected", before, tt.bad)
			}
			if sm.Current() != before {
				t.Errorf("rejected transition changed state to %s", sm.Current())
			}
		})
	}
}

func TestAnyStateCanCancelToIdle(t *testing.T) {
	paths := [][]CaptureState{
		{StateStarting},
		{StateStarting, StateListening},
		{StateRecording},
		{StateRecording, StateUploading},
	}
	for _, path := range paths {
		sm := NewCaptureStateMachine()
		for _, s := range path {
			sm.Transition(s)
		}
		if !sm.Transition(StateIdle) {
			t.Errorf("cancel from %s to idle rejected", path[len(path)-1])
		}
	}
}

func TestListenersAndReset(t *testing.T) {
	sm := NewCaptureStateMachine()

	var changes []CaptureState
	sm.AddListener(func(old, new CaptureState) {
		changes = append(changes, new)
	})

	sm.Transition(StateRecording)
	sm.Reset()

	if len(changes) != 2 {
		t.Fatalf("listener called %d times, want 2", len(changes))
	}
	if changes[1] != StateIdle {
		t.Errorf("reset notified %s, want idle", changes[1])
	}

	// Reset while already idle stays silent.
	sm.Reset()
	if len(changes) != 2 {
		t.Error("reset from idle must not notify listeners")
	}
}

func TestIsCapturing(t *testing.T) {
	sm := NewCaptureStateMachine()
	if sm.IsCapturing() {
		t.Error("idle machine reports capturing")
	}
	sm.Transition(StateRecording)
	if !sm.IsCapturing() {
		t.Error("recording machine reports not capturing")
	}
}
