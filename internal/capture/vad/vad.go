// CareBridge - Healthcare Speech Translation
//
// Package: vad
// Description: Voice activity detection and utterance boundary tracking
// License: MIT

package vad

import (
	"time"
)

// Detector reports whether a chunk of PCM audio contains speech
type Detector interface {
	Process(samples []int16) (bool, error)
	Close() error
}

// Config holds VAD configuration
type Config struct {
	// SampleRate must be 8000, 16000, 32000 or 48000
	SampleRate int

	// Mode is the aggressiveness (0-3, higher filters more noise)
	Mode int

	// SilenceDuration is how long silence must last to end an utterance
	SilenceDuration time.Duration

	// MinSpeechDuration is the shortest utterance worth transcribing
	MinSpeechDuration time.Duration
}

// DefaultConfig returns default VAD configuration tuned for
// conversational turn-taking.
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Mode:              2,
		SilenceDuration:   900 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
	}
}

// SpeechState is a snapshot of the tracker
type SpeechState struct {
	IsSpeaking      bool
	SpeechStartTime time.Time
	LastSpeechTime  time.Time
	SilenceDuration time.Duration
	SpeechDuration  time.Duration
}

// SpeechTracker turns per-chunk VAD verdicts into utterance boundaries
type SpeechTracker struct {
	config        Config
	state         SpeechState
	speechStarted bool
	silenceStart  time.Time
	now           func() time.Time
}

// NewSpeechTracker creates a new speech tracker
func NewSpeechTracker(cfg Config) *SpeechTracker {
	return &SpeechTracker{
		config: cfg,
		now:    time.Now,
	}
}

// Update feeds one VAD verdict into the tracker
func (t *SpeechTracker) Update(isSpeech bool) SpeechState {
	now := t.now()

	if isSpeech {
		if !t.speechStarted {
			t.speechStarted = true
			t.state.SpeechStartTime = now
			t.state.IsSpeaking = true
		}

		t.state.LastSpeechTime = now
		t.state.SilenceDuration = 0
		t.silenceStart = time.Time{}
		t.state.SpeechDuration = now.Sub(t.state.SpeechStartTime)
	} else {
		if t.speechStarted {
			if t.silenceStart.IsZero() {
				t.silenceStart = now
			}
			t.state.SilenceDuration = now.Sub(t.silenceStart)
		}

		if t.speechStarted && t.state.SilenceDuration >= t.config.SilenceDuration {
			t.state.IsSpeaking = false
		}
	}

	return t.state
}

// SegmentEnded reports whether the current utterance is over: speech
// happened, it was long enough to matter, and the trailing silence
// has reached the threshold.
func (t *SpeechTracker) SegmentEnded() bool {
	return t.speechStarted &&
		t.state.SilenceDuration >= t.config.SilenceDuration &&
		t.state.SpeechDuration >= t.config.MinSpeechDuration
}

// HasValidSpeech reports whether enough speech has accumulated
func (t *SpeechTracker) HasValidSpeech() bool {
	return t.state.SpeechDuration >= t.config.MinSpeechDuration
}

// Reset prepares the tracker for the next utterance
func (t *SpeechTracker) Reset() {
	t.state = SpeechState{}
	t.speechStarted = false
	t.silenceStart = time.Time{}
}

// State returns the current speech state
func (t *SpeechTracker) State() SpeechState {
	return t.state
}
