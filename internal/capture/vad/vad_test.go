package vad

import (
	"testing"
	"time"
)

// fakeClock advances a tracker's clock deterministically
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestTracker(cfg Config) (*SpeechTracker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := NewSpeechTracker(cfg)
	tr.now = func() time.Time { return clock.t }
	return tr, clock
}

func TestTrackerDetectsUtteranceEnd(t *testing.T) {
	cfg := Config{
		SampleRate:        16000,
		SilenceDuration:   900 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
	}
	tr, clock := newTestTracker(cfg)

	// 500ms of speech in 100ms ticks
	for i := 0; i < 5; i++ {
		tr.Update(true)
		clock.advance(100 * time.Millisecond)
	}
	tr.Update(true)

	if !tr.State().IsSpeaking {
		t.Fatal("tracker should report speaking")
	}
	if tr.SegmentEnded() {
		t.Fatal("segment must not end while speech continues")
	}

	// Silence just under the threshold
	clock.advance(800 * time.Millisecond)
	tr.Update(false)
	if tr.SegmentEnded() {
		t.Error("segment ended before silence threshold")
	}

	// Cross the threshold
	clock.advance(200 * time.Millisecond)
	tr.Update(false)
	if !tr.SegmentEnded() {
		t.Error("segment should end after 1s of silence")
	}
	if tr.State().IsSpeaking {
		t.Error("tracker still reports speaking after segment end")
	}
}

func TestShortBlipIsNotValidSpeech(t *testing.T) {
	cfg := Config{
		SilenceDuration:   900 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
	}
	tr, clock := newTestTracker(cfg)

	// 100ms blip, then long silence
	tr.Update(true)
	clock.advance(100 * time.Millisecond)
	tr.Update(true)
	clock.advance(2 * time.Second)
	tr.Update(false)

	if tr.HasValidSpeech() {
		t.Error("100ms blip must not count as valid speech")
	}
	if tr.SegmentEnded() {
		t.Error("segment end requires the minimum speech duration")
	}
}

func TestSpeechResumeResetsSilence(t *testing.T) {
	cfg := Config{
		SilenceDuration:   900 * time.Millisecond,
		MinSpeechDuration: 100 * time.Millisecond,
	}
	tr, clock := newTestTracker(cfg)

	tr.Update(true)
	clock.advance(500 * time.Millisecond)
	tr.Update(true)

	// A mid-utterance pause shorter than the threshold
	clock.advance(500 * time.Millisecond)
	tr.Update(false)
	if tr.SegmentEnded() {
		t.Fatal("pause under threshold ended the segment")
	}

	// Speech resumes, silence counter starts over
	clock.advance(100 * time.Millisecond)
	tr.Update(true)
	if st := tr.State(); st.SilenceDuration != 0 {
		t.Errorf("silence duration = %v after resume, want 0", st.SilenceDuration)
	}

	clock.advance(500 * time.Millisecond)
	tr.Update(false)
	if tr.SegmentEnded() {
		t.Error("silence must be measured from the latest pause")
	}
}

func TestResetClearsState(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())

	tr.Update(true)
	clock.advance(time.Second)
	tr.Update(true)
	tr.Reset()

	st := tr.State()
	if st.IsSpeaking || st.SpeechDuration != 0 {
		t.Errorf("state after reset: %+v", st)
	}
	if tr.HasValidSpeech() {
		t.Error("reset tracker must not report valid speech")
	}
}

func TestNoSpeechNeverEndsSegment(t *testing.T) {
	tr, clock := newTestTracker(DefaultConfig())

	for i := 0; i < 50; i++ {
		tr.Update(false)
		clock.advance(100 * time.Millisecond)
	}
	if tr.SegmentEnded() {
		t.Error("pure silence must never produce a segment")
	}
}
