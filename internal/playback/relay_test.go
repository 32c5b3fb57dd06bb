package playback

import (
	"context"
	"errors"
	"io"
	"testing"
)

// recordingSynth captures the synthesis request and fails, keeping the
// test away from real audio players.
type recordingSynth struct {
	voice  string
	format string
}

func (s *recordingSynth) Synthesize(ctx context.Context, text, voice, format string) (io.ReadCloser, string, error) {
	s.voice = voice
	s.format = format
	return nil, "", errors.New("synth unavailable")
}

func TestRelayUsesConfiguredVoiceAndFormat(t *testing.T) {
	synth := &recordingSynth{}
	r := NewRelay(synth, "nova", "wav")

	if err := r.Speak(context.Background(), "hola", "es"); err == nil {
		t.Fatal("expected the synthesizer error to surface")
	}
	if synth.voice != "nova" {
		t.Errorf("voice = %q, want nova", synth.voice)
	}
	if synth.format != "wav" {
		t.Errorf("format = %q, want wav", synth.format)
	}
}

func TestRelayDefaultsToMP3(t *testing.T) {
	synth := &recordingSynth{}
	r := NewRelay(synth, "", "")

	r.Speak(context.Background(), "hello", "en")
	if synth.format != "mp3" {
		t.Errorf("format = %q, want mp3", synth.format)
	}
}
