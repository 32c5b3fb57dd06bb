package capture

import (
	"context"
	"testing"
	"time"
)

type nilDialer struct{}

func (nilDialer) DialStream(ctx context.Context, language string) (StreamConn, error) {
	return nil, context.Canceled
}

type nilTranscriber struct{}

func (nilTranscriber) TranscribeClip(ctx context.Context, wavData []byte, language string) (string, error) {
	return "", nil
}

func TestNewLiveFillsDefaults(t *testing.T) {
	l := NewLive(nilDialer{}, LiveConfig{Language: "en"})
	if l.config.Capture.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", l.config.Capture.SampleRate)
	}
	if l.config.VAD.SampleRate != l.config.Capture.SampleRate {
		t.Errorf("VAD sample rate %d does not match capture %d",
			l.config.VAD.SampleRate, l.config.Capture.SampleRate)
	}
	if l.config.VAD.SilenceDuration == 0 {
		t.Error("VAD silence threshold not defaulted")
	}
}

func TestNewRecordFillsDefaults(t *testing.T) {
	r := NewRecord(nilTranscriber{}, RecordConfig{Language: "es"})
	if r.config.Capture.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", r.config.Capture.SampleRate)
	}
	if r.config.MaxDuration != 60*time.Second {
		t.Errorf("max duration = %v, want 60s", r.config.MaxDuration)
	}
}

func TestRecordStopWithoutStartIsNoop(t *testing.T) {
	r := NewRecord(nilTranscriber{}, RecordConfig{})
	if err := r.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle recorder: %v", err)
	}
	r.Cancel()
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLiveStopWithoutStartIsNoop(t *testing.T) {
	l := NewLive(nilDialer{}, LiveConfig{})
	if err := l.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle live capture: %v", err)
	}
}
