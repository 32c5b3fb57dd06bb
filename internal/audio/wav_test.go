package audio

import (
	"bytes"
	"testing"
)

func TestEncodeWAVProducesValidHeader(t *testing.T) {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(i % 512)
	}

	data, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Errorf("missing RIFF magic, got %q", data[:4])
	}
	if !bytes.Contains(data[:12], []byte("WAVE")) {
		t.Errorf("missing WAVE marker in header")
	}
	// 44-byte canonical header plus two bytes per sample
	want := 44 + len(samples)*2
	if len(data) != want {
		t.Errorf("encoded size = %d, want %d", len(data), want)
	}
}

func TestEncodeWAVRejectsEmptyInput(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Error("expected error for empty sample slice")
	}
	if _, err := EncodeWAV([]int16{1, 2, 3}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSampleByteRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	got := BytesToSamples(SamplesToBytes(samples))
	if len(got) != len(samples) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestBytesToSamplesDropsOddTrailingByte(t *testing.T) {
	got := BytesToSamples([]byte{0x01, 0x00, 0xff})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("got %v, want [1]", got)
	}
}

func TestSegmentBuffer(t *testing.T) {
	buf := NewSegmentBuffer(16000, 2)
	buf.Append([]int16{1, 2, 3})
	buf.Append([]int16{4, 5})

	if buf.Len() != 5 {
		t.Errorf("Len = %d, want 5", buf.Len())
	}

	snap := buf.Snapshot()
	if len(snap) != 5 || snap[4] != 5 {
		t.Errorf("Snapshot = %v", snap)
	}
	// snapshot must be independent of later appends
	buf.Append([]int16{6})
	if len(snap) != 5 {
		t.Errorf("snapshot grew after append")
	}

	taken := buf.Take()
	if len(taken) != 6 {
		t.Errorf("Take returned %d samples, want 6", len(taken))
	}
	if buf.Len() != 0 {
		t.Errorf("buffer not empty after Take, Len = %d", buf.Len())
	}
}

func TestSegmentBufferDuration(t *testing.T) {
	buf := NewSegmentBuffer(16000, 1)
	buf.Append(make([]int16, 8000))
	if d := buf.Duration(16000); d != 500 {
		t.Errorf("Duration = %dms, want 500ms", d)
	}
	if d := buf.Duration(0); d != 0 {
		t.Errorf("Duration with zero rate = %d, want 0", d)
	}
}
