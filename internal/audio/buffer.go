// CareBridge - Healthcare Speech Translation
//
// Package: audio
// Description: PCM capture buffers and in-memory WAV encoding
// License: MIT

package audio

import "sync"

// SegmentBuffer accumulates PCM samples for one speech segment.
// Safe for one writer and concurrent readers.
type SegmentBuffer struct {
	mu      sync.Mutex
	samples []int16
}

// NewSegmentBuffer creates a buffer with room for about capSeconds of
// audio at the given sample rate.
func NewSegmentBuffer(sampleRate, capSeconds int) *SegmentBuffer {
	return &SegmentBuffer{
		samples: make([]int16, 0, sampleRate*capSeconds),
	}
}

// Append adds samples to the segment.
func (b *SegmentBuffer) Append(samples []int16) {
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
}

// Snapshot returns a copy of all samples accumulated so far.
func (b *SegmentBuffer) Snapshot() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int16, len(b.samples))
	copy(out, b.samples)
	return out
}

// Take returns all accumulated samples and resets the buffer.
func (b *SegmentBuffer) Take() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.samples
	b.samples = make([]int16, 0, cap(out))
	return out
}

// Len reports the number of buffered samples.
func (b *SegmentBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Duration reports the buffered audio length in milliseconds.
func (b *SegmentBuffer) Duration(sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	return b.Len() * 1000 / sampleRate
}
