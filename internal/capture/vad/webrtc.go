// CareBridge - Healthcare Speech Translation
//
// Package: vad
// Description: Voice activity detection and utterance boundary tracking
// License: MIT

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// WebRTCVAD detects speech using WebRTC's voice activity detector
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
}

// NewWebRTCVAD creates a new WebRTC VAD instance
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("creating WebRTC VAD: %w", err)
	}

	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("setting VAD mode: %w", err)
	}

	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d for VAD", cfg.SampleRate)
	}

	return &WebRTCVAD{
		vad:        v,
		sampleRate: cfg.SampleRate,
		mode:       mode,
	}, nil
}

// Process checks 16-bit PCM samples for speech. WebRTC VAD only
// accepts 10, 20 or 30ms frames, so the chunk is scanned in 10ms
// frames and counts as speech when any frame does.
func (w *WebRTCVAD) Process(samples []int16) (bool, error) {
	frameSize := w.sampleRate / 100

	if len(samples) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, samples)
		samples = padded
	}

	for i := 0; i+frameSize <= len(samples); i += frameSize {
		frame := samples[i : i+frameSize]

		frameBytes := make([]byte, len(frame)*2)
		for j, s := range frame {
			frameBytes[j*2] = byte(s)
			frameBytes[j*2+1] = byte(s >> 8)
		}

		active, err := w.vad.Process(w.sampleRate, frameBytes)
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}

	return false, nil
}

// Close releases resources
func (w *WebRTCVAD) Close() error {
	return nil
}

// Mode returns the current aggressiveness mode
func (w *WebRTCVAD) Mode() int {
	return w.mode
}

// SampleRate returns the sample rate
func (w *WebRTCVAD) SampleRate() int {
	return w.sampleRate
}
