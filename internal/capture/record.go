// CareBridge - Healthcare Speech Translation
//
// Package: capture
// Description: Speech capture strategies (live streaming and push-to-talk)
// License: MIT

package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carebridge/carebridge/internal/audio"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// RecordConfig holds push-to-talk capture configuration
type RecordConfig struct {
	Language    string
	Capture     audio.CaptureConfig
	MaxDuration time.Duration
}

// Record is the push-to-talk strategy: it buffers the whole utterance
// while the user holds the key, then uploads one WAV clip for
// transcription when released. Used where live streaming is not
// available or a noisy room defeats automatic segmentation.
type Record struct {
	transcriber Transcriber
	config      RecordConfig
	logger      *logging.Logger
	events      chan Event

	mu      sync.Mutex
	capture *audio.Capture
	buffer  *audio.SegmentBuffer
	cancel  context.CancelFunc
	running bool
}

// NewRecord creates a push-to-talk capture strategy
func NewRecord(transcriber Transcriber, cfg RecordConfig) *Record {
	if cfg.Capture.SampleRate == 0 {
		cfg.Capture = audio.DefaultCaptureConfig()
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = 60 * time.Second
	}
	return &Record{
		transcriber: transcriber,
		config:      cfg,
		logger:      logging.New("capture-record"),
		events:      make(chan Event, 4),
	}
}

// Start begins buffering microphone audio
func (r *Record) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("recording already in progress")
	}

	mic, err := audio.NewCapture(r.config.Capture)
	if err != nil {
		return fmt.Errorf("initializing microphone: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := mic.Start(runCtx); err != nil {
		cancel()
		mic.Close()
		return fmt.Errorf("starting microphone: %w", err)
	}

	maxSeconds := int(r.config.MaxDuration.Seconds()) + 1
	r.capture = mic
	r.buffer = audio.NewSegmentBuffer(r.config.Capture.SampleRate, maxSeconds)
	r.cancel = cancel
	r.running = true

	go r.record(runCtx, mic, r.buffer)

	r.logger.Info("recording started", "language", r.config.Language)
	return nil
}

func (r *Record) record(ctx context.Context, mic *audio.Capture, buf *audio.SegmentBuffer) {
	deadline := time.After(r.config.MaxDuration)
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			// Hard cap so a stuck key cannot record forever
			r.logger.Warn("recording hit max duration", "max", r.config.MaxDuration)
			go r.Stop(context.Background())
			return
		case samples, ok := <-mic.Output():
			if !ok {
				return
			}
			buf.Append(samples)
		}
	}
}

// Stop ends the recording and uploads the clip for transcription
func (r *Record) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false

	r.cancel()
	r.capture.Close()
	r.capture = nil
	buf := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	samples := buf.Take()
	durationMs := len(samples) * 1000 / r.config.Capture.SampleRate
	r.logger.Info("recording stopped", "duration_ms", durationMs)

	// A tap shorter than a syllable carries no speech
	if durationMs < 200 {
		r.emit(Event{Kind: EventFinal, Text: ""})
		return nil
	}

	wavData, err := audio.EncodeWAV(samples, r.config.Capture.SampleRate)
	if err != nil {
		r.emit(Event{Kind: EventError, Err: fmt.Errorf("encoding clip: %w", err)})
		return err
	}

	text, err := r.transcriber.TranscribeClip(ctx, wavData, r.config.Language)
	if err != nil {
		r.emit(Event{Kind: EventError, Err: fmt.Errorf("transcribing clip: %w", err)})
		return err
	}

	r.emit(Event{Kind: EventFinal, Text: text})
	return nil
}

// Cancel discards the recording without transcribing it
func (r *Record) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.cancel()
	r.capture.Close()
	r.capture = nil
	r.buffer = nil
	r.logger.Info("recording cancelled")
}

// Events delivers transcripts and failures
func (r *Record) Events() <-chan Event {
	return r.events
}

// Close releases resources
func (r *Record) Close() error {
	r.Cancel()
	return nil
}

func (r *Record) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
		r.logger.Debug("event channel full, dropping capture event")
	}
}
