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

	"github.com/carebridge/carebridge/internal/audio"
	"github.com/carebridge/carebridge/internal/capture/vad"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// LiveConfig holds live capture configuration
type LiveConfig struct {
	Language string
	Capture  audio.CaptureConfig
	VAD      vad.Config
}

// Live streams microphone audio to the relay and segments utterances
// with voice activity detection. Each detected utterance produces a
// final transcript; interims arrive while the speaker talks.
type Live struct {
	dialer   StreamDialer
	config   LiveConfig
	logger   *logging.Logger
	events   chan Event
	mu       sync.Mutex
	capture  *audio.Capture
	conn     StreamConn
	detector vad.Detector
	cancel   context.CancelFunc
	running  bool
}

// NewLive creates a live capture strategy
func NewLive(dialer StreamDialer, cfg LiveConfig) *Live {
	if cfg.Capture.SampleRate == 0 {
		cfg.Capture = audio.DefaultCaptureConfig()
	}
	if cfg.VAD.SampleRate == 0 {
		cfg.VAD = vad.DefaultConfig()
		cfg.VAD.SampleRate = cfg.Capture.SampleRate
	}
	return &Live{
		dialer: dialer,
		config: cfg,
		logger: logging.New("capture-live"),
		events: make(chan Event, 16),
	}
}

// Start opens the stream and begins capturing
func (l *Live) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("live capture already running")
	}

	conn, err := l.dialer.DialStream(ctx, l.config.Language)
	if err != nil {
		return fmt.Errorf("opening transcription stream: %w", err)
	}

	detector, err := vad.NewWebRTCVAD(l.config.VAD)
	if err != nil {
		conn.Close()
		return fmt.Errorf("initializing VAD: %w", err)
	}

	mic, err := audio.NewCapture(l.config.Capture)
	if err != nil {
		detector.Close()
		conn.Close()
		return fmt.Errorf("initializing microphone: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := mic.Start(runCtx); err != nil {
		cancel()
		mic.Close()
		detector.Close()
		conn.Close()
		return fmt.Errorf("starting microphone: %w", err)
	}

	l.capture = mic
	l.conn = conn
	l.detector = detector
	l.cancel = cancel
	l.running = true

	go l.pumpAudio(runCtx)
	go l.pumpResults(runCtx)

	l.logger.Info("live capture started",
		"language", l.config.Language,
		"sample_rate", l.config.Capture.SampleRate,
	)
	return nil
}

// pumpAudio forwards microphone chunks to the relay and watches the
// voice activity tracker for utterance boundaries.
func (l *Live) pumpAudio(ctx context.Context) {
	tracker := vad.NewSpeechTracker(l.config.VAD)

	for {
		select {
		case <-ctx.Done():
			return
		case samples, ok := <-l.capture.Output():
			if !ok {
				return
			}

			isSpeech, err := l.detector.Process(samples)
			if err != nil {
				l.logger.Debug("VAD error", "error", err)
				isSpeech = true // fail open, let the model decide
			}
			tracker.Update(isSpeech)

			if err := l.conn.SendAudio(samples); err != nil {
				l.emit(Event{Kind: EventError, Err: fmt.Errorf("sending audio: %w", err)})
				return
			}

			if tracker.SegmentEnded() {
				if err := l.conn.SegmentEnd(); err != nil {
					l.emit(Event{Kind: EventError, Err: fmt.Errorf("ending segment: %w", err)})
					return
				}
				tracker.Reset()
			}
		}
	}
}

// pumpResults forwards relay transcripts to the event channel
func (l *Live) pumpResults(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-l.conn.Results():
			if !ok {
				return
			}
			switch {
			case res.Err != nil:
				l.emit(Event{Kind: EventError, Err: res.Err})
			case res.IsFinal:
				if res.Final != "" {
					l.emit(Event{Kind: EventFinal, Text: res.Final})
				}
			default:
				l.emit(Event{Kind: EventInterim, Text: res.Interim})
			}
		}
	}
}

// Stop ends the live capture
func (l *Live) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return nil
	}
	l.running = false

	l.cancel()
	l.capture.Close()
	l.detector.Close()
	err := l.conn.Close()

	l.capture = nil
	l.conn = nil
	l.detector = nil

	l.logger.Info("live capture stopped")
	return err
}

// Events delivers transcripts and failures
func (l *Live) Events() <-chan Event {
	return l.events
}

// Close releases resources
func (l *Live) Close() error {
	return l.Stop(context.Background())
}

func (l *Live) emit(ev Event) {
	select {
	case l.events <- ev:
	default:
		l.logger.Debug("event channel full, dropping capture event")
	}
}
