// CareBridge - Healthcare Speech Translation
//
// Package: capture
// Description: Speech capture strategies (live streaming and push-to-talk)
// License: MIT

package capture

import (
	"context"
)

// EventKind classifies capture events
type EventKind int

const (
	// EventInterim - a partial transcript, will be replaced
	EventInterim EventKind = iota

	// EventFinal - a finished utterance transcript
	EventFinal

	// EventError - capture or transcription failed
	EventError
)

// Event is emitted by a capture strategy as speech is recognized
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Strategy is one way of turning microphone audio into transcripts.
// Live streams continuously with automatic utterance detection;
// push-to-talk records until stopped and uploads one clip.
type Strategy interface {
	// Start begins capturing. It returns once audio is flowing.
	Start(ctx context.Context) error

	// Stop ends the capture and flushes any pending transcription.
	Stop(ctx context.Context) error

	// Events delivers transcripts and failures
	Events() <-chan Event

	// Close releases audio resources
	Close() error
}

// StreamResult is one message from the relay's streaming endpoint
type StreamResult struct {
	Interim string
	Final   string
	IsFinal bool
	Err     error
}

// StreamConn is an open streaming transcription session
type StreamConn interface {
	SendAudio(samples []int16) error
	SegmentEnd() error
	Results() <-chan StreamResult
	Close() error
}

// StreamDialer opens streaming transcription sessions
type StreamDialer interface {
	DialStream(ctx context.Context, language string) (StreamConn, error)
}

// Transcriber uploads one recorded clip for transcription
type Transcriber interface {
	TranscribeClip(ctx context.Context, wavData []byte, language string) (string, error)
}
