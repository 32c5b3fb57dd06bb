// CareBridge - Healthcare Speech Translation
//
// Package: playback
// Description: Speech output via system voices or relay synthesis
// License: MIT

package playback

import (
	"context"
	"os/exec"
)

// Speaker reads translated text out loud. Speak blocks until the
// playback finishes or the context is cancelled. Stop kills any
// playback still running.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
	Stop()
}

// Mode selects the speech output path
type Mode string

const (
	// ModeNative uses the operating system's speech synthesizer
	ModeNative Mode = "native"

	// ModeRelay fetches synthesized audio from the relay gateway
	ModeRelay Mode = "relay"

	// ModeAuto prefers native and falls back to the relay
	ModeAuto Mode = "auto"
)

// commandExists reports whether a binary is on PATH
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
