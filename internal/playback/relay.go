// CareBridge - Healthcare Speech Translation
//
// Package: playback
// Description: Speech output via system voices or relay synthesis
// License: MIT

package playback

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/carebridge/carebridge/pkg/core/logging"
)

// Synthesizer fetches synthesized speech from the relay gateway
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, format string) (io.ReadCloser, string, error)
}

// audioPlayers are tried in order to play a fetched clip
var audioPlayers = []struct {
	binary string
	args   func(path string) []string
}{
	{"afplay", func(p string) []string { return []string{p} }},
	{"mpg123", func(p string) []string { return []string{"-q", p} }},
	{"ffplay", func(p string) []string { return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", p} }},
	{"mpv", func(p string) []string { return []string{"--no-video", "--really-quiet", p} }},
}

// Relay speaks by fetching synthesized audio from the gateway and
// piping it through a local audio player. The clip lives in a temp
// file only for the duration of playback.
type Relay struct {
	synth  Synthesizer
	voice  string
	format string
	logger *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRelay creates a relay-backed speaker
func NewRelay(synth Synthesizer, voice, format string) *Relay {
	if format == "" {
		format = "mp3"
	}
	return &Relay{
		synth:  synth,
		voice:  voice,
		format: format,
		logger: logging.New("playback-relay"),
	}
}

// Available reports whether a local audio player exists
func (r *Relay) Available() bool {
	for _, p := range audioPlayers {
		if commandExists(p.binary) {
			return true
		}
	}
	return false
}

// Speak fetches and plays synthesized speech, blocking until done
func (r *Relay) Speak(ctx context.Context, text, lang string) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	audio, _, err := r.synth.Synthesize(runCtx, text, r.voice, r.format)
	if err != nil {
		return fmt.Errorf("fetching speech: %w", err)
	}
	defer audio.Close()

	tmp, err := os.CreateTemp("", "carebridge-speech-*."+r.format)
	if err != nil {
		return fmt.Errorf("buffering speech: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, audio); err != nil {
		tmp.Close()
		return fmt.Errorf("buffering speech: %w", err)
	}
	tmp.Close()

	return r.play(runCtx, tmp.Name())
}

// play runs the first available local audio player
func (r *Relay) play(ctx context.Context, path string) error {
	for _, p := range audioPlayers {
		if !commandExists(p.binary) {
			continue
		}
		r.logger.Debug("playing clip", "player", p.binary)
		cmd := exec.CommandContext(ctx, p.binary, p.args(path)...)
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s failed: %w", p.binary, err)
		}
		return nil
	}
	return fmt.Errorf("no audio player found, install mpg123 or ffplay")
}

// Stop kills any playback still running
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Pick chooses a speaker for the given mode. Auto prefers the native
// synthesizer and falls back to the relay.
func Pick(mode Mode, synth Synthesizer, voice, format string) (Speaker, error) {
	native := NewNative()
	relay := NewRelay(synth, voice, format)

	switch mode {
	case ModeNative:
		if !native.Available() {
			return nil, fmt.Errorf("no system speech synthesizer found")
		}
		return native, nil
	case ModeRelay:
		if !relay.Available() {
			return nil, fmt.Errorf("no audio player found for relay playback")
		}
		return relay, nil
	default:
		if native.Available() {
			return native, nil
		}
		if relay.Available() {
			return relay, nil
		}
		return nil, fmt.Errorf("no speech output available, install espeak or mpg123")
	}
}
