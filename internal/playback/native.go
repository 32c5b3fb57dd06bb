// CareBridge - Healthcare Speech Translation
//
// Package: playback
// Description: Speech output via system voices or relay synthesis
// License: MIT

package playback

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/carebridge/carebridge/pkg/core/logging"
)

// sayVoices maps language codes to macOS say voices
var sayVoices = map[string]string{
	"en": "Samantha",
	"es": "Monica",
	"pt": "Luciana",
	"fr": "Thomas",
	"de": "Anna",
	"it": "Alice",
	"zh": "Tingting",
	"ko": "Yuna",
	"ru": "Milena",
	"hi": "Lekha",
	"ar": "Maged",
	"vi": "Linh",
}

// Native speaks through the operating system's synthesizer: say on
// macOS, espeak-ng or espeak elsewhere. Starting a new utterance
// always kills the previous one first so translations never overlap.
type Native struct {
	logger *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewNative creates a native speaker
func NewNative() *Native {
	return &Native{logger: logging.New("playback-native")}
}

// Available reports whether a system synthesizer exists
func (n *Native) Available() bool {
	if runtime.GOOS == "darwin" {
		return commandExists("say")
	}
	return commandExists("espeak-ng") || commandExists("espeak")
}

// Speak voices the text in the given language, blocking until done
func (n *Native) Speak(ctx context.Context, text, lang string) error {
	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.mu.Unlock()
	defer cancel()

	cmd, err := n.command(runCtx, text, lang)
	if err != nil {
		return err
	}

	n.logger.Debug("speaking", "lang", lang, "chars", len(text))
	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return runCtx.Err()
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

// command builds the platform synthesizer invocation
func (n *Native) command(ctx context.Context, text, lang string) (*exec.Cmd, error) {
	if runtime.GOOS == "darwin" {
		args := []string{}
		if voice, ok := sayVoices[lang]; ok {
			args = append(args, "-v", voice)
		}
		args = append(args, text)
		return exec.CommandContext(ctx, "say", args...), nil
	}

	binary := "espeak-ng"
	if !commandExists(binary) {
		binary = "espeak"
	}
	if !commandExists(binary) {
		return nil, fmt.Errorf("no system speech synthesizer found")
	}

	args := []string{}
	if lang != "" {
		args = append(args, "-v", lang)
	}
	args = append(args, text)
	return exec.CommandContext(ctx, binary, args...), nil
}

// Stop kills any playback still running
func (n *Native) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}
