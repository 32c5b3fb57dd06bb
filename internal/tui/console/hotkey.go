//go:build linux || windows

// CareBridge - Healthcare Speech Translation
//
// Package: console
// Description: Terminal console for dual-language conversations
// License: MIT

package console

import (
	"golang.design/x/hotkey"

	"github.com/carebridge/carebridge/pkg/core/logging"
)

// listenHotkeys registers a global push-to-talk shortcut
// (Ctrl+Shift+M) and forwards presses. Registration can fail on
// headless systems; the console then runs without the hotkey.
func listenHotkeys() (<-chan struct{}, func()) {
	logger := logging.New("console-hotkey")

	hk := hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeyM)
	if err := hk.Register(); err != nil {
		logger.Warn("global hotkey unavailable", "error", err)
		return nil, func() {}
	}

	events := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer close(events)
		for {
			select {
			case <-done:
				return
			case <-hk.Keydown():
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	stop := func() {
		close(done)
		hk.Unregister()
	}
	return events, stop
}
