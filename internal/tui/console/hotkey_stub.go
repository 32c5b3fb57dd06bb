//go:build !linux && !windows

// CareBridge - Healthcare Speech Translation
//
// Package: console
// Description: Terminal console for dual-language conversations
// License: MIT

package console

// listenHotkeys is a no-op where global hotkeys need the main thread.
// macOS users reach push-to-talk through the in-console shortcut.
func listenHotkeys() (<-chan struct{}, func()) {
	return nil, func() {}
}
