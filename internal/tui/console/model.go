// CareBridge - Healthcare Speech Translation
//
// Package: console
// Description: Terminal console for dual-language conversations
// License: MIT

package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carebridge/carebridge/internal/audio"
	"github.com/carebridge/carebridge/internal/capture"
	"github.com/carebridge/carebridge/internal/capture/vad"
	"github.com/carebridge/carebridge/internal/langs"
	"github.com/carebridge/carebridge/internal/playback"
	"github.com/carebridge/carebridge/internal/relayclient"
	"github.com/carebridge/carebridge/internal/session"
	"github.com/carebridge/carebridge/pkg/core/config"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// updateMsg wraps a session update for bubbletea
type updateMsg session.Update

// captureMsg wraps a capture event for bubbletea
type captureMsg capture.Event

// captureDoneMsg signals that a capture strategy finished shutting down
type captureDoneMsg struct{ err error }

// hotkeyMsg signals a push-to-talk hotkey press
type hotkeyMsg struct{}

// statusMsg sets a transient status line message
type statusMsg string

// restartLiveMsg asks for live capture to start again after a language change
type restartLiveMsg struct{}

// liveRestartDelay gives the audio device time to settle between a stop and
// the follow-up start.
const liveRestartDelay = 200 * time.Millisecond

// Model is the bubbletea model for the conversation console
type Model struct {
	controller *session.Controller
	client     *relayclient.Client
	speaker    playback.Speaker
	settings   Settings
	cfg        *config.Config
	logger     *logging.Logger

	textarea textarea.Model
	spinner  spinner.Model

	width  int
	height int

	inputs  []langs.Tag
	targets []langs.Tag

	preview string
	interim string
	status  string
	isError bool

	recorder *capture.Record
	live     *capture.Live
	hotkeys  <-chan struct{}

	quitting bool
}

// New builds the console model and its wiring
func New(cfg *config.Config, settings Settings) (*Model, error) {
	gatewayURL := settings.GatewayURL
	if gatewayURL == "" {
		gatewayURL = cfg.Console.GatewayURL
	}

	client := relayclient.New(relayclient.Config{
		BaseURL: gatewayURL,
		Timeout: cfg.Console.Timeout.Duration,
	})

	mode := settings.PlaybackMode
	if mode == "" {
		mode = cfg.Playback.Mode
	}
	voice := cfg.Playback.Voice
	if voice == "" {
		voice = cfg.Provider.Voice
	}
	speaker, err := playback.Pick(playback.Mode(mode), client, voice, cfg.Playback.Format)
	if err != nil {
		return nil, fmt.Errorf("setting up speech output: %w", err)
	}

	ctrl := session.NewController(client, speaker,
		session.WithDebounce(time.Duration(cfg.Console.DebounceMs)*time.Millisecond))
	ctrl.SetLanguages(settings.SourceLang, settings.TargetLang)

	ta := textarea.New()
	ta.Placeholder = "Type to translate, Enter to send..."
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return &Model{
		controller: ctrl,
		client:     client,
		speaker:    speaker,
		settings:   settings,
		cfg:        cfg,
		logger:     logging.New("console"),
		textarea:   ta,
		spinner:    sp,
		inputs:     langs.List(),
		targets:    langs.ListTargets(),
		status:     "ready",
	}, nil
}

// SetHotkeys attaches a push-to-talk hotkey event source
func (m *Model) SetHotkeys(ch <-chan struct{}) {
	m.hotkeys = ch
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		m.waitForUpdate(),
		m.checkRelay(),
	}
	if m.hotkeys != nil {
		cmds = append(cmds, m.waitForHotkey())
	}
	return tea.Batch(cmds...)
}

// waitForUpdate relays controller updates into the bubbletea loop
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.controller.Updates()
		if !ok {
			return nil
		}
		return updateMsg(u)
	}
}

func (m *Model) waitForHotkey() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.hotkeys; !ok {
			return nil
		}
		return hotkeyMsg{}
	}
}

// checkRelay verifies the gateway is reachable on startup
func (m *Model) checkRelay() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		info, err := m.client.Health(ctx)
		if err != nil {
			return statusMsg("relay unreachable at " + m.client.BaseURL())
		}
		if !info.HasAPIKey {
			return statusMsg("relay has no provider key configured")
		}
		return statusMsg("connected to relay " + info.Version)
	}
}

// waitForCapture relays capture events into the bubbletea loop
func (m *Model) waitForCapture(events <-chan capture.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return captureMsg(ev)
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
		before := m.textarea.Value()
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		if m.textarea.Value() != before {
			m.controller.PreviewText(context.Background(), m.textarea.Value())
		}

	case updateMsg:
		m.applyUpdate(session.Update(msg))
		cmds = append(cmds, m.waitForUpdate())

	case captureMsg:
		cmds = append(cmds, m.applyCaptureEvent(capture.Event(msg))...)

	case hotkeyMsg:
		cmds = append(cmds, m.toggleHotkeyCapture())
		cmds = append(cmds, m.waitForHotkey())

	case statusMsg:
		m.status = string(msg)
		m.isError = false

	case captureDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}

	case restartLiveMsg:
		cmds = append(cmds, m.toggleLive())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes console shortcuts, returning handled=false for
// keys the textarea should see.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		m.shutdown()
		return tea.Quit, true

	case "enter":
		text := strings.TrimSpace(m.textarea.Value())
		if text == "" {
			return nil, true
		}
		m.textarea.Reset()
		m.preview = ""
		m.controller.SubmitText(context.Background(), text)
		return nil, true

	case "ctrl+r":
		return m.togglePushToTalk(), true

	case "ctrl+g":
		return m.toggleLive(), true

	case "ctrl+s":
		if err := m.controller.Speak(context.Background()); err != nil {
			m.setError(err)
		} else {
			m.status = "speaking"
			m.isError = false
		}
		return nil, true

	case "ctrl+k":
		m.controller.Clear()
		m.interim = ""
		m.preview = ""
		m.status = "transcript cleared"
		m.isError = false
		return nil, true

	case "tab":
		m.cycleTarget()
		return nil, true

	case "shift+tab":
		return m.cycleSource(), true
	}
	return nil, false
}

// applyUpdate folds a controller update into the view state
func (m *Model) applyUpdate(u session.Update) {
	switch u.Kind {
	case session.UpdatePreview:
		m.preview = u.Preview
	case session.UpdateInterim:
		m.interim = u.Interim
	case session.UpdateStatus:
		if u.Err != nil {
			m.setError(u.Err)
		} else if u.Status != "" {
			m.status = u.Status
			m.isError = false
		}
	}
}

// applyCaptureEvent folds a capture event into the session
func (m *Model) applyCaptureEvent(ev capture.Event) []tea.Cmd {
	var cmds []tea.Cmd
	sm := m.controller.State()

	switch ev.Kind {
	case capture.EventInterim:
		m.controller.HandleInterim(ev.Text)
	case capture.EventFinal:
		if sm.Current() == session.StateUploading {
			sm.Transition(session.StateIdle)
			m.recorder = nil
			m.status = "ready"
		}
		if ev.Text == "" {
			m.status = "no speech detected"
		} else {
			m.controller.HandleFinal(context.Background(), ev.Text)
		}
	case capture.EventError:
		sm.Reset()
		m.recorder = nil
		m.setError(ev.Err)
		// The strategy is done after an error; stop it so the
		// microphone is released.
		if live := m.live; live != nil {
			m.live = nil
			cmds = append(cmds, func() tea.Msg {
				return captureDoneMsg{err: live.Stop(context.Background())}
			})
		}
	}

	// Keep listening while a strategy is active
	if m.live != nil && sm.Current() == session.StateListening {
		cmds = append(cmds, m.waitForCapture(m.live.Events()))
	} else if m.recorder != nil {
		cmds = append(cmds, m.waitForCapture(m.recorder.Events()))
	}
	return cmds
}

// toggleHotkeyCapture routes the global hotkey to the preferred
// capture mode.
func (m *Model) toggleHotkeyCapture() tea.Cmd {
	if m.settings.CaptureMode == "live" {
		return m.toggleLive()
	}
	return m.togglePushToTalk()
}

// togglePushToTalk starts or finishes a push-to-talk recording
func (m *Model) togglePushToTalk() tea.Cmd {
	sm := m.controller.State()

	if sm.Current() == session.StateRecording {
		if !sm.Transition(session.StateUploading) {
			return nil
		}
		m.status = "transcribing..."
		rec := m.recorder
		return func() tea.Msg {
			err := rec.Stop(context.Background())
			return captureDoneMsg{err: err}
		}
	}

	if !sm.Transition(session.StateRecording) {
		m.status = "capture busy"
		return nil
	}

	source, _ := m.controller.Languages()
	rec := capture.NewRecord(m.client, capture.RecordConfig{
		Language: source,
		Capture:  m.captureConfig(),
	})
	if err := rec.Start(context.Background()); err != nil {
		sm.Reset()
		m.setError(err)
		return nil
	}

	m.recorder = rec
	m.settings.CaptureMode = "ptt"
	m.status = "recording, press ctrl+r to finish"
	m.isError = false
	return m.waitForCapture(rec.Events())
}

// toggleLive starts or stops continuous streaming capture
func (m *Model) toggleLive() tea.Cmd {
	sm := m.controller.State()

	if sm.Current() == session.StateListening || sm.Current() == session.StateStarting {
		live := m.live
		m.live = nil
		sm.Transition(session.StateIdle)
		m.interim = ""
		m.status = "ready"
		if live != nil {
			return func() tea.Msg {
				return captureDoneMsg{err: live.Stop(context.Background())}
			}
		}
		return nil
	}

	if !sm.Transition(session.StateStarting) {
		m.status = "capture busy"
		return nil
	}

	source, _ := m.controller.Languages()
	live := capture.NewLive(m.client, capture.LiveConfig{
		Language: source,
		Capture:  m.captureConfig(),
		VAD:      m.vadConfig(),
	})
	if err := live.Start(context.Background()); err != nil {
		sm.Reset()
		m.setError(err)
		return nil
	}

	sm.Transition(session.StateListening)
	m.live = live
	m.settings.CaptureMode = "live"
	m.status = "listening, press ctrl+g to stop"
	m.isError = false
	return m.waitForCapture(live.Events())
}

// captureConfig maps file configuration onto the microphone settings
func (m *Model) captureConfig() audio.CaptureConfig {
	return audio.CaptureConfig{
		SampleRate: m.cfg.Capture.SampleRate,
		BufferSize: m.cfg.Capture.BufferSize,
		DeviceName: m.cfg.Capture.InputDevice,
	}
}

// vadConfig maps file configuration onto voice activity detection
func (m *Model) vadConfig() vad.Config {
	return vad.Config{
		SampleRate:        m.cfg.Capture.SampleRate,
		Mode:              m.cfg.Capture.VADMode,
		SilenceDuration:   time.Duration(m.cfg.Capture.SilenceDurationMs) * time.Millisecond,
		MinSpeechDuration: time.Duration(m.cfg.Capture.MinSpeechDurationMs) * time.Millisecond,
	}
}

// cycleTarget advances the target language
func (m *Model) cycleTarget() {
	source, target := m.controller.Languages()
	for i, tag := range m.targets {
		if tag.Code == target {
			target = m.targets[(i+1)%len(m.targets)].Code
			break
		}
	}
	m.controller.SetLanguages(source, target)
	m.settings.TargetLang = target
	m.status = "translating to " + langs.Name(target)
	m.isError = false
}

// cycleSource advances the source language. Live capture binds the
// language hint when it starts, so an active session is stopped and
// started again with the new one.
func (m *Model) cycleSource() tea.Cmd {
	source, target := m.controller.Languages()
	for i, tag := range m.inputs {
		if tag.Code == source {
			source = m.inputs[(i+1)%len(m.inputs)].Code
			break
		}
	}
	m.controller.SetLanguages(source, target)
	m.settings.SourceLang = source
	m.status = "speaking " + langs.Name(source)
	m.isError = false

	sm := m.controller.State()
	if live := m.live; live != nil && sm.Current() == session.StateListening {
		m.live = nil
		sm.Transition(session.StateIdle)
		m.interim = ""
		return func() tea.Msg {
			if err := live.Stop(context.Background()); err != nil {
				return captureDoneMsg{err: err}
			}
			time.Sleep(liveRestartDelay)
			return restartLiveMsg{}
		}
	}
	return nil
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.isError = true
}

// shutdown stops capture and persists preferences
func (m *Model) shutdown() {
	if m.recorder != nil {
		m.recorder.Cancel()
	}
	if m.live != nil {
		m.live.Close()
	}
	m.speaker.Stop()
	m.controller.Close()

	if err := m.settings.Save(); err != nil {
		m.logger.Warn("saving settings failed", "error", err)
	}
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder

	source, target := m.controller.Languages()
	b.WriteString(titleStyle.Render("CareBridge"))
	b.WriteString(statusStyle.Render("  " +
		langStyle.Render(langs.Name(source)) + " -> " + langStyle.Render(langs.Name(target))))
	b.WriteString("\n")

	if m.controller.Transcript().HasCorrection() {
		b.WriteString(correctionBannerStyle.Render(
			"Some phrasing was clarified before translation, marked below."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderPanes())
	b.WriteString("\n")

	if m.interim != "" {
		b.WriteString(interimStyle.Render("... " + m.interim))
		b.WriteString("\n")
	}
	if m.preview != "" {
		b.WriteString(previewStyle.Render("preview: " + m.preview))
		b.WriteString("\n")
	}

	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return b.String()
}

// renderPanes draws the original and translated columns side by side
func (m *Model) renderPanes() string {
	paneWidth := (m.width - 6) / 2
	if paneWidth < 20 {
		paneWidth = 20
	}
	paneHeight := m.height - 12
	if paneHeight < 4 {
		paneHeight = 4
	}

	entries := m.controller.Transcript().Entries()

	var left, right []string
	left = append(left, paneHeaderStyle.Render("Original"))
	right = append(right, paneHeaderStyle.Render("Translated"))

	for _, e := range entries {
		text := e.Original
		style := originalStyle
		if e.Corrected != "" {
			text = e.Corrected + " *"
			style = correctedStyle
		}
		left = append(left, style.Width(paneWidth-2).Render(text))

		switch {
		case e.Err != "":
			right = append(right, errorStyle.Width(paneWidth-2).Render("failed: "+e.Err))
		case e.Pending:
			right = append(right, pendingStyle.Render(m.spinner.View()+" translating"))
		default:
			right = append(right, translatedStyle.Width(paneWidth-2).Render(e.Translated))
		}
	}

	trim := func(lines []string) string {
		if len(lines) > paneHeight {
			lines = append(lines[:1], lines[len(lines)-paneHeight+1:]...)
		}
		return strings.Join(lines, "\n")
	}

	leftPane := paneStyle.Width(paneWidth).Height(paneHeight).Render(trim(left))
	rightPane := paneStyle.Width(paneWidth).Height(paneHeight).Render(trim(right))
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
}

// renderStatus draws the status line and key help
func (m *Model) renderStatus() string {
	state := m.controller.State().Current()

	stateLabel := statusStyle.Render(state.String())
	if state != session.StateIdle {
		stateLabel = statusActiveStyle.Render(m.spinner.View() + state.String())
	}

	status := m.status
	style := statusStyle
	if m.isError {
		style = errorStyle
	}

	help := helpStyle.Render(
		"enter send | ctrl+r talk | ctrl+g live | ctrl+s speak | ctrl+k clear | tab language | esc quit")

	return stateLabel + "  " + style.Render(status) + "\n" + help
}

// Run starts the console UI and blocks until it exits
func Run(cfg *config.Config) error {
	settings := LoadSettings()
	if cfg.Console.SourceLang != "" && settings.SourceLang == langs.DefaultSource() {
		settings.SourceLang = cfg.Console.SourceLang
	}
	if cfg.Console.TargetLang != "" && settings.TargetLang == langs.DefaultTarget() {
		settings.TargetLang = cfg.Console.TargetLang
	}

	m, err := New(cfg, settings)
	if err != nil {
		return err
	}

	hotkeys, stopHotkeys := listenHotkeys()
	if hotkeys != nil {
		m.SetHotkeys(hotkeys)
		defer stopHotkeys()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
