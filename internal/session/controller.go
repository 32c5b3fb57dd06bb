// CareBridge - Healthcare Speech Translation
//
// Package: session
// Description: Dual-language transcript state and session control
// License: MIT

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"

	"github.com/carebridge/carebridge/internal/langs"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// ErrNothingToSpeak is returned by Speak when no translation exists yet
var ErrNothingToSpeak = errors.New("nothing to speak yet")

// Translation is the outcome of one relay translate call
type Translation struct {
	TranslatedText  string
	CorrectedSource string
}

// Translator is the slice of the relay client the controller needs
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (Translation, error)
}

// Speaker plays translated text out loud
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
	Stop()
}

// UpdateKind classifies controller updates
type UpdateKind int

const (
	// UpdateTranscript - the transcript changed, re-render it
	UpdateTranscript UpdateKind = iota

	// UpdatePreview - the live preview translation changed
	UpdatePreview

	// UpdateInterim - a partial speech transcript arrived
	UpdateInterim

	// UpdateStatus - a status or error message for the status line
	UpdateStatus
)

// Update is pushed to the UI whenever session state changes
type Update struct {
	Kind    UpdateKind
	Preview string
	Interim string
	Status  string
	Err     error
}

// Controller owns the transcript and coordinates translation,
// capture results and speech output for one console session.
type Controller struct {
	transcript *Transcript
	state      *CaptureStateMachine
	translator Translator
	speaker    Speaker
	logger     *logging.Logger

	mu         sync.Mutex
	sourceLang string
	targetLang string
	speakStop  context.CancelFunc

	// previewSeq orders preview translations; a response is applied
	// only when no newer request has been issued since.
	previewSeq atomic.Uint64
	debounced  func(func())

	updates chan Update
	closed  atomic.Bool
}

// Option configures a Controller
type Option func(*Controller)

// WithDebounce overrides the typed-input debounce window
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounced = debounce.New(d)
	}
}

// NewController creates a session controller
func NewController(translator Translator, speaker Speaker, opts ...Option) *Controller {
	c := &Controller{
		transcript: NewTranscript(),
		state:      NewCaptureStateMachine(),
		translator: translator,
		speaker:    speaker,
		logger:     logging.New("session"),
		sourceLang: langs.DefaultSource(),
		targetLang: langs.DefaultTarget(),
		debounced:  debounce.New(400 * time.Millisecond),
		updates:    make(chan Update, 32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Updates delivers state change notifications to the UI
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// Transcript exposes the session transcript
func (c *Controller) Transcript() *Transcript {
	return c.transcript
}

// State exposes the capture state machine
func (c *Controller) State() *CaptureStateMachine {
	return c.state
}

// SetLanguages updates the translation direction. An in-flight preview
// for the old direction is dropped via the sequence counter.
func (c *Controller) SetLanguages(source, target string) {
	c.mu.Lock()
	c.sourceLang = source
	c.targetLang = target
	c.mu.Unlock()
	c.previewSeq.Add(1)
}

// Languages returns the current translation direction
func (c *Controller) Languages() (source, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sourceLang, c.targetLang
}

// SubmitText appends text as a new utterance and translates it.
// Used for typed submissions and for final speech transcripts.
func (c *Controller) SubmitText(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	id := c.transcript.Append(text)
	c.previewSeq.Add(1) // the submitted text supersedes any pending preview
	c.push(Update{Kind: UpdateTranscript})
	c.push(Update{Kind: UpdatePreview, Preview: ""})

	source, target := c.Languages()
	go func() {
		start := time.Now()
		result, err := c.translator.Translate(ctx, text, source, target)
		if err != nil {
			c.logger.Warn("translation failed", "entry", id, "error", err)
			c.transcript.SetError(id, err.Error())
			c.push(Update{Kind: UpdateTranscript})
			c.push(Update{Kind: UpdateStatus, Err: err})
			return
		}
		c.logger.Debug("translation complete", "entry", id, "duration", time.Since(start))
		c.transcript.SetTranslation(id, result.TranslatedText, result.CorrectedSource)
		c.push(Update{Kind: UpdateTranscript})
	}()
}

// PreviewText translates draft text as the user types. Calls are
// coalesced through the debounce window and stale responses are
// dropped so the preview never regresses to older input.
func (c *Controller) PreviewText(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	seq := c.previewSeq.Add(1)

	if text == "" {
		c.push(Update{Kind: UpdatePreview, Preview: ""})
		return
	}

	c.debounced(func() {
		if c.previewSeq.Load() != seq {
			return
		}
		source, target := c.Languages()
		go func() {
			result, err := c.translator.Translate(ctx, text, source, target)
			if c.previewSeq.Load() != seq {
				return
			}
			if err != nil {
				c.logger.Debug("preview translation failed", "error", err)
				return
			}
			c.push(Update{Kind: UpdatePreview, Preview: result.TranslatedText})
		}()
	})
}

// HandleInterim forwards a partial speech transcript to the UI
func (c *Controller) HandleInterim(text string) {
	c.push(Update{Kind: UpdateInterim, Interim: text})
}

// HandleFinal commits a final speech transcript as an utterance
func (c *Controller) HandleFinal(ctx context.Context, text string) {
	c.push(Update{Kind: UpdateInterim, Interim: ""})
	c.SubmitText(ctx, text)
}

// Speak reads the most recent translation aloud. A previous speech
// playback still running is stopped first. With an empty transcript it
// refuses instead of calling the speaker.
func (c *Controller) Speak(ctx context.Context) error {
	text := c.transcript.LastTranslated()
	if text == "" {
		return ErrNothingToSpeak
	}

	_, target := c.Languages()

	c.mu.Lock()
	if c.speakStop != nil {
		c.speakStop()
	}
	c.speaker.Stop()
	speakCtx, cancel := context.WithCancel(ctx)
	c.speakStop = cancel
	c.mu.Unlock()

	go func() {
		defer cancel()
		if err := c.speaker.Speak(speakCtx, text, target); err != nil && speakCtx.Err() == nil {
			c.logger.Warn("speech playback failed", "error", err)
			c.push(Update{Kind: UpdateStatus, Err: err})
		}
	}()
	return nil
}

// Clear wipes the transcript and drops all pending work
func (c *Controller) Clear() {
	c.previewSeq.Add(1)
	c.transcript.Clear()

	c.mu.Lock()
	if c.speakStop != nil {
		c.speakStop()
		c.speakStop = nil
	}
	c.mu.Unlock()
	c.speaker.Stop()

	c.push(Update{Kind: UpdateTranscript})
	c.push(Update{Kind: UpdatePreview, Preview: ""})
	c.push(Update{Kind: UpdateInterim, Interim: ""})
}

// Close shuts the update channel down
func (c *Controller) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.updates)
	}
}

// push delivers an update without ever blocking the caller
func (c *Controller) push(u Update) {
	if c.closed.Load() {
		return
	}
	select {
	case c.updates <- u:
	default:
		c.logger.Debug("update channel full, dropping", "kind", int(u.Kind))
	}
}
