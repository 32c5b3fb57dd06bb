package provider

import (
	"context"
	"io"
)

// TranslateRequest asks for one combined correction + translation pass
type TranslateRequest struct {
	Text       string
	SourceLang string // empty or "auto" lets the model detect
	TargetLang string
	Hints      []string // terminology hints appended to the system prompt
}

// TranslateResult is the structured output of a translate call
type TranslateResult struct {
	TranslatedText  string
	CorrectedSource string
}

// TranscribeRequest carries one uploaded audio payload
type TranscribeRequest struct {
	Audio    io.Reader
	Filename string // used by the provider to infer the container format
	Language string // optional hint, empty or "auto" for detection
}

// SynthesizeRequest asks for speech audio for a piece of text
type SynthesizeRequest struct {
	Text   string
	Voice  string // empty uses the configured default
	Format string // mp3, wav or opus; empty defaults to mp3
}

// Provider is the external AI capability behind the relay gateway.
// Implementations make exactly one upstream call per method and never
// retry; the caller owns timeout contexts.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (TranslateResult, error)
	Transcribe(ctx context.Context, req TranscribeRequest) (string, error)
	Synthesize(ctx context.Context, req SynthesizeRequest) (io.ReadCloser, error)
	Healthy(ctx context.Context) error
}

// Models describes the configured model names, for the health endpoint
type Models struct {
	Chat       string `json:"llm"`
	Transcribe string `json:"stt"`
	Speech     string `json:"tts"`
}
