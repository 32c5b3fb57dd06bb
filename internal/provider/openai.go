package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/carebridge/carebridge/internal/langs"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// OpenAIConfig holds OpenAI client configuration
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string // optional, e.g. a compatible gateway
	ChatModel       string
	TranscribeModel string
	SpeechModel     string
	Voice           string
}

// OpenAI implements Provider against the OpenAI API
type OpenAI struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger *logging.Logger
}

const translateSystemPrompt = `You are a professional medical translator assisting patient-provider communication.
First correct the source text: fix transcription mistakes, misheard drug names, dosages and medical terms, without changing meaning.
Then translate the corrected text into the target language with high fidelity, preserving medical terminology accurately.
Keep the output concise and natural. Do not add explanations.
Respond with a JSON object containing exactly two keys:
"corrected_source" (the corrected text in the source language) and
"translated_text" (the translation of the corrected text).`

// NewOpenAI creates a new OpenAI provider
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key is not set")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = "whisper-1"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gpt-4o-mini-tts"
	}
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logging.New("provider-openai"),
	}, nil
}

// Models returns the configured model names
func (p *OpenAI) Models() Models {
	return Models{
		Chat:       p.cfg.ChatModel,
		Transcribe: p.cfg.TranscribeModel,
		Speech:     p.cfg.SpeechModel,
	}
}

// Translate performs one corrected-plus-translated model call
func (p *OpenAI) Translate(ctx context.Context, req TranslateRequest) (TranslateResult, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Target language: %s\n", langs.Name(req.TargetLang))
	if req.SourceLang != "" && !langs.IsAuto(req.SourceLang) {
		fmt.Fprintf(&user, "Source language: %s\n", langs.Name(req.SourceLang))
	}
	fmt.Fprintf(&user, "Text:\n%s", req.Text)

	system := translateSystemPrompt
	if len(req.Hints) > 0 {
		system += "\nPreferred terminology:\n" + strings.Join(req.Hints, "\n")
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.ChatModel,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user.String()},
		},
	})
	if err != nil {
		return TranslateResult{}, fmt.Errorf("translate call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return TranslateResult{}, fmt.Errorf("translate returned no choices")
	}

	result, err := parseTranslatePayload(resp.Choices[0].Message.Content)
	if err != nil {
		return TranslateResult{}, err
	}

	p.logger.Debug("translate complete",
		"model", p.cfg.ChatModel,
		"target", req.TargetLang,
		"input_len", len(req.Text),
		"output_len", len(result.TranslatedText),
	)
	return result, nil
}

// parseTranslatePayload decodes the strict JSON the model was asked for
func parseTranslatePayload(content string) (TranslateResult, error) {
	content = strings.TrimSpace(content)
	// Some models wrap JSON in a code fence despite the response format
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var payload struct {
		CorrectedSource string `json:"corrected_source"`
		TranslatedText  string `json:"translated_text"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return TranslateResult{}, fmt.Errorf("unexpected translate payload: %w", err)
	}
	if strings.TrimSpace(payload.TranslatedText) == "" {
		return TranslateResult{}, fmt.Errorf("empty translation from model")
	}

	return TranslateResult{
		TranslatedText:  strings.TrimSpace(payload.TranslatedText),
		CorrectedSource: strings.TrimSpace(payload.CorrectedSource),
	}, nil
}

// Transcribe sends one audio payload for transcription
func (p *OpenAI) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	filename := req.Filename
	if filename == "" {
		filename = "audio.webm"
	}

	audioReq := openai.AudioRequest{
		Model:    p.cfg.TranscribeModel,
		Reader:   req.Audio,
		FilePath: filename,
	}
	if req.Language != "" && !langs.IsAuto(req.Language) {
		audioReq.Language = req.Language
	}

	resp, err := p.client.CreateTranscription(ctx, audioReq)
	if err != nil {
		return "", fmt.Errorf("transcription call failed: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("transcription returned no text")
	}

	p.logger.Debug("transcription complete",
		"model", p.cfg.TranscribeModel,
		"text_len", len(resp.Text),
	)
	return resp.Text, nil
}

// Synthesize streams synthesized speech audio for the given text
func (p *OpenAI) Synthesize(ctx context.Context, req SynthesizeRequest) (io.ReadCloser, error) {
	voice := req.Voice
	if voice == "" {
		voice = p.cfg.Voice
	}
	format := req.Format
	if format == "" {
		format = "mp3"
	}

	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.cfg.SpeechModel),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(format),
	})
	if err != nil {
		return nil, fmt.Errorf("speech call failed: %w", err)
	}

	return resp, nil
}

// Healthy checks provider reachability with a cheap model listing
func (p *OpenAI) Healthy(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}
	return nil
}
