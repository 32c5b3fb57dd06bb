// CareBridge - Healthcare Speech Translation
//
// Package: relayclient
// Description: HTTP and WebSocket client for the relay gateway
// License: MIT

package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/carebridge/carebridge/internal/langs"
	"github.com/carebridge/carebridge/internal/session"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// Config holds relay client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the CareBridge relay gateway
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// HealthInfo is the relay's health report
type HealthInfo struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	HasAPIKey bool   `json:"has_api_key"`
	Models    struct {
		LLM string `json:"llm"`
		STT string `json:"stt"`
		TTS string `json:"tts"`
	} `json:"models"`
}

// New creates a relay client
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logging.New("relayclient"),
	}
}

// BaseURL returns the configured gateway address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Translate runs one correction + translation round trip
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (session.Translation, error) {
	body := map[string]string{
		"text":        text,
		"target_lang": targetLang,
	}
	if sourceLang != "" && !langs.IsAuto(sourceLang) {
		body["source_lang"] = sourceLang
	}

	var resp struct {
		TranslatedText  string `json:"translated_text"`
		CorrectedSource string `json:"corrected_source"`
	}
	if err := c.postJSON(ctx, "/translate", body, &resp); err != nil {
		return session.Translation{}, err
	}
	return session.Translation{
		TranslatedText:  resp.TranslatedText,
		CorrectedSource: resp.CorrectedSource,
	}, nil
}

// TranscribeClip uploads a recorded WAV clip for transcription
func (c *Client) TranscribeClip(ctx context.Context, wavData []byte, language string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "clip.wav")
	if err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if _, err := fw.Write(wavData); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if language != "" && !langs.IsAuto(language) {
		mw.WriteField("language", language)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stt", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reaching relay: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", c.errorFrom(httpResp)
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}

	c.logger.Debug("clip transcribed", "bytes", len(wavData), "duration", time.Since(start))
	return resp.Text, nil
}

// Synthesize fetches synthesized speech audio. The caller owns the
// returned reader.
func (c *Client) Synthesize(ctx context.Context, text, voice, format string) (io.ReadCloser, string, error) {
	body := map[string]string{"text": text}
	if voice != "" {
		body["voice"] = voice
	}
	if format != "" {
		body["format"] = format
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("reaching relay: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, "", c.errorFrom(resp)
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Health fetches the relay's health report
func (c *Client) Health(ctx context.Context) (HealthInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthInfo{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthInfo{}, fmt.Errorf("reaching relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HealthInfo{}, c.errorFrom(resp)
	}

	var info HealthInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return HealthInfo{}, fmt.Errorf("decoding health report: %w", err)
	}
	return info, nil
}

// Languages fetches the relay's language registry
func (c *Client) Languages(ctx context.Context) (inputs, targets []langs.Tag, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/languages", nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("reaching relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, c.errorFrom(resp)
	}

	var body struct {
		Inputs  []langs.Tag `json:"inputs"`
		Targets []langs.Tag `json:"targets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("decoding languages: %w", err)
	}
	return body.Inputs, body.Targets, nil
}

// postJSON posts a JSON body and decodes a JSON response
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reaching relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// errorFrom turns a non-200 relay response into an error using the
// detail envelope when present.
func (c *Client) errorFrom(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Detail != "" {
		return fmt.Errorf("relay: %s", envelope.Detail)
	}
	return fmt.Errorf("relay returned status %d", resp.StatusCode)
}
