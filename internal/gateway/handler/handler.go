package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carebridge/carebridge/internal/gateway/terms"
	"github.com/carebridge/carebridge/internal/langs"
	"github.com/carebridge/carebridge/internal/provider"
	"github.com/carebridge/carebridge/pkg/core/health"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// TranslateRequest is the /translate request body
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse is the /translate response body
type TranslateResponse struct {
	TranslatedText  string `json:"translated_text"`
	CorrectedSource string `json:"corrected_source,omitempty"`
	Model           string `json:"model,omitempty"`
}

// TranscribeResponse is the /stt response body
type TranscribeResponse struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// SynthesizeRequest is the /tts request body
type SynthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format,omitempty"`
}

// HealthResponse is the /health response body
type HealthResponse struct {
	Status    string               `json:"status"`
	Version   string               `json:"version"`
	Uptime    string               `json:"uptime"`
	Models    provider.Models      `json:"models"`
	HasAPIKey bool                 `json:"has_api_key"`
	Checks    []health.CheckResult `json:"checks,omitempty"`
}

// LanguagesResponse is the /api/languages response body
type LanguagesResponse struct {
	Inputs  []langs.Tag `json:"inputs"`
	Targets []langs.Tag `json:"targets"`
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ModelNamer is implemented by providers that expose their model names
type ModelNamer interface {
	Models() provider.Models
}

// Config holds handler configuration
type Config struct {
	Version         string
	ProviderTimeout time.Duration
	MaxUploadBytes  int64
	HasAPIKey       bool
}

// HealthChecker aggregates component checks for the /health endpoint
type HealthChecker interface {
	Check(ctx context.Context) *health.Report
}

// Handler routes and serves the relay gateway's HTTP API
type Handler struct {
	provider  provider.Provider
	glossary  *terms.Store
	config    Config
	logger    *logging.Logger
	startTime time.Time
	health    HealthChecker
}

// SetHealthChecker attaches a check registry consulted by /health
func (h *Handler) SetHealthChecker(c HealthChecker) {
	h.health = c
}

// NewHandler creates a new gateway handler
func NewHandler(cfg Config, p provider.Provider, glossary *terms.Store) *Handler {
	if cfg.ProviderTimeout == 0 {
		cfg.ProviderTimeout = 60 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	return &Handler{
		provider:  p,
		glossary:  glossary,
		config:    cfg,
		logger:    logging.New("gateway-handler"),
		startTime: time.Now(),
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Payloads may contain patient speech: no intermediary or browser
	// cache may ever hold a copy.
	w.Header().Set("Cache-Control", "no-store, no-cache")

	path := strings.TrimPrefix(r.URL.Path, "/api")
	path = strings.TrimSuffix(path, "/")

	switch path {
	case "", "/":
		h.handleRoot(w, r)
	case "/health":
		h.handleHealth(w, r)
	case "/languages":
		h.handleLanguages(w, r)
	case "/translate":
		h.handleTranslate(w, r)
	case "/stt", "/transcribe":
		h.handleTranscribe(w, r)
	case "/tts":
		h.handleSynthesize(w, r)
	default:
		h.writeError(w, http.StatusNotFound, "endpoint not found")
	}
}

// handleRoot describes the API
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "CareBridge relay",
		"version": h.config.Version,
		"endpoints": []string{
			"GET  /health",
			"GET  /api/languages",
			"POST /translate",
			"POST /stt",
			"POST /tts",
			"WS   /api/v1/stream",
		},
	})
}

// handleHealth reports gateway and provider status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	var models provider.Models
	if namer, ok := h.provider.(ModelNamer); ok {
		models = namer.Models()
	}

	status := "ok"
	var checks []health.CheckResult
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := h.health.Check(ctx)
		status = string(report.Status)
		checks = report.Checks
	}

	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   h.config.Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Models:    models,
		HasAPIKey: h.config.HasAPIKey,
		Checks:    checks,
	})
}

// handleLanguages serves the language registry
func (h *Handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	h.writeJSON(w, http.StatusOK, LanguagesResponse{
		Inputs:  langs.List(),
		Targets: langs.ListTargets(),
	})
}

// handleTranslate forwards one combined correction + translation call
func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req TranslateRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "empty text")
		return
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		h.writeError(w, http.StatusBadRequest, "target_lang is required")
		return
	}
	if langs.IsAuto(req.TargetLang) {
		h.writeError(w, http.StatusBadRequest, "target_lang must not be auto")
		return
	}

	var hints []string
	if h.glossary != nil {
		hints = h.glossary.Hints(req.TargetLang, req.Text)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.ProviderTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.provider.Translate(ctx, provider.TranslateRequest{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Hints:      hints,
	})
	if err != nil {
		h.logger.Warn("translate failed", "target", req.TargetLang, "error", err)
		h.writeError(w, http.StatusBadGateway, providerDetail("translation", err))
		return
	}

	h.logger.Info("translate complete",
		"target", req.TargetLang,
		"input_len", len(req.Text),
		"duration", time.Since(start),
	)

	resp := TranslateResponse{TranslatedText: result.TranslatedText}
	if namer, ok := h.provider.(ModelNamer); ok {
		resp.Model = namer.Models().Chat
	}
	// Only report a correction when the model actually changed something
	if result.CorrectedSource != "" &&
		strings.TrimSpace(result.CorrectedSource) != strings.TrimSpace(req.Text) {
		resp.CorrectedSource = result.CorrectedSource
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleTranscribe accepts one multipart audio file and returns its transcript
func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "expected multipart form with an audio file")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("audio")
	}
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "audio file field is required")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), h.config.ProviderTimeout)
	defer cancel()

	start := time.Now()
	text, err := h.provider.Transcribe(ctx, provider.TranscribeRequest{
		Audio:    file,
		Filename: header.Filename,
		Language: r.FormValue("language"),
	})
	if err != nil {
		h.logger.Warn("transcription failed", "size", header.Size, "error", err)
		h.writeError(w, http.StatusBadGateway, providerDetail("transcription", err))
		return
	}

	h.logger.Info("transcription complete",
		"size", header.Size,
		"text_len", len(text),
		"duration", time.Since(start),
	)

	resp := TranscribeResponse{Text: text}
	if namer, ok := h.provider.(ModelNamer); ok {
		resp.Model = namer.Models().Transcribe
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// audioContentTypes maps the accepted synthesis formats to media types
var audioContentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"opus": "audio/ogg",
}

// handleSynthesize streams synthesized speech audio back to the caller
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req SynthesizeRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "empty text")
		return
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = "mp3"
	}
	contentType, ok := audioContentTypes[format]
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid format, use mp3, wav or opus")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.ProviderTimeout)
	defer cancel()

	start := time.Now()
	audio, err := h.provider.Synthesize(ctx, provider.SynthesizeRequest{
		Text:   req.Text,
		Voice:  req.Voice,
		Format: format,
	})
	if err != nil {
		h.logger.Warn("synthesis failed", "format", format, "error", err)
		h.writeError(w, http.StatusBadGateway, providerDetail("synthesis", err))
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "speech."+format))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, audio)
	if err != nil {
		// Headers are gone; all we can do is log the broken stream
		h.logger.Warn("synthesis stream interrupted", "written", n, "error", err)
		return
	}

	h.logger.Info("synthesis complete",
		"format", format,
		"bytes", n,
		"duration", time.Since(start),
	)
}

// providerDetail builds a short client-safe error detail
func providerDetail(op string, err error) string {
	if err == context.DeadlineExceeded || strings.Contains(err.Error(), context.DeadlineExceeded.Error()) {
		return op + " timed out"
	}
	return op + " failed: " + err.Error()
}

func (h *Handler) readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, ErrorResponse{Detail: detail})
}
