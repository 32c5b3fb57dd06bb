package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carebridge/carebridge/internal/provider"
	"github.com/carebridge/carebridge/pkg/core/health"
)

type stubProvider struct{ healthyErr error }

func (p *stubProvider) Translate(ctx context.Context, req provider.TranslateRequest) (provider.TranslateResult, error) {
	return provider.TranslateResult{TranslatedText: "ok"}, nil
}

func (p *stubProvider) Transcribe(ctx context.Context, req provider.TranscribeRequest) (string, error) {
	return "ok", nil
}

func (p *stubProvider) Synthesize(ctx context.Context, req provider.SynthesizeRequest) (io.ReadCloser, error) {
	return io.NopCloser(nil), nil
}

func (p *stubProvider) Healthy(ctx context.Context) error { return p.healthyErr }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Port = 0
	srv, err := New(cfg, &stubProvider{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response must carry a request ID")
	}
}

func TestRequestIDPreservesClientValue(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-id-42")
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "client-id-42" {
		t.Errorf("X-Request-ID = %q, want client-id-42", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/translate", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight must set Access-Control-Allow-Origin")
	}
}

func TestHealthEndpointReflectsProviderCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	srv, err := New(cfg, &stubProvider{healthyErr: errors.New("connection refused")})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status string               `json:"status"`
		Checks []health.CheckResult `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if resp.Status != string(health.StatusUnhealthy) {
		t.Errorf("status = %q, want unhealthy", resp.Status)
	}
	found := false
	for _, c := range resp.Checks {
		if c.Name == "provider" && c.Status == health.StatusUnhealthy {
			found = true
		}
	}
	if !found {
		t.Errorf("provider check missing or healthy in %v", resp.Checks)
	}
}

func TestHealthRegistryIncludesProvider(t *testing.T) {
	srv := newTestServer(t)

	report := srv.HealthRegistry().Check(context.Background())
	if report.Status != health.StatusHealthy {
		t.Errorf("status = %s, want healthy", report.Status)
	}

	names := map[string]bool{}
	for _, c := range report.Checks {
		names[c.Name] = true
	}
	if !names["provider"] || !names["http"] {
		t.Errorf("missing expected checks, got %v", names)
	}
}
