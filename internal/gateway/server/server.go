package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/gateway/handler"
	"github.com/carebridge/carebridge/internal/gateway/terms"
	"github.com/carebridge/carebridge/internal/provider"
	"github.com/carebridge/carebridge/pkg/core/health"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

// Server is the CareBridge relay gateway server
type Server struct {
	httpServer *http.Server
	handler    *handler.Handler
	glossary   *terms.Store
	health     *health.Registry
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string

	ProviderTimeout time.Duration
	StreamInterval  time.Duration
	MaxUploadBytes  int64
	GlossaryPath    string
	AllowedOrigin   string
	HasAPIKey       bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		Version:      "1.0.0",

		ProviderTimeout: 60 * time.Second,
		StreamInterval:  2 * time.Second,
		MaxUploadBytes:  25 << 20,
		AllowedOrigin:   "*",
	}
}

// New creates a new relay gateway server
func New(cfg Config, p provider.Provider) (*Server, error) {
	logger := logging.New("gateway-server")

	glossary := terms.NewStore()
	if cfg.GlossaryPath != "" {
		if err := glossary.Load(cfg.GlossaryPath); err != nil {
			return nil, fmt.Errorf("loading glossary: %w", err)
		}
		if err := glossary.Watch(); err != nil {
			logger.Warn("glossary watch unavailable", "error", err)
		}
	}

	h := handler.NewHandler(handler.Config{
		Version:         cfg.Version,
		ProviderTimeout: cfg.ProviderTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		HasAPIKey:       cfg.HasAPIKey,
	}, p, glossary)

	streamHandler := handler.NewStreamHandler(p, cfg.StreamInterval, cfg.ProviderTimeout)

	mux := http.NewServeMux()

	// WebSocket route
	mux.Handle("/api/v1/stream", streamHandler)

	// API routes
	mux.Handle("/", h)
	mux.Handle("/api/", h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestIDMiddleware(corsMiddleware(cfg.AllowedOrigin, loggingMiddleware(logger, mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	healthRegistry := health.NewRegistry("carebridge-gateway", cfg.Version)
	healthRegistry.RegisterFunc("http", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Name:    "http",
			Status:  health.StatusHealthy,
			Message: "HTTP server is running",
		}
	})
	healthRegistry.RegisterFunc("provider", func(ctx context.Context) health.CheckResult {
		if err := p.Healthy(ctx); err != nil {
			return health.CheckResult{
				Name:    "provider",
				Status:  health.StatusUnhealthy,
				Message: "provider unreachable: " + err.Error(),
			}
		}
		return health.CheckResult{
			Name:    "provider",
			Status:  health.StatusHealthy,
			Message: "provider reachable",
		}
	})

	h.SetHealthChecker(healthRegistry)

	return &Server{
		httpServer: httpServer,
		handler:    h,
		glossary:   glossary,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}, nil
}

// loggingMiddleware adds request logging. Paths and metadata only,
// never request or response bodies.
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"request_id", w.Header().Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

// requestIDMiddleware tags every response with a request ID
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware answers preflights and sets the allowed origin
func corsMiddleware(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for streamed audio responses
func (w *responseWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack is required for WebSocket upgrades through the middleware chain
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting CareBridge relay gateway",
		"host", s.config.Host,
		"port", s.config.Port,
		"glossary_terms", s.glossary.Len(),
	)
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	s.logger.Info("Starting CareBridge relay gateway (async)",
		"host", s.config.Host,
		"port", s.config.Port,
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping CareBridge relay gateway")

	if s.glossary != nil {
		if err := s.glossary.Close(); err != nil {
			s.logger.Warn("Error closing glossary watcher", "error", err)
		}
	}

	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
