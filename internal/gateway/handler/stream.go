package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carebridge/carebridge/internal/audio"
	"github.com/carebridge/carebridge/internal/provider"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

const (
	streamSampleRate = 16000
	// Don't bother the transcription model with less than a quarter
	// second of new audio.
	minInterimSamples = streamSampleRate / 4
)

// streamControl is a client-to-server control frame
type streamControl struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
}

// streamEvent is a server-to-client frame
type streamEvent struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// StreamHandler upgrades /api/v1/stream connections and runs incremental
// transcription over raw PCM frames.
type StreamHandler struct {
	provider provider.Provider
	interval time.Duration
	timeout  time.Duration
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a streaming transcription handler
func NewStreamHandler(p provider.Provider, interval, timeout time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StreamHandler{
		provider: p,
		interval: interval,
		timeout:  timeout,
		logger:   logging.New("gateway-stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler
func (s *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := &streamSession{
		handler: s,
		conn:    conn,
		buffer:  audio.NewSegmentBuffer(streamSampleRate, 30),
		done:    make(chan struct{}),
	}
	sess.run(r.Context())
}

// streamSession is the per-connection state of one streaming client
type streamSession struct {
	handler *StreamHandler
	conn    *websocket.Conn
	buffer  *audio.SegmentBuffer

	mu          sync.Mutex
	language    string
	started     bool
	transcribed int // samples covered by the last interim
	done        chan struct{}
}

func (s *streamSession) run(ctx context.Context) {
	defer s.conn.Close()
	defer close(s.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.interimLoop(ctx)

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.handler.logger.Warn("stream read failed", "error", err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if !s.isStarted() {
				s.sendError("send a start frame before audio")
				continue
			}
			s.buffer.Append(audio.BytesToSamples(data))

		case websocket.TextMessage:
			var ctl streamControl
			if err := json.Unmarshal(data, &ctl); err != nil {
				s.sendError("invalid control frame")
				continue
			}
			switch ctl.Type {
			case "start":
				s.handleStart(ctl.Language)
			case "segment_end":
				s.finalizeSegment(ctx)
			case "stop":
				s.finalizeSegment(ctx)
				s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			default:
				s.sendError("unknown control type " + ctl.Type)
			}
		}
	}
}

func (s *streamSession) handleStart(language string) {
	s.mu.Lock()
	s.language = language
	s.started = true
	s.transcribed = 0
	s.mu.Unlock()
	s.buffer.Take()
	s.handler.logger.Info("stream segment started", "language", language)
}

func (s *streamSession) isStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// interimLoop periodically transcribes the growing segment and pushes
// interim transcripts, one in-flight call at a time.
func (s *streamSession) interimLoop(ctx context.Context) {
	ticker := time.NewTicker(s.handler.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
		}

		if !s.isStarted() {
			continue
		}
		snapshot := s.buffer.Snapshot()

		s.mu.Lock()
		fresh := len(snapshot) - s.transcribed
		s.mu.Unlock()
		if fresh < minInterimSamples {
			continue
		}

		text, err := s.transcribe(ctx, snapshot)
		if err != nil {
			// Interim failures are transient; the final pass retries
			// the whole segment anyway.
			s.handler.logger.Debug("interim transcription failed", "error", err)
			continue
		}

		s.mu.Lock()
		s.transcribed = len(snapshot)
		s.mu.Unlock()
		s.send(streamEvent{Type: "interim", Text: text})
	}
}

// finalizeSegment transcribes everything buffered since start and emits
// the final transcript. The session stays started so the client can keep
// sending audio for the next utterance without another start frame.
func (s *streamSession) finalizeSegment(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.transcribed = 0
	s.mu.Unlock()

	samples := s.buffer.Take()
	if len(samples) < minInterimSamples {
		s.send(streamEvent{Type: "final", Text: ""})
		return
	}

	text, err := s.transcribe(ctx, samples)
	if err != nil {
		s.handler.logger.Warn("final transcription failed", "samples", len(samples), "error", err)
		s.sendError(providerDetail("transcription", err))
		return
	}
	s.send(streamEvent{Type: "final", Text: text})
}

func (s *streamSession) transcribe(ctx context.Context, samples []int16) (string, error) {
	wavData, err := audio.EncodeWAV(samples, streamSampleRate)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	language := s.language
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.handler.timeout)
	defer cancel()

	return s.handler.provider.Transcribe(ctx, provider.TranscribeRequest{
		Audio:    bytes.NewReader(wavData),
		Filename: "segment.wav",
		Language: language,
	})
}

func (s *streamSession) send(ev streamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := s.conn.WriteJSON(ev); err != nil {
		s.handler.logger.Debug("stream write failed", "error", err)
	}
}

func (s *streamSession) sendError(detail string) {
	s.send(streamEvent{Type: "error", Detail: detail})
}
