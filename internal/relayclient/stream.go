// CareBridge - Healthcare Speech Translation
//
// Package: relayclient
// Description: HTTP and WebSocket client for the relay gateway
// License: MIT

package relayclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carebridge/carebridge/internal/audio"
	"github.com/carebridge/carebridge/internal/capture"
)

// streamControl mirrors the relay's control frame format
type streamControl struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
}

// streamEvent mirrors the relay's event frame format
type streamEvent struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Detail string `json:"detail"`
}

// Stream is one open streaming transcription session
type Stream struct {
	conn    *websocket.Conn
	results chan capture.StreamResult

	writeMu sync.Mutex
	closed  sync.Once
}

// DialStream opens a streaming transcription session on the relay
func (c *Client) DialStream(ctx context.Context, language string) (capture.StreamConn, error) {
	wsURL := strings.Replace(c.baseURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL += "/api/v1/stream"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing stream: %w", err)
	}

	s := &Stream{
		conn:    conn,
		results: make(chan capture.StreamResult, 16),
	}

	if err := s.writeControl(streamControl{Type: "start", Language: language}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("starting stream: %w", err)
	}

	go s.readLoop()

	c.logger.Info("transcription stream opened", "language", language)
	return s, nil
}

// readLoop converts relay frames into stream results
func (s *Stream) readLoop() {
	defer close(s.results)
	for {
		var ev streamEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.deliver(capture.StreamResult{Err: fmt.Errorf("stream closed: %w", err)})
			}
			return
		}

		switch ev.Type {
		case "interim":
			s.deliver(capture.StreamResult{Interim: ev.Text})
		case "final":
			s.deliver(capture.StreamResult{Final: ev.Text, IsFinal: true})
		case "error":
			s.deliver(capture.StreamResult{Err: fmt.Errorf("relay: %s", ev.Detail)})
		}
	}
}

func (s *Stream) deliver(res capture.StreamResult) {
	select {
	case s.results <- res:
	default:
	}
}

// SendAudio ships one chunk of PCM samples to the relay
func (s *Stream) SendAudio(samples []int16) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteMessage(websocket.BinaryMessage, audio.SamplesToBytes(samples))
}

// SegmentEnd asks the relay to finalize the current utterance
func (s *Stream) SegmentEnd() error {
	return s.writeControl(streamControl{Type: "segment_end"})
}

// Results delivers transcripts from the relay
func (s *Stream) Results() <-chan capture.StreamResult {
	return s.results
}

// Close stops the stream and closes the connection
func (s *Stream) Close() error {
	var err error
	s.closed.Do(func() {
		s.writeControl(streamControl{Type: "stop"})
		err = s.conn.Close()
	})
	return err
}

func (s *Stream) writeControl(ctl streamControl) error {
	data, err := json.Marshal(ctl)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
