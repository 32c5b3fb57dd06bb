package relayclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carebridge/carebridge/internal/capture"
)

func newClientFor(srv *httptest.Server) *Client {
	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestTranslateRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "hello" || body["target_lang"] != "es" {
			t.Errorf("body = %v", body)
		}
		if _, ok := body["source_lang"]; ok {
			t.Error("auto source must not be forwarded")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"translated_text":  "hola",
			"corrected_source": "hello there",
		})
	}))
	defer srv.Close()

	got, err := newClientFor(srv).Translate(context.Background(), "hello", "auto", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got.TranslatedText != "hola" {
		t.Errorf("translated = %q", got.TranslatedText)
	}
	if got.CorrectedSource != "hello there" {
		t.Errorf("corrected = %q", got.CorrectedSource)
	}
}

func TestTranslateSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "translation timed out"})
	}))
	defer srv.Close()

	_, err := newClientFor(srv).Translate(context.Background(), "hi", "en", "es")
	if err == nil || !strings.Contains(err.Error(), "translation timed out") {
		t.Errorf("err = %v, want the relay detail", err)
	}
}

func TestTranscribeClipUploadsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart request: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file field: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "fake-wav" {
			t.Errorf("payload = %q", data)
		}
		if lang := r.FormValue("language"); lang != "en" {
			t.Errorf("language = %q", lang)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello doctor"})
	}))
	defer srv.Close()

	text, err := newClientFor(srv).TranscribeClip(context.Background(), []byte("fake-wav"), "en")
	if err != nil {
		t.Fatalf("TranscribeClip: %v", err)
	}
	if text != "hello doctor" {
		t.Errorf("text = %q", text)
	}
}

func TestSynthesizeReturnsAudioStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	body, contentType, err := newClientFor(srv).Synthesize(context.Background(), "hola", "", "mp3")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	defer body.Close()

	if contentType != "audio/mpeg" {
		t.Errorf("content type = %q", contentType)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "mp3-bytes" {
		t.Errorf("audio = %q", data)
	}
}

func TestHealthReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"version":     "1.0.0",
			"has_api_key": true,
			"models":      map[string]string{"llm": "gpt-4o-mini"},
		})
	}))
	defer srv.Close()

	info, err := newClientFor(srv).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if info.Status != "ok" || !info.HasAPIKey || info.Models.LLM != "gpt-4o-mini" {
		t.Errorf("info = %+v", info)
	}
}

func TestStreamProtocol(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Expect the start frame first
		var ctl streamControl
		if err := conn.ReadJSON(&ctl); err != nil || ctl.Type != "start" || ctl.Language != "en" {
			t.Errorf("start frame = %+v, err = %v", ctl, err)
			return
		}

		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			switch msgType {
			case websocket.BinaryMessage:
				conn.WriteJSON(streamEvent{Type: "interim", Text: "partial"})
			case websocket.TextMessage:
				var c streamControl
				json.Unmarshal(data, &c)
				if c.Type == "segment_end" {
					conn.WriteJSON(streamEvent{Type: "final", Text: "hello doctor"})
				}
			}
		}
	}))
	defer srv.Close()

	client := newClientFor(srv)
	stream, err := client.DialStream(context.Background(), "en")
	if err != nil {
		t.Fatalf("DialStream: %v", err)
	}
	defer stream.Close()

	if err := stream.SendAudio([]int16{1, 2, 3, 4}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	waitResult := func(want func(capture.StreamResult) bool) capture.StreamResult {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case res := <-stream.Results():
				if want(res) {
					return res
				}
			case <-deadline:
				t.Fatal("timed out waiting for stream result")
			}
		}
	}

	interim := waitResult(func(r capture.StreamResult) bool { return r.Interim != "" })
	if interim.Interim != "partial" {
		t.Errorf("interim = %q", interim.Interim)
	}

	if err := stream.SegmentEnd(); err != nil {
		t.Fatalf("SegmentEnd: %v", err)
	}
	final := waitResult(func(r capture.StreamResult) bool { return r.IsFinal })
	if final.Final != "hello doctor" {
		t.Errorf("final = %q", final.Final)
	}
}
