package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTranslator answers with a fixed prefix and records calls
type fakeTranslator struct {
	mu        sync.Mutex
	calls     []string
	corrected string
	err       error
	delay     time.Duration
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (Translation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return Translation{}, f.err
	}
	return Translation{TranslatedText: "[" + target + "] " + text, CorrectedSource: f.corrected}, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text, lang string) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

// drain consumes updates until the transcript entry count settles
func waitForEntries(t *testing.T, c *Controller, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		entries := c.Transcript().Entries()
		if len(entries) == want {
			done := true
			for _, e := range entries {
				if e.Pending {
					done = false
				}
			}
			if done {
				return
			}
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d settled entries, have %v", want, entries)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSubmitTextTranslates(t *testing.T) {
	ft := &fakeTranslator{}
	c := NewController(ft, &fakeSpeaker{})
	defer c.Close()
	c.SetLanguages("en", "es")

	c.SubmitText(context.Background(), "hello doctor")
	waitForEntries(t, c, 1)

	entry := c.Transcript().Entries()[0]
	if entry.Original != "hello doctor" {
		t.Errorf("original = %q", entry.Original)
	}
	if entry.Translated != "[es] hello doctor" {
		t.Errorf("translated = %q", entry.Translated)
	}
}

func TestSubmitBlankTextIsIgnored(t *testing.T) {
	ft := &fakeTranslator{}
	c := NewController(ft, &fakeSpeaker{})
	defer c.Close()

	c.SubmitText(context.Background(), "   ")
	if c.Transcript().Len() != 0 {
		t.Error("blank submission must not create an entry")
	}
	if ft.callCount() != 0 {
		t.Error("blank submission must not reach the translator")
	}
}

func TestSubmitErrorMarksEntry(t *testing.T) {
	ft := &fakeTranslator{err: errors.New("relay unreachable")}
	c := NewController(ft, &fakeSpeaker{})
	defer c.Close()

	c.SubmitText(context.Background(), "hello")
	waitForEntries(t, c, 1)

	entry := c.Transcript().Entries()[0]
	if entry.Err == "" {
		t.Error("failed translation must mark the entry")
	}
	if entry.Translated != "" {
		t.Errorf("translated = %q, want empty", entry.Translated)
	}
}

func TestPreviewDebouncesBursts(t *testing.T) {
	ft := &fakeTranslator{}
	c := NewController(ft, &fakeSpeaker{}, WithDebounce(50*time.Millisecond))
	defer c.Close()

	ctx := context.Background()
	c.PreviewText(ctx, "h")
	c.PreviewText(ctx, "he")
	c.PreviewText(ctx, "hel")
	c.PreviewText(ctx, "hello")

	time.Sleep(200 * time.Millisecond)
	if got := ft.callCount(); got != 1 {
		t.Errorf("translator called %d times, want 1 after debounce", got)
	}
}

func TestStalePreviewIsDropped(t *testing.T) {
	ft := &fakeTranslator{delay: 50 * time.Millisecond}
	c := NewController(ft, &fakeSpeaker{}, WithDebounce(time.Millisecond))
	defer c.Close()

	ctx := context.Background()
	c.PreviewText(ctx, "old draft")
	time.Sleep(20 * time.Millisecond) // let the debounce fire and the call start
	c.PreviewText(ctx, "new draft")

	var last string
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-c.Updates():
			if u.Kind == UpdatePreview && u.Preview != "" {
				last = u.Preview
			}
		case <-deadline:
			t.Fatal("no preview update arrived")
		}
		if last != "" {
			break
		}
	}
	if last != "[es] new draft" {
		t.Errorf("preview = %q, stale response was applied", last)
	}
}

func TestSpeakRefusesEmptyTranscript(t *testing.T) {
	fs := &fakeSpeaker{}
	c := NewController(&fakeTranslator{}, fs)
	defer c.Close()

	if err := c.Speak(context.Background()); !errors.Is(err, ErrNothingToSpeak) {
		t.Errorf("err = %v, want ErrNothingToSpeak", err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.spoken) != 0 {
		t.Error("speaker must not be called with nothing to speak")
	}
}

func TestSpeakUsesLastTranslation(t *testing.T) {
	ft := &fakeTranslator{}
	fs := &fakeSpeaker{}
	c := NewController(ft, fs)
	defer c.Close()
	c.SetLanguages("en", "es")

	c.SubmitText(context.Background(), "hello")
	waitForEntries(t, c, 1)

	if err := c.Speak(context.Background()); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		fs.mu.Lock()
		n := len(fs.spoken)
		fs.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("speaker never called")
		case <-time.After(5 * time.Millisecond):
		}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.spoken[0] != "[es] hello" {
		t.Errorf("spoke %q", fs.spoken[0])
	}
	if fs.stops == 0 {
		t.Error("Speak must stop previous playback first")
	}
}

func TestClearWipesEverything(t *testing.T) {
	ft := &fakeTranslator{}
	fs := &fakeSpeaker{}
	c := NewController(ft, fs)
	defer c.Close()

	c.SubmitText(context.Background(), "hello")
	waitForEntries(t, c, 1)

	c.Clear()
	if c.Transcript().Len() != 0 {
		t.Error("transcript not empty after Clear")
	}
	if err := c.Speak(context.Background()); !errors.Is(err, ErrNothingToSpeak) {
		t.Error("Speak after Clear must refuse")
	}
}

func TestHandleFinalAppendsUtterance(t *testing.T) {
	ft := &fakeTranslator{}
	c := NewController(ft, &fakeSpeaker{})
	defer c.Close()

	c.HandleFinal(context.Background(), "spoken sentence")
	waitForEntries(t, c, 1)

	if got := c.Transcript().Entries()[0].Original; got != "spoken sentence" {
		t.Errorf("original = %q", got)
	}
}
