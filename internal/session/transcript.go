// CareBridge - Healthcare Speech Translation
//
// Package: session
// Description: Dual-language transcript state and session control
// License: MIT

package session

import (
	"strings"
	"sync"
)

// Entry is one utterance in the dual-language transcript. Corrected is
// set only when the model actually changed the original wording.
type Entry struct {
	ID         int
	Original   string
	Corrected  string
	Translated string
	Pending    bool
	Err        string
}

// Transcript holds the ordered conversation history for one session.
// Nothing here is ever persisted; Clear wipes it completely.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a new original utterance and returns its entry ID.
// The entry stays pending until a translation arrives.
func (t *Transcript) Append(original string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.entries = append(t.entries, Entry{
		ID:       id,
		Original: original,
		Pending:  true,
	})
	return id
}

// SetTranslation records the translation for an entry. An empty
// corrected string means the model left the original untouched.
// Unknown IDs are ignored; the entry may have been cleared.
func (t *Transcript) SetTranslation(id int, translated, corrected string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Translated = translated
			if corrected != "" && strings.TrimSpace(corrected) != strings.TrimSpace(t.entries[i].Original) {
				t.entries[i].Corrected = corrected
			}
			t.entries[i].Pending = false
			t.entries[i].Err = ""
			return
		}
	}
}

// SetError marks an entry's translation as failed
func (t *Transcript) SetError(id int, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Pending = false
			t.entries[i].Err = detail
			return
		}
	}
}

// Entries returns a copy of all entries in order
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// LastTranslated returns the most recent non-empty translation,
// or "" when nothing has been translated yet.
func (t *Transcript) LastTranslated() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Translated != "" {
			return t.entries[i].Translated
		}
	}
	return ""
}

// HasCorrection reports whether any entry carries a model correction.
// The console shows its correction notice only while this holds.
func (t *Transcript) HasCorrection() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.entries {
		if t.entries[i].Corrected != "" {
			return true
		}
	}
	return false
}

// Clear removes every entry. Entry IDs keep counting up so that late
// translation results for cleared entries can never reattach.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
