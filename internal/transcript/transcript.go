package transcript

import (
	"strings"
	"sync"
	"time"
)

// Entry is one utterance and its translation.
type Entry struct {
	ID         string    `json:"id"`
	Original   string    `json:"original"`
	Translated string    `json:"translated"`
	IsFinal    bool      `json:"isFinal"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Log is an ordered collection of entries. It does not decide anything on
// its own; the session controller creates and mutates entries.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

func New() *Log {
	return &Log{index: make(map[string]int)}
}

// Append adds an entry at the end. An entry with an existing id replaces it.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.index[e.ID]; ok {
		l.entries[i] = e
		return
	}
	l.index[e.ID] = len(l.entries)
	l.entries = append(l.entries, e)
}

// Update applies fn to the entry with the given id and reports whether it existed.
func (l *Log) Update(id string, fn func(*Entry)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return false
	}
	fn(&l.entries[i])
	l.entries[i].ID = id
	return true
}

func (l *Log) Get(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return Entry{}, false
	}
	return l.entries[i], true
}

// List returns a copy of all entries in insertion order
func (l *Log) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.index = make(map[string]int)
}

// TranslatedText joins every non-empty translation with a space. Entries
// whose translation is exactly skip (the error marker) are left out.
func (l *Log) TranslatedText(skip string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	parts := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		t := strings.TrimSpace(e.Translated)
		if t == "" || (skip != "" && t == skip) {
			continue
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}
