package transcript

import (
	"testing"
	"time"
)

func TestAppendAndList(t *testing.T) {
	l := New()
	now := time.Now()
	l.Append(Entry{ID: "log-1", Original: "one", CreatedAt: now})
	l.Append(Entry{ID: "log-2", Original: "two", CreatedAt: now})

	got := l.List()
	if len(got) != 2 {
		t.Fatalf("List() = %d entries, want 2", len(got))
	}
	if got[0].ID != "log-1" || got[1].ID != "log-2" {
		t.Errorf("List() order = %s, %s", got[0].ID, got[1].ID)
	}

	got[0].Original = "mutated"
	if e, _ := l.Get("log-1"); e.Original != "one" {
		t.Error("List() should return copies")
	}
}

func TestAppendSameIDReplaces(t *testing.T) {
	l := New()
	l.Append(Entry{ID: "log-1", Original: "a"})
	l.Append(Entry{ID: "log-1", Original: "b"})
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	if e, _ := l.Get("log-1"); e.Original != "b" {
		t.Errorf("Original = %q, want b", e.Original)
	}
}

func TestUpdate(t *testing.T) {
	l := New()
	l.Append(Entry{ID: "log-1", Original: "Hello"})

	ok := l.Update("log-1", func(e *Entry) {
		e.Translated = "こんにちは"
		e.IsFinal = true
		e.ID = "hijack"
	})
	if !ok {
		t.Fatal("Update() = false for existing id")
	}
	e, found := l.Get("log-1")
	if !found {
		t.Fatal("entry id must not change through Update")
	}
	if e.Translated != "こんにちは" || !e.IsFinal {
		t.Errorf("Update() result = %+v", e)
	}

	if l.Update("missing", func(e *Entry) {}) {
		t.Error("Update() = true for missing id")
	}
}

func TestClear(t *testing.T) {
	l := New()
	l.Append(Entry{ID: "log-1"})
	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Len() after Clear = %d", l.Len())
	}
	if _, ok := l.Get("log-1"); ok {
		t.Error("Get() found entry after Clear")
	}
	l.Append(Entry{ID: "log-2"})
	if l.Len() != 1 {
		t.Error("log unusable after Clear")
	}
}

func TestTranslatedText(t *testing.T) {
	l := New()
	l.Append(Entry{ID: "1", Translated: "Hello."})
	l.Append(Entry{ID: "2", Translated: ""})
	l.Append(Entry{ID: "3", Translated: "  "})
	l.Append(Entry{ID: "4", Translated: "How are you?"})
	l.Append(Entry{ID: "5", Translated: "[Translation Error]"})

	tests := []struct {
		name string
		log  *Log
		skip string
		want string
	}{
		{"keeps everything", l, "", "Hello. How are you? [Translation Error]"},
		{"skips marker", l, "[Translation Error]", "Hello. How are you?"},
		{"empty log", New(), "[Translation Error]", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.log.TranslatedText(tt.skip); got != tt.want {
				t.Errorf("TranslatedText(%q) = %q, want %q", tt.skip, got, tt.want)
			}
		})
	}
}
