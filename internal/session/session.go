package session

import (
	"context"
	"errors"
	"time"

	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/llm"
	"github.com/confersense/confersense/internal/speech"
)

type Status string

const (
	Idle        Status = "idle"
	Connecting  Status = "connecting"
	Listening   Status = "listening"
	Translating Status = "translating"
	Error       Status = "error"
)

const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultErrorMarker = "[Translation Error]"
)

var (
	ErrSessionActive         = errors.New("a session is active")
	ErrNotActive             = errors.New("no active session")
	ErrCapabilityUnavailable = errors.New("speech recognition unavailable")
	ErrUnknownLanguage       = errors.New("unknown language")
	ErrPermissionDenied      = errors.New("microphone permission denied")
	ErrRecognition           = errors.New("speech recognition failed")
	ErrStopped               = errors.New("session stopped while starting")
	ErrLogEmpty              = errors.New("transcript log is empty")
	ErrEmptyTranscript       = errors.New("no translated text to ask about")
	ErrNoQuestioner          = errors.New("question client not configured")
)

// Translator streams the translation of one fragment.
type Translator interface {
	Translate(ctx context.Context, req llm.TranslationRequest) <-chan llm.Event
}

// Questioner streams follow-up questions for a transcript.
type Questioner interface {
	GenerateQuestion(ctx context.Context, req llm.QuestionRequest) <-chan llm.Event
}

// Detector resolves a speech recognizer for this host.
type Detector interface {
	Detect(ctx context.Context) (speech.Recognizer, string, error)
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Config struct {
	Pair        language.Pair
	Debounce    time.Duration
	ErrorMarker string
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.ErrorMarker == "" {
		c.ErrorMarker = DefaultErrorMarker
	}
	return c
}

// State is a point-in-time view of the controller.
type State struct {
	Status  Status        `json:"status"`
	Pair    language.Pair `json:"pair"`
	Backend string        `json:"backend,omitempty"`
	Pending int           `json:"pending"`
	Entries int           `json:"entries"`
	Err     error         `json:"-"`
}
