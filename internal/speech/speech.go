package speech

import (
	"context"
	"errors"
	"fmt"
)

// EventType identifies a recognition event
type EventType string

const (
	EventStart  EventType = "start"
	EventResult EventType = "result"
	EventError  EventType = "error"
	EventEnd    EventType = "end"
)

// ErrorCode classifies a recognition failure.
type ErrorCode string

const (
	ErrNoSpeech          ErrorCode = "no-speech"
	ErrAborted           ErrorCode = "aborted"
	ErrNetwork           ErrorCode = "network"
	ErrNotAllowed        ErrorCode = "not-allowed"
	ErrServiceNotAllowed ErrorCode = "service-not-allowed"
	ErrAudioCapture      ErrorCode = "audio-capture"
)

// Transient reports whether capture should continue after this error.
// Anything not listed is fatal.
func (c ErrorCode) Transient() bool {
	switch c {
	case ErrNoSpeech, ErrAborted, ErrNetwork:
		return true
	default:
		return false
	}
}

// Permission reports whether the error means capture was refused
func (c ErrorCode) Permission() bool {
	return c == ErrNotAllowed || c == ErrServiceNotAllowed
}

type Alternative struct {
	Transcript string
}

type Result struct {
	IsFinal      bool
	Alternatives []Alternative
}

// Event is one notification from a recognizer. For result events, entries
// of Results from ResultIndex on are new or changed.
type Event struct {
	Type        EventType
	ResultIndex int
	Results     []Result
	Error       ErrorCode
	Message     string
}

// ResultEvent builds a single-result event
func ResultEvent(transcript string, final bool) Event {
	return Event{
		Type:    EventResult,
		Results: []Result{{IsFinal: final, Alternatives: []Alternative{{Transcript: transcript}}}},
	}
}

// Recognizer turns live audio into recognition events.
//
// Start begins one recognition run and returns once it is underway. The run
// emits EventStart, then any results and errors, and finally one EventEnd
// when it stops for any reason. A recognizer may be started again after its
// run has ended. Sends on events give up when ctx is done.
type Recognizer interface {
	Start(ctx context.Context, locale string, events chan<- Event) error
	Stop() error
}

// CodeError carries an ErrorCode out of Recognizer.Start.
type CodeError struct {
	Code ErrorCode
	Err  error
}

func (e *CodeError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *CodeError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode of err, or "" when it has none
func CodeOf(err error) ErrorCode {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// send delivers ev unless ctx ends first
func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
