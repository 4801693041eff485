package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

const BackendScript = "script"

// ScriptBackend replays a recognition script from a file. Each non-blank
// line is one directive:
//
//	partial: <text>    interim result
//	final: <text>      final result
//	error: <code>      recognition error (e.g. no-speech, not-allowed)
//	pause: <duration>  wait, e.g. 500ms
//	end:               end the current run; the next run resumes after it
//
// Lines starting with # are ignored. When the script is exhausted the run
// stays open, silent, until it is stopped.
type ScriptBackend struct {
	Path      string
	LineDelay time.Duration
}

func (b ScriptBackend) Name() string {
	return BackendScript
}

func (b ScriptBackend) Available(ctx context.Context) error {
	if b.Path == "" {
		return errors.New("no script path configured")
	}
	if _, err := os.Stat(b.Path); err != nil {
		return err
	}
	return nil
}

func (b ScriptBackend) NewRecognizer() Recognizer {
	path := b.Path
	return &ScriptRecognizer{
		delay: b.LineDelay,
		load: func() ([]string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			return splitLines(data), nil
		},
	}
}

func splitLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// ScriptRecognizer is a Recognizer driven by script directives.
type ScriptRecognizer struct {
	delay time.Duration
	load  func() ([]string, error)

	mu      sync.Mutex
	lines   []string
	loaded  bool
	pos     int
	running bool
	cancel  context.CancelFunc
}

// NewScriptRecognizer builds a recognizer from in-memory directives
func NewScriptRecognizer(lines []string, delay time.Duration) *ScriptRecognizer {
	return &ScriptRecognizer{lines: lines, loaded: true, delay: delay}
}

func (r *ScriptRecognizer) Start(ctx context.Context, locale string, events chan<- Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("script recognizer already running")
	}
	if !r.loaded {
		lines, err := r.load()
		if err != nil {
			return &CodeError{Code: ErrAudioCapture, Err: fmt.Errorf("load script: %w", err)}
		}
		r.lines = lines
		r.loaded = true
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	log.Printf("script: run started at line %d, locale=%s", r.pos+1, locale)
	go r.run(ctx, runCtx, events)
	return nil
}

func (r *ScriptRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

func (r *ScriptRecognizer) next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.lines) {
		return "", false
	}
	line := r.lines[r.pos]
	r.pos++
	return line, true
}

func (r *ScriptRecognizer) run(ctx, runCtx context.Context, events chan<- Event) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.cancel()
		r.cancel = nil
		r.mu.Unlock()
		send(ctx, events, Event{Type: EventEnd})
	}()

	if !send(runCtx, events, Event{Type: EventStart}) {
		return
	}

	for {
		line, ok := r.next()
		if !ok {
			<-runCtx.Done()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		directive, arg, _ := strings.Cut(line, ":")
		arg = strings.TrimSpace(arg)

		var ev *Event
		switch strings.ToLower(strings.TrimSpace(directive)) {
		case "partial":
			e := ResultEvent(arg, false)
			ev = &e
		case "final":
			e := ResultEvent(arg, true)
			ev = &e
		case "error":
			ev = &Event{Type: EventError, Error: ErrorCode(arg)}
		case "pause":
			d, err := time.ParseDuration(arg)
			if err != nil {
				log.Printf("script: bad pause %q: %v", arg, err)
				continue
			}
			if !sleep(runCtx, d) {
				return
			}
			continue
		case "end":
			return
		default:
			log.Printf("script: unknown directive %q", directive)
			continue
		}

		if !send(runCtx, events, *ev) {
			return
		}
		if r.delay > 0 && !sleep(runCtx, r.delay) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
