package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/llm"
	"github.com/confersense/confersense/internal/speech"
	"github.com/confersense/confersense/internal/transcript"
)

// fakeRecognizer hands its event channel to the test
type fakeRecognizer struct {
	mu       sync.Mutex
	events   chan<- speech.Event
	locale   string
	starts   int
	stops    int
	startErr error
}

func (f *fakeRecognizer) Start(ctx context.Context, locale string, events chan<- speech.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.events = events
	f.locale = locale
	f.starts++
	events <- speech.Event{Type: speech.EventStart}
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	return nil
}

func (f *fakeRecognizer) emit(ev speech.Event) {
	f.mu.Lock()
	events := f.events
	f.mu.Unlock()
	events <- ev
}

func (f *fakeRecognizer) counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

type fakeDetector struct {
	rec speech.Recognizer
	err error
}

func (d fakeDetector) Detect(ctx context.Context) (speech.Recognizer, string, error) {
	if d.err != nil {
		return nil, "", d.err
	}
	return d.rec, "fake", nil
}

type translateCall struct {
	req    llm.TranslationRequest
	ctx    context.Context
	events chan llm.Event
}

// fakeTranslator records each request and lets the test drive its stream
type fakeTranslator struct {
	mu    sync.Mutex
	calls []*translateCall
}

func (f *fakeTranslator) Translate(ctx context.Context, req llm.TranslationRequest) <-chan llm.Event {
	call := &translateCall{req: req, ctx: ctx, events: make(chan llm.Event, 16)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	return call.events
}

func (f *fakeTranslator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTranslator) call(i int) *translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

type fakeQuestioner struct {
	mu  sync.Mutex
	req *llm.QuestionRequest
}

func (f *fakeQuestioner) GenerateQuestion(ctx context.Context, req llm.QuestionRequest) <-chan llm.Event {
	f.mu.Lock()
	f.req = &req
	f.mu.Unlock()
	ch := make(chan llm.Event, 2)
	ch <- llm.Delta("What comes next?")
	ch <- llm.Done()
	close(ch)
	return ch
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock collects debounce timers; nothing fires until the test says so
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// fireLatest runs the most recent timer callback
func (c *fakeClock) fireLatest() {
	c.mu.Lock()
	t := c.timers[len(c.timers)-1]
	c.mu.Unlock()
	t.fn()
}

// fireAll runs every callback, stopped or not, like a timer racing Stop
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
}

type harness struct {
	ctrl       *Controller
	rec        *fakeRecognizer
	translator *fakeTranslator
	questioner *fakeQuestioner
	clock      *fakeClock
	store      *glossary.MemoryStore
}

func newHarness(t *testing.T, entries ...glossary.Entry) *harness {
	t.Helper()
	h := &harness{
		rec:        &fakeRecognizer{},
		translator: &fakeTranslator{},
		questioner: &fakeQuestioner{},
		clock:      &fakeClock{},
		store:      glossary.NewMemoryStore(entries...),
	}
	h.ctrl = New(Config{Pair: language.Pair{Source: "en", Target: "es"}}, Deps{
		Detector:   fakeDetector{rec: h.rec},
		Glossary:   h.store,
		Translator: h.translator,
		Questioner: h.questioner,
		AfterFunc:  h.clock.AfterFunc,
		Now:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	t.Cleanup(func() { _ = h.ctrl.Stop() })
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.ctrl.Start(context.Background(), language.Pair{Source: "en", Target: "es"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "listening", func() bool { return h.ctrl.Status().Status == Listening })
}

func (h *harness) interim(text string) {
	h.rec.emit(speech.ResultEvent(text, false))
}

func (h *harness) final(text string) {
	h.rec.emit(speech.ResultEvent(text, true))
}

func (h *harness) entry(t *testing.T, i int) transcript.Entry {
	t.Helper()
	entries := h.ctrl.Entries()
	if i >= len(entries) {
		t.Fatalf("entry %d missing, have %d", i, len(entries))
	}
	return entries[i]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartStop(t *testing.T) {
	h := newHarness(t)

	if st := h.ctrl.Status(); st.Status != Idle {
		t.Fatalf("initial status = %s", st.Status)
	}
	h.start(t)

	if h.rec.locale != "en-US" {
		t.Errorf("recognizer locale = %q, want en-US", h.rec.locale)
	}
	if st := h.ctrl.Status(); st.Backend != "fake" || st.Pair.Target != "es" {
		t.Errorf("Status() = %+v", st)
	}
	if err := h.ctrl.Start(context.Background(), language.Pair{Source: "en", Target: "es"}); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start() error = %v, want ErrSessionActive", err)
	}

	if err := h.ctrl.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if st := h.ctrl.Status(); st.Status != Idle || st.Err != nil {
		t.Errorf("after Stop: %+v", st)
	}
	if _, stops := h.rec.counts(); stops != 1 {
		t.Errorf("recognizer stops = %d, want 1", stops)
	}
	if err := h.ctrl.Stop(); !errors.Is(err, ErrNotActive) {
		t.Errorf("Stop() when idle error = %v, want ErrNotActive", err)
	}
}

func TestStartFailures(t *testing.T) {
	tests := []struct {
		name     string
		pair     language.Pair
		detector Detector
		startErr error
		want     error
	}{
		{
			name: "unknown language",
			pair: language.Pair{Source: "xx", Target: "es"},
			want: ErrUnknownLanguage,
		},
		{
			name:     "no backend",
			pair:     language.Pair{Source: "en", Target: "es"},
			detector: fakeDetector{err: speech.ErrNoBackend},
			want:     ErrCapabilityUnavailable,
		},
		{
			name:     "microphone denied",
			pair:     language.Pair{Source: "en", Target: "es"},
			startErr: &speech.CodeError{Code: speech.ErrNotAllowed, Err: errors.New("denied")},
			want:     ErrPermissionDenied,
		},
		{
			name:     "capture failure",
			pair:     language.Pair{Source: "en", Target: "es"},
			startErr: &speech.CodeError{Code: speech.ErrAudioCapture, Err: errors.New("no device")},
			want:     ErrRecognition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecognizer{startErr: tt.startErr}
			detector := tt.detector
			if detector == nil {
				detector = fakeDetector{rec: rec}
			}
			ctrl := New(Config{}, Deps{Detector: detector, Translator: &fakeTranslator{}})

			err := ctrl.Start(context.Background(), tt.pair)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Start() error = %v, want %v", err, tt.want)
			}
			st := ctrl.Status()
			if st.Status != Error || !errors.Is(st.Err, tt.want) {
				t.Errorf("Status() = %+v", st)
			}
			if err := ctrl.Start(context.Background(), tt.pair); !errors.Is(err, ErrSessionActive) {
				t.Errorf("Start() from error = %v, want ErrSessionActive", err)
			}
			if err := ctrl.Stop(); err != nil {
				t.Errorf("Stop() from error = %v", err)
			}
			if ctrl.Status().Status != Idle {
				t.Errorf("status after Stop = %s", ctrl.Status().Status)
			}
		})
	}
}

func TestHelloScenario(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.interim("Hello")
	waitFor(t, "debounce timer", func() bool { return h.clock.count() == 1 })
	e := h.entry(t, 0)
	if e.ID != "log-1" || e.Original != "Hello" || e.IsFinal || e.Translated != "" {
		t.Fatalf("interim entry = %+v", e)
	}
	if h.translator.count() != 0 {
		t.Fatal("interim translated before the debounce fired")
	}
	if h.clock.delays[0] != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", h.clock.delays[0], DefaultDebounce)
	}

	h.clock.fireLatest()
	if h.translator.count() != 1 {
		t.Fatalf("translations = %d, want 1", h.translator.count())
	}
	spec := h.translator.call(0)
	if spec.req.Text != "Hello" || spec.req.SourceLabel != "English" || spec.req.TargetLabel != "Spanish" {
		t.Errorf("speculative request = %+v", spec.req)
	}
	if st := h.ctrl.Status(); st.Status != Translating || st.Pending != 1 {
		t.Errorf("status = %+v, want translating with 1 pending", st)
	}

	spec.events <- llm.Delta("Hola")
	waitFor(t, "speculative delta", func() bool { return h.entry(t, 0).Translated == "Hola" })

	h.final("Hello there")
	waitFor(t, "final request", func() bool { return h.translator.count() == 2 })
	term := h.translator.call(1)
	if term.req.Text != "Hello there" {
		t.Errorf("final request text = %q", term.req.Text)
	}
	if spec.ctx.Err() == nil {
		t.Error("speculative request was not cancelled")
	}
	if e := h.entry(t, 0); e.Original != "Hello there" {
		t.Errorf("original = %q", e.Original)
	}

	term.events <- llm.Delta("Hola ")
	term.events <- llm.Delta("ahí")
	term.events <- llm.Done()
	close(term.events)

	waitFor(t, "final entry", func() bool { return h.entry(t, 0).IsFinal })
	if e := h.entry(t, 0); e.Translated != "Hola ahí" {
		t.Errorf("translated = %q, want %q", e.Translated, "Hola ahí")
	}
	waitFor(t, "listening", func() bool { return h.ctrl.Status().Status == Listening })
	if len(h.ctrl.Entries()) != 1 {
		t.Errorf("entries = %d, want 1", len(h.ctrl.Entries()))
	}
}

func TestSupersededRequestIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.interim("good")
	waitFor(t, "timer", func() bool { return h.clock.count() == 1 })
	h.clock.fireLatest()
	t1 := h.translator.call(0)

	h.final("good morning")
	waitFor(t, "second request", func() bool { return h.translator.count() == 2 })
	t2 := h.translator.call(1)

	t2.events <- llm.Delta("buenos días")
	waitFor(t, "t2 delta", func() bool { return h.entry(t, 0).Translated == "buenos días" })

	// late output from the superseded request must not land
	t1.events <- llm.Delta("bueno")
	t1.events <- llm.Done()
	close(t1.events)

	t2.events <- llm.Done()
	close(t2.events)
	waitFor(t, "final", func() bool { return h.entry(t, 0).IsFinal })
	if got := h.entry(t, 0).Translated; got != "buenos días" {
		t.Errorf("translated = %q, stale delta leaked", got)
	}
}

func TestDebounceCoalescesInterims(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	for _, text := range []string{"one", "one two", "one two three"} {
		h.interim(text)
	}
	waitFor(t, "three timers", func() bool { return h.clock.count() == 3 })

	h.clock.mu.Lock()
	for i, timer := range h.clock.timers[:2] {
		if !timer.stopped {
			t.Errorf("timer %d was not stopped", i)
		}
	}
	h.clock.mu.Unlock()

	// stale callbacks are ignored even if they fire after Stop
	h.clock.fireAll()

	if n := h.translator.count(); n != 1 {
		t.Fatalf("translations = %d, want 1", n)
	}
	if got := h.translator.call(0).req.Text; got != "one two three" {
		t.Errorf("request text = %q", got)
	}
	if len(h.ctrl.Entries()) != 1 {
		t.Errorf("entries = %d, want 1", len(h.ctrl.Entries()))
	}
}

func TestTimerAfterFinalDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.interim("late")
	h.final("late timer")
	waitFor(t, "final request", func() bool { return h.translator.count() == 1 })

	h.clock.fireAll()
	if n := h.translator.count(); n != 1 {
		t.Errorf("translations = %d, want 1", n)
	}
}

func TestFinalizationOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		drive    func(h *harness)
		requests int
	}{
		{
			name: "final request fails",
			drive: func(h *harness) {
				h.final("broken")
			},
			requests: 1,
		},
		{
			name: "speculative request fails",
			drive: func(h *harness) {
				h.interim("broken")
				for h.clock.count() == 0 {
					time.Sleep(time.Millisecond)
				}
				h.clock.fireLatest()
			},
			requests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.start(t)
			tt.drive(h)
			waitFor(t, "request", func() bool { return h.translator.count() == tt.requests })

			call := h.translator.call(0)
			call.events <- llm.Delta("parti")
			call.events <- llm.Failed(errors.New("upstream 500"))
			close(call.events)

			waitFor(t, "marker", func() bool { return h.entry(t, 0).IsFinal })
			if got := h.entry(t, 0).Translated; got != DefaultErrorMarker {
				t.Errorf("translated = %q, want marker", got)
			}
			waitFor(t, "listening", func() bool { return h.ctrl.Status().Status == Listening })
			if h.ctrl.Status().Err != nil {
				t.Error("translation failure must not reach session status")
			}
		})
	}
}

func TestStopMidTranslation(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.final("stop me")
	waitFor(t, "request", func() bool { return h.translator.count() == 1 })
	call := h.translator.call(0)
	call.events <- llm.Delta("para")
	waitFor(t, "delta", func() bool { return h.entry(t, 0).Translated == "para" })

	if err := h.ctrl.Stop(); err != nil {
		t.Fatal(err)
	}
	if call.ctx.Err() == nil {
		t.Error("request context not cancelled by Stop")
	}

	call.events <- llm.Delta("me")
	call.events <- llm.Done()
	close(call.events)
	time.Sleep(20 * time.Millisecond)

	e := h.entry(t, 0)
	if e.Translated != "para" || e.IsFinal {
		t.Errorf("entry changed after Stop: %+v", e)
	}
	if st := h.ctrl.Status(); st.Status != Idle || st.Pending != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestFinalAndInterimInOneEvent(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.interim("first")
	waitFor(t, "entry", func() bool { return len(h.ctrl.Entries()) == 1 })

	h.rec.emit(speech.Event{
		Type: speech.EventResult,
		Results: []speech.Result{
			{IsFinal: true, Alternatives: []speech.Alternative{{Transcript: "first sentence."}}},
			{IsFinal: false, Alternatives: []speech.Alternative{{Transcript: "second"}}},
		},
	})
	waitFor(t, "second entry", func() bool { return len(h.ctrl.Entries()) == 2 })

	if e := h.entry(t, 0); e.Original != "first sentence." {
		t.Errorf("first entry = %+v", e)
	}
	if e := h.entry(t, 1); e.ID != "log-2" || e.Original != "second" {
		t.Errorf("second entry = %+v", e)
	}
}

func TestResultIndexSkipsEarlierResults(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.rec.emit(speech.Event{
		Type:        speech.EventResult,
		ResultIndex: 1,
		Results: []speech.Result{
			{IsFinal: true, Alternatives: []speech.Alternative{{Transcript: "already handled"}}},
			{IsFinal: true, Alternatives: []speech.Alternative{{Transcript: "fresh"}}},
		},
	})
	waitFor(t, "entry", func() bool { return len(h.ctrl.Entries()) == 1 })
	if e := h.entry(t, 0); e.Original != "fresh" {
		t.Errorf("original = %q", e.Original)
	}
}

func TestBlankFinalIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.final("   ")
	h.interim("after")
	waitFor(t, "entry", func() bool { return len(h.ctrl.Entries()) == 1 })
	if h.translator.count() != 0 {
		t.Errorf("blank final issued a translation")
	}
}

func TestGlossaryApplied(t *testing.T) {
	h := newHarness(t,
		glossary.Entry{ID: "k1", Term: "ML", Replacement: "Machine Learning", SourceLang: "en", TargetLang: "es"},
		glossary.Entry{ID: "k2", Term: "AI", Replacement: "IA", SourceLang: "ja", TargetLang: "en"},
	)
	h.start(t)

	h.final("ML is fun")
	waitFor(t, "request", func() bool { return h.translator.count() == 1 })

	if e := h.entry(t, 0); e.Original != "Machine Learning is fun" {
		t.Errorf("original = %q", e.Original)
	}
	req := h.translator.call(0).req
	if len(req.Glossary) != 1 || req.Glossary[0].ID != "k1" {
		t.Errorf("request glossary = %+v", req.Glossary)
	}
}

func TestRecognitionErrors(t *testing.T) {
	t.Run("transient errors are ignored", func(t *testing.T) {
		h := newHarness(t)
		h.start(t)
		for _, code := range []speech.ErrorCode{speech.ErrNoSpeech, speech.ErrAborted, speech.ErrNetwork} {
			h.rec.emit(speech.Event{Type: speech.EventError, Error: code})
		}
		h.interim("still here")
		waitFor(t, "entry", func() bool { return len(h.ctrl.Entries()) == 1 })
		if st := h.ctrl.Status(); st.Status != Listening {
			t.Errorf("status = %s", st.Status)
		}
	})

	t.Run("permission error is fatal", func(t *testing.T) {
		h := newHarness(t)
		h.start(t)
		h.rec.emit(speech.Event{Type: speech.EventError, Error: speech.ErrNotAllowed})
		waitFor(t, "error", func() bool { return h.ctrl.Status().Status == Error })
		if st := h.ctrl.Status(); !errors.Is(st.Err, ErrPermissionDenied) {
			t.Errorf("Err = %v", st.Err)
		}
		if _, stops := h.rec.counts(); stops != 1 {
			t.Errorf("recognizer stops = %d", stops)
		}
	})

	t.Run("unknown error is fatal", func(t *testing.T) {
		h := newHarness(t)
		h.start(t)
		h.rec.emit(speech.Event{Type: speech.EventError, Error: "language-not-supported"})
		waitFor(t, "error", func() bool { return h.ctrl.Status().Status == Error })
		if st := h.ctrl.Status(); !errors.Is(st.Err, ErrRecognition) {
			t.Errorf("Err = %v", st.Err)
		}
	})
}

func TestAutoRestartOnEnd(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.rec.emit(speech.Event{Type: speech.EventEnd})
	waitFor(t, "restart", func() bool {
		starts, _ := h.rec.counts()
		return starts == 2
	})
	if st := h.ctrl.Status(); st.Status != Listening {
		t.Errorf("status after restart = %s", st.Status)
	}

	if err := h.ctrl.Stop(); err != nil {
		t.Fatal(err)
	}
	starts, _ := h.rec.counts()
	if starts != 2 {
		t.Errorf("starts = %d after stop", starts)
	}
}

func TestResetLog(t *testing.T) {
	h := newHarness(t)

	if err := h.ctrl.ResetLog(); !errors.Is(err, ErrLogEmpty) {
		t.Errorf("ResetLog() on empty log = %v", err)
	}

	h.start(t)
	h.interim("keep")
	waitFor(t, "entry", func() bool { return len(h.ctrl.Entries()) == 1 })
	if err := h.ctrl.ResetLog(); !errors.Is(err, ErrSessionActive) {
		t.Errorf("ResetLog() while active = %v", err)
	}

	if err := h.ctrl.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.ResetLog(); err != nil {
		t.Fatalf("ResetLog() error = %v", err)
	}
	if n := len(h.ctrl.Entries()); n != 0 {
		t.Errorf("entries after reset = %d", n)
	}

	// ids keep increasing across resets
	h.start(t)
	h.interim("again")
	waitFor(t, "entry", func() bool { return len(h.ctrl.Entries()) == 1 })
	if id := h.entry(t, 0).ID; id != "log-2" {
		t.Errorf("id after reset = %q", id)
	}
}

func TestGenerateQuestion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.ctrl.GenerateQuestion(ctx, ""); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("empty transcript error = %v", err)
	}

	h.start(t)
	h.final("first")
	waitFor(t, "request 1", func() bool { return h.translator.count() == 1 })
	c1 := h.translator.call(0)
	c1.events <- llm.Delta("primero")
	c1.events <- llm.Done()
	close(c1.events)

	h.final("second")
	waitFor(t, "request 2", func() bool { return h.translator.count() == 2 })
	c2 := h.translator.call(1)
	c2.events <- llm.Failed(errors.New("boom"))
	close(c2.events)
	waitFor(t, "both final", func() bool {
		entries := h.ctrl.Entries()
		return len(entries) == 2 && entries[0].IsFinal && entries[1].IsFinal
	})

	if _, err := h.ctrl.GenerateQuestion(ctx, ""); !errors.Is(err, ErrSessionActive) {
		t.Errorf("while active error = %v", err)
	}
	if err := h.ctrl.Stop(); err != nil {
		t.Fatal(err)
	}

	events, err := h.ctrl.GenerateQuestion(ctx, " https://example.com/talk ")
	if err != nil {
		t.Fatalf("GenerateQuestion() error = %v", err)
	}
	var out strings.Builder
	for ev := range events {
		if ev.Kind == llm.EventDelta {
			out.WriteString(ev.Text)
		}
	}
	if out.String() != "What comes next?" {
		t.Errorf("output = %q", out.String())
	}

	req := h.questioner.req
	if req.Transcript != "primero" {
		t.Errorf("transcript = %q, error marker must be excluded", req.Transcript)
	}
	if req.ReferenceURL != "https://example.com/talk" || req.SourceLabel != "English" || req.TargetLabel != "Spanish" {
		t.Errorf("request = %+v", req)
	}
}

func TestConfigure(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	if err := h.ctrl.Configure(Config{}, Deps{}); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Configure() while active = %v", err)
	}
	if err := h.ctrl.Stop(); err != nil {
		t.Fatal(err)
	}

	pair := language.Pair{Source: "ja", Target: "en"}
	if err := h.ctrl.Configure(Config{Pair: pair, Debounce: time.Second}, Deps{}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if st := h.ctrl.Status(); st.Pair != pair {
		t.Errorf("pair = %v", st.Pair)
	}
	err := h.ctrl.Start(context.Background(), pair)
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("Start() without ports = %v", err)
	}
}
