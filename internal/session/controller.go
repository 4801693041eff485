package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/llm"
	"github.com/confersense/confersense/internal/notify"
	"github.com/confersense/confersense/internal/speech"
	"github.com/confersense/confersense/internal/transcript"
)

const eventBuffer = 64

// Deps are the ports a Controller drives.
type Deps struct {
	Detector   Detector
	Glossary   glossary.Store
	Translator Translator
	Questioner Questioner
	Notifier   notify.Notifier
	AfterFunc  AfterFunc
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.AfterFunc == nil {
		d.AfterFunc = realAfterFunc
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Controller runs at most one capture session and owns the transcript.
// All state, including every transcript mutation, is guarded by mu.
type Controller struct {
	mu   sync.Mutex
	cfg  Config
	deps Deps
	log  *transcript.Log

	status  Status
	lastErr error
	pair    language.Pair
	backend string
	run     *run

	seq   int
	token uint64
}

// run is the state of one Start..Stop cycle. Callbacks holding a run that
// is no longer c.run are stale and do nothing.
type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	pair   language.Pair
	source language.Language
	target language.Language
	events chan speech.Event

	store      glossary.Store
	translator Translator
	recognizer speech.Recognizer
	recording  bool

	glossary []glossary.Entry
	current  string

	debounce    Timer
	debounceGen uint64

	latest   map[string]uint64
	inflight map[uint64]*request
}

type request struct {
	token    uint64
	entryID  string
	terminal bool
	started  bool
	cancel   context.CancelFunc
}

func New(cfg Config, deps Deps) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		cfg:    cfg,
		deps:   deps.withDefaults(),
		log:    transcript.New(),
		status: Idle,
		pair:   cfg.Pair,
	}
}

// Configure swaps config and ports. Only allowed with no active session.
func (c *Controller) Configure(cfg Config, deps Deps) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != nil {
		return ErrSessionActive
	}
	c.cfg = cfg.withDefaults()
	c.deps = deps.withDefaults()
	if c.status == Idle {
		c.pair = c.cfg.Pair
	}
	return nil
}

// Start begins capturing in pair.Source and translating to pair.Target.
// ctx bounds the whole session, not just the call.
func (c *Controller) Start(ctx context.Context, pair language.Pair) error {
	c.mu.Lock()
	if c.status != Idle {
		c.mu.Unlock()
		return ErrSessionActive
	}

	source, target, err := language.Resolve(pair)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUnknownLanguage, err)
		c.failLocked(nil, err)
		c.mu.Unlock()
		return err
	}
	if c.deps.Translator == nil {
		err := fmt.Errorf("%w: translator not configured", ErrCapabilityUnavailable)
		c.failLocked(nil, err)
		c.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		ctx:        runCtx,
		cancel:     cancel,
		pair:       pair,
		source:     source,
		target:     target,
		events:     make(chan speech.Event, eventBuffer),
		store:      c.deps.Glossary,
		translator: c.deps.Translator,
		recording:  true,
		latest:     make(map[string]uint64),
		inflight:   make(map[uint64]*request),
	}
	c.run = r
	c.pair = pair
	c.lastErr = nil
	c.backend = ""
	c.setStatusLocked(Connecting)
	detector := c.deps.Detector
	c.mu.Unlock()

	log.Printf("session: starting %s", pair)

	var rec speech.Recognizer
	var backend string
	if detector == nil {
		err = errors.New("no speech backends configured")
	} else {
		rec, backend, err = detector.Detect(runCtx)
	}

	c.mu.Lock()
	if c.run != r {
		c.mu.Unlock()
		return ErrStopped
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		c.failLocked(r, err)
		c.mu.Unlock()
		return err
	}
	r.recognizer = rec
	c.backend = backend
	c.mu.Unlock()

	go c.consume(r)

	if err := rec.Start(runCtx, source.SpeechLocale, r.events); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.run != r {
			return ErrStopped
		}
		err = recognizerError(err)
		c.failLocked(r, err)
		return err
	}
	return nil
}

// Stop ends the session: in-flight translations and the debounce timer are
// cancelled and the recognizer released. Entries are left as they are.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == Idle {
		return ErrNotActive
	}
	if c.run != nil {
		c.teardownLocked(c.run)
		c.run = nil
	}
	c.lastErr = nil
	c.backend = ""
	c.setStatusLocked(Idle)
	c.deps.Notifier.StatusChanged(string(Idle), "")
	return nil
}

func (c *Controller) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Status:  c.status,
		Pair:    c.pair,
		Backend: c.backend,
		Entries: c.log.Len(),
		Err:     c.lastErr,
	}
	if c.run != nil {
		st.Pending = len(c.run.inflight)
	}
	return st
}

// Entries returns a copy of the transcript in capture order.
func (c *Controller) Entries() []transcript.Entry {
	return c.log.List()
}

// ResetLog clears the transcript. Refused while a session is active.
func (c *Controller) ResetLog() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != nil {
		return ErrSessionActive
	}
	if c.log.Len() == 0 {
		return ErrLogEmpty
	}
	n := c.log.Len()
	c.log.Clear()
	log.Printf("session: cleared %d transcript entries", n)
	return nil
}

// GenerateQuestion asks for follow-up questions over the translated
// transcript. Refused while a session is active.
func (c *Controller) GenerateQuestion(ctx context.Context, referenceURL string) (<-chan llm.Event, error) {
	c.mu.Lock()
	if c.run != nil {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	text := c.log.TranslatedText(c.cfg.ErrorMarker)
	q := c.deps.Questioner
	pair := c.pair
	c.mu.Unlock()

	if text == "" {
		return nil, ErrEmptyTranscript
	}
	if q == nil {
		return nil, ErrNoQuestioner
	}

	req := llm.QuestionRequest{
		Transcript:   text,
		ReferenceURL: strings.TrimSpace(referenceURL),
		SourceLabel:  pair.Source,
		TargetLabel:  pair.Target,
	}
	if source, target, err := language.Resolve(pair); err == nil {
		req.SourceLabel = source.Label
		req.TargetLabel = target.Label
	}
	log.Printf("session: generating questions over %d chars", len(text))
	return q.GenerateQuestion(ctx, req), nil
}

func recognizerError(err error) error {
	if speech.CodeOf(err).Permission() {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrRecognition, err)
}

func (c *Controller) setStatusLocked(s Status) {
	if c.status == s {
		return
	}
	log.Printf("session: %s -> %s", c.status, s)
	c.status = s
}

// failLocked moves to the error state. r may be nil when no run was created.
func (c *Controller) failLocked(r *run, err error) {
	log.Printf("session: %v", err)
	if r != nil {
		c.teardownLocked(r)
		if c.run == r {
			c.run = nil
		}
	}
	c.lastErr = err
	c.setStatusLocked(Error)
	c.deps.Notifier.Error(err.Error())
}

func (c *Controller) teardownLocked(r *run) {
	r.recording = false
	c.stopDebounceLocked(r)
	for token, req := range r.inflight {
		req.cancel()
		delete(r.inflight, token)
	}
	r.current = ""
	// cancel first so a recognizer still dialing gives up before Stop
	r.cancel()
	if r.recognizer != nil {
		if err := r.recognizer.Stop(); err != nil {
			log.Printf("session: stopping recognizer: %v", err)
		}
	}
}

// consume feeds recognition events for one run, one at a time.
func (c *Controller) consume(r *run) {
	for {
		select {
		case <-r.ctx.Done():
			return
		case ev := <-r.events:
			c.handle(r, ev)
		}
	}
}

func (c *Controller) handle(r *run, ev speech.Event) {
	switch ev.Type {
	case speech.EventStart:
		c.mu.Lock()
		if c.run == r && c.status == Connecting {
			c.setStatusLocked(Listening)
			c.deps.Notifier.StatusChanged(string(Listening), r.pair.String())
		}
		c.mu.Unlock()
	case speech.EventResult:
		c.handleResult(r, ev)
	case speech.EventError:
		c.handleError(r, ev)
	case speech.EventEnd:
		c.handleEnd(r)
	}
}

// splitResults concatenates the first alternative of each result from
// ResultIndex on, separated by finality.
func splitResults(ev speech.Event) (final, interim string) {
	var f, i strings.Builder
	for idx := ev.ResultIndex; idx < len(ev.Results); idx++ {
		res := ev.Results[idx]
		if len(res.Alternatives) == 0 {
			continue
		}
		if res.IsFinal {
			f.WriteString(res.Alternatives[0].Transcript)
		} else {
			i.WriteString(res.Alternatives[0].Transcript)
		}
	}
	return f.String(), i.String()
}

func (c *Controller) lookupGlossary(r *run) []glossary.Entry {
	if r.store == nil {
		return nil
	}
	entries, err := r.store.Lookup(r.ctx, r.pair.Source, r.pair.Target)
	if err != nil {
		log.Printf("session: glossary lookup failed: %v", err)
		return nil
	}
	return entries
}

func (c *Controller) handleResult(r *run, ev speech.Event) {
	final, interim := splitResults(ev)
	if final == "" && interim == "" {
		return
	}
	entries := c.lookupGlossary(r)
	final = strings.TrimSpace(glossary.Apply(final, entries))
	interim = glossary.Apply(interim, entries)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != r {
		return
	}
	r.glossary = entries
	if c.status == Connecting {
		c.setStatusLocked(Listening)
	}

	// final first so a trailing interim opens the next entry
	if final != "" {
		c.finalizeLocked(r, final)
	}
	if strings.TrimSpace(interim) != "" {
		c.interimLocked(r, interim)
	}
}

func (c *Controller) handleError(r *run, ev speech.Event) {
	if ev.Error.Transient() {
		log.Printf("session: ignoring recognition error %s", ev.Error)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != r {
		return
	}

	detail := string(ev.Error)
	if ev.Message != "" {
		detail = fmt.Sprintf("%s: %s", ev.Error, ev.Message)
	}
	var err error
	if ev.Error.Permission() {
		err = fmt.Errorf("%w: %s", ErrPermissionDenied, detail)
	} else {
		err = fmt.Errorf("%w: %s", ErrRecognition, detail)
	}
	c.failLocked(r, err)
}

// handleEnd restarts the recognizer while the session still wants to record.
func (c *Controller) handleEnd(r *run) {
	c.mu.Lock()
	if c.run != r || !r.recording {
		c.mu.Unlock()
		return
	}
	rec := r.recognizer
	locale := r.source.SpeechLocale
	c.mu.Unlock()

	log.Printf("session: recognizer ended, restarting")
	if err := rec.Start(r.ctx, locale, r.events); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.run == r {
			c.failLocked(r, recognizerError(err))
		}
	}
}

func (c *Controller) appendLocked(text string) string {
	c.seq++
	id := fmt.Sprintf("log-%d", c.seq)
	c.log.Append(transcript.Entry{ID: id, Original: text, CreatedAt: c.deps.Now()})
	return id
}

func (c *Controller) interimLocked(r *run, text string) {
	if r.current == "" {
		r.current = c.appendLocked(text)
	} else {
		c.log.Update(r.current, func(e *transcript.Entry) { e.Original = text })
	}

	c.stopDebounceLocked(r)
	gen := r.debounceGen
	id := r.current
	r.debounce = c.deps.AfterFunc(c.cfg.Debounce, func() {
		c.debounceFired(r, id, gen)
	})
}

func (c *Controller) debounceFired(r *run, id string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != r || r.debounceGen != gen || r.current != id {
		return
	}
	r.debounce = nil
	e, ok := c.log.Get(id)
	if !ok {
		return
	}
	c.issueLocked(r, id, e.Original, false)
}

func (c *Controller) finalizeLocked(r *run, text string) {
	c.stopDebounceLocked(r)

	id := r.current
	if id == "" {
		id = c.appendLocked(text)
	} else {
		c.log.Update(id, func(e *transcript.Entry) { e.Original = text })
	}
	r.current = ""
	c.issueLocked(r, id, text, true)
}

// stopDebounceLocked cancels the pending timer and invalidates its binding
func (c *Controller) stopDebounceLocked(r *run) {
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
	r.debounceGen++
}

func (c *Controller) cancelEntryLocked(r *run, id string) {
	for token, req := range r.inflight {
		if req.entryID == id {
			req.cancel()
			delete(r.inflight, token)
		}
	}
}

// issueLocked starts a translation for an entry, superseding any earlier one.
func (c *Controller) issueLocked(r *run, id, text string, terminal bool) {
	c.cancelEntryLocked(r, id)

	c.token++
	ctx, cancel := context.WithCancel(r.ctx)
	req := &request{token: c.token, entryID: id, terminal: terminal, cancel: cancel}
	r.latest[id] = req.token
	r.inflight[req.token] = req
	c.refreshStatusLocked(r)

	kind := "speculative"
	if terminal {
		kind = "final"
	}
	log.Printf("session: %s translation #%d for %s", kind, req.token, id)

	events := r.translator.Translate(ctx, llm.TranslationRequest{
		Text:        text,
		SourceLabel: r.source.Label,
		TargetLabel: r.target.Label,
		Glossary:    r.glossary,
	})
	go c.consumeTranslation(r, req, events)
}

func (c *Controller) consumeTranslation(r *run, req *request, events <-chan llm.Event) {
	defer req.cancel()

	for ev := range events {
		c.apply(r, req, ev)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != r {
		return
	}
	if _, ok := r.inflight[req.token]; ok {
		delete(r.inflight, req.token)
		c.refreshStatusLocked(r)
	}
}

func (c *Controller) apply(r *run, req *request, ev llm.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != r || r.latest[req.entryID] != req.token {
		return
	}

	switch ev.Kind {
	case llm.EventDelta:
		first := !req.started
		req.started = true
		c.log.Update(req.entryID, func(e *transcript.Entry) {
			if first {
				e.Translated = ev.Text
			} else {
				e.Translated += ev.Text
			}
		})
	case llm.EventDone:
		if req.terminal {
			c.log.Update(req.entryID, func(e *transcript.Entry) { e.IsFinal = true })
		}
		c.finishLocked(r, req)
	case llm.EventFailed:
		log.Printf("session: translation #%d for %s failed: %v", req.token, req.entryID, ev.Err)
		marker := c.cfg.ErrorMarker
		c.log.Update(req.entryID, func(e *transcript.Entry) {
			e.Translated = marker
			e.IsFinal = true
		})
		c.finishLocked(r, req)
	}
}

func (c *Controller) finishLocked(r *run, req *request) {
	delete(r.inflight, req.token)
	c.refreshStatusLocked(r)
}

// refreshStatusLocked toggles listening/translating with the in-flight count
func (c *Controller) refreshStatusLocked(r *run) {
	if c.status != Listening && c.status != Translating {
		return
	}
	if len(r.inflight) > 0 {
		c.setStatusLocked(Translating)
	} else {
		c.setStatusLocked(Listening)
	}
}
