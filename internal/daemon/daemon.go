package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/confersense/confersense/internal/bus"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/llm"
	"github.com/confersense/confersense/internal/notify"
	"github.com/confersense/confersense/internal/session"
	"github.com/confersense/confersense/internal/speech"
)

// Version is stamped at build time
var Version = "dev"

// StatusReport is the DATA payload of a status command.
type StatusReport struct {
	Status  string `json:"status"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	Backend string `json:"backend,omitempty"`
	Pending int    `json:"pending"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

// DepsBuilder assembles the session ports from the current config.
type DepsBuilder func(ctx context.Context, cfg *config.Config, store glossary.Store, pair language.Pair) (session.Deps, error)

type Daemon struct {
	// mu serializes Configure with the Start or GenerateQuestion after it
	mu sync.Mutex

	cfgMgr    *config.Manager
	store     glossary.Store
	ctrl      *session.Controller
	paths     bus.Paths
	buildDeps DepsBuilder

	ctx    context.Context
	cancel context.CancelFunc
}

// New opens the glossary store named by the current config. paths selects
// the socket and PID file; the zero value uses the per-user defaults.
func New(mgr *config.Manager, paths bus.Paths) (*Daemon, error) {
	if paths == (bus.Paths{}) {
		def, err := bus.DefaultPaths()
		if err != nil {
			return nil, err
		}
		paths = def
	}

	cfg := mgr.GetConfig()
	store, err := glossary.Open(cfg.Glossary.Backend, cfg.Glossary.Path)
	if err != nil {
		return nil, fmt.Errorf("open glossary: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		cfgMgr:    mgr,
		store:     store,
		ctrl:      session.New(cfg.ToSessionConfig(), session.Deps{Glossary: store}),
		paths:     paths,
		buildDeps: BuildDeps,
		ctx:       ctx,
		cancel:    cancel,
	}
	return d, nil
}

// BuildDeps wires the LLM client, speech backends and notifier from cfg.
func BuildDeps(ctx context.Context, cfg *config.Config, store glossary.Store, pair language.Pair) (session.Deps, error) {
	client, err := llm.NewClient(cfg.ToLLMConfig())
	if err != nil {
		return session.Deps{}, err
	}

	var keywords []string
	if cfg.Speech.GlossaryKeywords && store != nil {
		entries, err := store.Lookup(ctx, pair.Source, pair.Target)
		if err != nil {
			log.Printf("daemon: glossary keywords unavailable: %v", err)
		}
		for _, e := range entries {
			keywords = append(keywords, e.Term)
		}
	}

	return session.Deps{
		Detector:   speech.NewDetector(cfg.ToSpeechBackends(keywords)...),
		Glossary:   store,
		Translator: client,
		Questioner: client,
		Notifier:   notify.New(cfg.Notifications.Enabled, cfg.Notifications.Type),
	}, nil
}

func (d *Daemon) Run() error {
	if err := d.paths.CheckExisting(); err != nil {
		return err
	}

	ln, err := d.paths.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := d.paths.CreatePid(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer d.paths.RemovePid()

	defer d.shutdown()

	if err := d.cfgMgr.StartWatching(d.ctx); err != nil {
		log.Printf("daemon: config hot reload disabled: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("daemon: received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: started, listening on %s", d.paths.Sock)

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("daemon: shutdown requested")
				return nil
			}
			log.Printf("daemon: accept error: %v", err)
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) shutdown() {
	if err := d.ctrl.Stop(); err != nil && !errors.Is(err, session.ErrNotActive) {
		log.Printf("daemon: stopping session: %v", err)
	}
	d.cfgMgr.Stop()
	if err := d.store.Close(); err != nil {
		log.Printf("daemon: closing glossary: %v", err)
	}
}

// Quit asks Run to return
func (d *Daemon) Quit() {
	d.cancel()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	rw := bus.NewResponseWriter(c)
	req, err := bus.ReadRequest(bus.Reader(c))
	if err != nil {
		if errors.Is(err, bus.ErrEmptyRequest) {
			rw.Err("empty request")
			return
		}
		log.Printf("daemon: client read error: %v", err)
		rw.Err("read_error: %v", err)
		return
	}

	switch req.Verb {
	case bus.VerbStart:
		d.start(rw, req)
	case bus.VerbStop:
		d.stop(rw)
	case bus.VerbStatus:
		d.status(rw)
	case bus.VerbLog:
		d.transcript(rw)
	case bus.VerbReset:
		d.reset(rw)
	case bus.VerbQuestion:
		d.question(rw, req)
	case bus.VerbVersion:
		rw.OK("proto=%s version=%s", bus.ProtoVer, Version)
	case bus.VerbQuit:
		rw.OK("quitting")
		d.cancel()
	default:
		log.Printf("daemon: unknown command: %q", req.Verb)
		rw.Err("unknown command %q", req.Verb)
	}
}

func (d *Daemon) start(rw *bus.ResponseWriter, req bus.Request) {
	cfg := d.cfgMgr.GetConfig()
	pair := cfg.Pair()
	switch len(req.Args) {
	case 0:
	case 2:
		pair = language.Pair{Source: req.Args[0], Target: req.Args[1]}
	default:
		rw.Err("usage: start [source target]")
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	deps, err := d.buildDeps(d.ctx, cfg, d.store, pair)
	if err != nil {
		rw.Err("%v", err)
		return
	}
	sc := cfg.ToSessionConfig()
	sc.Pair = pair
	if err := d.ctrl.Configure(sc, deps); err != nil {
		rw.Err("%v", err)
		return
	}
	if err := d.ctrl.Start(d.ctx, pair); err != nil {
		rw.Err("%v", err)
		return
	}
	st := d.ctrl.Status()
	rw.OK("status=%s pair=%s backend=%s", st.Status, st.Pair, st.Backend)
}

func (d *Daemon) stop(rw *bus.ResponseWriter) {
	if err := d.ctrl.Stop(); err != nil {
		rw.Err("%v", err)
		return
	}
	rw.OK("stopped")
}

func (d *Daemon) Report() StatusReport {
	st := d.ctrl.Status()
	r := StatusReport{
		Status:  string(st.Status),
		Source:  st.Pair.Source,
		Target:  st.Pair.Target,
		Backend: st.Backend,
		Pending: st.Pending,
		Entries: st.Entries,
	}
	if st.Err != nil {
		r.Error = st.Err.Error()
	}
	return r
}

func (d *Daemon) status(rw *bus.ResponseWriter) {
	r := d.Report()
	data, err := json.Marshal(r)
	if err != nil {
		rw.Err("%v", err)
		return
	}
	rw.Data(string(data))
	rw.OK("status=%s", r.Status)
}

func (d *Daemon) transcript(rw *bus.ResponseWriter) {
	entries := d.ctrl.Entries()
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			rw.Err("%v", err)
			return
		}
		if err := rw.Data(string(data)); err != nil {
			return
		}
	}
	rw.OK("%d entries", len(entries))
}

func (d *Daemon) reset(rw *bus.ResponseWriter) {
	if err := d.ctrl.ResetLog(); err != nil {
		rw.Err("%v", err)
		return
	}
	rw.OK("cleared")
}

func (d *Daemon) question(rw *bus.ResponseWriter, req bus.Request) {
	cfg := d.cfgMgr.GetConfig()

	d.mu.Lock()
	pair := d.ctrl.Status().Pair
	deps, err := d.buildDeps(d.ctx, cfg, d.store, pair)
	if err != nil {
		d.mu.Unlock()
		rw.Err("%v", err)
		return
	}
	sc := cfg.ToSessionConfig()
	sc.Pair = pair
	if err := d.ctrl.Configure(sc, deps); err != nil {
		d.mu.Unlock()
		rw.Err("%v", err)
		return
	}
	ctx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	events, err := d.ctrl.GenerateQuestion(ctx, req.Arg(0))
	d.mu.Unlock()
	if err != nil {
		rw.Err("%v", err)
		return
	}

	for ev := range events {
		switch ev.Kind {
		case llm.EventDelta:
			if err := rw.Delta(ev.Text); err != nil {
				log.Printf("daemon: question client went away: %v", err)
				return
			}
		case llm.EventFailed:
			rw.Err("%v", ev.Err)
			return
		case llm.EventDone:
			rw.OK("done")
			return
		}
	}
	rw.Err("question cancelled")
}
