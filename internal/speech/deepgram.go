package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/confersense/confersense/internal/recording"
	"github.com/gorilla/websocket"
)

const (
	BackendDeepgram         = "deepgram"
	DefaultDeepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	DefaultDeepgramModel    = "nova-3"
)

var defaultRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// AudioSource produces raw linear16 audio for one run.
type AudioSource interface {
	Start(ctx context.Context) (<-chan recording.AudioFrame, <-chan error, error)
	Stop() error
}

type DeepgramConfig struct {
	APIKey    string
	Model     string
	Endpoint  string
	Keywords  []string
	Recording recording.Config
}

// DeepgramBackend streams microphone audio to Deepgram's live API.
type DeepgramBackend struct {
	Config DeepgramConfig
}

func (b DeepgramBackend) Name() string {
	return BackendDeepgram
}

func (b DeepgramBackend) Available(ctx context.Context) error {
	if b.Config.APIKey == "" {
		return errors.New("deepgram API key not configured")
	}
	return recording.CheckPipeWireAvailable(ctx)
}

func (b DeepgramBackend) NewRecognizer() Recognizer {
	return NewDeepgramRecognizer(b.Config, recording.NewMicrophone(b.Config.Recording))
}

// Deepgram WebSocket message types (incoming)
type deepgramWSResponse struct {
	Type        string            `json:"type"`
	Channel     *deepgramChannel  `json:"channel,omitempty"`
	Metadata    *deepgramMetadata `json:"metadata,omitempty"`
	Error       *deepgramError    `json:"error,omitempty"`
	IsFinal     bool              `json:"is_final,omitempty"`
	SpeechFinal bool              `json:"speech_final,omitempty"`
}

type deepgramChannel struct {
	Alternatives []deepgramAlternative `json:"alternatives,omitempty"`
}

type deepgramAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type deepgramMetadata struct {
	RequestID string `json:"request_id"`
	ModelInfo struct {
		Name string `json:"name"`
	} `json:"model_info"`
}

type deepgramError struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

// deepgramCloseStream asks the server to flush and close
type deepgramCloseStream struct {
	Type string `json:"type"`
}

// DeepgramRecognizer implements Recognizer over a Deepgram live socket.
type DeepgramRecognizer struct {
	cfg    DeepgramConfig
	audio  AudioSource
	dialer *websocket.Dialer

	mu      sync.Mutex // guards conn, running and cancel
	writeMu sync.Mutex // one writer at a time on conn
	conn    *websocket.Conn
	running bool
	cancel  context.CancelFunc

	maxRetries  int
	retryDelays []time.Duration
}

func NewDeepgramRecognizer(cfg DeepgramConfig, audio AudioSource) *DeepgramRecognizer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultDeepgramEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultDeepgramModel
	}
	return &DeepgramRecognizer{
		cfg:         cfg,
		audio:       audio,
		dialer:      websocket.DefaultDialer,
		maxRetries:  3,
		retryDelays: defaultRetryDelays,
	}
}

func (r *DeepgramRecognizer) Start(ctx context.Context, locale string, events chan<- Event) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("deepgram recognizer already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.mu.Unlock()

	// the dial runs unlocked so Stop can cancel it
	conn, err := r.dial(runCtx, locale)
	if err != nil {
		r.abortStart(cancel)
		return err
	}

	frames, audioErrs, err := r.audio.Start(runCtx)
	if err != nil {
		conn.Close()
		r.abortStart(cancel)
		return &CodeError{Code: ErrAudioCapture, Err: err}
	}

	r.mu.Lock()
	if runCtx.Err() != nil {
		r.mu.Unlock()
		conn.Close()
		_ = r.audio.Stop()
		r.abortStart(cancel)
		return &CodeError{Code: ErrAborted, Err: runCtx.Err()}
	}
	r.conn = conn
	r.mu.Unlock()
	log.Printf("deepgram: connected, model=%s, language=%s", r.cfg.Model, deepgramLanguage(locale))

	var wg sync.WaitGroup
	wg.Add(2)
	go r.writeLoop(runCtx, cancel, frames, audioErrs, events, &wg)
	go r.readLoop(runCtx, cancel, locale, events, &wg)

	go func() {
		send(runCtx, events, Event{Type: EventStart})
		wg.Wait()
		_ = r.audio.Stop()

		r.mu.Lock()
		r.running = false
		r.conn = nil
		r.cancel = nil
		r.mu.Unlock()

		log.Printf("deepgram: run ended")
		send(ctx, events, Event{Type: EventEnd})
	}()
	return nil
}

// abortStart undoes the bookkeeping of a Start that did not get going
func (r *DeepgramRecognizer) abortStart(cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	r.running = false
	r.cancel = nil
	r.mu.Unlock()
}

func (r *DeepgramRecognizer) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (r *DeepgramRecognizer) dial(ctx context.Context, locale string) (*websocket.Conn, error) {
	wsURL, err := r.buildURL(locale)
	if err != nil {
		return nil, &CodeError{Code: ErrNetwork, Err: fmt.Errorf("build websocket url: %w", err)}
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.cfg.APIKey)

	conn, resp, err := r.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("deepgram: dial failed with status %d", resp.StatusCode)
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, &CodeError{Code: ErrServiceNotAllowed, Err: fmt.Errorf("websocket dial: %w", err)}
			}
		}
		return nil, &CodeError{Code: ErrNetwork, Err: fmt.Errorf("websocket dial: %w", err)}
	}
	return conn, nil
}

// buildURL constructs the WebSocket URL with query parameters
func (r *DeepgramRecognizer) buildURL(locale string) (string, error) {
	u, err := url.Parse(r.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	q := u.Query()
	q.Set("model", r.cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprint(sampleRate(r.cfg.Recording)))
	q.Set("channels", fmt.Sprint(channels(r.cfg.Recording)))
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")

	if lang := deepgramLanguage(locale); lang != "" {
		q.Set("language", lang)
	}
	if len(r.cfg.Keywords) > 0 {
		q.Set("keywords", strings.Join(r.cfg.Keywords, ","))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sampleRate(c recording.Config) int {
	if c.SampleRate > 0 {
		return c.SampleRate
	}
	return 16000
}

func channels(c recording.Config) int {
	if c.Channels > 0 {
		return c.Channels
	}
	return 1
}

// deepgramLanguage maps a BCP 47 locale to the code Deepgram expects
func deepgramLanguage(locale string) string {
	switch strings.ToLower(strings.ReplaceAll(locale, "_", "-")) {
	case "":
		return ""
	case "en", "en-us":
		return "en-US"
	case "pt-br":
		return "pt-BR"
	case "zh-cn":
		return "zh-CN"
	case "ko-kr":
		return "ko-KR"
	}
	base, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(base)
}

func (r *DeepgramRecognizer) currentConn() *websocket.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn
}

func (r *DeepgramRecognizer) write(messageType int, data []byte) error {
	conn := r.currentConn()
	if conn == nil {
		return errors.New("no connection")
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return conn.WriteMessage(messageType, data)
}

// writeLoop forwards audio until the run ends, then closes the socket.
func (r *DeepgramRecognizer) writeLoop(ctx context.Context, cancel context.CancelFunc, frames <-chan recording.AudioFrame, audioErrs <-chan error, events chan<- Event, wg *sync.WaitGroup) {
	defer wg.Done()
	defer r.closeConn()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-audioErrs:
			if !ok {
				audioErrs = nil
				continue
			}
			log.Printf("deepgram: audio capture failed: %v", err)
			send(ctx, events, Event{Type: EventError, Error: ErrAudioCapture, Message: err.Error()})
			cancel()
			return

		case frame, ok := <-frames:
			if !ok {
				// capture process exited; end the run so the owner can restart it
				log.Printf("deepgram: audio source closed")
				cancel()
				return
			}
			if err := r.write(websocket.BinaryMessage, frame.Data); err != nil {
				// the reader notices the broken socket and reconnects
				log.Printf("deepgram: write error: %v", err)
			}
		}
	}
}

func (r *DeepgramRecognizer) closeConn() {
	conn := r.currentConn()
	if conn == nil {
		return
	}
	closeMsg, _ := json.Marshal(deepgramCloseStream{Type: "CloseStream"})
	_ = r.write(websocket.TextMessage, closeMsg)
	r.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.writeMu.Unlock()
	conn.Close()
}

// readLoop converts server messages into recognition events.
func (r *DeepgramRecognizer) readLoop(ctx context.Context, cancel context.CancelFunc, locale string, events chan<- Event, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		conn := r.currentConn()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("deepgram: read error: %v, attempting reconnection", err)
			if !r.reconnect(ctx, locale) {
				send(ctx, events, Event{Type: EventError, Error: ErrNetwork, Message: err.Error()})
				cancel()
				return
			}
			continue
		}

		var resp deepgramWSResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			log.Printf("deepgram: parse error: %v", err)
			continue
		}

		switch resp.Type {
		case "Metadata":
			if resp.Metadata != nil {
				log.Printf("deepgram: session started, request_id=%s, model=%s",
					resp.Metadata.RequestID, resp.Metadata.ModelInfo.Name)
			}

		case "Results":
			if resp.Channel == nil || len(resp.Channel.Alternatives) == 0 {
				continue
			}
			transcript := resp.Channel.Alternatives[0].Transcript
			if transcript == "" {
				continue
			}
			if !send(ctx, events, ResultEvent(transcript, resp.IsFinal)) {
				return
			}

		case "Error":
			if resp.Error == nil {
				continue
			}
			msg := resp.Error.Message
			if resp.Error.Description != "" {
				msg = fmt.Sprintf("%s: %s", msg, resp.Error.Description)
			}
			log.Printf("deepgram: error: %s", msg)
			code := ErrNetwork
			if strings.Contains(strings.ToLower(resp.Error.Type), "auth") {
				code = ErrServiceNotAllowed
			}
			send(ctx, events, Event{Type: EventError, Error: code, Message: msg})

		case "UtteranceEnd", "SpeechStarted":
			// informational

		default:
			log.Printf("deepgram: unknown message type: %s", resp.Type)
		}
	}
}

// reconnect re-dials with backoff and reports whether it succeeded
func (r *DeepgramRecognizer) reconnect(ctx context.Context, locale string) bool {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.retryDelays[min(attempt-1, len(r.retryDelays)-1)]
			log.Printf("deepgram: reconnect attempt %d/%d after %v", attempt+1, r.maxRetries, delay)
			if !sleep(ctx, delay) {
				return false
			}
		} else if ctx.Err() != nil {
			return false
		}

		conn, err := r.dial(ctx, locale)
		if err != nil {
			log.Printf("deepgram: reconnect failed: %v", err)
			continue
		}

		r.mu.Lock()
		old := r.conn
		r.conn = conn
		r.mu.Unlock()
		if old != nil {
			old.Close()
		}
		log.Printf("deepgram: reconnected")
		return true
	}
	return false
}
