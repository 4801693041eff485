package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/confersense/confersense/internal/recording"
	"github.com/gorilla/websocket"
)

// fakeAudio hands out a frame channel the test controls
type fakeAudio struct {
	mu       sync.Mutex
	frames   chan recording.AudioFrame
	errs     chan error
	startErr error
	stopped  int
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{
		frames: make(chan recording.AudioFrame, 8),
		errs:   make(chan error, 1),
	}
}

func (f *fakeAudio) Start(ctx context.Context) (<-chan recording.AudioFrame, <-chan error, error) {
	if f.startErr != nil {
		return nil, nil, f.startErr
	}
	return f.frames, f.errs, nil
}

func (f *fakeAudio) Stop() error {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
	return nil
}

// mockDeepgramServer creates a mock WebSocket server for testing
func mockDeepgramServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Token ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestDeepgramBuildURL(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		locale  string
		wantURL []string
	}{
		{"english", "nova-3", "en-US", []string{"model=nova-3", "language=en-US", "encoding=linear16", "sample_rate=16000", "interim_results=true"}},
		{"japanese", "nova-2", "ja-JP", []string{"model=nova-2", "language=ja"}},
		{"portuguese keeps region", "nova-3", "pt-BR", []string{"language=pt-BR"}},
		{"no locale", "nova-3", "", []string{"model=nova-3", "channels=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDeepgramRecognizer(DeepgramConfig{APIKey: "k", Model: tt.model}, newFakeAudio())
			got, err := r.buildURL(tt.locale)
			if err != nil {
				t.Fatalf("buildURL() error = %v", err)
			}
			for _, want := range tt.wantURL {
				if !strings.Contains(got, want) {
					t.Errorf("buildURL() = %q, want to contain %q", got, want)
				}
			}
			if tt.locale == "" && strings.Contains(got, "language=") {
				t.Errorf("buildURL() = %q, want no language", got)
			}
		})
	}
}

func TestDeepgramBackendAvailability(t *testing.T) {
	b := DeepgramBackend{}
	if err := b.Available(context.Background()); err == nil {
		t.Error("backend without API key should be unavailable")
	}
	if b.Name() != BackendDeepgram {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestDeepgramRecognizerStreams(t *testing.T) {
	received := make(chan []byte, 4)
	server := mockDeepgramServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(deepgramWSResponse{Type: "Metadata", Metadata: &deepgramMetadata{RequestID: "test-123"}})

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			t.Errorf("expected binary message, got %d", msgType)
		}
		received <- data

		_ = conn.WriteJSON(deepgramWSResponse{
			Type:    "Results",
			Channel: &deepgramChannel{Alternatives: []deepgramAlternative{{Transcript: "hello"}}},
		})
		_ = conn.WriteJSON(deepgramWSResponse{
			Type:    "Results",
			IsFinal: true,
			Channel: &deepgramChannel{Alternatives: []deepgramAlternative{{Transcript: "hello world"}}},
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	audio := newFakeAudio()
	r := NewDeepgramRecognizer(DeepgramConfig{APIKey: "test-key", Endpoint: wsURL(server)}, audio)
	events := make(chan Event, 16)

	if err := r.Start(context.Background(), "en-US", events); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := r.Start(context.Background(), "en-US", events); err == nil {
		t.Error("Start() should fail while running")
	}

	audio.frames <- recording.AudioFrame{Data: []byte{0x01, 0x02, 0x03, 0x04}}
	select {
	case data := <-received:
		if string(data) != string([]byte{0x01, 0x02, 0x03, 0x04}) {
			t.Errorf("received audio = %v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for audio")
	}

	got := drain(t, events, EventResult)
	if tr := got[len(got)-1].Results[0].Alternatives[0].Transcript; tr != "hello" {
		t.Errorf("interim transcript = %q", tr)
	}
	final := drain(t, events, EventResult)
	last := final[len(final)-1]
	if !last.Results[0].IsFinal || last.Results[0].Alternatives[0].Transcript != "hello world" {
		t.Errorf("final event = %+v", last)
	}

	r.Stop()
	drain(t, events, EventEnd)

	audio.mu.Lock()
	stopped := audio.stopped
	audio.mu.Unlock()
	if stopped == 0 {
		t.Error("audio source was not stopped")
	}
}

func TestDeepgramRecognizerErrorMessage(t *testing.T) {
	server := mockDeepgramServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(deepgramWSResponse{
			Type:  "Error",
			Error: &deepgramError{Type: "AuthError", Message: "Invalid API key"},
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	r := NewDeepgramRecognizer(DeepgramConfig{APIKey: "test-key", Endpoint: wsURL(server)}, newFakeAudio())
	events := make(chan Event, 16)
	if err := r.Start(context.Background(), "en-US", events); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got := drain(t, events, EventError)
	last := got[len(got)-1]
	if last.Error != ErrServiceNotAllowed || !strings.Contains(last.Message, "Invalid API key") {
		t.Errorf("error event = %+v", last)
	}
	r.Stop()
	drain(t, events, EventEnd)
}

func TestDeepgramRecognizerUnauthorizedDial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	r := NewDeepgramRecognizer(DeepgramConfig{APIKey: "bad-key", Endpoint: wsURL(server)}, newFakeAudio())
	err := r.Start(context.Background(), "en-US", make(chan Event, 4))
	if CodeOf(err) != ErrServiceNotAllowed {
		t.Errorf("Start() error = %v, want service-not-allowed", err)
	}
}

func TestDeepgramRecognizerAudioFailure(t *testing.T) {
	server := mockDeepgramServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	t.Run("start failure", func(t *testing.T) {
		audio := newFakeAudio()
		audio.startErr = errors.New("pw-record missing")
		r := NewDeepgramRecognizer(DeepgramConfig{APIKey: "k", Endpoint: wsURL(server)}, audio)
		err := r.Start(context.Background(), "en-US", make(chan Event, 4))
		if CodeOf(err) != ErrAudioCapture {
			t.Errorf("Start() error = %v, want audio-capture", err)
		}
	})

	t.Run("runtime failure ends run", func(t *testing.T) {
		audio := newFakeAudio()
		r := NewDeepgramRecognizer(DeepgramConfig{APIKey: "k", Endpoint: wsURL(server)}, audio)
		events := make(chan Event, 8)
		if err := r.Start(context.Background(), "en-US", events); err != nil {
			t.Fatal(err)
		}
		audio.errs <- errors.New("device unplugged")
		got := drain(t, events, EventEnd)
		var sawCapture bool
		for _, ev := range got {
			if ev.Type == EventError && ev.Error == ErrAudioCapture {
				sawCapture = true
			}
		}
		if !sawCapture {
			t.Errorf("events = %+v, want audio-capture error", got)
		}
	})
}

func TestDeepgramStopCancelsDial(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()
	defer close(release)

	r := NewDeepgramRecognizer(DeepgramConfig{APIKey: "k", Endpoint: wsURL(server)}, newFakeAudio())
	started := make(chan error, 1)
	go func() {
		started <- r.Start(context.Background(), "ja-JP", make(chan Event, 4))
	}()

	time.Sleep(200 * time.Millisecond)
	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() blocked behind the dial")
	}

	select {
	case err := <-started:
		if err == nil {
			t.Error("Start() should fail once stopped mid-dial")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}

	// the recognizer is reusable afterwards
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := r.Start(ctx, "ja-JP", make(chan Event, 4)); err == nil {
		t.Error("second Start() against a stalled server should not succeed")
	} else if strings.Contains(err.Error(), "already running") {
		t.Errorf("second Start() = %v, want a fresh attempt", err)
	}
}
