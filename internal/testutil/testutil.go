package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/confersense/confersense/internal/recording"
)

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	return configPath
}

// CreateScriptFile writes a speech recognition script, one directive per line
func CreateScriptFile(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "talk.script")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("Failed to create script file: %v", err)
	}
	return path
}

// MockAudioFrame creates a test audio frame
func MockAudioFrame(data []byte) recording.AudioFrame {
	if data == nil {
		data = make([]byte, 1024)
		for i := range data {
			data[i] = byte(i % 256)
		}
	}

	return recording.AudioFrame{
		Data:      data,
		Timestamp: time.Now(),
	}
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met within %v", timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// MockAudioSource plays Frames once and stays open until stopped.
type MockAudioSource struct {
	Frames     []recording.AudioFrame
	StartError error

	mu      sync.Mutex
	stopCh  chan struct{}
	started atomic.Int32
	stopped atomic.Int32
}

func NewMockAudioSource() *MockAudioSource {
	return &MockAudioSource{
		Frames: []recording.AudioFrame{MockAudioFrame(nil)},
	}
}

func (m *MockAudioSource) Start(ctx context.Context) (<-chan recording.AudioFrame, <-chan error, error) {
	if m.StartError != nil {
		return nil, nil, m.StartError
	}
	m.started.Add(1)

	stopCh := make(chan struct{})
	m.mu.Lock()
	m.stopCh = stopCh
	m.mu.Unlock()

	frameCh := make(chan recording.AudioFrame, len(m.Frames)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(frameCh)
		defer close(errCh)

		for _, frame := range m.Frames {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case frameCh <- frame:
			}
		}

		select {
		case <-ctx.Done():
		case <-stopCh:
		}
	}()

	return frameCh, errCh, nil
}

func (m *MockAudioSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
		m.stopped.Add(1)
	}
	return nil
}

func (m *MockAudioSource) Starts() int { return int(m.started.Load()) }
func (m *MockAudioSource) Stops() int  { return int(m.stopped.Load()) }

// ChatRequest is the part of a chat-completions body the fake server reads.
type ChatRequest struct {
	Model       string  `json:"model"`
	Stream      bool    `json:"stream"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// System returns the system prompt
func (r ChatRequest) System() string {
	for _, m := range r.Messages {
		if m.Role == "system" {
			return m.Content
		}
	}
	return ""
}

// User returns the last user message
func (r ChatRequest) User() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// ChatServer is an OpenAI-compatible chat-completions endpoint streaming
// replies as server-sent events.
type ChatServer struct {
	*httptest.Server

	reply func(ChatRequest) string

	mu       sync.Mutex
	requests []ChatRequest
}

// NewChatServer answers each request with reply(req), streamed word by
// word. A reply starting with "!" fails the request with HTTP 500.
func NewChatServer(t *testing.T, reply func(ChatRequest) string) *ChatServer {
	t.Helper()

	s := &ChatServer{reply: reply}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	text := s.reply(req)
	if strings.HasPrefix(text, "!") {
		http.Error(w, strings.TrimPrefix(text, "!"), http.StatusInternalServerError)
		return
	}

	if !req.Stream {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, text)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)
	for _, chunk := range SplitWords(text) {
		fmt.Fprintf(w, "data: %s\n\n", OpenAIChunk(chunk))
		if flusher != nil {
			flusher.Flush()
		}
	}
	io.WriteString(w, "data: [DONE]\n\n")
}

// Requests returns the bodies received so far
func (s *ChatServer) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// OpenAIChunk is one streamed chat-completions record carrying text
func OpenAIChunk(text string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":%q}}]}`, text)
}

// SplitWords cuts text after each space, keeping the spaces.
func SplitWords(text string) []string {
	var chunks []string
	for text != "" {
		i := strings.IndexByte(text, ' ')
		if i < 0 {
			chunks = append(chunks, text)
			break
		}
		chunks = append(chunks, text[:i+1])
		text = text[i+1:]
	}
	return chunks
}
