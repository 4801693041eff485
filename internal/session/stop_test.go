package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/speech"
	"github.com/confersense/confersense/internal/testutil"
)

// stalledHandshake accepts connections but never finishes the websocket upgrade
func stalledHandshake(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

func TestStopWhileRecognizerDials(t *testing.T) {
	srv := stalledHandshake(t)
	rec := speech.NewDeepgramRecognizer(speech.DeepgramConfig{
		APIKey:   "k",
		Endpoint: "ws" + strings.TrimPrefix(srv.URL, "http"),
	}, testutil.NewMockAudioSource())

	ctrl := New(Config{}, Deps{Detector: fakeDetector{rec: rec}, Translator: &fakeTranslator{}})

	started := make(chan error, 1)
	go func() {
		started <- ctrl.Start(context.Background(), language.Pair{Source: "ja", Target: "en"})
	}()

	waitFor(t, "connecting", func() bool { return ctrl.Status().Status == Connecting })
	time.Sleep(200 * time.Millisecond)

	begin := time.Now()
	if err := ctrl.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Errorf("Stop() took %v while the recognizer was dialing", elapsed)
	}
	if st := ctrl.Status(); st.Status != Idle {
		t.Errorf("status after Stop = %s", st.Status)
	}

	select {
	case err := <-started:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("Start() error = %v, want ErrStopped", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}
}
