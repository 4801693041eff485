package bus

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPidManagerBasics(t *testing.T) {
	pm := &pidManager{path: filepath.Join(t.TempDir(), "nested", PidName)}

	t.Run("create and remove PID file", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		pidData, err := os.ReadFile(pm.path)
		if err != nil {
			t.Fatalf("failed to read PID file: %v", err)
		}
		if want := strconv.Itoa(os.Getpid()); string(pidData) != want {
			t.Errorf("PID file contains %q, expected %q", pidData, want)
		}

		if err := pm.remove(); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("PID file should not exist after removal")
		}
	})

	t.Run("checkExisting with no PID file", func(t *testing.T) {
		if err := pm.checkExisting(); err != nil {
			t.Errorf("checkExisting should not error when no PID file exists: %v", err)
		}
	})

	t.Run("checkExisting with current process", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		defer pm.remove()

		if err := pm.checkExisting(); err == nil {
			t.Error("checkExisting should fail when process is running")
		}
	})

	leftovers := []struct {
		name    string
		content string
	}{
		{"stale PID", "99999"},
		{"invalid PID", "invalid"},
		{"PID with newline", "99999\n"},
	}
	for _, tt := range leftovers {
		t.Run("checkExisting with "+tt.name, func(t *testing.T) {
			if err := os.WriteFile(pm.path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := pm.checkExisting(); err != nil {
				t.Errorf("checkExisting should succeed: %v", err)
			}
			if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
				t.Error("leftover PID file should be removed")
			}
		})
	}
}

func TestIsProcessAlive(t *testing.T) {
	pm := &pidManager{}

	if !pm.isProcessAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
	if pm.isProcessAlive(99999) {
		t.Error("non-existent process should not be alive")
	}
}

func TestSocketManagerBasics(t *testing.T) {
	sm := &socketManager{path: filepath.Join(t.TempDir(), SockName)}

	t.Run("listen and dial", func(t *testing.T) {
		listener, err := sm.listen()
		if err != nil {
			t.Fatalf("listen failed: %v", err)
		}
		defer listener.Close()

		connCh := make(chan error, 1)
		go func() {
			conn, err := listener.Accept()
			if err != nil {
				connCh <- err
				return
			}
			defer conn.Close()

			buf := make([]byte, 1024)
			n, err := conn.Read(buf)
			if err != nil {
				connCh <- err
				return
			}
			_, err = conn.Write(buf[:n])
			connCh <- err
		}()

		conn, err := sm.dial()
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		defer conn.Close()

		if _, err := conn.Write([]byte("hello")); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		buf := make([]byte, 1024)
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(buf[:n]) != "hello" {
			t.Errorf("got %q, expected %q", buf[:n], "hello")
		}
		if err := <-connCh; err != nil {
			t.Errorf("background connection error: %v", err)
		}
	})

	t.Run("listen replaces stale socket file", func(t *testing.T) {
		if err := os.WriteFile(sm.path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		listener, err := sm.listen()
		if err != nil {
			t.Fatalf("listen over stale file failed: %v", err)
		}
		listener.Close()
	})

	t.Run("dial without listener", func(t *testing.T) {
		_ = os.Remove(sm.path)
		if _, err := sm.dial(); err == nil {
			t.Error("dial should fail when no listener exists")
		}
	})
}

func TestPathFunctions(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	tests := []struct {
		name string
		fn   func() (string, error)
		base string
	}{
		{"getSockPath", getSockPath, SockName},
		{"getPidPath", getPidPath, PidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tt.fn()
			if err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			if want := filepath.Join(cache, "confersense", tt.base); path != want {
				t.Errorf("%s = %s, want %s", tt.name, path, want)
			}
		})
	}

	p := PathsIn("/run/x")
	if p.Sock != "/run/x/"+SockName || p.Pid != "/run/x/"+PidName {
		t.Errorf("PathsIn() = %+v", p)
	}
}

func TestDefaultPathsPidLifecycle(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	p, err := DefaultPaths()
	if err != nil {
		t.Fatal(err)
	}

	if err := p.CheckExisting(); err != nil {
		t.Errorf("CheckExisting should succeed when no daemon running: %v", err)
	}

	if err := p.CreatePid(); err != nil {
		t.Fatalf("CreatePid failed: %v", err)
	}
	if _, err := os.Stat(p.Pid); err != nil {
		t.Errorf("PID file should exist after CreatePid: %v", err)
	}
	if err := p.CheckExisting(); err == nil {
		t.Error("CheckExisting should fail while our PID file exists")
	}

	if err := p.RemovePid(); err != nil {
		t.Fatalf("RemovePid failed: %v", err)
	}
	if _, err := os.Stat(p.Pid); !os.IsNotExist(err) {
		t.Error("PID file should not exist after RemovePid")
	}
}

func TestConstants(t *testing.T) {
	if SockName == "" || PidName == "" || ProtoVer == "" {
		t.Error("bus constants should not be empty")
	}
}
