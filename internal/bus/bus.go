package bus

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const SockName = "control.sock"
const PidName = "confersense.pid"
const ProtoVer = "1.0"

// Paths locates the daemon's socket and PID file.
type Paths struct {
	Sock string
	Pid  string
}

func cacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "confersense"), nil
}

// ~/.cache/confersense/control.sock
func getSockPath() (string, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SockName), nil
}

// ~/.cache/confersense/confersense.pid
func getPidPath() (string, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PidName), nil
}

func DefaultPaths() (Paths, error) {
	sock, err := getSockPath()
	if err != nil {
		return Paths{}, err
	}
	pid, err := getPidPath()
	if err != nil {
		return Paths{}, err
	}
	return Paths{Sock: sock, Pid: pid}, nil
}

// PathsIn puts both files in dir, for tests and alternate instances
func PathsIn(dir string) Paths {
	return Paths{Sock: filepath.Join(dir, SockName), Pid: filepath.Join(dir, PidName)}
}

type socketManager struct {
	path string
}

func (s *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(s.path) // stale socket from last run
	return net.Listen("unix", s.path)
}

func (s *socketManager) dial() (net.Conn, error) {
	return net.Dial("unix", s.path)
}

type pidManager struct {
	path string
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

// checkExisting fails if a live daemon owns the PID file. Stale or
// unreadable PID files are removed.
func (p *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		_ = os.Remove(p.path)
		return nil
	}

	if !p.isProcessAlive(pid) {
		_ = os.Remove(p.path)
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (p *pidManager) isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func (p Paths) Listen() (net.Listener, error) {
	return (&socketManager{path: p.Sock}).listen()
}

func (p Paths) Dial() (net.Conn, error) {
	return (&socketManager{path: p.Sock}).dial()
}

func (p Paths) CheckExisting() error {
	return (&pidManager{path: p.Pid}).checkExisting()
}

func (p Paths) CreatePid() error {
	return (&pidManager{path: p.Pid}).create()
}

func (p Paths) RemovePid() error {
	return (&pidManager{path: p.Pid}).remove()
}

// Reader wraps a connection for reading protocol lines
func Reader(c net.Conn) *bufio.Reader {
	return bufio.NewReaderSize(c, 64*1024)
}
