package recording

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// AudioFrame is one chunk of raw PCM read from the capture process
type AudioFrame struct {
	Data      []byte
	Timestamp time.Time
}

type Config struct {
	SampleRate        int
	Channels          int
	Format            string
	BufferSize        int
	Device            string
	ChannelBufferSize int
}

// DefaultConfig captures 16kHz mono 16-bit PCM, the layout live
// recognizers expect as linear16.
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Channels:          1,
		Format:            "s16",
		BufferSize:        8192,
		Device:            "",
		ChannelBufferSize: 30,
	}
}

// Microphone streams audio from pw-record for the length of one
// recognition run.
type Microphone struct {
	config    Config
	capturing atomic.Bool

	// command builds the capture process; tests swap it out
	command func(ctx context.Context, args []string) *exec.Cmd

	mu     sync.Mutex // guards cmd and cancel
	cmd    *exec.Cmd
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func NewMicrophone(config Config) *Microphone {
	return &Microphone{
		config: config,
		command: func(ctx context.Context, args []string) *exec.Cmd {
			return exec.CommandContext(ctx, "pw-record", args...)
		},
	}
}

func NewDefaultMicrophone() *Microphone { return NewMicrophone(DefaultConfig()) }

func (m *Microphone) IsCapturing() bool {
	return m.capturing.Load()
}

// Start launches the capture process. Frames arrive on the first channel
// until ctx is canceled, Stop is called or the process exits; both channels
// are closed when capture ends.
func (m *Microphone) Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error) {
	if !m.capturing.CompareAndSwap(false, true) {
		return nil, nil, fmt.Errorf("already capturing")
	}

	if err := m.validateConfig(); err != nil {
		m.capturing.Store(false)
		return nil, nil, err
	}

	captureCtx, cancel := context.WithCancel(ctx)

	frameCh := make(chan AudioFrame, m.config.ChannelBufferSize)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.captureLoop(captureCtx, frameCh, errCh)

	return frameCh, errCh, nil
}

func (m *Microphone) Stop() error {
	m.requestCancel()
	return nil
}

// Wait blocks until the capture goroutine has exited
func (m *Microphone) Wait() {
	m.wg.Wait()
}

func (m *Microphone) captureLoop(ctx context.Context, frameCh chan<- AudioFrame, errCh chan<- error) {
	defer func() {
		close(frameCh)
		close(errCh)

		m.mu.Lock()
		if m.cmd != nil {
			_ = m.cmd.Wait()
			m.cmd = nil
		}
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.mu.Unlock()

		m.capturing.Store(false)
		m.wg.Done()
	}()

	cmd := m.command(ctx, m.buildPwRecordArgs())

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.emitErr(errCh, fmt.Errorf("create stdout pipe: %w", err))
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		m.emitErr(errCh, fmt.Errorf("create stderr pipe: %w", err))
		return
	}

	if err := cmd.Start(); err != nil {
		m.emitErr(errCh, fmt.Errorf("start %s: %w", cmd.Path, err))
		return
	}
	m.mu.Lock()
	m.cmd = cmd
	m.mu.Unlock()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("recording: stderr: %s", scanner.Text())
		}
	}()

	buffer := make([]byte, m.config.BufferSize)
	var dropped int
	lastDropLog := time.Now()

	for {
		n, readErr := stdout.Read(buffer)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buffer[:n])

			select {
			case frameCh <- AudioFrame{Data: data, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			default:
				dropped++
				if time.Since(lastDropLog) > time.Second {
					log.Printf("recording: dropped %d frames due to backpressure", dropped)
					lastDropLog = time.Now()
					dropped = 0
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || ctx.Err() != nil {
				return
			}
			m.emitErr(errCh, fmt.Errorf("read audio: %w", readErr))
			return
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (m *Microphone) requestCancel() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *Microphone) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
	log.Printf("recording: %v", err)
}

func (m *Microphone) buildPwRecordArgs() []string {
	args := []string{
		"--format", m.config.Format,
		"--rate", strconv.Itoa(m.config.SampleRate),
		"--channels", strconv.Itoa(m.config.Channels),
		"-", // stdout
	}
	if m.config.Device != "" {
		args = append(args, "--target", m.config.Device)
	}
	return args
}

// CheckPipeWireAvailable reports whether pw-record exists and PipeWire answers.
func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := exec.CommandContext(checkCtx, "pw-cli", "info").Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}

func (m *Microphone) validateConfig() error {
	if m.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", m.config.SampleRate)
	}
	if m.config.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", m.config.Channels)
	}
	if m.config.BufferSize <= 0 {
		return fmt.Errorf("invalid BufferSize: %d", m.config.BufferSize)
	}
	if m.config.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid ChannelBufferSize: %d", m.config.ChannelBufferSize)
	}
	if m.config.Format == "" {
		return fmt.Errorf("invalid Format: empty")
	}
	if m.config.Format == "s16" || m.config.Format == "s16le" {
		frameBytes := 2 * m.config.Channels
		if m.config.BufferSize%frameBytes != 0 {
			log.Printf("recording: BufferSize %d not aligned to frame size %d; audio frames may split",
				m.config.BufferSize, frameBytes)
		}
	}
	return nil
}
