// Package clipboard hands transcripts and suggested questions to the
// Wayland clipboard.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds each wl-copy invocation
const DefaultTimeout = 3 * time.Second

var ErrEmptyText = errors.New("nothing to copy")

// Copier places text on the system clipboard.
type Copier interface {
	Copy(ctx context.Context, text string) error
}

// WlCopy copies through the wl-clipboard tools.
type WlCopy struct {
	Timeout time.Duration
}

// New returns a wl-copy based Copier with the default timeout
func New() *WlCopy {
	return &WlCopy{Timeout: DefaultTimeout}
}

// Available reports whether wl-copy is installed.
func (w *WlCopy) Available() error {
	if _, err := exec.LookPath("wl-copy"); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install wl-clipboard)", err)
	}
	return nil
}

func (w *WlCopy) Copy(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if err := w.Available(); err != nil {
		return err
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "wl-copy")
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wl-copy failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
