package notify

import (
	"fmt"
	"log"
	"os/exec"
	"sync"
)

const appName = "Confersense"

// Notifier receives session events. The session calls it with its lock
// held, so implementations must return promptly.
type Notifier interface {
	StatusChanged(status, reason string)
	Error(msg string)
}

// New picks a notifier for the configured type.
func New(enabled bool, kind string) Notifier {
	if !enabled {
		return Nop{}
	}
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

func statusMessage(status, reason string) string {
	msg := fmt.Sprintf("Session %s", status)
	if reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	return msg
}

// Desktop sends notifications through notify-send in the background.
type Desktop struct {
	// command builds the notify-send invocation; nil uses exec.Command
	command func(name string, args ...string) *exec.Cmd
	// pending, when set, tracks sends still running
	pending *sync.WaitGroup
}

func (d Desktop) send(what string, args ...string) {
	build := d.command
	if build == nil {
		build = exec.Command
	}
	cmd := build("notify-send", args...)
	if d.pending != nil {
		d.pending.Add(1)
	}
	go func() {
		if d.pending != nil {
			defer d.pending.Done()
		}
		if err := cmd.Run(); err != nil {
			log.Printf("notify: failed to send %s: %v", what, err)
		}
	}()
}

func (d Desktop) StatusChanged(status, reason string) {
	d.send("notification", "-a", appName, appName, statusMessage(status, reason))
}

func (d Desktop) Error(msg string) {
	d.send("error notification", "-a", appName, "-u", "critical", appName, msg)
}

// Log writes notifications to the daemon log.
type Log struct{}

func (Log) StatusChanged(status, reason string) {
	log.Printf("%s: %s", appName, statusMessage(status, reason))
}

func (Log) Error(msg string) {
	log.Printf("%s: error: %s", appName, msg)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) StatusChanged(status, reason string) {}
func (Nop) Error(msg string)                    {}
