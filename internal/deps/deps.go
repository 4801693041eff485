package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Purpose   string
	Installed bool
	Path      string
	Version   string
}

// Tool is an external program confersense shells out to.
type Tool struct {
	Name        string
	Purpose     string
	VersionArgs []string
}

var (
	PwRecord   = Tool{Name: "pw-record", Purpose: "microphone capture for the deepgram backend", VersionArgs: []string{"--version"}}
	NotifySend = Tool{Name: "notify-send", Purpose: "desktop notifications", VersionArgs: []string{"--version"}}
	WlCopy     = Tool{Name: "wl-copy", Purpose: "copying transcripts and questions with --copy", VersionArgs: []string{"--version"}}
)

// Tools lists everything Doctor checks
func Tools() []Tool {
	return []Tool{PwRecord, NotifySend, WlCopy}
}

var lookPath = exec.LookPath

// Check looks the tool up in PATH and reads the first line of its version output.
func Check(t Tool) Status {
	status := Status{Name: t.Name, Purpose: t.Purpose}

	path, err := lookPath(t.Name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	if len(t.VersionArgs) == 0 {
		return status
	}
	output, err := exec.Command(path, t.VersionArgs...).CombinedOutput()
	if err == nil {
		status.Version = firstLine(string(output))
	}
	return status
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// CheckPwRecord checks if pw-record is installed and returns its status
func CheckPwRecord() Status {
	return Check(PwRecord)
}

// CheckNotifySend checks if notify-send is installed and returns its status
func CheckNotifySend() Status {
	return Check(NotifySend)
}

// Doctor checks every tool
func Doctor() []Status {
	var out []Status
	for _, t := range Tools() {
		out = append(out, Check(t))
	}
	return out
}
