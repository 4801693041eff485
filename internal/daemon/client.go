package daemon

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/confersense/confersense/internal/bus"
	"github.com/confersense/confersense/internal/transcript"
)

// Caller sends one command to the daemon. *bus.Client satisfies it.
type Caller interface {
	Call(verb string, args ...string) (*bus.Response, error)
}

// FetchStatus asks the daemon for its status report.
func FetchStatus(c Caller) (StatusReport, error) {
	var r StatusReport
	resp, err := c.Call(bus.VerbStatus)
	if err != nil {
		return r, err
	}
	if len(resp.Data) == 0 {
		return r, errors.New("status returned no data")
	}
	if err := json.Unmarshal([]byte(resp.Data[0]), &r); err != nil {
		return r, fmt.Errorf("decode status: %w", err)
	}
	return r, nil
}

// FetchLog returns the daemon's transcript, oldest first.
func FetchLog(c Caller) ([]transcript.Entry, error) {
	resp, err := c.Call(bus.VerbLog)
	if err != nil {
		return nil, err
	}
	return DecodeEntries(resp.Data)
}

// DecodeEntries parses the DATA lines of a log response.
func DecodeEntries(lines []string) ([]transcript.Entry, error) {
	entries := make([]transcript.Entry, 0, len(lines))
	for _, line := range lines {
		var e transcript.Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
