package llm

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log"
)

const (
	doneMarker     = "[DONE]"
	maxRecordBytes = 1 << 20
)

var dataPrefix = []byte("data:")

// readStream forwards the text of each event-stream record to emit. Records
// may be split across reads; the scanner reassembles full lines. It returns
// true when a terminal marker was seen, false on a clean close without one.
// emit returning false stops reading.
func readStream(ctx context.Context, body io.Reader, d Dialect, emit func(Event) bool) (bool, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if !bytes.HasPrefix(line, dataPrefix) {
			// blank separators, comments, event/id fields
			continue
		}
		data := bytes.TrimSpace(line[len(dataPrefix):])
		if len(data) == 0 {
			continue
		}
		if string(data) == doneMarker {
			return true, nil
		}

		text, done, err := d.DecodeRecord(data)
		if err != nil {
			log.Printf("llm: %s: skipping malformed record: %v", d.Name(), err)
			continue
		}
		if text != "" && !emit(Delta(text)) {
			return false, ctx.Err()
		}
		if done {
			return true, nil
		}
	}
	return false, scanner.Err()
}
