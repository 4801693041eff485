package bus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Request verbs
const (
	VerbStart    = "start"
	VerbStop     = "stop"
	VerbStatus   = "status"
	VerbLog      = "log"
	VerbReset    = "reset"
	VerbQuestion = "question"
	VerbVersion  = "version"
	VerbQuit     = "quit"
)

// Response line prefixes
const (
	KindData  = "DATA"
	KindDelta = "DELTA"
	KindOK    = "OK"
	KindErr   = "ERR"
)

var ErrEmptyRequest = errors.New("empty request")

// Request is one "<verb> [args]" line.
type Request struct {
	Verb string
	Args []string
}

func (r Request) String() string {
	return strings.Join(append([]string{r.Verb}, r.Args...), " ")
}

func (r Request) Arg(i int) string {
	if i < len(r.Args) {
		return r.Args[i]
	}
	return ""
}

func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, ErrEmptyRequest
	}
	return Request{Verb: strings.ToLower(fields[0]), Args: fields[1:]}, nil
}

func ReadRequest(r *bufio.Reader) (Request, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return Request{}, err
	}
	return ParseRequest(line)
}

// Line is one response line before the terminal OK/ERR.
type Line struct {
	Kind string
	Text string
}

// ResponseWriter writes the daemon side of one exchange.
type ResponseWriter struct {
	w io.Writer
}

func NewResponseWriter(w io.Writer) *ResponseWriter {
	return &ResponseWriter{w: w}
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func (rw *ResponseWriter) Data(payload string) error {
	_, err := fmt.Fprintf(rw.w, "%s %s\n", KindData, oneLine(payload))
	return err
}

// Delta sends streamed text; it is quoted so newlines survive
func (rw *ResponseWriter) Delta(text string) error {
	_, err := fmt.Fprintf(rw.w, "%s %s\n", KindDelta, strconv.Quote(text))
	return err
}

func (rw *ResponseWriter) OK(format string, args ...any) error {
	_, err := fmt.Fprintf(rw.w, "%s %s\n", KindOK, oneLine(fmt.Sprintf(format, args...)))
	return err
}

func (rw *ResponseWriter) Err(format string, args ...any) error {
	_, err := fmt.Fprintf(rw.w, "%s %s\n", KindErr, oneLine(fmt.Sprintf(format, args...)))
	return err
}

// RemoteError is an ERR answer from the daemon.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "daemon: " + e.Message
}

// Response is a completed exchange.
type Response struct {
	Data    []string
	Message string
}

// readResponse consumes lines until OK or ERR, passing the rest to fn.
func readResponse(r *bufio.Reader, fn func(Line)) (*Response, error) {
	resp := &Response{}
	for {
		raw, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("connection closed before response completed")
			}
			return nil, err
		}
		raw = strings.TrimRight(raw, "\r\n")
		kind, text, _ := strings.Cut(raw, " ")

		switch kind {
		case KindOK:
			resp.Message = text
			return resp, nil
		case KindErr:
			return resp, &RemoteError{Message: text}
		case KindData:
			resp.Data = append(resp.Data, text)
			if fn != nil {
				fn(Line{Kind: kind, Text: text})
			}
		case KindDelta:
			unquoted, err := strconv.Unquote(text)
			if err != nil {
				return nil, fmt.Errorf("malformed delta %q: %w", text, err)
			}
			if fn != nil {
				fn(Line{Kind: kind, Text: unquoted})
			}
		default:
			return nil, fmt.Errorf("unexpected response line %q", raw)
		}
	}
}

// Client talks to a daemon over its unix socket.
type Client struct {
	paths Paths
}

func NewClient(p Paths) *Client {
	return &Client{paths: p}
}

// Call sends one request and collects its DATA lines.
func (c *Client) Call(verb string, args ...string) (*Response, error) {
	return c.Stream(nil, verb, args...)
}

// Stream sends one request and hands DATA and DELTA lines to fn as they arrive.
func (c *Client) Stream(fn func(Line), verb string, args ...string) (*Response, error) {
	conn, err := c.paths.Dial()
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable (is `confersense serve` running?): %w", err)
	}
	defer conn.Close()

	req := Request{Verb: verb, Args: args}
	if _, err := fmt.Fprintf(conn, "%s\n", req); err != nil {
		return nil, err
	}
	return readResponse(Reader(conn), fn)
}
