package bus

import (
	"bufio"
	"errors"
	"net"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		line    string
		want    Request
		wantErr bool
	}{
		{"start\n", Request{Verb: "start", Args: []string{}}, false},
		{"START ja en\n", Request{Verb: "start", Args: []string{"ja", "en"}}, false},
		{"  question   https://example.com/talk  \r\n", Request{Verb: "question", Args: []string{"https://example.com/talk"}}, false},
		{"\n", Request{}, true},
		{"", Request{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRequest(tt.line)
		if tt.wantErr {
			if !errors.Is(err, ErrEmptyRequest) {
				t.Errorf("ParseRequest(%q) error = %v", tt.line, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRequest(%q) error = %v", tt.line, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseRequest(%q) = %#v, want %#v", tt.line, got, tt.want)
		}
	}

	req := Request{Verb: "start", Args: []string{"en", "es"}}
	if req.String() != "start en es" || req.Arg(1) != "es" || req.Arg(2) != "" {
		t.Errorf("Request helpers wrong: %q %q", req.String(), req.Arg(2))
	}
}

func TestReadRequestWithoutNewline(t *testing.T) {
	req, err := ReadRequest(bufio.NewReader(strings.NewReader("status")))
	if err != nil || req.Verb != "status" {
		t.Fatalf("ReadRequest() = %+v, %v", req, err)
	}
}

func TestResponseWriterFormatting(t *testing.T) {
	var sb strings.Builder
	rw := NewResponseWriter(&sb)
	rw.Data("line one\nline two")
	rw.Delta("Could you\nexplain?")
	rw.Err("bad %s", "thing\n")

	want := "DATA line one line two\n" +
		"DELTA \"Could you\\nexplain?\"\n" +
		"ERR bad thing \n"
	if sb.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", sb.String(), want)
	}
}

func TestReadResponse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantData  []string
		wantLines []Line
		wantMsg   string
		wantErr   string
	}{
		{
			name:    "plain ok",
			input:   "OK stopped\n",
			wantMsg: "stopped",
		},
		{
			name:      "data then ok",
			input:     "DATA {\"id\":\"log-1\"}\nDATA {\"id\":\"log-2\"}\nOK 2 entries\n",
			wantData:  []string{`{"id":"log-1"}`, `{"id":"log-2"}`},
			wantLines: []Line{{KindData, `{"id":"log-1"}`}, {KindData, `{"id":"log-2"}`}},
			wantMsg:   "2 entries",
		},
		{
			name:      "deltas are unquoted",
			input:     "DELTA \"How \"\nDELTA \"does\\nit scale?\"\nOK done\n",
			wantLines: []Line{{KindDelta, "How "}, {KindDelta, "does\nit scale?"}},
			wantMsg:   "done",
		},
		{
			name:    "remote error",
			input:   "ERR session already active\n",
			wantErr: "daemon: session already active",
		},
		{
			name:    "truncated",
			input:   "DATA x\n",
			wantErr: "connection closed",
		},
		{
			name:    "garbage",
			input:   "HELLO\n",
			wantErr: "unexpected response line",
		},
		{
			name:    "bad delta",
			input:   "DELTA not-quoted\n",
			wantErr: "malformed delta",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []Line
			resp, err := readResponse(bufio.NewReader(strings.NewReader(tt.input)), func(l Line) {
				lines = append(lines, l)
			})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", resp.Message, tt.wantMsg)
			}
			if !reflect.DeepEqual(resp.Data, tt.wantData) {
				t.Errorf("Data = %v, want %v", resp.Data, tt.wantData)
			}
			if !reflect.DeepEqual(lines, tt.wantLines) {
				t.Errorf("lines = %v, want %v", lines, tt.wantLines)
			}
		})
	}
}

func TestRemoteErrorIsTyped(t *testing.T) {
	_, err := readResponse(bufio.NewReader(strings.NewReader("ERR nope\n")), nil)
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Message != "nope" {
		t.Fatalf("error = %#v", err)
	}
}

func TestClientIntegration(t *testing.T) {
	paths := PathsIn(t.TempDir())
	listener, err := paths.Listen()
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer listener.Close()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				req, err := ReadRequest(Reader(c))
				if err != nil {
					return
				}
				rw := NewResponseWriter(c)
				switch req.Verb {
				case VerbStatus:
					rw.Data(`{"status":"idle"}`)
					rw.OK("")
				case VerbStart:
					rw.OK("listening %s->%s", req.Arg(0), req.Arg(1))
				case VerbQuestion:
					rw.Delta("What ")
					rw.Delta("next?")
					rw.OK("done")
				case VerbVersion:
					rw.OK("proto=%s", ProtoVer)
				default:
					rw.Err("unknown command %q", req.Verb)
				}
			}(conn)
		}
	}()

	client := NewClient(paths)

	resp, err := client.Call(VerbStatus)
	if err != nil || len(resp.Data) != 1 || resp.Data[0] != `{"status":"idle"}` {
		t.Errorf("status = %+v, %v", resp, err)
	}

	resp, err = client.Call(VerbStart, "en", "es")
	if err != nil || resp.Message != "listening en->es" {
		t.Errorf("start = %+v, %v", resp, err)
	}

	var question strings.Builder
	resp, err = client.Stream(func(l Line) {
		if l.Kind == KindDelta {
			question.WriteString(l.Text)
		}
	}, VerbQuestion)
	if err != nil || question.String() != "What next?" || resp.Message != "done" {
		t.Errorf("question = %q, %+v, %v", question.String(), resp, err)
	}

	resp, err = client.Call(VerbVersion)
	if err != nil || resp.Message != "proto="+ProtoVer {
		t.Errorf("version = %+v, %v", resp, err)
	}

	if _, err := client.Call("dance"); err == nil || !strings.Contains(err.Error(), `unknown command "dance"`) {
		t.Errorf("unknown verb error = %v", err)
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	client := NewClient(Paths{Sock: filepath.Join(t.TempDir(), SockName)})
	if _, err := client.Call(VerbStatus); err == nil || !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("Call() error = %v", err)
	}
}
