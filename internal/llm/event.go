package llm

// EventKind identifies what a stream event carries
type EventKind int

const (
	EventDelta EventKind = iota
	EventDone
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventDelta:
		return "delta"
	case EventDone:
		return "done"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one item of a streamed response. A stream yields any number of
// deltas followed by at most one Done or Failed; a canceled stream just closes.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

func Delta(text string) Event { return Event{Kind: EventDelta, Text: text} }

func Done() Event { return Event{Kind: EventDone} }

func Failed(err error) Event { return Event{Kind: EventFailed, Err: err} }
