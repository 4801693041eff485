package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/confersense/confersense/internal/bus"
	"github.com/confersense/confersense/internal/daemon"
	"github.com/confersense/confersense/internal/transcript"
)

// PollInterval is how often the watch view asks the daemon for state
const PollInterval = 500 * time.Millisecond

// Key bindings
const (
	KeyQuit   = "q"
	KeyCtrlC  = "ctrl+c"
	KeyToggle = "s"
	KeyFollow = "f"
	KeyOrig   = "o"
)

// Snapshot is one poll of daemon state.
type Snapshot struct {
	Status  daemon.StatusReport
	Entries []transcript.Entry
}

// Poll fetches status and log from the daemon.
func Poll(c daemon.Caller) (Snapshot, error) {
	var snap Snapshot
	status, err := daemon.FetchStatus(c)
	if err != nil {
		return snap, err
	}
	entries, err := daemon.FetchLog(c)
	if err != nil {
		return snap, err
	}
	snap.Status = status
	snap.Entries = entries
	return snap, nil
}

type tickMsg time.Time

type snapshotMsg struct {
	snap Snapshot
	err  error
}

type actionMsg struct {
	verb string
	err  error
}

// WatchModel is the live transcript view.
type WatchModel struct {
	caller   daemon.Caller
	marker   string
	interval time.Duration

	snap     Snapshot
	polled   bool
	errText  string
	follow   bool
	hideOrig bool
	busy     bool

	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// NewWatchModel builds the view. marker is the error marker entries carry.
func NewWatchModel(c daemon.Caller, marker string) WatchModel {
	return WatchModel{
		caller:   c,
		marker:   marker,
		interval: PollInterval,
		follow:   true,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), m.tickCmd())
}

func (m WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) pollCmd() tea.Cmd {
	c := m.caller
	return func() tea.Msg {
		snap, err := Poll(c)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m WatchModel) actionCmd(verb string) tea.Cmd {
	c := m.caller
	return func() tea.Msg {
		_, err := c.Call(verb)
		return actionMsg{verb: verb, err: err}
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := max(msg.Height-4, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = bodyHeight
		}
		m.refresh()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.pollCmd(), m.tickCmd())

	case snapshotMsg:
		m.polled = true
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.snap = msg.snap
		m.refresh()
		return m, nil

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = fmt.Sprintf("%s: %v", msg.verb, msg.err)
			return m, nil
		}
		return m, m.pollCmd()
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		return m, tea.Quit
	case KeyToggle:
		if m.busy {
			return m, nil
		}
		m.busy = true
		if m.running() {
			return m, m.actionCmd(bus.VerbStop)
		}
		return m, m.actionCmd(bus.VerbStart)
	case KeyFollow:
		m.follow = !m.follow
		m.refresh()
		return m, nil
	case KeyOrig:
		m.hideOrig = !m.hideOrig
		m.refresh()
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		// scrolling by hand pauses follow mode until the bottom is reached
		m.follow = m.viewport.AtBottom()
		return m, cmd
	}
	return m, nil
}

// running reports whether stop, rather than start, is the toggle action
func (m WatchModel) running() bool {
	switch m.snap.Status.Status {
	case "", "idle":
		return false
	default:
		return true
	}
}

func (m *WatchModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(RenderTranscript(m.snap.Entries, RenderOptions{
		Width:        m.width,
		ErrorMarker:  m.marker,
		HideOriginal: m.hideOrig,
	}))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m WatchModel) header() string {
	if !m.polled {
		return StyleMuted.Render("Connecting to confersense daemon...")
	}
	st := m.snap.Status
	parts := []string{
		StatusBadge(st.Status),
		StyleLabel.Render(fmt.Sprintf("%s → %s", st.Source, st.Target)),
	}
	if st.Backend != "" {
		parts = append(parts, StyleMuted.Render("via "+st.Backend))
	}
	if st.Pending > 0 {
		parts = append(parts, StyleHighlight.Render(fmt.Sprintf("%d translating", st.Pending)))
	}
	parts = append(parts, StyleMuted.Render(fmt.Sprintf("%d entries", st.Entries)))
	return strings.Join(parts, "  ")
}

func (m WatchModel) footer() string {
	var lines []string
	if m.errText != "" {
		lines = append(lines, StyleError.Render(m.errText))
	} else if m.snap.Status.Error != "" {
		lines = append(lines, StyleError.Render(m.snap.Status.Error))
	}
	action := "start"
	if m.running() {
		action = "stop"
	}
	follow := "off"
	if m.follow {
		follow = "on"
	}
	lines = append(lines, StyleSubtle.Render(fmt.Sprintf("s %s • o originals • f follow (%s) • ↑/↓ scroll • q quit", action, follow)))
	return strings.Join(lines, "\n")
}

func (m WatchModel) View() string {
	body := RenderTranscript(m.snap.Entries, RenderOptions{Width: m.width, ErrorMarker: m.marker, HideOriginal: m.hideOrig})
	if m.ready {
		body = m.viewport.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), "", body, m.footer())
}

// Watch runs the live view until the user quits.
func Watch(c daemon.Caller, marker string) error {
	_, err := tea.NewProgram(NewWatchModel(c, marker), tea.WithAltScreen()).Run()
	return err
}
