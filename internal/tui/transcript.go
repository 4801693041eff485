package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/confersense/confersense/internal/session"
	"github.com/confersense/confersense/internal/transcript"
)

const timestampLayout = "15:04:05"

// RenderOptions controls transcript rendering.
type RenderOptions struct {
	Width       int
	ErrorMarker string
	// HideOriginal shows translations only
	HideOriginal bool
}

// RenderTranscript draws the log oldest first. Each entry is a timestamp,
// the recognized text and its translation. Pending translations are muted,
// final ones bright and the error marker red.
func RenderTranscript(entries []transcript.Entry, opts RenderOptions) string {
	if len(entries) == 0 {
		return StyleSubtle.Render("Nothing captured yet.")
	}
	marker := opts.ErrorMarker
	if marker == "" {
		marker = session.DefaultErrorMarker
	}

	indent := len(timestampLayout) + 2
	textWidth := 0
	if opts.Width > indent+10 {
		textWidth = opts.Width - indent
	}

	var blocks []string
	for _, e := range entries {
		var lines []string
		if !opts.HideOriginal {
			lines = append(lines, wrap(StyleOriginal, e.Original, textWidth))
		}
		lines = append(lines, wrap(translationStyle(e, marker), translationText(e), textWidth))

		body := lipgloss.JoinVertical(lipgloss.Left, lines...)
		stamp := StyleTimestamp.Width(indent).Render(e.CreatedAt.Format(timestampLayout))
		blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, stamp, body))
	}
	return strings.Join(blocks, "\n")
}

func translationStyle(e transcript.Entry, marker string) lipgloss.Style {
	switch {
	case e.Translated == marker:
		return StyleMarker
	case e.IsFinal:
		return StyleFinal
	default:
		return StylePending
	}
}

func translationText(e transcript.Entry) string {
	if e.Translated == "" && !e.IsFinal {
		return "…"
	}
	return e.Translated
}

func wrap(style lipgloss.Style, text string, width int) string {
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(text)
}

// PlainTranscript is the uncolored form used by `log`.
func PlainTranscript(entries []transcript.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		state := "final"
		if !e.IsFinal {
			state = "pending"
		}
		b.WriteString(e.CreatedAt.Format(timestampLayout))
		b.WriteString(" [" + state + "] ")
		b.WriteString(e.Original)
		b.WriteString("\n         => ")
		b.WriteString(e.Translated)
		b.WriteString("\n")
	}
	return b.String()
}
