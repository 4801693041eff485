package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/confersense/confersense/internal/glossary"
)

// GlossaryEntryForm prompts for a new glossary entry. The defaults seed the
// language selects, normally with the configured pair.
func GlossaryEntryForm(defaultSource, defaultTarget string) (glossary.Entry, error) {
	e := glossary.Entry{SourceLang: defaultSource, TargetLang: defaultTarget}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Term").
				Description("Word or phrase as the recognizer writes it").
				Value(&e.Term).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return glossary.ErrEmptyTerm
					}
					return nil
				}),
			huh.NewInput().
				Title("Translation").
				Description("Rendering the translator must use; empty keeps the term as is").
				Value(&e.Replacement),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source Language").
				Options(getLanguageOptions(true)...).
				Value(&e.SourceLang),
			huh.NewSelect[string]().
				Title("Target Language").
				Options(getLanguageOptions(true)...).
				Value(&e.TargetLang).
				Validate(func(s string) error {
					if (s == glossary.Wildcard) != (e.SourceLang == glossary.Wildcard) {
						return errors.New("use \"*\" for both languages or for neither")
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return glossary.Entry{}, err
	}
	e.Term = strings.TrimSpace(e.Term)
	if err := glossary.Validate(e); err != nil {
		return glossary.Entry{}, err
	}
	return e, nil
}

// RenderGlossary prints entries as an aligned table
func RenderGlossary(entries []glossary.Entry) string {
	if len(entries) == 0 {
		return StyleSubtle.Render("Glossary is empty.")
	}
	termWidth := len("TERM")
	for _, e := range entries {
		termWidth = max(termWidth, len([]rune(e.Term)))
	}

	var b strings.Builder
	b.WriteString(StyleLabel.Render(fmt.Sprintf("%-9s %-*s  %s", "PAIR", termWidth, "TERM", "TRANSLATION")))
	b.WriteString("\n")
	for _, e := range entries {
		pair := e.SourceLang + "->" + e.TargetLang
		if e.IsWildcard() {
			pair = "*"
		}
		pad := termWidth - len([]rune(e.Term))
		fmt.Fprintf(&b, "%-9s %s%s  %s  %s\n", pair, e.Term, strings.Repeat(" ", pad), e.Replacement, StyleMuted.Render(e.ID))
	}
	return b.String()
}
