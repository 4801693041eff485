package tui

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/provider"
	"github.com/confersense/confersense/internal/speech"
)

// editSpeech chooses recognition backends in preference order
func editSpeech(cfg *config.Config) error {
	backends := append([]string(nil), cfg.Speech.Backends...)
	keywords := cfg.Speech.GlossaryKeywords

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Speech Backends").
				Description("The first available backend is used").
				Options(
					huh.NewOption("Deepgram live streaming (microphone)", speech.BackendDeepgram),
					huh.NewOption("Scripted transcript file", speech.BackendScript),
				).
				Value(&backends).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return errors.New("select at least one backend")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Boost glossary terms?").
				Description("Send glossary terms to the recognizer as keywords").
				Value(&keywords),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Speech.Backends = backends
	cfg.Speech.GlossaryKeywords = keywords

	for _, b := range backends {
		switch b {
		case speech.BackendDeepgram:
			ensureProviderConfigured(cfg, provider.ProviderDeepgram)
		case speech.BackendScript:
			if err := editScriptPath(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

func editScriptPath(cfg *config.Config) error {
	path := cfg.Speech.ScriptPath
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Script Path").
				Description("Lines of \"partial: text\" or \"final: text\"").
				Value(&path).
				Validate(validateScriptPath),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	cfg.Speech.ScriptPath = path
	return nil
}

func validateScriptPath(s string) error {
	if s == "" {
		return nil
	}
	info, err := os.Stat(s)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New("script path is a directory")
	}
	return nil
}

// editGlossaryBackend picks where glossary entries are stored
func editGlossaryBackend(cfg *config.Config) error {
	backend := cfg.Glossary.Backend
	path := cfg.Glossary.Path

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Glossary Storage").
				Options(
					huh.NewOption("JSON file", glossary.BackendJSON),
					huh.NewOption("SQLite database", glossary.BackendSQLite),
					huh.NewOption("In memory (lost on restart)", glossary.BackendMemory),
				).
				Value(&backend),
			huh.NewInput().
				Title("Path").
				Description("Leave empty for the default location").
				Value(&path),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Glossary.Backend = backend
	cfg.Glossary.Path = path
	return nil
}
