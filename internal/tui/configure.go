package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/confersense/confersense/internal/config"
	"github.com/muesli/termenv"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// providerDisplayNames maps provider IDs to human-readable names
var providerDisplayNames = map[string]string{
	"openai":   "OpenAI",
	"groq":     "Groq",
	"japanai":  "JAPAN AI Studio",
	"deepgram": "Deepgram",
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionLanguages     ConfigSection = "languages"
	SectionProviders     ConfigSection = "providers"
	SectionTranslation   ConfigSection = "translation"
	SectionSpeech        ConfigSection = "speech"
	SectionGlossary      ConfigSection = "glossary"
	SectionNotifications ConfigSection = "notifications"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run starts the configuration flow. Configs with providers already set open
// the section menu; anything else walks through every section once first.
func Run(existingConfig *config.Config) (*ConfigureResult, error) {
	cfg := existingConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if !hasUserChanges(cfg) {
		if err := runOnboarding(cfg); err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}
	}
	return runEditExisting(cfg)
}

// hasUserChanges detects if config has user modifications
func hasUserChanges(cfg *config.Config) bool {
	for _, pc := range cfg.Providers {
		if pc.APIKey != "" {
			return true
		}
	}
	return false
}

func runOnboarding(cfg *config.Config) error {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println()
	fmt.Println(StyleSubtle.Render("Let's set up live translation. You can change anything later with `confersense configure`."))
	fmt.Println()

	steps := []func(*config.Config) error{
		editLanguages,
		func(c *config.Config) error { return editProviders(c, true) },
		editTranslation,
		editSpeech,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return err
		}
	}
	return nil
}

// runEditExisting runs the menu-based edit flow
func runEditExisting(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			if err := cfg.Validate(); err != nil {
				fmt.Println(StyleError.Render(err.Error()))
				if !confirmContinue() {
					return &ConfigureResult{Cancelled: true}, nil
				}
				continue
			}
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}

		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case SectionLanguages:
			_ = editLanguages(cfg)

		case SectionProviders:
			_ = editProviders(cfg, false)

		case SectionTranslation:
			_ = editTranslation(cfg)

		case SectionSpeech:
			_ = editSpeech(cfg)

		case SectionGlossary:
			_ = editGlossaryBackend(cfg)

		case SectionNotifications:
			_ = editNotifications(cfg)
		}
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(formatLanguagesLabel(cfg), SectionLanguages),
		huh.NewOption(formatProvidersLabel(cfg), SectionProviders),
		huh.NewOption(formatTranslationLabel(cfg), SectionTranslation),
		huh.NewOption(formatSpeechLabel(cfg), SectionSpeech),
		huh.NewOption(formatGlossaryLabel(cfg), SectionGlossary),
		huh.NewOption(formatNotificationsLabel(cfg), SectionNotifications),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}

	return selected, nil
}

func confirmContinue() bool {
	keepEditing := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("The configuration is not valid yet").
				Affirmative("Keep editing").
				Negative("Discard").
				Value(&keepEditing),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return false
	}
	return keepEditing
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
