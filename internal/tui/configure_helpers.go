package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/language"
)

func formatLanguagesLabel(cfg *config.Config) string {
	return fmt.Sprintf("Languages (%s → %s)",
		language.DisplayName(cfg.General.SourceLanguage),
		language.DisplayName(cfg.General.TargetLanguage))
}

func formatProvidersLabel(cfg *config.Config) string {
	n := len(getConfiguredProviders(cfg))
	if n == 0 {
		return "Providers (none configured)"
	}
	return fmt.Sprintf("Providers (%d configured)", n)
}

func formatTranslationLabel(cfg *config.Config) string {
	model := cfg.Translation.Model
	if model == "" {
		model = "default model"
	}
	return fmt.Sprintf("Translation (%s, %s)", getProviderDisplayName(cfg.Translation.Provider), model)
}

func formatSpeechLabel(cfg *config.Config) string {
	return fmt.Sprintf("Speech (%s)", strings.Join(cfg.Speech.Backends, " -> "))
}

func formatGlossaryLabel(cfg *config.Config) string {
	return fmt.Sprintf("Glossary (%s)", cfg.Glossary.Backend)
}

// formatNotificationsLabel formats the notifications menu option
func formatNotificationsLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "Notifications (off)"
	}
	return fmt.Sprintf("Notifications (%s)", cfg.Notifications.Type)
}

// summaryLines lists the settings shown before saving. API keys are masked.
func summaryLines(cfg *config.Config) [][2]string {
	var lines [][2]string
	add := func(label, value string) {
		lines = append(lines, [2]string{label, value})
	}

	add("Languages:", cfg.Pair().String())

	providers := getConfiguredProviders(cfg)
	sort.Strings(providers)
	var keyed []string
	for _, name := range providers {
		keyed = append(keyed, fmt.Sprintf("%s (%s)", name, maskAPIKey(cfg.Providers[name].APIKey)))
	}
	if len(keyed) == 0 {
		keyed = append(keyed, "none (environment variables only)")
	}
	add("Providers:", strings.Join(keyed, ", "))

	model := cfg.Translation.Model
	if model == "" {
		model = "default"
	}
	add("Translation:", fmt.Sprintf("%s (%s)", cfg.Translation.Provider, model))
	if cfg.Translation.BaseURL != "" {
		add("Base URL:", cfg.Translation.BaseURL)
	}

	add("Speech:", strings.Join(cfg.Speech.Backends, " -> "))
	if cfg.Speech.ScriptPath != "" {
		add("Script:", cfg.Speech.ScriptPath)
	}
	if cfg.Speech.GlossaryKeywords {
		add("Keyword boost:", "glossary terms")
	}

	glossaryPath := cfg.Glossary.Path
	if glossaryPath == "" {
		glossaryPath = "default location"
	}
	add("Glossary:", fmt.Sprintf("%s (%s)", cfg.Glossary.Backend, glossaryPath))

	if cfg.Notifications.Enabled {
		add("Notifications:", cfg.Notifications.Type)
	} else {
		add("Notifications:", "disabled")
	}
	return lines
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()

	for _, line := range summaryLines(cfg) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(line[0]), line[1])
	}

	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}
