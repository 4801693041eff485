package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/provider"
)

// getProviderDisplayName returns the display name for a provider
func getProviderDisplayName(providerName string) string {
	if name, ok := providerDisplayNames[providerName]; ok {
		return name
	}
	return providerName
}

// maskAPIKey returns a masked version of an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// getConfiguredProviders returns list of providers with API keys
func getConfiguredProviders(cfg *config.Config) []string {
	var providers []string
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			providers = append(providers, name)
		}
	}
	return providers
}

// editProviders handles the providers section edit with submenu
func editProviders(cfg *config.Config, onboarding bool) error {
	exitLabel := "Done"
	if onboarding {
		exitLabel = "Next"
	}

	// after a key is entered the cursor defaults to the exit option
	defaultToExit := false

	for {
		var options []huh.Option[string]
		for _, name := range provider.ListProviders() {
			if !provider.GetProvider(name).RequiresAPIKey() {
				continue
			}
			options = append(options, huh.NewOption(formatProviderOption(cfg, name), name))
		}
		options = append(options, huh.NewOption(exitLabel, "back"))

		selected := ""
		if defaultToExit {
			selected = "back"
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Provider Settings").
					Description("Select a provider to configure API key").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}

		if selected == "back" {
			return nil
		}

		apiKey, err := configureSingleProvider(cfg, selected)
		if err != nil {
			continue
		}

		if apiKey != "" {
			setProviderKey(cfg, selected, apiKey)
			defaultToExit = true
		}
	}
}

func setProviderKey(cfg *config.Config, name, key string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	cfg.Providers[name] = config.ProviderConfig{APIKey: key}
}

// formatProviderOption formats a provider menu option with status
func formatProviderOption(cfg *config.Config, name string) string {
	status := "(not configured)"
	if pc, exists := cfg.Providers[name]; exists && pc.APIKey != "" {
		status = "(configured)"
	} else if env := provider.EnvVarForProvider(name); env != "" && cfg.ResolveAPIKey(name) != "" {
		status = fmt.Sprintf("(from %s)", env)
	}

	p := provider.GetProvider(name)
	var roles string
	switch {
	case p.SupportsTranslation() && p.SupportsSpeech():
		roles = "translation + speech"
	case p.SupportsSpeech():
		roles = "speech"
	default:
		roles = "translation"
	}
	return fmt.Sprintf("%s - %s %s", getProviderDisplayName(name), roles, status)
}

// configureSingleProvider shows a confirm dialog if a key exists, then
// prompts for a new key. Returns the new key, empty if the user kept the
// current one.
func configureSingleProvider(cfg *config.Config, providerName string) (string, error) {
	var existingKey string
	if pc, exists := cfg.Providers[providerName]; exists && pc.APIKey != "" {
		existingKey = pc.APIKey
	}

	if existingKey != "" {
		displayName := getProviderDisplayName(providerName)

		var update bool
		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s API Key", displayName)).
					Description(fmt.Sprintf("Current: %s", maskAPIKey(existingKey))).
					Affirmative("Update key").
					Negative("Keep current").
					Value(&update),
			),
		).WithTheme(getTheme())

		if err := confirmForm.Run(); err != nil {
			return "", err
		}

		if !update {
			return "", nil
		}
	}

	return inputAPIKey(providerName)
}

// validateAPIKey checks a key against the provider's format rules
func validateAPIKey(providerName, key string) error {
	if key == "" {
		return fmt.Errorf("API key is required")
	}
	p := provider.GetProvider(providerName)
	if p != nil && !p.ValidateAPIKey(key) {
		return fmt.Errorf("invalid API key format for %s", getProviderDisplayName(providerName))
	}
	return nil
}

func inputAPIKey(providerName string) (string, error) {
	displayName := getProviderDisplayName(providerName)

	var apiKey string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API Key", displayName)).
				Description(fmt.Sprintf("Enter your %s API key", displayName)).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Validate(func(s string) error {
					return validateAPIKey(providerName, s)
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}

	return apiKey, nil
}

// ensureProviderConfigured prompts for an API key when the provider has none
// in the config or environment
func ensureProviderConfigured(cfg *config.Config, providerName string) {
	p := provider.GetProvider(providerName)
	if p == nil || !p.RequiresAPIKey() || cfg.ResolveAPIKey(providerName) != "" {
		return
	}

	apiKey, err := configureSingleProvider(cfg, providerName)
	if err != nil || apiKey == "" {
		return
	}
	setProviderKey(cfg, providerName, apiKey)
}
