package tui

import (
	"fmt"
	"net/url"

	"github.com/charmbracelet/huh"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/provider"
)

// editTranslation selects the provider and model used for translations
// and audience questions
func editTranslation(cfg *config.Config) error {
	providerName := cfg.Translation.Provider
	if providerName == "" {
		providerName = provider.ProviderOpenAI
	}

	var providerOptions []huh.Option[string]
	for _, name := range provider.ListTranslationProviders() {
		providerOptions = append(providerOptions, huh.NewOption(getProviderDisplayName(name), name))
	}

	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Translation Provider").
				Description("OpenAI-compatible chat API used for translations").
				Options(providerOptions...).
				Value(&providerName),
		),
	).WithTheme(getTheme())

	if err := providerForm.Run(); err != nil {
		return err
	}

	if providerName != cfg.Translation.Provider {
		// a model or endpoint from another provider would not resolve
		cfg.Translation.Model = ""
		cfg.Translation.BaseURL = ""
	}
	cfg.Translation.Provider = providerName
	ensureProviderConfigured(cfg, providerName)

	p := provider.GetProvider(providerName)
	model := cfg.Translation.Model
	if model == "" {
		model = p.DefaultModel()
	}
	var modelOptions []huh.Option[string]
	for _, m := range p.Models() {
		label := m
		if m == p.DefaultModel() {
			label += " (default)"
		}
		modelOptions = append(modelOptions, huh.NewOption(label, m))
	}

	baseURL := cfg.Translation.BaseURL
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Options(modelOptions...).
				Value(&model),
			huh.NewInput().
				Title("Base URL").
				Description(fmt.Sprintf("Leave empty for %s", p.BaseURL())).
				Placeholder(p.BaseURL()).
				Value(&baseURL).
				Validate(validateBaseURL),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	if model == p.DefaultModel() {
		model = ""
	}
	cfg.Translation.Model = model
	cfg.Translation.BaseURL = baseURL
	return nil
}

func validateBaseURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base URL must be an http(s) URL")
	}
	return nil
}
