package config

import (
	"fmt"
	"strings"

	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/provider"
	"github.com/confersense/confersense/internal/speech"
)

func (c *Config) Validate() error {
	if !language.IsValidCode(c.General.SourceLanguage) {
		return fmt.Errorf("invalid general.source_language: %q (must be one of %s)",
			c.General.SourceLanguage, strings.Join(language.Codes(), ", "))
	}
	if !language.IsValidCode(c.General.TargetLanguage) {
		return fmt.Errorf("invalid general.target_language: %q (must be one of %s)",
			c.General.TargetLanguage, strings.Join(language.Codes(), ", "))
	}

	if c.Session.Debounce <= 0 {
		return fmt.Errorf("invalid session.debounce: %v", c.Session.Debounce)
	}
	if strings.TrimSpace(c.Session.ErrorMarker) == "" {
		return fmt.Errorf("invalid session.error_marker: empty")
	}

	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}

	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", c.Recording.BufferSize)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}
	if c.Recording.Format == "" {
		return fmt.Errorf("invalid recording.format: empty")
	}

	switch c.Glossary.Backend {
	case glossary.BackendJSON, glossary.BackendSQLite, glossary.BackendMemory:
	default:
		return fmt.Errorf("invalid glossary.backend: %s (must be json, sqlite, or memory)", c.Glossary.Backend)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	p := provider.GetProvider(t.Provider)
	if p == nil || !p.SupportsTranslation() {
		return fmt.Errorf("unsupported translation.provider: %q (must be %s)",
			t.Provider, strings.Join(provider.ListTranslationProviders(), ", "))
	}
	if p.RequiresAPIKey() && c.ResolveAPIKey(t.Provider) == "" {
		return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key) or environment variable (%s)",
			t.Provider, t.Provider, provider.EnvVarForProvider(t.Provider))
	}
	// a custom base_url may serve models the registry does not know
	if t.Model != "" && t.BaseURL == "" && !provider.IsValidModel(t.Provider, t.Model) {
		return fmt.Errorf("invalid translation.model: %q is not offered by %s (one of %s)",
			t.Model, t.Provider, strings.Join(p.Models(), ", "))
	}
	if t.Temperature < 0 || t.Temperature > 2 {
		return fmt.Errorf("invalid translation.temperature: %v (must be between 0 and 2)", t.Temperature)
	}
	if t.QuestionTemperature < 0 || t.QuestionTemperature > 2 {
		return fmt.Errorf("invalid translation.question_temperature: %v (must be between 0 and 2)", t.QuestionTemperature)
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("invalid translation.timeout: %v", t.Timeout)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if len(c.Speech.Backends) == 0 {
		return fmt.Errorf("invalid speech.backends: empty (must have at least one backend)")
	}
	for _, b := range c.Speech.Backends {
		switch b {
		case speech.BackendDeepgram, speech.BackendScript:
		default:
			return fmt.Errorf("invalid speech.backends: unknown backend %q (must be deepgram or script)", b)
		}
	}
	if c.Speech.LineDelay < 0 {
		return fmt.Errorf("invalid speech.line_delay: %v", c.Speech.LineDelay)
	}
	return nil
}
