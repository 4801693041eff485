package config

import (
	"os"

	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/llm"
	"github.com/confersense/confersense/internal/provider"
	"github.com/confersense/confersense/internal/recording"
	"github.com/confersense/confersense/internal/session"
	"github.com/confersense/confersense/internal/speech"
)

func (c *Config) Pair() language.Pair {
	return language.Pair{Source: c.General.SourceLanguage, Target: c.General.TargetLanguage}
}

func (c *Config) ToSessionConfig() session.Config {
	return session.Config{
		Pair:        c.Pair(),
		Debounce:    c.Session.Debounce,
		ErrorMarker: c.Session.ErrorMarker,
	}
}

func (c *Config) ToLLMConfig() llm.Config {
	return llm.Config{
		Provider:               c.Translation.Provider,
		APIKey:                 c.ResolveAPIKey(c.Translation.Provider),
		Model:                  c.Translation.Model,
		BaseURL:                c.Translation.BaseURL,
		TranslationTemperature: c.Translation.Temperature,
		QuestionTemperature:    c.Translation.QuestionTemperature,
		Timeout:                c.Translation.Timeout,
	}
}

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Recording.SampleRate,
		Channels:          c.Recording.Channels,
		Format:            c.Recording.Format,
		BufferSize:        c.Recording.BufferSize,
		Device:            c.Recording.Device,
		ChannelBufferSize: c.Recording.ChannelBufferSize,
	}
}

func (c *Config) ToDeepgramConfig(keywords []string) speech.DeepgramConfig {
	cfg := speech.DeepgramConfig{
		APIKey:    c.ResolveAPIKey(provider.ProviderDeepgram),
		Model:     c.Speech.Model,
		Endpoint:  c.Speech.Endpoint,
		Recording: c.ToRecordingConfig(),
	}
	if c.Speech.GlossaryKeywords {
		cfg.Keywords = keywords
	}
	return cfg
}

// ToSpeechBackends builds the recognizer candidates in preference order.
// keywords are recognition hints, typically glossary terms.
func (c *Config) ToSpeechBackends(keywords []string) []speech.Backend {
	var backends []speech.Backend
	for _, name := range c.Speech.Backends {
		switch name {
		case speech.BackendDeepgram:
			backends = append(backends, speech.DeepgramBackend{Config: c.ToDeepgramConfig(keywords)})
		case speech.BackendScript:
			backends = append(backends, speech.ScriptBackend{Path: c.Speech.ScriptPath, LineDelay: c.Speech.LineDelay})
		}
	}
	return backends
}

// ResolveAPIKey returns the API key for a provider: providers table first,
// then the provider's environment variable.
func (c *Config) ResolveAPIKey(providerName string) string {
	if c.Providers != nil {
		if pc, ok := c.Providers[providerName]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}

	if envVar := provider.EnvVarForProvider(providerName); envVar != "" {
		return os.Getenv(envVar)
	}

	return ""
}
