package config

import "time"

type Config struct {
	General       GeneralConfig             `toml:"general"`
	Session       SessionConfig             `toml:"session"`
	Translation   TranslationConfig         `toml:"translation"`
	Speech        SpeechConfig              `toml:"speech"`
	Recording     RecordingConfig           `toml:"recording"`
	Glossary      GlossaryConfig            `toml:"glossary"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

// GeneralConfig holds the default language pair
type GeneralConfig struct {
	SourceLanguage string `toml:"source_language"`
	TargetLanguage string `toml:"target_language"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

type SessionConfig struct {
	Debounce    time.Duration `toml:"debounce"`
	ErrorMarker string        `toml:"error_marker"`
}

// TranslationConfig selects the model used for translations and questions
type TranslationConfig struct {
	Provider            string        `toml:"provider"`
	Model               string        `toml:"model"`
	BaseURL             string        `toml:"base_url"`
	Temperature         float32       `toml:"temperature"`
	QuestionTemperature float32       `toml:"question_temperature"`
	Timeout             time.Duration `toml:"timeout"`
}

type SpeechConfig struct {
	Backends []string `toml:"backends"` // preference order: "deepgram", "script"
	Model    string   `toml:"model"`
	Endpoint string   `toml:"endpoint"`
	// GlossaryKeywords boosts glossary terms in the recognizer
	GlossaryKeywords bool          `toml:"glossary_keywords"`
	ScriptPath       string        `toml:"script_path"`
	LineDelay        time.Duration `toml:"line_delay"`
}

type RecordingConfig struct {
	SampleRate        int    `toml:"sample_rate"`
	Channels          int    `toml:"channels"`
	Format            string `toml:"format"`
	BufferSize        int    `toml:"buffer_size"`
	Device            string `toml:"device"`
	ChannelBufferSize int    `toml:"channel_buffer_size"`
}

type GlossaryConfig struct {
	Backend string `toml:"backend"` // "json", "sqlite", "memory"
	Path    string `toml:"path"`    // empty uses the default location
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}
