package config

import (
	"time"

	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/llm"
	"github.com/confersense/confersense/internal/provider"
	"github.com/confersense/confersense/internal/session"
	"github.com/confersense/confersense/internal/speech"
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			SourceLanguage: "ja",
			TargetLanguage: "en",
		},
		Session: SessionConfig{
			Debounce:    session.DefaultDebounce,
			ErrorMarker: session.DefaultErrorMarker,
		},
		Translation: TranslationConfig{
			Provider:            provider.ProviderOpenAI,
			Temperature:         llm.DefaultTranslationTemperature,
			QuestionTemperature: llm.DefaultQuestionTemperature,
			Timeout:             llm.DefaultTimeout,
		},
		Speech: SpeechConfig{
			Backends:         []string{speech.BackendDeepgram, speech.BackendScript},
			Model:            speech.DefaultDeepgramModel,
			GlossaryKeywords: true,
			LineDelay:        500 * time.Millisecond,
		},
		Recording: RecordingConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16",
			BufferSize:        8192,
			Device:            "",
			ChannelBufferSize: 30,
		},
		Glossary: GlossaryConfig{
			Backend: glossary.BackendJSON,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "log",
		},
		Providers: make(map[string]ProviderConfig),
	}
}
