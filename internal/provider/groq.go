package provider

import "strings"

// GroqProvider implements Provider for Groq's OpenAI-compatible API
type GroqProvider struct{}

func (p *GroqProvider) Name() string {
	return ProviderGroq
}

func (p *GroqProvider) RequiresAPIKey() bool {
	return true
}

func (p *GroqProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "gsk_")
}

func (p *GroqProvider) SupportsTranslation() bool {
	return true
}

func (p *GroqProvider) SupportsSpeech() bool {
	return false
}

func (p *GroqProvider) DefaultModel() string {
	return "llama-3.3-70b-versatile"
}

func (p *GroqProvider) Models() []string {
	return []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
}

func (p *GroqProvider) BaseURL() string {
	return "https://api.groq.com/openai/v1"
}
