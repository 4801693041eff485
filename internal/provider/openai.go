package provider

import "strings"

// OpenAIProvider implements Provider for OpenAI chat completions
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) SupportsTranslation() bool {
	return true
}

func (p *OpenAIProvider) SupportsSpeech() bool {
	return false
}

func (p *OpenAIProvider) DefaultModel() string {
	return "gpt-4o-mini"
}

func (p *OpenAIProvider) Models() []string {
	return []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini", "gpt-4.1"}
}

func (p *OpenAIProvider) BaseURL() string {
	return "https://api.openai.com/v1"
}
