package provider

// JapanAIProvider implements Provider for the JAPAN AI chat v2 API
type JapanAIProvider struct{}

func (p *JapanAIProvider) Name() string {
	return ProviderJapanAI
}

func (p *JapanAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *JapanAIProvider) ValidateAPIKey(key string) bool {
	return len(key) > 0
}

func (p *JapanAIProvider) SupportsTranslation() bool {
	return true
}

func (p *JapanAIProvider) SupportsSpeech() bool {
	return false
}

func (p *JapanAIProvider) DefaultModel() string {
	return "gpt-4o-mini"
}

func (p *JapanAIProvider) Models() []string {
	return []string{"gpt-4o-mini", "gpt-4o"}
}

func (p *JapanAIProvider) BaseURL() string {
	return "https://api.japan-ai.co.jp/chat/v2"
}
