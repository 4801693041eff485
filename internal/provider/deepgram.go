package provider

// DeepgramProvider implements Provider for Deepgram live transcription
type DeepgramProvider struct{}

func (p *DeepgramProvider) Name() string {
	return ProviderDeepgram
}

func (p *DeepgramProvider) RequiresAPIKey() bool {
	return true
}

func (p *DeepgramProvider) ValidateAPIKey(key string) bool {
	// Deepgram API keys are alphanumeric, just check non-empty
	return len(key) > 0
}

func (p *DeepgramProvider) SupportsTranslation() bool {
	return false
}

func (p *DeepgramProvider) SupportsSpeech() bool {
	return true
}

func (p *DeepgramProvider) DefaultModel() string {
	return "nova-3"
}

func (p *DeepgramProvider) Models() []string {
	return []string{"nova-3", "nova-2"}
}

func (p *DeepgramProvider) BaseURL() string {
	return "wss://api.deepgram.com/v1/listen"
}
