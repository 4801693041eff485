package provider

import "sort"

// Provider describes a remote service used for translation or speech
type Provider interface {
	Name() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	SupportsTranslation() bool
	SupportsSpeech() bool
	DefaultModel() string
	Models() []string
	BaseURL() string
}

// ProviderConfig holds configuration for a single provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

var registry = make(map[string]Provider)

func init() {
	Register(&OpenAIProvider{})
	Register(&GroqProvider{})
	Register(&JapanAIProvider{})
	Register(&DeepgramProvider{})
}

// Register adds a provider to the registry
func Register(p Provider) {
	registry[p.Name()] = p
}

// GetProvider returns a provider by name, or nil if not found
func GetProvider(name string) Provider {
	return registry[name]
}

// ListProviders returns all registered provider names, sorted
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListTranslationProviders returns providers that can stream translations
func ListTranslationProviders() []string {
	var names []string
	for _, name := range ListProviders() {
		if registry[name].SupportsTranslation() {
			names = append(names, name)
		}
	}
	return names
}

// IsValidModel reports whether model is listed for the provider
func IsValidModel(name, model string) bool {
	p := GetProvider(name)
	if p == nil {
		return false
	}
	for _, m := range p.Models() {
		if m == model {
			return true
		}
	}
	return false
}
