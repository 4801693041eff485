package llm

import (
	"fmt"

	"github.com/confersense/confersense/internal/provider"
)

// chatRequest is the provider-neutral shape of one model call
type chatRequest struct {
	System      string
	User        string
	Model       string
	Temperature float32
	Stream      bool
}

// Dialect encodes requests and decodes stream records for one provider.
type Dialect interface {
	Name() string
	Endpoint(baseURL string) string
	EncodeRequest(req chatRequest) ([]byte, error)
	// DecodeRecord parses one data record. done reports a provider
	// specific end record.
	DecodeRecord(data []byte) (text string, done bool, err error)
}

func dialectFor(name string) (Dialect, error) {
	switch name {
	case provider.ProviderOpenAI:
		return chatCompletionsDialect{name: provider.ProviderOpenAI}, nil
	case provider.ProviderGroq:
		return chatCompletionsDialect{name: provider.ProviderGroq}, nil
	case provider.ProviderJapanAI:
		return japanAIDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", name)
	}
}
