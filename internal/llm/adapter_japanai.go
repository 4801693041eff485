package llm

import (
	"encoding/json"
	"fmt"
)

// japanAIDialect speaks the JAPAN AI chat v2 API. The base URL is the
// full endpoint.
type japanAIDialect struct{}

type japanAIRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"systemPrompt"`
	Model        string  `json:"model"`
	Temperature  float32 `json:"temperature"`
	Stream       bool    `json:"stream"`
	AgentName    string  `json:"agentName"`
}

type japanAIRecord struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
}

type japanAIMessage struct {
	Status      string `json:"status"`
	ChatMessage string `json:"chatMessage"`
}

func (japanAIDialect) Name() string {
	return "japanai"
}

func (japanAIDialect) Endpoint(baseURL string) string {
	return baseURL
}

func (japanAIDialect) EncodeRequest(req chatRequest) ([]byte, error) {
	return json.Marshal(japanAIRequest{
		Prompt:       req.User,
		SystemPrompt: req.System,
		Model:        req.Model,
		Temperature:  req.Temperature,
		Stream:       req.Stream,
	})
}

func (japanAIDialect) DecodeRecord(data []byte) (string, bool, error) {
	var rec japanAIRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, err
	}
	switch rec.Type {
	case "delta":
		if rec.Delta != nil && rec.Delta.Type == "text" {
			return rec.Delta.Text, false, nil
		}
	case "done":
		return "", true, nil
	}
	return "", false, nil
}

func (japanAIDialect) DecodeMessage(body []byte) (string, error) {
	var msg japanAIMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", fmt.Errorf("japanai chat: %w", err)
	}
	if msg.ChatMessage == "" {
		return "", fmt.Errorf("japanai chat: no content received (status %q)", msg.Status)
	}
	return msg.ChatMessage, nil
}
