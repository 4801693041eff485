package llm

import (
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// chatCompletionsDialect speaks the OpenAI chat completions format, which
// Groq also serves.
type chatCompletionsDialect struct {
	name string
}

func (d chatCompletionsDialect) Name() string {
	return d.name
}

func (d chatCompletionsDialect) Endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/chat/completions"
}

func (d chatCompletionsDialect) EncodeRequest(req chatRequest) ([]byte, error) {
	body := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}
	return json.Marshal(body)
}

func (d chatCompletionsDialect) DecodeRecord(data []byte) (string, bool, error) {
	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, err
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	return chunk.Choices[0].Delta.Content, false, nil
}
