package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/confersense/confersense/internal/glossary"
)

var (
	ErrUnparsableKeywords = errors.New("failed to parse keyword response")

	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\}|\\[.*\\])\\s*```")
)

// ExtractKeywords asks the model for glossary terms found in pageText.
func (c *Client) ExtractKeywords(ctx context.Context, pageText string) ([]glossary.Keyword, error) {
	content, err := c.complete(ctx, chatRequest{
		System:      extractionSystemPrompt,
		User:        BuildExtractionPrompt(pageText),
		Model:       c.cfg.Model,
		Temperature: c.cfg.TranslationTemperature,
	})
	if err != nil {
		return nil, err
	}
	keywords, err := ParseKeywords(content)
	if err != nil {
		log.Printf("llm: could not parse keyword response: %q", truncateForLog(content, 200))
		return nil, err
	}
	log.Printf("llm: extracted %d keywords", len(keywords))
	return keywords, nil
}

// ParseKeywords reads a keyword list from a model reply. The JSON may be
// wrapped in a fenced code block or surrounded by prose, and may be either
// {"keywords":[...]} or a bare array.
func ParseKeywords(content string) ([]glossary.Keyword, error) {
	cleaned := strings.TrimSpace(content)
	if m := fencedJSON.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}

	brace := strings.IndexByte(cleaned, '{')
	bracket := strings.IndexByte(cleaned, '[')
	if bracket >= 0 && (brace < 0 || bracket < brace) {
		var list []glossary.Keyword
		if err := json.Unmarshal([]byte(outermost(cleaned, '[', ']')), &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsableKeywords, err)
		}
		return list, nil
	}
	if brace < 0 {
		return nil, ErrUnparsableKeywords
	}

	var wrapped struct {
		Keywords []glossary.Keyword `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(outermost(cleaned, '{', '}')), &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableKeywords, err)
	}
	return wrapped.Keywords, nil
}

func outermost(s string, first, last byte) string {
	start := strings.IndexByte(s, first)
	end := strings.LastIndexByte(s, last)
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
