package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/provider"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultTranslationTemperature = 0.1
	DefaultQuestionTemperature    = 0.7
	DefaultTimeout                = 60 * time.Second
)

// Config holds LLM client configuration
type Config struct {
	Provider               string
	APIKey                 string
	Model                  string
	BaseURL                string
	TranslationTemperature float32
	QuestionTemperature    float32
	Timeout                time.Duration
	HTTPClient             *http.Client
}

// TranslationRequest is one fragment to translate.
type TranslationRequest struct {
	Text        string
	SourceLabel string
	TargetLabel string
	Glossary    []glossary.Entry
}

// QuestionRequest asks for follow-up questions over a translated transcript.
type QuestionRequest struct {
	Transcript   string
	ReferenceURL string
	SourceLabel  string
	TargetLabel  string
}

// Client streams translations and questions from one provider.
type Client struct {
	cfg      Config
	dialect  Dialect
	endpoint string
	http     *http.Client
	chat     *openai.Client
}

// NewClient validates cfg and builds a client for its provider.
func NewClient(cfg Config) (*Client, error) {
	dialect, err := dialectFor(cfg.Provider)
	if err != nil {
		return nil, &ConfigError{Provider: cfg.Provider, Err: err}
	}
	if cfg.APIKey == "" {
		return nil, &ConfigError{Provider: cfg.Provider, Err: ErrMissingAPIKey}
	}

	p := provider.GetProvider(cfg.Provider)
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL()
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel()
	}
	if cfg.TranslationTemperature <= 0 {
		cfg.TranslationTemperature = DefaultTranslationTemperature
	}
	if cfg.QuestionTemperature <= 0 {
		cfg.QuestionTemperature = DefaultQuestionTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Timeout)
	}

	c := &Client{
		cfg:      cfg,
		dialect:  dialect,
		endpoint: dialect.Endpoint(cfg.BaseURL),
		http:     httpClient,
	}

	if _, ok := dialect.(chatCompletionsDialect); ok {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		clientConfig.HTTPClient = httpClient
		c.chat = openai.NewClientWithConfig(clientConfig)
	}
	return c, nil
}

// newHTTPClient bounds connecting and waiting for response headers only.
// Streamed bodies run as long as the request context allows.
func newHTTPClient(headerTimeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: tr}
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// Translate streams the translation of req.Text. Blank text yields a closed
// channel with no events.
func (c *Client) Translate(ctx context.Context, req TranslationRequest) <-chan Event {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return closedEvents()
	}
	return c.stream(ctx, chatRequest{
		System:      BuildTranslationPrompt(req.SourceLabel, req.TargetLabel, req.Glossary),
		User:        BuildTranslationUserPrompt(text, req.TargetLabel),
		Model:       c.cfg.Model,
		Temperature: c.cfg.TranslationTemperature,
		Stream:      true,
	})
}

// GenerateQuestion streams 1-3 questions about the transcript.
func (c *Client) GenerateQuestion(ctx context.Context, req QuestionRequest) <-chan Event {
	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" {
		return closedEvents()
	}
	return c.stream(ctx, chatRequest{
		System:      BuildQuestionPrompt(req.TargetLabel),
		User:        BuildQuestionUserPrompt(transcript, req.ReferenceURL, req.TargetLabel),
		Model:       c.cfg.Model,
		Temperature: c.cfg.QuestionTemperature,
		Stream:      true,
	})
}

func closedEvents() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

func (c *Client) newRequest(ctx context.Context, body chatRequest) (*http.Request, error) {
	payload, err := c.dialect.EncodeRequest(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func (c *Client) stream(ctx context.Context, body chatRequest) <-chan Event {
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		emit := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		// terminal events are never sent once the caller has canceled
		finish := func(ev Event) {
			if ctx.Err() != nil {
				return
			}
			emit(ev)
		}

		req, err := c.newRequest(ctx, body)
		if err != nil {
			finish(Failed(err))
			return
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("llm: %s request failed after %v: %v", c.dialect.Name(), time.Since(start), err)
			}
			finish(Failed(fmt.Errorf("%s request: %w", c.dialect.Name(), err)))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			statusErr := &StatusError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(excerpt)),
			}
			log.Printf("llm: %s: %v", c.dialect.Name(), statusErr)
			finish(Failed(statusErr))
			return
		}

		sawMarker, err := readStream(ctx, resp.Body, c.dialect, emit)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("llm: %s stream broke after %v: %v", c.dialect.Name(), time.Since(start), err)
			finish(Failed(fmt.Errorf("%s stream: %w", c.dialect.Name(), err)))
			return
		}
		if !sawMarker {
			log.Printf("llm: %s stream closed without end marker", c.dialect.Name())
		}
		finish(Done())
	}()

	return out
}

// complete runs a single non-streaming call and returns the reply text.
func (c *Client) complete(ctx context.Context, body chatRequest) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.chat != nil {
		resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: body.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: body.System},
				{Role: openai.ChatMessageRoleUser, Content: body.User},
			},
			Temperature: body.Temperature,
		})
		if err != nil {
			log.Printf("llm: %s API call failed after %v: %v", c.dialect.Name(), time.Since(start), err)
			return "", fmt.Errorf("%s chat completion: %w", c.dialect.Name(), err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%s chat completion: no response choices", c.dialect.Name())
		}
		return resp.Choices[0].Message.Content, nil
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", c.dialect.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(excerpt))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s read response: %w", c.dialect.Name(), err)
	}
	d, ok := c.dialect.(japanAIDialect)
	if !ok {
		return "", errors.New("no non-streaming decoder for " + c.dialect.Name())
	}
	return d.DecodeMessage(data)
}
