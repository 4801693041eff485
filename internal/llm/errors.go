package llm

import (
	"errors"
	"fmt"
)

// maxErrorBody bounds the response excerpt kept in a StatusError
const maxErrorBody = 512

var ErrMissingAPIKey = errors.New("API key not configured")

// ConfigError reports a client that cannot be built from its configuration.
type ConfigError struct {
	Provider string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("llm config: %v", e.Err)
	}
	return fmt.Sprintf("llm config (%s): %v", e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned %s", e.Status)
	}
	return fmt.Sprintf("upstream returned %s: %s", e.Status, e.Body)
}
