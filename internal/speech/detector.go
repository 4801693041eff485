package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
)

var ErrNoBackend = errors.New("no speech recognition backend available")

// Backend is one candidate implementation of speech recognition.
type Backend interface {
	Name() string
	// Available returns nil when the backend can be used on this host
	Available(ctx context.Context) error
	NewRecognizer() Recognizer
}

// Detector picks the first available backend from a preference list.
type Detector struct {
	backends []Backend
}

func NewDetector(backends ...Backend) *Detector {
	return &Detector{backends: backends}
}

// Detect returns a recognizer from the first usable backend.
func (d *Detector) Detect(ctx context.Context) (Recognizer, string, error) {
	var reasons []error
	for _, b := range d.backends {
		if err := b.Available(ctx); err != nil {
			log.Printf("speech: backend %s unavailable: %v", b.Name(), err)
			reasons = append(reasons, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		log.Printf("speech: using backend %s", b.Name())
		return b.NewRecognizer(), b.Name(), nil
	}
	if len(reasons) == 0 {
		return nil, "", ErrNoBackend
	}
	return nil, "", fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(reasons...))
}
