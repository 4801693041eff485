package glossary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("glossary entry not found")
	ErrEmptyTerm    = errors.New("glossary term is empty")
	ErrInvalidScope = errors.New("glossary entry must use two language codes or \"*\" for both")
)

// Store persists glossary entries.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Lookup(ctx context.Context, source, target string) ([]Entry, error)
	Add(ctx context.Context, e Entry) (Entry, error)
	Update(ctx context.Context, id string, patch Patch) (Entry, error)
	Remove(ctx context.Context, id string) error
	Close() error
}

// Patch holds the fields to change on Update; nil fields are left alone
type Patch struct {
	Term        *string
	Replacement *string
	SourceLang  *string
	TargetLang  *string
}

func (p Patch) apply(e Entry) Entry {
	if p.Term != nil {
		e.Term = *p.Term
	}
	if p.Replacement != nil {
		e.Replacement = *p.Replacement
	}
	if p.SourceLang != nil {
		e.SourceLang = *p.SourceLang
	}
	if p.TargetLang != nil {
		e.TargetLang = *p.TargetLang
	}
	return e
}

// Validate checks an entry before it is stored.
func Validate(e Entry) error {
	if strings.TrimSpace(e.Term) == "" {
		return ErrEmptyTerm
	}
	if e.SourceLang == "" || e.TargetLang == "" {
		return ErrInvalidScope
	}
	if (e.SourceLang == Wildcard) != (e.TargetLang == Wildcard) {
		return fmt.Errorf("%w: got %s/%s", ErrInvalidScope, e.SourceLang, e.TargetLang)
	}
	return nil
}

func prepare(e Entry) (Entry, error) {
	e.Term = strings.TrimSpace(e.Term)
	if err := Validate(e); err != nil {
		return Entry{}, err
	}
	if e.ID == "" {
		e.ID = newID()
	}
	return e, nil
}

func newID() string {
	return "keyword-" + uuid.NewString()
}
