// Package llm generates vocabulary content through external language model
// providers. It exposes a narrow Provider interface over raw completions and
// a Generator that turns completions into validated vocabulary records.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/vocala/pkg/models"
)

// ErrUnavailable is returned when the provider could not be reached or kept
// failing after the configured retries. Callers treat it as "try again
// later", never as a reason to substitute placeholder content.
var ErrUnavailable = errors.New("llm: provider unavailable")

// SchemaError reports a generated record that did not match the expected
// vocabulary shape. Such records are discarded, never persisted.
type SchemaError struct {
	Headword string
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("llm: invalid generated entry %q: %s", e.Headword, e.Reason)
}

// Provider is a raw text-completion backend
type Provider interface {
	// Name identifies the provider, e.g. "openai"
	Name() string
	// Model returns the model name used for completions
	Model() string
	// Complete sends the prompt and returns the model's text response.
	// Transport, quota and timeout failures must wrap ErrUnavailable.
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratedExample is one example sentence in a generated record
type GeneratedExample struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

// GeneratedWord is one vocabulary record as produced by a provider, before
// it is persisted
type GeneratedWord struct {
	Headword     string             `json:"english_word"`
	Translation  string             `json:"translation"`
	PartOfSpeech string             `json:"part_of_speech"`
	Definition   string             `json:"definition"`
	Examples     []GeneratedExample `json:"examples"`
}

// Validate checks that the record has the shape required for persistence
func (w *GeneratedWord) Validate() error {
	headword := strings.TrimSpace(w.Headword)
	if headword == "" {
		return &SchemaError{Reason: "empty headword"}
	}
	if strings.TrimSpace(w.Translation) == "" {
		return &SchemaError{Headword: headword, Reason: "empty translation"}
	}
	pos := strings.ToLower(strings.TrimSpace(w.PartOfSpeech))
	if !models.ValidPartOfSpeech(pos) {
		return &SchemaError{Headword: headword, Reason: fmt.Sprintf("unknown part of speech %q", w.PartOfSpeech)}
	}
	if len(w.Examples) == 0 {
		return &SchemaError{Headword: headword, Reason: "no examples"}
	}
	for _, ex := range w.Examples {
		if strings.TrimSpace(ex.Sentence) == "" {
			return &SchemaError{Headword: headword, Reason: "example with empty sentence"}
		}
	}
	return nil
}

// Normalize lowercases and trims the fields that identify the record
func (w *GeneratedWord) Normalize() {
	w.Headword = strings.ToLower(strings.TrimSpace(w.Headword))
	w.PartOfSpeech = strings.ToLower(strings.TrimSpace(w.PartOfSpeech))
	w.Translation = strings.TrimSpace(w.Translation)
	w.Definition = strings.TrimSpace(w.Definition)
}
