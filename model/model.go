// Package model defines the interface to the language-model collaborator:
// a single structured completion call used by the classifier (intent
// classification) and the fallback engine (suggestion ranking). Provider
// adapters live in sub-packages (openai, anthropic); MockModel gives tests a
// deterministic in-memory implementation.
//
// The contract is deliberately narrow: a malformed payload, a timeout or an
// API error returned here must never propagate past the classifier, which
// degrades to the reserved unrecognized intent instead.
package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dvitale/gias/core"
)

// Request is a normalized structured-completion request. System carries the
// closed-vocabulary instructions, User the utterance plus hints, FewShot the
// retrieved nearest-neighbor examples rendered into the prompt. Structured
// asks the provider for a JSON-object response when it supports one.
type Request struct {
	System     string
	User       string
	FewShot    []core.Example
	Structured bool
}

// Info contains metadata about a model implementation. Name is the model
// identifier the threshold table is keyed by.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal interface the dialogue core needs from a language
// model: one blocking structured completion. Implementations must honor
// context cancellation; the orchestrator runs every turn under a hard
// deadline.
type Model interface {
	// Complete returns the raw payload text (expected, not guaranteed, to be
	// JSON when req.Structured is set).
	Complete(ctx context.Context, req Request) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// RenderFewShot renders retrieved examples into prompt lines, at most max
// entries, preserving the caller's ordering.
func RenderFewShot(examples []core.Example, max int) string {
	if len(examples) == 0 {
		return ""
	}
	if max > 0 && len(examples) > max {
		examples = examples[:max]
	}
	var b strings.Builder
	b.WriteString("Esempi:\n")
	for _, ex := range examples {
		fmt.Fprintf(&b, "- %q -> %s\n", ex.Text, ex.Label)
	}
	return b.String()
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are matched by substring of the user prompt, in registration
// order; unmatched prompts get the configured default payload.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	rules    []mockRule
	fallback string
	err      error
	calls    int
}

type mockRule struct {
	substring string
	payload   string
}

// NewMockModel constructs a MockModel reporting the given identifier.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:     Info{Name: name, Provider: "mock"},
		fallback: `{"intent":"unrecognized","confidence":0}`,
	}
}

// AddResponse registers a canned payload served whenever the user prompt
// contains substring.
func (m *MockModel) AddResponse(substring, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{substring: substring, payload: payload})
}

// SetDefault replaces the payload returned when no rule matches.
func (m *MockModel) SetDefault(payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = payload
}

// Fail makes every subsequent call return err.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many completions were requested.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	for _, r := range m.rules {
		if strings.Contains(req.User, r.substring) {
			return r.payload, nil
		}
	}
	return m.fallback, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
