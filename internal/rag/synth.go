package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks bankassist/internal/rag Generator

import (
	"context"
	"fmt"
	"strings"

	"bankassist/internal/contextutil"
)

// Generator produces text from a prompt with deterministic decoding and a
// bounded output length.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// literalRule answers a yes/no question from the presence of a phrase in
// the context instead of asking the model.
type literalRule struct {
	// trigger is matched case-insensitively against the query.
	trigger string
	// evidence is matched case-sensitively against the combined context.
	evidence string
}

var literalRules = []literalRule{
	{trigger: "current account", evidence: "Current Account"},
}

// Synthesis is a synthesized answer.
type Synthesis struct {
	Text          string
	Deterministic bool
}

// Synthesizer turns a combined context and a question into an answer.
//
// Generated answers are grounded only by the prompt instruction; nothing
// checks the model's output against the context.
type Synthesizer struct {
	generator Generator
}

// NewSynthesizer creates a synthesizer backed by generator.
func NewSynthesizer(generator Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Answer applies the literal rules first and falls back to the generator.
func (s *Synthesizer) Answer(ctx context.Context, query, combined string) (Synthesis, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q := strings.ToLower(query)
	for _, rule := range literalRules {
		if !strings.Contains(q, rule.trigger) {
			continue
		}
		answer := "No"
		if strings.Contains(combined, rule.evidence) {
			answer = "Yes"
		}
		logger.DebugContext(ctx, "answered by literal rule", "trigger", rule.trigger, "answer", answer)
		return Synthesis{Text: answer, Deterministic: true}, nil
	}

	prompt := BuildPrompt(combined, query)
	logger.DebugContext(ctx, "generating answer", "prompt_length", len(prompt))

	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return Synthesis{}, fmt.Errorf("%w: generate answer: %w", ErrCollaborator, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Synthesis{}, fmt.Errorf("%w: generator returned empty output", ErrCollaborator)
	}

	return Synthesis{Text: out}, nil
}

// BuildPrompt renders the grounding prompt for the generator.
func BuildPrompt(combined, query string) string {
	return "\nAnswer clearly using ONLY the context below.\n\nContext:\n" + combined +
		"\n\nQuestion:\n" + query + "\n\nAnswer:\n"
}
