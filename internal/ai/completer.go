// Package ai provides the language-model completion capability used by the
// keyword engine, suggestion generators and judge.
package ai

import (
	"context"

	"google.golang.org/genai"
)

// Prompt is a single completion request
type Prompt struct {
	// Operation names the call for tracing and logs, e.g. "extract_keywords"
	Operation string
	System    string
	User      string
	// Schema constrains the JSON response when the provider supports it
	Schema *genai.Schema
}

// Completer returns the raw text of a model completion
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// CompleterFunc adapts a function to the Completer interface
type CompleterFunc func(ctx context.Context, prompt Prompt) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// UsageCompleter is implemented by completers that report token usage
type UsageCompleter interface {
	Completer
	CompleteWithUsage(ctx context.Context, prompt Prompt) (string, *TokenUsage, error)
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
