package suggestions

import (
	"context"
	"fmt"
	"strings"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/errors"

	"google.golang.org/genai"
)

// rewrite is one LLM-proposed replacement for a numbered bullet
type rewrite struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Skill     string `json:"skill,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

type rewriteResponse struct {
	Rewrites []rewrite `json:"rewrites"`
}

func rewriteSchema(extra ...string) *ai.ResponseSchema {
	props := map[string]*genai.Schema{
		"index": {Type: genai.TypeInteger},
		"text":  {Type: genai.TypeString},
	}
	required := []string{"index", "text"}
	for _, name := range extra {
		props[name] = &genai.Schema{Type: genai.TypeString}
		required = append(required, name)
	}
	return ai.MustResponseSchema(&genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"rewrites": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required},
			},
		},
		Required: []string{"rewrites"},
	})
}

// numbered is a bullet passed to the model with its item index
type numbered struct {
	index int
	text  string
}

func formatBullets(bullets []numbered) string {
	var b strings.Builder
	for _, n := range bullets {
		fmt.Fprintf(&b, "[%d] %s\n", n.index, n.text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// requestRewrites sends the gated bullets to the model and returns the
// rewrites that address one of them with new text.
func requestRewrites(ctx context.Context, c ai.Completer, cfg config.OperationAIConfig, operation, promptName string,
	vars map[string]string, schema *ai.ResponseSchema, bullets []numbered) ([]rewrite, error) {
	if c == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, operation+" generator has no completer", nil)
	}

	vars["bullets"] = formatBullets(bullets)
	prompt := ai.BuildPrompt(cfg, operation, promptName, vars)
	prompt.Schema = schema.Model

	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewAIError(errors.ErrCodeLLM, operation+" generation failed", err)
	}

	resp, err := ai.DecodeJSON[rewriteResponse](raw, schema)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLM, operation+" returned an invalid response", err)
	}

	byIndex := make(map[int]string, len(bullets))
	for _, n := range bullets {
		byIndex[n.index] = n.text
	}

	var out []rewrite
	seen := make(map[int]bool)
	for _, r := range resp.Rewrites {
		original, ok := byIndex[r.Index]
		r.Text = strings.TrimSpace(r.Text)
		if !ok || seen[r.Index] || r.Text == "" || strings.EqualFold(r.Text, original) {
			continue
		}
		seen[r.Index] = true
		out = append(out, r)
	}
	return out, nil
}
