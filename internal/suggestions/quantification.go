package suggestions

import (
	"context"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/quantification"
	"resumescan/internal/types"
)

// QuantificationGenerator asks for measurable outcomes on bullets without metrics
type QuantificationGenerator struct {
	completer ai.Completer
	config    config.OperationAIConfig
	schema    *ai.ResponseSchema
}

// NewQuantificationGenerator creates the quantification generator
func NewQuantificationGenerator(c ai.Completer, cfg config.OperationAIConfig) *QuantificationGenerator {
	return &QuantificationGenerator{completer: c, config: cfg, schema: rewriteSchema("reasoning")}
}

func (g *QuantificationGenerator) Name() string { return "quantification" }

func (g *QuantificationGenerator) Applies(section types.Section) bool {
	return section == types.SectionExperience || section == types.SectionProjects
}

func (g *QuantificationGenerator) Generate(ctx context.Context, req Request) ([]types.Suggestion, error) {
	var bare []numbered
	for i, b := range req.Bullets {
		if !quantification.AnalyzeBullet(b).HasMetrics {
			bare = append(bare, numbered{i, b})
		}
	}
	if len(bare) == 0 {
		return nil, nil
	}

	rewrites, err := requestRewrites(ctx, g.completer, g.config, "suggest_quantification", config.PromptQuantification,
		map[string]string{"section": string(req.Section)}, g.schema, bare)
	if err != nil {
		return nil, err
	}

	out := make([]types.Suggestion, 0, len(rewrites))
	for _, r := range rewrites {
		reasoning := r.Reasoning
		if reasoning == "" {
			reasoning = "Adds a measurable outcome."
		}
		out = append(out, types.Suggestion{
			ItemIndex:      r.Index,
			OriginalText:   req.Bullets[r.Index],
			SuggestedText:  r.Text,
			SuggestionType: types.TypeQuantification,
			Reasoning:      reasoning,
		})
	}
	return out, nil
}
