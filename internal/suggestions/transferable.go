package suggestions

import (
	"context"
	"strings"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/types"
)

// maxMissingKeywords bounds the missing keywords sent to the model
const maxMissingKeywords = 15

// TransferableSkillsGenerator maps existing experience onto missing keywords
type TransferableSkillsGenerator struct {
	completer ai.Completer
	config    config.OperationAIConfig
	schema    *ai.ResponseSchema
}

// NewTransferableSkillsGenerator creates the transferable-skills generator
func NewTransferableSkillsGenerator(c ai.Completer, cfg config.OperationAIConfig) *TransferableSkillsGenerator {
	return &TransferableSkillsGenerator{completer: c, config: cfg, schema: rewriteSchema("skill", "reasoning")}
}

func (g *TransferableSkillsGenerator) Name() string { return "transferable_skills" }

func (g *TransferableSkillsGenerator) Applies(section types.Section) bool {
	return section == types.SectionExperience
}

func (g *TransferableSkillsGenerator) Generate(ctx context.Context, req Request) ([]types.Suggestion, error) {
	if req.Keywords == nil || len(req.Keywords.Missing) == 0 {
		return nil, nil
	}

	missing := make([]string, 0, min(len(req.Keywords.Missing), maxMissingKeywords))
	for _, k := range req.Keywords.Missing {
		if len(missing) == maxMissingKeywords {
			break
		}
		missing = append(missing, "- "+k.Text)
	}

	bullets := make([]numbered, len(req.Bullets))
	for i, b := range req.Bullets {
		bullets[i] = numbered{i, b}
	}

	rewrites, err := requestRewrites(ctx, g.completer, g.config, "suggest_transferable_skills", config.PromptTransferableSkills,
		map[string]string{"missing_keywords": strings.Join(missing, "\n")}, g.schema, bullets)
	if err != nil {
		return nil, err
	}

	out := make([]types.Suggestion, 0, len(rewrites))
	for _, r := range rewrites {
		reasoning := r.Reasoning
		if reasoning == "" {
			reasoning = "Surfaces a skill the job asks for."
		}
		if r.Skill != "" {
			reasoning = "Maps to " + r.Skill + ": " + reasoning
		}
		out = append(out, types.Suggestion{
			ItemIndex:      r.Index,
			OriginalText:   req.Bullets[r.Index],
			SuggestedText:  r.Text,
			SuggestionType: types.TypeSkillMapping,
			Reasoning:      reasoning,
		})
	}
	return out, nil
}
