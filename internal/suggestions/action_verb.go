package suggestions

import (
	"context"
	"strings"
	"unicode"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/types"
)

// strongVerbs are opening verbs that already read as accomplishments
var strongVerbs = toSet(
	"accelerated", "achieved", "architected", "automated", "built", "championed",
	"consolidated", "created", "cut", "debugged", "decreased", "delivered",
	"deployed", "designed", "developed", "directed", "drove", "eliminated",
	"engineered", "established", "expanded", "generated", "grew", "implemented",
	"improved", "increased", "initiated", "integrated", "introduced", "launched",
	"led", "managed", "mentored", "migrated", "modernized", "negotiated",
	"optimized", "orchestrated", "overhauled", "pioneered", "produced",
	"reduced", "redesigned", "refactored", "resolved", "revamped", "saved",
	"scaled", "shipped", "spearheaded", "streamlined", "trained", "transformed",
	"won", "wrote",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// HasStrongVerb reports whether a bullet opens with a strong action verb
func HasStrongVerb(bullet string) bool {
	fields := strings.Fields(bullet)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimFunc(fields[0], func(r rune) bool { return !unicode.IsLetter(r) }))
	return strongVerbs[first]
}

// ActionVerbGenerator rewrites bullets that open weakly
type ActionVerbGenerator struct {
	completer ai.Completer
	config    config.OperationAIConfig
	schema    *ai.ResponseSchema
}

// NewActionVerbGenerator creates the action-verb generator
func NewActionVerbGenerator(c ai.Completer, cfg config.OperationAIConfig) *ActionVerbGenerator {
	return &ActionVerbGenerator{completer: c, config: cfg, schema: rewriteSchema()}
}

func (g *ActionVerbGenerator) Name() string { return "action_verb" }

func (g *ActionVerbGenerator) Applies(section types.Section) bool {
	return section == types.SectionExperience || section == types.SectionProjects
}

func (g *ActionVerbGenerator) Generate(ctx context.Context, req Request) ([]types.Suggestion, error) {
	var weak []numbered
	for i, b := range req.Bullets {
		if !HasStrongVerb(b) {
			weak = append(weak, numbered{i, b})
		}
	}
	if len(weak) == 0 {
		return nil, nil
	}

	rewrites, err := requestRewrites(ctx, g.completer, g.config, "suggest_action_verb", config.PromptActionVerb,
		map[string]string{"section": string(req.Section)}, g.schema, weak)
	if err != nil {
		return nil, err
	}

	out := make([]types.Suggestion, 0, len(rewrites))
	for _, r := range rewrites {
		out = append(out, types.Suggestion{
			ItemIndex:      r.Index,
			OriginalText:   req.Bullets[r.Index],
			SuggestedText:  r.Text,
			SuggestionType: types.TypeActionVerb,
			Reasoning:      "Opens with a stronger action verb.",
		})
	}
	return out, nil
}
