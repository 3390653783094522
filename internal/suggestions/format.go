package suggestions

import (
	"context"
	"fmt"
	"strings"

	"resumescan/internal/types"
)

// maxBulletWords is the length past which a bullet gets a format suggestion
const maxBulletWords = 40

// fillerPrefixes open bullets that describe duties rather than results
var fillerPrefixes = []string{
	"responsible for",
	"i was responsible for",
	"i am responsible for",
	"duties included",
	"my duties included",
	"references available",
	"references upon request",
	"references available upon request",
}

// FormatGenerator flags overlong bullets and filler lines
type FormatGenerator struct{}

// NewFormatGenerator creates the rule-based format/removal generator
func NewFormatGenerator() *FormatGenerator {
	return &FormatGenerator{}
}

func (g *FormatGenerator) Name() string { return "format" }

func (g *FormatGenerator) Applies(section types.Section) bool {
	return section == types.SectionFormat
}

func (g *FormatGenerator) Generate(_ context.Context, req Request) ([]types.Suggestion, error) {
	var out []types.Suggestion
	for i, bullet := range req.Bullets {
		if isFiller(bullet) {
			out = append(out, types.Suggestion{
				ItemIndex:      i,
				OriginalText:   bullet,
				SuggestedText:  "",
				SuggestionType: types.TypeRemoval,
				Reasoning:      "Filler line that lists duties or boilerplate instead of results.",
			})
			continue
		}
		if words := strings.Fields(bullet); len(words) > maxBulletWords {
			out = append(out, types.Suggestion{
				ItemIndex:      i,
				OriginalText:   bullet,
				SuggestedText:  condense(bullet),
				SuggestionType: types.TypeFormat,
				Reasoning:      fmt.Sprintf("Bullet runs %d words; keep bullets under %d so they scan quickly.", len(words), maxBulletWords),
			})
		}
	}
	return out, nil
}

func isFiller(bullet string) bool {
	lower := strings.ToLower(strings.Join(strings.Fields(bullet), " "))
	for _, p := range fillerPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// condense keeps the first sentence, cut to maxBulletWords words
func condense(bullet string) string {
	text := strings.Join(strings.Fields(bullet), " ")
	for _, sep := range []string{". ", "; "} {
		if i := strings.Index(text, sep); i > 0 {
			text = text[:i]
			break
		}
	}
	words := strings.Fields(text)
	if len(words) > maxBulletWords {
		words = words[:maxBulletWords]
	}
	return strings.TrimRight(strings.Join(words, " "), ",;:") + "."
}
