package keywords

import (
	"math"
	"strings"
	"unicode/utf8"

	"resumescan/internal/types"
)

// contextRadius is how many bytes of resume text either side of a hit are
// kept in KeywordMatch.Context
const contextRadius = 40

// Match checks every keyword against resumeText. A case-insensitive substring
// hit on the canonical form is an exact match, a hit on any variant is a
// variant match.
func Match(keywords []types.ExtractedKeyword, resumeText string, table *VariantTable) ([]types.KeywordMatch, []types.ExtractedKeyword) {
	matched := []types.KeywordMatch{}
	missing := []types.ExtractedKeyword{}

	for _, kw := range keywords {
		canonical, variants := table.Forms(kw.Text)

		if pos, n := indexFold(resumeText, canonical); pos >= 0 {
			matched = append(matched, types.KeywordMatch{
				Keyword:   kw,
				Found:     true,
				MatchType: types.MatchExact,
				Context:   snippet(resumeText, pos, n),
			})
			continue
		}

		found := false
		for _, v := range variants {
			if pos, n := indexFold(resumeText, v); pos >= 0 {
				matched = append(matched, types.KeywordMatch{
					Keyword:   kw,
					Found:     true,
					MatchType: types.MatchVariant,
					Context:   snippet(resumeText, pos, n),
				})
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, kw)
		}
	}
	return matched, missing
}

// MatchRate is round(matched / (matched + missing) * 100), or 0 with no keywords
func MatchRate(matched, missing int) int {
	total := matched + missing
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(matched) / float64(total) * 100))
}

// indexFold returns the byte offset and length of the first case-insensitive
// occurrence of substr in s, or -1.
func indexFold(s, substr string) (int, int) {
	substr = strings.TrimSpace(substr)
	if substr == "" {
		return -1, 0
	}

	lower := strings.ToLower(s)
	if len(lower) == len(s) {
		ls := strings.ToLower(substr)
		if i := strings.Index(lower, ls); i >= 0 {
			return i, len(ls)
		}
		return -1, 0
	}

	// lowercasing changed byte lengths, fall back to a rune-aligned scan
	want := utf8.RuneCountInString(substr)
	for i := range s {
		end := i
		for r := 0; r < want && end < len(s); r++ {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}
		if strings.EqualFold(s[i:end], substr) {
			return i, end - i
		}
	}
	return -1, 0
}

// snippet returns whitespace-collapsed text around s[pos:pos+n]
func snippet(s string, pos, n int) string {
	start := max(pos-contextRadius, 0)
	for start > 0 && !utf8.RuneStart(s[start]) {
		start--
	}
	end := min(pos+n+contextRadius, len(s))
	for end < len(s) && !utf8.RuneStart(s[end]) {
		end++
	}
	return strings.Join(strings.Fields(s[start:end]), " ")
}
