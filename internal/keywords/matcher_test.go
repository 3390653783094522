package keywords

import (
	"testing"

	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kw(text string, imp types.Importance) types.ExtractedKeyword {
	return types.ExtractedKeyword{Text: text, Category: types.CategoryTechnology, Importance: imp}
}

func TestMatch(t *testing.T) {
	table := DefaultVariantTable()
	resume := "Built services in Python on AWS, deployed with K8s and Terraform."

	keywords := []types.ExtractedKeyword{
		kw("Python", types.ImportanceHigh),
		kw("AWS", types.ImportanceHigh),
		kw("Docker", types.ImportanceMedium),
		kw("Kubernetes", types.ImportanceMedium),
	}

	matched, missing := Match(keywords, resume, table)
	require.Len(t, matched, 3)
	require.Len(t, missing, 1)
	assert.Equal(t, "Docker", missing[0].Text)

	byText := map[string]types.KeywordMatch{}
	for _, m := range matched {
		byText[m.Keyword.Text] = m
	}
	assert.Equal(t, types.MatchExact, byText["Python"].MatchType)
	assert.Equal(t, types.MatchExact, byText["AWS"].MatchType)
	assert.Equal(t, types.MatchVariant, byText["Kubernetes"].MatchType)
	assert.Contains(t, byText["Kubernetes"].Context, "K8s")
	assert.True(t, byText["Python"].Found)

	if rate := MatchRate(len(matched), len(missing)); rate != 75 {
		t.Errorf("Expected match rate 75, got %d", rate)
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	matched, missing := Match([]types.ExtractedKeyword{kw("javascript", types.ImportanceHigh)}, "Wrote JAVASCRIPT daily", DefaultVariantTable())
	require.Len(t, matched, 1)
	assert.Empty(t, missing)
	assert.Equal(t, types.MatchExact, matched[0].MatchType)
}

func TestMatchEmptyInputs(t *testing.T) {
	matched, missing := Match(nil, "anything", DefaultVariantTable())
	assert.NotNil(t, matched)
	assert.NotNil(t, missing)
	assert.Empty(t, matched)
	assert.Empty(t, missing)
}

func TestMatchRate(t *testing.T) {
	tests := []struct {
		name             string
		matched, missing int
		expected         int
	}{
		{"no keywords", 0, 0, 0},
		{"half", 2, 2, 50},
		{"all", 5, 0, 100},
		{"none", 0, 4, 0},
		{"rounds up", 2, 1, 67},
		{"rounds down", 1, 2, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchRate(tt.matched, tt.missing); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestIndexFold(t *testing.T) {
	tests := []struct {
		name    string
		s, sub  string
		wantPos int
		wantLen int
	}{
		{"ascii", "Hello World", "world", 6, 5},
		{"missing", "Hello", "bye", -1, 0},
		{"empty needle", "Hello", "  ", -1, 0},
		{"unicode haystack", "İstanbul Go developer", "go", 10, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, n := indexFold(tt.s, tt.sub)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantLen, n)
		})
	}
}

func TestSnippetCollapsesWhitespace(t *testing.T) {
	s := "line one\n\n   uses   Go\tat work"
	pos, n := indexFold(s, "go")
	got := snippet(s, pos, n)
	assert.Equal(t, "line one uses Go at work", got)
}
