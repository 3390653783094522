package scoring

import (
	"math"
	"testing"

	"resumescan/internal/errors"
	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestComputeScoreOverall(t *testing.T) {
	engine := NewEngine()

	// density 48 -> quantification score 60
	got, err := engine.ComputeScore(Input{
		Keywords:     &types.KeywordAnalysisResult{MatchRate: 80},
		Density:      48,
		ContentScore: 85,
		FormatScore:  90,
		SkillsScore:  intPtr(70),
	})
	require.NoError(t, err)

	cats := got.Categories
	assert.Equal(t, 80, cats.KeywordAlignment.Score)
	assert.Equal(t, 85, cats.ContentRelevance.Score)
	assert.Equal(t, 60, cats.QuantificationImpact.Score)
	assert.Equal(t, 90, cats.FormatStructure.Score)
	assert.Equal(t, 70, cats.SkillsCoverage.Score)

	if got.Overall != 77 {
		t.Errorf("Expected overall 77, got %d", got.Overall)
	}

	require.NotNil(t, cats.QuantificationImpact.QuantificationDensity)
	assert.Equal(t, 48, *cats.QuantificationImpact.QuantificationDensity)
	assert.Nil(t, cats.KeywordAlignment.QuantificationDensity)
}

func TestComputeScoreWeightsSumToOne(t *testing.T) {
	engine := NewEngine()
	inputs := []Input{
		{},
		{Keywords: &types.KeywordAnalysisResult{MatchRate: 100}, Density: 100, ContentScore: 100, FormatScore: 100},
		{Keywords: &types.KeywordAnalysisResult{MatchRate: 13}, Density: 7, ContentScore: -40, FormatScore: 400},
	}

	for _, in := range inputs {
		got, err := engine.ComputeScore(in)
		require.NoError(t, err)

		var sum float64
		for _, c := range got.Categories.All() {
			sum += c.Weight
			assert.GreaterOrEqual(t, c.Score, 0)
			assert.LessOrEqual(t, c.Score, 100)
			assert.NotEmpty(t, c.Reason)
		}
		assert.InDelta(t, 1.0, sum, 0.01)
	}
}

func TestComputeScoreClamps(t *testing.T) {
	got, err := NewEngine().ComputeScore(Input{ContentScore: 150, FormatScore: -5, Density: 300})
	require.NoError(t, err)
	assert.Equal(t, 100, got.Categories.ContentRelevance.Score)
	assert.Equal(t, 0, got.Categories.FormatStructure.Score)
	assert.Equal(t, 100, *got.Categories.QuantificationImpact.QuantificationDensity)
}

func TestInvalidWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
	}{
		{"sum too high", Weights{0.5, 0.5, 0.5, 0, 0}},
		{"sum too low", Weights{0.1, 0.1, 0.1, 0.1, 0.1}},
		{"negative", Weights{1.2, -0.2, 0, 0, 0}},
		{"nan", Weights{math.NaN(), 0.25, 0.25, 0.25, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngineWithWeights(tt.weights)
			require.Error(t, err)
			if code := errors.CodeOf(err); code != errors.ErrCodeInternal {
				t.Errorf("Expected code %s, got %s", errors.ErrCodeInternal, code)
			}
		})
	}

	_, err := NewEngineWithWeights(Weights{0.2, 0.2, 0.2, 0.2, 0.205})
	assert.NoError(t, err, "sum within tolerance is accepted")
}

func TestQuantificationScore(t *testing.T) {
	tests := []struct {
		density  int
		expected int
	}{
		{0, 0},
		{40, 50},
		{50, 63},
		{79, 99},
		{80, 100},
		{95, 100},
	}

	for _, tt := range tests {
		if got := QuantificationScore(tt.density); got != tt.expected {
			t.Errorf("QuantificationScore(%d): expected %d, got %d", tt.density, tt.expected, got)
		}
	}
}

func TestSkillsCoverage(t *testing.T) {
	match := func(text string, cat types.KeywordCategory) types.KeywordMatch {
		return types.KeywordMatch{Keyword: types.ExtractedKeyword{Text: text, Category: cat}, Found: true}
	}

	t.Run("skill categories only", func(t *testing.T) {
		kw := &types.KeywordAnalysisResult{
			Matched: []types.KeywordMatch{
				match("Go", types.CategoryTechnology),
				match("leadership", types.CategorySoftSkill),
			},
			Missing: []types.ExtractedKeyword{
				{Text: "CKA", Category: types.CategoryCertification},
				{Text: "Rust", Category: types.CategoryTechnology},
				{Text: "BSc", Category: types.CategoryQualification},
			},
			MatchRate: 40,
		}
		assert.Equal(t, 33, SkillsCoverage(kw))
	})

	t.Run("falls back to match rate", func(t *testing.T) {
		kw := &types.KeywordAnalysisResult{
			Matched:   []types.KeywordMatch{match("teamwork", types.CategorySoftSkill)},
			MatchRate: 100,
		}
		assert.Equal(t, 100, SkillsCoverage(kw))
	})

	t.Run("nil analysis", func(t *testing.T) {
		assert.Equal(t, 0, SkillsCoverage(nil))
	})
}

func TestReasonBands(t *testing.T) {
	assert.Equal(t, keywordReasons[0], keywordReasons.pick(80))
	assert.Equal(t, keywordReasons[1], keywordReasons.pick(79))
	assert.Equal(t, keywordReasons[2], keywordReasons.pick(40))
	assert.Equal(t, keywordReasons[3], keywordReasons.pick(39))
}
