// Package scoring combines keyword, quantification and qualitative signals
// into an explained, weighted compatibility score.
package scoring

import (
	"fmt"
	"math"

	"resumescan/internal/errors"
	"resumescan/internal/types"
)

// weightTolerance is how far the weight sum may drift from 1.0
const weightTolerance = 0.01

// Weights assigns each category its share of the overall score
type Weights struct {
	KeywordAlignment     float64
	ContentRelevance     float64
	QuantificationImpact float64
	FormatStructure      float64
	SkillsCoverage       float64
}

// DefaultWeights are the fixed category weights
var DefaultWeights = Weights{
	KeywordAlignment:     0.25,
	ContentRelevance:     0.25,
	QuantificationImpact: 0.20,
	FormatStructure:      0.15,
	SkillsCoverage:       0.15,
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.KeywordAlignment + w.ContentRelevance + w.QuantificationImpact + w.FormatStructure + w.SkillsCoverage
}

// Validate checks that the weights are non-negative and sum to 1.0
func (w Weights) Validate() error {
	for _, v := range []float64{w.KeywordAlignment, w.ContentRelevance, w.QuantificationImpact, w.FormatStructure, w.SkillsCoverage} {
		if v < 0 || math.IsNaN(v) {
			return errors.NewInternalError(errors.ErrCodeInternal, fmt.Sprintf("negative or NaN category weight %v", v), nil)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return errors.NewInternalError(errors.ErrCodeInternal,
			fmt.Sprintf("category weights sum to %.4f, expected 1.0", sum), nil).
			WithContext("weight_sum", sum)
	}
	return nil
}

// Input carries every signal ComputeScore consumes
type Input struct {
	Keywords *types.KeywordAnalysisResult
	// Density is the quantification density, 0-100
	Density int
	// ContentScore and FormatScore come from upstream qualitative analyzers
	ContentScore int
	FormatScore  int
	// SkillsScore overrides the coverage derived from Keywords when set
	SkillsScore *int
}

// Engine computes score breakdowns with a fixed set of weights
type Engine struct {
	weights Weights
}

// NewEngine creates an engine with DefaultWeights
func NewEngine() *Engine {
	return &Engine{weights: DefaultWeights}
}

// NewEngineWithWeights creates an engine after validating weights
func NewEngineWithWeights(w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: w}, nil
}

// Weights returns the engine's category weights
func (e *Engine) Weights() Weights {
	return e.weights
}

// ComputeScore builds the explained score breakdown for in
func (e *Engine) ComputeScore(in Input) (types.ScoreBreakdown, error) {
	if err := e.weights.Validate(); err != nil {
		return types.ScoreBreakdown{}, err
	}

	matchRate := 0
	if in.Keywords != nil {
		matchRate = in.Keywords.MatchRate
	}
	density := Clamp(in.Density)
	skills := SkillsCoverage(in.Keywords)
	if in.SkillsScore != nil {
		skills = Clamp(*in.SkillsScore)
	}

	quant := category(QuantificationScore(density), e.weights.QuantificationImpact, quantificationReasons)
	quant.QuantificationDensity = &density

	cats := types.ScoreCategories{
		KeywordAlignment:     category(matchRate, e.weights.KeywordAlignment, keywordReasons),
		ContentRelevance:     category(in.ContentScore, e.weights.ContentRelevance, contentReasons),
		QuantificationImpact: quant,
		FormatStructure:      category(in.FormatScore, e.weights.FormatStructure, formatReasons),
		SkillsCoverage:       category(skills, e.weights.SkillsCoverage, skillsReasons),
	}

	var total float64
	for _, c := range cats.All() {
		total += float64(c.Score) * c.Weight
	}

	return types.ScoreBreakdown{
		Overall:    Clamp(int(math.Round(total))),
		Categories: cats,
	}, nil
}

func category(score int, weight float64, reasons bandReasons) types.CategoryScore {
	score = Clamp(score)
	return types.CategoryScore{
		Score:  score,
		Weight: weight,
		Reason: reasons.pick(score),
	}
}

// Clamp bounds a score to 0-100
func Clamp(score int) int {
	return min(max(score, 0), 100)
}

// QuantificationScore maps density onto a score: 80% density or more is a
// full score, anything below is scaled by 1.25.
func QuantificationScore(density int) int {
	if density >= 80 {
		return 100
	}
	return Clamp(int(math.Round(float64(density) * 1.25)))
}

var skillCategories = map[types.KeywordCategory]bool{
	types.CategorySkill:         true,
	types.CategoryTechnology:    true,
	types.CategoryCertification: true,
}

// SkillsCoverage is the match rate over skill, technology and certification
// keywords, or the overall match rate when there are none.
func SkillsCoverage(kw *types.KeywordAnalysisResult) int {
	if kw == nil {
		return 0
	}
	matched, missing := 0, 0
	for _, m := range kw.Matched {
		if skillCategories[m.Keyword.Category] {
			matched++
		}
	}
	for _, k := range kw.Missing {
		if skillCategories[k.Category] {
			missing++
		}
	}
	if matched+missing == 0 {
		return kw.MatchRate
	}
	return int(math.Round(float64(matched) / float64(matched+missing) * 100))
}
