// Package judge scores suggestions against a fixed rubric before they are
// shown as verified.
package judge

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/errors"
	"resumescan/internal/types"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

const (
	// PassThreshold is the minimum quality score for a passing verdict
	PassThreshold = 70
	// DefaultConcurrency bounds concurrent judge calls in a batch
	DefaultConcurrency = 4
	// DefaultExcerptRunes is the job description excerpt length
	DefaultExcerptRunes = 1500

	maxCriterion = 25
)

var verdictSchema = ai.MustResponseSchema(&genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"quality_score": {Type: genai.TypeNumber},
		"criteria_breakdown": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"authenticity":  {Type: genai.TypeNumber},
				"clarity":       {Type: genai.TypeNumber},
				"ats_relevance": {Type: genai.TypeNumber},
				"actionability": {Type: genai.TypeNumber},
			},
			Required: []string{"authenticity", "clarity", "ats_relevance", "actionability"},
		},
		"recommendation": {Type: genai.TypeString},
		"reasoning":      {Type: genai.TypeString},
	},
	Required: []string{"quality_score", "criteria_breakdown", "recommendation"},
})

type verdict struct {
	QualityScore float64 `json:"quality_score"`
	Criteria     struct {
		Authenticity  float64 `json:"authenticity"`
		Clarity       float64 `json:"clarity"`
		ATSRelevance  float64 `json:"ats_relevance"`
		Actionability float64 `json:"actionability"`
	} `json:"criteria_breakdown"`
	Recommendation string `json:"recommendation"`
	Reasoning      string `json:"reasoning"`
}

// Input is one suggestion to evaluate
type Input struct {
	SuggestionID string        `json:"suggestionId"`
	Original     string        `json:"original" validate:"required"`
	Suggested    string        `json:"suggested"`
	JDExcerpt    string        `json:"jdExcerpt"`
	Section      types.Section `json:"section" validate:"required"`
}

// Recorder observes judge verdicts
type Recorder interface {
	RecordJudgeVerdict(ctx context.Context, passed bool, score int)
}

// Options configures a Judge
type Options struct {
	AIConfig     config.OperationAIConfig
	Concurrency  int
	ExcerptRunes int
	Recorder     Recorder
	Logger       *errors.Logger
}

// Judge evaluates suggestions with a rubric-constrained model call
type Judge struct {
	completer    ai.Completer
	config       config.OperationAIConfig
	concurrency  int
	excerptRunes int
	recorder     Recorder
	logger       *errors.Logger
}

// New creates a judge
func New(completer ai.Completer, opts Options) *Judge {
	j := &Judge{
		completer:    completer,
		config:       opts.AIConfig,
		concurrency:  opts.Concurrency,
		excerptRunes: opts.ExcerptRunes,
		recorder:     opts.Recorder,
		logger:       opts.Logger,
	}
	if j.concurrency <= 0 {
		j.concurrency = DefaultConcurrency
	}
	if j.excerptRunes <= 0 {
		j.excerptRunes = DefaultExcerptRunes
	}
	if j.logger == nil {
		j.logger = errors.NewNopLogger()
	}
	return j
}

// Excerpt returns the job text cut to the judge's excerpt length
func (j *Judge) Excerpt(jobText string) string {
	return Excerpt(jobText, j.excerptRunes)
}

// Excerpt truncates text to at most n runes
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}

// JudgeSuggestion scores one suggestion. Errors are typed AI errors and
// leave the suggestion unverified rather than failed.
func (j *Judge) JudgeSuggestion(ctx context.Context, in Input) (*types.JudgeResult, error) {
	if strings.TrimSpace(in.Original) == "" && strings.TrimSpace(in.Suggested) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "original and suggested text are both empty", nil)
	}

	suggested := in.Suggested
	if strings.TrimSpace(suggested) == "" {
		suggested = "(remove this item)"
	}

	prompt := ai.BuildPrompt(j.config, "judge_suggestion", config.PromptJudge, map[string]string{
		"section":    string(in.Section),
		"original":   in.Original,
		"suggested":  suggested,
		"jd_excerpt": Excerpt(in.JDExcerpt, j.excerptRunes),
	})
	prompt.Schema = verdictSchema.Model

	raw, err := j.completer.Complete(ctx, prompt)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewAIError(errors.ErrCodeLLM, "judge call failed", err)
	}

	v, err := ai.DecodeJSON[verdict](raw, verdictSchema)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLM, "judge returned an invalid response", err)
	}

	result := &types.JudgeResult{
		SuggestionID: in.SuggestionID,
		QualityScore: clamp(v.QualityScore, 100),
		CriteriaBreakdown: types.CriteriaBreakdown{
			Authenticity:  clamp(v.Criteria.Authenticity, maxCriterion),
			Clarity:       clamp(v.Criteria.Clarity, maxCriterion),
			ATSRelevance:  clamp(v.Criteria.ATSRelevance, maxCriterion),
			Actionability: clamp(v.Criteria.Actionability, maxCriterion),
		},
		Recommendation: parseRecommendation(v.Recommendation),
		Reasoning:      strings.TrimSpace(v.Reasoning),
	}
	result.Passed = result.QualityScore >= PassThreshold

	j.logger.Debug("Judge verdict",
		"suggestion_id", result.SuggestionID,
		"quality_score", result.QualityScore,
		"passed", result.Passed,
		"recommendation", string(result.Recommendation))
	if j.recorder != nil {
		j.recorder.RecordJudgeVerdict(ctx, result.Passed, result.QualityScore)
	}
	return result, nil
}

// JudgeBatch evaluates suggestions concurrently and returns the outcomes
// keyed by suggestion id. A judge failure yields an unverified entry with
// no verdict.
func (j *Judge) JudgeBatch(ctx context.Context, suggestions []types.Suggestion, jobText string) map[string]types.JudgedSuggestion {
	excerpt := j.Excerpt(jobText)
	outcomes := make([]types.JudgedSuggestion, len(suggestions))

	var g errgroup.Group
	g.SetLimit(j.concurrency)
	for i, s := range suggestions {
		g.Go(func() error {
			outcomes[i] = j.judgeOne(ctx, s, excerpt)
			return nil
		})
	}
	_ = g.Wait()

	byID := make(map[string]types.JudgedSuggestion, len(outcomes))
	for _, o := range outcomes {
		byID[o.Suggestion.ID] = o
	}
	return byID
}

func (j *Judge) judgeOne(ctx context.Context, s types.Suggestion, excerpt string) types.JudgedSuggestion {
	result, err := j.JudgeSuggestion(ctx, Input{
		SuggestionID: s.ID,
		Original:     s.OriginalText,
		Suggested:    s.SuggestedText,
		JDExcerpt:    excerpt,
		Section:      s.Section,
	})
	if err != nil {
		j.logger.LogError(err, "Judge failed, suggestion left unverified", "suggestion_id", s.ID)
		return types.JudgedSuggestion{
			Suggestion: s,
			Unverified: true,
			Retryable:  errors.IsRetryable(err),
			JudgeError: err.Error(),
		}
	}
	return types.JudgedSuggestion{
		Suggestion: s,
		Judge:      result,
		Verified:   result.Passed,
		Unverified: !result.Passed,
	}
}

func clamp(v float64, upper int) int {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(int(math.Round(v)), 0), upper)
}

func parseRecommendation(s string) types.Recommendation {
	switch r := types.Recommendation(strings.ToLower(strings.TrimSpace(s))); r {
	case types.RecommendAccept, types.RecommendReject, types.RecommendRevise:
		return r
	}
	return types.RecommendRevise
}
