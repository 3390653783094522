package keywords

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/errors"
	"resumescan/internal/types"

	"google.golang.org/genai"
)

// DefaultMaxKeywords bounds the extracted keyword list
const DefaultMaxKeywords = 30

var extractionSchema = ai.MustResponseSchema(&genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"keywords": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text":       {Type: genai.TypeString},
					"category":   {Type: genai.TypeString},
					"importance": {Type: genai.TypeString},
				},
				Required: []string{"text", "category", "importance"},
			},
		},
	},
	Required: []string{"keywords"},
})

type extractionResponse struct {
	Keywords []types.ExtractedKeyword `json:"keywords"`
}

// CacheRecorder observes cache lookups
type CacheRecorder interface {
	RecordCacheLookup(ctx context.Context, cache string, hit bool)
}

// Options configures an Engine
type Options struct {
	Table       *VariantTable
	Cache       Cache
	AIConfig    config.OperationAIConfig
	MaxKeywords int
	Recorder    CacheRecorder
	Logger      *errors.Logger
}

// Engine extracts keywords with an LLM and matches them against resumes
type Engine struct {
	completer   ai.Completer
	table       *VariantTable
	cache       Cache
	aiConfig    config.OperationAIConfig
	maxKeywords int
	recorder    CacheRecorder
	logger      *errors.Logger
	now         func() time.Time
}

// NewEngine creates a keyword engine. Missing options fall back to the
// default variant table, no cache and DefaultMaxKeywords.
func NewEngine(completer ai.Completer, opts Options) *Engine {
	e := &Engine{
		completer:   completer,
		table:       opts.Table,
		cache:       opts.Cache,
		aiConfig:    opts.AIConfig,
		maxKeywords: opts.MaxKeywords,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		now:         time.Now,
	}
	if e.table == nil {
		e.table = DefaultVariantTable()
	}
	if e.cache == nil {
		e.cache = NopCache{}
	}
	if e.maxKeywords <= 0 {
		e.maxKeywords = DefaultMaxKeywords
	}
	if e.logger == nil {
		e.logger = errors.NewNopLogger()
	}
	return e
}

// Table returns the engine's variant table
func (e *Engine) Table() *VariantTable {
	return e.table
}

// AnalyzeKeywords extracts keywords from jobText and matches them against resumeText
func (e *Engine) AnalyzeKeywords(ctx context.Context, jobText, resumeText string) (*types.KeywordAnalysisResult, error) {
	if strings.TrimSpace(jobText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "job text is empty", nil)
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "resume text is empty", nil)
	}

	keywords, err := e.ExtractKeywords(ctx, jobText)
	if err != nil {
		return nil, err
	}

	matched, missing := Match(keywords, resumeText, e.table)
	result := &types.KeywordAnalysisResult{
		Matched:    matched,
		Missing:    missing,
		MatchRate:  MatchRate(len(matched), len(missing)),
		AnalyzedAt: e.now().UTC(),
	}

	e.logger.Debug("Keyword analysis complete",
		"keywords", len(keywords),
		"matched", len(matched),
		"match_rate", result.MatchRate)
	return result, nil
}

// ExtractKeywords returns the deduplicated, importance-ranked keywords of a job posting
func (e *Engine) ExtractKeywords(ctx context.Context, jobText string) ([]types.ExtractedKeyword, error) {
	if strings.TrimSpace(jobText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "job text is empty", nil)
	}

	key := CacheKey(jobText)
	if cached, ok := e.lookupCache(ctx, key); ok {
		return cached, nil
	}

	prompt := ai.BuildPrompt(e.aiConfig, "extract_keywords", config.PromptKeywordExtraction, map[string]string{
		"job_text":     jobText,
		"max_keywords": strconv.Itoa(e.maxKeywords),
	})
	prompt.Schema = extractionSchema.Model

	raw, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewAIError(errors.ErrCodeLLM, "keyword extraction failed", err)
	}

	resp, err := ai.DecodeJSON[extractionResponse](raw, extractionSchema)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLM, "keyword extraction returned an invalid response", err)
	}

	keywords := e.normalize(resp.Keywords)
	if len(keywords) == 0 {
		return nil, errors.NewAIError(errors.ErrCodeLLM, "keyword extraction returned no keywords", nil)
	}

	if err := e.cache.Set(ctx, key, keywords); err != nil {
		e.logger.Warn("Failed to cache extracted keywords", "error", err.Error())
	}
	return keywords, nil
}

func (e *Engine) lookupCache(ctx context.Context, key string) ([]types.ExtractedKeyword, bool) {
	cached, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("Keyword cache lookup failed, calling the model", "error", err.Error())
		return nil, false
	}
	if e.recorder != nil {
		e.recorder.RecordCacheLookup(ctx, "keywords", ok && len(cached) > 0)
	}
	if !ok || len(cached) == 0 {
		return nil, false
	}
	e.logger.Debug("Keyword cache hit", "keywords", len(cached))
	return cached, true
}

var importanceRank = map[types.Importance]int{
	types.ImportanceHigh:   0,
	types.ImportanceMedium: 1,
	types.ImportanceLow:    2,
}

var validCategories = map[types.KeywordCategory]bool{
	types.CategorySkill:         true,
	types.CategoryTechnology:    true,
	types.CategoryQualification: true,
	types.CategoryExperience:    true,
	types.CategorySoftSkill:     true,
	types.CategoryCertification: true,
}

// normalize drops malformed entries, canonicalizes and deduplicates keywords
// case-insensitively keeping the highest importance, then ranks and bounds the list.
func (e *Engine) normalize(raw []types.ExtractedKeyword) []types.ExtractedKeyword {
	out := make([]types.ExtractedKeyword, 0, len(raw))
	seen := make(map[string]int)

	for _, kw := range raw {
		kw.Category = types.KeywordCategory(strings.ToLower(strings.TrimSpace(string(kw.Category))))
		kw.Importance = types.Importance(strings.ToLower(strings.TrimSpace(string(kw.Importance))))
		if _, ok := importanceRank[kw.Importance]; !ok || !validCategories[kw.Category] {
			continue
		}
		kw.Text = e.table.Canonical(kw.Text)
		if kw.Text == "" {
			continue
		}

		key := strings.ToLower(kw.Text)
		if i, dup := seen[key]; dup {
			if importanceRank[kw.Importance] < importanceRank[out[i].Importance] {
				out[i].Importance = kw.Importance
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, kw)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return importanceRank[out[i].Importance] < importanceRank[out[j].Importance]
	})
	if len(out) > e.maxKeywords {
		out = out[:e.maxKeywords]
	}
	return out
}
