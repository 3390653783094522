// Package pipeline runs one resume analysis end to end: keyword analysis,
// scoring, suggestion generation, judging, quality logging and persistence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"resumescan/internal/errors"
	"resumescan/internal/judge"
	"resumescan/internal/keywords"
	"resumescan/internal/quality"
	"resumescan/internal/quantification"
	"resumescan/internal/resume"
	"resumescan/internal/scoring"
	"resumescan/internal/suggestions"
	"resumescan/internal/types"
)

// QualityFlag summarises how much of a run's output the judge verified
type QualityFlag string

const (
	FlagVerified   QualityFlag = "verified"
	FlagPartial    QualityFlag = "partial"
	FlagUnverified QualityFlag = "unverified"
)

// Store is the persistence port for finished runs
type Store interface {
	SaveAnalysis(ctx context.Context, scan types.Scan, suggestions []types.Suggestion, log types.QualityMetricLog) error
}

// KeywordAnalyzer extracts and matches job keywords
type KeywordAnalyzer interface {
	AnalyzeKeywords(ctx context.Context, jobText, resumeText string) (*types.KeywordAnalysisResult, error)
}

// SuggestionGenerator produces section suggestions for a parsed resume
type SuggestionGenerator interface {
	Generate(ctx context.Context, doc resume.Document, analysis *types.KeywordAnalysisResult, scanID string) (suggestions.Result, error)
}

// BatchJudge verifies suggestions, keyed by suggestion id
type BatchJudge interface {
	JudgeBatch(ctx context.Context, suggestions []types.Suggestion, jobText string) map[string]types.JudgedSuggestion
}

// Recorder observes finished runs
type Recorder interface {
	RecordAnalysis(ctx context.Context, flag string, suggestions int, duration time.Duration)
}

// Input is one analysis request. ContentScore and FormatScore come from
// upstream analyzers; when omitted they are derived from the keyword match
// rate and the structural findings.
type Input struct {
	ResumeText   string `json:"resumeText" validate:"required,max=200000"`
	JobText      string `json:"jobText" validate:"required,max=100000"`
	JobTitle     string `json:"jobTitle,omitempty" validate:"max=200"`
	ContentScore *int   `json:"contentScore,omitempty" validate:"omitempty,min=0,max=100"`
	FormatScore  *int   `json:"formatScore,omitempty" validate:"omitempty,min=0,max=100"`
	SkillsScore  *int   `json:"skillsScore,omitempty" validate:"omitempty,min=0,max=100"`
}

// AnalysisResult is everything a caller needs to render one run
type AnalysisResult struct {
	Scan           types.Scan                                 `json:"scan"`
	Keywords       *types.KeywordAnalysisResult               `json:"keywords"`
	Density        types.DensityResult                        `json:"density"`
	Score          types.ScoreBreakdown                       `json:"score"`
	Suggestions    map[types.Section][]types.JudgedSuggestion `json:"suggestions"`
	Structural     []types.StructuralSuggestion               `json:"structural"`
	FailedSections []suggestions.SectionError                 `json:"failedSections"`
	Quality        types.QualityMetricLog                     `json:"quality"`
	QualityFlag    QualityFlag                                `json:"qualityFlag"`
}

// Options wires a Pipeline
type Options struct {
	Keywords  KeywordAnalyzer
	Generator SuggestionGenerator
	Judge     BatchJudge
	Scoring   *scoring.Engine
	Store     Store
	AlertSink quality.AlertSink
	Recorder  Recorder
	Tracer    trace.Tracer
	Logger    *errors.Logger
}

// Pipeline runs analyses
type Pipeline struct {
	keywords  KeywordAnalyzer
	generator SuggestionGenerator
	judge     BatchJudge
	scoring   *scoring.Engine
	store     Store
	sink      quality.AlertSink
	recorder  Recorder
	tracer    trace.Tracer
	logger    *errors.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// New creates a pipeline. Keywords, Generator, Judge and Store are required.
func New(opts Options) (*Pipeline, error) {
	if opts.Keywords == nil || opts.Generator == nil || opts.Judge == nil || opts.Store == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "pipeline requires keywords, generator, judge and store", nil)
	}
	p := &Pipeline{
		keywords:  opts.Keywords,
		generator: opts.Generator,
		judge:     opts.Judge,
		scoring:   opts.Scoring,
		store:     opts.Store,
		sink:      opts.AlertSink,
		recorder:  opts.Recorder,
		tracer:    opts.Tracer,
		logger:    opts.Logger,
		validate:  validator.New(),
		now:       time.Now,
	}
	if p.scoring == nil {
		p.scoring = scoring.NewEngine()
	}
	if p.logger == nil {
		p.logger = errors.NewNopLogger()
	}
	if p.sink == nil {
		p.sink = quality.NewLoggerSink(p.logger)
	}
	if p.tracer == nil {
		p.tracer = noop.NewTracerProvider().Tracer("resumescan/pipeline")
	}
	return p, nil
}

// Run analyses one resume against one job posting for principal. Nothing is
// written until generation and judging finish; if ctx ends first the work is
// discarded and ctx.Err() is returned.
func (p *Pipeline) Run(ctx context.Context, principal string, in Input) (*AnalysisResult, error) {
	start := p.now()
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	result, err := p.run(ctx, principal, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("scan.id", result.Scan.ID),
		attribute.String("quality.flag", string(result.QualityFlag)),
		attribute.Int("suggestions.count", result.Quality.TotalEvaluated),
	)
	if p.recorder != nil {
		p.recorder.RecordAnalysis(ctx, string(result.QualityFlag), result.Quality.TotalEvaluated, p.now().Sub(start))
	}
	p.logger.Info("Analysis complete",
		"scan_id", result.Scan.ID,
		"overall_score", result.Score.Overall,
		"match_rate", result.Keywords.MatchRate,
		"suggestions", result.Quality.TotalEvaluated,
		"failed_sections", len(result.FailedSections),
		"quality_flag", string(result.QualityFlag),
		"duration_ms", p.now().Sub(start).Milliseconds())
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, principal string, in Input) (*AnalysisResult, error) {
	if principal == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "principal is required", nil)
	}
	if err := p.validate.Struct(in); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, fmt.Sprintf("invalid analysis input: %v", err), err)
	}

	doc := resume.Parse(in.ResumeText)

	var analysis *types.KeywordAnalysisResult
	err := p.stage(ctx, "keywords", func(ctx context.Context) error {
		var err error
		analysis, err = p.keywords.AnalyzeKeywords(ctx, in.JobText, in.ResumeText)
		return err
	})
	if err != nil {
		return nil, err
	}

	density := quantification.CalculateDensity(doc.Bullets(resume.KindExperience, resume.KindProjects))
	score, err := p.scoring.ComputeScore(scoring.Input{
		Keywords:     analysis,
		Density:      density.Density,
		ContentScore: valueOr(in.ContentScore, analysis.MatchRate),
		FormatScore:  valueOr(in.FormatScore, FormatScore(suggestions.AnalyzeStructure(doc))),
		SkillsScore:  in.SkillsScore,
	})
	if err != nil {
		return nil, err
	}

	scan := types.Scan{
		ID:         uuid.NewString(),
		OwnerID:    principal,
		JobTitle:   in.JobTitle,
		ResumeText: in.ResumeText,
		CreatedAt:  p.now().UTC(),
	}

	var generated suggestions.Result
	err = p.stage(ctx, "generate", func(ctx context.Context) error {
		var err error
		generated, err = p.generator.Generate(ctx, doc, analysis, scan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	flat := flatten(generated)
	var judged map[string]types.JudgedSuggestion
	_ = p.stage(ctx, "judge", func(ctx context.Context) error {
		judged = p.judge.JudgeBatch(ctx, flat, in.JobText)
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// reconcile by id, in creation order
	ordered := make([]types.JudgedSuggestion, 0, len(flat))
	for _, s := range flat {
		j, ok := judged[s.ID]
		if !ok {
			j = types.JudgedSuggestion{Suggestion: s, Unverified: true, JudgeError: "no verdict returned"}
		}
		ordered = append(ordered, j)
	}

	metricLog := quality.BuildMetricLog(scan.ID, ordered, p.now())
	quality.CheckAndEmitAlerts(ctx, p.sink, metricLog)

	err = p.stage(ctx, "persist", func(ctx context.Context) error {
		return p.store.SaveAnalysis(ctx, scan, flat, metricLog)
	})
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewDatabaseError(errors.ErrCodeDB, "failed to save analysis", err)
	}

	bySection := make(map[types.Section][]types.JudgedSuggestion, len(generated.Suggestions))
	for section := range generated.Suggestions {
		bySection[section] = []types.JudgedSuggestion{}
	}
	for _, j := range ordered {
		bySection[j.Suggestion.Section] = append(bySection[j.Suggestion.Section], j)
	}

	return &AnalysisResult{
		Scan:           scan,
		Keywords:       analysis,
		Density:        density,
		Score:          score,
		Suggestions:    bySection,
		Structural:     generated.Structural,
		FailedSections: generated.Failed,
		Quality:        metricLog,
		QualityFlag:    Flag(ordered, len(generated.Failed)),
	}, nil
}

// stage runs fn inside a child span named after the stage
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Flag derives the run's quality flag. A run where nothing could be judged
// is unverified; any failed section, failed verdict or judge error makes it
// partial.
func Flag(judged []types.JudgedSuggestion, failedSections int) QualityFlag {
	scored := 0
	allPassed := true
	for _, j := range judged {
		if j.Judge != nil {
			scored++
		}
		if !j.Verified {
			allPassed = false
		}
	}
	switch {
	case len(judged) > 0 && scored == 0:
		return FlagUnverified
	case failedSections > 0 || !allPassed:
		return FlagPartial
	default:
		return FlagVerified
	}
}

// FormatScore derives a format/structure score from structural findings
func FormatScore(findings []types.StructuralSuggestion) int {
	score := 100
	for _, f := range findings {
		switch f.Priority {
		case types.PriorityCritical:
			score -= 30
		case types.PriorityHigh:
			score -= 15
		default:
			score -= 5
		}
	}
	return scoring.Clamp(score)
}

func flatten(r suggestions.Result) []types.Suggestion {
	var out []types.Suggestion
	for _, section := range []types.Section{
		types.SectionExperience,
		types.SectionProjects,
		types.SectionSkills,
		types.SectionEducation,
		types.SectionFormat,
	} {
		out = append(out, r.Suggestions[section]...)
	}
	return out
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// compile-time checks for the production collaborators
var (
	_ KeywordAnalyzer     = (*keywords.Engine)(nil)
	_ SuggestionGenerator = (*suggestions.Pipeline)(nil)
	_ BatchJudge          = (*judge.Judge)(nil)
)
