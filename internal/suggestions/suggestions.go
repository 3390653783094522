// Package suggestions runs the section-scoped suggestion generators and the
// whole-document structural checks.
package suggestions

import (
	"context"
	"fmt"
	"time"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/errors"
	"resumescan/internal/keywords"
	"resumescan/internal/resume"
	"resumescan/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultSectionConcurrency bounds how many sections generate at once
const DefaultSectionConcurrency = 4

// Request is the input for one generator run over one section
type Request struct {
	ScanID   string
	Section  types.Section
	Bullets  []string
	Keywords *types.KeywordAnalysisResult
}

// Generator produces candidate suggestions for the sections it applies to
type Generator interface {
	Name() string
	Applies(section types.Section) bool
	Generate(ctx context.Context, req Request) ([]types.Suggestion, error)
}

// SectionError reports a generator failure that emptied a section
type SectionError struct {
	Section   types.Section `json:"section"`
	Generator string        `json:"generator"`
	Code      string        `json:"code"`
	Message   string        `json:"message"`
}

func (e SectionError) Error() string {
	return fmt.Sprintf("%s generator failed for %s: %s", e.Generator, e.Section, e.Message)
}

// Result is the outcome of a generation run. Failed sections are present
// in Suggestions with an empty list.
type Result struct {
	Suggestions map[types.Section][]types.Suggestion `json:"suggestions"`
	Structural  []types.StructuralSuggestion         `json:"structural"`
	Failed      []SectionError                       `json:"failedSections"`
}

// Count returns the number of section suggestions
func (r Result) Count() int {
	n := 0
	for _, s := range r.Suggestions {
		n += len(s)
	}
	return n
}

// Options configures a Pipeline
type Options struct {
	Completer   ai.Completer
	AIConfig    config.OperationAIConfig
	Table       *keywords.VariantTable
	Concurrency int
	Logger      *errors.Logger
	// Generators replaces the default generator set
	Generators []Generator
}

// Pipeline fans generators out over resume sections
type Pipeline struct {
	generators  []Generator
	concurrency int
	logger      *errors.Logger
	now         func() time.Time
}

// generatedSections are the sections generators run over, in result order
var generatedSections = []types.Section{
	types.SectionExperience,
	types.SectionProjects,
	types.SectionSkills,
	types.SectionFormat,
}

// NewPipeline creates a pipeline with the default generators unless
// opts.Generators is set.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		generators:  opts.Generators,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		now:         time.Now,
	}
	if p.logger == nil {
		p.logger = errors.NewNopLogger()
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultSectionConcurrency
	}
	if p.generators == nil {
		p.generators = DefaultGenerators(opts.Completer, opts.AIConfig, opts.Table)
	}
	return p
}

// DefaultGenerators returns every built-in section generator
func DefaultGenerators(completer ai.Completer, cfg config.OperationAIConfig, table *keywords.VariantTable) []Generator {
	return []Generator{
		NewActionVerbGenerator(completer, cfg),
		NewQuantificationGenerator(completer, cfg),
		NewTransferableSkillsGenerator(completer, cfg),
		NewSkillExpansionGenerator(table),
		NewFormatGenerator(),
	}
}

type sectionOutcome struct {
	suggestions []types.Suggestion
	failure     *SectionError
}

// Generate runs every applicable generator per section. Sections run
// concurrently up to the configured limit; a generator error empties only
// its own section and is reported in Result.Failed. The only error returned
// is ctx.Err() when the context ends before generation completes.
func (p *Pipeline) Generate(ctx context.Context, doc resume.Document, analysis *types.KeywordAnalysisResult, scanID string) (Result, error) {
	outcomes := make([]sectionOutcome, len(generatedSections))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, section := range generatedSections {
		req := Request{
			ScanID:   scanID,
			Section:  section,
			Bullets:  sectionBullets(doc, section),
			Keywords: analysis,
		}
		g.Go(func() error {
			outcomes[i] = p.runSection(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	result := Result{
		Suggestions: make(map[types.Section][]types.Suggestion, len(generatedSections)),
		Structural:  AnalyzeStructure(doc),
		Failed:      []SectionError{},
	}

	base := p.now().UTC()
	seq := 0
	for i, section := range generatedSections {
		out := outcomes[i]
		if out.failure != nil {
			result.Failed = append(result.Failed, *out.failure)
			result.Suggestions[section] = []types.Suggestion{}
			continue
		}
		for j := range out.suggestions {
			s := &out.suggestions[j]
			s.ID = uuid.NewString()
			s.ScanID = scanID
			s.Section = section
			s.Status = types.StatusPending
			// creation order is the tie-break when merging
			s.CreatedAt = base.Add(time.Duration(seq) * time.Microsecond)
			seq++
		}
		result.Suggestions[section] = out.suggestions
	}

	p.logger.Info("Suggestion generation complete",
		"scan_id", scanID,
		"suggestions", result.Count(),
		"structural", len(result.Structural),
		"failed_sections", len(result.Failed))
	return result, nil
}

func (p *Pipeline) runSection(ctx context.Context, req Request) sectionOutcome {
	var out []types.Suggestion
	if len(req.Bullets) == 0 {
		return sectionOutcome{suggestions: []types.Suggestion{}}
	}
	for _, gen := range p.generators {
		if !gen.Applies(req.Section) {
			continue
		}
		suggestions, err := gen.Generate(ctx, req)
		if err != nil {
			p.logger.LogError(err, "Suggestion generator failed",
				"section", string(req.Section),
				"generator", gen.Name())
			return sectionOutcome{failure: &SectionError{
				Section:   req.Section,
				Generator: gen.Name(),
				Code:      errors.CodeOf(err),
				Message:   err.Error(),
			}}
		}
		out = append(out, suggestions...)
	}
	if out == nil {
		out = []types.Suggestion{}
	}
	return sectionOutcome{suggestions: out}
}

// sectionBullets lists the items a section's ItemIndex addresses
func sectionBullets(doc resume.Document, section types.Section) []string {
	if section == types.SectionFormat {
		return doc.AllBullets()
	}
	return doc.Bullets(resume.KindFor(section))
}
