package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumescan/internal/pipeline"
	"resumescan/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// Data type names used for registration
const (
	typeAny      = "any"
	typeAnalysis = "AnalysisResult"
	typeDiff     = "DiffChunks"
)

// GlobalRegistry is the registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", typeAny, &JSONFormatter{})
	registry.RegisterFormatter("text", typeAnalysis, &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", typeAnalysis, &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", typeDiff, &DiffTextFormatter{})
	registry.RegisterFormatter("markdown", typeDiff, &DiffMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[typeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *pipeline.AnalysisResult:
		return typeAnalysis
	case []types.DiffChunk:
		return typeDiff
	default:
		return typeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return typeAny
}

var categoryLabels = []string{
	"Keyword alignment",
	"Content relevance",
	"Quantification impact",
	"Format & structure",
	"Skills coverage",
}

func asAnalysis(data any) (*pipeline.AnalysisResult, error) {
	result, ok := data.(*pipeline.AnalysisResult)
	if !ok || result == nil {
		return nil, fmt.Errorf("expected *pipeline.AnalysisResult, got %T", data)
	}
	return result, nil
}

// verdict renders a suggestion's judge outcome in a few words
func verdict(js types.JudgedSuggestion) string {
	switch {
	case js.Judge == nil:
		if js.JudgeError != "" {
			return "unverified: " + js.JudgeError
		}
		return "unverified"
	case js.Judge.Passed:
		return fmt.Sprintf("verified, %d/100, %s", js.Judge.QualityScore, js.Judge.Recommendation)
	default:
		return fmt.Sprintf("below threshold, %d/100, %s", js.Judge.QualityScore, js.Judge.Recommendation)
	}
}

// AnalysisTextFormatter renders an analysis as plain text
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	result, err := asAnalysis(data)
	if err != nil {
		return "", err
	}

	var out strings.Builder

	out.WriteString("=== ATS SCORE ===\n")
	fmt.Fprintf(&out, "Overall: %d/100\n", result.Score.Overall)
	for i, c := range result.Score.Categories.All() {
		fmt.Fprintf(&out, "  %-22s %3d  (weight %.2f) %s\n", categoryLabels[i], c.Score, c.Weight, c.Reason)
	}
	out.WriteString("\n")

	if result.Keywords != nil {
		out.WriteString("=== KEYWORDS ===\n")
		fmt.Fprintf(&out, "Match rate: %d%%\n", result.Keywords.MatchRate)
		for _, m := range result.Keywords.Matched {
			fmt.Fprintf(&out, "  + %s (%s, %s match)\n", m.Keyword.Text, m.Keyword.Importance, m.MatchType)
		}
		for _, k := range result.Keywords.Missing {
			fmt.Fprintf(&out, "  - %s (%s, missing)\n", k.Text, k.Importance)
		}
		out.WriteString("\n")
	}

	out.WriteString("=== QUANTIFICATION ===\n")
	fmt.Fprintf(&out, "Density: %d%% (%s), %d of %d bullets have metrics\n\n",
		result.Density.Density, result.Density.Label, result.Density.BulletsWithMetrics, result.Density.TotalBullets)

	fmt.Fprintf(&out, "=== SUGGESTIONS (%s) ===\n", result.QualityFlag)
	for _, section := range types.Sections {
		list := result.Suggestions[section]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&out, "[%s]\n", section)
		for _, js := range list {
			s := js.Suggestion
			fmt.Fprintf(&out, "  #%d %s (%s)\n", s.ItemIndex, s.SuggestionType, verdict(js))
			fmt.Fprintf(&out, "     was: %s\n", s.OriginalText)
			fmt.Fprintf(&out, "     now: %s\n", s.SuggestedText)
			if s.Reasoning != "" {
				fmt.Fprintf(&out, "     why: %s\n", s.Reasoning)
			}
		}
	}
	for _, f := range result.FailedSections {
		fmt.Fprintf(&out, "  ! %s: %s\n", f.Section, f.Message)
	}
	out.WriteString("\n")

	if len(result.Structural) > 0 {
		out.WriteString("=== STRUCTURE ===\n")
		for _, s := range result.Structural {
			fmt.Fprintf(&out, "  [%s] %s: %s\n", s.Priority, s.Message, s.RecommendedAction)
		}
		out.WriteString("\n")
	}

	out.WriteString("=== JUDGE QUALITY ===\n")
	fmt.Fprintf(&out, "Evaluated: %d, passed: %d, pass rate: %.1f%%, average score: %.1f\n",
		result.Quality.TotalEvaluated, result.Quality.Passed, result.Quality.PassRate, result.Quality.AvgScore)
	fmt.Fprintf(&out, "Scan ID: %s\n", result.Scan.ID)

	return out.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string {
	return typeAnalysis
}

// AnalysisMarkdownFormatter renders an analysis as a markdown report
type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, err := asAnalysis(data)
	if err != nil {
		return "", err
	}

	var out strings.Builder

	out.WriteString("# Resume Analysis\n\n")
	if result.Scan.JobTitle != "" {
		fmt.Fprintf(&out, "**Role:** %s  \n", result.Scan.JobTitle)
	}
	fmt.Fprintf(&out, "**Overall score:** %d/100  \n", result.Score.Overall)
	fmt.Fprintf(&out, "**Suggestion quality:** %s\n\n", result.QualityFlag)

	out.WriteString("## Score Breakdown\n\n")
	out.WriteString("| Category | Score | Weight | Reason |\n|---|---|---|---|\n")
	for i, c := range result.Score.Categories.All() {
		fmt.Fprintf(&out, "| %s | %d | %.2f | %s |\n", categoryLabels[i], c.Score, c.Weight, c.Reason)
	}
	out.WriteString("\n")

	if result.Keywords != nil {
		fmt.Fprintf(&out, "## Keywords (%d%% matched)\n\n", result.Keywords.MatchRate)
		for _, m := range result.Keywords.Matched {
			fmt.Fprintf(&out, "- [x] **%s** _%s_\n", m.Keyword.Text, m.Keyword.Importance)
		}
		for _, k := range result.Keywords.Missing {
			fmt.Fprintf(&out, "- [ ] **%s** _%s_\n", k.Text, k.Importance)
		}
		out.WriteString("\n")
	}

	fmt.Fprintf(&out, "## Quantification\n\n%d%% of bullets carry metrics (%s).\n\n", result.Density.Density, result.Density.Label)

	out.WriteString("## Suggestions\n\n")
	for _, section := range types.Sections {
		list := result.Suggestions[section]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&out, "### %s\n\n", strings.ToUpper(string(section[:1]))+string(section[1:]))
		for _, js := range list {
			s := js.Suggestion
			fmt.Fprintf(&out, "- **%s** (%s)\n", s.SuggestionType, verdict(js))
			fmt.Fprintf(&out, "  - ~~%s~~\n", s.OriginalText)
			fmt.Fprintf(&out, "  - %s\n", s.SuggestedText)
		}
		out.WriteString("\n")
	}
	if len(result.FailedSections) > 0 {
		out.WriteString("> Some sections could not be analyzed:\n")
		for _, f := range result.FailedSections {
			fmt.Fprintf(&out, "> - %s: %s\n", f.Section, f.Message)
		}
		out.WriteString("\n")
	}

	if len(result.Structural) > 0 {
		out.WriteString("## Structure\n\n")
		for _, s := range result.Structural {
			fmt.Fprintf(&out, "- **%s** %s. %s\n", s.Priority, s.Message, s.RecommendedAction)
		}
		out.WriteString("\n")
	}

	out.WriteString("## Judge Quality\n\n")
	fmt.Fprintf(&out, "%d evaluated, %d passed (%.1f%%), average score %.1f.\n",
		result.Quality.TotalEvaluated, result.Quality.Passed, result.Quality.PassRate, result.Quality.AvgScore)

	return out.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string {
	return typeAnalysis
}

// DiffTextFormatter marks deletions as [-x-] and insertions as {+x+}
type DiffTextFormatter struct{}

func (f *DiffTextFormatter) Format(data any) (string, error) {
	return renderDiff(data, "[-", "-]", "{+", "+}")
}

func (f *DiffTextFormatter) SupportedType() string {
	return typeDiff
}

// DiffMarkdownFormatter strikes deletions and bolds insertions
type DiffMarkdownFormatter struct{}

func (f *DiffMarkdownFormatter) Format(data any) (string, error) {
	return renderDiff(data, "~~", "~~", "**", "**")
}

func (f *DiffMarkdownFormatter) SupportedType() string {
	return typeDiff
}

func renderDiff(data any, delOpen, delClose, insOpen, insClose string) (string, error) {
	chunks, ok := data.([]types.DiffChunk)
	if !ok {
		return "", fmt.Errorf("expected []types.DiffChunk, got %T", data)
	}

	// chunk values carry no boundary whitespace
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		switch c.Type {
		case types.DiffDelete:
			parts = append(parts, delOpen+c.Value+delClose)
		case types.DiffInsert:
			parts = append(parts, insOpen+c.Value+insClose)
		default:
			parts = append(parts, c.Value)
		}
	}
	return strings.Join(parts, " ") + "\n", nil
}
