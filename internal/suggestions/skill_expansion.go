package suggestions

import (
	"context"
	"strings"

	"resumescan/internal/keywords"
	"resumescan/internal/types"
)

// skillExpansions lists the concrete tools ATS searches often look for
// under an umbrella skill, keyed by lowercase canonical form
var skillExpansions = map[string][]string{
	"aws":                    {"EC2", "S3", "Lambda", "IAM"},
	"gcp":                    {"GKE", "BigQuery", "Cloud Run"},
	"azure":                  {"AKS", "Azure Functions", "Cosmos DB"},
	"kubernetes":             {"Helm", "Kustomize", "Operators"},
	"javascript":             {"ES6+", "DOM", "async/await"},
	"react":                  {"Hooks", "Redux", "Next.js"},
	"ci/cd":                  {"GitHub Actions", "Jenkins", "GitLab CI"},
	"sql":                    {"PostgreSQL", "MySQL", "query optimization"},
	"machine learning":       {"scikit-learn", "PyTorch", "model evaluation"},
	"infrastructure as code": {"Terraform", "CloudFormation", "Pulumi"},
	"testing":                {"unit", "integration", "end-to-end"},
	"python":                 {"Django", "FastAPI", "pandas"},
	"golang":                 {"goroutines", "gRPC", "net/http"},
	"docker":                 {"Compose", "multi-stage builds"},
	"project management":     {"Agile", "Scrum", "Jira"},
}

// SkillExpansionGenerator expands umbrella skills with concrete tools
type SkillExpansionGenerator struct {
	table *keywords.VariantTable
}

// NewSkillExpansionGenerator creates the map-driven skill-expansion
// generator. A nil table uses the default variants.
func NewSkillExpansionGenerator(table *keywords.VariantTable) *SkillExpansionGenerator {
	if table == nil {
		table = keywords.DefaultVariantTable()
	}
	return &SkillExpansionGenerator{table: table}
}

func (g *SkillExpansionGenerator) Name() string { return "skill_expansion" }

func (g *SkillExpansionGenerator) Applies(section types.Section) bool {
	return section == types.SectionSkills
}

func (g *SkillExpansionGenerator) Generate(_ context.Context, req Request) ([]types.Suggestion, error) {
	var out []types.Suggestion
	for i, skill := range req.Bullets {
		if strings.ContainsAny(skill, "()") {
			continue
		}
		canonical := g.table.Canonical(skill)
		tools, ok := skillExpansions[strings.ToLower(canonical)]
		if !ok {
			continue
		}
		out = append(out, types.Suggestion{
			ItemIndex:      i,
			OriginalText:   skill,
			SuggestedText:  canonical + " (" + strings.Join(tools, ", ") + ")",
			SuggestionType: types.TypeSkillExpansion,
			Reasoning:      "Names the specific " + canonical + " tools recruiters search for.",
		})
	}
	return out, nil
}
