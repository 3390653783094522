package diff

import (
	"strings"
	"testing"
	"time"

	"resumescan/internal/resume"
	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordDiffEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want []types.DiffChunk
	}{
		{"both empty", "", "   ", []types.DiffChunk{}},
		{"only insert", "", "Led team", []types.DiffChunk{{Type: types.DiffInsert, Value: "Led team"}}},
		{"only delete", "Led  team ", "", []types.DiffChunk{{Type: types.DiffDelete, Value: "Led team"}}},
		{"identical after normalisation", " Built   APIs ", "Built APIs", []types.DiffChunk{{Type: types.DiffEqual, Value: "Built APIs"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordDiff(tt.a, tt.b))
		})
	}
}

func TestWordDiffReplacement(t *testing.T) {
	got := WordDiff("Helped build the billing service", "Architected the billing service in Go")

	assert.Equal(t, []types.DiffChunk{
		{Type: types.DiffDelete, Value: "Helped build"},
		{Type: types.DiffInsert, Value: "Architected"},
		{Type: types.DiffEqual, Value: "the billing service"},
		{Type: types.DiffInsert, Value: "in Go"},
	}, got)
}

// Applying the script must reproduce both sides.
func TestWordDiffReconstructs(t *testing.T) {
	pairs := [][2]string{
		{"a b c a b b a", "c b a b a c"},
		{"Managed a team of engineers", "Managed 6 engineers across 2 teams"},
		{"one two three", "three two one"},
	}

	for _, p := range pairs {
		var left, right []string
		for _, c := range WordDiff(p[0], p[1]) {
			switch c.Type {
			case types.DiffEqual:
				left = append(left, c.Value)
				right = append(right, c.Value)
			case types.DiffDelete:
				left = append(left, c.Value)
			case types.DiffInsert:
				right = append(right, c.Value)
			}
		}
		if got := strings.Join(left, " "); got != p[0] {
			t.Errorf("Expected original %q, got %q", p[0], got)
		}
		if got := strings.Join(right, " "); got != p[1] {
			t.Errorf("Expected suggested %q, got %q", p[1], got)
		}
	}
}

const mergeResume = `Experience
- Helped with the billing system
- Responsible for meetings
- Wrote tests

Skills
JS, Go
`

func TestMerge(t *testing.T) {
	doc := resume.Parse(mergeResume)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	suggestions := []types.Suggestion{
		{ID: "s1", Section: types.SectionExperience, ItemIndex: 0, SuggestedText: "Rebuilt the billing system, cutting failures 40%", SuggestionType: types.TypeActionVerb, Status: types.StatusAccepted, CreatedAt: base},
		{ID: "s2", Section: types.SectionExperience, ItemIndex: 0, SuggestedText: "Ignored duplicate", SuggestionType: types.TypeQuantification, Status: types.StatusAccepted, CreatedAt: base.Add(time.Second)},
		{ID: "s3", Section: types.SectionFormat, ItemIndex: 1, SuggestionType: types.TypeRemoval, Status: types.StatusAccepted, CreatedAt: base.Add(2 * time.Second)},
		{ID: "s4", Section: types.SectionExperience, ItemIndex: 2, SuggestedText: "Not applied", Status: types.StatusPending, CreatedAt: base},
		{ID: "s5", Section: types.SectionSkills, ItemIndex: 0, SuggestedText: "JavaScript (ES2022)", SuggestionType: types.TypeSkillExpansion, Status: types.StatusAccepted, CreatedAt: base},
		{ID: "s6", Section: types.SectionSkills, ItemIndex: 9, SuggestedText: "nope", Status: types.StatusAccepted, CreatedAt: base},
		{ID: "s7", Section: types.SectionExperience, ItemIndex: 2, SuggestedText: "Rejected", Status: types.StatusRejected, CreatedAt: base},
	}

	result := Merge(doc, suggestions)

	assert.ElementsMatch(t, []string{"s1", "s3", "s5"}, result.Applied)
	require.Len(t, result.Skipped, 2)
	assert.Contains(t, result.Skipped, Skipped{SuggestionID: "s2", Reason: SkipDuplicate})
	assert.Contains(t, result.Skipped, Skipped{SuggestionID: "s6", Reason: SkipOutOfRange})

	assert.Contains(t, result.Text, "- Rebuilt the billing system, cutting failures 40%\n")
	assert.NotContains(t, result.Text, "Responsible for meetings")
	assert.Contains(t, result.Text, "- Wrote tests\n")
	assert.Contains(t, result.Text, "JavaScript (ES2022), Go\n")

	// the input document is left untouched
	assert.Equal(t, "Helped with the billing system", doc.Sections[0].Entries[0].Text)
}
