package suggestions

import (
	"fmt"
	"strings"

	"resumescan/internal/resume"
	"resumescan/internal/types"

	"github.com/google/uuid"
)

// requiredSections must be present, in priority order
var requiredSections = []struct {
	kind     resume.Kind
	priority types.Priority
}{
	{resume.KindExperience, types.PriorityCritical},
	{resume.KindSkills, types.PriorityHigh},
	{resume.KindEducation, types.PriorityModerate},
}

var standardHeadings = map[resume.Kind]string{
	resume.KindSummary:        "Summary",
	resume.KindExperience:     "Experience",
	resume.KindEducation:      "Education",
	resume.KindProjects:       "Projects",
	resume.KindSkills:         "Skills",
	resume.KindCertifications: "Certifications",
}

// AnalyzeStructure checks section presence, headings and order. The
// findings are display-only and never enter the suggestion lifecycle.
func AnalyzeStructure(doc resume.Document) []types.StructuralSuggestion {
	out := []types.StructuralSuggestion{}
	add := func(cat types.StructuralCategory, prio types.Priority, msg, current, action string) {
		out = append(out, types.StructuralSuggestion{
			ID:                uuid.NewString(),
			Category:          cat,
			Priority:          prio,
			Message:           msg,
			CurrentState:      current,
			RecommendedAction: action,
		})
	}

	for _, req := range requiredSections {
		if _, ok := doc.Find(req.kind); !ok {
			name := standardHeadings[req.kind]
			add(types.StructuralSectionPresence, req.priority,
				fmt.Sprintf("No %s section found.", name),
				"missing",
				fmt.Sprintf("Add a section headed %q.", name))
		}
	}

	for _, s := range doc.Sections {
		if s.Kind == resume.KindOther || s.StandardHeading {
			continue
		}
		name := standardHeadings[s.Kind]
		add(types.StructuralSectionHeading, types.PriorityModerate,
			fmt.Sprintf("Heading %q may not be recognised by ATS parsers.", s.Heading),
			s.Heading,
			fmt.Sprintf("Rename the heading to %q.", name))
	}

	if current, expected, ok := outOfOrder(doc); !ok {
		add(types.StructuralSectionOrder, types.PriorityHigh,
			"Sections are not in the order ATS parsers expect.",
			strings.Join(current, ", "),
			"Reorder sections: "+strings.Join(expected, ", ")+".")
	}

	return out
}

// outOfOrder compares the order of known sections with resume.CanonicalOrder.
// ok is true when the order already matches.
func outOfOrder(doc resume.Document) (current, expected []string, ok bool) {
	rank := make(map[resume.Kind]int, len(resume.CanonicalOrder))
	for i, k := range resume.CanonicalOrder {
		rank[k] = i
	}

	var kinds []resume.Kind
	seen := make(map[resume.Kind]bool)
	for _, s := range doc.Sections {
		if _, known := rank[s.Kind]; known && !seen[s.Kind] {
			seen[s.Kind] = true
			kinds = append(kinds, s.Kind)
		}
	}

	ok = true
	for i := 1; i < len(kinds); i++ {
		if rank[kinds[i]] < rank[kinds[i-1]] {
			ok = false
			break
		}
	}
	if ok {
		return nil, nil, true
	}

	for _, k := range kinds {
		current = append(current, standardHeadings[k])
	}
	for _, k := range resume.CanonicalOrder {
		if seen[k] {
			expected = append(expected, standardHeadings[k])
		}
	}
	return current, expected, false
}
