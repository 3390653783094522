package diff

import (
	"fmt"
	"sort"

	"resumescan/internal/resume"
	"resumescan/internal/types"
)

// Skip reasons reported by Merge
const (
	SkipOutOfRange = "item_index_out_of_range"
	SkipDuplicate  = "item_already_changed"
)

// Skipped records an accepted suggestion Merge could not apply
type Skipped struct {
	SuggestionID string `json:"suggestionId"`
	Reason       string `json:"reason"`
}

// MergeResult is the final resume text plus what was applied
type MergeResult struct {
	Text    string    `json:"text"`
	Applied []string  `json:"applied"`
	Skipped []Skipped `json:"skipped"`
}

// Merge applies accepted suggestions, addressed by (section, itemIndex), onto
// doc and renders the result. Pending and rejected suggestions are ignored.
// When two accepted suggestions land on the same item the earliest created wins.
func Merge(doc resume.Document, suggestions []types.Suggestion) MergeResult {
	accepted := make([]types.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Status == types.StatusAccepted {
			accepted = append(accepted, s)
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].CreatedAt.Before(accepted[j].CreatedAt)
	})

	// refs are resolved against the unmodified document
	refsBySection := make(map[types.Section][]resume.Ref)
	touched := make(map[resume.Ref]bool)
	removed := make(map[resume.Ref]bool)
	result := MergeResult{Applied: []string{}, Skipped: []Skipped{}}

	out := copyDocument(doc)
	for _, s := range accepted {
		refs, ok := refsBySection[s.Section]
		if !ok {
			refs = doc.ItemRefs(s.Section)
			refsBySection[s.Section] = refs
		}

		if s.ItemIndex < 0 || s.ItemIndex >= len(refs) {
			result.Skipped = append(result.Skipped, Skipped{SuggestionID: s.ID, Reason: SkipOutOfRange})
			continue
		}
		ref := refs[s.ItemIndex]
		if touched[ref] {
			result.Skipped = append(result.Skipped, Skipped{SuggestionID: s.ID, Reason: SkipDuplicate})
			continue
		}
		touched[ref] = true

		if s.SuggestionType == types.TypeRemoval {
			removed[ref] = true
		} else {
			out.Sections[ref.Section].Entries[ref.Entry].Text = s.SuggestedText
		}
		result.Applied = append(result.Applied, s.ID)
	}

	for si := range out.Sections {
		kept := out.Sections[si].Entries[:0]
		for ei, e := range out.Sections[si].Entries {
			if !removed[resume.Ref{Section: si, Entry: ei}] {
				kept = append(kept, e)
			}
		}
		out.Sections[si].Entries = kept
	}

	result.Text = resume.Render(out)
	return result
}

func copyDocument(doc resume.Document) resume.Document {
	out := resume.Document{
		Preamble: append([]string(nil), doc.Preamble...),
		Sections: make([]resume.Section, len(doc.Sections)),
	}
	for i, s := range doc.Sections {
		s.Entries = append([]resume.Entry(nil), s.Entries...)
		out.Sections[i] = s
	}
	return out
}

// String renders a skip for log output.
func (s Skipped) String() string {
	return fmt.Sprintf("%s (%s)", s.SuggestionID, s.Reason)
}
