// Package resume splits plain-text resumes into sections and renders them back.
package resume

import (
	"regexp"
	"strings"
	"unicode"

	"resumescan/internal/types"
)

// Kind identifies a parsed resume section
type Kind string

const (
	KindSummary        Kind = "summary"
	KindExperience     Kind = "experience"
	KindEducation      Kind = "education"
	KindProjects       Kind = "projects"
	KindSkills         Kind = "skills"
	KindCertifications Kind = "certifications"
	KindOther          Kind = "other"
)

// CanonicalOrder is the section order applicant tracking systems expect.
var CanonicalOrder = []Kind{KindSummary, KindExperience, KindEducation, KindSkills, KindProjects, KindCertifications}

type headingAlias struct {
	kind     Kind
	standard bool
}

var headingAliases = map[string]headingAlias{
	"summary":                     {KindSummary, true},
	"professional summary":        {KindSummary, true},
	"profile":                     {KindSummary, true},
	"objective":                   {KindSummary, true},
	"about me":                    {KindSummary, false},
	"experience":                  {KindExperience, true},
	"work experience":             {KindExperience, true},
	"professional experience":     {KindExperience, true},
	"relevant experience":         {KindExperience, true},
	"employment history":          {KindExperience, true},
	"work history":                {KindExperience, true},
	"employment":                  {KindExperience, true},
	"where i've worked":           {KindExperience, false},
	"my journey":                  {KindExperience, false},
	"career journey":              {KindExperience, false},
	"education":                   {KindEducation, true},
	"education and training":      {KindEducation, true},
	"academic background":         {KindEducation, true},
	"learning":                    {KindEducation, false},
	"projects":                    {KindProjects, true},
	"personal projects":           {KindProjects, true},
	"key projects":                {KindProjects, true},
	"selected projects":           {KindProjects, true},
	"side projects":               {KindProjects, true},
	"things i've built":           {KindProjects, false},
	"skills":                      {KindSkills, true},
	"technical skills":            {KindSkills, true},
	"core competencies":           {KindSkills, true},
	"key skills":                  {KindSkills, true},
	"skills & tools":              {KindSkills, true},
	"technologies":                {KindSkills, true},
	"toolbox":                     {KindSkills, false},
	"my stack":                    {KindSkills, false},
	"what i know":                 {KindSkills, false},
	"certifications":              {KindCertifications, true},
	"licenses & certifications":   {KindCertifications, true},
	"licenses and certifications": {KindCertifications, true},
	"certificates":                {KindCertifications, true},
}

var bulletPattern = regexp.MustCompile(`^\s*([-*•▪◦‣]|\d+[.)])\s+(.*)$`)

// Entry is one line, or one comma-separated skill, inside a section
type Entry struct {
	Text   string
	Marker string
	Label  string
	Item   bool
	Line   int
}

// Section is a headed block of the resume
type Section struct {
	Kind            Kind
	Heading         string
	StandardHeading bool
	Entries         []Entry
}

// Items returns the text of every item entry in the section.
func (s Section) Items() []string {
	var items []string
	for _, e := range s.Entries {
		if e.Item {
			items = append(items, e.Text)
		}
	}
	return items
}

// Document is a parsed resume
type Document struct {
	Preamble []string
	Sections []Section
}

// Ref addresses a single item entry inside a Document
type Ref struct {
	Section int
	Entry   int
}

// Parse splits text into a preamble and headed sections. Bullet lines become
// items; inside skills sections comma-separated values are items as well.
func Parse(text string) Document {
	var doc Document
	var current *Section
	lineNo := 0

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lineNo++

		if kind, standard, ok := classifyHeading(trimmed, current != nil); ok {
			doc.Sections = append(doc.Sections, Section{Kind: kind, Heading: trimmed, StandardHeading: standard})
			current = &doc.Sections[len(doc.Sections)-1]
			continue
		}

		if current == nil {
			doc.Preamble = append(doc.Preamble, trimmed)
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			current.Entries = append(current.Entries, Entry{Text: strings.TrimSpace(m[2]), Marker: m[1], Item: true, Line: lineNo})
			continue
		}

		if current.Kind == KindSkills {
			label, skills := splitSkills(trimmed)
			for i, skill := range skills {
				e := Entry{Text: skill, Item: true, Line: lineNo}
				if i == 0 {
					e.Label = label
				}
				current.Entries = append(current.Entries, e)
			}
			continue
		}

		current.Entries = append(current.Entries, Entry{Text: trimmed, Line: lineNo})
	}

	return doc
}

// splitSkills turns "Languages: Go, Python" into ("Languages", [Go Python]).
func splitSkills(line string) (string, []string) {
	var label string
	if i := strings.Index(line, ":"); i >= 0 && i < len(line)-1 {
		label = strings.TrimSpace(line[:i])
		line = line[i+1:]
	}
	var out []string
	for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' || r == '|' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return label, out
}

// classifyHeading recognises known heading aliases anywhere and short
// all-caps lines once the first section has started.
func classifyHeading(line string, inSection bool) (Kind, bool, bool) {
	key := strings.ToLower(strings.TrimSuffix(line, ":"))
	key = strings.Join(strings.Fields(key), " ")
	if alias, ok := headingAliases[key]; ok {
		return alias.kind, alias.standard, true
	}
	if inSection && isShoutedHeading(line) {
		return KindOther, false, true
	}
	return "", false, false
}

// isShoutedHeading matches short all-caps lines such as "VOLUNTEERING".
func isShoutedHeading(line string) bool {
	if bulletPattern.MatchString(line) || len(strings.Fields(line)) > 4 || strings.ContainsAny(line, ",|0123456789") {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 3
}

// Find returns the first section of the given kind.
func (d Document) Find(kind Kind) (Section, bool) {
	for _, s := range d.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

// Bullets returns every item of the given kinds in document order.
func (d Document) Bullets(kinds ...Kind) []string {
	var out []string
	for _, s := range d.Sections {
		for _, k := range kinds {
			if s.Kind == k {
				out = append(out, s.Items()...)
				break
			}
		}
	}
	return out
}

// AllBullets returns every item entry in the document.
func (d Document) AllBullets() []string {
	var out []string
	for _, s := range d.Sections {
		out = append(out, s.Items()...)
	}
	return out
}

// ItemRefs lists the item entries a suggestion section indexes into. The
// format section addresses every item in the document.
func (d Document) ItemRefs(section types.Section) []Ref {
	var refs []Ref
	for si, s := range d.Sections {
		if section != types.SectionFormat && KindFor(section) != s.Kind {
			continue
		}
		for ei, e := range s.Entries {
			if e.Item {
				refs = append(refs, Ref{Section: si, Entry: ei})
			}
		}
	}
	return refs
}

// KindFor maps a suggestion section onto the parsed section kind.
func KindFor(section types.Section) Kind {
	switch section {
	case types.SectionExperience:
		return KindExperience
	case types.SectionEducation:
		return KindEducation
	case types.SectionProjects:
		return KindProjects
	case types.SectionSkills:
		return KindSkills
	}
	return KindOther
}

// Render writes the document back to text, one blank line between sections.
func Render(d Document) string {
	var b strings.Builder
	for _, line := range d.Preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for _, s := range d.Sections {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.Heading)
		b.WriteByte('\n')

		for i := 0; i < len(s.Entries); {
			e := s.Entries[i]
			if e.Marker != "" || !e.Item {
				if e.Marker != "" {
					b.WriteString(e.Marker)
					b.WriteByte(' ')
				}
				b.WriteString(e.Text)
				b.WriteByte('\n')
				i++
				continue
			}
			// comma-separated skills that shared a source line
			j := i
			var parts []string
			for j < len(s.Entries) && s.Entries[j].Line == e.Line && s.Entries[j].Marker == "" && s.Entries[j].Item {
				parts = append(parts, s.Entries[j].Text)
				j++
			}
			if e.Label != "" {
				b.WriteString(e.Label)
				b.WriteString(": ")
			}
			b.WriteString(strings.Join(parts, ", "))
			b.WriteByte('\n')
			i = j
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
