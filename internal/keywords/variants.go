// Package keywords extracts keywords from job postings and matches them
// against resume text through a canonical-variant table.
package keywords

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Variant maps a canonical keyword to the other spellings that count as a match
type Variant struct {
	Canonical string   `mapstructure:"canonical" json:"canonical"`
	Variants  []string `mapstructure:"variants" json:"variants"`
}

// DefaultVariants is the built-in variant table
var DefaultVariants = []Variant{
	{Canonical: "JavaScript", Variants: []string{"JS", "ECMAScript", "ES6"}},
	{Canonical: "TypeScript", Variants: []string{"TSX"}},
	{Canonical: "Node.js", Variants: []string{"NodeJS", "Node"}},
	{Canonical: "React", Variants: []string{"React.js", "ReactJS"}},
	{Canonical: "Kubernetes", Variants: []string{"K8s"}},
	{Canonical: "PostgreSQL", Variants: []string{"Postgres", "psql"}},
	{Canonical: "AWS", Variants: []string{"Amazon Web Services"}},
	{Canonical: "GCP", Variants: []string{"Google Cloud Platform", "Google Cloud"}},
	{Canonical: "Azure", Variants: []string{"Microsoft Azure"}},
	{Canonical: "Golang", Variants: []string{"Go language"}},
	{Canonical: "C#", Variants: []string{"CSharp", "C Sharp"}},
	{Canonical: ".NET", Variants: []string{"dotnet", "ASP.NET"}},
	{Canonical: "CI/CD", Variants: []string{"continuous integration", "continuous delivery", "continuous deployment"}},
	{Canonical: "Machine Learning", Variants: []string{"machine-learning", "ML engineer"}},
	{Canonical: "REST", Variants: []string{"RESTful"}},
	{Canonical: "GraphQL", Variants: []string{"GQL"}},
	{Canonical: "Infrastructure as Code", Variants: []string{"infrastructure-as-code", "Terraform"}},
	{Canonical: "Project Management", Variants: []string{"PMP", "managed projects"}},
}

// VariantTable is a concurrency-safe variant lookup. Replace swaps the whole
// table at once so readers never see a partial reload.
type VariantTable struct {
	mu      sync.RWMutex
	entries map[string]Variant // lower(canonical) -> entry
	index   map[string]string  // lower(any form) -> lower(canonical)
}

// NewVariantTable builds a table from entries
func NewVariantTable(entries []Variant) *VariantTable {
	t := &VariantTable{}
	t.Replace(entries)
	return t
}

// DefaultVariantTable returns a table holding DefaultVariants
func DefaultVariantTable() *VariantTable {
	return NewVariantTable(DefaultVariants)
}

// Replace atomically swaps the table contents
func (t *VariantTable) Replace(entries []Variant) {
	newEntries := make(map[string]Variant, len(entries))
	newIndex := make(map[string]string, len(entries)*3)

	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Canonical))
		if key == "" {
			continue
		}
		newEntries[key] = e
		newIndex[key] = key
		for _, v := range e.Variants {
			if vk := strings.ToLower(strings.TrimSpace(v)); vk != "" {
				newIndex[vk] = key
			}
		}
	}

	t.mu.Lock()
	t.entries = newEntries
	t.index = newIndex
	t.mu.Unlock()
}

// Len returns the number of canonical entries
func (t *VariantTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Canonical returns the canonical spelling for keyword, or keyword itself
// when the table does not know it.
func (t *VariantTable) Canonical(keyword string) string {
	canonical, _ := t.Forms(keyword)
	return canonical
}

// Forms returns the canonical spelling for keyword and its variants
func (t *VariantTable) Forms(keyword string) (canonical string, variants []string) {
	keyword = strings.TrimSpace(keyword)

	t.mu.RLock()
	defer t.mu.RUnlock()

	key, ok := t.index[strings.ToLower(keyword)]
	if !ok {
		return keyword, nil
	}
	e := t.entries[key]
	return e.Canonical, append([]string(nil), e.Variants...)
}

// LoadVariantsFile reads a YAML or JSON file with a top-level "variants" list
func LoadVariantsFile(path string) ([]Variant, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read variants file %s: %w", path, err)
	}

	var entries []Variant
	if err := v.UnmarshalKey("variants", &entries); err != nil {
		return nil, fmt.Errorf("failed to parse variants file %s: %w", path, err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Canonical) == "" {
			return nil, fmt.Errorf("variants file %s: entry %d has no canonical form", path, i)
		}
	}
	return entries, nil
}

// MergeVariants overlays overrides on base by canonical form. The result is
// sorted by canonical form.
func MergeVariants(base, overrides []Variant) []Variant {
	merged := make(map[string]Variant, len(base)+len(overrides))
	for _, e := range base {
		merged[strings.ToLower(e.Canonical)] = e
	}
	for _, e := range overrides {
		merged[strings.ToLower(e.Canonical)] = e
	}

	out := make([]Variant, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Canonical) < strings.ToLower(out[j].Canonical)
	})
	return out
}

// LoadTable builds the table used at startup: the defaults, extended by the
// variants file when one is configured.
func LoadTable(path string) (*VariantTable, error) {
	if path == "" {
		return DefaultVariantTable(), nil
	}
	entries, err := LoadVariantsFile(path)
	if err != nil {
		return nil, err
	}
	return NewVariantTable(MergeVariants(DefaultVariants, entries)), nil
}
