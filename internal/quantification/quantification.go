// Package quantification detects numeric impact metrics in resume bullets.
package quantification

import (
	"math"
	"regexp"
	"strings"

	"resumescan/internal/types"
)

// Density labels
const (
	LabelLow      = "low"
	LabelModerate = "moderate"
	LabelStrong   = "strong"
)

var (
	percentPattern  = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s?(?:%|percent\b)`)
	currencyPattern = regexp.MustCompile(`(?i)[$€£¥]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:thousand|million|billion|[kmb]\b))?|\b\d[\d,]*(?:\.\d+)?\s?(?:usd|eur|gbp)\b`)
	timePattern     = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\+?\s?(?:seconds?|minutes?|hours?|days?|weeks?|months?|quarters?|years?)\b`)
	numberPattern   = regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?(?:x\b|\+)?`)
)

// extract returns every match of pattern in text together with the text
// left over once those matches are blanked out.
func extract(pattern *regexp.Regexp, text string) ([]string, string) {
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{}, text
	}

	found := make([]string, 0, len(locs))
	var rest strings.Builder
	last := 0
	for _, loc := range locs {
		found = append(found, strings.TrimSpace(text[loc[0]:loc[1]]))
		rest.WriteString(text[last:loc[0]])
		rest.WriteString(strings.Repeat(" ", loc[1]-loc[0]))
		last = loc[1]
	}
	rest.WriteString(text[last:])
	return found, rest.String()
}

// AnalyzeBullet reports which metric categories appear in a single bullet.
// Passes run percentages, currency, time units, then plain numbers, each on
// the text the previous passes left, so a token lands in one category only.
func AnalyzeBullet(text string) types.BulletQuantification {
	var m types.BulletMetrics
	rest := text
	m.Percentages, rest = extract(percentPattern, rest)
	m.Currency, rest = extract(currencyPattern, rest)
	m.TimeUnits, rest = extract(timePattern, rest)
	m.Numbers, _ = extract(numberPattern, rest)

	return types.BulletQuantification{
		Text:       text,
		HasMetrics: len(m.Percentages)+len(m.Currency)+len(m.TimeUnits)+len(m.Numbers) > 0,
		Metrics:    m,
	}
}

// AnalyzeBullets applies AnalyzeBullet to every bullet.
func AnalyzeBullets(bullets []string) []types.BulletQuantification {
	out := make([]types.BulletQuantification, len(bullets))
	for i, b := range bullets {
		out[i] = AnalyzeBullet(b)
	}
	return out
}

// CalculateDensity aggregates metric coverage across bullets. A bullet counts
// once in every category it contains.
func CalculateDensity(bullets []string) types.DensityResult {
	result := types.DensityResult{TotalBullets: len(bullets)}

	for _, b := range bullets {
		q := AnalyzeBullet(b)
		if !q.HasMetrics {
			continue
		}
		result.BulletsWithMetrics++
		if len(q.Metrics.Numbers) > 0 {
			result.ByCategory.Numbers++
		}
		if len(q.Metrics.Percentages) > 0 {
			result.ByCategory.Percentages++
		}
		if len(q.Metrics.Currency) > 0 {
			result.ByCategory.Currency++
		}
		if len(q.Metrics.TimeUnits) > 0 {
			result.ByCategory.TimeUnits++
		}
	}

	if result.TotalBullets > 0 {
		result.Density = int(math.Round(float64(result.BulletsWithMetrics) / float64(result.TotalBullets) * 100))
	}
	result.Label = DensityLabel(result.Density)
	return result
}

// DensityLabel buckets a density percentage.
func DensityLabel(density int) string {
	switch {
	case density >= 80:
		return LabelStrong
	case density >= 50:
		return LabelModerate
	default:
		return LabelLow
	}
}
