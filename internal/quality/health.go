// Package quality aggregates judge outcomes per run and derives health
// status and alerts from them.
package quality

import (
	"math"
	"time"

	"resumescan/internal/types"
)

// Thresholds shared by rolling health and per-run alerting
const (
	CriticalPassRate = 50.0
	WarningPassRate  = 70.0
	WarningAvgScore  = 65.0
)

// Alert messages
const (
	MsgCriticalPassRate = "CRITICAL: pass rate below 50%."
	MsgWarningPassRate  = "Pass rate below 70%."
	MsgWarningAvgScore  = "Average score below 65."
	MsgNoData           = "No metrics data available."
)

// FailureJudgeError is the failure_breakdown key for suggestions the judge
// could not evaluate
const FailureJudgeError = "judge_error"

// BuildMetricLog aggregates one run's judged suggestions. Judge failures
// count as evaluated and failed; score statistics cover scored verdicts only.
func BuildMetricLog(scanID string, judged []types.JudgedSuggestion, now time.Time) types.QualityMetricLog {
	log := types.QualityMetricLog{
		ScanID:           scanID,
		TotalEvaluated:   len(judged),
		FailureBreakdown: map[string]int{},
		CreatedAt:        now.UTC(),
	}

	var scoreSum float64
	var criteria types.CriteriaAverages
	scored := 0

	for _, j := range judged {
		if j.Judge == nil {
			log.Failed++
			log.FailureBreakdown[FailureJudgeError]++
			continue
		}

		v := j.Judge
		scored++
		scoreSum += float64(v.QualityScore)
		log.ScoreDistribution[bucket(v.QualityScore)]++
		criteria.Authenticity += float64(v.CriteriaBreakdown.Authenticity)
		criteria.Clarity += float64(v.CriteriaBreakdown.Clarity)
		criteria.ATSRelevance += float64(v.CriteriaBreakdown.ATSRelevance)
		criteria.Actionability += float64(v.CriteriaBreakdown.Actionability)

		if v.Passed {
			log.Passed++
		} else {
			log.Failed++
			log.FailureBreakdown[string(v.Recommendation)]++
		}
	}

	if log.TotalEvaluated > 0 {
		log.PassRate = round2(float64(log.Passed) / float64(log.TotalEvaluated) * 100)
	}
	if scored > 0 {
		n := float64(scored)
		log.AvgScore = round2(scoreSum / n)
		log.CriteriaAvg = types.CriteriaAverages{
			Authenticity:  round2(criteria.Authenticity / n),
			Clarity:       round2(criteria.Clarity / n),
			ATSRelevance:  round2(criteria.ATSRelevance / n),
			Actionability: round2(criteria.Actionability / n),
		}
	}
	return log
}

// bucket maps a 0-100 score onto one of the 20-point distribution buckets
func bucket(score int) int {
	return min(max(score, 0)/20, types.ScoreBuckets-1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EvaluateQualityHealth pools logs weighted by their evaluated counts and
// applies the alert rules. The rules compose, so one evaluation may carry
// more than one alert.
func EvaluateQualityHealth(logs []types.QualityMetricLog) types.QualityHealth {
	total, passed := 0, 0
	var weightedScore float64
	for _, l := range logs {
		total += l.TotalEvaluated
		passed += l.Passed
		weightedScore += l.AvgScore * float64(l.TotalEvaluated)
	}

	if total == 0 {
		return types.QualityHealth{Status: types.HealthHealthy, Alerts: []string{MsgNoData}}
	}

	passRate := round2(float64(passed) / float64(total) * 100)
	avgScore := round2(weightedScore / float64(total))
	status, findings := evaluate(passRate, avgScore)

	alerts := make([]string, len(findings))
	for i, f := range findings {
		alerts[i] = f.message
	}
	return types.QualityHealth{
		Status:   status,
		PassRate: passRate,
		AvgScore: avgScore,
		Alerts:   alerts,
	}
}

type finding struct {
	severity Severity
	message  string
}

func evaluate(passRate, avgScore float64) (types.HealthStatus, []finding) {
	status := types.HealthHealthy
	findings := []finding{}

	switch {
	case passRate < CriticalPassRate:
		status = types.HealthCritical
		findings = append(findings, finding{SeverityCritical, MsgCriticalPassRate})
	case passRate < WarningPassRate:
		status = types.HealthWarning
		findings = append(findings, finding{SeverityWarning, MsgWarningPassRate})
	}

	if avgScore < WarningAvgScore {
		if status == types.HealthHealthy {
			status = types.HealthWarning
		}
		findings = append(findings, finding{SeverityWarning, MsgWarningAvgScore})
	}
	return status, findings
}
