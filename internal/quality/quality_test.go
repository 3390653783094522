package quality

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"resumescan/internal/errors"
	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func metricLog(total, passed int, avg float64) types.QualityMetricLog {
	l := types.QualityMetricLog{TotalEvaluated: total, Passed: passed, Failed: total - passed, AvgScore: avg}
	if total > 0 {
		l.PassRate = float64(passed) / float64(total) * 100
	}
	return l
}

func TestEvaluateQualityHealth(t *testing.T) {
	tests := []struct {
		name   string
		logs   []types.QualityMetricLog
		status types.HealthStatus
		alerts []string
	}{
		{
			name:   "no logs",
			logs:   nil,
			status: types.HealthHealthy,
			alerts: []string{MsgNoData},
		},
		{
			name:   "critical pass rate and low average",
			logs:   []types.QualityMetricLog{metricLog(10, 4, 45)},
			status: types.HealthCritical,
			alerts: []string{MsgCriticalPassRate, MsgWarningAvgScore},
		},
		{
			name:   "warning pass rate",
			logs:   []types.QualityMetricLog{metricLog(10, 6, 75)},
			status: types.HealthWarning,
			alerts: []string{MsgWarningPassRate},
		},
		{
			name:   "low average only",
			logs:   []types.QualityMetricLog{metricLog(10, 8, 60)},
			status: types.HealthWarning,
			alerts: []string{MsgWarningAvgScore},
		},
		{
			name:   "healthy",
			logs:   []types.QualityMetricLog{metricLog(10, 9, 82)},
			status: types.HealthHealthy,
			alerts: []string{},
		},
		{
			name:   "pass rate exactly 50 is a warning",
			logs:   []types.QualityMetricLog{metricLog(4, 2, 80)},
			status: types.HealthWarning,
			alerts: []string{MsgWarningPassRate},
		},
		{
			name:   "pass rate exactly 70 is healthy",
			logs:   []types.QualityMetricLog{metricLog(10, 7, 65)},
			status: types.HealthHealthy,
			alerts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateQualityHealth(tt.logs)
			if got.Status != tt.status {
				t.Errorf("Expected status %s, got %s", tt.status, got.Status)
			}
			assert.Equal(t, tt.alerts, got.Alerts)
		})
	}
}

func TestEvaluateQualityHealthPoolsByVolume(t *testing.T) {
	logs := []types.QualityMetricLog{
		metricLog(90, 81, 80), // 90% pass
		metricLog(10, 1, 30),  // 10% pass
	}
	got := EvaluateQualityHealth(logs)

	assert.InDelta(t, 82.0, got.PassRate, 0.001)
	assert.InDelta(t, 75.0, got.AvgScore, 0.001)
	assert.Equal(t, types.HealthHealthy, got.Status)
}

func TestEvaluateQualityHealthIgnoresEmptyLogs(t *testing.T) {
	got := EvaluateQualityHealth([]types.QualityMetricLog{metricLog(0, 0, 0)})
	assert.Equal(t, types.HealthHealthy, got.Status)
	assert.Equal(t, []string{MsgNoData}, got.Alerts)
}

func verdict(id string, score int, passed bool, rec types.Recommendation) types.JudgedSuggestion {
	return types.JudgedSuggestion{
		Suggestion: types.Suggestion{ID: id},
		Judge: &types.JudgeResult{
			SuggestionID:      id,
			QualityScore:      score,
			Passed:            passed,
			Recommendation:    rec,
			CriteriaBreakdown: types.CriteriaBreakdown{Authenticity: 20, Clarity: 10, ATSRelevance: 15, Actionability: 25},
		},
		Verified:   passed,
		Unverified: !passed,
	}
}

func TestBuildMetricLog(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.FixedZone("X", 7200))
	judged := []types.JudgedSuggestion{
		verdict("a", 90, true, types.RecommendAccept),
		verdict("b", 100, true, types.RecommendAccept),
		verdict("c", 50, false, types.RecommendRevise),
		verdict("d", 10, false, types.RecommendReject),
		{Suggestion: types.Suggestion{ID: "e"}, Unverified: true, Retryable: true, JudgeError: "timeout"},
	}

	log := BuildMetricLog("scan-1", judged, now)

	assert.Equal(t, "scan-1", log.ScanID)
	assert.Equal(t, 5, log.TotalEvaluated)
	assert.Equal(t, 2, log.Passed)
	assert.Equal(t, 3, log.Failed)
	assert.Equal(t, 40.0, log.PassRate)
	assert.Equal(t, 62.5, log.AvgScore)
	assert.Equal(t, [types.ScoreBuckets]int{1, 0, 1, 0, 2}, log.ScoreDistribution)
	assert.Equal(t, map[string]int{"revise": 1, "reject": 1, FailureJudgeError: 1}, log.FailureBreakdown)
	assert.Equal(t, types.CriteriaAverages{Authenticity: 20, Clarity: 10, ATSRelevance: 15, Actionability: 25}, log.CriteriaAvg)
	assert.Equal(t, time.UTC, log.CreatedAt.Location())
}

func TestBuildMetricLogEmpty(t *testing.T) {
	log := BuildMetricLog("scan", nil, time.Now())
	assert.Zero(t, log.TotalEvaluated)
	assert.Zero(t, log.PassRate)
	assert.NotNil(t, log.FailureBreakdown)
}

func TestCheckAndEmitAlerts(t *testing.T) {
	tests := []struct {
		name       string
		log        types.QualityMetricLog
		severities []Severity
	}{
		{"healthy run", metricLog(10, 9, 85), nil},
		{"empty run", metricLog(0, 0, 0), nil},
		{"critical", metricLog(10, 3, 70), []Severity{SeverityCritical}},
		{"critical with low score", metricLog(10, 4, 45), []Severity{SeverityCritical, SeverityWarning}},
		{"warning", metricLog(10, 6, 80), []Severity{SeverityWarning}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &RecordingSink{}
			tt.log.ScanID = "scan-9"
			returned := CheckAndEmitAlerts(context.Background(), sink, tt.log)

			var got []Severity
			for _, a := range sink.Alerts() {
				got = append(got, a.Severity)
				assert.Equal(t, "scan-9", a.ScanID)
			}
			assert.Equal(t, tt.severities, got)
			assert.Len(t, returned, len(tt.severities))
		})
	}
}

func TestLoggerSink(t *testing.T) {
	var buf bytes.Buffer
	logger := errors.NewLoggerWithHandler(slog.NewJSONHandler(&buf, nil))
	NewLoggerSink(logger).Emit(context.Background(), Alert{Severity: SeverityCritical, Message: MsgCriticalPassRate, ScanID: "s"})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "CRITICAL", record["severity"])
	assert.Contains(t, record["msg"], MsgCriticalPassRate)
}

func TestMetricsAndMultiSink(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metricsSink, err := NewMetricsSink(provider.Meter("test"))
	require.NoError(t, err)

	recording := &RecordingSink{}
	sink := MultiSink{metricsSink, recording, nil}
	CheckAndEmitAlerts(context.Background(), sink, metricLog(10, 4, 45))

	assert.Len(t, recording.Alerts(), 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "resumescan_quality_alerts_total", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	bySeverity := map[string]int64{}
	for _, dp := range sum.DataPoints {
		sev, _ := dp.Attributes.Value("severity")
		bySeverity[sev.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"CRITICAL": 1, "WARNING": 1}, bySeverity)
}
