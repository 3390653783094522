package observability

import (
	"context"
	"fmt"
	"time"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/judge"
	"resumescan/internal/keywords"
	"resumescan/internal/lifecycle"
	"resumescan/internal/pipeline"
	"resumescan/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the domain instruments and implements the recorder ports of
// the ai, keywords, judge, lifecycle and pipeline packages
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	AnalysesRun           metric.Int64Counter
	AnalysisDuration      metric.Float64Histogram
	JudgeVerdicts         metric.Int64Counter
	JudgeScore            metric.Int64Histogram
	SuggestionTransitions metric.Int64Counter

	// Infrastructure metrics
	CacheLookups  metric.Int64Counter
	RateLimitHits metric.Int64Counter

	custom config.CustomMetricsConfig
}

var (
	_ ai.Recorder            = (*Metrics)(nil)
	_ keywords.CacheRecorder = (*Metrics)(nil)
	_ judge.Recorder         = (*Metrics)(nil)
	_ lifecycle.Recorder     = (*Metrics)(nil)
	_ pipeline.Recorder      = (*Metrics)(nil)
)

// allMetrics enables every metric group
var allMetrics = config.CustomMetricsConfig{
	AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
	BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackJudgeScores: true, TrackTransitions: true, TrackQualityAlerts: true},
	Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackCache: true},
}

// NewMetrics creates the instruments on meter. A nil custom enables every group.
func NewMetrics(meter metric.Meter, custom *config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{custom: allMetrics}
	if custom != nil {
		m.custom = *custom
	}

	for _, create := range []func(metric.Meter) error{
		m.createAIMetrics,
		m.createBusinessMetrics,
		m.createInfrastructureMetrics,
	} {
		if err := create(meter); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// createAIMetrics creates AI-related metrics
func (m *Metrics) createAIMetrics(meter metric.Meter) error {
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"resumescan_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"resumescan_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"resumescan_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"resumescan_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

// createBusinessMetrics creates analysis, judge and lifecycle metrics
func (m *Metrics) createBusinessMetrics(meter metric.Meter) error {
	var err error

	m.AnalysesRun, err = meter.Int64Counter(
		"resumescan_analyses_total",
		metric.WithDescription("Total number of completed analysis runs"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analyses metric: %w", err)
	}

	m.AnalysisDuration, err = meter.Float64Histogram(
		"resumescan_analysis_duration_seconds",
		metric.WithDescription("Wall time of an analysis run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	m.JudgeVerdicts, err = meter.Int64Counter(
		"resumescan_judge_verdicts_total",
		metric.WithDescription("Total number of judge verdicts"),
	)
	if err != nil {
		return fmt.Errorf("failed to create judge verdicts metric: %w", err)
	}

	m.JudgeScore, err = meter.Int64Histogram(
		"resumescan_judge_score",
		metric.WithDescription("Distribution of judge quality scores"),
		metric.WithExplicitBucketBoundaries(20, 40, 60, 70, 80, 100),
	)
	if err != nil {
		return fmt.Errorf("failed to create judge score metric: %w", err)
	}

	m.SuggestionTransitions, err = meter.Int64Counter(
		"resumescan_suggestion_transitions_total",
		metric.WithDescription("Total number of suggestion status transitions"),
	)
	if err != nil {
		return fmt.Errorf("failed to create suggestion transitions metric: %w", err)
	}

	return nil
}

// createInfrastructureMetrics creates cache and rate limiting metrics
func (m *Metrics) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	m.CacheLookups, err = meter.Int64Counter(
		"resumescan_cache_lookups_total",
		metric.WithDescription("Total number of cache lookups"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache lookups metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"resumescan_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// RecordAICall records one completed LLM call
func (m *Metrics) RecordAICall(ctx context.Context, operation string, duration time.Duration, usage *ai.TokenUsage, err error) {
	cfg := m.custom.AIOperations
	if !cfg.Enabled {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	if cfg.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if usage == nil || !cfg.TrackTokenUsage {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordAnalysis records one finished analysis run
func (m *Metrics) RecordAnalysis(ctx context.Context, flag string, suggestions int, duration time.Duration) {
	if !m.custom.BusinessMetrics.Enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("quality_flag", flag))
	m.AnalysesRun.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordJudgeVerdict records one judge verdict
func (m *Metrics) RecordJudgeVerdict(ctx context.Context, passed bool, score int) {
	cfg := m.custom.BusinessMetrics
	if !cfg.Enabled || !cfg.TrackJudgeScores {
		return
	}
	m.JudgeVerdicts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("passed", passed)))
	m.JudgeScore.Record(ctx, int64(score))
}

// RecordTransition records n suggestions moving between statuses
func (m *Metrics) RecordTransition(ctx context.Context, from, to types.SuggestionStatus, n int) {
	cfg := m.custom.BusinessMetrics
	if !cfg.Enabled || !cfg.TrackTransitions || n <= 0 {
		return
	}
	m.SuggestionTransitions.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	cfg := m.custom.Infrastructure
	if !cfg.Enabled || !cfg.TrackCache {
		return
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.Bool("hit", hit),
	))
}

// RecordRateLimitHit records a request rejected by the rate limiter
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limitType string) {
	cfg := m.custom.Infrastructure
	if !cfg.Enabled || !cfg.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_type", limitType)))
}

// QualityAlertsEnabled reports whether the quality alert counter should be wired
func (m *Metrics) QualityAlertsEnabled() bool {
	return m.custom.BusinessMetrics.Enabled && m.custom.BusinessMetrics.TrackQualityAlerts
}
