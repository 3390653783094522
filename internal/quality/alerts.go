package quality

import (
	"context"
	"sync"

	"resumescan/internal/errors"
	"resumescan/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Severity of an operational alert
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Alert is emitted when a run's judge quality crosses a threshold
type Alert struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	ScanID   string   `json:"scanId"`
	PassRate float64  `json:"passRate"`
	AvgScore float64  `json:"avgScore"`
}

// AlertSink receives alerts
type AlertSink interface {
	Emit(ctx context.Context, alert Alert)
}

// CheckAndEmitAlerts evaluates a single run against the health thresholds
// and emits one alert per finding. Healthy or empty runs emit nothing.
func CheckAndEmitAlerts(ctx context.Context, sink AlertSink, log types.QualityMetricLog) []Alert {
	if log.TotalEvaluated == 0 {
		return nil
	}

	_, findings := evaluate(log.PassRate, log.AvgScore)
	alerts := make([]Alert, 0, len(findings))
	for _, f := range findings {
		a := Alert{
			Severity: f.severity,
			Message:  f.message,
			ScanID:   log.ScanID,
			PassRate: log.PassRate,
			AvgScore: log.AvgScore,
		}
		if sink != nil {
			sink.Emit(ctx, a)
		}
		alerts = append(alerts, a)
	}
	return alerts
}

// LoggerSink writes alerts to the application log
type LoggerSink struct {
	logger *errors.Logger
}

// NewLoggerSink creates a sink over logger
func NewLoggerSink(logger *errors.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

func (s *LoggerSink) Emit(_ context.Context, a Alert) {
	args := []any{
		"severity", string(a.Severity),
		"scan_id", a.ScanID,
		"pass_rate", a.PassRate,
		"avg_score", a.AvgScore,
	}
	if a.Severity == SeverityCritical {
		s.logger.Error("Judge quality alert: "+a.Message, args...)
		return
	}
	s.logger.Warn("Judge quality alert: "+a.Message, args...)
}

// MetricsSink counts alerts by severity
type MetricsSink struct {
	counter metric.Int64Counter
}

// NewMetricsSink registers resumescan_quality_alerts_total on meter
func NewMetricsSink(meter metric.Meter) (*MetricsSink, error) {
	counter, err := meter.Int64Counter(
		"resumescan_quality_alerts_total",
		metric.WithDescription("Judge quality alerts by severity"),
	)
	if err != nil {
		return nil, err
	}
	return &MetricsSink{counter: counter}, nil
}

func (s *MetricsSink) Emit(ctx context.Context, a Alert) {
	s.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("severity", string(a.Severity))))
}

// MultiSink fans alerts out to several sinks
type MultiSink []AlertSink

func (m MultiSink) Emit(ctx context.Context, a Alert) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, a)
		}
	}
}

// RecordingSink keeps alerts in memory
type RecordingSink struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *RecordingSink) Emit(_ context.Context, a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

// Alerts returns a copy of the recorded alerts
func (r *RecordingSink) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}
