package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskboard-api/api"

// taskQueryMetrics instruments the task query request path: one span per
// request with stage-duration attributes, mirrored into a structured log
// entry when the request finishes.
type taskQueryMetrics struct {
	logger             *log.Logger
	span               trace.Span
	start              time.Time
	authDuration       time.Duration
	membershipDuration time.Duration
	fetchDuration      time.Duration
	encodeDuration     time.Duration
	facetsApplied      bool
	tasksReturned      int
	errorStage         string
}

func newTaskQueryMetrics(ctx context.Context, logger *log.Logger) (*taskQueryMetrics, context.Context) {
	m := &taskQueryMetrics{
		logger: logger,
		start:  time.Now(),
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "tasks.query")
	m.span = span
	return m, spanCtx
}

func (m *taskQueryMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *taskQueryMetrics) ObserveMembership(d time.Duration) {
	if d > 0 {
		m.membershipDuration = d
	}
}

func (m *taskQueryMetrics) ObserveFetch(d time.Duration) {
	if d > 0 {
		m.fetchDuration = d
	}
}

func (m *taskQueryMetrics) ObserveEncode(d time.Duration) {
	if d > 0 {
		m.encodeDuration = d
	}
}

func (m *taskQueryMetrics) SetFacetsApplied(applied bool) {
	m.facetsApplied = applied
}

func (m *taskQueryMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *taskQueryMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// severityForStatus maps an HTTP outcome to OpenTelemetry log severity.
func severityForStatus(status int, err error) (string, int64) {
	switch {
	case err != nil || status >= 500:
		return "ERROR", 17
	case status >= 400:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

// Log finishes the span and emits the structured request entry.
func (m *taskQueryMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	totalMS := durationToMillis(time.Since(m.start))
	severityText, severityNumber := severityForStatus(status, err)

	if m.span != nil {
		attrs := []attribute.KeyValue{
			attribute.String("http.route", "/api/tasks"),
			attribute.Int("http.status_code", status),
			attribute.Float64("request.duration_ms", totalMS),
			attribute.Int("tasks.returned", m.tasksReturned),
			attribute.Bool("tasks.facets_applied", m.facetsApplied),
			attribute.String("severity_text", severityText),
			attribute.Int64("severity_number", severityNumber),
		}
		if m.errorStage != "" {
			attrs = append(attrs, attribute.String("error.stage", m.errorStage))
		}
		m.span.SetAttributes(attrs...)
		if err != nil {
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		} else if status >= 500 {
			m.span.SetStatus(codes.Error, "server error")
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":          "/api/tasks",
		"status":         status,
		"total_ms":       totalMS,
		"tasks_returned": m.tasksReturned,
		"facets_applied": m.facetsApplied,
	}
	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.membershipDuration > 0 {
		fields["membership_ms"] = durationToMillis(m.membershipDuration)
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error("tasks.query.metrics")
	case "WARN":
		entry.Warn("tasks.query.metrics")
	default:
		entry.Info("tasks.query.metrics")
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
