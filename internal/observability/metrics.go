package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservo_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reservo_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LifecycleTransitions counts business status transitions by source and target state.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservo_business_lifecycle_transitions_total",
		Help: "Total number of business lifecycle transitions",
	}, []string{"from", "to"})

	// ModerationRequestsCreated counts moderation ledger rows created by request type.
	ModerationRequestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservo_moderation_requests_created_total",
		Help: "Total number of moderation requests created",
	}, []string{"type"})

	// ModerationRequestsResolved counts moderation requests resolved by type and outcome.
	ModerationRequestsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservo_moderation_requests_resolved_total",
		Help: "Total number of moderation requests resolved",
	}, []string{"type", "outcome"})

	// NotificationsSent counts notification deliveries by channel and outcome.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservo_notifications_sent_total",
		Help: "Total number of notifications dispatched",
	}, []string{"channel", "outcome"})
)

// RecordLifecycleTransition increments the transition counter for a status change.
func RecordLifecycleTransition(from, to string) {
	LifecycleTransitions.WithLabelValues(from, to).Inc()
}

// RecordRequestCreated increments the created counter for a request type.
func RecordRequestCreated(requestType string) {
	ModerationRequestsCreated.WithLabelValues(requestType).Inc()
}

// RecordRequestResolved increments the resolved counter for a type and outcome.
func RecordRequestResolved(requestType, outcome string) {
	ModerationRequestsResolved.WithLabelValues(requestType, outcome).Inc()
}

// RecordNotification increments the notification counter for a channel and outcome.
func RecordNotification(channel, outcome string) {
	NotificationsSent.WithLabelValues(channel, outcome).Inc()
}

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// TracingContextKey is the type for context keys used in tracing.
type TracingContextKey string

const (
	// TraceIDKey is the context key for trace ID.
	TraceIDKey TracingContextKey = "trace_id"
	// SpanIDKey is the context key for span ID.
	SpanIDKey TracingContextKey = "span_id"
	// CorrelationIDKey is the context key for correlation ID.
	CorrelationIDKey TracingContextKey = "correlation_id"
)

// ExtractTraceID returns the trace ID from the context if set.
func ExtractTraceID(ctx context.Context) string {
	if id := ctx.Value(TraceIDKey); id != nil {
		return id.(string)
	}
	return ""
}

// ExtractCorrelationIDFromTracing returns the correlation ID from the context if set.
func ExtractCorrelationIDFromTracing(ctx context.Context) string {
	if id := ctx.Value(CorrelationIDKey); id != nil {
		return id.(string)
	}
	return ""
}

// NewSpanContext returns a context with trace and span ID values set.
func NewSpanContext(traceID, spanID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	ctx = context.WithValue(ctx, SpanIDKey, spanID)
	return ctx
}

// WithCorrelationIDFromTracing returns a context with the correlation ID set.
func WithCorrelationIDFromTracing(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GenerateTraceID returns a new trace ID string.
func GenerateTraceID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// GenerateSpanID returns a new span ID string.
func GenerateSpanID() string {
	return strconv.FormatInt(time.Now().UnixNano()%10000000000, 36)
}
