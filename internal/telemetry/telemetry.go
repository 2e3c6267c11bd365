// Package telemetry records Prometheus metrics and OpenTelemetry spans for handled
// requests. A nil *Recorder is valid and records nothing.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"thirteen/internal/app"
)

const (
	defaultNamespace  = "thirteen"
	defaultTracerName = "thirteen"

	OutcomeOK = "ok"

	AttrConnectionID = "thirteen.connection_id"
	AttrLobbyCode    = "thirteen.lobby_code"
)

// Config configures a Recorder.
type Config struct {
	// Namespace prefixes every metric name (default: "thirteen").
	Namespace string

	// Registry receives the collectors (default: prometheus.DefaultRegisterer).
	Registry prometheus.Registerer

	// TracerName names the tracer taken from the global provider (default: "thirteen").
	TracerName string

	// Lobbies reports the live lobby count for the lobbies gauge. Optional.
	Lobbies func() int
}

// Option configures a Recorder.
type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithLobbyCount exposes fn as the lobbies gauge.
func WithLobbyCount(fn func() int) Option {
	return func(c *Config) {
		c.Lobbies = fn
	}
}

// Recorder holds the request metrics shared by both transports.
type Recorder struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	connections prometheus.Gauge
	tracer      trace.Tracer
}

// New registers the collectors and resolves the tracer.
func New(opts ...Option) *Recorder {
	config := Config{
		Namespace:  defaultNamespace,
		Registry:   prometheus.DefaultRegisterer,
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	r := &Recorder{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "requests_total",
			Help:      "Total number of handled requests by kind and outcome",
		}, []string{"kind", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "connections",
			Help:      "Number of open client connections",
		}),

		tracer: otel.Tracer(config.TracerName),
	}

	if config.Lobbies != nil {
		lobbies := config.Lobbies
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "lobbies",
			Help:      "Number of live lobbies",
		}, func() float64 { return float64(lobbies()) })
	}

	return r
}

// ConnectionOpened counts a new client connection.
func (r *Recorder) ConnectionOpened() {
	if r == nil {
		return
	}
	r.connections.Inc()
}

// ConnectionClosed uncounts a client connection.
func (r *Recorder) ConnectionClosed() {
	if r == nil {
		return
	}
	r.connections.Dec()
}

// Op is one in-flight request. A nil *Op is valid.
type Op struct {
	r     *Recorder
	kind  string
	start time.Time
	span  trace.Span
}

// Begin starts timing a request of kind and opens its span. The returned context
// carries the span.
func (r *Recorder) Begin(ctx context.Context, kind, connectionID string) (context.Context, *Op) {
	if r == nil {
		return ctx, nil
	}
	ctx, span := r.tracer.Start(ctx, "thirteen."+kind,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String(AttrConnectionID, connectionID)),
	)
	return ctx, &Op{r: r, kind: kind, start: time.Now(), span: span}
}

// End records the outcome. lobbyCode may be empty when the connection is unbound.
func (op *Op) End(lobbyCode string, err error) {
	if op == nil {
		return
	}
	outcome := Outcome(err)
	op.r.requests.WithLabelValues(op.kind, outcome).Inc()
	op.r.duration.WithLabelValues(op.kind).Observe(time.Since(op.start).Seconds())

	if lobbyCode != "" {
		op.span.SetAttributes(attribute.String(AttrLobbyCode, lobbyCode))
	}
	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, outcome)
	} else {
		op.span.SetStatus(codes.Ok, "")
	}
	op.span.End()
}

// Outcome is the requests_total label for err: "ok" or the rejection kind.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(app.KindOf(err))
}
