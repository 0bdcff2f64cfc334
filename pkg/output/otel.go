package output

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/parascan/parascan/pkg/defaults"
	"github.com/parascan/parascan/pkg/duration"
)

// Compile-time interface check.
var _ Hook = (*OTelHook)(nil)

// OTelHook exports scan telemetry to an OpenTelemetry collector. The
// scan becomes one root span; probes and findings become span events.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	mu       sync.Mutex
	rootSpan trace.Span
	closed   bool
}

// OTelOptions configures the OpenTelemetry exporter.
type OTelOptions struct {
	// Endpoint is the OTLP gRPC endpoint (default: "localhost:4317").
	Endpoint string

	// ServiceName names the service in traces (default: tool name).
	ServiceName string

	// Insecure disables TLS on the exporter connection.
	Insecure bool

	// Headers are extra headers for the OTLP exporter.
	Headers map[string]string
}

// NewOTelHook creates the hook and connects its exporter. Connection
// failures surface here rather than mid-scan.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4317"
	}

	grpcOpts := []grpc.DialOption{}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithDialOption(grpcOpts...),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration.DialTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "scanner"),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	return &OTelHook{
		opts:           opts,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer("parascan/scanner"),
	}, nil
}

// EventTypes implements Hook.
func (*OTelHook) EventTypes() []EventType { return nil }

// OnEvent implements Hook.
func (h *OTelHook) OnEvent(ctx context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *StartEvent:
		_, span := h.tracer.Start(ctx, "parascan.scan",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("scan_id", e.ScanID),
				attribute.String("target", e.Target),
				attribute.Int("parameters", e.Parameters),
				attribute.Int("concurrency", e.Concurrency),
				attribute.Float64("epsilon", e.Epsilon),
			),
		)
		h.rootSpan = span
	case *ProbeEvent:
		if h.rootSpan == nil {
			return nil
		}
		h.rootSpan.AddEvent("probe", trace.WithAttributes(
			attribute.String("parameter", e.Parameter),
			attribute.String("state", e.State),
			attribute.String("action", e.Action),
			attribute.Bool("found", e.Found),
			attribute.Float64("reward", e.Reward),
			attribute.Float64("latency_ms", float64(e.Latency)/float64(time.Millisecond)),
			attribute.String("error", e.Error),
		))
	case *FindingEvent:
		if h.rootSpan == nil {
			return nil
		}
		h.rootSpan.AddEvent("finding", trace.WithAttributes(
			attribute.String("type", e.Finding.Type),
			attribute.String("parameter", e.Finding.Parameter),
			attribute.String("severity", string(e.Finding.Severity)),
			attribute.String("url", e.Finding.URL),
		))
	case *CompleteEvent:
		if h.rootSpan == nil {
			return nil
		}
		if e.Cancelled {
			h.rootSpan.SetStatus(codes.Error, "scan cancelled")
		} else {
			h.rootSpan.SetStatus(codes.Ok, "")
		}
		h.rootSpan.SetAttributes(
			attribute.Int("probes", e.Probes),
			attribute.Int("findings", e.Findings),
			attribute.Int("errors", e.Errors),
		)
		h.rootSpan.End()
		h.rootSpan = nil
	}
	return nil
}

// Close flushes and shuts down the tracer provider.
func (h *OTelHook) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	if h.rootSpan != nil {
		h.rootSpan.End()
		h.rootSpan = nil
	}
	h.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, duration.ShutdownTimeout)
	defer cancel()
	return h.tracerProvider.Shutdown(shutdownCtx)
}
