package output

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parascan/parascan/pkg/duration"
)

// Compile-time interface check.
var _ Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes scan metrics for scraping. It runs an HTTP
// server serving the configured path until Close is called.
type PrometheusHook struct {
	server   *http.Server
	registry *prometheus.Registry
	opts     PrometheusOptions

	probesTotal   *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
	rewardSum     *prometheus.GaugeVec
	probeSeconds  *prometheus.HistogramVec
	scanDuration  *prometheus.GaugeVec

	mu     sync.Mutex
	closed bool
}

// PrometheusOptions configures the metrics endpoint.
type PrometheusOptions struct {
	// Port for the metrics server (default: 9090).
	Port int

	// Path for the metrics endpoint (default: "/metrics").
	Path string
}

// NewPrometheusHook creates the hook and starts its metrics server.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Port == 0 {
		opts.Port = 9090
	}
	if opts.Path == "" {
		opts.Path = "/metrics"
	}

	// Custom registry keeps the default one clean.
	h := &PrometheusHook{
		registry: prometheus.NewRegistry(),
		opts:     opts,
	}
	if err := h.initMetrics(); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	h.startServer()
	return h, nil
}

func (h *PrometheusHook) initMetrics() error {
	h.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parascan_probes_total",
			Help: "Probe attempts by action and outcome",
		},
		[]string{"action", "outcome"},
	)
	h.findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parascan_findings_total",
			Help: "Confirmed findings by type and severity",
		},
		[]string{"type", "severity"},
	)
	// A gauge, not a counter: rewards are signed and clean misses and
	// probe errors subtract from the accumulated signal.
	h.rewardSum = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "parascan_reward_sum",
			Help: "Accumulated reward signal by action (signed)",
		},
		[]string{"action"},
	)
	h.probeSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parascan_probe_duration_seconds",
			Help:    "Probe latency distribution",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"action"},
	)
	h.scanDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "parascan_scan_duration_seconds",
			Help: "Total scan duration in seconds",
		},
		[]string{"target"},
	)

	for _, c := range []prometheus.Collector{
		h.probesTotal, h.findingsTotal, h.rewardSum, h.probeSeconds, h.scanDuration,
	} {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (h *PrometheusHook) startServer() {
	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	h.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", h.opts.Port),
		Handler:      mux,
		ReadTimeout:  duration.ShutdownTimeout,
		WriteTimeout: duration.DialTimeout,
	}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("metrics server error", "error", err)
		}
	}()
}

// EventTypes implements Hook.
func (*PrometheusHook) EventTypes() []EventType {
	return []EventType{EventTypeProbe, EventTypeFinding, EventTypeComplete}
}

// OnEvent implements Hook.
func (h *PrometheusHook) OnEvent(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *ProbeEvent:
		outcome := "clean"
		switch {
		case e.Error != "":
			outcome = "error"
		case e.Found:
			outcome = "finding"
		}
		h.probesTotal.WithLabelValues(e.Action, outcome).Inc()
		h.rewardSum.WithLabelValues(e.Action).Add(e.Reward)
		h.probeSeconds.WithLabelValues(e.Action).Observe(e.Latency.Seconds())
	case *FindingEvent:
		h.findingsTotal.WithLabelValues(e.Finding.Type, string(e.Finding.Severity)).Inc()
	case *CompleteEvent:
		h.scanDuration.WithLabelValues(e.Target).Set(e.Duration.Seconds())
	}
	return nil
}

// Close shuts down the metrics server.
func (h *PrometheusHook) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, duration.ShutdownTimeout)
	defer cancel()
	return h.server.Shutdown(shutdownCtx)
}

// Registry exposes the underlying registry, mainly for tests.
func (h *PrometheusHook) Registry() *prometheus.Registry {
	return h.registry
}
