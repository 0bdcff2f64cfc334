package output

import (
	"context"
	"log/slog"
)

// Compile-time interface check.
var _ Hook = (*LoggerHook)(nil)

// LoggerHook writes scan events to a structured logger.
type LoggerHook struct {
	logger *slog.Logger
}

// NewLoggerHook creates a logging hook. A nil logger uses slog.Default.
func NewLoggerHook(logger *slog.Logger) *LoggerHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggerHook{logger: logger}
}

// EventTypes implements Hook; the logger wants everything.
func (*LoggerHook) EventTypes() []EventType { return nil }

// OnEvent implements Hook.
func (h *LoggerHook) OnEvent(ctx context.Context, event Event) error {
	switch e := event.(type) {
	case *StartEvent:
		h.logger.InfoContext(ctx, "scan started",
			"scan_id", e.ScanID,
			"target", e.Target,
			"parameters", e.Parameters,
			"concurrency", e.Concurrency,
			"epsilon", e.Epsilon)
	case *ProbeEvent:
		attrs := []any{
			"scan_id", e.ScanID,
			"parameter", e.Parameter,
			"state", e.State,
			"action", e.Action,
			"found", e.Found,
			"reward", e.Reward,
			"latency", e.Latency,
		}
		if e.Error != "" {
			attrs = append(attrs, "error", e.Error)
			h.logger.WarnContext(ctx, "probe failed", attrs...)
		} else {
			h.logger.DebugContext(ctx, "probe finished", attrs...)
		}
	case *FindingEvent:
		h.logger.InfoContext(ctx, "finding",
			"scan_id", e.ScanID,
			"type", e.Finding.Type,
			"parameter", e.Finding.Parameter,
			"severity", e.Finding.Severity,
			"url", e.Finding.URL)
	case *CompleteEvent:
		h.logger.InfoContext(ctx, "scan complete",
			"scan_id", e.ScanID,
			"target", e.Target,
			"probes", e.Probes,
			"findings", e.Findings,
			"errors", e.Errors,
			"duration", e.Duration,
			"cancelled", e.Cancelled)
	}
	return nil
}

// Close implements Hook.
func (*LoggerHook) Close(context.Context) error { return nil }
