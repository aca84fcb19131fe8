package api

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes finished spans to a logger at debug level.
type LogExporter struct {
	log log.FieldLogger
}

func NewLogExporter(l log.FieldLogger) *LogExporter { return &LogExporter{log: l} }

func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := log.Fields{
			"trace_id":    s.SpanContext().TraceID().String(),
			"span_id":     s.SpanContext().SpanID().String(),
			"duration_ms": s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status":      s.Status().Code.String(),
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		if d := s.Status().Description; d != "" {
			fields["error"] = d
		}
		e.log.WithFields(fields).Debug("span " + s.Name())
	}
	return nil
}

func (e *LogExporter) Shutdown(context.Context) error { return nil }

// InstallTracing makes spans of every client visible through the logger.
// The returned func flushes and restores the previous provider.
func InstallTracing(l log.FieldLogger) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewLogExporter(l)))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	return func(ctx context.Context) error {
		otel.SetTracerProvider(prev)
		return tp.Shutdown(ctx)
	}
}
