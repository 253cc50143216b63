package serv

import (
	"context"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// newTracerProvider builds the sdk tracer provider used when tracing is
// enabled and no provider was passed in with OptionSetTracerProvider.
func newTracerProvider(c *Config, zlog *zap.Logger) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(newSampler(c.Telemetry.Tracing.Sample)),
	}

	if c.Telemetry.Debug {
		opts = append(opts, sdktrace.WithSpanProcessor(&logSpanProcessor{zlog: zlog}))
	}
	return sdktrace.NewTracerProvider(opts...)
}

func newSampler(sample string) sdktrace.Sampler {
	switch sample {
	case "always":
		return sdktrace.AlwaysSample()
	case "never":
		return sdktrace.NeverSample()
	}

	prob := 0.5
	if v, err := strconv.ParseFloat(sample, 64); err == nil {
		prob = v
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(prob))
}

func (s *MusicService) withTracing(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, s.conf.AppName,
		otelhttp.WithTracerProvider(s.tp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + s.conf.RoutePrefix
		}))
}

func spanError(span trace.Span, err error) {
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// logSpanProcessor writes finished spans to the service log.
type logSpanProcessor struct {
	zlog *zap.Logger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := []zap.Field{
		zap.String("span", s.Name()),
		zap.String("trace_id", s.SpanContext().TraceID().String()),
		zap.Duration("duration", s.EndTime().Sub(s.StartTime())),
		zap.String("status", s.Status().Code.String()),
	}

	for _, a := range s.Attributes() {
		fields = append(fields, zap.String(string(a.Key), a.Value.Emit()))
	}
	p.zlog.Debug("span", fields...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
