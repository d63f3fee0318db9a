package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	"gemini-terminal/internal/logging"
)

// InstrumentationName is the tracer and meter name used across the app
const InstrumentationName = "gemini-terminal"

const (
	tracesFileName  = "traces.log"
	metricsFileName = "metrics.log"
	metricInterval  = 30 * time.Second
)

// Options places the export files and sets their rotation. The limits
// mirror the log file's.
type Options struct {
	Dir        string
	Version    string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Tracer returns the global tracer. It is a no-op until Init has run.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Meter returns the global meter. It is a no-op until Init has run.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

func (o Options) rotatedFile(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(o.Dir, name),
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   true,
	}
}

// Init installs global tracer and meter providers writing pretty-printed
// JSON to rotated files in opts.Dir. The returned function flushes both
// providers and closes the files.
func Init(ctx context.Context, opts Options) (func(), error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(InstrumentationName),
			semconv.ServiceVersion(opts.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceFile := opts.rotatedFile(tracesFileName)
	spans, err := stdouttrace.New(stdouttrace.WithWriter(traceFile), stdouttrace.WithPrettyPrint())
	if err != nil {
		traceFile.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	metricsFile := opts.rotatedFile(metricsFileName)
	points, err := stdoutmetric.New(stdoutmetric.WithWriter(metricsFile), stdoutmetric.WithPrettyPrint())
	if err != nil {
		traceFile.Close()
		metricsFile.Close()
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(spans), sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(points, sdkmetric.WithInterval(metricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logging.Info("Telemetry exporting to %s", opts.Dir)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logging.Error("Failed to shutdown tracer provider: %v", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			logging.Error("Failed to shutdown meter provider: %v", err)
		}
		traceFile.Close()
		metricsFile.Close()
	}, nil
}
