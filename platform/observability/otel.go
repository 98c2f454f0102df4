package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogsPath      = "/otlp/v1/logs"
	TracesPath    = "/otlp/v1/traces"
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

// Options describes where telemetry goes. An empty Endpoint keeps everything local:
// console JSON logs and the global no-op tracer.
type Options struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	AuthHeader     string
}

// Telemetry owns the providers created by Setup.
type Telemetry struct {
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	shutdownFuncs  []func(context.Context) error
}

func Setup(ctx context.Context, opts Options) (*Telemetry, error) {
	t := &Telemetry{TracerProvider: otel.GetTracerProvider()}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if opts.Endpoint == "" {
		logger, err := zap.NewProduction(zap.Fields(zap.String("service.name", opts.ServiceName)))
		if err != nil {
			return nil, err
		}
		t.Logger = logger
		return t, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var setupErr error
	headers := map[string]string{"Authorization": opts.AuthHeader}

	logExporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(opts.Endpoint),
		otlploghttp.WithURLPath(LogsPath),
		otlploghttp.WithHeaders(headers),
	)
	if err != nil {
		setupErr = errors.Join(setupErr, fmt.Errorf("OTLP log exporter: %w", err))
	} else {
		loggerProvider := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter,
				sdklog.WithExportTimeout(ExportTimeout),
				sdklog.WithMaxQueueSize(MaxQueueSize),
			)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(loggerProvider)
		t.shutdownFuncs = append(t.shutdownFuncs, loggerProvider.Shutdown)
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithURLPath(TracesPath),
		otlptracehttp.WithHeaders(headers),
	)
	if err != nil {
		setupErr = errors.Join(setupErr, fmt.Errorf("OTLP trace exporter: %w", err))
	} else {
		tracerProvider := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithResource(res),
			sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(traceExporter,
				sdktrace.WithExportTimeout(ExportTimeout),
				sdktrace.WithMaxQueueSize(MaxQueueSize),
			)),
		)
		otel.SetTracerProvider(tracerProvider)
		t.TracerProvider = tracerProvider
		t.shutdownFuncs = append(t.shutdownFuncs, tracerProvider.Shutdown)
	}

	t.Logger = newBridgedLogger(opts.ServiceName)
	if setupErr != nil {
		t.Logger.Error("OpenTelemetry setup incomplete", zap.Error(setupErr))
	}
	return t, nil
}

// newBridgedLogger tees console JSON output with the OTLP log pipeline.
func newBridgedLogger(serviceName string) *zap.Logger {
	otelCore := otelzap.NewCore(serviceName+".manual",
		otelzap.WithLoggerProvider(global.GetLoggerProvider()),
	)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zap.InfoLevel,
	)

	return zap.New(zapcore.NewTee(otelCore, consoleCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", serviceName)),
	)
}

func (t *Telemetry) Tracer(name string) trace.Tracer {
	return t.TracerProvider.Tracer(name)
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range t.shutdownFuncs {
		err = errors.Join(err, fn(ctx))
	}
	t.shutdownFuncs = nil
	if t.Logger != nil {
		_ = t.Logger.Sync()
	}
	return err
}
