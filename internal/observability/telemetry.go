package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxel-storage/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// TracingOptions - параметры трассировки операций хранилища
type TracingOptions struct {
	ServiceName  string
	Endpoint     string // OTLP HTTP host:port
	NodeID       string // service.instance.id, совпадает с NodeID уведомлений
	SampleRatio  float64
	BatchTimeout time.Duration
}

func (o TracingOptions) withDefaults() TracingOptions {
	if o.ServiceName == "" {
		o.ServiceName = "voxel-storage"
	}
	if o.Endpoint == "" {
		o.Endpoint = "localhost:4318"
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = shutdownTimeout
	}
	return o
}

// Tracing владеет TracerProvider и завершает его один раз
type Tracing struct {
	provider *sdktrace.TracerProvider

	once        sync.Once
	shutdownErr error
}

// StartTracing поднимает OTLP HTTP экспортер и делает провайдер глобальным.
// Соединение с коллектором устанавливается лениво при первой отправке.
func StartTracing(ctx context.Context, opts TracingOptions) (*Tracing, error) {
	opts = opts.withDefaults()
	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	t, err := newTracing(ctx, exp, opts)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}
	otel.SetTracerProvider(t.provider)
	logging.Info("📡 OpenTelemetry: OTLP → %s, service=%s, sample=%.2f", opts.Endpoint, opts.ServiceName, opts.SampleRatio)
	return t, nil
}

func newTracing(ctx context.Context, exp sdktrace.SpanExporter, opts TracingOptions) (*Tracing, error) {
	opts = opts.withDefaults()

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(opts.ServiceName))}
	if opts.NodeID != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceInstanceID(opts.NodeID)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(opts.BatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
	)
	return &Tracing{provider: tp}, nil
}

// Tracer возвращает трассировщик провайдера
func (t *Tracing) Tracer(name string) trace.Tracer {
	return t.provider.Tracer(name)
}

// ForceFlush отправляет накопленные спаны, не дожидаясь BatchTimeout
func (t *Tracing) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.provider.ForceFlush(ctx)
}

// Shutdown сбрасывает спаны и останавливает провайдер. Повторные вызовы
// возвращают результат первого. Nil-приемник допустим.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	t.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		t.shutdownErr = t.provider.Shutdown(ctx)
	})
	return t.shutdownErr
}
