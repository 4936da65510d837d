package tracking

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

const (
	serviceName    = "adultcensus"
	serviceVersion = "1.0.0"

	// MetricName is the histogram every run metric is recorded into.
	MetricName = "run_metric"
)

// OTLPConfig configures the OTLP/gRPC metric exporter.
type OTLPConfig struct {
	Endpoint string
	Insecure bool
}

// OTLPTracker records run metrics as OpenTelemetry histogram points with
// key and run_id attributes.
type OTLPTracker struct {
	runID    string
	provider *sdkmetric.MeterProvider
	hist     metric.Float64Histogram
}

// NewOTLPTracker exports to an OTLP collector over gRPC.
func NewOTLPTracker(ctx context.Context, cfg OTLPConfig, runID string) (*OTLPTracker, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NewValidationError("otlp.endpoint", "is required", cfg.Endpoint)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating OTLP exporter")
	}

	t, err := newOTLPTracker(ctx, sdkmetric.NewPeriodicReader(exp), runID)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(t.provider)
	return t, nil
}

func newOTLPTracker(ctx context.Context, reader sdkmetric.Reader, runID string) (*OTLPTracker, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating resource")
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	hist, err := provider.Meter(serviceName).Float64Histogram(
		MetricName,
		metric.WithDescription("Named metric logged by a training run"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating run metric histogram")
	}
	return &OTLPTracker{runID: runID, provider: provider, hist: hist}, nil
}

// Log implements Tracker.
func (t *OTLPTracker) Log(ctx context.Context, key string, value float64) error {
	t.hist.Record(ctx, value, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("run_id", t.runID),
	))
	return nil
}

// Close flushes pending points and shuts the exporter down.
func (t *OTLPTracker) Close(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
