// Package telemetry configures OpenTelemetry tracing for the console's
// inbound pages and outbound backend calls.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ghaggin/fluidbalance/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Providers struct {
	ServiceName    string
	TracerProvider *sdktrace.TracerProvider
	Shutdown       func(context.Context) error
}

// NewProviders exports spans over OTLP/HTTP to endpoint. An empty endpoint
// yields a provider that records nothing.
func NewProviders(ctx context.Context, endpoint, serviceName string) (*Providers, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		tp := sdktrace.NewTracerProvider()
		return &Providers{
			ServiceName:    serviceName,
			TracerProvider: tp,
			Shutdown:       tp.Shutdown,
		}, nil
	}

	opts, err := exporterOptions(endpoint)
	if err != nil {
		return nil, err
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	return &Providers{
		ServiceName:    serviceName,
		TracerProvider: tp,
		Shutdown:       tp.Shutdown,
	}, nil
}

func exporterOptions(endpoint string) ([]otlptracehttp.Option, error) {
	if !strings.Contains(endpoint, "://") {
		return []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		}, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry: invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("telemetry: invalid OTLP endpoint %q: missing host", endpoint)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}
	if u.Path != "" && u.Path != "/" {
		opts = append(opts, otlptracehttp.WithURLPath(u.Path))
	}
	if u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts, nil
}

// Install makes p the global tracer provider and sets W3C propagation.
func (p *Providers) Install() {
	otel.SetTracerProvider(p.TracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Middleware starts a server span per page request.
func (p *Providers) Middleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, p.ServiceName,
		otelhttp.WithTracerProvider(p.TracerProvider),
	)
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Log       *zap.Logger
}

// New builds and installs the providers and flushes them on shutdown.
func New(p Params) (*Providers, error) {
	providers, err := NewProviders(context.Background(), p.Config.Telemetry.OTLPEndpoint, p.Config.Telemetry.ServiceName)
	if err != nil {
		return nil, err
	}
	providers.Install()

	if p.Config.Telemetry.OTLPEndpoint != "" {
		p.Log.Info("exporting traces", zap.String("endpoint", p.Config.Telemetry.OTLPEndpoint))
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: providers.Shutdown,
	})
	return providers, nil
}
