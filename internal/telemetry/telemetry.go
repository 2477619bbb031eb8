// Package telemetry wires the OpenTelemetry trace pipeline. When enabled it
// installs a global tracer provider exporting OTLP over HTTP; when disabled
// the rest of the code keeps emitting spans into the default no-op provider.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"gopkg.in/yaml.v3"

	"github.com/Phonezzzz/llmbridge/internal/core"
)

const defaultServiceName = "llmbridge"

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Config holds the YAML configuration for the telemetry module.
type Config struct {
	// Endpoint is the OTLP/HTTP collector endpoint (host:port). Tracing is
	// disabled when empty.
	Endpoint string `yaml:"endpoint"`

	// ServiceName overrides the reported service name.
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
}

// Module installs the global OpenTelemetry tracer provider.
type Module struct {
	config   Config
	logger   *slog.Logger
	provider *sdktrace.TracerProvider
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "telemetry.otel",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("telemetry: decode config: %w", err)
	}
	if m.config.ServiceName == "" {
		m.config.ServiceName = defaultServiceName
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(appCtx *core.AppContext) error {
	m.logger = appCtx.Logger
	if m.config.Endpoint == "" {
		m.logger.Debug("telemetry disabled: no endpoint configured")
		return nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(m.config.Endpoint)}
	if m.config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(m.config.ServiceName),
	))
	if err != nil {
		return fmt.Errorf("telemetry: build resource: %w", err)
	}

	m.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(m.provider)

	m.logger.Info("telemetry enabled", "endpoint", m.config.Endpoint)
	return nil
}

// Stop implements core.Stopper. It flushes buffered spans.
func (m *Module) Stop(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.provider.Shutdown(shutdownCtx)
}
