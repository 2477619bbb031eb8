package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// nopHandler is a slog.Handler that discards all log records.
// Enabled returns false so slog skips formatting entirely (zero cost).
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Registration is one entry in the router's ordered provider list.
type Registration struct {
	Name     string
	Provider Provider
}

// RouterOption configures optional Router behavior.
type RouterOption func(*Router)

// WithLogger injects a structured logger. When omitted, log output is
// silently discarded.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// WithMetrics injects dispatch metrics.
func WithMetrics(m *Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// Router selects a capable provider for each request. Registration order is
// a semantic contract: the first provider whose CanHandle matches wins, so
// reserved-prefix providers must be registered before catch-alls. The router
// performs no retries and caches nothing.
type Router struct {
	mu      sync.RWMutex
	entries []Registration

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewRouter creates a router with the given ordered registrations.
func NewRouter(entries []Registration, opts ...RouterOption) (*Router, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("router: at least one provider registration is required")
	}
	for _, e := range entries {
		if e.Provider == nil {
			return nil, fmt.Errorf("router: registration %q has nil provider", e.Name)
		}
	}

	r := &Router{
		entries: append([]Registration(nil), entries...),
		tracer:  otel.Tracer("llmbridge/router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(nopHandler{})
	}
	return r, nil
}

// Register appends a provider to the end of the registration list. This is
// the only mutation the list supports after construction.
func (r *Router) Register(name string, p Provider) error {
	if p == nil {
		return fmt.Errorf("router: registration %q has nil provider", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Registration{Name: name, Provider: p})
	return nil
}

// Providers returns the registration names in dispatch order.
func (r *Router) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// resolve returns the first registration whose provider handles model.
func (r *Router) resolve(model string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Provider.CanHandle(model) {
			return e, nil
		}
	}
	return Registration{}, Validation(fmt.Sprintf("no provider can handle model %q", model))
}

// Dispatch routes a blocking completion request to the first capable provider.
func (r *Router) Dispatch(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	var resp CompletionResponse
	err := r.instrument(ctx, "completion", req.Model, func(ctx context.Context, p Provider) error {
		var err error
		resp, err = p.CreateCompletion(ctx, req)
		return err
	})
	return resp, err
}

// DispatchStream routes a streaming completion request. The returned handle
// is the provider's raw byte stream; the caller must Close it.
func (r *Router) DispatchStream(ctx context.Context, req CompletionRequest) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := r.instrument(ctx, "stream", req.Model, func(ctx context.Context, p Provider) error {
		var err error
		body, err = p.CreateStream(ctx, req)
		return err
	})
	return body, err
}

// DispatchResponsesStream routes a multimodal streaming request. Providers
// that lack the capability fail with Validation.
func (r *Router) DispatchResponsesStream(ctx context.Context, req ResponsesRequest) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := r.instrument(ctx, "responses_stream", req.Model, func(ctx context.Context, p Provider) error {
		rs, ok := p.(ResponsesStreamer)
		if !ok {
			return Validation(fmt.Sprintf("provider for model %q does not support responses streaming", req.Model))
		}
		var err error
		body, err = rs.CreateResponsesStream(ctx, req)
		return err
	})
	return body, err
}

// instrument resolves the provider, runs call, and records the per-call
// telemetry (log line, metrics, span). It never re-classifies errors.
func (r *Router) instrument(ctx context.Context, operation, model string, call func(context.Context, Provider) error) error {
	ctx, span := r.tracer.Start(ctx, "router.dispatch",
		trace.WithAttributes(
			attribute.String("llm.operation", operation),
			attribute.String("llm.model", model),
		))
	defer span.End()

	entry, err := r.resolve(model)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("dispatch failed: no provider",
			"operation", operation,
			"model", model,
			"error", err,
		)
		r.metrics.Observe("none", operation, err, 0)
		return err
	}
	span.SetAttributes(attribute.String("llm.provider", entry.Name))

	start := time.Now()
	err = call(ctx, entry.Provider)
	elapsed := time.Since(start)

	r.metrics.Observe(entry.Name, operation, err, elapsed)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("dispatch failed",
			"operation", operation,
			"provider", entry.Name,
			"model", model,
			"duration", elapsed,
			"kind", string(ErrorKind(err)),
			"error", err,
		)
		return err
	}

	r.logger.Debug("dispatch ok",
		"operation", operation,
		"provider", entry.Name,
		"model", model,
		"duration", elapsed,
	)
	return nil
}
