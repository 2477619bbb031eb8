// Package local implements an llm.Provider backed by a locally hosted,
// OpenAI-compatible completion endpoint (llama.cpp, vLLM, LM Studio and
// friends). It serves the reserved "local/" model prefix and supports only
// blocking completions: streaming against the local endpoint fails fast.
package local

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Phonezzzz/llmbridge/internal/core"
	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// modelPrefix is the reserved identifier prefix routed to this provider.
const modelPrefix = "local/"

// Interface guards.
var (
	_ llm.Provider      = (*Provider)(nil)
	_ core.Module       = (*Provider)(nil)
	_ core.Configurable = (*Provider)(nil)
	_ core.Provisioner  = (*Provider)(nil)
	_ core.Validator    = (*Provider)(nil)
)

func init() {
	core.RegisterModule(&Provider{})
}

// Provider is a blocking-only llm.Provider for a local completion endpoint.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (p *Provider) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.local",
		New: func() core.Module { return &Provider{} },
	}
}

// Configure implements core.Configurable.
func (p *Provider) Configure(node *yaml.Node) error {
	if err := node.Decode(&p.config); err != nil {
		return err
	}
	p.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (p *Provider) Provision(ctx *core.AppContext) error {
	p.config.defaults()
	p.logger = ctx.Logger
	// Per-request deadlines handle cancellation; the transport timeout only
	// guards the connection phase.
	p.client = &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: p.config.Timeout,
		},
	}
	return nil
}

// Validate implements core.Validator.
func (p *Provider) Validate() error {
	return p.config.validate()
}

// CanHandle implements llm.Provider. The local endpoint owns the reserved
// "local/" prefix and the bare "local" identifier.
func (p *Provider) CanHandle(model string) bool {
	return model == "local" || strings.HasPrefix(model, modelPrefix)
}

// CreateCompletion implements llm.Provider with one blocking call.
func (p *Provider) CreateCompletion(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	return p.complete(ctx, req)
}

// CreateStream implements llm.Provider. The local endpoint does not support
// streaming; invoking it is a caller error.
func (p *Provider) CreateStream(_ context.Context, req llm.CompletionRequest) (io.ReadCloser, error) {
	return nil, llm.Validation("local endpoint provider does not support streaming (model " + req.Model + ")")
}
