// Package aggregator implements an llm.Provider backed by a remote
// multi-model aggregator exposing an OpenAI-compatible API. It supports
// blocking completions, token streaming, a separate multimodal responses
// stream used for image generation, and the model catalog listing.
//
// The aggregator is the catch-all provider: it accepts every model
// identifier, so it must be registered after reserved-prefix providers.
package aggregator

import (
	"fmt"
	"net"
	"net/http"
	"net/url"

	"gopkg.in/yaml.v3"

	"github.com/Phonezzzz/llmbridge/internal/core"
	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// Interface guards.
var (
	_ llm.Provider          = (*Aggregator)(nil)
	_ llm.ResponsesStreamer = (*Aggregator)(nil)
	_ llm.ModelLister       = (*Aggregator)(nil)
	_ core.Module           = (*Aggregator)(nil)
	_ core.Configurable     = (*Aggregator)(nil)
	_ core.Provisioner      = (*Aggregator)(nil)
	_ core.Validator        = (*Aggregator)(nil)
)

func init() {
	core.RegisterModule(&Aggregator{})
}

// Aggregator is an llm.Provider that communicates with the remote
// aggregator API.
type Aggregator struct {
	config Config
	client *http.Client
}

// ModuleInfo implements core.Module.
func (a *Aggregator) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.aggregator",
		New: func() core.Module { return &Aggregator{} },
	}
}

// Configure implements core.Configurable.
func (a *Aggregator) Configure(node *yaml.Node) error {
	if err := node.Decode(&a.config); err != nil {
		return fmt.Errorf("aggregator: decoding config: %w", err)
	}
	a.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
//
// The client uses transport-level timeouts (dial + TLS + response header)
// instead of http.Client.Timeout to avoid killing long-running streams.
// Streaming body reads are governed by context cancellation instead.
func (a *Aggregator) Provision(_ *core.AppContext) error {
	a.config.defaults()
	a.client = &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: a.config.Timeout}).DialContext,
			TLSHandshakeTimeout:   a.config.Timeout,
			ResponseHeaderTimeout: a.config.Timeout,
		},
	}
	return nil
}

// Validate implements core.Validator. The API key is deliberately not
// required here: a missing key is rejected per call as an Authentication
// error, so a key-less deployment can still route to the local provider.
func (a *Aggregator) Validate() error {
	u, err := url.Parse(a.config.BaseURL)
	if err != nil {
		return fmt.Errorf("aggregator: invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("aggregator: base_url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("aggregator: base_url must include a host")
	}
	return nil
}

// CanHandle implements llm.Provider. The aggregator fronts hundreds of
// models and accepts every identifier; registration order keeps it behind
// the reserved-prefix providers.
func (a *Aggregator) CanHandle(string) bool {
	return true
}

// requireCredentials rejects key-less calls before any network activity.
func (a *Aggregator) requireCredentials() error {
	if a.config.APIKey == "" {
		return llm.NewError(llm.KindAuthentication,
			"No aggregator API key is configured.",
			"aggregator api_key is empty", nil)
	}
	return nil
}
