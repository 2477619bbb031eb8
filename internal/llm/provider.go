// Package llm defines the provider capability contract, the classified
// error taxonomy, and the first-match-wins router that every call site
// funnels through. Concrete providers live in separate packages
// (e.g. provider.aggregator, provider.local).
package llm

import (
	"context"
	"io"
)

// Provider is the uniform operation set every upstream integration
// implements. CreateStream returns the raw byte stream of the upstream
// response with no extra buffering; the caller owns the handle and must
// Close it, on the success path too.
type Provider interface {
	// CanHandle reports whether this provider serves the given model
	// identifier. It must be pure: no I/O, no state.
	CanHandle(model string) bool

	// CreateCompletion sends one blocking completion request and returns
	// the normalized response.
	CreateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// CreateStream sends a streaming completion request and returns a
	// pull-based byte-stream handle.
	CreateStream(ctx context.Context, req CompletionRequest) (io.ReadCloser, error)
}

// ResponsesStreamer is the optional multimodal streaming capability.
// Dispatching a responses-stream request to a provider that does not
// implement it is a caller error (Validation).
type ResponsesStreamer interface {
	CreateResponsesStream(ctx context.Context, req ResponsesRequest) (io.ReadCloser, error)
}

// ModelLister is the optional catalog capability. Listing is idempotent
// and is the only operation the retry policy applies to.
type ModelLister interface {
	ListModels(ctx context.Context) ([]Model, error)
}
