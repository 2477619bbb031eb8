package aggregator

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// modelsResponse is the catalog listing body.
type modelsResponse struct {
	Data []llm.Model `json:"data"`
}

// ListModels implements llm.ModelLister. The call is idempotent; it is the
// only operation the retry policy wraps.
func (a *Aggregator) ListModels(ctx context.Context) ([]llm.Model, error) {
	if err := a.requireCredentials(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/models", nil)
	if err != nil {
		return nil, llm.NewError(llm.KindUnknown, "Could not list models.", "creating models request", err)
	}
	a.setHeaders(httpReq)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport(err, ctx)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, resp.Body)
	}

	var out modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, llm.NewError(llm.KindAPI,
			"The aggregator returned an unreadable model list.",
			"decoding models response", err)
	}
	return out.Data, nil
}
