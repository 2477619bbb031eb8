package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// apiRequest is the OpenAI-compatible chat completion request body.
type apiRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// CreateCompletion implements llm.Provider with one blocking call to the
// chat completions endpoint.
func (a *Aggregator) CreateCompletion(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if err := a.requireCredentials(); err != nil {
		return llm.CompletionResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	resp, err := a.post(ctx, "/chat/completions", apiRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return llm.CompletionResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return llm.CompletionResponse{}, classifyStatus(resp.StatusCode, resp.Body)
	}

	var out llm.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.CompletionResponse{}, llm.NewError(llm.KindAPI,
			"The aggregator returned an unreadable response.",
			"decoding aggregator completion response", err)
	}
	if len(out.Choices) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.KindAPI,
			"The aggregator returned an empty response.",
			"aggregator completion response has no choices", nil)
	}

	return out, nil
}

// CreateStream implements llm.Provider. It issues the same call with the
// streaming flag and hands back the response body as the byte-stream
// handle, unbuffered; the caller owns it and must Close it.
func (a *Aggregator) CreateStream(ctx context.Context, req llm.CompletionRequest) (io.ReadCloser, error) {
	if err := a.requireCredentials(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.StreamTimeout)

	resp, err := a.post(ctx, "/chat/completions", apiRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer func() { _ = resp.Body.Close() }()
		return nil, classifyStatus(resp.StatusCode, resp.Body)
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelOnClose ties a stream deadline to the handle: closing the body
// releases both the transport and the deadline timer.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// post sends one JSON request with the aggregator's headers attached.
func (a *Aggregator) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("aggregator: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("aggregator: creating request: %w", err)
	}
	a.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport(err, ctx)
	}
	return resp, nil
}

// setHeaders attaches the bearer token when configured, and the
// product-identifying headers always.
func (a *Aggregator) setHeaders(req *http.Request) {
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}
	req.Header.Set("HTTP-Referer", a.config.Referer)
	req.Header.Set("X-Title", a.config.Title)
}

// maxErrorBodySize caps how much of an error response body is read.
const maxErrorBodySize = 4096

// classifyStatus maps a non-2xx aggregator response to a classified error.
func classifyStatus(status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	msg := upstreamMessage(raw)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.NewError(llm.KindAuthentication,
			"The aggregator rejected the API key.",
			fmt.Sprintf("aggregator HTTP %d: %s", status, msg), nil)
	case status >= 500:
		return llm.NewError(llm.KindAPI,
			"The aggregator service failed.",
			fmt.Sprintf("aggregator HTTP %d: %s", status, msg), nil)
	default:
		return llm.NewError(llm.KindAPI,
			"The aggregator rejected the request.",
			fmt.Sprintf("aggregator HTTP %d: %s", status, msg), nil)
	}
}

// upstreamMessage extracts an error message from a response body,
// falling back to the raw text.
func upstreamMessage(raw []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(raw) == 0 {
		return "no response body"
	}
	return string(bytes.TrimSpace(raw))
}
