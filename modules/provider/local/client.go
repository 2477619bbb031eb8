package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// apiRequest is the OpenAI-compatible chat completion request body.
type apiRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// maxErrorBodySize caps how much of an error response body is read.
const maxErrorBodySize = 4096

// complete executes the blocking completion call and normalizes the result.
func (p *Provider) complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	body := apiRequest{
		Model:       strings.TrimPrefix(req.Model, modelPrefix),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("local: marshaling request: %w", err)
	}

	endpoint := p.config.BaseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("local: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return llm.CompletionResponse{}, llm.ClassifyTransport(err, ctx)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return llm.CompletionResponse{}, classifyStatus(resp.StatusCode, resp.Body)
	}

	var out llm.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.CompletionResponse{}, llm.NewError(llm.KindAPI,
			"The local model returned an unreadable response.",
			"decoding local completion response", err)
	}
	if len(out.Choices) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.KindAPI,
			"The local model returned an empty response.",
			"local completion response has no choices", nil)
	}

	return out, nil
}

// classifyStatus maps a non-2xx local endpoint response to a classified
// error: 401/403 to Authentication, 5xx to Api (server), anything else to
// Api with the best-effort parsed upstream message.
func classifyStatus(status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	msg := upstreamMessage(raw)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.NewError(llm.KindAuthentication,
			"The local endpoint rejected the credentials.",
			fmt.Sprintf("local endpoint HTTP %d: %s", status, msg), nil)
	case status >= 500:
		return llm.NewError(llm.KindAPI,
			"The local model endpoint failed.",
			fmt.Sprintf("local endpoint HTTP %d: %s", status, msg), nil)
	default:
		return llm.NewError(llm.KindAPI,
			"The local model endpoint rejected the request.",
			fmt.Sprintf("local endpoint HTTP %d: %s", status, msg), nil)
	}
}

// upstreamMessage extracts an error message from a response body,
// falling back to the raw text.
func upstreamMessage(raw []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "no response body"
	}
	return text
}
