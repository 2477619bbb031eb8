package aggregator

import (
	"context"
	"io"
	"net/http"

	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// responsesRequest is the aggregator's multimodal request body. The prompt
// is wrapped into the structured input shape the responses endpoint expects.
type responsesRequest struct {
	Model           string          `json:"model"`
	Input           []responseInput `json:"input"`
	Modalities      []llm.Modality  `json:"modalities,omitempty"`
	MaxOutputTokens int             `json:"max_output_tokens,omitempty"`
	Stream          bool            `json:"stream"`
}

// responseInput is one structured input message.
type responseInput struct {
	Type    string            `json:"type"`
	Role    string            `json:"role"`
	Content []responseContent `json:"content"`
}

// responseContent is one content part of a structured input message.
type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CreateResponsesStream implements llm.ResponsesStreamer. Image generation
// can take minutes, so the whole stream is bound to the responses timeout;
// closing the returned handle releases the transport and the timer.
func (a *Aggregator) CreateResponsesStream(ctx context.Context, req llm.ResponsesRequest) (io.ReadCloser, error) {
	if err := a.requireCredentials(); err != nil {
		return nil, err
	}

	modalities := req.Modalities
	if len(modalities) == 0 {
		modalities = []llm.Modality{llm.ModalityImage, llm.ModalityText}
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.ResponsesTimeout)

	resp, err := a.post(ctx, "/responses", responsesRequest{
		Model: req.Model,
		Input: []responseInput{{
			Type: "message",
			Role: "user",
			Content: []responseContent{{
				Type: "input_text",
				Text: req.Prompt,
			}},
		}},
		Modalities:      modalities,
		MaxOutputTokens: req.MaxOutputTokens,
		Stream:          true,
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
