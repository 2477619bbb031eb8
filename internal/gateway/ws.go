package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"

	"github.com/Phonezzzz/llmbridge/internal/llm"
	"github.com/Phonezzzz/llmbridge/internal/stream"
)

// chatFrame is one message on the /ws/chat socket. The client sends a frame
// carrying a request; the server replies with delta frames followed by a
// done frame, or a single error frame.
type chatFrame struct {
	Type    string                 `json:"type"` // "request", "delta", "done", "error"
	Request *llm.CompletionRequest `json:"request,omitempty"`
	Delta   string                 `json:"delta,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// handleChatSocket serves GET /ws/chat: a WebSocket that accepts completion
// requests and relays the decoded text deltas of the upstream stream.
func (g *Gateway) handleChatSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Warn("websocket accept failed", "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()

		ctx := r.Context()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}

			var frame chatFrame
			if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "request" || frame.Request == nil {
				g.sendFrame(ctx, conn, chatFrame{Type: "error", Message: "expected a request frame"})
				continue
			}

			if err := g.relayChat(ctx, conn, *frame.Request); err != nil {
				g.sendFrame(ctx, conn, chatFrame{Type: "error", Message: llm.UserMessage(err)})
				continue
			}
			g.sendFrame(ctx, conn, chatFrame{Type: "done"})
		}
	}
}

// relayChat streams one completion over the socket, decoding the upstream
// event stream and forwarding only the text deltas.
func (g *Gateway) relayChat(ctx context.Context, conn *websocket.Conn, req llm.CompletionRequest) error {
	req.Stream = true
	body, err := g.router.DispatchStream(ctx, req)
	if err != nil {
		return err
	}

	events := stream.NewEventStream(body)
	defer func() { _ = events.Close() }()

	for {
		payload, err := events.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return llm.ClassifyTransport(err, ctx)
		}

		result, eerr := stream.Extract(payload)
		if eerr != nil {
			continue
		}
		if result.Kind == stream.KindDelta {
			g.sendFrame(ctx, conn, chatFrame{Type: "delta", Delta: result.Value})
		}
	}
}

func (g *Gateway) sendFrame(ctx context.Context, conn *websocket.Conn, frame chatFrame) {
	data, _ := json.Marshal(frame)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		g.logger.Debug("websocket write failed", "error", err)
	}
}
