package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if g.router != nil {
			resp.Providers = g.router.Providers()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds int64     `json:"uptime_seconds"`
	Providers     []string  `json:"providers"`
	Models        int       `json:"models"`
	CatalogAt     time.Time `json:"catalog_refreshed_at,omitzero"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt).Seconds()),
			Providers:     g.router.Providers(),
		}
		if g.catalog != nil {
			resp.Models = len(g.catalog.Models())
			resp.CatalogAt = g.catalog.RefreshedAt()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// modelsResponse is the JSON response for GET /v1/models.
type modelsResponse struct {
	Data []llm.Model `json:"data"`
}

// handleListModels serves the cached catalog. It never hits upstream; the
// refresh job keeps the cache current.
func (g *Gateway) handleListModels() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var resp modelsResponse
		if g.catalog != nil {
			resp.Data = g.catalog.Models()
		}
		if resp.Data == nil {
			resp.Data = []llm.Model{}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleChatCompletion serves POST /v1/chat/completions. With stream=true
// the upstream byte stream is relayed verbatim; otherwise the normalized
// completion is returned as JSON.
func (g *Gateway) handleChatCompletion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req llm.CompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, llm.Validation("invalid request body: "+err.Error()))
			return
		}
		if req.Model == "" {
			writeError(w, llm.Validation("model is required"))
			return
		}
		if len(req.Messages) == 0 {
			writeError(w, llm.Validation("at least one message is required"))
			return
		}

		if req.Stream {
			g.relayStream(w, r, req)
			return
		}

		resp, err := g.router.Dispatch(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// relayStream pipes the provider's raw event stream to the client,
// flushing after every read so tokens arrive as they are produced.
func (g *Gateway) relayStream(w http.ResponseWriter, r *http.Request, req llm.CompletionRequest) {
	body, err := g.router.DispatchStream(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				g.logger.Warn("stream relay interrupted", "error", err)
			}
			return
		}
	}
}

// imageRequest is the JSON body for POST /v1/images.
type imageRequest struct {
	Model           string         `json:"model"`
	Prompt          string         `json:"prompt"`
	Modalities      []llm.Modality `json:"modalities,omitempty"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
}

// handleGenerateImage serves POST /v1/images: it runs the streaming decode
// loop to completion and returns the stored resource handle.
func (g *Gateway) handleGenerateImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.images == nil {
			writeError(w, llm.Validation("image generation is not configured"))
			return
		}

		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, llm.Validation("invalid request body: "+err.Error()))
			return
		}
		if req.Model == "" || req.Prompt == "" {
			writeError(w, llm.Validation("model and prompt are required"))
			return
		}

		handle, err := g.images.Generate(r.Context(), llm.ResponsesRequest{
			Model:           req.Model,
			Prompt:          req.Prompt,
			Modalities:      req.Modalities,
			MaxOutputTokens: req.MaxOutputTokens,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, handle)
	}
}

// handleGetResource serves GET /v1/resources/{id}. Stored bytes are served
// directly; URL-only references redirect.
func (g *Gateway) handleGetResource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.store == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		res, err := g.store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		if len(res.Data) == 0 && res.URL != "" {
			http.Redirect(w, r, res.URL, http.StatusFound)
			return
		}

		mt := res.MediaType
		if mt == "" {
			mt = "application/octet-stream"
		}
		w.Header().Set("Content-Type", mt)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
		_, _ = w.Write(res.Data)
	}
}
