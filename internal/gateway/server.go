package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())

	if g.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))
	}

	api := func(r chi.Router) {
		r.Get("/status", g.handleStatus())
		r.Route("/v1", func(r chi.Router) {
			r.Get("/models", g.handleListModels())
			r.Post("/chat/completions", g.handleChatCompletion())
			r.Post("/images", g.handleGenerateImage())
			r.Get("/resources/{id}", g.handleGetResource())
		})
		r.Get("/ws/chat", g.handleChatSocket())
	}

	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth))
			api(r)
		})
	} else {
		r.Group(api)
	}

	return r
}
