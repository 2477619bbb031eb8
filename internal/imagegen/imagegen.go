// Package imagegen runs the image generation decode loop: it dispatches a
// multimodal streaming request, walks the event stream, and resolves the
// first image the stream produces, whether it arrives as a remote URL, an
// embedded data URL, or base64 fragments spread across text deltas.
package imagegen

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Phonezzzz/llmbridge/internal/llm"
	"github.com/Phonezzzz/llmbridge/internal/resource"
	"github.com/Phonezzzz/llmbridge/internal/stream"
)

// Dispatcher routes multimodal streaming requests. *llm.Router satisfies it.
type Dispatcher interface {
	DispatchResponsesStream(ctx context.Context, req llm.ResponsesRequest) (io.ReadCloser, error)
}

// Service decodes streamed image generation responses and persists the
// result in the resource store.
type Service struct {
	dispatcher Dispatcher
	store      resource.Store
	logger     *slog.Logger
}

// NewService creates an image generation service.
func NewService(d Dispatcher, store resource.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &Service{dispatcher: d, store: store, logger: logger}
}

// Generate runs one image generation request to resolution. The first
// successful extraction wins: the stream is closed immediately and the
// stored handle returned. A stream that terminates without producing an
// image fails with an API error carrying the accumulated diagnostics.
func (s *Service) Generate(ctx context.Context, req llm.ResponsesRequest) (resource.Handle, error) {
	body, err := s.dispatcher.DispatchResponsesStream(ctx, req)
	if err != nil {
		return resource.Handle{}, err
	}

	events := stream.NewEventStream(body)
	defer func() { _ = events.Close() }()

	assembler := stream.NewAssembler(nil)
	payloads := 0

	for {
		payload, err := events.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return resource.Handle{}, llm.ClassifyTransport(err, ctx)
		}
		payloads++

		result, err := stream.Extract(payload)
		if err != nil {
			// One malformed payload does not sink the stream.
			s.logger.Debug("skipping unparseable payload", "error", err)
			continue
		}

		switch result.Kind {
		case stream.KindImage:
			return s.resolveImageRef(ctx, result.Value)

		case stream.KindDelta:
			img, done, err := assembler.Append(result.Value)
			if err != nil {
				s.logger.Debug("assembler rejected buffer", "error", err)
				continue
			}
			if done {
				return s.saveImage(ctx, img)
			}
		}
	}

	s.logger.Warn("stream ended without image",
		"model", req.Model,
		"payloads", payloads,
		"buffered", assembler.Len(),
	)
	return resource.Handle{}, llm.NewError(llm.KindAPI,
		"The model did not return an image.",
		"stream ended without a resolvable image payload", nil)
}

// resolveImageRef stores one extracted image reference: embedded data URLs
// are decoded and persisted, remote URLs are stored as references.
func (s *Service) resolveImageRef(ctx context.Context, ref string) (resource.Handle, error) {
	if isDataURL(ref) {
		img, err := stream.DecodeImagePayload(ref)
		if err != nil {
			return resource.Handle{}, llm.NewError(llm.KindAPI,
				"The model returned an unreadable image.",
				"decoding embedded image payload", err)
		}
		return s.saveImage(ctx, img)
	}

	h, err := s.store.SaveReference(ctx, ref)
	if err != nil {
		return resource.Handle{}, llm.NewError(llm.KindUnknown,
			"Could not store the generated image.",
			"saving image reference", err)
	}
	s.logger.Info("image resolved", "kind", "reference", "id", h.ID)
	return h, nil
}

func (s *Service) saveImage(ctx context.Context, img stream.Image) (resource.Handle, error) {
	h, err := s.store.SaveImage(ctx, img.MediaType, img.Data)
	if err != nil {
		return resource.Handle{}, llm.NewError(llm.KindUnknown,
			"Could not store the generated image.",
			"saving image bytes", err)
	}
	s.logger.Info("image resolved",
		"kind", "data",
		"id", h.ID,
		"media_type", img.MediaType,
		"size", len(img.Data),
	)
	return h, nil
}

func isDataURL(s string) bool {
	return len(s) > 5 && s[:5] == "data:"
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
