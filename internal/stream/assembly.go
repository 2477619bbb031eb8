package stream

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// defaultMediaType is assumed when a reassembled payload carries no
// data-URL header.
const defaultMediaType = "image/png"

// defaultMinBase64Len gates the bare-base64 completion heuristic. Short
// ordinary text can coincidentally match the base64 alphabet; a real image
// payload is never this small.
const defaultMinBase64Len = 256

// ErrIncomplete is returned by Resolve when the buffer never passed the
// completion check. Partial output is never treated as success.
var ErrIncomplete = errors.New("stream: image payload incomplete")

// CompletionDetector decides when an accumulated text buffer holds a
// complete image payload. The base64 heuristic can misfire on ordinary
// text, so it lives behind this interface where callers can replace it.
type CompletionDetector interface {
	Complete(buf string) bool
}

// Base64Detector is the default heuristic: a data-URL image header, or a
// buffer matching the base64 alphabet that ends with padding, gated by
// MinLen.
type Base64Detector struct {
	MinLen int
}

// Complete implements CompletionDetector.
func (d Base64Detector) Complete(buf string) bool {
	if strings.HasPrefix(buf, "data:image/") && strings.HasSuffix(buf, "=") {
		return true
	}
	minLen := d.MinLen
	if minLen <= 0 {
		minLen = defaultMinBase64Len
	}
	if len(buf) < minLen || !strings.HasSuffix(buf, "=") {
		return false
	}
	return isBase64Alphabet(buf)
}

func isBase64Alphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+' || c == '/' || c == '=':
		default:
			return false
		}
	}
	return true
}

// Image is a decoded image payload.
type Image struct {
	MediaType string
	Data      []byte
}

// Assembler accumulates base64 image fragments streamed through the
// ordinary text channel. One Assembler belongs to one request's decode
// loop; it is not safe for concurrent use and is discarded at stream end
// or on resolution.
type Assembler struct {
	buf      strings.Builder
	detector CompletionDetector
	resolved bool
}

// NewAssembler creates an assembler. A nil detector selects the default
// base64 heuristic.
func NewAssembler(detector CompletionDetector) *Assembler {
	if detector == nil {
		detector = Base64Detector{}
	}
	return &Assembler{detector: detector}
}

// Append adds one text delta to the buffer and checks for completion.
// When the payload is complete it is decoded and returned with done=true;
// the first successful extraction is authoritative, so the caller should
// cancel the stream.
func (a *Assembler) Append(delta string) (Image, bool, error) {
	if a.resolved {
		return Image{}, false, fmt.Errorf("stream: assembler already resolved")
	}
	a.buf.WriteString(delta)

	s := a.buf.String()
	if !a.detector.Complete(s) {
		return Image{}, false, nil
	}

	img, err := DecodeImagePayload(s)
	if err != nil {
		return Image{}, false, err
	}
	a.resolved = true
	return img, true, nil
}

// Len returns the accumulated buffer length.
func (a *Assembler) Len() int { return a.buf.Len() }

// Resolved reports whether the assembler already produced an image.
func (a *Assembler) Resolved() bool { return a.resolved }

// DecodeImagePayload decodes a complete textual image payload: either a
// base64 data-URL or bare base64, which gets the default media type.
func DecodeImagePayload(s string) (Image, error) {
	mediaType := defaultMediaType
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return Image{}, fmt.Errorf("stream: malformed data URL")
		}
		mt := header
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		if mt != "" {
			mediaType = mt
		}
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Image{}, fmt.Errorf("stream: decoding image payload: %w", err)
	}
	return Image{MediaType: mediaType, Data: data}, nil
}
