package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// maxScanDepth bounds the recursive payload search. Payloads are freshly
// parsed JSON trees, never back-referencing graphs, so recursion terminates
// via strictly decreasing depth; the bound guards pathological nesting.
const maxScanDepth = 16

// ResultKind describes what the extractor found in a payload.
type ResultKind int

// Extraction results, in priority order.
const (
	KindNone  ResultKind = iota
	KindImage            // absolute URL or embedded data-URL
	KindDelta            // incremental text delta
)

// Result is one extraction from a decoded event payload.
type Result struct {
	Kind  ResultKind
	Value string
}

// imageMatcher checks one known payload shape for an image reference.
// Matchers run in order; new provider/version shapes are supported by
// appending a matcher, not by branching inside existing ones.
type imageMatcher func(m map[string]any, depth int) (string, bool)

var imageMatchers []imageMatcher

func init() {
	imageMatchers = []imageMatcher{
		matchRootImageFields,
		matchKnownContainers,
		matchContentArray,
		matchOutputArray,
		matchAnyField,
	}
}

// Extract locates an image reference or a text delta inside one decoded
// JSON payload whose shape varies by endpoint and version. Payloads that
// fail strict parsing get one lenient repair pass before being rejected.
func Extract(payload []byte) (Result, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(payload))
		if rerr != nil {
			return Result{}, fmt.Errorf("stream: unparseable payload: %w", err)
		}
		if jerr := json.Unmarshal([]byte(repaired), &v); jerr != nil {
			return Result{}, fmt.Errorf("stream: unparseable payload: %w", err)
		}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return Result{}, nil
	}

	if url, ok := findImage(m, 0); ok {
		return Result{Kind: KindImage, Value: url}, nil
	}
	if delta, ok := findDelta(m, 0); ok {
		return Result{Kind: KindDelta, Value: delta}, nil
	}
	return Result{}, nil
}

// findImage runs the ordered matcher list against one object.
func findImage(m map[string]any, depth int) (string, bool) {
	if depth > maxScanDepth {
		return "", false
	}
	for _, match := range imageMatchers {
		if url, ok := match(m, depth); ok {
			return url, true
		}
	}
	return "", false
}

// matchRootImageFields checks the well-known root fields. These accept a
// bare string or an object exposing ".url".
func matchRootImageFields(m map[string]any, _ int) (string, bool) {
	for _, field := range []string{"image_url", "image", "url"} {
		switch v := m[field].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case map[string]any:
			if url, ok := v["url"].(string); ok && url != "" {
				return url, true
			}
		}
	}
	return "", false
}

// matchKnownContainers recurses into the well-known wrapper objects.
func matchKnownContainers(m map[string]any, depth int) (string, bool) {
	for _, field := range []string{"delta", "message", "data", "response"} {
		if inner, ok := m[field].(map[string]any); ok {
			if url, ok := findImage(inner, depth+1); ok {
				return url, true
			}
		}
	}
	return "", false
}

// matchContentArray scans a "content" array element by element.
func matchContentArray(m map[string]any, depth int) (string, bool) {
	return matchArrayField(m, "content", depth)
}

// matchOutputArray scans an "output" array identically.
func matchOutputArray(m map[string]any, depth int) (string, bool) {
	return matchArrayField(m, "output", depth)
}

func matchArrayField(m map[string]any, field string, depth int) (string, bool) {
	arr, ok := m[field].([]any)
	if !ok {
		return "", false
	}
	for _, el := range arr {
		if inner, ok := el.(map[string]any); ok {
			if url, ok := findImage(inner, depth+1); ok {
				return url, true
			}
		}
	}
	return "", false
}

// matchAnyField is the exhaustive fallback: provider/version combinations
// place images in undocumented spots, so every field is scanned and any
// string resembling a URL or embedded image data is accepted.
func matchAnyField(m map[string]any, depth int) (string, bool) {
	for _, v := range m {
		if url, ok := scanValue(v, depth+1); ok {
			return url, true
		}
	}
	return "", false
}

func scanValue(v any, depth int) (string, bool) {
	if depth > maxScanDepth {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if looksLikeImageRef(t) {
			return t, true
		}
	case map[string]any:
		for _, inner := range t {
			if url, ok := scanValue(inner, depth+1); ok {
				return url, true
			}
		}
	case []any:
		for _, inner := range t {
			if url, ok := scanValue(inner, depth+1); ok {
				return url, true
			}
		}
	}
	return "", false
}

// looksLikeImageRef reports whether s is an absolute URL or embedded image data.
func looksLikeImageRef(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "data:image/")
}

// findDelta locates an incremental text delta. Chat streams put it in
// delta.content (possibly under choices), responses streams emit a bare
// "delta" string or message/content variants.
func findDelta(m map[string]any, depth int) (string, bool) {
	if depth > maxScanDepth {
		return "", false
	}

	switch v := m["delta"].(type) {
	case string:
		if v != "" {
			return v, true
		}
	case map[string]any:
		if s, ok := v["content"].(string); ok && s != "" {
			return s, true
		}
	}

	if choices, ok := m["choices"].([]any); ok {
		for _, el := range choices {
			if inner, ok := el.(map[string]any); ok {
				if s, ok := findDelta(inner, depth+1); ok {
					return s, true
				}
			}
		}
	}

	if msg, ok := m["message"].(map[string]any); ok {
		if s, ok := msg["content"].(string); ok && s != "" {
			return s, true
		}
	}
	if s, ok := m["content"].(string); ok && s != "" {
		return s, true
	}

	for _, field := range []string{"data", "response"} {
		if inner, ok := m[field].(map[string]any); ok {
			if s, ok := findDelta(inner, depth+1); ok {
				return s, true
			}
		}
	}
	return "", false
}
