package stream

import "testing"

func TestExtract_DeltaShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "chat choices delta content",
			payload: `{"choices":[{"delta":{"content":"Hel"}}]}`,
			want:    "Hel",
		},
		{
			name:    "bare delta string",
			payload: `{"type":"response.output_text.delta","delta":"lo"}`,
			want:    "lo",
		},
		{
			name:    "delta object at root",
			payload: `{"delta":{"content":"world"}}`,
			want:    "world",
		},
		{
			name:    "message content",
			payload: `{"message":{"content":"full text"}}`,
			want:    "full text",
		},
		{
			name:    "root content string",
			payload: `{"content":"plain"}`,
			want:    "plain",
		},
		{
			name:    "nested under data",
			payload: `{"data":{"delta":"nested"}}`,
			want:    "nested",
		},
		{
			name:    "nested under response",
			payload: `{"response":{"choices":[{"delta":{"content":"deep"}}]}}`,
			want:    "deep",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Extract([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Kind != KindDelta {
				t.Fatalf("kind = %v, want KindDelta", res.Kind)
			}
			if res.Value != tt.want {
				t.Errorf("value = %q, want %q", res.Value, tt.want)
			}
		})
	}
}

func TestExtract_ImageShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "root image_url string",
			payload: `{"image_url":"https://cdn.example.com/a.png"}`,
			want:    "https://cdn.example.com/a.png",
		},
		{
			name:    "root image_url object",
			payload: `{"image_url":{"url":"https://cdn.example.com/b.png"}}`,
			want:    "https://cdn.example.com/b.png",
		},
		{
			name:    "root url field",
			payload: `{"url":"https://cdn.example.com/c.png"}`,
			want:    "https://cdn.example.com/c.png",
		},
		{
			name:    "delta images array",
			payload: `{"choices":[{"delta":{"images":[{"image_url":{"url":"https://x/i.png"}}]}}]}`,
			want:    "https://x/i.png",
		},
		{
			name:    "message images array",
			payload: `{"message":{"images":[{"image_url":{"url":"https://x/m.png"}}]}}`,
			want:    "https://x/m.png",
		},
		{
			name:    "content array element",
			payload: `{"content":[{"type":"output_image","image":"https://x/ca.png"}]}`,
			want:    "https://x/ca.png",
		},
		{
			name:    "output array element",
			payload: `{"output":[{"type":"image_generation_call","url":"https://x/o.png"}]}`,
			want:    "https://x/o.png",
		},
		{
			name:    "embedded data url",
			payload: `{"result":"data:image/png;base64,iVBORw0KGgo="}`,
			want:    "data:image/png;base64,iVBORw0KGgo=",
		},
		{
			name:    "undocumented nesting",
			payload: `{"payload":{"inner":{"b64":"data:image/jpeg;base64,/9j/4AA="}}}`,
			want:    "data:image/jpeg;base64,/9j/4AA=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Extract([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Kind != KindImage {
				t.Fatalf("kind = %v, want KindImage (value %q)", res.Kind, res.Value)
			}
			if res.Value != tt.want {
				t.Errorf("value = %q, want %q", res.Value, tt.want)
			}
		})
	}
}

func TestExtract_ImageWinsOverDelta(t *testing.T) {
	t.Parallel()

	// When a payload carries both, the image is authoritative.
	res, err := Extract([]byte(`{"delta":{"content":"also text","images":[{"image_url":{"url":"https://x/p.png"}}]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != KindImage || res.Value != "https://x/p.png" {
		t.Errorf("got %v %q, want image https://x/p.png", res.Kind, res.Value)
	}
}

func TestExtract_NoMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "unknown shape", payload: `{"status":"processing","step":3}`},
		{name: "non-url strings", payload: `{"note":"ftp://not-an-image","id":"abc"}`},
		{name: "array root", payload: `[1,2,3]`},
		{name: "scalar root", payload: `"just a string"`},
		{name: "empty object", payload: `{}`},
		{name: "empty delta", payload: `{"delta":{"content":""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Extract([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Kind != KindNone {
				t.Errorf("kind = %v (value %q), want KindNone", res.Kind, res.Value)
			}
		})
	}
}

func TestExtract_RepairsMalformedJSON(t *testing.T) {
	t.Parallel()

	// Trailing comma: strict parsing fails, the repair pass recovers it.
	res, err := Extract([]byte(`{"delta":{"content":"ok"},}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != KindDelta || res.Value != "ok" {
		t.Errorf("got %v %q, want delta ok", res.Kind, res.Value)
	}
}

func TestExtract_UnparseablePayload(t *testing.T) {
	t.Parallel()

	if _, err := Extract([]byte("\x00\x01\x02")); err == nil {
		t.Fatal("expected error for unparseable payload")
	}
}

func TestLooksLikeImageRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    string
		want bool
	}{
		{"https://x/a.png", true},
		{"http://x/a.png", true},
		{"data:image/png;base64,AAAA", true},
		{"data:text/plain;base64,AAAA", false},
		{"ftp://x/a.png", false},
		{"plain text", false},
	}
	for _, tt := range tests {
		if got := looksLikeImageRef(tt.s); got != tt.want {
			t.Errorf("looksLikeImageRef(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
