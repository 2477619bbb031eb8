package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkReader yields pre-defined chunks one Read at a time, then EOF.
type chunkReader struct {
	chunks [][]byte
	closed bool
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.chunks) > 0 {
		c := r.chunks[0]
		r.chunks = r.chunks[1:]
		if len(c) == 0 {
			continue
		}
		n := copy(p, c)
		if n < len(c) {
			r.chunks = append([][]byte{c[n:]}, r.chunks...)
		}
		return n, nil
	}
	return 0, io.EOF
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

func drain(t *testing.T, s *EventStream) []string {
	t.Helper()
	var out []string
	for {
		p, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, string(p))
	}
}

func TestLineDecoder_CarryOver(t *testing.T) {
	t.Parallel()

	var d lineDecoder
	lines := d.feed([]byte("alpha\nbet"))
	if len(lines) != 1 || string(lines[0]) != "alpha" {
		t.Fatalf("feed 1 = %q", lines)
	}
	lines = d.feed([]byte("a\ngamma"))
	if len(lines) != 1 || string(lines[0]) != "beta" {
		t.Fatalf("feed 2 = %q", lines)
	}
	if tail := d.flush(); string(tail) != "gamma" {
		t.Fatalf("flush = %q", tail)
	}
	if tail := d.flush(); tail != nil {
		t.Fatalf("second flush = %q, want nil", tail)
	}
}

func TestEventStream_SplitMidLine(t *testing.T) {
	t.Parallel()

	// A payload split mid-JSON across chunk boundaries must produce exactly
	// the same events as the unsplit stream.
	s := NewEventStream(newChunkReader(
		"data: {\"delta\":{\"conte",
		"nt\":\"AB\"}}\n\ndata: [DONE]\n",
		"",
	))

	events := drain(t, s)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (%q)", len(events), events)
	}
	want := `{"delta":{"content":"AB"}}`
	if events[0] != want {
		t.Errorf("event = %q, want %q", events[0], want)
	}
}

func TestEventStream_ChunkingInvariance(t *testing.T) {
	t.Parallel()

	raw := "data: {\"delta\":{\"content\":\"héllo\"}}\n" +
		": keep-alive\n" +
		"\n" +
		"data: {\"delta\":{\"content\":\"wörld\"}}\n" +
		"data: [DONE]\n"

	// Single chunk as baseline.
	baseline := drain(t, NewEventStream(newChunkReader(raw)))

	// Every 1..7 byte chunking, including splits inside multi-byte runes,
	// must yield identical events.
	for size := 1; size <= 7; size++ {
		var chunks []string
		for i := 0; i < len(raw); i += size {
			end := min(i+size, len(raw))
			chunks = append(chunks, raw[i:end])
		}
		got := drain(t, NewEventStream(newChunkReader(chunks...)))

		if len(got) != len(baseline) {
			t.Fatalf("size %d: events = %d, want %d", size, len(got), len(baseline))
		}
		for i := range got {
			if got[i] != baseline[i] {
				t.Errorf("size %d: event[%d] = %q, want %q", size, i, got[i], baseline[i])
			}
		}
	}
}

func TestEventStream_NoTrailingNewline(t *testing.T) {
	t.Parallel()

	// A stream ending without a line break still carries a payload.
	s := NewEventStream(newChunkReader("data: {\"delta\":\"tail\"}"))
	events := drain(t, s)
	if len(events) != 1 || events[0] != `{"delta":"tail"}` {
		t.Fatalf("events = %q", events)
	}
}

func TestEventStream_DoneStopsTailFlush(t *testing.T) {
	t.Parallel()

	// Bytes after the sentinel are never surfaced.
	s := NewEventStream(newChunkReader("data: [DONE]\ngarbage after done"))
	events := drain(t, s)
	if len(events) != 0 {
		t.Fatalf("events = %q, want none", events)
	}
}

func TestEventStream_SkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	s := NewEventStream(newChunkReader(": ping\n\n   \ndata: {\"a\":1}\n"))
	events := drain(t, s)
	if len(events) != 1 || events[0] != `{"a":1}` {
		t.Fatalf("events = %q", events)
	}
}

func TestEventStream_PrefixlessLines(t *testing.T) {
	t.Parallel()

	// Lines without the data: prefix are payloads too.
	s := NewEventStream(newChunkReader("{\"delta\":\"x\"}\n"))
	events := drain(t, s)
	if len(events) != 1 || events[0] != `{"delta":"x"}` {
		t.Fatalf("events = %q", events)
	}
}

func TestEventStream_TransportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	s := NewEventStream(io.NopCloser(&failingReader{
		data: []byte("data: {\"a\":1}\n"),
		err:  boom,
	}))

	p, err := s.Next()
	if err != nil || string(p) != `{"a":1}` {
		t.Fatalf("first = %q, %v", p, err)
	}
	if _, err := s.Next(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

type failingReader struct {
	data []byte
	err  error
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	return copy(p, r.data), nil
}

func TestEventStream_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	cr := newChunkReader("data: {\"a\":1}\n")
	s := NewEventStream(cr)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !cr.closed {
		t.Error("underlying reader not closed")
	}
	if _, err := s.Next(); !errors.Is(err, ErrClosed) {
		t.Errorf("Next after Close = %v, want ErrClosed", err)
	}
}

func TestFramePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		payload string
		done    bool
		skip    bool
	}{
		{name: "data prefix", line: `data: {"a":1}`, payload: `{"a":1}`},
		{name: "data prefix no space", line: `data:{"a":1}`, payload: `{"a":1}`},
		{name: "no prefix", line: `{"a":1}`, payload: `{"a":1}`},
		{name: "sentinel", line: "data: [DONE]", done: true},
		{name: "bare sentinel", line: "[DONE]", done: true},
		{name: "comment", line: ": keep-alive", skip: true},
		{name: "blank", line: "   ", skip: true},
		{name: "empty after prefix", line: "data:", skip: true},
		{name: "crlf", line: "data: {\"a\":1}\r", payload: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			payload, done, skip := framePayload([]byte(tt.line))
			if done != tt.done || skip != tt.skip {
				t.Fatalf("done=%v skip=%v, want done=%v skip=%v", done, skip, tt.done, tt.skip)
			}
			if !done && !skip && string(payload) != tt.payload {
				t.Errorf("payload = %q, want %q", payload, tt.payload)
			}
		})
	}
}

func TestEventStream_LargePayloadAcrossManyChunks(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 3*readChunkSize)
	raw := "data: " + big + "\ndata: [DONE]\n"

	s := NewEventStream(io.NopCloser(strings.NewReader(raw)))
	events := drain(t, s)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0] != big {
		t.Errorf("payload length = %d, want %d", len(events[0]), len(big))
	}
}
