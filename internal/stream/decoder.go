// Package stream decodes newline-delimited streaming responses: it splits a
// raw byte transport into discrete event payloads, locates image references
// or text deltas inside arbitrarily-shaped JSON payloads, and reassembles
// base64 image fragments streamed through the text channel.
package stream

import (
	"bytes"
	"errors"
	"io"
)

// doneSentinel terminates a stream.
const doneSentinel = "[DONE]"

// readChunkSize is the per-pull read size. The decoder reads the next chunk
// only after the previous one is fully consumed, so the producer is
// throttled without an explicit queue.
const readChunkSize = 4096

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("stream: event stream closed")

// lineDecoder splits incoming byte chunks into complete lines. The tail of
// each chunk is held over as the remainder: a chunk boundary can fall
// mid-line (or mid-multibyte-sequence), so naive per-chunk splitting would
// corrupt any line straddling the boundary.
type lineDecoder struct {
	rem []byte
}

// feed appends chunk to the carried remainder and returns all complete
// lines. The segment after the last line break becomes the new remainder.
func (d *lineDecoder) feed(chunk []byte) [][]byte {
	d.rem = append(d.rem, chunk...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(d.rem, '\n')
		if i < 0 {
			return lines
		}
		line := make([]byte, i)
		copy(line, d.rem[:i])
		lines = append(lines, line)
		d.rem = d.rem[i+1:]
	}
}

// flush returns the final non-empty remainder as a last line. A stream that
// does not end with a line break still carries a payload in its tail.
func (d *lineDecoder) flush() []byte {
	if len(d.rem) == 0 {
		return nil
	}
	line := d.rem
	d.rem = nil
	return line
}

// framePayload interprets one complete line as a stream frame.
// Blank lines and SSE comments are skipped; the "data:" prefix is stripped
// when present; the [DONE] sentinel terminates the stream.
func framePayload(line []byte) (payload []byte, done, skip bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false, true
	}
	if line[0] == ':' {
		return nil, false, true
	}
	if after, ok := bytes.CutPrefix(line, []byte("data:")); ok {
		line = bytes.TrimSpace(after)
	}
	if len(line) == 0 {
		return nil, false, true
	}
	if string(line) == doneSentinel {
		return nil, true, false
	}
	return line, false, false
}

// EventStream turns a raw byte stream into discrete event payloads. It is
// single-threaded and pull-based: each Next call drains buffered events
// before reading another chunk from the transport. One EventStream belongs
// to exactly one request; no locking is needed.
type EventStream struct {
	r       io.ReadCloser
	dec     lineDecoder
	buf     []byte
	pending [][]byte
	done    bool
	closed  bool
	err     error
}

// NewEventStream wraps a byte-stream handle. The EventStream takes
// ownership: Close releases the underlying reader.
func NewEventStream(r io.ReadCloser) *EventStream {
	return &EventStream{r: r, buf: make([]byte, readChunkSize)}
}

// Next returns the next event payload. It returns io.EOF once the stream
// terminates, via the [DONE] sentinel or end of transport. Payloads are
// returned strictly in arrival order and never replayed.
func (s *EventStream) Next() ([]byte, error) {
	for {
		if len(s.pending) > 0 {
			p := s.pending[0]
			s.pending = s.pending[1:]
			return p, nil
		}
		if s.closed {
			return nil, ErrClosed
		}
		if s.done {
			if s.err != nil {
				return nil, s.err
			}
			return nil, io.EOF
		}

		n, err := s.r.Read(s.buf)
		if n > 0 {
			s.collect(s.dec.feed(s.buf[:n]))
		}
		if err != nil {
			// A stream may end without a trailing line break; unless the
			// sentinel already terminated it, the remainder is still a frame.
			if !s.done {
				if line := s.dec.flush(); line != nil {
					s.collect([][]byte{line})
				}
			}
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
		}
	}
}

// collect frames the given lines into pending payloads, stopping at [DONE].
func (s *EventStream) collect(lines [][]byte) {
	for _, line := range lines {
		payload, done, skip := framePayload(line)
		if skip {
			continue
		}
		if done {
			s.done = true
			return
		}
		s.pending = append(s.pending, payload)
	}
}

// Close releases the underlying transport. It must be called even when the
// stream was consumed to completion.
func (s *EventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.r.Close()
}
