package pose

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Source produces frames from an external pose estimator.
type Source interface {
	// Next returns the next frame. It returns io.EOF when the source is drained.
	Next(ctx context.Context) (Frame, error)

	// Close releases any resources held by the source.
	Close() error
}

// Sample is one line of a JSON-lines recording.
type Sample struct {
	Landmarks []Point `json:"landmarks"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// JSONLinesSource reads frames from a JSON-lines stream, one Sample per line.
// A line may also be a bare array of landmarks.
type JSONLinesSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewJSONLinesSource creates a source reading from r. If r is an io.Closer it
// is closed by Close.
func NewJSONLinesSource(r io.Reader) *JSONLinesSource {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 4*1024*1024)
	src := &JSONLinesSource{scanner: s}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// Next decodes the next non-blank line.
func (s *JSONLinesSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("read line %d: %w", s.line+1, err)
			}
			return Frame{}, io.EOF
		}
		s.line++

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var points []Point
		if line[0] == '[' {
			if err := json.Unmarshal(line, &points); err != nil {
				return Frame{}, fmt.Errorf("decode line %d: %w", s.line, err)
			}
		} else {
			var sample Sample
			if err := json.Unmarshal(line, &sample); err != nil {
				return Frame{}, fmt.Errorf("decode line %d: %w", s.line, err)
			}
			points = sample.Landmarks
		}
		return NewFrame(points), nil
	}
}

// Close closes the underlying reader if it is closable.
func (s *JSONLinesSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
