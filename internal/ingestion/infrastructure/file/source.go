package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode"

	ingestapp "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/application"
	ingestdom "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/domain"
)

// Source reads orders from a JSON array or from a stream of concatenated
// JSON objects.
type Source struct {
	r       *bufio.Reader
	dec     *json.Decoder
	closer  io.Closer
	started bool
	array   bool
	n       int
}

func New(r io.Reader) *Source {
	br := bufio.NewReader(r)
	return &Source{r: br, dec: json.NewDecoder(br)}
}

func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orders file: %w", err)
	}
	s := New(f)
	s.closer = f
	return s, nil
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Source) Next(ctx context.Context) (ingestapp.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return ingestapp.Delivery{}, err
	}
	if !s.started {
		if err := s.start(); err != nil {
			return ingestapp.Delivery{}, err
		}
	}

	if s.array && !s.dec.More() {
		if _, err := s.dec.Token(); err != nil {
			return ingestapp.Delivery{}, fmt.Errorf("read orders: %w", err)
		}
		return ingestapp.Delivery{}, io.EOF
	}

	var raw json.RawMessage
	if err := s.dec.Decode(&raw); err != nil {
		if err == io.EOF && !s.array {
			return ingestapp.Delivery{}, io.EOF
		}
		return ingestapp.Delivery{}, fmt.Errorf("read orders at record %d: %w", s.n, err)
	}
	s.n++

	var rec ingestdom.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ingestapp.Delivery{}, fmt.Errorf("%w: record %d: %v", ingestdom.ErrMalformedRecord, s.n, err)
	}
	return ingestapp.Delivery{Record: rec}, nil
}

func (s *Source) start() error {
	s.started = true
	for {
		b, err := s.r.Peek(1)
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("read orders: %w", err)
		}
		if !unicode.IsSpace(rune(b[0])) {
			break
		}
		_, _ = s.r.ReadByte()
	}

	b, _ := s.r.Peek(1)
	if b[0] != '[' {
		return nil
	}
	if _, err := s.dec.Token(); err != nil {
		return fmt.Errorf("read orders: %w", err)
	}
	s.array = true
	return nil
}
