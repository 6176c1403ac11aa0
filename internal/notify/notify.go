// Package notify delivers rendered notification text to external channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Sink delivers one rendered message. Implementations are best-effort: an
// error means the message was lost.
type Sink interface {
	Send(ctx context.Context, message string) error
}

// WriterSink writes each message on its own line. It backs dry-run mode.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send implements Sink.
func (s *WriterSink) Send(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, message)
	return err
}

// Fanout sends every message to all of its sinks in order.
type Fanout []Sink

// Send implements Sink. Every sink is tried; failures are joined.
func (f Fanout) Send(ctx context.Context, message string) error {
	var errs []error
	for _, s := range f {
		if err := s.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
