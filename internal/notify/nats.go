package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultNatsSubject is used when NatsConfig.Subject is empty.
const DefaultNatsSubject = "vhnotify.notifications"

// NatsConfig configures a NatsSink.
type NatsConfig struct {
	URL     string
	Subject string

	// FlushTimeout bounds the round trip that confirms a publish. Zero
	// means 5 seconds.
	FlushTimeout time.Duration
}

// NatsSink publishes each message as plain text on one subject. Every
// message carries a fresh Nats-Msg-Id header so JetStream consumers can
// deduplicate redeliveries.
type NatsSink struct {
	conn         *nats.Conn
	subject      string
	flushTimeout time.Duration
}

// NewNatsSink connects to cfg.URL.
func NewNatsSink(cfg NatsConfig) (*NatsSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("vhnotify"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	subject := cfg.Subject
	if subject == "" {
		subject = DefaultNatsSubject
	}
	flush := cfg.FlushTimeout
	if flush <= 0 {
		flush = 5 * time.Second
	}
	return &NatsSink{conn: conn, subject: subject, flushTimeout: flush}, nil
}

// Send implements Sink.
func (s *NatsSink) Send(ctx context.Context, message string) error {
	msg := nats.NewMsg(s.subject)
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	msg.Data = []byte(message)

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", s.subject, err)
	}

	// FlushWithContext requires a deadline
	ctx, cancel := context.WithTimeout(ctx, s.flushTimeout)
	defer cancel()
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing nats connection: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (s *NatsSink) Close() error {
	return s.conn.Drain()
}
