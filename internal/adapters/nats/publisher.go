package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
)

// Subjects. The trailing token is the correction key or body.
const (
	SubjectCorrectionChanged = "stellar.corrections.changed."
	SubjectGazetteerUpdated  = "stellar.gazetteer.updated."
)

// GazetteerUpdate is the payload of a gazetteer update event.
type GazetteerUpdate struct {
	Body domain.Body `json:"body"`
	At   time.Time   `json:"at"`
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "STELLAR_CORRECTIONS",
			Subjects:  []string{"stellar.corrections.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "STELLAR_GAZETTEER",
			Subjects:  []string{"stellar.gazetteer.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishCorrectionChanged announces a correction write or delete.
func (p *Publisher) PublishCorrectionChanged(ctx context.Context, change ports.CorrectionChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectCorrectionChanged+SubjectToken(change.Key), data, nats.Context(ctx))
	return err
}

// PublishGazetteerUpdated announces that a body's gazetteer was re-imported.
func (p *Publisher) PublishGazetteerUpdated(ctx context.Context, body domain.Body) error {
	data, err := json.Marshal(GazetteerUpdate{Body: body, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectGazetteerUpdated+body.String(), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// SubjectToken makes a key safe to use as one subject token.
func SubjectToken(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, key)
}
