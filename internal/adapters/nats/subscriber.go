package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream. Every
// instance gets its own ephemeral consumer so each one sees every change.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeCorrectionChanges delivers correction changes published after
// the subscription starts.
func (s *Subscriber) SubscribeCorrectionChanges(ctx context.Context, handler func(ctx context.Context, change ports.CorrectionChange) error) error {
	sub, err := s.js.Subscribe(SubjectCorrectionChanged+">", func(msg *nats.Msg) {
		var change ports.CorrectionChange
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			// Redelivery cannot fix a bad payload.
			slog.Warn("dropping malformed correction change", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, change); err != nil {
			slog.Warn("correction change handler failed", "key", change.Key, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeGazetteerUpdates delivers gazetteer re-import notifications.
func (s *Subscriber) SubscribeGazetteerUpdates(ctx context.Context, handler func(ctx context.Context, body domain.Body) error) error {
	sub, err := s.js.Subscribe(SubjectGazetteerUpdated+">", func(msg *nats.Msg) {
		var ev GazetteerUpdate
		if err := json.Unmarshal(msg.Data, &ev); err != nil || !ev.Body.Known() {
			slog.Warn("dropping malformed gazetteer update", "subject", msg.Subject)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, ev.Body); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
