package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"central-ai-web/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event received from the stream.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber follows the web event stream so that every instance learns about
// logouts handled by its peers.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream

	contexts []jetstream.ConsumeContext
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.Name("central-ai-web-subscriber"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// decodeEvent reverses Publisher.Publish.
func decodeEvent(data []byte) (events.BaseEvent, error) {
	var envelope struct {
		Type       string                 `json:"type"`
		OccurredAt time.Time              `json:"occurred_at"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return events.BaseEvent{}, err
	}
	return events.BaseEvent{Type: envelope.Type, Data: envelope.Data, OccurredAt: envelope.OccurredAt}, nil
}

// Subscribe attaches an ephemeral consumer for the given event types. Each
// instance gets its own copy of new messages; nothing is replayed.
func (s *Subscriber) Subscribe(ctx context.Context, eventTypes []string, handler EventHandler) error {
	subjects := make([]string, 0, len(eventTypes))
	for _, t := range eventTypes {
		subjects = append(subjects, Subject(t))
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubjects:    subjects,
		AckPolicy:         jetstream.AckExplicitPolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := decodeEvent(msg.Data())
		if err != nil {
			log.Printf("Error unmarshalling event on %s: %v", msg.Subject(), err)
			_ = msg.Term()
			return
		}

		if err := handler(context.Background(), event); err != nil {
			log.Printf("Handler failed for event %s: %v", event.Type, err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.contexts = append(s.contexts, cc)

	log.Printf("Subscribed to %v", subjects)
	return nil
}

func (s *Subscriber) Close() {
	for _, cc := range s.contexts {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
