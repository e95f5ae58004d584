package broadcast

import (
	"context"
	"cube-race/contract"
	"cube-race/domain/event"
	"cube-race/observability"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

const DefaultTopic = "cube-race.room-events"

const (
	roomIDMetadata = "room_id"
	eventMetadata  = "event"
)

var _ contract.Broadcaster = (*Publisher)(nil)

// Publisher sends room events to every node subscribed to the topic.
type Publisher struct {
	log       *slog.Logger
	publisher message.Publisher
	topic     string
	metrics   *observability.Metrics
}

func NewPublisher(log *slog.Logger, publisher message.Publisher, topic string, metrics *observability.Metrics) *Publisher {
	return &Publisher{log: log, publisher: publisher, topic: topic, metrics: metrics}
}

func (p *Publisher) Broadcast(ctx context.Context, e event.RoomEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(e.ID, payload)
	if msg.UUID == "" {
		msg.UUID = watermill.NewUUID()
	}
	msg.SetContext(ctx)
	msg.Metadata.Set(roomIDMetadata, e.RoomID)
	msg.Metadata.Set(eventMetadata, string(e.Name))

	if err = p.publisher.Publish(p.topic, msg); err != nil {
		if p.metrics != nil {
			p.metrics.BroadcastFailures.Inc()
		}
		return fmt.Errorf("publish %s for room %s: %w", e.Name, e.RoomID, err)
	}
	p.log.Debug("Room event published", "room_id", e.RoomID, "event", e.Name)
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// Subscriber decodes room events received on the topic.
type Subscriber struct {
	log        *slog.Logger
	subscriber message.Subscriber
	topic      string
}

func NewSubscriber(log *slog.Logger, subscriber message.Subscriber, topic string) *Subscriber {
	return &Subscriber{log: log, subscriber: subscriber, topic: topic}
}

// Subscribe streams decoded events until ctx is done. Undecodable messages
// are acked and dropped, redelivering them would not help.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan event.RoomEvent, error) {
	messages, err := s.subscriber.Subscribe(ctx, s.topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", s.topic, err)
	}
	events := make(chan event.RoomEvent)
	go func() {
		defer close(events)
		for msg := range messages {
			var e event.RoomEvent
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				s.log.Warn("Dropping undecodable room event",
					"room_id", msg.Metadata.Get(roomIDMetadata), "error", err)
				msg.Ack()
				continue
			}
			select {
			case events <- e:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return events, nil
}

func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}

// NewGoChannel builds an in-process pair, for a single node and for tests.
// Publishing waits for the subscriber ack, otherwise gochannel may reorder
// the events of a room.
func NewGoChannel(log *slog.Logger, topic string, metrics *observability.Metrics, bufferSize int64) (*Publisher, *Subscriber) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            bufferSize,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewSlogLogger(log))
	return NewPublisher(log, pubSub, topic, metrics), NewSubscriber(log, pubSub, topic)
}

// NewNATS builds a pair over core NATS so every node receives every event.
func NewNATS(log *slog.Logger, natsURL, topic string, metrics *observability.Metrics) (*Publisher, *Subscriber, error) {
	watermillLogger := watermill.NewSlogLogger(log)
	marshaler := &nats.NATSMarshaler{}
	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(time.Second),
	}
	jsConfig := nats.JetStreamConfig{Disabled: true}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         natsURL,
			NatsOptions: options,
			Marshaler:   marshaler,
			JetStream:   jsConfig,
		},
		watermillLogger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:         natsURL,
			NatsOptions: options,
			Unmarshaler: marshaler,
			JetStream:   jsConfig,
		},
		watermillLogger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}
	return NewPublisher(log, publisher, topic, metrics), NewSubscriber(log, subscriber, topic), nil
}
