package broadcast

import (
	"context"
	"cube-race/domain/event"
	"cube-race/observability"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGoChannel_DeliversEventsInOrder(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	publisher, subscriber := NewGoChannel(log, DefaultTopic, observability.NewMetrics(), 16)
	defer func() { _ = publisher.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given a subscribed node
	events, err := subscriber.Subscribe(ctx)
	req.NoError(err)

	// When a processor broadcasts two events
	first, err := event.New("r1", event.UserJoined, event.UserIDPayload{UserID: "alice"})
	req.NoError(err)
	second, err := event.New("r1", event.RoomUpdate, event.UserIDPayload{UserID: "alice"})
	req.NoError(err)
	second = second.To("alice")
	published := make(chan error, 1)
	go func() {
		// Publishing blocks until the subscriber takes each event
		if err := publisher.Broadcast(ctx, first); err != nil {
			published <- err
			return
		}
		published <- publisher.Broadcast(ctx, second)
	}()

	// Then they arrive decoded and in order
	for _, want := range []event.RoomEvent{first, second} {
		select {
		case got := <-events:
			req.Equal(want.ID, got.ID)
			req.Equal(want.Name, got.Name)
			req.Equal(want.Target, got.Target)
			req.JSONEq(string(want.Payload), string(got.Payload))
		case <-time.After(time.Second):
			req.Fail("event not delivered")
		}
	}
	req.NoError(<-published)
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return stderrors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func TestPublisher_CountsFailures(t *testing.T) {
	req := require.New(t)
	metrics := observability.NewMetrics()
	publisher := NewPublisher(slog.Default(), failingPublisher{}, DefaultTopic, metrics)
	e, err := event.New("r1", event.RoomDeleted, event.UserIDPayload{UserID: "alice"})
	req.NoError(err)

	err = publisher.Broadcast(context.Background(), e)

	req.Error(err)
	req.Equal(float64(1), testutil.ToFloat64(metrics.BroadcastFailures))
}
