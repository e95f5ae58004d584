package workers

import (
	"context"
	"cube-race/contract"
	"cube-race/domain/event"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultSinkTimeout = 2 * time.Second

// EventFanout hands every room event received by this node to the local
// sessions of its room.
//
// Delivery is best effort: a slow or gone session loses the event, the next
// ROOM_UPDATE carries the full state again. COMMAND_RESULT events only go
// to the permanent sinks, which turn them into acknowledgements.
type EventFanout struct {
	log         *slog.Logger
	subscriber  contract.EventSubscriber
	registry    contract.IRegistry
	permanent   []contract.EventSink
	sinkTimeout time.Duration
	ready       chan struct{}
	readyOnce   sync.Once
}

func NewEventFanout(log *slog.Logger, subscriber contract.EventSubscriber, registry contract.IRegistry,
	sinkTimeout time.Duration, permanent ...contract.EventSink) *EventFanout {
	if sinkTimeout <= 0 {
		sinkTimeout = DefaultSinkTimeout
	}
	return &EventFanout{
		log:         log,
		subscriber:  subscriber,
		registry:    registry,
		permanent:   permanent,
		sinkTimeout: sinkTimeout,
		ready:       make(chan struct{}),
	}
}

// Ready is closed once the first subscription is in place. Events published
// before that are not seen by this node.
func (w *EventFanout) Ready() <-chan struct{} {
	return w.ready
}

// Run returns an error when the subscription ends while ctx is alive, so
// the supervisor subscribes again.
func (w *EventFanout) Run(ctx context.Context) error {
	events, err := w.subscriber.Subscribe(ctx)
	if err != nil {
		return err
	}
	w.readyOnce.Do(func() { close(w.ready) })
	for {
		select {
		case e, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("room event subscription closed")
			}
			w.Fanout(ctx, e)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping room event fanout")
			return nil
		}
	}
}

// Fanout One sink for each session allowed to see the event
func (w *EventFanout) Fanout(ctx context.Context, e event.RoomEvent) {
	for _, sink := range w.permanent {
		w.consume(ctx, sink, e)
	}
	if e.Name == event.CommandResult {
		return
	}
	for _, sink := range w.registry.GetSinksForEvent(e) {
		w.consume(ctx, sink, e)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, e event.RoomEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, e); err != nil {
		w.log.Debug("Room event not delivered", "room_id", e.RoomID, "event", e.Name, "error", err)
	}
}
