package workers

import (
	"context"
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/infrastructure/storage"
	"cube-race/mocks"
	"cube-race/observability"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"
)

type processorFixture struct {
	db      *badger.DB
	store   *storage.RoomStore
	queue   *storage.EventQueue
	leases  *storage.LeaseStore
	handler *mocks.MockCommandHandler
	bus     *mocks.MockBroadcaster
	metrics *observability.Metrics
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	queue, err := storage.NewEventQueue(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = queue.Close() })
	ctrl := gomock.NewController(t)
	f := &processorFixture{
		db:      db,
		store:   storage.NewRoomStore(db, slog.Default(), time.Second),
		queue:   queue,
		leases:  storage.NewLeaseStore(db),
		handler: mocks.NewMockCommandHandler(ctrl),
		bus:     mocks.NewMockBroadcaster(ctrl),
		metrics: observability.NewMetrics(),
	}
	room := domain.NewRoom("r1", domain.DefaultSettings("r1"), time.Now())
	room.Join("alice", "Alice")
	require.NoError(t, f.store.SetRoom(room))
	return f
}

func (f *processorFixture) processor(nodeID string, onExit func()) *RoomProcessor {
	deps := ProcessorDeps{
		Store:       f.store,
		Queue:       f.queue,
		Leases:      f.leases,
		Handler:     f.handler,
		Broadcaster: f.bus,
		Metrics:     f.metrics,
		Tracer:      noop.NewTracerProvider().Tracer("test"),
	}
	return NewRoomProcessor(slog.Default(), "r1", nodeID, deps, ProcessorConfig{PopTimeout: 50 * time.Millisecond, LeaseTTL: time.Minute}, onExit)
}

func runAsync(p *RoomProcessor) <-chan error {
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	return done
}

func awaitExit(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.Fail(t, "processor did not stop")
	}
}

func TestRoomProcessor_HandlesCommandsInOrder(t *testing.T) {
	req := require.New(t)
	f := newProcessorFixture(t)

	var mu sync.Mutex
	var seen []string
	f.handler.EXPECT().Handle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd domain.QueuedCommand) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, cmd.UserID)
			return nil
		}).Times(3)

	// Given three commands already queued
	for _, user := range []string{"u1", "u2", "u3"} {
		req.NoError(f.queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r1", UserID: user, Event: domain.JoinRoom}))
	}

	// When the processor runs
	p := f.processor("node-a", nil)
	done := runAsync(p)
	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, 2*time.Second, 10*time.Millisecond)
	p.Stop()
	awaitExit(t, done)

	// Then they were handled in arrival order and the lease is given back
	req.Equal([]string{"u1", "u2", "u3"}, seen)
	_, held, err := f.leases.LeaseOwner("r1")
	req.NoError(err)
	req.False(held)
	req.Equal(float64(3), testutil.ToFloat64(f.metrics.CommandsTotal.WithLabelValues("JOIN_ROOM", observability.StatusOK)))
}

func TestRoomProcessor_SurvivesHandlerPanicAndAcknowledges(t *testing.T) {
	req := require.New(t)
	f := newProcessorFixture(t)

	gomock.InOrder(
		f.handler.EXPECT().Handle(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, domain.QueuedCommand) error { panic("corrupted room") }),
		f.handler.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(errors.New("not the host")),
		f.handler.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(nil),
	)
	results := make(chan event.RoomEvent, 3)
	f.bus.EXPECT().Broadcast(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.RoomEvent) error {
			results <- e
			return nil
		}).Times(3)

	for _, corr := range []string{"c1", "c2", "c3"} {
		req.NoError(f.queue.EnqueueRoomEvent(domain.QueuedCommand{
			RoomID: "r1", UserID: "alice", Event: domain.StartRoom, CorrelationID: corr,
		}))
	}

	p := f.processor("node-a", nil)
	done := runAsync(p)

	var acks []event.RoomEvent
	for range 3 {
		select {
		case e := <-results:
			acks = append(acks, e)
		case <-time.After(2 * time.Second):
			req.FailNow("missing command result")
		}
	}
	p.Stop()
	awaitExit(t, done)

	for i, want := range []bool{false, false, true} {
		req.Equal(event.CommandResult, acks[i].Name)
		req.Equal("alice", acks[i].Target)
		res, err := acks[i].CommandResult()
		req.NoError(err)
		req.Equal(want, res.OK, "ack %d", i)
	}
	req.Equal("c1", acks[0].CorrelationID)
	req.Equal(float64(1), testutil.ToFloat64(f.metrics.CommandsTotal.WithLabelValues("START_ROOM", observability.StatusPanic)))
	req.Equal(float64(1), testutil.ToFloat64(f.metrics.CommandsTotal.WithLabelValues("START_ROOM", observability.StatusRejected)))
}

func TestRoomProcessor_StopsWhenRoomIsDeleted(t *testing.T) {
	req := require.New(t)
	f := newProcessorFixture(t)
	f.handler.EXPECT().Handle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.QueuedCommand) error {
			// The handler deletes the room, leaving a command behind
			if err := f.queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r1", UserID: "alice", Event: domain.LeaveRoom}); err != nil {
				return err
			}
			return f.store.DeleteRoom("r1")
		}).Times(1)
	req.NoError(f.queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r1", UserID: "alice", Event: domain.DeleteRoom}))

	exited := make(chan struct{})
	done := runAsync(f.processor("node-a", func() { close(exited) }))
	awaitExit(t, done)

	<-exited
	n, err := f.queue.Len("r1")
	req.NoError(err)
	req.Zero(n)
	_, held, err := f.leases.LeaseOwner("r1")
	req.NoError(err)
	req.False(held)
}

func TestRoomProcessor_LeaseHeldElsewhere(t *testing.T) {
	req := require.New(t)
	f := newProcessorFixture(t)
	acquired, err := f.leases.AcquireLease("r1", "node-b", time.Minute)
	req.NoError(err)
	req.True(acquired)
	req.NoError(f.queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r1", UserID: "alice", Event: domain.StartRoom}))

	// Then nothing is consumed: the handler mock has no expectation
	exited := false
	awaitExit(t, runAsync(f.processor("node-a", func() { exited = true })))

	req.True(exited)
	n, err := f.queue.Len("r1")
	req.NoError(err)
	req.Equal(1, n)
}

func TestRoomProcessor_StopsWhenLeaseIsLost(t *testing.T) {
	req := require.New(t)
	f := newProcessorFixture(t)
	p := f.processor("node-a", nil)
	done := runAsync(p)
	req.Eventually(func() bool {
		owner, held, _ := f.leases.LeaseOwner("r1")
		return held && owner == "node-a"
	}, time.Second, 10*time.Millisecond)

	// When another node took the lease after it expired
	req.NoError(f.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte("lease:r1"), []byte("node-b")).WithTTL(time.Minute))
	}))

	// Then the processor gives up at its next iteration
	awaitExit(t, done)
	owner, held, err := f.leases.LeaseOwner("r1")
	req.NoError(err)
	req.True(held)
	req.Equal("node-b", owner)
}

func TestRoomProcessor_NotRestartedOnceRoomIsGone(t *testing.T) {
	req := require.New(t)
	f := newProcessorFixture(t)
	leases := mocks.NewMockLeaseStore(gomock.NewController(t))
	leases.EXPECT().AcquireLease("r1", "node-a", time.Minute).Return(false, errors.New("lease store down")).Times(1)
	leases.EXPECT().ReleaseLease("r1", "node-a").Return(nil).Times(1)
	req.NoError(f.queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r1", UserID: "alice", Event: domain.StartRoom}))

	// Given the room is deleted while its processor cannot take the lease
	req.NoError(f.store.DeleteRoom("r1"))
	exited := make(chan struct{})
	deps := ProcessorDeps{
		Store:       f.store,
		Queue:       f.queue,
		Leases:      leases,
		Handler:     f.handler,
		Broadcaster: f.bus,
		Metrics:     f.metrics,
		Tracer:      noop.NewTracerProvider().Tracer("test"),
	}
	p := NewRoomProcessor(slog.Default(), "r1", "node-a", deps,
		ProcessorConfig{PopTimeout: 50 * time.Millisecond, LeaseTTL: time.Minute}, func() { close(exited) })

	// When the supervisor sees it crash
	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	sup.Start(context.Background(), p)

	// Then it is retired instead of restarted, and its queue is dropped
	select {
	case <-exited:
	case <-time.After(time.Second):
		req.Fail("Processor of a deleted room should be retired")
	}
	sup.Wait()
	n, err := f.queue.Len("r1")
	req.NoError(err)
	req.Zero(n)
}
