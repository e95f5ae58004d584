package runtime

import (
	"context"
	"cube-race/domain"
	"cube-race/infrastructure/storage"
	"cube-race/mocks"
	"cube-race/observability"
	"cube-race/runtime/workers"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"
)

type workerFixture struct {
	store   *storage.RoomStore
	queue   *storage.EventQueue
	leases  *storage.LeaseStore
	handler *mocks.MockCommandHandler
	deps    workers.ProcessorDeps
}

func newWorkerFixture(t *testing.T, rooms ...string) *workerFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	queue, err := storage.NewEventQueue(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = queue.Close() })
	ctrl := gomock.NewController(t)
	f := &workerFixture{
		store:   storage.NewRoomStore(db, slog.Default(), time.Second),
		queue:   queue,
		leases:  storage.NewLeaseStore(db),
		handler: mocks.NewMockCommandHandler(ctrl),
	}
	f.deps = workers.ProcessorDeps{
		Store:       f.store,
		Queue:       f.queue,
		Leases:      f.leases,
		Handler:     f.handler,
		Broadcaster: mocks.NewMockBroadcaster(ctrl),
		Metrics:     observability.NewMetrics(),
		Tracer:      noop.NewTracerProvider().Tracer("test"),
	}
	for _, id := range rooms {
		require.NoError(t, f.store.SetRoom(domain.NewRoom(id, domain.DefaultSettings(id), time.Now())))
	}
	return f
}

func (f *workerFixture) worker(nodeID string) *RoomWorker {
	cfg := workers.ProcessorConfig{PopTimeout: 50 * time.Millisecond, LeaseTTL: time.Minute}
	return NewRoomWorker(context.Background(), slog.Default(), nodeID, workers.NewSupervisor(slog.Default(), 10*time.Millisecond), f.deps, cfg)
}

func TestRoomWorker_StartIsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newWorkerFixture(t, "r1", "r2")
	w := f.worker("node-a")

	req.True(w.StartRoomProcessor("r1"))
	req.False(w.StartRoomProcessor("r1"))
	req.True(w.StartRoomProcessor("r2"))
	req.Equal([]string{"r1", "r2"}, w.Owned())

	req.NoError(w.Shutdown(context.Background()))
	req.Empty(w.Owned())
	req.False(w.StartRoomProcessor("r3"))
}

func TestRoomWorker_StopRoomProcessor(t *testing.T) {
	req := require.New(t)
	f := newWorkerFixture(t, "r1")
	w := f.worker("node-a")
	req.True(w.StartRoomProcessor("r1"))
	req.Eventually(func() bool {
		owner, held, _ := f.leases.LeaseOwner("r1")
		return held && owner == "node-a"
	}, time.Second, 10*time.Millisecond)

	w.StopRoomProcessor("r1")

	req.Eventually(func() bool { return len(w.Owned()) == 0 }, 2*time.Second, 10*time.Millisecond)
	_, held, err := f.leases.LeaseOwner("r1")
	req.NoError(err)
	req.False(held)
	req.NoError(w.Shutdown(context.Background()))
}

func TestRoomWorker_ProcessorLeavesWithItsRoom(t *testing.T) {
	req := require.New(t)
	f := newWorkerFixture(t, "r1")
	w := f.worker("node-a")
	req.True(w.StartRoomProcessor("r1"))

	req.NoError(f.store.DeleteRoom("r1"))

	req.Eventually(func() bool { return len(w.Owned()) == 0 }, 2*time.Second, 10*time.Millisecond)
	req.NoError(w.Shutdown(context.Background()))
}

func TestRoomWorker_ShutdownInterruptsBlockedPops(t *testing.T) {
	req := require.New(t)
	f := newWorkerFixture(t, "r1")
	cfg := workers.ProcessorConfig{PopTimeout: time.Minute, LeaseTTL: 2 * time.Minute}
	w := NewRoomWorker(context.Background(), slog.Default(), "node-a", workers.NewSupervisor(slog.Default(), 0), f.deps, cfg)
	req.True(w.StartRoomProcessor("r1"))
	req.Eventually(func() bool {
		_, held, _ := f.leases.LeaseOwner("r1")
		return held
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	started := time.Now()

	req.ErrorIs(w.Shutdown(ctx), context.DeadlineExceeded)
	req.Less(time.Since(started), 5*time.Second)
	_, held, err := f.leases.LeaseOwner("r1")
	req.NoError(err)
	req.False(held)
}

// Two nodes share the store: only one of them may process the room.
func TestRoomWorker_SingleOwnerAcrossNodes(t *testing.T) {
	req := require.New(t)
	f := newWorkerFixture(t, "r1")
	a, b := f.worker("node-a"), f.worker("node-b")

	req.True(a.StartRoomProcessor("r1"))
	req.Eventually(func() bool {
		owner, held, _ := f.leases.LeaseOwner("r1")
		return held && owner == "node-a"
	}, time.Second, 10*time.Millisecond)
	req.True(b.StartRoomProcessor("r1"))

	// node-b's processor sees the lease and leaves right away
	req.Eventually(func() bool { return len(b.Owned()) == 0 }, 2*time.Second, 10*time.Millisecond)
	req.Equal([]string{"r1"}, a.Owned())

	req.NoError(a.Shutdown(context.Background()))
	req.NoError(b.Shutdown(context.Background()))
}
