package storage

import (
	"context"
	"cube-race/domain"
	"cube-race/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes an in-memory Badger instance for testing
func SetupTestDB(t *testing.T) *badger.DB {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRoom(id string, createdAt time.Time) *domain.Room {
	room := domain.NewRoom(id, domain.DefaultSettings("room "+id), createdAt)
	room.Join("alice", "Alice")
	return room
}

func TestRoomStore_SetAndGet(t *testing.T) {
	req := require.New(t)
	store := NewRoomStore(SetupTestDB(t), slog.Default(), time.Second)
	room := newTestRoom("r1", time.Now())

	req.NoError(store.SetRoom(room))
	fetched, err := store.GetRoom("r1")

	req.NoError(err)
	req.Equal(room.Settings, fetched.Settings)
	req.Equal("alice", fetched.Host)
	req.True(fetched.IsMember("alice"))

	_, err = store.GetRoom("missing")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomStore_GetRoomProp(t *testing.T) {
	req := require.New(t)
	store := NewRoomStore(SetupTestDB(t), slog.Default(), time.Second)
	req.NoError(store.SetRoom(newTestRoom("r1", time.Now())))

	name, err := store.GetRoomProp("r1", "settings.roomName")
	req.NoError(err)
	req.JSONEq(`"room r1"`, string(name))

	user, err := store.GetRoomProp("r1", "users.alice")
	req.NoError(err)
	var decoded domain.User
	req.NoError(json.Unmarshal(user, &decoded))
	req.Equal("Alice", decoded.Name)

	_, err = store.GetRoomProp("r1", "settings.nope")
	req.ErrorIs(err, errors.ErrPropNotFound)
	_, err = store.GetRoomProp("missing", "settings")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomStore_UpdateRoomFunction(t *testing.T) {
	req := require.New(t)
	store := NewRoomStore(SetupTestDB(t), slog.Default(), time.Second)
	req.NoError(store.SetRoom(newTestRoom("r1", time.Now())))

	updated, err := store.UpdateRoomFunction("r1", func(room *domain.Room) error {
		room.Join("bob", "Bob")
		return nil
	})
	req.NoError(err)
	req.True(updated.IsMember("bob"))

	// A failing function writes nothing
	_, err = store.UpdateRoomFunction("r1", func(room *domain.Room) error {
		room.Join("carol", "Carol")
		return fmt.Errorf("boom")
	})
	req.Error(err)
	fetched, err := store.GetRoom("r1")
	req.NoError(err)
	req.False(fetched.IsMember("carol"))
}

func TestRoomStore_UpdateRoomFunction_DoesNotBringBackRemovedRoom(t *testing.T) {
	req := require.New(t)
	store := NewRoomStore(SetupTestDB(t), slog.Default(), time.Second)
	req.NoError(store.SetRoom(newTestRoom("r1", time.Now())))

	// Given the room disappears while the update function runs
	_, err := store.UpdateRoomFunction("r1", func(room *domain.Room) error {
		req.NoError(store.DeleteRoom("r1"))
		room.Settings.RoomName = "late write"
		return nil
	})

	// Then the write is refused and nothing comes back
	req.ErrorIs(err, errors.ErrRoomNotFound)
	exists, err := store.RoomExists("r1")
	req.NoError(err)
	req.False(exists)
	ids, err := store.ListRoomIDs()
	req.NoError(err)
	req.Empty(ids)
}

func TestRoomStore_ScheduleAndPersist(t *testing.T) {
	req := require.New(t)
	store := NewRoomStore(SetupTestDB(t), slog.Default(), time.Second)
	req.NoError(store.SetRoom(newTestRoom("kept", time.Now())))
	req.NoError(store.SetRoom(newTestRoom("dropped", time.Now())))

	// Given both rooms are scheduled, and one is rescued
	req.NoError(store.ScheduleRoomForDeletion("kept"))
	req.NoError(store.ScheduleRoomForDeletion("dropped"))
	req.NoError(store.PersistRoom("kept"))

	// And a write on the scheduled room does not cancel its expiry
	_, err := store.UpdateRoomFunction("dropped", func(room *domain.Room) error {
		room.Settings.RoomName = "still going"
		return nil
	})
	req.NoError(err)

	// Then only the rescued one survives the grace period
	req.Eventually(func() bool {
		exists, err := store.RoomExists("dropped")
		return err == nil && !exists
	}, 5*time.Second, 100*time.Millisecond)
	exists, err := store.RoomExists("kept")
	req.NoError(err)
	req.True(exists)

	req.ErrorIs(store.PersistRoom("dropped"), errors.ErrRoomNotFound)
}

func TestRoomStore_GetRoomsPage_NewestFirstAndPrunes(t *testing.T) {
	req := require.New(t)
	db := SetupTestDB(t)
	store := NewRoomStore(db, slog.Default(), time.Second)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		req.NoError(store.SetRoom(newTestRoom(fmt.Sprintf("r%d", i), start.Add(time.Duration(i)*time.Minute))))
	}
	// Given a room document vanished without its index entry
	req.NoError(db.Update(func(txn *badger.Txn) error { return txn.Delete(roomKey("r3")) }))

	first, err := store.GetRoomsPage(1, 2, false)
	req.NoError(err)
	req.Equal(4, first.Total)
	req.Equal([]string{"r4", "r2"}, roomIDs(first.Rooms))

	second, err := store.GetRoomsPage(2, 2, false)
	req.NoError(err)
	req.Equal([]string{"r1", "r0"}, roomIDs(second.Rooms))

	ids, err := store.ListRoomIDs()
	req.NoError(err)
	req.Equal([]string{"r0", "r1", "r2", "r4"}, ids)
}

func TestRoomStore_GetRoomsPage_HidesPrivateRooms(t *testing.T) {
	req := require.New(t)
	store := NewRoomStore(SetupTestDB(t), slog.Default(), time.Second)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	req.NoError(store.SetRoom(newTestRoom("open", start)))
	hidden := newTestRoom("hidden", start.Add(time.Minute))
	hidden.Settings.Access.Visibility = domain.Private
	req.NoError(store.SetRoom(hidden))

	public, err := store.GetRoomsPage(1, 10, false)
	req.NoError(err)
	req.Equal(1, public.Total)
	req.Equal([]string{"open"}, roomIDs(public.Rooms))

	all, err := store.GetRoomsPage(1, 10, true)
	req.NoError(err)
	req.Equal(2, all.Total)
	req.Equal([]string{"hidden", "open"}, roomIDs(all.Rooms))
}

func TestRoomStore_DeleteRoom(t *testing.T) {
	req := require.New(t)
	store := NewRoomStore(SetupTestDB(t), slog.Default(), time.Second)
	req.NoError(store.SetRoom(newTestRoom("r1", time.Now())))

	req.NoError(store.DeleteRoom("r1"))
	req.NoError(store.DeleteRoom("r1"))

	exists, err := store.RoomExists("r1")
	req.NoError(err)
	req.False(exists)
	ids, err := store.ListRoomIDs()
	req.NoError(err)
	req.Empty(ids)
}

func roomIDs(rooms []*domain.Room) []string {
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}

func newTestQueue(t *testing.T, db *badger.DB) *EventQueue {
	q, err := NewEventQueue(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestEventQueue_FIFOPerRoom(t *testing.T) {
	req := require.New(t)
	db := SetupTestDB(t)
	store := NewRoomStore(db, slog.Default(), time.Second)
	queue := newTestQueue(t, db)
	req.NoError(store.SetRoom(newTestRoom("r1", time.Now())))
	req.NoError(store.SetRoom(newTestRoom("r2", time.Now())))

	for i := range 12 {
		req.NoError(queue.EnqueueRoomEvent(domain.QueuedCommand{
			RoomID: "r1", UserID: fmt.Sprintf("u%d", i), Event: domain.SubmitResult,
		}))
	}
	req.NoError(queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r2", UserID: "other", Event: domain.LeaveRoom}))

	n, err := queue.Len("r1")
	req.NoError(err)
	req.Equal(12, n)
	for i := range 12 {
		cmd, err := queue.PopRoomEvent(context.Background(), "r1", time.Second)
		req.NoError(err)
		req.NotNil(cmd)
		req.Equal(fmt.Sprintf("u%d", i), cmd.UserID)
		req.False(cmd.EnqueuedAt.IsZero())
	}
	cmd, err := queue.PopRoomEvent(context.Background(), "r2", time.Second)
	req.NoError(err)
	req.Equal("other", cmd.UserID)
}

func TestEventQueue_MissingRoomIsNoop(t *testing.T) {
	req := require.New(t)
	queue := newTestQueue(t, SetupTestDB(t))

	req.NoError(queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "ghost", UserID: "u", Event: domain.JoinRoom}))

	n, err := queue.Len("ghost")
	req.NoError(err)
	req.Zero(n)
}

func TestEventQueue_PopTimesOutThenWakesOnEnqueue(t *testing.T) {
	req := require.New(t)
	db := SetupTestDB(t)
	store := NewRoomStore(db, slog.Default(), time.Second)
	queue := newTestQueue(t, db)
	req.NoError(store.SetRoom(newTestRoom("r1", time.Now())))

	// Empty queue: bounded wait, no error
	cmd, err := queue.PopRoomEvent(context.Background(), "r1", 50*time.Millisecond)
	req.NoError(err)
	req.Nil(cmd)

	// A blocked pop returns as soon as a command arrives
	var wg sync.WaitGroup
	wg.Add(1)
	var popped *domain.QueuedCommand
	started := time.Now()
	go func() {
		defer wg.Done()
		popped, _ = queue.PopRoomEvent(context.Background(), "r1", 5*time.Second)
	}()
	time.Sleep(50 * time.Millisecond)
	req.NoError(queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r1", UserID: "bob", Event: domain.JoinRoom}))
	wg.Wait()

	req.NotNil(popped)
	req.Equal("bob", popped.UserID)
	req.Less(time.Since(started), 2*time.Second)
}

func TestEventQueue_PopHonoursContext(t *testing.T) {
	req := require.New(t)
	db := SetupTestDB(t)
	queue := newTestQueue(t, db)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := queue.PopRoomEvent(ctx, "r1", 5*time.Second)

	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestEventQueue_Purge(t *testing.T) {
	req := require.New(t)
	db := SetupTestDB(t)
	store := NewRoomStore(db, slog.Default(), time.Second)
	queue := newTestQueue(t, db)
	req.NoError(store.SetRoom(newTestRoom("r1", time.Now())))
	for range 3 {
		req.NoError(queue.EnqueueRoomEvent(domain.QueuedCommand{RoomID: "r1", UserID: "u", Event: domain.StartRoom}))
	}

	req.NoError(queue.PurgeRoomEvents("r1"))

	n, err := queue.Len("r1")
	req.NoError(err)
	req.Zero(n)
}

func TestLeaseStore_SingleOwner(t *testing.T) {
	req := require.New(t)
	leases := NewLeaseStore(SetupTestDB(t))

	acquired, err := leases.AcquireLease("r1", "node-a", time.Minute)
	req.NoError(err)
	req.True(acquired)

	// Another node is refused while the owner can renew
	acquired, err = leases.AcquireLease("r1", "node-b", time.Minute)
	req.NoError(err)
	req.False(acquired)
	acquired, err = leases.AcquireLease("r1", "node-a", time.Minute)
	req.NoError(err)
	req.True(acquired)

	// Only the owner can release
	req.NoError(leases.ReleaseLease("r1", "node-b"))
	owner, held, err := leases.LeaseOwner("r1")
	req.NoError(err)
	req.True(held)
	req.Equal("node-a", owner)

	req.NoError(leases.ReleaseLease("r1", "node-a"))
	acquired, err = leases.AcquireLease("r1", "node-b", time.Minute)
	req.NoError(err)
	req.True(acquired)
}

func TestLeaseStore_ExpiredLeaseCanBeTaken(t *testing.T) {
	req := require.New(t)
	leases := NewLeaseStore(SetupTestDB(t))
	acquired, err := leases.AcquireLease("r1", "crashed-node", time.Second)
	req.NoError(err)
	req.True(acquired)

	req.Eventually(func() bool {
		ok, err := leases.AcquireLease("r1", "survivor", time.Minute)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)
}
