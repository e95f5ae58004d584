package kvstore

import (
	"context"
	"cube-race/contract"
	"cube-race/domain"
	"cube-race/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

func queueFilter(roomID string) string {
	return "queue." + roomID + ".*"
}

func seqKey(roomID string) string {
	return "seq." + roomID
}

var (
	_ contract.EventQueue     = (*EventQueue)(nil)
	_ contract.QueueInspector = (*EventQueue)(nil)
)

// EventQueue is one FIFO list of commands per room. Each room has a
// counter bumped by compare-and-swap, so commands enqueued from any node
// get a total order, and a blocked pop is woken by a bucket watch.
type EventQueue struct {
	bucket Bucket
	log    *slog.Logger
	now    func() time.Time
}

func NewEventQueue(bucket Bucket, log *slog.Logger) *EventQueue {
	return &EventQueue{bucket: bucket, log: log, now: time.Now}
}

// EnqueueRoomEvent appends the command to its room's queue. A command for
// a room that no longer exists is dropped.
func (q *EventQueue) EnqueueRoomEvent(cmd domain.QueuedCommand) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	_, _, err := readRecord(ctx, q.bucket, cmd.RoomID, q.now())
	if stderrors.Is(err, errors.ErrRoomNotFound) {
		q.log.Info("Dropping command for missing room", "room_id", cmd.RoomID, "command", cmd.Event)
		return nil
	}
	if err != nil {
		return err
	}
	if cmd.EnqueuedAt.IsZero() {
		cmd.EnqueuedAt = q.now().UTC()
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	n, err := q.next(ctx, cmd.RoomID)
	if err != nil {
		return err
	}
	// Zero padding keeps lexicographic order equal to arrival order
	_, err = q.bucket.Create(ctx, fmt.Sprintf("queue.%s.%020d", cmd.RoomID, n), data)
	return err
}

// next bumps the room's counter.
func (q *EventQueue) next(ctx context.Context, roomID string) (uint64, error) {
	for range maxConflictRetries {
		e, err := q.bucket.Get(ctx, seqKey(roomID))
		var n uint64 = 1
		switch {
		case stderrors.Is(err, jetstream.ErrKeyNotFound):
			_, err = q.bucket.Create(ctx, seqKey(roomID), []byte("1"))
		case err != nil:
			return 0, err
		default:
			current, perr := strconv.ParseUint(string(e.Value), 10, 64)
			if perr != nil {
				return 0, fmt.Errorf("queue counter of room %s: %w", roomID, perr)
			}
			n = current + 1
			_, err = q.bucket.Update(ctx, seqKey(roomID), []byte(strconv.FormatUint(n, 10)), e.Revision)
		}
		if err == nil {
			return n, nil
		}
		if !stderrors.Is(err, jetstream.ErrKeyExists) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("queue counter of room %s: %w", roomID, errConflict)
}

// PopRoomEvent removes and returns the oldest command of the room. When the
// queue is empty it waits for an enqueue from any node, the timeout or ctx.
// A timeout returns nil, nil.
func (q *EventQueue) PopRoomEvent(ctx context.Context, roomID string, timeout time.Duration) (*domain.QueuedCommand, error) {
	// Watch before the first look so an enqueue in between still wakes us
	wake, stop, err := q.bucket.WatchPuts(ctx, queueFilter(roomID))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer stop()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		cmd, err := q.popHead(ctx, roomID)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil || cmd != nil {
			return cmd, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-wake:
		}
	}
}

func (q *EventQueue) popHead(ctx context.Context, roomID string) (*domain.QueuedCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	keys, err := q.bucket.Keys(ctx, queueFilter(roomID))
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		e, err := q.bucket.Get(ctx, key)
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		err = q.bucket.Delete(ctx, key, e.Revision)
		if stderrors.Is(err, jetstream.ErrKeyExists) || stderrors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var cmd domain.QueuedCommand
		if err = json.Unmarshal(e.Value, &cmd); err != nil {
			q.log.Warn("Dropping undecodable command", "room_id", roomID, "key", key, "error", err)
			continue
		}
		return &cmd, nil
	}
	return nil, nil
}

// Len counts the commands waiting for a room.
func (q *EventQueue) Len(roomID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	keys, err := q.bucket.Keys(ctx, queueFilter(roomID))
	return len(keys), err
}

// PurgeRoomEvents drops whatever is left in a deleted room's queue, and
// its counter.
func (q *EventQueue) PurgeRoomEvents(roomID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	keys, err := q.bucket.Keys(ctx, queueFilter(roomID))
	if err != nil {
		return err
	}
	for _, key := range append(keys, seqKey(roomID)) {
		if err = q.bucket.Delete(ctx, key, 0); err != nil {
			return err
		}
	}
	return nil
}
