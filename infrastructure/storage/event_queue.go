package storage

import (
	"context"
	"cube-race/domain"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	queuePrefix   = "queue:"
	queueSeqKey   = "seq:queue"
	queueSeqLease = 100
)

func queueRoomPrefix(roomID string) []byte {
	return []byte(queuePrefix + roomID + ":")
}

// EventQueue is one FIFO list of commands per room. Keys carry a Badger
// sequence number, so a prefix scan returns commands in arrival order.
type EventQueue struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence

	mu      sync.Mutex
	signals map[string]chan struct{}
}

func NewEventQueue(db *badger.DB, log *slog.Logger) (*EventQueue, error) {
	seq, err := db.GetSequence([]byte(queueSeqKey), queueSeqLease)
	if err != nil {
		return nil, fmt.Errorf("queue sequence: %w", err)
	}
	return &EventQueue{db: db, log: log, seq: seq, signals: make(map[string]chan struct{})}, nil
}

// Close gives back the unused part of the leased sequence range.
func (q *EventQueue) Close() error {
	return q.seq.Release()
}

// signal returns the wake-up channel of a room. It has room for one
// pending notification so that an enqueue racing with a pop is not lost.
func (q *EventQueue) signal(roomID string) chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.signals[roomID]
	if !ok {
		ch = make(chan struct{}, 1)
		q.signals[roomID] = ch
	}
	return ch
}

// EnqueueRoomEvent appends the command to its room's queue. A command for
// a room that no longer exists is dropped.
func (q *EventQueue) EnqueueRoomEvent(cmd domain.QueuedCommand) error {
	exists, err := roomExists(q.db, cmd.RoomID)
	if err != nil {
		return err
	}
	if !exists {
		q.log.Info("Dropping command for missing room", "room_id", cmd.RoomID, "command", cmd.Event)
		return nil
	}
	if cmd.EnqueuedAt.IsZero() {
		cmd.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	n, err := q.seq.Next()
	if err != nil {
		return err
	}
	// Zero padding keeps lexicographic order equal to arrival order
	key := fmt.Sprintf("%s%020d", queueRoomPrefix(cmd.RoomID), n)
	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return err
	}
	select {
	case q.signal(cmd.RoomID) <- struct{}{}:
	default:
	}
	return nil
}

// PopRoomEvent removes and returns the oldest command of the room. When the
// queue is empty it waits for an enqueue, the timeout or ctx. A timeout
// returns nil, nil.
func (q *EventQueue) PopRoomEvent(ctx context.Context, roomID string, timeout time.Duration) (*domain.QueuedCommand, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	wake := q.signal(roomID)
	for {
		cmd, err := q.popHead(roomID)
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

func (q *EventQueue) popHead(roomID string) (*domain.QueuedCommand, error) {
	var cmd *domain.QueuedCommand
	err := retryOnConflict(func() error {
		cmd = nil
		return q.db.Update(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			prefix := queueRoomPrefix(roomID)
			it.Seek(prefix)
			if !it.ValidForPrefix(prefix) {
				return nil
			}
			item := it.Item()
			var decoded domain.QueuedCommand
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &decoded) }); err != nil {
				return err
			}
			if err := txn.Delete(item.KeyCopy(nil)); err != nil {
				return err
			}
			cmd = &decoded
			return nil
		})
	})
	return cmd, err
}

// Len counts the commands waiting for a room.
func (q *EventQueue) Len(roomID string) (int, error) {
	n := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := queueRoomPrefix(roomID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// PurgeRoomEvents drops whatever is left in a deleted room's queue.
func (q *EventQueue) PurgeRoomEvents(roomID string) error {
	err := retryOnConflict(func() error {
		return q.db.Update(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			prefix := queueRoomPrefix(roomID)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	q.mu.Lock()
	delete(q.signals, roomID)
	q.mu.Unlock()
	return nil
}

func roomExists(db *badger.DB, roomID string) (bool, error) {
	err := db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey(roomID))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}
