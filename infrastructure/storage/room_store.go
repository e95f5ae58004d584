package storage

import (
	"cube-race/domain"
	"cube-race/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tidwall/gjson"
)

// DefaultDeletionGrace is how long an empty room survives before expiring.
const DefaultDeletionGrace = 5 * time.Second

const (
	roomPrefix  = "room:"
	indexPrefix = "index:rooms:"
)

func roomKey(roomID string) []byte {
	return []byte(roomPrefix + roomID)
}

// indexKey orders rooms by creation time. The timestamp is padded to 19
// digits so that lexicographic order is chronological.
func indexKey(createdAt time.Time, roomID string) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", indexPrefix, createdAt.UnixNano(), roomID))
}

func roomIDFromIndexKey(key []byte) string {
	k := string(key)
	return k[strings.LastIndex(k, ":")+1:]
}

// RoomStore keeps one JSON document per room in Badger, plus a creation
// time index used for listing. It does no locking: the room processor is
// the only writer of a room.
type RoomStore struct {
	db    *badger.DB
	log   *slog.Logger
	grace time.Duration
}

func NewRoomStore(db *badger.DB, log *slog.Logger, grace time.Duration) *RoomStore {
	if grace <= 0 {
		grace = DefaultDeletionGrace
	}
	return &RoomStore{db: db, log: log, grace: grace}
}

// SetRoom upserts the whole document. A new room is also indexed. A pending
// deletion schedule is kept: only PersistRoom cancels it.
func (s *RoomStore) SetRoom(room *domain.Room) error {
	return s.writeRoom(room, false)
}

// writeRoom stores the document. With mustExist a room that expired or was
// deleted since it was read is not brought back.
func (s *RoomStore) writeRoom(room *domain.Room, mustExist bool) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.ID, err)
	}
	err = retryOnConflict(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			entry := badger.NewEntry(roomKey(room.ID), data)
			item, err := txn.Get(roomKey(room.ID))
			switch {
			case stderrors.Is(err, badger.ErrKeyNotFound) && mustExist:
				return err
			case stderrors.Is(err, badger.ErrKeyNotFound):
				if err := txn.Set(indexKey(room.CreatedAt, room.ID), []byte(room.ID)); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				entry.ExpiresAt = item.ExpiresAt()
			}
			return txn.SetEntry(entry)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, room.ID)
	}
	return err
}

func (s *RoomStore) GetRoom(roomID string) (*domain.Room, error) {
	var room domain.Room
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &room)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoomProp reads one property of the document, addressed by a gjson
// path such as "settings.roomName" or "users.alice.points".
func (s *RoomStore) GetRoomProp(roomID, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			res := gjson.GetBytes(v, path)
			if !res.Exists() {
				return fmt.Errorf("%w: %s", errors.ErrPropNotFound, path)
			}
			raw = json.RawMessage(res.Raw)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	return raw, err
}

func (s *RoomStore) RoomExists(roomID string) (bool, error) {
	return roomExists(s.db, roomID)
}

// UpdateRoomFunction reads the room, applies fn and writes it back. Nothing
// is written when fn fails or the room is gone by then. Callers must own
// the room.
func (s *RoomStore) UpdateRoomFunction(roomID string, fn func(room *domain.Room) error) (*domain.Room, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	if err = fn(room); err != nil {
		return nil, err
	}
	if err = s.writeRoom(room, true); err != nil {
		return nil, err
	}
	return room, nil
}

// ScheduleRoomForDeletion lets the room expire after the grace period.
func (s *RoomStore) ScheduleRoomForDeletion(roomID string) error {
	return s.rewriteTTL(roomID, s.grace)
}

// PersistRoom cancels a pending expiry.
func (s *RoomStore) PersistRoom(roomID string) error {
	return s.rewriteTTL(roomID, 0)
}

func (s *RoomStore) rewriteTTL(roomID string, ttl time.Duration) error {
	err := retryOnConflict(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(roomKey(roomID))
			if err != nil {
				return err
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entry := badger.NewEntry(roomKey(roomID), data)
			if ttl > 0 {
				entry = entry.WithTTL(ttl)
			}
			return txn.SetEntry(entry)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	return err
}

// DeleteRoom removes the document and its index entry.
func (s *RoomStore) DeleteRoom(roomID string) error {
	return retryOnConflict(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			var room domain.Room
			item, err := txn.Get(roomKey(roomID))
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if err = item.Value(func(v []byte) error { return json.Unmarshal(v, &room) }); err != nil {
				return err
			}
			if err = txn.Delete(indexKey(room.CreatedAt, roomID)); err != nil {
				return err
			}
			return txn.Delete(roomKey(roomID))
		})
	})
}

// ListRoomIDs returns every indexed room, oldest first. Entries may point
// to rooms that already expired.
func (s *RoomStore) ListRoomIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(indexPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, roomIDFromIndexKey(it.Item().Key()))
		}
		return nil
	})
	return ids, err
}

// GetRoomsPage lists rooms newest first. Index entries whose room has
// expired are pruned instead of being reported. Private rooms are skipped
// unless includePrivate is set. Pages start at 1.
func (s *RoomStore) GetRoomsPage(page, size int, includePrivate bool) (domain.RoomsPage, error) {
	page = max(page, 1)
	if size <= 0 {
		size = 20
	}
	result := domain.RoomsPage{Rooms: []*domain.Room{}, Page: page, Size: size}
	var dangling [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(indexPrefix)
		seekKey := append([]byte(indexPrefix), []byte("9999999999999999999")...)
		skip := (page - 1) * size
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			item, err := txn.Get(roomKey(roomIDFromIndexKey(key)))
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				dangling = append(dangling, key)
				continue
			}
			if err != nil {
				return err
			}
			if !includePrivate {
				var private bool
				err = item.Value(func(v []byte) error {
					private = domain.Visibility(gjson.GetBytes(v, "settings.access.visibility").String()) == domain.Private
					return nil
				})
				if err != nil {
					return err
				}
				if private {
					continue
				}
			}
			result.Total++
			if skip > 0 {
				skip--
				continue
			}
			if len(result.Rooms) == size {
				continue
			}
			var room domain.Room
			if err = item.Value(func(v []byte) error { return json.Unmarshal(v, &room) }); err != nil {
				return err
			}
			result.Rooms = append(result.Rooms, &room)
		}
		return nil
	})
	if err != nil {
		return domain.RoomsPage{}, err
	}
	if len(dangling) > 0 {
		s.pruneIndex(dangling)
	}
	return result, nil
}

func (s *RoomStore) pruneIndex(keys [][]byte) {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("Failed to prune room index", "entries", len(keys), "error", err)
		return
	}
	s.log.Debug("Pruned expired rooms from index", "entries", len(keys))
}

const maxConflictRetries = 5

// retryOnConflict reruns a transaction that lost an optimistic concurrency
// check against another writer of the same keys.
func retryOnConflict(fn func() error) error {
	var err error
	for range maxConflictRetries {
		if err = fn(); !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
