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
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/tidwall/gjson"
)

const DefaultDeletionGrace = 5 * time.Second

// maxConflictRetries bounds the compare-and-swap loops racing other nodes.
const maxConflictRetries = 10

var errConflict = fmt.Errorf("too many concurrent writers")

// roomIDPattern keeps ids usable as one token of a NATS subject.
var roomIDPattern = regexp.MustCompile(`^[-_=a-zA-Z0-9]+$`)

func roomKey(roomID string) string {
	return "rooms." + roomID
}

// indexKey orders rooms by creation time, padded so that lexicographic
// order is chronological.
func indexKey(createdAt time.Time, roomID string) string {
	return fmt.Sprintf("index.%019d.%s", createdAt.UnixNano(), roomID)
}

func roomIDFromIndexKey(key string) string {
	return key[strings.LastIndex(key, ".")+1:]
}

// roomRecord wraps the document with its expiry. JetStream keys can only
// be given a TTL at creation, so a scheduled deletion is a deadline that
// readers enforce.
type roomRecord struct {
	ExpiresAt int64           `json:"expiresAt,omitempty"`
	Room      json.RawMessage `json:"room"`
}

func (r roomRecord) expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.UnixNano() >= r.ExpiresAt
}

// readRecord returns the live record of a room. An expired record is
// returned along with ErrRoomNotFound so the caller can reap it.
func readRecord(ctx context.Context, bucket Bucket, roomID string, now time.Time) (roomRecord, uint64, error) {
	if !roomIDPattern.MatchString(roomID) {
		return roomRecord{}, 0, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	e, err := bucket.Get(ctx, roomKey(roomID))
	if stderrors.Is(err, jetstream.ErrKeyNotFound) {
		return roomRecord{}, 0, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	if err != nil {
		return roomRecord{}, 0, err
	}
	var rec roomRecord
	if err = json.Unmarshal(e.Value, &rec); err != nil {
		return roomRecord{}, 0, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	if rec.expired(now) {
		return rec, e.Revision, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	return rec, e.Revision, nil
}

var _ contract.RoomStore = (*RoomStore)(nil)

// RoomStore keeps one JSON document per room in the bucket, plus a
// creation time index used for listing. Like its Badger counterpart it
// does no locking: writes are compare-and-swap on the read revision, and
// the room processor holding the lease is the only writer.
type RoomStore struct {
	bucket Bucket
	log    *slog.Logger
	grace  time.Duration
	now    func() time.Time
}

func NewRoomStore(bucket Bucket, log *slog.Logger, grace time.Duration) *RoomStore {
	if grace <= 0 {
		grace = DefaultDeletionGrace
	}
	return &RoomStore{bucket: bucket, log: log, grace: grace, now: time.Now}
}

// load reads a live record, reaping it when its deadline passed.
func (s *RoomStore) load(ctx context.Context, roomID string) (roomRecord, uint64, error) {
	rec, rev, err := readRecord(ctx, s.bucket, roomID, s.now())
	if err != nil && rev > 0 {
		s.reap(ctx, roomID, rec, rev)
	}
	return rec, rev, err
}

func (s *RoomStore) reap(ctx context.Context, roomID string, rec roomRecord, rev uint64) {
	if err := s.bucket.Delete(ctx, roomKey(roomID), rev); err != nil {
		// Rescued or reaped by someone else meanwhile
		return
	}
	createdAt := gjson.GetBytes(rec.Room, "createdAt").Time()
	if err := s.bucket.Delete(ctx, indexKey(createdAt, roomID), 0); err != nil {
		s.log.Warn("Failed to drop index entry of expired room", "room_id", roomID, "error", err)
	}
	s.log.Debug("Expired room reaped", "room_id", roomID)
}

// SetRoom upserts the whole document. A new room is also indexed. A pending
// deletion deadline is kept: only PersistRoom cancels it.
func (s *RoomStore) SetRoom(room *domain.Room) error {
	return s.write(room, false)
}

// write swaps the document in. With mustExist a room that vanished since
// it was read is not brought back.
func (s *RoomStore) write(room *domain.Room, mustExist bool) error {
	if !roomIDPattern.MatchString(room.ID) {
		return fmt.Errorf("%w: room id %q", errors.ErrInvalidArgs, room.ID)
	}
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.ID, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	for range maxConflictRetries {
		rec, rev, err := s.load(ctx, room.ID)
		switch {
		case stderrors.Is(err, errors.ErrRoomNotFound):
			if mustExist {
				return err
			}
			if _, err = s.bucket.Put(ctx, indexKey(room.CreatedAt, room.ID), []byte(room.ID)); err != nil {
				return err
			}
			err = s.swap(ctx, room.ID, roomRecord{Room: data}, 0)
		case err != nil:
			return err
		default:
			err = s.swap(ctx, room.ID, roomRecord{ExpiresAt: rec.ExpiresAt, Room: data}, rev)
		}
		if !stderrors.Is(err, jetstream.ErrKeyExists) {
			return err
		}
	}
	return fmt.Errorf("write room %s: %w", room.ID, errConflict)
}

// swap creates the record when rev is zero, updates it otherwise.
func (s *RoomStore) swap(ctx context.Context, roomID string, rec roomRecord, rev uint64) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if rev == 0 {
		_, err = s.bucket.Create(ctx, roomKey(roomID), value)
		return err
	}
	_, err = s.bucket.Update(ctx, roomKey(roomID), value, rev)
	return err
}

func (s *RoomStore) GetRoom(roomID string) (*domain.Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	rec, _, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	var room domain.Room
	if err = json.Unmarshal(rec.Room, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

// GetRoomProp reads one property of the document, addressed by a gjson
// path such as "settings.roomName" or "users.alice.points".
func (s *RoomStore) GetRoomProp(roomID, path string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	rec, _, err := s.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(rec.Room, path)
	if !res.Exists() {
		return nil, fmt.Errorf("%w: %s", errors.ErrPropNotFound, path)
	}
	return json.RawMessage(res.Raw), nil
}

func (s *RoomStore) RoomExists(roomID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	_, _, err := s.load(ctx, roomID)
	if stderrors.Is(err, errors.ErrRoomNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UpdateRoomFunction reads the room, applies fn and swaps it back at the
// revision it read. Nothing is written when fn fails or the room is gone.
func (s *RoomStore) UpdateRoomFunction(roomID string, fn func(room *domain.Room) error) (*domain.Room, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	if err = fn(room); err != nil {
		return nil, err
	}
	if err = s.write(room, true); err != nil {
		return nil, err
	}
	return room, nil
}

// ScheduleRoomForDeletion lets the room expire after the grace period.
func (s *RoomStore) ScheduleRoomForDeletion(roomID string) error {
	return s.rewriteDeadline(roomID, s.now().Add(s.grace).UnixNano())
}

// PersistRoom cancels a pending expiry.
func (s *RoomStore) PersistRoom(roomID string) error {
	return s.rewriteDeadline(roomID, 0)
}

func (s *RoomStore) rewriteDeadline(roomID string, expiresAt int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	for range maxConflictRetries {
		rec, rev, err := s.load(ctx, roomID)
		if err != nil {
			return err
		}
		rec.ExpiresAt = expiresAt
		if err = s.swap(ctx, roomID, rec, rev); !stderrors.Is(err, jetstream.ErrKeyExists) {
			return err
		}
	}
	return fmt.Errorf("rewrite expiry of room %s: %w", roomID, errConflict)
}

// DeleteRoom removes the document and its index entry.
func (s *RoomStore) DeleteRoom(roomID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	rec, _, err := readRecord(ctx, s.bucket, roomID, s.now())
	if stderrors.Is(err, errors.ErrRoomNotFound) && rec.Room == nil {
		return nil
	}
	if err != nil && !stderrors.Is(err, errors.ErrRoomNotFound) {
		return err
	}
	createdAt := gjson.GetBytes(rec.Room, "createdAt").Time()
	if err = s.bucket.Delete(ctx, indexKey(createdAt, roomID), 0); err != nil {
		return err
	}
	return s.bucket.Delete(ctx, roomKey(roomID), 0)
}

// ListRoomIDs returns every indexed room, oldest first. Entries may point
// to rooms that already expired.
func (s *RoomStore) ListRoomIDs() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	keys, err := s.bucket.Keys(ctx, "index.>")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, roomIDFromIndexKey(key))
	}
	return ids, nil
}

// GetRoomsPage lists rooms newest first. Index entries whose room is gone
// are pruned instead of being reported. Private rooms are skipped unless
// includePrivate is set. Pages start at 1.
func (s *RoomStore) GetRoomsPage(page, size int, includePrivate bool) (domain.RoomsPage, error) {
	page = max(page, 1)
	if size <= 0 {
		size = 20
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	keys, err := s.bucket.Keys(ctx, "index.>")
	if err != nil {
		return domain.RoomsPage{}, err
	}
	result := domain.RoomsPage{Rooms: []*domain.Room{}, Page: page, Size: size}
	skip := (page - 1) * size
	for i := len(keys) - 1; i >= 0; i-- {
		rec, _, err := s.load(ctx, roomIDFromIndexKey(keys[i]))
		if stderrors.Is(err, errors.ErrRoomNotFound) {
			s.pruneIndex(ctx, keys[i])
			continue
		}
		if err != nil {
			return domain.RoomsPage{}, err
		}
		if !includePrivate && domain.Visibility(gjson.GetBytes(rec.Room, "settings.access.visibility").String()) == domain.Private {
			continue
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
		if err = json.Unmarshal(rec.Room, &room); err != nil {
			return domain.RoomsPage{}, err
		}
		result.Rooms = append(result.Rooms, &room)
	}
	return result, nil
}

func (s *RoomStore) pruneIndex(ctx context.Context, key string) {
	if err := s.bucket.Delete(ctx, key, 0); err != nil {
		s.log.Warn("Failed to prune room index", "key", key, "error", err)
		return
	}
	s.log.Debug("Pruned missing room from index", "key", key)
}
