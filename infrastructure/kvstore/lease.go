package kvstore

import (
	"context"
	"cube-race/contract"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

func leaseKey(roomID string) string {
	return "leases." + roomID
}

type lease struct {
	Owner     string `json:"owner"`
	ExpiresAt int64  `json:"expiresAt"`
}

var _ contract.LeaseStore = (*LeaseStore)(nil)

// LeaseStore hands out per-room ownership tokens shared by every node. A
// lease holds its owner and a deadline; taking or renewing it is a
// compare-and-swap, so two nodes never both win. Deadlines use the clock
// of the writing node.
type LeaseStore struct {
	bucket Bucket
	now    func() time.Time
}

func NewLeaseStore(bucket Bucket) *LeaseStore {
	return &LeaseStore{bucket: bucket, now: time.Now}
}

// AcquireLease takes the lease when it is free or expired and renews it
// when owner already holds it. It reports false when another node holds a
// live lease or wins the race for it.
func (l *LeaseStore) AcquireLease(roomID, owner string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	now := l.now()
	value, err := json.Marshal(lease{Owner: owner, ExpiresAt: now.Add(ttl).UnixNano()})
	if err != nil {
		return false, err
	}
	e, err := l.bucket.Get(ctx, leaseKey(roomID))
	switch {
	case stderrors.Is(err, jetstream.ErrKeyNotFound):
		_, err = l.bucket.Create(ctx, leaseKey(roomID), value)
	case err != nil:
		return false, err
	default:
		var current lease
		if err = json.Unmarshal(e.Value, &current); err != nil {
			return false, err
		}
		if current.Owner != owner && now.UnixNano() < current.ExpiresAt {
			return false, nil
		}
		_, err = l.bucket.Update(ctx, leaseKey(roomID), value, e.Revision)
	}
	if stderrors.Is(err, jetstream.ErrKeyExists) {
		return false, nil
	}
	return err == nil, err
}

// ReleaseLease frees the lease if owner holds it.
func (l *LeaseStore) ReleaseLease(roomID, owner string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	e, err := l.bucket.Get(ctx, leaseKey(roomID))
	if stderrors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var current lease
	if err = json.Unmarshal(e.Value, &current); err != nil {
		return err
	}
	if current.Owner != owner {
		return nil
	}
	err = l.bucket.Delete(ctx, leaseKey(roomID), e.Revision)
	if stderrors.Is(err, jetstream.ErrKeyExists) {
		return nil
	}
	return err
}

// LeaseOwner returns the node holding a live lease on the room, if any.
func (l *LeaseStore) LeaseOwner(roomID string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	e, err := l.bucket.Get(ctx, leaseKey(roomID))
	if stderrors.Is(err, jetstream.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var current lease
	if err = json.Unmarshal(e.Value, &current); err != nil {
		return "", false, err
	}
	if l.now().UnixNano() >= current.ExpiresAt {
		return "", false, nil
	}
	return current.Owner, true, nil
}
