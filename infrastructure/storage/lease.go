package storage

import (
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const leasePrefix = "lease:"

func leaseKey(roomID string) []byte {
	return []byte(leasePrefix + roomID)
}

// LeaseStore hands out per-room ownership tokens. A lease is a key whose
// value is the owning node and whose Badger TTL is the lease duration; a
// node that stops renewing loses the room when the key expires.
type LeaseStore struct {
	db *badger.DB
}

func NewLeaseStore(db *badger.DB) *LeaseStore {
	return &LeaseStore{db: db}
}

// AcquireLease takes the lease when it is free and renews it when owner
// already holds it. It reports false when another node holds a live lease.
func (l *LeaseStore) AcquireLease(roomID, owner string, ttl time.Duration) (bool, error) {
	acquired := false
	err := retryOnConflict(func() error {
		acquired = false
		return l.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(leaseKey(roomID))
			switch {
			case stderrors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				current, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if string(current) != owner {
					return nil
				}
			}
			acquired = true
			return txn.SetEntry(badger.NewEntry(leaseKey(roomID), []byte(owner)).WithTTL(ttl))
		})
	})
	return acquired, err
}

// ReleaseLease frees the lease if owner holds it.
func (l *LeaseStore) ReleaseLease(roomID, owner string) error {
	return retryOnConflict(func() error {
		return l.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(leaseKey(roomID))
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			current, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if string(current) != owner {
				return nil
			}
			return txn.Delete(leaseKey(roomID))
		})
	})
}

// LeaseOwner returns the node holding the room, if any.
func (l *LeaseStore) LeaseOwner(roomID string) (string, bool, error) {
	var owner string
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(leaseKey(roomID))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		owner = string(v)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return owner, true, nil
}
