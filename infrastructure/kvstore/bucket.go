// Package kvstore keeps rooms, command queues and leases in a NATS
// JetStream key-value bucket, so every node of a cluster reads and writes
// the same state.
package kvstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	DefaultBucket = "cube-race"

	// opTimeout bounds every bucket round trip of the stores.
	opTimeout = 5 * time.Second

	// markerAge is how long delete markers are kept before compaction.
	markerAge = 30 * time.Minute
)

// Entry is one value of the bucket with the revision it was written at.
type Entry struct {
	Value    []byte
	Revision uint64
}

// Bucket is the part of a key-value bucket the stores rely on.
//
// Get of a missing key fails with jetstream.ErrKeyNotFound. Create of an
// existing key, and Update or Delete with a revision that is no longer the
// latest, fail with jetstream.ErrKeyExists. A zero revision deletes
// unconditionally.
type Bucket interface {
	Get(ctx context.Context, key string) (Entry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, revision uint64) error
	// Keys lists the live keys matching a subject filter, sorted.
	Keys(ctx context.Context, filter string) ([]string, error)
	// WatchPuts signals every write made after the call to a key matching
	// filter, whichever node made it. Signals are coalesced.
	WatchPuts(ctx context.Context, filter string) (<-chan struct{}, func(), error)
}

var _ Bucket = (*JetStreamBucket)(nil)

// JetStreamBucket is a Bucket backed by a JetStream key-value store.
type JetStreamBucket struct {
	log  *slog.Logger
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// Open connects to NATS and creates the bucket when it does not exist yet.
// Only the latest revision of a key is kept.
func Open(ctx context.Context, log *slog.Logger, url, bucket string, replicas int) (*JetStreamBucket, error) {
	return connect(log, url, bucket, func(js jetstream.JetStream) (jetstream.KeyValue, error) {
		return js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "cube-race rooms, command queues and leases",
			History:     1,
			Storage:     jetstream.FileStorage,
			Replicas:    max(replicas, 1),
		})
	})
}

// Attach binds to a bucket the nodes created, leaving its configuration
// alone.
func Attach(ctx context.Context, log *slog.Logger, url, bucket string) (*JetStreamBucket, error) {
	return connect(log, url, bucket, func(js jetstream.JetStream) (jetstream.KeyValue, error) {
		return js.KeyValue(ctx, bucket)
	})
}

func connect(log *slog.Logger, url, bucket string, bind func(js jetstream.JetStream) (jetstream.KeyValue, error)) (*JetStreamBucket, error) {
	conn, err := nats.Connect(url, nats.Name("cube-race"), nats.RetryOnFailedConnect(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}
	kv, err := bind(js)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open key-value bucket %s: %w", bucket, err)
	}
	log.Info("Key-value bucket ready", "bucket", bucket, "url", url)
	return &JetStreamBucket{log: log, conn: conn, kv: kv}, nil
}

func (b *JetStreamBucket) Close() error {
	return b.conn.Drain()
}

func (b *JetStreamBucket) Get(ctx context.Context, key string) (Entry, error) {
	e, err := b.kv.Get(ctx, key)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Value: e.Value(), Revision: e.Revision()}, nil
}

func (b *JetStreamBucket) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	return b.kv.Put(ctx, key, value)
}

func (b *JetStreamBucket) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	return b.kv.Create(ctx, key, value)
}

func (b *JetStreamBucket) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	return b.kv.Update(ctx, key, value, revision)
}

func (b *JetStreamBucket) Delete(ctx context.Context, key string, revision uint64) error {
	if revision == 0 {
		return b.kv.Delete(ctx, key)
	}
	return b.kv.Delete(ctx, key, jetstream.LastRevision(revision))
}

func (b *JetStreamBucket) Keys(ctx context.Context, filter string) ([]string, error) {
	lister, err := b.kv.ListKeysFiltered(ctx, filter)
	if stderrors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, ctx.Err()
}

func (b *JetStreamBucket) WatchPuts(ctx context.Context, filter string) (<-chan struct{}, func(), error) {
	watcher, err := b.kv.Watch(ctx, filter, jetstream.UpdatesOnly(), jetstream.IgnoreDeletes(), jetstream.MetaOnly())
	if err != nil {
		return nil, nil, err
	}
	wake := make(chan struct{}, 1)
	go func() {
		// Updates is closed by Stop
		for e := range watcher.Updates() {
			if e == nil {
				continue
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}()
	return wake, func() { _ = watcher.Stop() }, nil
}

// PurgeDeletes drops the delete markers left by popped commands and
// removed rooms once they are old enough.
func (b *JetStreamBucket) PurgeDeletes(ctx context.Context) error {
	return b.kv.PurgeDeletes(ctx, jetstream.DeleteMarkersOlderThan(markerAge))
}

type markerPurger interface {
	PurgeDeletes(ctx context.Context) error
}

// Compactor periodically purges the bucket's delete markers. Every queued
// command leaves one behind.
type Compactor struct {
	log      *slog.Logger
	bucket   markerPurger
	interval time.Duration
}

func NewCompactor(log *slog.Logger, bucket markerPurger, interval time.Duration) *Compactor {
	if interval <= 0 {
		interval = markerAge
	}
	return &Compactor{log: log, bucket: bucket, interval: interval}
}

func (c *Compactor) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.bucket.PurgeDeletes(ctx); err != nil {
				c.log.Warn("Failed to purge delete markers", "error", err)
				continue
			}
			c.log.Debug("Delete markers purged")
		}
	}
}
