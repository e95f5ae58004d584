package kvstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

func (s *RoomStore) SetClock(now func() time.Time)  { s.now = now }
func (q *EventQueue) SetClock(now func() time.Time) { q.now = now }
func (l *LeaseStore) SetClock(now func() time.Time) { l.now = now }

// MemoryBucket mimics a JetStream bucket in process, several stores built
// on one MemoryBucket behave like nodes sharing a NATS cluster.
type MemoryBucket struct {
	mu       sync.Mutex
	revision uint64
	entries  map[string]Entry
	watchers map[int]memoryWatch
	nextID   int
	purges   int
}

type memoryWatch struct {
	filter string
	wake   chan struct{}
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{entries: make(map[string]Entry), watchers: make(map[int]memoryWatch)}
}

func (b *MemoryBucket) Get(_ context.Context, key string) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	if !ok {
		return Entry{}, jetstream.ErrKeyNotFound
	}
	return Entry{Value: slices.Clone(e.Value), Revision: e.Revision}, nil
}

func (b *MemoryBucket) Put(_ context.Context, key string, value []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store(key, value), nil
}

func (b *MemoryBucket) Create(_ context.Context, key string, value []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	return b.store(key, value), nil
}

func (b *MemoryBucket) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[key]; !ok || e.Revision != revision {
		return 0, jetstream.ErrKeyExists
	}
	return b.store(key, value), nil
}

func (b *MemoryBucket) Delete(_ context.Context, key string, revision uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	if revision != 0 && (!ok || e.Revision != revision) {
		return jetstream.ErrKeyExists
	}
	delete(b.entries, key)
	return nil
}

func (b *MemoryBucket) Keys(_ context.Context, filter string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for key := range b.entries {
		if subjectMatches(filter, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (b *MemoryBucket) WatchPuts(_ context.Context, filter string) (<-chan struct{}, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	wake := make(chan struct{}, 1)
	b.watchers[id] = memoryWatch{filter: filter, wake: wake}
	return wake, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.watchers, id)
	}, nil
}

func (b *MemoryBucket) PurgeDeletes(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purges++
	return nil
}

func (b *MemoryBucket) Purges() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.purges
}

// Remove drops a key behind the stores' back.
func (b *MemoryBucket) Remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
}

func (b *MemoryBucket) store(key string, value []byte) uint64 {
	b.revision++
	b.entries[key] = Entry{Value: slices.Clone(value), Revision: b.revision}
	for _, w := range b.watchers {
		if subjectMatches(w.filter, key) {
			select {
			case w.wake <- struct{}{}:
			default:
			}
		}
	}
	return b.revision
}

// subjectMatches applies NATS wildcards: * is one token, > the rest.
func subjectMatches(filter, key string) bool {
	f := strings.Split(filter, ".")
	k := strings.Split(key, ".")
	for i, token := range f {
		if token == ">" {
			return len(k) > i
		}
		if i >= len(k) || (token != "*" && token != k[i]) {
			return false
		}
	}
	return len(f) == len(k)
}
