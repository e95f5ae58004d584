package runtime

import (
	"context"
	"cube-race/contract"
	"log/slog"
	"time"
)

const DefaultScanInterval = 15 * time.Second

// OwnershipWatcher takes over rooms nobody processes: rooms whose owner
// crashed let their lease expire, and the next scan on any node claims them.
type OwnershipWatcher struct {
	log        *slog.Logger
	store      contract.RoomStore
	leases     contract.LeaseStore
	processors contract.ProcessorRegistry
	interval   time.Duration
}

func NewOwnershipWatcher(
	log *slog.Logger,
	store contract.RoomStore,
	leases contract.LeaseStore,
	processors contract.ProcessorRegistry,
	interval time.Duration,
) *OwnershipWatcher {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &OwnershipWatcher{log: log, store: store, leases: leases, processors: processors, interval: interval}
}

// Run scans once right away, which also resumes rooms after a restart.
func (w *OwnershipWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.Scan(); err != nil {
			w.log.Warn("Ownership scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Scan starts a processor for every existing room without a live lease and
// returns how many were started.
func (w *OwnershipWatcher) Scan() (int, error) {
	ids, err := w.store.ListRoomIDs()
	if err != nil {
		return 0, err
	}
	started := 0
	for _, id := range ids {
		exists, err := w.store.RoomExists(id)
		if err != nil {
			return started, err
		}
		if !exists {
			continue
		}
		if _, held, err := w.leases.LeaseOwner(id); err != nil || held {
			if err != nil {
				w.log.Warn("Failed to read room lease", "room_id", id, "error", err)
			}
			continue
		}
		if w.processors.StartRoomProcessor(id) {
			w.log.Info("Taking over unowned room", "room_id", id)
			started++
		}
	}
	return started, nil
}
