package main

import (
	"context"
	"cube-race/contract"
	"cube-race/infrastructure/kvstore"
	"cube-race/infrastructure/storage"
	"cube-race/internal"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type inspectableQueue interface {
	contract.EventQueue
	contract.QueueInspector
}

// backend holds rooms, queues and leases, and the jobs keeping it tidy.
type backend struct {
	store  contract.RoomStore
	queue  inspectableQueue
	leases contract.LeaseStore
	jobs   []contract.Worker
	close  func()
}

func openBackend(ctx context.Context, log *slog.Logger, config internal.Config) (*backend, error) {
	if config.Store == "nats" {
		return openShared(ctx, log, config)
	}
	return openLocal(log, config)
}

// openLocal keeps everything in an embedded Badger database. Rooms of a
// local store are only reachable through this node.
func openLocal(log *slog.Logger, config internal.Config) (*backend, error) {
	opts := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING)
	if config.BadgerInMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	queue, err := storage.NewEventQueue(db, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("event queue failed: %w", err)
	}
	log.Info("Rooms stored in BadgerDB", "path", config.BadgerFilepath, "in_memory", config.BadgerInMemory)
	return &backend{
		store:  storage.NewRoomStore(db, log, config.DeletionGrace),
		queue:  queue,
		leases: storage.NewLeaseStore(db),
		close: func() {
			log.Info("Closing BadgerDB...")
			_ = queue.Close()
			_ = db.Close()
		},
	}, nil
}

// openShared keeps everything in a JetStream bucket, so any node can take
// over a room when its owner goes away.
func openShared(ctx context.Context, log *slog.Logger, config internal.Config) (*backend, error) {
	bucket, err := kvstore.Open(ctx, log, config.NatsURL, config.KVBucket, config.KVReplicas)
	if err != nil {
		return nil, err
	}
	return &backend{
		store:  kvstore.NewRoomStore(bucket, log, config.DeletionGrace),
		queue:  kvstore.NewEventQueue(bucket, log),
		leases: kvstore.NewLeaseStore(bucket),
		jobs:   []contract.Worker{kvstore.NewCompactor(log, bucket, config.CompactInterval)},
		close: func() {
			log.Info("Draining key-value bucket connection...")
			_ = bucket.Close()
		},
	}, nil
}
