// Package runtime decides which rooms this node processes.
// It holds connections to processors only, never room state.
package runtime

import (
	"context"
	"cube-race/contract"
	"cube-race/runtime/workers"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// RoomWorker keeps one processor per owned room, all run by a supervisor.
type RoomWorker struct {
	mu         sync.Mutex
	log        *slog.Logger
	nodeID     string
	supervisor contract.ISupervisor
	deps       workers.ProcessorDeps
	cfg        workers.ProcessorConfig
	ctx        context.Context
	cancel     context.CancelFunc
	processors map[string]*workers.RoomProcessor
	closed     bool
}

func NewRoomWorker(
	ctx context.Context,
	log *slog.Logger,
	nodeID string,
	supervisor contract.ISupervisor,
	deps workers.ProcessorDeps,
	cfg workers.ProcessorConfig,
) *RoomWorker {
	ctx, cancel := context.WithCancel(ctx)
	return &RoomWorker{
		log:        log,
		nodeID:     nodeID,
		supervisor: supervisor,
		deps:       deps,
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		processors: make(map[string]*workers.RoomProcessor),
	}
}

// StartRoomProcessor starts consuming the room's queue on this node. It is
// a no-op when a processor already runs here or the worker shut down.
func (w *RoomWorker) StartRoomProcessor(roomID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	if _, ok := w.processors[roomID]; ok {
		return false
	}
	var p *workers.RoomProcessor
	p = workers.NewRoomProcessor(w.log, roomID, w.nodeID, w.deps, w.cfg, func() { w.forget(roomID, p) })
	w.processors[roomID] = p
	w.supervisor.Start(w.ctx, p)
	w.log.Debug("Room processor scheduled", "room_id", roomID)
	return true
}

// StopRoomProcessor asks the room's processor to stop. It leaves once its
// current pop returns.
func (w *RoomWorker) StopRoomProcessor(roomID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.processors[roomID]; ok {
		p.Stop()
	}
}

// Owned lists the rooms with a processor on this node.
func (w *RoomWorker) Owned() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := lo.Keys(w.processors)
	slices.Sort(ids)
	return ids
}

func (w *RoomWorker) forget(roomID string, p *workers.RoomProcessor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processors[roomID] == p {
		delete(w.processors, roomID)
	}
}

// Shutdown stops every processor and waits for them. Processors blocked in
// a pop are interrupted when ctx expires first.
func (w *RoomWorker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	for _, p := range w.processors {
		p.Stop()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.supervisor.Wait()
		close(done)
	}()
	defer w.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.log.Warn("Shutdown deadline reached, interrupting room processors")
		w.cancel()
		<-done
		return ctx.Err()
	}
}
