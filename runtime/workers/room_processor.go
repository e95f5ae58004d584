package workers

import (
	"context"
	"cube-race/contract"
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/errors"
	"cube-race/observability"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPopTimeout = 30 * time.Second
	DefaultLeaseTTL   = 90 * time.Second

	// storeRetryDelay spaces out polls while the store keeps failing.
	storeRetryDelay = 500 * time.Millisecond
)

// ProcessorDeps are the collaborators shared by every processor of a node.
type ProcessorDeps struct {
	Store       contract.RoomStore
	Queue       contract.EventQueue
	Leases      contract.LeaseStore
	Handler     contract.CommandHandler
	Broadcaster contract.Broadcaster
	Metrics     *observability.Metrics
	Tracer      trace.Tracer
}

var _ contract.Retirable = (*RoomProcessor)(nil)

type ProcessorConfig struct {
	PopTimeout time.Duration
	LeaseTTL   time.Duration
}

// RoomProcessor is the only consumer of one room's queue and the only
// writer of its document while it holds the room lease. Commands are
// handled one at a time, in queue order.
type RoomProcessor struct {
	log     *slog.Logger
	roomID  string
	nodeID  string
	deps    ProcessorDeps
	cfg     ProcessorConfig
	stopped atomic.Bool
	onExit  func()
}

func NewRoomProcessor(log *slog.Logger, roomID, nodeID string, deps ProcessorDeps, cfg ProcessorConfig, onExit func()) *RoomProcessor {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = DefaultPopTimeout
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if onExit == nil {
		onExit = func() {}
	}
	return &RoomProcessor{
		log:    log.With("room_id", roomID, "node_id", nodeID),
		roomID: roomID,
		nodeID: nodeID,
		deps:   deps,
		cfg:    cfg,
		onExit: onExit,
	}
}

func (p *RoomProcessor) RoomID() string {
	return p.roomID
}

// Stop asks the loop to end after the current pop returns.
func (p *RoomProcessor) Stop() {
	p.stopped.Store(true)
}

// Run returns nil when the processor is done for good: stopped, room
// deleted, or lease lost. Any other error lets the supervisor restart it.
func (p *RoomProcessor) Run(ctx context.Context) error {
	acquired, err := p.deps.Leases.AcquireLease(p.roomID, p.nodeID, p.cfg.LeaseTTL)
	if err != nil {
		return fmt.Errorf("acquire lease of room %s: %w", p.roomID, err)
	}
	if !acquired {
		p.log.Info("Room is owned by another node")
		p.onExit()
		return nil
	}
	p.log.Info("Room processor started")
	p.deps.Metrics.ActiveProcessors.Inc()
	defer p.deps.Metrics.ActiveProcessors.Dec()

	for !p.stopped.Load() {
		cmd, err := p.deps.Queue.PopRoomEvent(ctx, p.roomID, p.cfg.PopTimeout)
		if ctx.Err() != nil {
			p.release()
			return ctx.Err()
		}
		switch {
		case err != nil:
			p.log.Warn("Failed to pop room command", "error", err)
			p.pause(ctx)
		case cmd == nil:
			p.deps.Metrics.QueuePopTimeouts.Inc()
		default:
			p.process(ctx, *cmd)
		}

		done, err := p.checkStillOwned()
		if err != nil {
			p.log.Warn("Failed to check room ownership", "error", err)
			continue
		}
		if done {
			p.onExit()
			return nil
		}
	}
	p.log.Info("Room processor stopped")
	p.release()
	p.onExit()
	return nil
}

// checkStillOwned reports whether the loop must end: the room is gone, or
// another node took the lease.
func (p *RoomProcessor) checkStillOwned() (bool, error) {
	exists, err := p.deps.Store.RoomExists(p.roomID)
	if err != nil {
		return false, err
	}
	if !exists {
		p.log.Info("Room no longer exists, stopping processor")
		if err = p.deps.Queue.PurgeRoomEvents(p.roomID); err != nil {
			p.log.Warn("Failed to purge room queue", "error", err)
		}
		p.release()
		return true, nil
	}
	owned, err := p.deps.Leases.AcquireLease(p.roomID, p.nodeID, p.cfg.LeaseTTL)
	if err != nil {
		return false, err
	}
	if !owned {
		p.log.Warn("Room lease lost, stopping processor")
		return true, nil
	}
	return false, nil
}

// ShouldRestart is asked after Run failed. A processor whose room was
// deleted meanwhile is retired: its queue is purged and its node forgets it.
func (p *RoomProcessor) ShouldRestart() bool {
	exists, err := p.deps.Store.RoomExists(p.roomID)
	if err != nil || exists {
		return true
	}
	p.log.Info("Room deleted while processor was failing, retiring it")
	if err = p.deps.Queue.PurgeRoomEvents(p.roomID); err != nil {
		p.log.Warn("Failed to purge room queue", "error", err)
	}
	p.release()
	p.onExit()
	return false
}

func (p *RoomProcessor) release() {
	if err := p.deps.Leases.ReleaseLease(p.roomID, p.nodeID); err != nil {
		p.log.Warn("Failed to release room lease", "error", err)
	}
}

func (p *RoomProcessor) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(storeRetryDelay):
	}
}

// process handles one command. A failing command is logged and dropped:
// the queue is at-most-once.
func (p *RoomProcessor) process(ctx context.Context, cmd domain.QueuedCommand) {
	ctx, span := p.deps.Tracer.Start(ctx, "RoomProcessor.process", trace.WithAttributes(
		attribute.String("room_id", cmd.RoomID),
		attribute.String("user_id", cmd.UserID),
		attribute.String("command", string(cmd.Event)),
	))
	defer span.End()

	start := time.Now()
	err := p.handle(ctx, cmd)
	status := observability.StatusOK
	switch {
	case stderrors.Is(err, errors.ErrWorkerPanic):
		status = observability.StatusPanic
		p.log.Error("Command handler panicked", "user_id", cmd.UserID, "command", cmd.Event, "error", err)
	case err != nil:
		status = observability.StatusRejected
		p.log.Warn("Dropping command", "user_id", cmd.UserID, "command", cmd.Event, "error", err)
	default:
		p.log.Debug("Command handled", "user_id", cmd.UserID, "command", cmd.Event)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.deps.Metrics.ObserveCommand(cmd.Event, status, time.Since(start))

	if cmd.CorrelationID != "" {
		p.acknowledge(ctx, cmd, err)
	}
}

func (p *RoomProcessor) handle(ctx context.Context, cmd domain.QueuedCommand) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return p.deps.Handler.Handle(ctx, cmd)
}

// acknowledge answers the sender, and only the sender, with the outcome.
func (p *RoomProcessor) acknowledge(ctx context.Context, cmd domain.QueuedCommand, handleErr error) {
	payload := event.CommandResultPayload{OK: handleErr == nil}
	if handleErr != nil {
		payload.Error = handleErr.Error()
	}
	e, err := event.New(cmd.RoomID, event.CommandResult, payload)
	if err != nil {
		p.log.Error("Failed to build command result", "error", err)
		return
	}
	e = e.To(cmd.UserID)
	e.CorrelationID = cmd.CorrelationID
	if err = p.deps.Broadcaster.Broadcast(ctx, e); err != nil {
		p.log.Warn("Failed to send command result", "user_id", cmd.UserID, "error", err)
	}
}
