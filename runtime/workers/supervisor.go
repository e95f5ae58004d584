package workers

import (
	"context"
	"cube-race/contract"
	"cube-race/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRestartInterval = 200 * time.Millisecond

	// maxRestartInterval caps the backoff of a worker that keeps crashing.
	maxRestartInterval = 10 * time.Second
	// stableRun is how long a run must last for the backoff to start over.
	stableRun = 30 * time.Second
)

// Supervisor runs workers in their own goroutines. A worker that panics or
// returns an error is restarted with a doubling delay, unless it reports
// through contract.Retirable that nothing is left for it to do. A worker
// returning nil is done for good.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = DefaultRestartInterval
	}
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// Run starts every added worker under a context derived from ctx and blocks
// until all of them returned. Stop cancels only this supervisor's workers.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start supervises one worker, also after Run was called. Room processors
// are started this way as rooms get claimed.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	log := s.log.With("name", contract.GetWorkerName(worker))
	if p, ok := worker.(interface{ RoomID() string }); ok {
		log = log.With("room_id", p.RoomID())
	}

	go func() {
		defer s.wg.Done()
		delay := s.restartInterval
		for ctx.Err() == nil {
			started := time.Now()
			err := runGuarded(ctx, worker)
			if err == nil {
				log.Info("Worker finished")
				return
			}
			if ctx.Err() != nil {
				break
			}
			if r, ok := worker.(contract.Retirable); ok && !r.ShouldRestart() {
				log.Info("Worker crashed with nothing left to do, not restarting", "error", err)
				return
			}
			if time.Since(started) >= stableRun {
				delay = s.restartInterval
			}
			log.Warn("Worker crashed, restarting", "error", err, "delay", delay)
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRestartInterval)
		}
		log.Info("Worker stopped (context canceled)")
	}()
}

func runGuarded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels the workers started by Run.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}

// Wait blocks until every started worker returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
