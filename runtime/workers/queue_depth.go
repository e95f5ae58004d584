package workers

import (
	"context"
	"cube-race/contract"
	"cube-race/observability"
	"log/slog"
	"time"
)

const (
	DefaultQueueDepthInterval = 10 * time.Second
	DefaultBacklogThreshold   = 100
)

// QueueDepthWorker periodically samples the queues of the rooms this node
// owns. Reading a queue length is a read-only scan, so it never slows
// down the processors.
type QueueDepthWorker struct {
	log        *slog.Logger
	queue      contract.QueueInspector
	processors contract.ProcessorRegistry
	metrics    *observability.Metrics
	interval   time.Duration
	backlog    int
}

func NewQueueDepthWorker(log *slog.Logger,
	queue contract.QueueInspector, processors contract.ProcessorRegistry,
	metrics *observability.Metrics, interval time.Duration, backlog int) *QueueDepthWorker {
	if interval <= 0 {
		interval = DefaultQueueDepthInterval
	}
	if backlog <= 0 {
		backlog = DefaultBacklogThreshold
	}
	return &QueueDepthWorker{
		log: log, queue: queue, processors: processors,
		metrics:  metrics,
		interval: interval,
		backlog:  backlog,
	}
}

func (w *QueueDepthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping queue depth sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample returns the total of queued commands, rooms failing to answer are
// left out.
func (w *QueueDepthWorker) Sample() int {
	total := 0
	for _, roomID := range w.processors.Owned() {
		n, err := w.queue.Len(roomID)
		if err != nil {
			w.log.Warn("Failed to read room queue length", "room_id", roomID, "error", err)
			continue
		}
		if n >= w.backlog {
			w.log.Warn("Room queue backlog", "room_id", roomID, "length", n)
		}
		total += n
	}
	w.metrics.QueuedCommands.Set(float64(total))
	return total
}
