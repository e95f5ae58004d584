package workers

import (
	"context"
	"cube-race/contract"
	"cube-race/observability"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

const DefaultHeartbeatInterval = 5 * time.Second

// HeartbeatWorker samples the node's own process and publishes it as
// gauges, along with a periodic log line naming the rooms it owns.
type HeartbeatWorker struct {
	log        *slog.Logger
	nodeID     string
	metrics    *observability.Metrics
	processors contract.ProcessorRegistry
	interval   time.Duration
}

func NewHeartbeatWorker(
	log *slog.Logger,
	nodeID string,
	metrics *observability.Metrics,
	processors contract.ProcessorRegistry,
	interval time.Duration,
) *HeartbeatWorker {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &HeartbeatWorker{
		log:        log,
		nodeID:     nodeID,
		metrics:    metrics,
		processors: processors,
		interval:   interval,
	}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting node heartbeat worker", "node_id", w.nodeID)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	rss, cpu, status, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "err", err)
		return
	}
	w.metrics.ProcessRSSBytes.Set(float64(rss))
	w.metrics.ProcessCPUPercent.Set(cpu)
	w.log.Debug("Node heartbeat",
		"node_id", w.nodeID,
		"pid_status", status,
		"rss_bytes", rss,
		"cpu_percent", cpu,
		"rooms", w.processors.Owned(),
	)
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
