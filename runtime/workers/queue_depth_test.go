package workers

import (
	"context"
	"cube-race/mocks"
	"cube-race/observability"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestQueueDepthWorker_Sample(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProcessorRegistry(ctrl)
	queue := mocks.NewMockQueueInspector(ctrl)
	metrics := observability.NewMetrics()

	// Given three owned rooms, one of them unreadable
	registry.EXPECT().Owned().Return([]string{"r1", "r2", "r3"})
	queue.EXPECT().Len("r1").Return(3, nil)
	queue.EXPECT().Len("r2").Return(0, errors.New("badger closed"))
	queue.EXPECT().Len("r3").Return(150, nil)

	// When the queues are sampled
	total := NewQueueDepthWorker(slog.Default(), queue, registry, metrics, time.Second, 0).Sample()

	// Then the readable queues are summed
	req.Equal(153, total)
	req.Equal(153.0, testutil.ToFloat64(metrics.QueuedCommands))
}

func TestQueueDepthWorker_RunStopsWithContext(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProcessorRegistry(ctrl)
	registry.EXPECT().Owned().Return(nil).AnyTimes()
	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewQueueDepthWorker(slog.Default(), mocks.NewMockQueueInspector(ctrl), registry, metrics, 10*time.Millisecond, 0).Run(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	req.NoError(<-done)
}
