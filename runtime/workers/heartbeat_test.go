package workers

import (
	"context"
	"cube-race/mocks"
	"cube-race/observability"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHeartbeatWorker_PublishesProcessGauges(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockProcessorRegistry(ctrl)
	registry.EXPECT().Owned().Return([]string{"r1"}).MinTimes(1)
	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewHeartbeatWorker(slog.Default(), "node-a", metrics, registry, 20*time.Millisecond).Run(ctx) }()

	req.Eventually(func() bool {
		return testutil.ToFloat64(metrics.ProcessRSSBytes) > 0
	}, 2*time.Second, 20*time.Millisecond)
	cancel()
	req.ErrorIs(<-done, context.Canceled)
}
