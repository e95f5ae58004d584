package observability

import (
	"cube-race/domain"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveCommand(t *testing.T) {
	req := require.New(t)
	m := NewMetrics()

	m.ObserveCommand(domain.SubmitResult, StatusOK, 3*time.Millisecond)
	m.ObserveCommand(domain.SubmitResult, StatusOK, time.Millisecond)
	m.ObserveCommand(domain.StartRoom, StatusRejected, time.Millisecond)

	req.Equal(float64(2), testutil.ToFloat64(m.CommandsTotal.WithLabelValues("SUBMIT_RESULT", StatusOK)))
	req.Equal(float64(1), testutil.ToFloat64(m.CommandsTotal.WithLabelValues("START_ROOM", StatusRejected)))
	req.Equal(2, testutil.CollectAndCount(m.CommandDuration))
}

func TestMetrics_Handler(t *testing.T) {
	req := require.New(t)
	m := NewMetrics()
	m.ActiveProcessors.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	req.Equal(200, rec.Code)
	req.Contains(rec.Body.String(), "cube_race_active_processors 1")
}
