package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(ctx context.Context) *Result {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Unhealthy("timed out").WithDetail("error", ctx.Err().Error())
		}
	}
	return s.result
}

func TestManagerKeepsRegistrationOrder(t *testing.T) {
	m := NewManager()
	m.AddChecker(&stubChecker{name: "config", result: Healthy("ok"), delay: 20 * time.Millisecond})
	m.AddChecker(&stubChecker{name: "backend", result: Degraded("slow")})
	m.AddChecker(&stubChecker{name: "session", result: Healthy("signed in")})
	require.Equal(t, 3, m.Count())

	reports := m.Check(context.Background())
	require.Len(t, reports, 3)
	assert.Equal(t, "config", reports[0].Name)
	assert.Equal(t, "backend", reports[1].Name)
	assert.Equal(t, "session", reports[2].Name)
	assert.Positive(t, reports[0].Latency)
	assert.Equal(t, StatusDegraded, OverallStatus(reports))
}

func TestManagerTimeout(t *testing.T) {
	m := NewManager().WithTimeout(10 * time.Millisecond)
	m.AddChecker(&stubChecker{name: "backend", result: Healthy("ok"), delay: time.Second})

	reports := m.Check(context.Background())
	require.Len(t, reports, 1)
	assert.Equal(t, StatusUnhealthy, reports[0].Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), reports[0].Details["error"])
}

func TestManagerNilResult(t *testing.T) {
	m := NewManager()
	m.AddChecker(&stubChecker{name: "broken"})

	reports := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, reports[0].Status)
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, StatusHealthy, OverallStatus(nil))
	assert.Equal(t, StatusHealthy, OverallStatus([]Report{{Name: "a", Result: Healthy("")}}))
	assert.Equal(t, StatusUnhealthy, OverallStatus([]Report{
		{Name: "a", Result: Degraded("")},
		{Name: "b", Result: Unhealthy("")},
	}))
}
