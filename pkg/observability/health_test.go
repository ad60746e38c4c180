package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_Check(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("sessions", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return nil }))
	r.Register("edit_state", PingChecker("redis", HealthStatusDegraded, func(context.Context) error {
		return errors.New("connection refused")
	}))

	results := r.Check(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, "edit_state", results[0].Name)
	assert.Equal(t, HealthStatusDegraded, results[0].Status)
	assert.Contains(t, results[0].Message, "connection refused")
	assert.Equal(t, "sessions", results[1].Name)
	assert.Equal(t, HealthStatusHealthy, results[1].Status)
	assert.Equal(t, HealthStatusDegraded, OverallStatus(results))
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, HealthStatusHealthy, OverallStatus(nil))
	assert.Equal(t, HealthStatusUnhealthy, OverallStatus([]HealthCheckResult{
		{Status: HealthStatusDegraded},
		{Status: HealthStatusUnhealthy},
	}))
}
