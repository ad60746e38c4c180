package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthContent(t *testing.T) {
	app := &cli.App{Health: observability.NewHealthRegistry()}
	app.Health.Register("edit_state", observability.PingChecker("redis", observability.HealthStatusDegraded, func(context.Context) error {
		return errors.New("connection refused")
	}))

	content, err := healthContent(context.Background(), "kinplan://health", app)

	require.NoError(t, err)
	var body struct {
		Status string `json:"status"`
		Checks []struct {
			Name string `json:"name"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(content.Text), &body))
	assert.Equal(t, "degraded", body.Status)
	require.Len(t, body.Checks, 1)
	assert.Equal(t, "edit_state", body.Checks[0].Name)
}

func TestHealthContent_NotConfigured(t *testing.T) {
	_, err := healthContent(context.Background(), "kinplan://health", &cli.App{})
	assert.Error(t, err)
}

func TestMetricsContent(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	metrics.Counter(observability.MetricRebalanceApplied, 3)
	app := &cli.App{}
	app.SetMetrics(metrics)

	content, err := metricsContent("kinplan://metrics", app)

	require.NoError(t, err)
	assert.Equal(t, "application/json", content.MimeType)
	var body struct {
		Metrics []observability.Sample `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(content.Text), &body))
	require.Len(t, body.Metrics, 1)
	assert.Equal(t, float64(3), body.Metrics[0].Value)
}

func TestMetricsContent_Empty(t *testing.T) {
	content, err := metricsContent("kinplan://metrics", nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"metrics": []}`, content.Text)
}
