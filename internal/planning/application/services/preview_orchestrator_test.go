package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticPlanner(moves []domain.Move, err error) Planner {
	return PlannerFunc(func(ctx context.Context, req PreviewRequest) ([]domain.Move, error) {
		return moves, err
	})
}

func TestPreviewOrchestrator_Normalizes(t *testing.T) {
	anchor, a, b := uuid.New(), uuid.New(), uuid.New()
	planner := staticPlanner([]domain.Move{
		{SessionID: a, ProposedStart: at(1, 9, 0), Reason: "  keep spacing  "},
		{SessionID: anchor, ProposedStart: at(0, 9, 0)},
		{SessionID: b, ProposedStart: at(2, 9, 0)},
		{SessionID: a, ProposedStart: at(5, 9, 0)},
	}, nil)
	metrics := observability.NewInMemoryMetrics()
	orch := NewPreviewOrchestrator(planner, nil, metrics)

	result, err := orch.Preview(context.Background(), PreviewRequest{AnchorSessionID: anchor, NewAnchorStart: at(0, 10, 0)})

	require.NoError(t, err)
	require.False(t, result.Empty())
	require.Len(t, result.Moves, 2)
	assert.Equal(t, a, result.Moves[0].SessionID)
	assert.Equal(t, at(1, 9, 0), result.Moves[0].ProposedStart)
	assert.Equal(t, "keep spacing", result.Moves[0].Reason)
	assert.Equal(t, b, result.Moves[1].SessionID)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricRebalancePreviews))
}

func TestPreviewOrchestrator_EmptyIsNotFailure(t *testing.T) {
	anchor := uuid.New()
	orch := NewPreviewOrchestrator(staticPlanner([]domain.Move{
		{SessionID: anchor, ProposedStart: at(0, 9, 0)},
	}, nil), nil, nil)

	result, err := orch.Preview(context.Background(), PreviewRequest{AnchorSessionID: anchor})

	require.NoError(t, err)
	assert.True(t, result.Empty())

	result, err = NewPreviewOrchestrator(staticPlanner(nil, nil), nil, nil).Preview(context.Background(), PreviewRequest{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestPreviewOrchestrator_PlannerFailure(t *testing.T) {
	cause := errors.New("connection reset")
	orch := NewPreviewOrchestrator(staticPlanner(nil, cause), nil, nil)

	result, err := orch.Preview(context.Background(), PreviewRequest{AnchorSessionID: uuid.New()})

	require.Error(t, err)
	assert.Nil(t, result)
	var pf *domain.PreviewFailedError
	require.ErrorAs(t, err, &pf)
	assert.ErrorIs(t, err, cause)
}

func TestPreviewOrchestrator_PlannerFailureNotDoubleWrapped(t *testing.T) {
	inner := &domain.PreviewFailedError{Err: errors.New("bad json")}
	orch := NewPreviewOrchestrator(staticPlanner(nil, inner), nil, nil)

	_, err := orch.Preview(context.Background(), PreviewRequest{})

	assert.Same(t, inner, err)
}

func TestPreviewOrchestrator_InvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		move domain.Move
	}{
		{"missing session", domain.Move{ProposedStart: at(1, 9, 0)}},
		{"missing start", domain.Move{SessionID: uuid.New()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := NewPreviewOrchestrator(staticPlanner([]domain.Move{
				{SessionID: uuid.New(), ProposedStart: at(1, 9, 0)},
				tt.move,
			}, nil), nil, nil)

			_, err := orch.Preview(context.Background(), PreviewRequest{AnchorSessionID: uuid.New()})

			var pf *domain.PreviewFailedError
			require.ErrorAs(t, err, &pf)
			assert.ErrorIs(t, err, errInvalidMove)
		})
	}
}

func TestPreviewOrchestrator_PassesRequest(t *testing.T) {
	var got PreviewRequest
	planner := PlannerFunc(func(ctx context.Context, req PreviewRequest) ([]domain.Move, error) {
		got = req
		return nil, nil
	})
	req := PreviewRequest{PlanID: uuid.New(), AnchorSessionID: uuid.New(), NewAnchorStart: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	_, err := NewPreviewOrchestrator(planner, nil, nil).Preview(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, req, got)
}
