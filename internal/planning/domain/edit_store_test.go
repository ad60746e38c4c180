package domain_test

import (
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveEditStore_DefaultIsProposed(t *testing.T) {
	store := domain.NewMoveEditStore()
	move := domain.Move{SessionID: uuid.New(), ProposedStart: time.Now()}

	assert.Equal(t, domain.UseProposed(), store.Resolve(move))
}

func TestMoveEditStore_OverrideClearsSkip(t *testing.T) {
	store := domain.NewMoveEditStore()
	id := uuid.New()
	date := domain.NewCalendarDate(2024, time.January, 10)
	clock := domain.ClockTime{Hour: 14}

	assert.True(t, store.ToggleSkip(id))
	store.SetOverride(id, date, clock)

	assert.False(t, store.IsSkipped(id))
	o, ok := store.Override(id)
	require.True(t, ok)
	assert.Equal(t, date, o.Date)

	d := store.Resolve(domain.Move{SessionID: id})
	assert.Equal(t, domain.DecisionUseOverride, d.Kind)
	require.NotNil(t, d.Override)
	assert.Equal(t, clock, d.Override.Time)
}

func TestMoveEditStore_SkipClearsOverride(t *testing.T) {
	store := domain.NewMoveEditStore()
	id := uuid.New()

	store.SetOverride(id, domain.NewCalendarDate(2024, time.January, 10), domain.ClockTime{Hour: 9})
	assert.True(t, store.ToggleSkip(id))

	_, ok := store.Override(id)
	assert.False(t, ok)
	assert.True(t, store.Resolve(domain.Move{SessionID: id}).IsSkip())

	// Toggling again returns to the proposed time, not the old override.
	assert.False(t, store.ToggleSkip(id))
	assert.Equal(t, domain.UseProposed(), store.Resolve(domain.Move{SessionID: id}))
}

func TestMoveEditStore_SkipIsNotAToggle(t *testing.T) {
	store := domain.NewMoveEditStore()
	id := uuid.New()
	store.SetOverride(id, domain.NewCalendarDate(2024, time.January, 10), domain.ClockTime{Hour: 9})

	store.Skip(id)
	store.Skip(id)

	assert.True(t, store.IsSkipped(id))
	_, ok := store.Override(id)
	assert.False(t, ok)
}

func TestMoveEditStore_ClearOverrideKeepsSkip(t *testing.T) {
	store := domain.NewMoveEditStore()
	id := uuid.New()
	store.ToggleSkip(id)

	store.ClearOverride(id)

	assert.True(t, store.IsSkipped(id))
}

func TestMoveEditStore_ResolveDoesNotMutateMoves(t *testing.T) {
	store := domain.NewMoveEditStore()
	proposed := time.Date(2024, time.January, 9, 9, 0, 0, 0, time.UTC)
	moves := []domain.Move{{SessionID: uuid.New(), ProposedStart: proposed}}
	store.SetOverride(moves[0].SessionID, domain.NewCalendarDate(2024, time.January, 12), domain.ClockTime{Hour: 11})

	decisions := store.Decisions(moves)

	assert.Equal(t, proposed, moves[0].ProposedStart)
	assert.Equal(t,
		time.Date(2024, time.January, 12, 11, 0, 0, 0, time.UTC),
		decisions[moves[0].SessionID].TargetStart(moves[0], time.UTC),
	)
}

func TestMoveEditStore_SnapshotRestore(t *testing.T) {
	store := domain.NewMoveEditStore()
	overridden, skipped := uuid.New(), uuid.New()
	store.SetOverride(overridden, domain.NewCalendarDate(2024, time.January, 12), domain.ClockTime{Hour: 11})
	store.ToggleSkip(skipped)

	restored := domain.NewMoveEditStore()
	restored.Restore(store.Snapshot())

	assert.True(t, restored.IsSkipped(skipped))
	_, ok := restored.Override(overridden)
	assert.True(t, ok)

	restored.Reset()
	assert.Empty(t, restored.Snapshot().Overrides)
	assert.Empty(t, restored.Snapshot().Skips)
}

func TestMoveEditStore_ConcurrentAccess(t *testing.T) {
	store := domain.NewMoveEditStore()
	ids := make([]uuid.UUID, 50)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id uuid.UUID) {
			defer wg.Done()
			store.SetOverride(id, domain.NewCalendarDate(2024, time.January, 1), domain.ClockTime{Hour: 8})
		}(id)
		go func(id uuid.UUID) {
			defer wg.Done()
			_ = store.Resolve(domain.Move{SessionID: id})
		}(id)
	}
	wg.Wait()

	assert.Len(t, store.Snapshot().Overrides, len(ids))
}
