package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/persistence/memory"
)

func sampleInstance(id string, active bool) domain.LiveActivityInstance {
	status := "running"
	progress := 0.5
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return domain.LiveActivityInstance{
		ID: id,
		Config: domain.ActivityConfig{
			ID:    id,
			Type:  domain.TypeWorkout,
			Title: "Morning run",
			Content: domain.ActivityContent{
				Status:     &status,
				Progress:   &progress,
				CustomData: map[string]any{"distanceKm": 3.2},
			},
			Actions:  []domain.ActivityAction{{ID: "pause", Title: "Pause"}},
			Priority: domain.PriorityHigh,
		},
		IsActive:         active,
		CreatedAt:        now,
		UpdatedAt:        now,
		NativeActivityID: "native-" + id,
	}
}

func TestSaveAndFindByID(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	stored := sampleInstance("w1", true)
	require.NoError(t, repo.Save(ctx, stored))

	found, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, stored, *found)
}

func TestFindByIDUnknownReturnsNilWithoutError(t *testing.T) {
	repo := memory.NewRepository()
	found, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSaveIsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	require.NoError(t, repo.Save(ctx, sampleInstance("w1", true)))

	replacement := sampleInstance("w1", false)
	replacement.NativeActivityID = "native-new"
	require.NoError(t, repo.Save(ctx, replacement))

	found, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "native-new", found.NativeActivityID)
	assert.False(t, found.IsActive)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	require.NoError(t, repo.Save(ctx, sampleInstance("w1", true)))

	found, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	*found.Config.Content.Status = "tampered"
	found.Config.Actions[0].Title = "Tampered"
	found.Config.Content.CustomData["distanceKm"] = -1.0

	fresh, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "running", *fresh.Config.Content.Status)
	assert.Equal(t, "Pause", fresh.Config.Actions[0].Title)
	assert.Equal(t, 3.2, fresh.Config.Content.CustomData["distanceKm"])
}

func TestFindAllActiveFiltersInactive(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	require.NoError(t, repo.Save(ctx, sampleInstance("a", true)))
	require.NoError(t, repo.Save(ctx, sampleInstance("b", false)))
	require.NoError(t, repo.Save(ctx, sampleInstance("c", true)))

	active, err := repo.FindAllActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	ids := map[string]bool{}
	for _, instance := range active {
		ids[instance.ID] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["c"])
}

func TestUpdateUnknownReturnsNotFound(t *testing.T) {
	repo := memory.NewRepository()
	err := repo.Update(context.Background(), sampleInstance("ghost", true))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateReplacesExisting(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	require.NoError(t, repo.Save(ctx, sampleInstance("w1", true)))

	updated := sampleInstance("w1", false)
	require.NoError(t, repo.Update(ctx, updated))

	found, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	require.NoError(t, repo.Save(ctx, sampleInstance("w1", true)))

	require.NoError(t, repo.Delete(ctx, "w1"))
	require.NoError(t, repo.Delete(ctx, "w1"))

	found, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestOperationsHonorContextCancellation(t *testing.T) {
	repo := memory.NewRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, repo.Save(ctx, sampleInstance("w1", true)))
	_, err := repo.FindByID(ctx, "w1")
	assert.Error(t, err)
	_, err = repo.FindAllActive(ctx)
	assert.Error(t, err)
	assert.Error(t, repo.Update(ctx, sampleInstance("w1", true)))
	assert.Error(t, repo.Delete(ctx, "w1"))
}

func TestConcurrentAccessAcrossIDs(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("act-%d", i)
			require.NoError(t, repo.Save(ctx, sampleInstance(id, true)))
			_, err := repo.FindByID(ctx, id)
			require.NoError(t, err)
			_, err = repo.FindAllActive(ctx)
			require.NoError(t, err)
			require.NoError(t, repo.Delete(ctx, id))
		}(i)
	}
	wg.Wait()

	active, err := repo.FindAllActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
