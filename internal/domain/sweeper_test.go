package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeoJeongBo/expo-live-activity/internal/domain"
	"github.com/HeoJeongBo/expo-live-activity/internal/persistence/memory"
)

func TestSweeperEndsExpiredActivities(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	platform := newFakePlatform()
	service, publisher := newService(platform, memory.NewRepository())

	expiring := timerConfig("expiring")
	expiry := time.Now().Add(150 * time.Millisecond)
	expiring.ExpirationDate = &expiry
	_, err := service.StartActivity(ctx, expiring)
	require.Nil(t, err)

	longLived := timerConfig("long-lived")
	farOut := time.Now().Add(time.Hour)
	longLived.ExpirationDate = &farOut
	_, err = service.StartActivity(ctx, longLived)
	require.Nil(t, err)

	sweeper := domain.NewExpirySweeper(service, 25*time.Millisecond)
	go sweeper.Start(ctx)

	require.Eventually(t, func() bool {
		instance, getErr := service.GetActivity(ctx, "expiring")
		return getErr == nil && instance != nil && !instance.IsActive
	}, 2*time.Second, 25*time.Millisecond)

	survivor, getErr := service.GetActivity(ctx, "long-lived")
	require.Nil(t, getErr)
	assert.True(t, survivor.IsActive)

	// The expiry is reported through the normal end path.
	var ended *domain.EndRequest
	for _, e := range publisher.all() {
		if e.Kind == domain.EventEnded {
			ended = e.End
		}
	}
	require.NotNil(t, ended)
	assert.Equal(t, "expiring", ended.ActivityID)
	assert.Equal(t, domain.DismissalDefault, ended.DismissalPolicy)

	cancel()
	sweeper.Wait()
}

func TestSweeperIgnoresActivitiesWithoutExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, _ := newService(newFakePlatform(), memory.NewRepository())
	_, err := service.StartActivity(ctx, timerConfig("open-ended"))
	require.Nil(t, err)

	sweeper := domain.NewExpirySweeper(service, 10*time.Millisecond)
	go sweeper.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	instance, getErr := service.GetActivity(ctx, "open-ended")
	require.Nil(t, getErr)
	assert.True(t, instance.IsActive)

	cancel()
	sweeper.Wait()
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	service, _ := newService(newFakePlatform(), memory.NewRepository())

	sweeper := domain.NewExpirySweeper(service, 10*time.Millisecond)
	go sweeper.Start(ctx)

	cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
