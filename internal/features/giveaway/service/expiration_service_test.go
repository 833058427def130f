package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepFinishesExpiredGiveaways(t *testing.T) {
	svc, announcer := newTestGiveawayService(t)
	ctx := context.Background()

	start := time.Now()
	svc.WithClock(func() time.Time { return start })

	expired, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	require.NoError(t, svc.Enter(ctx, expired.ID, "alice"))

	longRunning := validCreate()
	longRunning.DurationMinutes = 10080
	open, err := svc.Create(ctx, longRunning)
	require.NoError(t, err)

	// Jump past the first giveaway's end time, then sweep.
	svc.WithClock(func() time.Time { return start.Add(2 * time.Hour) })

	scheduler := NewExpirationService(svc, 10*time.Millisecond)
	scheduler.Start()
	defer scheduler.Stop()

	assert.Eventually(t, func() bool {
		return announcer.finishedCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	finished, err := svc.Get(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, finished.IsOpen())
	assert.Equal(t, []string{"alice"}, finished.Winners)

	// The giveaway that has not expired stays open.
	stillOpen, err := svc.Get(ctx, open.ID)
	require.NoError(t, err)
	assert.True(t, stillOpen.IsOpen())
}

func TestSweepAndManualEndDrawOnce(t *testing.T) {
	svc, announcer := newTestGiveawayService(t)
	ctx := context.Background()

	start := time.Now()
	svc.WithClock(func() time.Time { return start })

	giveaway, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	// Manual end first, then a sweep over the (now closed) giveaway.
	svc.WithClock(func() time.Time { return start.Add(2 * time.Hour) })
	_, _, err = svc.Finish(ctx, giveaway.ID)
	require.NoError(t, err)

	scheduler := NewExpirationService(svc, 10*time.Millisecond)
	scheduler.Sweep()
	scheduler.Stop()

	assert.Equal(t, 1, announcer.finishedCount())
}
