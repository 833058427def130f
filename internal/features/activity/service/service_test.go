package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-giveaway-bot/internal/features/activity/models"
	"activity-giveaway-bot/internal/features/activity/repository/file"
)

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	repo, err := file.NewFileActivityRepository(t.TempDir())
	require.NoError(t, err)
	return NewActivityService(repo).WithClock(func() time.Time { return now })
}

func TestScoreBaselineWithoutRecord(t *testing.T) {
	svc := newTestService(t, time.Now())
	assert.Equal(t, 1.0, svc.Score(context.Background(), "guild", "user"))
}

func TestScoreFormula(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)
	ctx := context.Background()

	svc.Record(ctx, "guild", "user", models.KindMessage, 100)
	svc.Record(ctx, "guild", "user", models.KindReaction, 10)
	svc.Record(ctx, "guild", "user", models.KindVoiceMinute, 5)

	// raw = 100*1 + 10*0.5 + 5*2 = 115, no decay yet:
	// score = 1 + 115 * 1.5/100 = 2.725
	assert.InDelta(t, 2.725, svc.Score(ctx, "guild", "user"), 0.001)
}

func TestScoreClampUpperBound(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)
	ctx := context.Background()

	svc.Record(ctx, "guild", "user", models.KindMessage, 1_000_000)

	cfg := svc.Config()
	assert.Equal(t, cfg.MaxActivityBonus, svc.Score(ctx, "guild", "user"))
}

func TestScoreNeverBelowOne(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)
	ctx := context.Background()

	svc.Record(ctx, "guild", "user", models.KindReaction, 1)

	score := svc.Score(ctx, "guild", "user")
	assert.GreaterOrEqual(t, score, 1.0)
	assert.LessOrEqual(t, score, svc.Config().MaxActivityBonus)
}

func TestScoreDecayFloor(t *testing.T) {
	start := time.Now()
	svc := newTestService(t, start)
	ctx := context.Background()

	svc.Record(ctx, "guild", "user", models.KindMessage, 1000)

	// 300 days of silence is far past the 30-day decay window, so the
	// decay factor bottoms out at 0.1:
	// score = 1 + 1000 * 0.1 * 1.5/100 = 2.5
	svc.WithClock(func() time.Time { return start.Add(300 * 24 * time.Hour) })
	assert.InDelta(t, 2.5, svc.Score(ctx, "guild", "user"), 0.001)
}

func TestScoreMonotonicInCounters(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)
	ctx := context.Background()

	prev := svc.Score(ctx, "guild", "user")
	for i := 0; i < 50; i++ {
		svc.Record(ctx, "guild", "user", models.KindMessage, 10)
		score := svc.Score(ctx, "guild", "user")
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestRecordIgnoresNonPositiveAmounts(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)
	ctx := context.Background()

	svc.Record(ctx, "guild", "user", models.KindMessage, 0)
	svc.Record(ctx, "guild", "user", models.KindMessage, -5)

	stats := svc.Stats(ctx, "guild", "user")
	assert.Zero(t, stats.Record.Messages)
	assert.Equal(t, 1.0, stats.Score)
}

func TestUpdateConfigPatch(t *testing.T) {
	svc := newTestService(t, time.Now())

	multiplier := 3.0
	cfg, err := svc.UpdateConfig(context.Background(), &models.ActivityConfigPatch{
		ActivityMultiplier: &multiplier,
	})
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.ActivityMultiplier)
	// Untouched fields keep their defaults.
	assert.Equal(t, 5.0, cfg.MaxActivityBonus)
	assert.Equal(t, 30.0, cfg.ActivityDecayDays)
}

func TestConfigSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	repo, err := file.NewFileActivityRepository(dir)
	require.NoError(t, err)
	svc := NewActivityService(repo)

	decay := 7.0
	_, err = svc.UpdateConfig(context.Background(), &models.ActivityConfigPatch{
		ActivityDecayDays: &decay,
	})
	require.NoError(t, err)

	reopened, err := file.NewFileActivityRepository(dir)
	require.NoError(t, err)
	restarted := NewActivityService(reopened)
	assert.Equal(t, 7.0, restarted.Config().ActivityDecayDays)
}
