package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-giveaway-bot/internal/common/errors"
	"activity-giveaway-bot/internal/features/giveaway/models"
	"activity-giveaway-bot/internal/features/giveaway/repository/file"
)

type stubScorer struct {
	scores map[string]float64
}

func (s *stubScorer) Score(ctx context.Context, guildID, userID string) float64 {
	if score, ok := s.scores[userID]; ok {
		return score
	}
	return 1
}

type recordingAnnouncer struct {
	mu       sync.Mutex
	finished []string
	rerolled []string
	winners  map[string][]string
}

func (a *recordingAnnouncer) GiveawayFinished(g *models.Giveaway, winners []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished = append(a.finished, g.ID)
	if a.winners == nil {
		a.winners = make(map[string][]string)
	}
	a.winners[g.ID] = winners
}

func (a *recordingAnnouncer) GiveawayRerolled(g *models.Giveaway, winners []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rerolled = append(a.rerolled, g.ID)
}

func (a *recordingAnnouncer) finishedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.finished)
}

func newTestGiveawayService(t *testing.T) (*GiveawayService, *recordingAnnouncer) {
	t.Helper()
	repo, err := file.NewFileGiveawayRepository(t.TempDir())
	require.NoError(t, err)
	announcer := &recordingAnnouncer{}
	return NewGiveawayService(repo, &stubScorer{}, announcer), announcer
}

func validCreate() *models.GiveawayCreate {
	return &models.GiveawayCreate{
		GuildID:         "guild",
		ChannelID:       "channel",
		Prize:           "Nitro",
		DurationMinutes: 60,
		WinnersCount:    1,
		ActivityBonus:   true,
		HostID:          "host",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestGiveawayService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(c *models.GiveawayCreate)
		wantErr bool
	}{
		{"zero duration", func(c *models.GiveawayCreate) { c.DurationMinutes = 0 }, true},
		{"duration over one week", func(c *models.GiveawayCreate) { c.DurationMinutes = 10081 }, true},
		{"zero winners", func(c *models.GiveawayCreate) { c.WinnersCount = 0 }, true},
		{"too many winners", func(c *models.GiveawayCreate) { c.WinnersCount = 21 }, true},
		{"minimum bounds", func(c *models.GiveawayCreate) { c.DurationMinutes = 1; c.WinnersCount = 1 }, false},
		{"maximum bounds", func(c *models.GiveawayCreate) { c.DurationMinutes = 10080; c.WinnersCount = 20 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			create := validCreate()
			tc.mutate(create)

			_, err := svc.Create(ctx, create)
			if tc.wantErr {
				appErr, ok := errors.AsAppError(err)
				require.True(t, ok, "expected an AppError, got %v", err)
				assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateInitialState(t *testing.T) {
	svc, _ := newTestGiveawayService(t)
	now := time.Now()
	svc.WithClock(func() time.Time { return now })

	giveaway, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	assert.NotEmpty(t, giveaway.ID)
	assert.Equal(t, models.GiveawayStatusOpen, giveaway.Status)
	assert.Empty(t, giveaway.Entries)
	assert.Equal(t, now.Add(60*time.Minute).UnixMilli(), giveaway.EndsAt)
	assert.Equal(t, now.UnixMilli(), giveaway.CreatedAt)
}

func TestEnterLeaveRoundTrip(t *testing.T) {
	svc, _ := newTestGiveawayService(t)
	ctx := context.Background()

	giveaway, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.Enter(ctx, giveaway.ID, "alice"))

	// A second enter is rejected.
	err = svc.Enter(ctx, giveaway.ID, "alice")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAlreadyEntered, appErr.Code)

	require.NoError(t, svc.Leave(ctx, giveaway.ID, "alice"))

	// The entry set is back to its prior value.
	got, err := svc.Get(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Entries)

	// Leaving again is rejected.
	err = svc.Leave(ctx, giveaway.ID, "alice")
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotEntered, appErr.Code)
}

func TestEnterUnknownGiveaway(t *testing.T) {
	svc, _ := newTestGiveawayService(t)

	err := svc.Enter(context.Background(), "missing", "alice")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGiveawayNotFound, appErr.Code)
}

func TestFinishDrawsClosesAndAnnounces(t *testing.T) {
	svc, announcer := newTestGiveawayService(t)
	ctx := context.Background()

	giveaway, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	require.NoError(t, svc.Enter(ctx, giveaway.ID, "alice"))

	finished, winners, err := svc.Finish(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusClosed, finished.Status)
	assert.Equal(t, []string{"alice"}, winners)

	// The draw result is written back to the store.
	stored, err := svc.Get(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, stored.Winners)
	assert.NotZero(t, stored.ClosedAt)

	assert.Equal(t, []string{giveaway.ID}, announcer.finished)
}

func TestFinishTwiceDrawsOnce(t *testing.T) {
	svc, announcer := newTestGiveawayService(t)
	ctx := context.Background()

	giveaway, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	_, _, err = svc.Finish(ctx, giveaway.ID)
	require.NoError(t, err)

	_, _, err = svc.Finish(ctx, giveaway.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGiveawayInactive, appErr.Code)

	assert.Equal(t, 1, announcer.finishedCount())
}

func TestFinishWithoutEntrants(t *testing.T) {
	svc, _ := newTestGiveawayService(t)
	ctx := context.Background()

	giveaway, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	_, winners, err := svc.Finish(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestEnterAfterCloseFails(t *testing.T) {
	svc, _ := newTestGiveawayService(t)
	ctx := context.Background()

	giveaway, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	_, _, err = svc.Finish(ctx, giveaway.ID)
	require.NoError(t, err)

	err = svc.Enter(ctx, giveaway.ID, "alice")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGiveawayInactive, appErr.Code)
}

func TestRerollRequiresClosedGiveaway(t *testing.T) {
	svc, _ := newTestGiveawayService(t)
	ctx := context.Background()

	giveaway, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	_, err = svc.Reroll(ctx, giveaway.ID, 0)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGiveawayActive, appErr.Code)
}

func TestRerollKeepsStoredState(t *testing.T) {
	svc, announcer := newTestGiveawayService(t)
	ctx := context.Background()

	create := validCreate()
	giveaway, err := svc.Create(ctx, create)
	require.NoError(t, err)
	for _, user := range []string{"alice", "bob", "carol", "dave"} {
		require.NoError(t, svc.Enter(ctx, giveaway.ID, user))
	}

	_, _, err = svc.Finish(ctx, giveaway.ID)
	require.NoError(t, err)
	stored, err := svc.Get(ctx, giveaway.ID)
	require.NoError(t, err)

	// Reroll with an explicit winner count override.
	winners, err := svc.Reroll(ctx, giveaway.ID, 3)
	require.NoError(t, err)
	assert.Len(t, winners, 3)

	// Stored winners and state are untouched by the reroll.
	after, err := svc.Get(ctx, giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Winners, after.Winners)
	assert.Equal(t, models.GiveawayStatusClosed, after.Status)

	assert.Equal(t, []string{giveaway.ID}, announcer.rerolled)

	// Without an override the stored winners count applies.
	winners, err = svc.Reroll(ctx, giveaway.ID, 0)
	require.NoError(t, err)
	assert.Len(t, winners, create.WinnersCount)
}
