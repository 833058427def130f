package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-giveaway-bot/internal/features/giveaway/models"
	"activity-giveaway-bot/internal/features/giveaway/repository"
)

func newGiveaway(id, guildID string, endsAt int64) *models.Giveaway {
	return &models.Giveaway{
		ID:           id,
		GuildID:      guildID,
		ChannelID:    "channel",
		Prize:        "prize",
		WinnersCount: 1,
		EndsAt:       endsAt,
		Status:       models.GiveawayStatusOpen,
		Entries:      []string{},
		CreatedAt:    endsAt - 1000,
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileGiveawayRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, newGiveaway("g1", "guild", 1000)))
	require.NoError(t, repo.AddEntry(ctx, "g1", "alice"))
	require.NoError(t, repo.AddEntry(ctx, "g1", "bob"))

	transitioned, err := repo.Close(ctx, "g1", 2000)
	require.NoError(t, err)
	assert.True(t, transitioned)
	require.NoError(t, repo.SetWinners(ctx, "g1", []string{"bob"}))

	reopened, err := NewFileGiveawayRepository(dir)
	require.NoError(t, err)

	g, err := reopened.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusClosed, g.Status)
	assert.Equal(t, int64(2000), g.ClosedAt)
	assert.Equal(t, []string{"alice", "bob"}, g.Entries)
	assert.Equal(t, []string{"bob"}, g.Winners)
}

func TestCloseIsIdempotent(t *testing.T) {
	repo, err := NewFileGiveawayRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newGiveaway("g1", "guild", 1000)))

	transitioned, err := repo.Close(ctx, "g1", 2000)
	require.NoError(t, err)
	assert.True(t, transitioned)

	transitioned, err = repo.Close(ctx, "g1", 3000)
	require.NoError(t, err)
	assert.False(t, transitioned)

	// The first close's timestamp stands.
	g, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), g.ClosedAt)
}

func TestListOpenExpiredOrdering(t *testing.T) {
	repo, err := NewFileGiveawayRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newGiveaway("late", "guild", 3000)))
	require.NoError(t, repo.Create(ctx, newGiveaway("early", "guild", 1000)))
	require.NoError(t, repo.Create(ctx, newGiveaway("future", "guild", 99000)))
	require.NoError(t, repo.Create(ctx, newGiveaway("closed", "guild", 500)))
	_, err = repo.Close(ctx, "closed", 600)
	require.NoError(t, err)

	expired, err := repo.ListOpenExpired(ctx, 5000)
	require.NoError(t, err)

	ids := make([]string, len(expired))
	for i, g := range expired {
		ids[i] = g.ID
	}
	// Oldest expiry first; closed and future giveaways excluded.
	assert.Equal(t, []string{"early", "late"}, ids)
}

func TestListActiveFiltersGuildAndStatus(t *testing.T) {
	repo, err := NewFileGiveawayRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newGiveaway("g1", "guild-a", 1000)))
	require.NoError(t, repo.Create(ctx, newGiveaway("g2", "guild-a", 2000)))
	require.NoError(t, repo.Create(ctx, newGiveaway("g3", "guild-b", 3000)))
	_, err = repo.Close(ctx, "g2", 2500)
	require.NoError(t, err)

	active, err := repo.ListActive(ctx, "guild-a")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "g1", active[0].ID)
}

func TestMutationsOnMissingGiveaway(t *testing.T) {
	repo, err := NewFileGiveawayRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, repo.AddEntry(ctx, "missing", "alice"), repository.ErrGiveawayNotFound)
	assert.ErrorIs(t, repo.RemoveEntry(ctx, "missing", "alice"), repository.ErrGiveawayNotFound)
	_, err = repo.Close(ctx, "missing", 1000)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
}

func TestEntryRulesOnClosedGiveaway(t *testing.T) {
	repo, err := NewFileGiveawayRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newGiveaway("g1", "guild", 1000)))
	require.NoError(t, repo.AddEntry(ctx, "g1", "alice"))
	_, err = repo.Close(ctx, "g1", 2000)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.AddEntry(ctx, "g1", "bob"), repository.ErrGiveawayInactive)
	assert.ErrorIs(t, repo.RemoveEntry(ctx, "g1", "alice"), repository.ErrGiveawayInactive)
}
