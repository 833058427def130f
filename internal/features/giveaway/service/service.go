package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"activity-giveaway-bot/internal/common/errors"
	"activity-giveaway-bot/internal/common/logger"
	"activity-giveaway-bot/internal/features/giveaway/models"
	"activity-giveaway-bot/internal/features/giveaway/repository"
)

// Scorer supplies activity multipliers for the weighted draw.
type Scorer interface {
	Score(ctx context.Context, guildID, userID string) float64
}

// Announcer receives the results of finished and rerolled giveaways. A
// failing announcement must never block or revert the committed state, so
// implementations report nothing back.
type Announcer interface {
	GiveawayFinished(giveaway *models.Giveaway, winners []string)
	GiveawayRerolled(giveaway *models.Giveaway, winners []string)
}

// GiveawayService drives the giveaway lifecycle: create, enter/leave,
// finish with a weighted draw, and reroll.
type GiveawayService struct {
	repo      repository.GiveawayRepository
	scorer    Scorer
	announcer Announcer
	now       func() time.Time
}

func NewGiveawayService(repo repository.GiveawayRepository, scorer Scorer, announcer Announcer) *GiveawayService {
	return &GiveawayService{
		repo:      repo,
		scorer:    scorer,
		announcer: announcer,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *GiveawayService) WithClock(now func() time.Time) *GiveawayService {
	s.now = now
	return s
}

// SetAnnouncer installs the announcement sink. The Discord adapter both
// consumes this service and implements the sink, so it is wired in after
// construction.
func (s *GiveawayService) SetAnnouncer(announcer Announcer) {
	s.announcer = announcer
}

// Create validates the parameters and stores a new open giveaway.
func (s *GiveawayService) Create(ctx context.Context, create *models.GiveawayCreate) (*models.Giveaway, error) {
	if create.WinnersCount < MinWinners || create.WinnersCount > MaxWinners {
		return nil, errors.NewValidationError("winners_count",
			fmt.Sprintf("must be between %d and %d", MinWinners, MaxWinners))
	}
	if create.DurationMinutes < MinDurationMinutes || create.DurationMinutes > MaxDurationMinutes {
		return nil, errors.NewValidationError("duration_minutes",
			fmt.Sprintf("must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes))
	}

	now := s.now()
	giveaway := &models.Giveaway{
		ID:            newGiveawayID(now),
		GuildID:       create.GuildID,
		ChannelID:     create.ChannelID,
		Prize:         create.Prize,
		Description:   create.Description,
		Requirements:  create.Requirements,
		WinnersCount:  create.WinnersCount,
		EndsAt:        now.Add(time.Duration(create.DurationMinutes) * time.Minute).UnixMilli(),
		ActivityBonus: create.ActivityBonus,
		HostID:        create.HostID,
		Entries:       []string{},
		Status:        models.GiveawayStatusOpen,
		CreatedAt:     now.UnixMilli(),
	}

	if err := s.repo.Create(ctx, giveaway); err != nil {
		return nil, errors.NewStorageError("create giveaway", err)
	}

	logger.Info().
		Str("giveaway_id", giveaway.ID).
		Str("guild_id", giveaway.GuildID).
		Str("prize", giveaway.Prize).
		Int("winners_count", giveaway.WinnersCount).
		Bool("activity_bonus", giveaway.ActivityBonus).
		Msg("Giveaway created")
	return giveaway, nil
}

// newGiveawayID builds a creation-time-derived ID. The millisecond prefix
// keeps IDs monotonically increasing for tie-breaks, the uuid suffix keeps
// them unique within one millisecond.
func newGiveawayID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// SetAnnouncement stores the reference to the announcement message so the
// finish path can later disable its entry controls.
func (s *GiveawayService) SetAnnouncement(ctx context.Context, id, messageID string) error {
	if err := s.repo.SetMessageID(ctx, id, messageID); err != nil {
		return s.wrapRepoError(err, id, "")
	}
	return nil
}

// Get returns one giveaway by ID.
func (s *GiveawayService) Get(ctx context.Context, id string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapRepoError(err, id, "")
	}
	return giveaway, nil
}

// Enter adds userID to the giveaway's entry list.
func (s *GiveawayService) Enter(ctx context.Context, id, userID string) error {
	if err := s.repo.AddEntry(ctx, id, userID); err != nil {
		return s.wrapRepoError(err, id, userID)
	}
	logger.Debug().Str("giveaway_id", id).Str("user_id", userID).Msg("Entry added")
	return nil
}

// Leave removes userID from the giveaway's entry list.
func (s *GiveawayService) Leave(ctx context.Context, id, userID string) error {
	if err := s.repo.RemoveEntry(ctx, id, userID); err != nil {
		return s.wrapRepoError(err, id, userID)
	}
	logger.Debug().Str("giveaway_id", id).Str("user_id", userID).Msg("Entry removed")
	return nil
}

// ListActive returns the open giveaways of one guild.
func (s *GiveawayService) ListActive(ctx context.Context, guildID string) ([]*models.Giveaway, error) {
	giveaways, err := s.repo.ListActive(ctx, guildID)
	if err != nil {
		return nil, errors.NewStorageError("list active giveaways", err)
	}
	return giveaways, nil
}

// ListExpired returns open giveaways whose end time has passed, oldest first.
func (s *GiveawayService) ListExpired(ctx context.Context) ([]*models.Giveaway, error) {
	giveaways, err := s.repo.ListOpenExpired(ctx, s.now().UnixMilli())
	if err != nil {
		return nil, errors.NewStorageError("list expired giveaways", err)
	}
	return giveaways, nil
}

// Finish closes the giveaway and, when this call performed the transition,
// draws the winners, persists them and announces the result. Both the expiry
// sweep and the manual end command go through here; the repository's
// check-and-set close guarantees at most one draw per giveaway.
func (s *GiveawayService) Finish(ctx context.Context, id string) (*models.Giveaway, []string, error) {
	transitioned, err := s.repo.Close(ctx, id, s.now().UnixMilli())
	if err != nil {
		return nil, nil, s.wrapRepoError(err, id, "")
	}
	if !transitioned {
		return nil, nil, errors.NewGiveawayInactiveError(id)
	}

	giveaway, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, s.wrapRepoError(err, id, "")
	}

	winners := SelectWinners(giveaway.Entries, s.scoreFunc(ctx, giveaway), giveaway.WinnersCount)

	if err := s.repo.SetWinners(ctx, id, winners); err != nil {
		// The close transition is already committed; report the winners
		// anyway so the announcement still goes out.
		logger.Error().Err(err).Str("giveaway_id", id).Msg("Failed to persist winners")
	}
	giveaway.Winners = winners

	logger.Info().
		Str("giveaway_id", id).
		Int("entries", len(giveaway.Entries)).
		Int("winners", len(winners)).
		Msg("Giveaway finished")

	if s.announcer != nil {
		s.announcer.GiveawayFinished(giveaway, winners)
	}
	return giveaway, winners, nil
}

// Reroll draws a fresh winner set from a closed giveaway. countOverride <= 0
// means the stored winners count. The stored state is left untouched; only a
// rerolled-event goes out.
func (s *GiveawayService) Reroll(ctx context.Context, id string, countOverride int) ([]string, error) {
	giveaway, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapRepoError(err, id, "")
	}
	if giveaway.IsOpen() {
		return nil, errors.NewGiveawayActiveError(id)
	}

	count := countOverride
	if count <= 0 {
		count = giveaway.WinnersCount
	}

	winners := SelectWinners(giveaway.Entries, s.scoreFunc(ctx, giveaway), count)

	logger.Info().
		Str("giveaway_id", id).
		Int("winners", len(winners)).
		Msg("Giveaway rerolled")

	if s.announcer != nil {
		s.announcer.GiveawayRerolled(giveaway, winners)
	}
	return winners, nil
}

// scoreFunc returns the weight function for the draw: ledger scores when the
// activity bonus is enabled, uniform weight otherwise.
func (s *GiveawayService) scoreFunc(ctx context.Context, giveaway *models.Giveaway) func(string) float64 {
	if !giveaway.ActivityBonus || s.scorer == nil {
		return func(string) float64 { return 1 }
	}
	return func(userID string) float64 {
		return s.scorer.Score(ctx, giveaway.GuildID, userID)
	}
}

func (s *GiveawayService) wrapRepoError(err error, id, userID string) error {
	switch {
	case goerrors.Is(err, repository.ErrGiveawayNotFound):
		return errors.NewGiveawayNotFoundError(id)
	case goerrors.Is(err, repository.ErrGiveawayInactive):
		return errors.NewGiveawayInactiveError(id)
	case goerrors.Is(err, repository.ErrAlreadyEntered):
		return errors.NewAlreadyEnteredError(id, userID)
	case goerrors.Is(err, repository.ErrNotEntered):
		return errors.NewNotEnteredError(id, userID)
	default:
		return errors.NewStorageError("giveaway store", err)
	}
}
