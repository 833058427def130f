package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"activity-giveaway-bot/internal/common/logger"
	"activity-giveaway-bot/internal/features/activity/models"
	"activity-giveaway-bot/internal/features/activity/repository"
)

const msPerDay = 86_400_000

// Service is the activity ledger: it accrues per-(guild, user) counters and
// turns them into the decayed, clamped lottery multiplier.
type Service struct {
	repo repository.ActivityRepository

	mu  sync.RWMutex
	cfg models.ActivityConfig

	now func() time.Time
}

func NewActivityService(repo repository.ActivityRepository) *Service {
	s := &Service{
		repo: repo,
		cfg:  *models.DefaultConfig(),
		now:  time.Now,
	}

	stored, err := repo.GetConfig(context.Background())
	switch {
	case err == nil:
		s.cfg = *stored
	case errors.Is(err, repository.ErrRecordNotFound):
		// First start, defaults apply.
	default:
		logger.Error().Err(err).Msg("Failed to load activity config, using defaults")
	}

	return s
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Record adds amount to the (guild, user) counter of the given kind.
// Non-positive amounts are ignored.
func (s *Service) Record(ctx context.Context, guildID, userID string, kind models.ActivityKind, amount int64) {
	if amount <= 0 {
		return
	}

	if err := s.repo.Increment(ctx, guildID, userID, kind, amount, s.now().UnixMilli()); err != nil {
		logger.Error().
			Err(err).
			Str("guild_id", guildID).
			Str("user_id", userID).
			Str("kind", string(kind)).
			Msg("Failed to record activity")
	}
}

// Score computes the activity multiplier for (guild, user). Members without
// any recorded activity get the baseline 1.0 so every entrant keeps a
// nonzero lottery chance. The result is always within [1, MaxActivityBonus].
func (s *Service) Score(ctx context.Context, guildID, userID string) float64 {
	cfg := s.Config()

	rec, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrRecordNotFound) {
			logger.Error().
				Err(err).
				Str("guild_id", guildID).
				Str("user_id", userID).
				Msg("Failed to read activity record, using baseline score")
		}
		return 1.0
	}

	raw := float64(rec.Messages)*cfg.MessagePointValue +
		float64(rec.Reactions)*cfg.ReactionPointValue +
		float64(rec.VoiceMinutes)*cfg.VoiceMinuteValue

	daysSinceUpdate := float64(s.now().UnixMilli()-rec.LastUpdate) / msPerDay
	decay := math.Max(0.1, 1-daysSinceUpdate/cfg.ActivityDecayDays)

	score := 1 + raw*decay*cfg.ActivityMultiplier/100
	return math.Min(cfg.MaxActivityBonus, math.Max(1, score))
}

// Stats returns the stored counters together with the current score.
// Members without a record get zeroed counters and the baseline score.
func (s *Service) Stats(ctx context.Context, guildID, userID string) models.ActivityStats {
	rec, err := s.repo.Get(ctx, guildID, userID)
	if err != nil {
		rec = &models.ActivityRecord{GuildID: guildID, UserID: userID}
	}
	return models.ActivityStats{
		Record: *rec,
		Score:  s.Score(ctx, guildID, userID),
	}
}

// Config returns the current scoring configuration.
func (s *Service) Config() models.ActivityConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig applies a partial patch and persists the result.
func (s *Service) UpdateConfig(ctx context.Context, patch *models.ActivityConfigPatch) (models.ActivityConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.Apply(s.cfg)
	if err := s.repo.SaveConfig(ctx, &next); err != nil {
		return s.cfg, err
	}

	s.cfg = next
	logger.Info().
		Float64("activity_multiplier", next.ActivityMultiplier).
		Float64("max_activity_bonus", next.MaxActivityBonus).
		Float64("decay_days", next.ActivityDecayDays).
		Msg("Activity config updated")
	return next, nil
}
