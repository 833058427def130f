package repository

import (
	"context"
	"errors"

	"activity-giveaway-bot/internal/features/activity/models"
)

var ErrRecordNotFound = errors.New("activity record not found")

// ActivityRepository stores activity counters and the scoring configuration.
type ActivityRepository interface {
	// Increment adds amount to one counter of the (guild, user) record,
	// creating the record when absent, and stamps LastUpdate = now.
	Increment(ctx context.Context, guildID, userID string, kind models.ActivityKind, amount int64, now int64) error

	// Get returns the record for (guild, user) or ErrRecordNotFound.
	Get(ctx context.Context, guildID, userID string) (*models.ActivityRecord, error)

	// GetConfig returns the stored scoring configuration or
	// ErrRecordNotFound when none was ever saved.
	GetConfig(ctx context.Context) (*models.ActivityConfig, error)

	// SaveConfig persists the scoring configuration.
	SaveConfig(ctx context.Context, cfg *models.ActivityConfig) error
}
