package repository

import (
	"context"
	"errors"

	"activity-giveaway-bot/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrGiveawayInactive = errors.New("giveaway is not open")
	ErrAlreadyEntered   = errors.New("user already entered")
	ErrNotEntered       = errors.New("user has not entered")
)

// GiveawayRepository is the authoritative store for giveaways and their
// entry lists. Every mutating operation is atomic with respect to concurrent
// callers on the same giveaway and persists before returning; a failed write
// leaves the observable state at the last committed version.
type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)

	// AddEntry appends userID to an open giveaway's entry list.
	// Fails with ErrGiveawayNotFound, ErrGiveawayInactive or ErrAlreadyEntered.
	AddEntry(ctx context.Context, id, userID string) error

	// RemoveEntry removes userID from an open giveaway's entry list.
	// Fails with ErrGiveawayNotFound, ErrGiveawayInactive or ErrNotEntered.
	RemoveEntry(ctx context.Context, id, userID string) error

	// Close transitions the giveaway to closed. Idempotent: the bool result
	// is true only for the call that performed the open → closed transition,
	// which is the caller allowed to run the expiry draw.
	Close(ctx context.Context, id string, closedAt int64) (bool, error)

	// SetWinners records the result of the expiry draw.
	SetWinners(ctx context.Context, id string, winners []string) error

	// SetMessageID stores the announcement message reference.
	SetMessageID(ctx context.Context, id, messageID string) error

	// ListOpenExpired returns open giveaways with EndsAt <= now, oldest
	// expiry first so a catching-up sweep finishes them in fair order.
	ListOpenExpired(ctx context.Context, now int64) ([]*models.Giveaway, error)

	// ListActive returns all open giveaways of one guild.
	ListActive(ctx context.Context, guildID string) ([]*models.Giveaway, error)
}
