package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"activity-giveaway-bot/internal/features/giveaway/models"
	"activity-giveaway-bot/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway  = "giveaway:"
	keyPrefixOpenGuild = "giveaways:open:"
	keyOpenByEnd       = "giveaways:open_by_end"

	lockTTL       = 10 * time.Second
	lockAttempts  = 3
	lockRetryWait = 50 * time.Millisecond
)

type redisRepository struct {
	client *redis.Client
}

func NewRedisGiveawayRepository(client *redis.Client) repository.GiveawayRepository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeOpenGuildKey(guildID string) string {
	return keyPrefixOpenGuild + guildID
}

func (r *redisRepository) acquireLock(ctx context.Context, id string) (func(), error) {
	lockKey := makeGiveawayKey(id) + ":lock"
	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := r.client.SetNX(ctx, lockKey, "locked", lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			return func() { r.client.Del(context.Background(), lockKey) }, nil
		}
		time.Sleep(lockRetryWait)
	}
	return nil, fmt.Errorf("failed to acquire lock for giveaway %s: already locked", id)
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	pipe.SAdd(ctx, makeOpenGuildKey(giveaway.GuildID), giveaway.ID)
	pipe.ZAdd(ctx, keyOpenByEnd, redis.Z{Score: float64(giveaway.EndsAt), Member: giveaway.ID})

	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, fmt.Errorf("failed to unmarshal giveaway: %w", err)
	}
	return &giveaway, nil
}

// mutate runs fn on the current record under the per-giveaway lock and
// writes the result back in one pipeline.
func (r *redisRepository) mutate(ctx context.Context, id string, fn func(g *models.Giveaway, pipe redis.Pipeliner) error) error {
	release, err := r.acquireLock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	giveaway, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	if err := fn(giveaway, pipe); err != nil {
		pipe.Discard()
		return err
	}

	data, err := json.Marshal(giveaway)
	if err != nil {
		pipe.Discard()
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}
	pipe.Set(ctx, makeGiveawayKey(id), data, 0)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) AddEntry(ctx context.Context, id, userID string) error {
	return r.mutate(ctx, id, func(g *models.Giveaway, _ redis.Pipeliner) error {
		if !g.IsOpen() {
			return repository.ErrGiveawayInactive
		}
		if g.HasEntered(userID) {
			return repository.ErrAlreadyEntered
		}
		g.Entries = append(g.Entries, userID)
		return nil
	})
}

func (r *redisRepository) RemoveEntry(ctx context.Context, id, userID string) error {
	return r.mutate(ctx, id, func(g *models.Giveaway, _ redis.Pipeliner) error {
		if !g.IsOpen() {
			return repository.ErrGiveawayInactive
		}
		for i, entry := range g.Entries {
			if entry == userID {
				g.Entries = append(g.Entries[:i], g.Entries[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotEntered
	})
}

func (r *redisRepository) Close(ctx context.Context, id string, closedAt int64) (bool, error) {
	transitioned := false
	err := r.mutate(ctx, id, func(g *models.Giveaway, pipe redis.Pipeliner) error {
		if g.Status == models.GiveawayStatusClosed {
			return nil
		}
		g.Status = models.GiveawayStatusClosed
		g.ClosedAt = closedAt
		transitioned = true

		pipe.SRem(ctx, makeOpenGuildKey(g.GuildID), g.ID)
		pipe.ZRem(ctx, keyOpenByEnd, g.ID)
		return nil
	})
	return transitioned, err
}

func (r *redisRepository) SetWinners(ctx context.Context, id string, winners []string) error {
	return r.mutate(ctx, id, func(g *models.Giveaway, _ redis.Pipeliner) error {
		g.Winners = append([]string(nil), winners...)
		return nil
	})
}

func (r *redisRepository) SetMessageID(ctx context.Context, id, messageID string) error {
	return r.mutate(ctx, id, func(g *models.Giveaway, _ redis.Pipeliner) error {
		g.MessageID = messageID
		return nil
	})
}

func (r *redisRepository) ListOpenExpired(ctx context.Context, now int64) ([]*models.Giveaway, error) {
	// The zset is scored by EndsAt, so the range comes back oldest first.
	ids, err := r.client.ZRangeByScore(ctx, keyOpenByEnd, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return nil, err
	}
	return r.fetchOpen(ctx, ids)
}

func (r *redisRepository) ListActive(ctx context.Context, guildID string) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, makeOpenGuildKey(guildID)).Result()
	if err != nil {
		return nil, err
	}
	return r.fetchOpen(ctx, ids)
}

func (r *redisRepository) fetchOpen(ctx context.Context, ids []string) ([]*models.Giveaway, error) {
	out := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		g, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			// Index entry outlived the record, skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		if g.IsOpen() {
			out = append(out, g)
		}
	}
	return out, nil
}
