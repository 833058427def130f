package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"activity-giveaway-bot/internal/features/activity/models"
	"activity-giveaway-bot/internal/features/activity/repository"
)

const (
	keyPrefixActivity = "activity:"
	keyActivityConfig = "activity:config"
)

type redisRepository struct {
	client *redis.Client
}

func NewRedisActivityRepository(client *redis.Client) repository.ActivityRepository {
	return &redisRepository{client: client}
}

func makeActivityKey(guildID, userID string) string {
	return keyPrefixActivity + guildID + ":" + userID
}

func fieldFor(kind models.ActivityKind) (string, error) {
	switch kind {
	case models.KindMessage:
		return "messages", nil
	case models.KindReaction:
		return "reactions", nil
	case models.KindVoiceMinute:
		return "voice_minutes", nil
	default:
		return "", fmt.Errorf("unknown activity kind: %s", kind)
	}
}

func (r *redisRepository) Increment(ctx context.Context, guildID, userID string, kind models.ActivityKind, amount int64, now int64) error {
	field, err := fieldFor(kind)
	if err != nil {
		return err
	}

	key := makeActivityKey(guildID, userID)
	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, key, field, amount)
	pipe.HSet(ctx, key, "last_update", now)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment activity: %w", err)
	}
	return nil
}

func (r *redisRepository) Get(ctx context.Context, guildID, userID string) (*models.ActivityRecord, error) {
	fields, err := r.client.HGetAll(ctx, makeActivityKey(guildID, userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, repository.ErrRecordNotFound
	}

	rec := &models.ActivityRecord{GuildID: guildID, UserID: userID}
	rec.Messages = parseCounter(fields["messages"])
	rec.Reactions = parseCounter(fields["reactions"])
	rec.VoiceMinutes = parseCounter(fields["voice_minutes"])
	rec.LastUpdate = parseCounter(fields["last_update"])
	return rec, nil
}

func parseCounter(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func (r *redisRepository) GetConfig(ctx context.Context) (*models.ActivityConfig, error) {
	data, err := r.client.Get(ctx, keyActivityConfig).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	var cfg models.ActivityConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity config: %w", err)
	}
	return &cfg, nil
}

func (r *redisRepository) SaveConfig(ctx context.Context, cfg *models.ActivityConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal activity config: %w", err)
	}
	return r.client.Set(ctx, keyActivityConfig, data, 0).Err()
}
