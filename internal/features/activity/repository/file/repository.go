package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"activity-giveaway-bot/internal/features/activity/models"
	"activity-giveaway-bot/internal/features/activity/repository"
)

const snapshotName = "activity.json"

// snapshot is the on-disk layout: records keyed by "guildID:userID" plus the
// scoring configuration, written through on every mutation.
type snapshot struct {
	Records map[string]*models.ActivityRecord `json:"records"`
	Config  *models.ActivityConfig            `json:"config,omitempty"`
}

type fileRepository struct {
	mu      sync.Mutex
	path    string
	records map[string]*models.ActivityRecord
	config  *models.ActivityConfig
}

// NewFileActivityRepository opens (or creates) the JSON snapshot in dir.
func NewFileActivityRepository(dir string) (repository.ActivityRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	r := &fileRepository{
		path:    filepath.Join(dir, snapshotName),
		records: make(map[string]*models.ActivityRecord),
	}

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read activity snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse activity snapshot: %w", err)
	}
	if snap.Records != nil {
		r.records = snap.Records
	}
	r.config = snap.Config
	return r, nil
}

func recordKey(guildID, userID string) string {
	return guildID + ":" + userID
}

func (r *fileRepository) Increment(ctx context.Context, guildID, userID string, kind models.ActivityKind, amount int64, now int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey(guildID, userID)
	prev, existed := r.records[key]

	next := &models.ActivityRecord{GuildID: guildID, UserID: userID}
	if existed {
		*next = *prev
	}

	switch kind {
	case models.KindMessage:
		next.Messages += amount
	case models.KindReaction:
		next.Reactions += amount
	case models.KindVoiceMinute:
		next.VoiceMinutes += amount
	default:
		return fmt.Errorf("unknown activity kind: %s", kind)
	}
	next.LastUpdate = now

	r.records[key] = next
	if err := r.persistLocked(); err != nil {
		// Roll back to the last committed state.
		if existed {
			r.records[key] = prev
		} else {
			delete(r.records, key)
		}
		return err
	}
	return nil
}

func (r *fileRepository) Get(ctx context.Context, guildID, userID string) (*models.ActivityRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[recordKey(guildID, userID)]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	out := *rec
	return &out, nil
}

func (r *fileRepository) GetConfig(ctx context.Context) (*models.ActivityConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return nil, repository.ErrRecordNotFound
	}
	out := *r.config
	return &out, nil
}

func (r *fileRepository) SaveConfig(ctx context.Context, cfg *models.ActivityConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.config
	next := *cfg
	r.config = &next
	if err := r.persistLocked(); err != nil {
		r.config = prev
		return err
	}
	return nil
}

// persistLocked writes the full snapshot through a temp file and rename, so
// a crash mid-write never leaves a torn snapshot behind.
func (r *fileRepository) persistLocked() error {
	data, err := json.MarshalIndent(snapshot{Records: r.records, Config: r.config}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal activity snapshot: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write activity snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to commit activity snapshot: %w", err)
	}
	return nil
}
