package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"activity-giveaway-bot/internal/features/giveaway/models"
	"activity-giveaway-bot/internal/features/giveaway/repository"
)

const snapshotName = "giveaways.json"

type fileRepository struct {
	mu        sync.Mutex
	path      string
	giveaways map[string]*models.Giveaway
}

// NewFileGiveawayRepository opens (or creates) the JSON snapshot in dir.
func NewFileGiveawayRepository(dir string) (repository.GiveawayRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	r := &fileRepository{
		path:      filepath.Join(dir, snapshotName),
		giveaways: make(map[string]*models.Giveaway),
	}

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read giveaway snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &r.giveaways); err != nil {
		return nil, fmt.Errorf("failed to parse giveaway snapshot: %w", err)
	}
	return r, nil
}

func (r *fileRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.giveaways[giveaway.ID]; exists {
		return fmt.Errorf("giveaway %s already exists", giveaway.ID)
	}

	r.giveaways[giveaway.ID] = giveaway.Clone()
	if err := r.persistLocked(); err != nil {
		delete(r.giveaways, giveaway.ID)
		return err
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	return g.Clone(), nil
}

// mutate applies fn to a clone of the stored giveaway and commits it only
// after the snapshot write succeeded, so a persistence failure is not
// observably different from the mutation never having happened.
func (r *fileRepository) mutate(id string, fn func(g *models.Giveaway) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.giveaways[id]
	if !ok {
		return repository.ErrGiveawayNotFound
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		return err
	}

	r.giveaways[id] = next
	if err := r.persistLocked(); err != nil {
		r.giveaways[id] = cur
		return err
	}
	return nil
}

func (r *fileRepository) AddEntry(ctx context.Context, id, userID string) error {
	return r.mutate(id, func(g *models.Giveaway) error {
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

func (r *fileRepository) RemoveEntry(ctx context.Context, id, userID string) error {
	return r.mutate(id, func(g *models.Giveaway) error {
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

func (r *fileRepository) Close(ctx context.Context, id string, closedAt int64) (bool, error) {
	transitioned := false
	err := r.mutate(id, func(g *models.Giveaway) error {
		if g.Status == models.GiveawayStatusClosed {
			return nil
		}
		g.Status = models.GiveawayStatusClosed
		g.ClosedAt = closedAt
		transitioned = true
		return nil
	})
	return transitioned, err
}

func (r *fileRepository) SetWinners(ctx context.Context, id string, winners []string) error {
	return r.mutate(id, func(g *models.Giveaway) error {
		g.Winners = append([]string(nil), winners...)
		return nil
	})
}

func (r *fileRepository) SetMessageID(ctx context.Context, id, messageID string) error {
	return r.mutate(id, func(g *models.Giveaway) error {
		g.MessageID = messageID
		return nil
	})
}

func (r *fileRepository) ListOpenExpired(ctx context.Context, now int64) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Giveaway
	for _, g := range r.giveaways {
		if g.IsOpen() && g.EndsAt <= now {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndsAt != out[j].EndsAt {
			return out[i].EndsAt < out[j].EndsAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fileRepository) ListActive(ctx context.Context, guildID string) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Giveaway
	for _, g := range r.giveaways {
		if g.GuildID == guildID && g.IsOpen() {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fileRepository) persistLocked() error {
	data, err := json.MarshalIndent(r.giveaways, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway snapshot: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write giveaway snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to commit giveaway snapshot: %w", err)
	}
	return nil
}
