package models

import "time"

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusOpen   GiveawayStatus = "open"   // accepting entries
	GiveawayStatusClosed GiveawayStatus = "closed" // terminal, winners drawn
)

// Giveaway represents one timed giveaway. Entries holds user IDs in join
// order and never contains duplicates. Status only ever moves open → closed;
// Winners is written once by the expiry draw.
type Giveaway struct {
	ID            string         `json:"id"`
	GuildID       string         `json:"guild_id"`
	ChannelID     string         `json:"channel_id"`
	Prize         string         `json:"prize"`
	Description   string         `json:"description,omitempty"`
	Requirements  string         `json:"requirements,omitempty"`
	WinnersCount  int            `json:"winners_count"`
	EndsAt        int64          `json:"ends_at"` // epoch milliseconds
	ActivityBonus bool           `json:"activity_bonus"`
	HostID        string         `json:"host_id"`
	Entries       []string       `json:"entries"`
	Status        GiveawayStatus `json:"status"`
	CreatedAt     int64          `json:"created_at"`
	ClosedAt      int64          `json:"closed_at,omitempty"`
	MessageID     string         `json:"message_id,omitempty"`
	Winners       []string       `json:"winners,omitempty"`
}

// IsOpen reports whether the giveaway still accepts entries.
func (g *Giveaway) IsOpen() bool {
	return g.Status == GiveawayStatusOpen
}

// HasEntered reports whether userID is on the entry list.
func (g *Giveaway) HasEntered(userID string) bool {
	for _, id := range g.Entries {
		if id == userID {
			return true
		}
	}
	return false
}

// EndsIn returns the remaining time until expiry relative to now.
func (g *Giveaway) EndsIn(now time.Time) time.Duration {
	return time.Duration(g.EndsAt-now.UnixMilli()) * time.Millisecond
}

// Clone returns a deep copy; repositories hand out clones so callers can
// never mutate stored state behind the store's back.
func (g *Giveaway) Clone() *Giveaway {
	out := *g
	out.Entries = append([]string(nil), g.Entries...)
	out.Winners = append([]string(nil), g.Winners...)
	return &out
}

// GiveawayCreate carries the parameters for creating a new giveaway.
type GiveawayCreate struct {
	GuildID         string `json:"guild_id" binding:"required"`
	ChannelID       string `json:"channel_id" binding:"required"`
	Prize           string `json:"prize" binding:"required,min=1,max=200"`
	Description     string `json:"description,omitempty" binding:"omitempty,max=1000"`
	Requirements    string `json:"requirements,omitempty" binding:"omitempty,max=500"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	WinnersCount    int    `json:"winners_count" binding:"required"`
	ActivityBonus   bool   `json:"activity_bonus"`
	HostID          string `json:"host_id" binding:"required"`
}
