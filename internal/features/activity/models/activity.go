package models

// ActivityKind identifies one kind of qualifying chat activity.
type ActivityKind string

const (
	KindMessage     ActivityKind = "message"
	KindReaction    ActivityKind = "reaction"
	KindVoiceMinute ActivityKind = "voice_minute"
)

// ActivityRecord holds the accumulated activity counters for one member of
// one guild. Records are created on the first qualifying event and are never
// deleted; inactivity only decays the effective score.
type ActivityRecord struct {
	GuildID      string `json:"guild_id"`
	UserID       string `json:"user_id"`
	Messages     int64  `json:"messages"`
	Reactions    int64  `json:"reactions"`
	VoiceMinutes int64  `json:"voice_minutes"`
	LastUpdate   int64  `json:"last_update"` // epoch milliseconds
}

// ActivityConfig holds the process-wide scoring tunables.
type ActivityConfig struct {
	ActivityMultiplier float64 `json:"activity_multiplier"`
	MaxActivityBonus   float64 `json:"max_activity_bonus"`
	MessagePointValue  float64 `json:"message_point_value"`
	ReactionPointValue float64 `json:"reaction_point_value"`
	VoiceMinuteValue   float64 `json:"voice_minute_value"`
	ActivityDecayDays  float64 `json:"activity_decay_days"`
}

// DefaultConfig returns the shipped scoring configuration.
func DefaultConfig() *ActivityConfig {
	return &ActivityConfig{
		ActivityMultiplier: 1.5,
		MaxActivityBonus:   5.0,
		MessagePointValue:  1,
		ReactionPointValue: 0.5,
		VoiceMinuteValue:   2,
		ActivityDecayDays:  30,
	}
}

// ActivityConfigPatch is a partial configuration update; nil fields keep
// their current value.
type ActivityConfigPatch struct {
	ActivityMultiplier *float64 `json:"activity_multiplier,omitempty"`
	MaxActivityBonus   *float64 `json:"max_activity_bonus,omitempty"`
	MessagePointValue  *float64 `json:"message_point_value,omitempty"`
	ReactionPointValue *float64 `json:"reaction_point_value,omitempty"`
	VoiceMinuteValue   *float64 `json:"voice_minute_value,omitempty"`
	ActivityDecayDays  *float64 `json:"activity_decay_days,omitempty"`
}

// Apply returns a copy of cfg with the patch applied.
func (p *ActivityConfigPatch) Apply(cfg ActivityConfig) ActivityConfig {
	if p.ActivityMultiplier != nil {
		cfg.ActivityMultiplier = *p.ActivityMultiplier
	}
	if p.MaxActivityBonus != nil {
		cfg.MaxActivityBonus = *p.MaxActivityBonus
	}
	if p.MessagePointValue != nil {
		cfg.MessagePointValue = *p.MessagePointValue
	}
	if p.ReactionPointValue != nil {
		cfg.ReactionPointValue = *p.ReactionPointValue
	}
	if p.VoiceMinuteValue != nil {
		cfg.VoiceMinuteValue = *p.VoiceMinuteValue
	}
	if p.ActivityDecayDays != nil {
		cfg.ActivityDecayDays = *p.ActivityDecayDays
	}
	return cfg
}

// ActivityStats is the read view returned to the command surface.
type ActivityStats struct {
	Record ActivityRecord `json:"record"`
	Score  float64        `json:"score"`
}
