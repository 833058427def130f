package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"activity-giveaway-bot/internal/common/config"
	"activity-giveaway-bot/internal/common/logger"
	activitymodels "activity-giveaway-bot/internal/features/activity/models"
	activityservice "activity-giveaway-bot/internal/features/activity/service"
	"activity-giveaway-bot/internal/features/giveaway/models"
	giveawayservice "activity-giveaway-bot/internal/features/giveaway/service"
)

const embedColor = 0x5865F2

// Bot is the Discord gateway adapter: it turns chat events into activity
// records and entry actions, renders giveaways, and is the announcement sink
// for finished and rerolled giveaways.
type Bot struct {
	session   *discordgo.Session
	cfg       *config.Config
	giveaways *giveawayservice.GiveawayService
	activity  *activityservice.Service

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(cfg *config.Config, giveaways *giveawayservice.GiveawayService, activity *activityservice.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentGuildVoiceStates |
		discordgo.IntentGuildMembers |
		discordgo.IntentMessageContent

	bot := &Bot{
		session:   session,
		cfg:       cfg,
		giveaways: giveaways,
		activity:  activity,
		stop:      make(chan struct{}),
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onInteractionCreate)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onReactionAdd)

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return err
	}

	b.wg.Add(1)
	go b.voiceLoop()

	return nil
}

func (b *Bot) Stop() {
	close(b.stop)
	b.wg.Wait()
	if err := b.session.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close discord session")
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Info().
		Str("username", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Discord gateway connected")
}

// onMessageCreate credits message activity.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	b.activity.Record(context.Background(), m.GuildID, m.Author.ID, activitymodels.KindMessage, 1)
}

// onReactionAdd credits reaction activity.
func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" || r.UserID == s.State.User.ID {
		return
	}
	b.activity.Record(context.Background(), r.GuildID, r.UserID, activitymodels.KindReaction, 1)
}

// voiceLoop credits one voice minute per tick to every member currently in
// a voice channel, using the session's state cache.
func (b *Bot) voiceLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.Scheduler.VoiceTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.creditVoiceMinutes()
		case <-b.stop:
			return
		}
	}
}

func (b *Bot) creditVoiceMinutes() {
	ctx := context.Background()
	for _, guild := range b.session.State.Guilds {
		for _, vs := range guild.VoiceStates {
			if vs.UserID == b.session.State.User.ID || vs.ChannelID == "" {
				continue
			}
			b.activity.Record(ctx, guild.ID, vs.UserID, activitymodels.KindVoiceMinute, 1)
		}
	}
}

// GiveawayFinished implements the announcement sink: it posts the result and
// disables the entry buttons on the original message.
func (b *Bot) GiveawayFinished(giveaway *models.Giveaway, winners []string) {
	embed := &discordgo.MessageEmbed{
		Title:       "🎉 Giveaway Ended!",
		Description: resultDescription(giveaway, winners),
		Color:       embedColor,
	}

	if _, err := b.session.ChannelMessageSendEmbed(giveaway.ChannelID, embed); err != nil {
		logger.Error().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to announce giveaway result")
	}

	b.disableEntryButtons(giveaway)
}

// GiveawayRerolled posts the rerolled winner set.
func (b *Bot) GiveawayRerolled(giveaway *models.Giveaway, winners []string) {
	embed := &discordgo.MessageEmbed{
		Title:       "🎲 Giveaway Rerolled!",
		Description: resultDescription(giveaway, winners),
		Color:       embedColor,
	}

	if _, err := b.session.ChannelMessageSendEmbed(giveaway.ChannelID, embed); err != nil {
		logger.Error().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to announce reroll result")
	}
}

func resultDescription(giveaway *models.Giveaway, winners []string) string {
	if len(winners) == 0 {
		return fmt.Sprintf("**Prize:** %s\n\nNo valid entries, no winners could be drawn.", giveaway.Prize)
	}

	mentions := make([]string, len(winners))
	for i, id := range winners {
		mentions[i] = "<@" + id + ">"
	}
	return fmt.Sprintf("**Prize:** %s\n**Winners:** %s\n\nCongratulations!",
		giveaway.Prize, strings.Join(mentions, ", "))
}

func (b *Bot) disableEntryButtons(giveaway *models.Giveaway) {
	if giveaway.MessageID == "" {
		return
	}

	components := entryButtons(giveaway.ID, true)
	_, err := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         giveaway.MessageID,
		Channel:    giveaway.ChannelID,
		Components: &components,
	})
	if err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to disable entry buttons")
	}
}

// entryButtons builds the enter/leave button row via the typed entry actions.
func entryButtons(giveawayID string, disabled bool) []discordgo.MessageComponent {
	enter := models.EntryAction{Kind: models.ActionEnter, GiveawayID: giveawayID}
	leave := models.EntryAction{Kind: models.ActionLeave, GiveawayID: giveawayID}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Enter 🎉",
					Style:    discordgo.SuccessButton,
					CustomID: enter.CustomID(),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "Leave",
					Style:    discordgo.SecondaryButton,
					CustomID: leave.CustomID(),
					Disabled: disabled,
				},
			},
		},
	}
}
