package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"activity-giveaway-bot/internal/common/errors"
	"activity-giveaway-bot/internal/common/logger"
	activitymodels "activity-giveaway-bot/internal/features/activity/models"
	"activity-giveaway-bot/internal/features/giveaway/models"
)

var botCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "giveaway",
		Description: "Create a new giveaway",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prize",
				Description: "The prize for the giveaway",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "duration",
				Description: "Duration in minutes",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "winners",
				Description: "Number of winners",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Channel to host the giveaway",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "requirements",
				Description: "Entry requirements",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "description",
				Description: "Additional description",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "activity_bonus",
				Description: "Enable activity-based bonus (default: true)",
				Required:    false,
			},
		},
	},
	{
		Name:        "gend",
		Description: "End a giveaway early",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "giveaway_id",
				Description: "The ID of the giveaway to end",
				Required:    true,
			},
		},
	},
	{
		Name:        "greroll",
		Description: "Reroll winners for an ended giveaway",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "giveaway_id",
				Description: "The ID of the giveaway to reroll",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "winners",
				Description: "Number of winners to reroll",
				Required:    false,
			},
		},
	},
	{
		Name:        "glist",
		Description: "List active giveaways",
	},
	{
		Name:        "gactivity",
		Description: "View activity stats",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "User to check activity for",
				Required:    false,
			},
		},
	},
	{
		Name:        "gconfig",
		Description: "Configure activity scoring",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "activity_multiplier",
				Description: "Activity score multiplier (default: 1.5)",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "max_activity_bonus",
				Description: "Maximum activity bonus (default: 5.0)",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "message_points",
				Description: "Points per message (default: 1)",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "decay_days",
				Description: "Days before activity decays (default: 30)",
				Required:    false,
			},
		},
	},
}

func (b *Bot) registerCommands() error {
	_, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		b.cfg.Discord.GuildID,
		botCommands,
	)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	logger.Info().Int("count", len(botCommands)).Msg("Slash commands registered")
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i)
	}
}

func (b *Bot) handleCommand(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "giveaway":
		b.createCommand(i, data)
	case "gend":
		b.endCommand(i, data)
	case "greroll":
		b.rerollCommand(i, data)
	case "glist":
		b.listCommand(i)
	case "gactivity":
		b.activityCommand(i, data)
	case "gconfig":
		b.configCommand(i, data)
	}
}

// handleComponent turns button presses into typed entry actions; the custom
// ID is parsed exactly once, here at the boundary.
func (b *Bot) handleComponent(i *discordgo.InteractionCreate) {
	action, ok := models.ParseEntryAction(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	ctx := context.Background()
	userID := interactionUserID(i)

	switch action.Kind {
	case models.ActionEnter:
		if err := b.giveaways.Enter(ctx, action.GiveawayID, userID); err != nil {
			b.respondError(i, err)
			return
		}
		giveaway, err := b.giveaways.Get(ctx, action.GiveawayID)
		if err == nil && giveaway.ActivityBonus {
			score := b.activity.Score(ctx, giveaway.GuildID, userID)
			b.respond(i, fmt.Sprintf("You have entered the giveaway! Your activity bonus: %.2fx", score))
			return
		}
		b.respond(i, "You have entered the giveaway!")
	case models.ActionLeave:
		if err := b.giveaways.Leave(ctx, action.GiveawayID, userID); err != nil {
			b.respondError(i, err)
			return
		}
		b.respond(i, "You have left the giveaway.")
	}
}

func (b *Bot) createCommand(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data.Options)

	channelID := i.ChannelID
	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(b.session).ID
	}
	activityBonus := true
	if opt, ok := opts["activity_bonus"]; ok {
		activityBonus = opt.BoolValue()
	}
	requirements := "None"
	if opt, ok := opts["requirements"]; ok {
		requirements = opt.StringValue()
	}
	var description string
	if opt, ok := opts["description"]; ok {
		description = opt.StringValue()
	}

	create := &models.GiveawayCreate{
		GuildID:         i.GuildID,
		ChannelID:       channelID,
		Prize:           opts["prize"].StringValue(),
		Description:     description,
		Requirements:    requirements,
		DurationMinutes: int(opts["duration"].IntValue()),
		WinnersCount:    int(opts["winners"].IntValue()),
		ActivityBonus:   activityBonus,
		HostID:          interactionUserID(i),
	}

	ctx := context.Background()
	giveaway, err := b.giveaways.Create(ctx, create)
	if err != nil {
		b.respondError(i, err)
		return
	}

	msg, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{giveawayEmbed(giveaway)},
		Components: entryButtons(giveaway.ID, false),
	})
	if err != nil {
		b.respondError(i, errors.NewDiscordAPIError("post giveaway message", err))
		return
	}
	if err := b.giveaways.SetAnnouncement(ctx, giveaway.ID, msg.ID); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", giveaway.ID).Msg("Failed to store announcement message ref")
	}

	b.respond(i, fmt.Sprintf("Giveaway created! ID: `%s`", giveaway.ID))
}

func (b *Bot) endCommand(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !b.isAdmin(i) {
		b.respond(i, "You need admin permissions to end giveaways.")
		return
	}

	id := optionMap(data.Options)["giveaway_id"].StringValue()
	_, winners, err := b.giveaways.Finish(context.Background(), id)
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.respond(i, fmt.Sprintf("Giveaway ended, %d winner(s) drawn.", len(winners)))
}

func (b *Bot) rerollCommand(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !b.isAdmin(i) {
		b.respond(i, "You need admin permissions to reroll giveaways.")
		return
	}

	opts := optionMap(data.Options)
	count := 0
	if opt, ok := opts["winners"]; ok {
		count = int(opt.IntValue())
	}

	winners, err := b.giveaways.Reroll(context.Background(), opts["giveaway_id"].StringValue(), count)
	if err != nil {
		b.respondError(i, err)
		return
	}
	b.respond(i, fmt.Sprintf("Rerolled %d winner(s).", len(winners)))
}

func (b *Bot) listCommand(i *discordgo.InteractionCreate) {
	giveaways, err := b.giveaways.ListActive(context.Background(), i.GuildID)
	if err != nil {
		b.respondError(i, err)
		return
	}
	if len(giveaways) == 0 {
		b.respond(i, "No active giveaways.")
		return
	}

	var sb strings.Builder
	for _, g := range giveaways {
		fmt.Fprintf(&sb, "`%s` — **%s** (%d winner(s), ends <t:%d:R>)\n",
			g.ID, g.Prize, g.WinnersCount, g.EndsAt/1000)
	}
	b.respond(i, sb.String())
}

func (b *Bot) activityCommand(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	userID := interactionUserID(i)
	if opt, ok := optionMap(data.Options)["user"]; ok {
		userID = opt.UserValue(b.session).ID
	}

	stats := b.activity.Stats(context.Background(), i.GuildID, userID)
	b.respond(i, fmt.Sprintf(
		"Activity for <@%s>:\nMessages: %d\nReactions: %d\nVoice minutes: %d\nActivity multiplier: %.2fx",
		userID, stats.Record.Messages, stats.Record.Reactions, stats.Record.VoiceMinutes, stats.Score))
}

func (b *Bot) configCommand(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !b.isAdmin(i) {
		b.respond(i, "You need admin permissions to change the configuration.")
		return
	}

	opts := optionMap(data.Options)
	patch := &activitymodels.ActivityConfigPatch{}
	if opt, ok := opts["activity_multiplier"]; ok {
		v := opt.FloatValue()
		patch.ActivityMultiplier = &v
	}
	if opt, ok := opts["max_activity_bonus"]; ok {
		v := opt.FloatValue()
		patch.MaxActivityBonus = &v
	}
	if opt, ok := opts["message_points"]; ok {
		v := opt.FloatValue()
		patch.MessagePointValue = &v
	}
	if opt, ok := opts["decay_days"]; ok {
		v := opt.FloatValue()
		patch.ActivityDecayDays = &v
	}

	cfg, err := b.activity.UpdateConfig(context.Background(), patch)
	if err != nil {
		b.respondError(i, errors.NewStorageError("update activity config", err))
		return
	}

	b.respond(i, fmt.Sprintf(
		"Configuration updated:\nActivity multiplier: %g\nMax activity bonus: %g\nMessage points: %g\nDecay days: %g",
		cfg.ActivityMultiplier, cfg.MaxActivityBonus, cfg.MessagePointValue, cfg.ActivityDecayDays))
}

func giveawayEmbed(g *models.Giveaway) *discordgo.MessageEmbed {
	bonus := "❌ Disabled"
	if g.ActivityBonus {
		bonus = "✅ Enabled"
	}

	description := fmt.Sprintf("**Prize:** %s\n", g.Prize)
	if g.Description != "" {
		description += fmt.Sprintf("**Description:** %s\n", g.Description)
	}
	description += fmt.Sprintf(
		"**Winners:** %d\n**Requirements:** %s\n**Ends:** <t:%d:R>\n**Activity Bonus:** %s\n\nClick the buttons below to enter or leave!",
		g.WinnersCount, g.Requirements, g.EndsAt/1000, bonus)

	return &discordgo.MessageEmbed{
		Title:       "🎉 New Giveaway!",
		Description: description,
		Color:       embedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Giveaway ID: " + g.ID},
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		out[opt.Name] = opt
	}
	return out
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, role := range i.Member.Roles {
		for _, admin := range b.cfg.Discord.AdminRoleIDs {
			if role == admin {
				return true
			}
		}
	}
	return false
}

func (b *Bot) respond(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

func (b *Bot) respondError(i *discordgo.InteractionCreate, err error) {
	if appErr, ok := errors.AsAppError(err); ok && !appErr.IsInternal() {
		b.respond(i, appErr.Message)
		return
	}
	logger.Error().Err(err).Msg("Interaction failed")
	b.respond(i, "Something went wrong, please try again later.")
}
