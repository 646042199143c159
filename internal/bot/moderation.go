package bot

import (
	"context"
	"errors"
	"fmt"

	"netbot/internal/common"
	"netbot/internal/moderation"
	"netbot/internal/roblox"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type UserLookup interface {
	Lookup(ctx context.Context, query string) (roblox.Profile, error)
}

func (bot *Bot) findRobloxUser(ctx context.Context, query string) (roblox.Profile, []Response) {
	if bot.services.Roblox == nil {
		log.Warn().Msg("Roblox users API is not configured")
		return roblox.Profile{}, RobloxUnavailable()
	}
	profile, err := bot.services.Roblox.Lookup(ctx, query)
	switch {
	case errors.Is(err, roblox.ErrUserNotFound):
		return roblox.Profile{}, RobloxUserNotFound()
	case err != nil:
		log.Warn().Err(err).Msg(fmt.Sprintf("Could not look up roblox user %s", query))
		return roblox.Profile{}, RobloxUnavailable()
	}
	return profile, nil
}

// Open a moderation card. Nothing is stored until someone confirms it
func (bot *Bot) moderate(ctx context.Context, member *discordgo.Member, guildId string, arguments ModerateArguments) []Response {

	if !bot.permissions.CanModerate(member) {
		return NoPermission("moderate", ROLE_SUPERVISOR)
	}
	profile, failure := bot.findRobloxUser(ctx, arguments.RobloxUser)
	if failure != nil {
		return failure
	}
	previous, err := bot.services.Database.GetModerations(ctx, guildId, profile.Id, PREVIOUS_LIMIT)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not read previous moderations of %d", profile.Id))
		return Internal()
	}

	draft := bot.services.Desk.Hold(moderation.Draft{
		Kind:        moderation.KindNew,
		GuildId:     guildId,
		ModeratorId: common.UserId(member.User.ID),
		RobloxId:    profile.Id,
		Username:    profile.Username(),
		Punishment:  arguments.Punishment,
		Reason:      arguments.Reason,
	})
	log.Info().Str("draft", draft.Id.String()).Msg(fmt.Sprintf("Moderation card for %s (%d) opened by %s", draft.Username, draft.RobloxId, draft.ModeratorId))
	return ModerationPending(draft, profile, previous, bot.config.Location)
}

func (bot *Bot) editModeration(ctx context.Context, member *discordgo.Member, guildId string, arguments EditModerationArguments) []Response {

	if !bot.permissions.CanManageGuild(member) {
		return ManageServerRequired("editmoderation")
	}
	current, err := bot.services.Database.GetModeration(ctx, guildId, arguments.CaseId)
	switch {
	case errors.Is(err, ErrModerationNotFound):
		return ModerationNotFound(arguments.CaseId)
	case err != nil:
		log.Error().Err(err).Msg(fmt.Sprintf("Could not read case %d", arguments.CaseId))
		return Internal()
	}

	draft := bot.services.Desk.Hold(moderation.Draft{
		Kind:        moderation.KindEdit,
		GuildId:     guildId,
		ModeratorId: common.UserId(member.User.ID),
		RobloxId:    current.RobloxId,
		Username:    current.Username,
		CaseId:      current.Id,
		Punishment:  arguments.Punishment,
		Reason:      arguments.Reason,
	})
	return ModerationEditPending(draft, current)
}

func (bot *Bot) lookup(ctx context.Context, guildId string, arguments LookupArguments) []Response {

	profile, failure := bot.findRobloxUser(ctx, arguments.RobloxUser)
	if failure != nil {
		return failure
	}
	records, err := bot.services.Database.GetModerations(ctx, guildId, profile.Id, HISTORY_LIMIT)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not read moderations of %d", profile.Id))
		return Internal()
	}
	if len(records) == 0 {
		return NoModerations(profile)
	}
	return ModerationHistory(profile, records, bot.config.Location)
}

// Stats of the caller, or of the member picked in the command
func (bot *Bot) modStats(ctx context.Context, interaction *discordgo.Interaction, member *discordgo.Member, arguments UserArguments) []Response {

	user, nick := member.User, member.Nick
	if arguments.UserId != "" && string(arguments.UserId) != member.User.ID {
		user, nick = &discordgo.User{ID: string(arguments.UserId)}, ""
		if resolved := interaction.ApplicationCommandData().Resolved; resolved != nil {
			if found, ok := resolved.Users[user.ID]; ok && found != nil {
				user = found
			}
			if found, ok := resolved.Members[user.ID]; ok && found != nil {
				nick = found.Nick
			}
		}
	}
	id := common.UserId(user.ID)

	moderations, err := bot.services.Database.GetModeratorStats(ctx, interaction.GuildID, id)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not read moderation stats of %s", id))
		return Internal()
	}
	shifts, err := bot.services.Database.GetShiftSummary(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not read shift stats of %s", id))
		return Internal()
	}
	loas, err := bot.services.Database.GetLoaStats(ctx, interaction.GuildID, id)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not read LOA stats of %s", id))
		return Internal()
	}

	displayName := nick
	if displayName == "" {
		displayName = user.GlobalName
	}
	if displayName == "" {
		displayName = user.Username
	}
	return ModStats(user, displayName, moderations, shifts, loas)
}

// A click on the confirm or cancel button of a moderation card
func (bot *Bot) resolveDraft(ctx context.Context, interaction *discordgo.Interaction, action string, id uuid.UUID) {

	reply := func(responses []Response) {
		if err := replyInteraction(bot.discord, interaction, responses, true); err != nil {
			log.Error().Err(err).Msg("Could not answer the moderation button")
		}
	}

	member := interaction.Member
	if member == nil || member.User == nil || bot.services.Desk == nil {
		reply(GuildOnly())
		return
	}
	draft, err := bot.services.Desk.Get(id)
	if err != nil {
		reply(DraftExpired())
		return
	}
	if !bot.canResolve(member, draft) {
		reply(DraftNotAllowed(draft.Kind))
		return
	}

	confirmed := action == MODERATION_CONFIRM
	outcome := "canceled"
	if confirmed {
		outcome = "confirmed"
	}
	// Another click may have won the race
	if draft, err = bot.services.Desk.Take(id, outcome); err != nil {
		reply(DraftExpired())
		return
	}

	clicker := common.UserId(member.User.ID)
	responses := ModerationCanceled(draft.Kind)
	if confirmed {
		var applied bool
		if responses, applied = bot.applyDraft(ctx, clicker, draft); !applied {
			reply(responses)
			return
		}
	}

	err = bot.discord.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: ResolvedCard(interaction.Message, DraftStatus(draft.Kind, confirmed, clicker)),
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not update the moderation card")
		return
	}
	if err := followupInteraction(bot.discord, interaction, responses, true); err != nil {
		log.Error().Err(err).Msg("Could not confirm the moderation button")
	}
}

// New cards can be resolved by whoever opened them, edits need manage server
func (bot *Bot) canResolve(member *discordgo.Member, draft moderation.Draft) bool {
	if bot.permissions.CanManageGuild(member) {
		return true
	}
	return draft.Kind == moderation.KindNew && common.UserId(member.User.ID) == draft.ModeratorId
}

// Write the confirmed draft and log it. The bool is false when nothing was written
func (bot *Bot) applyDraft(ctx context.Context, clicker common.UserId, draft moderation.Draft) ([]Response, bool) {

	if draft.Kind == moderation.KindEdit {
		before, err := bot.services.Database.EditModeration(ctx, draft.GuildId, draft.CaseId, draft.Punishment, draft.Reason)
		switch {
		case errors.Is(err, ErrModerationNotFound):
			return ModerationGone(draft.CaseId), false
		case err != nil:
			log.Error().Err(err).Msg(fmt.Sprintf("Could not edit case %d", draft.CaseId))
			return Internal(), false
		}
		log.Info().Msg(fmt.Sprintf("Case #%d edited by %s: %s -> %s", draft.CaseId, clicker, before.Punishment, draft.Punishment))
		bot.botlog(ctx, draft.GuildId, ModerationEdited(before, draft, clicker))
		return ModerationUpdated(draft.CaseId), true
	}

	// The member who confirms is the one on record
	record, err := bot.services.Database.AddModeration(ctx, Moderation{
		GuildId:     draft.GuildId,
		ModeratorId: clicker,
		RobloxId:    draft.RobloxId,
		Username:    draft.Username,
		Punishment:  draft.Punishment,
		Reason:      draft.Reason,
		CreatedAt:   bot.services.Clock.Now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not record moderation")
		return Internal(), false
	}
	log.Info().Msg(fmt.Sprintf("Case #%d recorded: %s for %s (%d)", record.Id, record.Punishment, record.Username, record.RobloxId))
	bot.botlog(ctx, draft.GuildId, ModerationLogged(record, bot.config.Location))
	return ModerationRecorded(record.Id), true
}

// Best effort post to the configured bot log channel
func (bot *Bot) botlog(ctx context.Context, guildId string, response Response) {
	settings, err := bot.services.Database.GetSettings(ctx, guildId)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read guild settings")
		return
	}
	if settings.BotlogChannelId == "" {
		return
	}
	if err := sendResponses(bot.discord, settings.BotlogChannelId, []Response{response}); err != nil {
		log.Warn().Err(err).Msg("Could not post to the bot log")
	}
}
