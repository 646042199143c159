package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"netbot/internal/bloxlink"
	"netbot/internal/common"
	"netbot/internal/moderation"
	"netbot/internal/presence"
	"netbot/internal/roblox"
	"netbot/internal/shift"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// How long a command may spend on outside calls
const COMMAND_TIMEOUT = 30 * time.Second

// Replies everybody in the channel can see, the rest are ephemeral
var publicCommands = map[int]bool{
	COMMAND_PING:        true,
	COMMAND_HELP:        true,
	COMMAND_CLOCKSTATUS: true,
	COMMAND_INGAME:      true,
	COMMAND_MODERATE:    true,
	COMMAND_MODSTATS:    true,
}

// Commands that call outside services answer after a deferred acknowledgement
var slowCommands = map[int]bool{
	COMMAND_GPCHECK:  true,
	COMMAND_MODERATE: true,
	COMMAND_LOOKUP:   true,
}

type Linker interface {
	DiscordToRoblox(ctx context.Context, discordId common.UserId) (common.RobloxId, error)
}

type GamepassChecker interface {
	CheckGamepasses(ctx context.Context, user common.RobloxId, gamepasses []common.Gamepass) []roblox.Ownership
}

// Everything the bot works with, built once in main
type Services struct {
	Database  *DatabaseBot
	Notifier  shift.Notifier
	Presence  *presence.Registry
	Shifts    *shift.Manager
	Board     *shift.Board
	Bloxlink  Linker
	Inventory GamepassChecker
	Roblox    UserLookup
	Desk      *moderation.Desk
	Clock     common.Clock
}

type Bot struct {
	config      common.Config
	permissions Permissions
	discord     Discord
	services    Services
	userId      atomic.Value
}

func CreateBot(config common.Config, discord Discord, services Services) *Bot {
	bot := &Bot{
		config:      config,
		permissions: Permissions{SupervisorRoleId: config.SupervisorRoleId, LeadSupervisorRoleId: config.LeadSupervisorRoleId},
		discord:     discord,
		services:    services,
	}
	bot.userId.Store("")
	return bot
}

// Connect to discord and serve until the context is done
func (bot *Bot) Run(ctx context.Context, session *discordgo.Session) error {

	// Members and message content are privileged, the mod log needs both
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	session.State.MaxMessageCount = MESSAGE_CACHE
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onInteraction)
	session.AddHandler(bot.onReactionAdd)
	session.AddHandler(bot.onMemberAdd)
	session.AddHandler(bot.onMessageDelete)

	if err := session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer session.Close()

	log.Info().Msg("Bot is connected, waiting for events")
	<-ctx.Done()
	log.Info().Msg("Closing discord session")
	return nil
}

func (bot *Bot) onReady(session *discordgo.Session, ready *discordgo.Ready) {

	bot.userId.Store(ready.User.ID)
	log.Info().Msg(fmt.Sprintf("Logged in as %s", ready.User.Username))

	if bot.config.GuildId == "" {
		log.Warn().Msg("GUILD_ID is not set, registering the commands globally")
	}
	registered, err := session.ApplicationCommandBulkOverwrite(ready.User.ID, bot.config.GuildId, Commands())
	if err != nil {
		log.Error().Err(err).Msg("Could not register slash commands")
		return
	}
	log.Info().Msg(fmt.Sprintf("Registered %d slash commands", len(registered)))
}

func (bot *Bot) onInteraction(session *discordgo.Session, event *discordgo.InteractionCreate) {
	bot.Interact(event.Interaction)
}

func (bot *Bot) onReactionAdd(session *discordgo.Session, event *discordgo.MessageReactionAdd) {
	bot.React(event.MessageReaction)
}

func (bot *Bot) selfId() string {
	return bot.userId.Load().(string)
}

// Answer a slash command or a button press
func (bot *Bot) Interact(interaction *discordgo.Interaction) {

	switch interaction.Type {
	case discordgo.InteractionMessageComponent:
		data := interaction.MessageComponentData()
		if data.CustomID == SHIFT_HELP_BUTTON {
			if err := replyInteraction(bot.discord, interaction, ShiftHelp(), true); err != nil {
				log.Error().Err(err).Msg("Could not answer the shift help button")
			}
			return
		}
		if action, id, ok := parseModerationButton(data.CustomID); ok {
			ctx, cancel := context.WithTimeout(context.Background(), COMMAND_TIMEOUT)
			defer cancel()
			bot.resolveDraft(ctx, interaction, action, id)
			return
		}
		log.Debug().Msg(fmt.Sprintf("Ignoring component %s", data.CustomID))
	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		parseResult := Parse(data)
		if parseResult.parseid != PARSEID_OK {
			log.Info().Msg(fmt.Sprintf("Wrong input for /%s. Reason: %s", data.Name, parseResult.errorMessage))
			if err := replyInteraction(bot.discord, interaction, InputNotValid(parseResult.errorMessage), true); err != nil {
				log.Error().Err(err).Msg("Could not answer the interaction")
			}
			return
		}
		log.Info().Msg(fmt.Sprintf("Command understood: /%s", data.Name))

		ephemeral := !publicCommands[parseResult.command]
		ctx, cancel := context.WithTimeout(context.Background(), COMMAND_TIMEOUT)
		defer cancel()

		if slowCommands[parseResult.command] {
			if err := deferInteraction(bot.discord, interaction, ephemeral); err != nil {
				log.Error().Err(err).Msg("Could not acknowledge the interaction")
				return
			}
			responses := bot.Execute(ctx, interaction, parseResult)
			if err := followupInteraction(bot.discord, interaction, responses, ephemeral); err != nil {
				log.Error().Err(err).Msg("Could not send the interaction followup")
			}
			return
		}
		responses := bot.Execute(ctx, interaction, parseResult)
		if err := replyInteraction(bot.discord, interaction, responses, ephemeral); err != nil {
			log.Error().Err(err).Msg("Could not answer the interaction")
		}
	default:
		log.Debug().Msg(fmt.Sprintf("Ignoring interaction of type %s", interaction.Type))
	}
}

// Run a parsed command and return what to answer
func (bot *Bot) Execute(ctx context.Context, interaction *discordgo.Interaction, parseResult ParseResult) []Response {

	switch parseResult.command {
	case COMMAND_PING:
		return Pong()
	case COMMAND_HELP:
		return HelpMessage()
	}

	// Everything else needs a guild member
	member := interaction.Member
	if member == nil || member.User == nil || interaction.GuildID == "" {
		return GuildOnly()
	}

	switch parseResult.command {
	case COMMAND_STARTCLOCK:
		return bot.startClock(member, interaction.ChannelID)
	case COMMAND_ENDCLOCK:
		return bot.endClock(member)
	case COMMAND_CLOCKRESET:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case UserArguments:
			return bot.clockReset(member, arguments)
		}
	case COMMAND_CLOCKSTATUS:
		return bot.clockStatus(ctx, member)
	case COMMAND_INGAME:
		return InGame(bot.services.Presence.Present())
	case COMMAND_SHIFT:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case ShiftArguments:
			return bot.postShift(member, arguments)
		}
	case COMMAND_CANCELSHIFT:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case MessageArguments:
			return bot.cancelShift(member, arguments)
		}
	case COMMAND_SHIFTSTOP:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case MessageArguments:
			return bot.stopShift(member, arguments)
		}
	case COMMAND_LOAREQUEST:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case LoaRequestArguments:
			return bot.requestLoa(ctx, member, interaction.GuildID, arguments)
		}
	case COMMAND_LOALIST:
		return bot.listLoas(ctx, interaction.GuildID)
	case COMMAND_LOADECIDE:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case LoaDecisionArguments:
			return bot.decideLoa(ctx, member, interaction.GuildID, arguments)
		}
	case COMMAND_NETCONFIG:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case ConfigArguments:
			return bot.configure(ctx, member, interaction.GuildID, arguments)
		}
	case COMMAND_GPCHECK:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case UserArguments:
			return bot.checkGamepasses(ctx, arguments)
		}
	case COMMAND_MODERATE:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case ModerateArguments:
			return bot.moderate(ctx, member, interaction.GuildID, arguments)
		}
	case COMMAND_EDITMOD:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case EditModerationArguments:
			return bot.editModeration(ctx, member, interaction.GuildID, arguments)
		}
	case COMMAND_LOOKUP:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case LookupArguments:
			return bot.lookup(ctx, interaction.GuildID, arguments)
		}
	case COMMAND_MODSTATS:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of arguments %T", arguments))
		case UserArguments:
			return bot.modStats(ctx, interaction, member, arguments)
		}
	}
	panic(fmt.Sprintf("Command %d is not one of the possible ones", parseResult.command))
}

func (bot *Bot) startClock(member *discordgo.Member, channelId string) []Response {

	id := common.UserId(member.User.ID)
	options := shift.StartOptions{Origin: shift.OriginManual, ChannelId: channelId}
	if reminder := bot.config.ShiftReminder; reminder > 0 && bot.services.Notifier != nil {
		options.FollowupAt = bot.services.Clock.Now().Add(reminder)
		options.Followup = func(handle shift.Handle) error {
			return bot.services.Notifier.Direct(handle.UserId, ShiftReminder(bot.services.Clock.Now().Sub(handle.StartedAt)))
		}
	}

	handle, err := bot.services.Shifts.Start(id, options)
	switch {
	case errors.Is(err, shift.ErrNotPresent):
		return NotInGame()
	case errors.Is(err, shift.ErrAlreadyActive):
		return ShiftAlreadyActive(handle)
	case err != nil:
		log.Error().Err(err).Msg(fmt.Sprintf("Could not start shift of %s", id))
		return Internal()
	}
	if options.Followup != nil {
		return append(ShiftStarted(handle), ShiftReminderScheduled(bot.config.ShiftReminder)...)
	}
	return ShiftStarted(handle)
}

func (bot *Bot) endClock(member *discordgo.Member) []Response {
	duration, err := bot.services.Shifts.End(common.UserId(member.User.ID), "Manual /endclock")
	if err != nil {
		return NoActiveShift()
	}
	return ShiftEndedByUser(duration)
}

func (bot *Bot) clockReset(member *discordgo.Member, arguments UserArguments) []Response {
	if !bot.permissions.CanResetClocks(member) {
		return NoPermission("clockreset", ROLE_LEAD_SUPERVISOR)
	}
	duration, err := bot.services.Shifts.ForceEnd(common.UserId(member.User.ID), arguments.UserId)
	if err != nil {
		return UserHasNoActiveShift()
	}
	return ShiftForceEnded(arguments.UserId, duration)
}

func (bot *Bot) clockStatus(ctx context.Context, member *discordgo.Member) []Response {

	id := common.UserId(member.User.ID)
	own, ownActive := bot.services.Shifts.Active(id)
	var summary ShiftSummary
	if bot.services.Database != nil {
		var err error
		if summary, err = bot.services.Database.GetShiftSummary(ctx, id); err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Could not read the shift summary of %s", id))
		}
	}
	return ClockStatus(bot.services.Shifts.ActiveShifts(), bot.services.Clock.Now(), own, ownActive, summary)
}

func (bot *Bot) postShift(member *discordgo.Member, arguments ShiftArguments) []Response {

	if !bot.permissions.IsSupervisor(member) {
		return NoPermission("shift", ROLE_SUPERVISOR)
	}
	when, err := ParseTime(arguments.Time, bot.config.Location, bot.services.Clock.Now())
	if err != nil {
		return TimeNotValid(err)
	}
	if bot.config.ShiftsChannelId == "" {
		return ShiftsChannelMissing()
	}

	host := common.UserId(member.User.ID)
	announcement := ShiftAnnouncement(arguments, when, host, bot.config.RunsNotifiedRoleId, bot.config.NetEmoji)
	posted, err := bot.discord.ChannelMessageSendComplex(bot.config.ShiftsChannelId, announcement.Message())
	if err != nil {
		log.Error().Err(err).Msg("Could not post the shift announcement")
		return ShiftsChannelMissing()
	}
	if err := bot.discord.MessageReactionAdd(posted.ChannelID, posted.ID, reactionName(bot.config.NetEmoji)); err != nil {
		log.Warn().Err(err).Msg("Could not add the NET reaction")
		if err := sendResponses(bot.discord, posted.ChannelID, ReactionFailed()); err != nil {
			log.Warn().Err(err).Msg("Could not warn about the NET reaction")
		}
	}

	bot.services.Board.Post(shift.Announcement{
		MessageId: posted.ID,
		ChannelId: posted.ChannelID,
		HostId:    host,
		Game:      arguments.Game,
		When:      when,
	}, bot.shiftHappening)
	return ShiftPosted(posted.ChannelID)
}

// Followup of an announcement, posted under it at the shift time
func (bot *Bot) shiftHappening(announcement shift.Announcement) error {
	image := shiftImages[rand.Intn(len(shiftImages))]
	if err := sendReply(bot.discord, announcement.ChannelId, announcement.MessageId, ShiftHappening(announcement, image)); err != nil {
		return err
	}
	log.Info().Msg(fmt.Sprintf("[shift] followup: posted under %s", announcement.MessageId))
	return nil
}

func (bot *Bot) cancelShift(member *discordgo.Member, arguments MessageArguments) []Response {

	if !bot.permissions.IsSupervisor(member) {
		return NoPermission("cancelshift", ROLE_SUPERVISOR)
	}
	announcement, err := bot.services.Board.Cancel(arguments.MessageId)
	switch {
	case errors.Is(err, shift.ErrUnknownAnnouncement):
		return ShiftNotTracked()
	case errors.Is(err, shift.ErrAnnouncementCanceled):
		return ShiftAlreadyCanceled()
	case err != nil:
		return Internal()
	}
	if err := sendReply(bot.discord, announcement.ChannelId, announcement.MessageId, ShiftCanceled(announcement, arguments.Notes, bot.config.Location)); err != nil {
		log.Error().Err(err).Msg("Could not post the shift cancellation")
		return Internal()
	}
	return ShiftCanceledConfirmation()
}

func (bot *Bot) stopShift(member *discordgo.Member, arguments MessageArguments) []Response {

	if !bot.permissions.IsSupervisor(member) {
		return NoPermission("shiftstop", ROLE_SUPERVISOR)
	}
	announcement, err := bot.services.Board.Conclude(arguments.MessageId)
	if err != nil {
		return ShiftNotTracked()
	}
	if err := sendReply(bot.discord, announcement.ChannelId, announcement.MessageId, ShiftOver()); err != nil {
		log.Error().Err(err).Msg("Could not post the end of the shift")
		return Internal()
	}
	return ShiftOverConfirmation()
}

func (bot *Bot) requestLoa(ctx context.Context, member *discordgo.Member, guildId string, arguments LoaRequestArguments) []Response {

	start := bot.services.Clock.Now()
	loa, err := bot.services.Database.AddLoa(ctx, Loa{
		UserId:  common.UserId(member.User.ID),
		GuildId: guildId,
		Reason:  arguments.Reason,
		Start:   start,
		End:     start.AddDate(0, 0, arguments.Days),
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not store LOA request")
		return Internal()
	}
	log.Info().Msg(fmt.Sprintf("LOA #%d requested by %s for %d days", loa.Id, loa.UserId, arguments.Days))
	return LoaRequested(loa, arguments.Days)
}

func (bot *Bot) listLoas(ctx context.Context, guildId string) []Response {
	loas, err := bot.services.Database.GetLoas(ctx, guildId)
	if err != nil {
		log.Error().Err(err).Msg("Could not list LOAs")
		return Internal()
	}
	return LoaList(loas)
}

func (bot *Bot) decideLoa(ctx context.Context, member *discordgo.Member, guildId string, arguments LoaDecisionArguments) []Response {

	if !bot.permissions.IsLeadPlus(member) {
		return NoPermission("loadecide", ROLE_LEAD_SUPERVISOR)
	}
	loa, err := bot.services.Database.DecideLoa(ctx, guildId, arguments.Id, arguments.Approve, common.UserId(member.User.ID))
	switch {
	case errors.Is(err, ErrLoaNotFound):
		return LoaNotFound(arguments.Id)
	case errors.Is(err, ErrLoaDecided):
		return LoaAlreadyDecided(loa)
	case err != nil:
		log.Error().Err(err).Msg("Could not decide LOA")
		return Internal()
	}
	log.Info().Msg(fmt.Sprintf("LOA #%d %s by %s", loa.Id, loa.Status, loa.DecidedBy))

	// Feed and DM are best effort
	settings, err := bot.services.Database.GetSettings(ctx, guildId)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read guild settings")
	} else if settings.LoaChannelId != "" {
		if err := sendResponses(bot.discord, settings.LoaChannelId, []Response{LoaFeed(loa)}); err != nil {
			log.Warn().Err(err).Msg("Could not post to the LOA channel")
		}
	}
	if bot.services.Notifier != nil {
		if err := bot.services.Notifier.Direct(loa.UserId, LoaDecisionMessage(loa)); err != nil {
			log.Info().Err(err).Msg(fmt.Sprintf("Unable to DM %s about their LOA", loa.UserId))
		}
	}
	return LoaDecided(loa)
}

func (bot *Bot) configure(ctx context.Context, member *discordgo.Member, guildId string, arguments ConfigArguments) []Response {

	if !bot.permissions.IsLeadPlus(member) {
		return NoPermission("netconfig", ROLE_LEAD_SUPERVISOR)
	}
	settings := GuildSettings{GuildId: guildId, BotlogChannelId: arguments.BotlogChannelId, LoaChannelId: arguments.LoaChannelId, ModlogChannelId: arguments.ModlogChannelId}
	if settings.ModlogChannelId == "" {
		current, err := bot.services.Database.GetSettings(ctx, guildId)
		if err != nil {
			log.Error().Err(err).Msg("Could not read guild settings")
			return Internal()
		}
		settings.ModlogChannelId = current.ModlogChannelId
	}
	if err := bot.services.Database.SetSettings(ctx, settings); err != nil {
		log.Error().Err(err).Msg("Could not store guild settings")
		return Internal()
	}
	log.Info().Msg(fmt.Sprintf("Guild %s now logs to %s and posts LOAs to %s", guildId, settings.BotlogChannelId, settings.LoaChannelId))
	return ConfigUpdated(settings)
}

func (bot *Bot) checkGamepasses(ctx context.Context, arguments UserArguments) []Response {

	if bot.services.Bloxlink == nil || bot.services.Inventory == nil {
		log.Warn().Msg("Bloxlink is not configured, /gpcheck will not work")
		return BloxlinkUnavailable()
	}
	robloxId, err := bot.services.Bloxlink.DiscordToRoblox(ctx, arguments.UserId)
	switch {
	case errors.Is(err, bloxlink.ErrNotLinked):
		return NotLinked(arguments.UserId)
	case err != nil:
		log.Warn().Err(err).Msg(fmt.Sprintf("[bloxlink] could not look up %s", arguments.UserId))
		return BloxlinkUnavailable()
	}
	ownerships := bot.services.Inventory.CheckGamepasses(ctx, robloxId, bot.config.Gamepasses)
	return GamepassCheck(arguments.UserId, robloxId, ownerships)
}

// Reactions with the NET emoji on a tracked announcement register attendees
func (bot *Bot) React(reaction *discordgo.MessageReaction) {

	if reaction.UserID == bot.selfId() || !emojiMatches(bot.config.NetEmoji, reaction.Emoji) {
		return
	}
	if err := bot.services.Board.Attend(reaction.MessageID, common.UserId(reaction.UserID)); err != nil {
		log.Debug().Msg(fmt.Sprintf("Reaction on message %s that is not a tracked shift", reaction.MessageID))
		return
	}
	log.Info().Str("user", reaction.UserID).Msg(fmt.Sprintf("[shift] attendee registered for %s", reaction.MessageID))
}

// Custom emojis are configured as "<:name:id>" or "<a:name:id>"
func customEmoji(configured string) (string, string, bool) {
	if !strings.HasPrefix(configured, "<") || !strings.HasSuffix(configured, ">") {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(configured, "<>"), ":")
	if len(parts) != 3 || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func emojiMatches(configured string, emoji discordgo.Emoji) bool {
	if _, id, ok := customEmoji(configured); ok {
		return emoji.ID == id
	}
	return emoji.ID == "" && emoji.Name == configured
}

// The form the reaction endpoint expects
func reactionName(configured string) string {
	if name, id, ok := customEmoji(configured); ok {
		return name + ":" + id
	}
	return configured
}
