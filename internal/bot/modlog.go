package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Messages kept in the state cache so deletions can show their content
const MESSAGE_CACHE = 500

func (bot *Bot) onMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	bot.MemberJoined(event.Member)
}

func (bot *Bot) onMessageDelete(session *discordgo.Session, event *discordgo.MessageDelete) {
	bot.MessageDeleted(event)
}

func (bot *Bot) modlog(guildId string, response Response) {

	ctx, cancel := context.WithTimeout(context.Background(), COMMAND_TIMEOUT)
	defer cancel()
	settings, err := bot.services.Database.GetSettings(ctx, guildId)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read guild settings")
		return
	}
	if settings.ModlogChannelId == "" {
		return
	}
	if err := sendResponses(bot.discord, settings.ModlogChannelId, []Response{response}); err != nil {
		log.Warn().Err(err).Msg("Could not post to the mod log")
	}
}

func (bot *Bot) MemberJoined(member *discordgo.Member) {
	if member == nil || member.User == nil || member.GuildID == "" {
		return
	}
	log.Debug().Str("user", member.User.ID).Msg("Member joined")
	bot.modlog(member.GuildID, MemberJoined(member))
}

// Only messages still in the state cache can be logged
func (bot *Bot) MessageDeleted(event *discordgo.MessageDelete) {

	if event.Message == nil {
		return
	}
	message := event.BeforeDelete
	if message == nil {
		log.Debug().Msg(fmt.Sprintf("Deleted message %s was not cached", event.ID))
		return
	}
	if message.Author == nil || message.Author.Bot {
		return
	}
	guildId := event.GuildID
	if guildId == "" {
		guildId = message.GuildID
	}
	if guildId == "" {
		return
	}
	channelId := event.ChannelID
	if channelId == "" {
		channelId = message.ChannelID
	}
	bot.modlog(guildId, MessageDeleted(message, channelId))
}
