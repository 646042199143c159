package bot

import (
	"context"
	"fmt"

	"netbot/internal/common"
	"netbot/internal/shift"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Delivers the shift manager's messages through discord
type Notifier struct {
	discord  Discord
	database *DatabaseBot
	guildId  string
}

func NewNotifier(discord Discord, database *DatabaseBot, guildId string) *Notifier {
	return &Notifier{discord: discord, database: database, guildId: guildId}
}

// The bot log channel when configured, else the channel the shift was started from
func (notifier *Notifier) ShiftEnded(record shift.Record) error {

	channelId := record.ChannelId
	if notifier.database != nil {
		settings, err := notifier.database.GetSettings(context.Background(), notifier.guildId)
		if err != nil {
			log.Warn().Err(err).Msg("Could not read guild settings, using the shift channel")
		} else if settings.BotlogChannelId != "" {
			channelId = settings.BotlogChannelId
		}
	}
	if channelId == "" {
		return fmt.Errorf("no channel to log the shift of %s", record.UserId)
	}
	log.Debug().Msg(fmt.Sprintf("Logging end of shift of %s to channel %s", record.UserId, channelId))
	return sendResponses(notifier.discord, channelId, []Response{ShiftEnded(record)})
}

func (notifier *Notifier) Direct(id common.UserId, content string) error {
	channel, err := notifier.discord.UserChannelCreate(string(id))
	if err != nil {
		return fmt.Errorf("could not open DM channel with %s: %w", id, err)
	}
	_, err = notifier.discord.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{Content: content})
	if err != nil {
		return fmt.Errorf("could not DM %s: %w", id, err)
	}
	return nil
}
