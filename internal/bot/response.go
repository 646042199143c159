package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// The subset of the discord session the bot talks through
type Discord interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type ResponseString struct {
	string
}
type ResponseEmbed struct {
	discordgo.MessageEmbed
}

// Content, embed, buttons and reply reference in one message
type ResponseMessage struct {
	discordgo.MessageSend
}

type Response interface {
	Message() *discordgo.MessageSend
}

func (response ResponseString) Message() *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: response.string}
}

func (response ResponseEmbed) Message() *discordgo.MessageSend {
	embed := response.MessageEmbed
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{&embed}}
}

func (response ResponseMessage) Message() *discordgo.MessageSend {
	message := response.MessageSend
	return &message
}

// Send each response as its own message
func sendResponses(discord Discord, channelId string, responses []Response) error {
	for _, response := range responses {
		if _, err := discord.ChannelMessageSendComplex(channelId, response.Message()); err != nil {
			return fmt.Errorf("could not send message to channel %s: %w", channelId, err)
		}
	}
	return nil
}

// Post a reply to a message, or a plain message when the original cannot be replied to
func sendReply(discord Discord, channelId string, messageId string, response Response) error {

	message := response.Message()
	message.Reference = &discordgo.MessageReference{MessageID: messageId, ChannelID: channelId}
	_, err := discord.ChannelMessageSendComplex(channelId, message)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Msg(fmt.Sprintf("Could not reply to message %s, posting in the channel instead", messageId))
	message.Reference = nil
	if _, err := discord.ChannelMessageSendComplex(channelId, message); err != nil {
		return fmt.Errorf("could not post to channel %s: %w", channelId, err)
	}
	return nil
}

// Interactions accept a single message, so the responses are merged into one
func mergeResponses(responses []Response, ephemeral bool) *discordgo.InteractionResponseData {

	data := &discordgo.InteractionResponseData{}
	contents := []string{}
	for _, response := range responses {
		message := response.Message()
		if message.Content != "" {
			contents = append(contents, message.Content)
		}
		data.Embeds = append(data.Embeds, message.Embeds...)
		data.Components = append(data.Components, message.Components...)
		if message.AllowedMentions != nil {
			data.AllowedMentions = message.AllowedMentions
		}
	}
	data.Content = strings.Join(contents, "\n")
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

func replyInteraction(discord Discord, interaction *discordgo.Interaction, responses []Response, ephemeral bool) error {
	return discord.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: mergeResponses(responses, ephemeral),
	})
}

// Acknowledge now and answer later with followupInteraction
func deferInteraction(discord Discord, interaction *discordgo.Interaction, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return discord.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

func followupInteraction(discord Discord, interaction *discordgo.Interaction, responses []Response, ephemeral bool) error {
	data := mergeResponses(responses, ephemeral)
	_, err := discord.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
		Content:         data.Content,
		Embeds:          data.Embeds,
		Components:      data.Components,
		AllowedMentions: data.AllowedMentions,
		Flags:           data.Flags,
	})
	return err
}
