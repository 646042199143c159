package bot

import (
	"netbot/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

// Slash commands registered in the guild on startup
func Commands() []*discordgo.ApplicationCommand {

	minDays := 1.0
	minCase := 1.0
	punishments := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(moderation.PUNISHMENTS))
	for _, punishment := range moderation.PUNISHMENTS {
		punishments = append(punishments, &discordgo.ApplicationCommandOptionChoice{Name: punishment, Value: punishment})
	}
	manageServer := int64(discordgo.PermissionManageServer)
	textChannels := []discordgo.ChannelType{discordgo.ChannelTypeGuildText}
	messageOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "message",
		Description: "Message ID or link of the original shift announcement",
		Required:    true,
	}

	return []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Check that the bot is alive"},
		{Name: "help", Description: "Print the usage of the different commands"},
		{Name: "startclock", Description: "Start your staff clock (must be in Roblox game)"},
		{Name: "endclock", Description: "End your current staff clock"},
		{
			Name:        "clockreset",
			Description: "(Lead+) Force end a user's shift",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member whose shift to end", Required: true},
			},
		},
		{Name: "clockstatus", Description: "Show who is on the clock and your logged time"},
		{Name: "ingame", Description: "Show who the Roblox game reports as in game"},
		{
			Name:        "shift",
			Description: "Create a shift announcement for MBTA/WRTA and track attendees via :net: reaction",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Select the game (MBTA or WRTA)",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "MBTA", Value: "MBTA"},
						{Name: "WRTA", Value: "WRTA"},
					},
				},
				{Type: discordgo.ApplicationCommandOptionString, Name: "time", Description: "Shift date & time (e.g. '4:00 PM', 'today 4:00 PM', or '9/23 16:00')", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "routes", Description: "Routes to run", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "buses_on_duty", Description: "Buses on duty", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "notes", Description: "Extra notes to show in the announcement"},
			},
		},
		{
			Name:        "cancelshift",
			Description: "Cancel a posted shift (stops its follow-up and notifies attendees)",
			Options: []*discordgo.ApplicationCommandOption{
				messageOption,
				{Type: discordgo.ApplicationCommandOptionString, Name: "notes", Description: "Extra notes to include in the cancel message"},
			},
		},
		{
			Name:        "shiftstop",
			Description: "Announce that a shift is over (no pings)",
			Options:     []*discordgo.ApplicationCommandOption{messageOption},
		},
		{
			Name:        "loarequest",
			Description: "Request an LOA for a number of days",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "How many days you will be on LOA", Required: true, MinValue: &minDays},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for your LOA", Required: true},
			},
		},
		{Name: "loalist", Description: "List LOAs in this server"},
		{
			Name:        "loadecide",
			Description: "(Lead+) Approve or deny a pending LOA",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Number of the LOA, as shown by /loalist", Required: true},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "decision",
					Description: "Approve or deny",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Approve", Value: "approve"},
						{Name: "Deny", Value: "deny"},
					},
				},
			},
		},
		{
			Name:        "netconfig",
			Description: "Configure the main channels for the NET bot (Lead Supervisor+)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "botlog_channel", Description: "Channel where bot logs (shifts, LOAs, etc.) will be sent", Required: true, ChannelTypes: textChannels},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "loa_channel", Description: "Channel where LOA approval/denial feed will be sent", Required: true, ChannelTypes: textChannels},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "modlog_channel", Description: "Channel for member joins and deleted messages", ChannelTypes: textChannels},
			},
		},
		{
			Name:        "gpcheck",
			Description: "Check configured gamepasses for a user's linked Roblox account",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Discord user to check", Required: true},
			},
		},
		{
			Name:        "moderate",
			Description: "Open a Roblox moderation card for confirmation",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "roblox_user", Description: "Roblox username or numeric user ID", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "punishment", Description: "Type of punishment", Required: true, Choices: punishments},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for the moderation", Required: true},
			},
		},
		{
			Name:                     "editmoderation",
			Description:              "Edit a logged moderation case",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "case_id", Description: "The moderation case ID to edit", Required: true, MinValue: &minCase},
				{Type: discordgo.ApplicationCommandOptionString, Name: "punishment", Description: "New punishment for this case", Required: true, Choices: punishments},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "New reason for this case", Required: true},
			},
		},
		{
			Name:        "lookup",
			Description: "Look up all moderations for a Roblox user",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "roblox_user", Description: "Roblox username or numeric user ID to look up", Required: true},
			},
		},
		{
			Name:        "modstats",
			Description: "View staff moderation, shift, and LOA stats",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Staff member to view stats for, defaults to yourself"},
			},
		},
	}
}
