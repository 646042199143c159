package bot

import (
	"testing"
	"time"

	"netbot/internal/common"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) ParseResult {
	return Parse(discordgo.ApplicationCommandInteractionData{Name: name, Options: options})
}

func TestParseCommandsWithoutOptions(t *testing.T) {
	for name, command := range map[string]int{
		"ping":        COMMAND_PING,
		"startclock":  COMMAND_STARTCLOCK,
		"endclock":    COMMAND_ENDCLOCK,
		"clockstatus": COMMAND_CLOCKSTATUS,
		"loalist":     COMMAND_LOALIST,
	} {
		result := parse(name)
		assert.Equal(t, PARSEID_OK, result.parseid, name)
		assert.Equal(t, command, result.command, name)
		assert.Nil(t, result.arguments, name)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	result := parse("result")
	assert.Equal(t, PARSEID_COMMAND_NOT_RECOGNISED, result.parseid)
	assert.Equal(t, "Command `result` not recognised", result.errorMessage)
}

func TestParseShift(t *testing.T) {
	result := parse("shift",
		option("game", "MBTA"), option("time", " 4:00 PM "), option("routes", "39"), option("buses_on_duty", "5"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, ShiftArguments{Game: "MBTA", Time: "4:00 PM", Routes: "39", Buses: "5"}, result.arguments)

	result = parse("shift", option("game", "MBTA"), option("time", "4:00 PM"), option("routes", "39"))
	assert.Equal(t, PARSEID_MISSING_OPTION, result.parseid)
	assert.Equal(t, "Command `shift` requires the option `buses_on_duty`", result.errorMessage)

	result = parse("shift", option("game", "MBTA"), option("time", "  "), option("routes", "39"), option("buses_on_duty", "5"))
	assert.Equal(t, PARSEID_MISSING_OPTION, result.parseid)
}

func TestParseMessageOptions(t *testing.T) {
	result := parse("cancelshift", option("message", "https://discord.com/channels/882441222487162912/1329659267963420703/1400000000000000001/"), option("notes", "rain"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, MessageArguments{MessageId: "1400000000000000001", Notes: "rain"}, result.arguments)

	result = parse("shiftstop", option("message", "1400000000000000001"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, COMMAND_SHIFTSTOP, result.command)

	result = parse("shiftstop", option("message", "https://discord.com/channels/1/2/abc"))
	assert.Equal(t, PARSEID_WRONG_OPTION, result.parseid)
}

func TestParseLoaOptions(t *testing.T) {
	result := parse("loarequest", option("days", float64(7)), option("reason", "vacation"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, LoaRequestArguments{Days: 7, Reason: "vacation"}, result.arguments)

	result = parse("loarequest", option("days", float64(0)), option("reason", "vacation"))
	assert.Equal(t, PARSEID_WRONG_OPTION, result.parseid)

	result = parse("loadecide", option("id", float64(3)), option("decision", "Deny"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, LoaDecisionArguments{Id: 3, Approve: false}, result.arguments)

	result = parse("loadecide", option("id", "3"), option("decision", "approve"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, LoaDecisionArguments{Id: 3, Approve: true}, result.arguments)
}

func TestParseUserAndChannelOptions(t *testing.T) {
	result := parse("gpcheck", option("user", "111"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, UserArguments{common.UserId("111")}, result.arguments)

	result = parse("clockreset")
	assert.Equal(t, PARSEID_MISSING_OPTION, result.parseid)

	result = parse("netconfig", option("botlog_channel", "1"), option("loa_channel", "2"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, ConfigArguments{BotlogChannelId: "1", LoaChannelId: "2"}, result.arguments)
}

func TestParseMessageId(t *testing.T) {
	id, err := ParseMessageId("1329659267963420703")
	require.NoError(t, err)
	assert.Equal(t, "1329659267963420703", id)

	id, err = ParseMessageId("https://discord.com/channels/882441222487162912/1329659267963420703/1400000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1400000000000000001", id)

	for _, text := range []string{"", "abc", "https://discord.com/channels/", "-5"} {
		_, err := ParseMessageId(text)
		assert.Error(t, err, text)
	}
}

func TestParseTime(t *testing.T) {
	location, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 1 PM in New York
	now := time.Date(2025, 9, 23, 17, 0, 0, 0, time.UTC)
	at := func(year int, month time.Month, day int, hour int, minute int) time.Time {
		return time.Date(year, month, day, hour, minute, 0, 0, location)
	}

	cases := map[string]time.Time{
		"4:00 PM":               at(2025, 9, 23, 16, 0),
		"4:00pm":                at(2025, 9, 23, 16, 0),
		"4:00PM":                at(2025, 9, 23, 16, 0),
		"16:00":                 at(2025, 9, 23, 16, 0),
		"9:00 AM":               at(2025, 9, 24, 9, 0),
		"13:00":                 at(2025, 9, 24, 13, 0),
		"today 9:00 AM":         at(2025, 9, 23, 9, 0),
		"Tomorrow 16:00":        at(2025, 9, 24, 16, 0),
		"2025-09-30 16:00":      at(2025, 9, 30, 16, 0),
		"2025/09/30 4:00 PM":    at(2025, 9, 30, 16, 0),
		"9/30/2025 16:00":       at(2025, 9, 30, 16, 0),
		"9/30 4:00 PM":          at(2025, 9, 30, 16, 0),
		"10/1 8:15":             at(2025, 10, 1, 8, 15),
		"Tue 09/30/2025 16:00":  at(2025, 9, 30, 16, 0),
		"tue 9/30/2025 4:00 PM": at(2025, 9, 30, 16, 0),
	}
	for text, expected := range cases {
		when, err := ParseTime(text, location, now)
		if assert.NoError(t, err, text) {
			assert.True(t, expected.Equal(when), "%s: expected %s, got %s", text, expected, when)
		}
	}

	for _, text := range []string{"today", "tomorrow soon", "whenever", "25:00", "13/45 4:00 PM"} {
		_, err := ParseTime(text, location, now)
		assert.Error(t, err, text)
	}
}

func TestParseModerationCommands(t *testing.T) {
	result := parse("moderate", option("roblox_user", " BusDriver "), option("punishment", "server ban"), option("reason", "ramming"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, COMMAND_MODERATE, result.command)
	assert.Equal(t, ModerateArguments{RobloxUser: "BusDriver", Punishment: "Server Ban", Reason: "ramming"}, result.arguments)

	result = parse("moderate", option("roblox_user", "BusDriver"), option("punishment", "exile"), option("reason", "ramming"))
	assert.Equal(t, PARSEID_WRONG_OPTION, result.parseid)
	assert.Contains(t, result.errorMessage, "use one of Warning, Mute")

	result = parse("moderate", option("roblox_user", "BusDriver"), option("punishment", "Kick"))
	assert.Equal(t, PARSEID_MISSING_OPTION, result.parseid)

	result = parse("editmoderation", option("case_id", float64(4)), option("punishment", "Mute"), option("reason", "spam"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, COMMAND_EDITMOD, result.command)
	assert.Equal(t, EditModerationArguments{CaseId: 4, Punishment: "Mute", Reason: "spam"}, result.arguments)

	result = parse("editmoderation", option("case_id", float64(0)), option("punishment", "Mute"), option("reason", "spam"))
	assert.Equal(t, PARSEID_WRONG_OPTION, result.parseid)

	result = parse("lookup", option("roblox_user", "146941966"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, LookupArguments{RobloxUser: "146941966"}, result.arguments)

	result = parse("lookup")
	assert.Equal(t, PARSEID_MISSING_OPTION, result.parseid)

	result = parse("modstats")
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, UserArguments{}, result.arguments)

	result = parse("modstats", option("member", "11"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, UserArguments{common.UserId("11")}, result.arguments)

	result = parse("netconfig", option("botlog_channel", "1"), option("loa_channel", "2"), option("modlog_channel", "3"))
	require.Equal(t, PARSEID_OK, result.parseid)
	assert.Equal(t, ConfigArguments{BotlogChannelId: "1", LoaChannelId: "2", ModlogChannelId: "3"}, result.arguments)
}
