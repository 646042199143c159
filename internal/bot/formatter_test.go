package bot

import (
	"testing"
	"time"

	"netbot/internal/common"
	"netbot/internal/roblox"
	"netbot/internal/shift"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                             "0s",
		500 * time.Millisecond:        "0s",
		45 * time.Second:              "45s",
		time.Minute + 30*time.Second:  "1m",
		time.Hour + 5*time.Minute:     "1h 5m",
		2 * time.Hour:                 "2h",
		26*time.Hour + 59*time.Second: "26h",
		-5 * time.Minute:              "0s",
	}
	for duration, expected := range cases {
		assert.Equal(t, expected, FormatDuration(duration), duration.String())
	}
}

func TestTimestamp(t *testing.T) {
	assert.Equal(t, "<t:1740852000:t>", Timestamp(epoch, TIMESTAMP_SHORT))
	assert.Equal(t, "<t:1740852000:R>", Timestamp(epoch, TIMESTAMP_RELATIVE))
}

func TestShiftEndedEmbed(t *testing.T) {
	record := shift.Record{
		Handle:   shift.Handle{Id: uuid.New(), UserId: "42", StartedAt: epoch},
		EndedAt:  epoch.Add(90 * time.Minute),
		Duration: 90 * time.Minute,
		Reason:   "Manual /endclock",
	}
	message := ShiftEnded(record).Message()
	require.Len(t, message.Embeds, 1)
	embed := message.Embeds[0]
	assert.Equal(t, "Shift Ended", embed.Title)
	assert.Contains(t, embed.Description, "**Staff:** <@42>")
	assert.Contains(t, embed.Description, "**Duration:** 1h 30m")
	assert.Contains(t, embed.Description, "**Reason:** Manual /endclock")
	assert.Equal(t, "2025-03-01T19:30:00Z", embed.Timestamp)
}

func TestInGame(t *testing.T) {
	assert.Equal(t, "Nobody is in the Roblox game right now.", InGame(nil)[0].Message().Content)
	assert.Equal(t, "🎮 In game (2): <@1> <@2>", InGame([]common.UserId{"1", "2"})[0].Message().Content)
}

func TestGamepassCheckLines(t *testing.T) {
	ownerships := []roblox.Ownership{
		{Gamepass: common.Gamepass{Id: 1, Name: "Freedrive Access"}, Owned: true},
		{Gamepass: common.Gamepass{Id: 2, Name: "2x Cash"}, Owned: false},
		{Gamepass: common.Gamepass{Id: 3, Name: "Transit Police"}, Err: assert.AnError},
	}
	message := GamepassCheck("111", 146941966, ownerships)[0].Message()
	require.Len(t, message.Embeds, 1)
	description := message.Embeds[0].Description
	assert.Contains(t, description, "✅ **Freedrive Access** (`1`): Owned")
	assert.Contains(t, description, "❌ **2x Cash** (`2`): Not owned")
	assert.Contains(t, description, "⚠️ **Transit Police** (`3`): Unknown (API error)")
}

func TestLoaList(t *testing.T) {
	assert.Equal(t, "No LOAs recorded in this server.", LoaList(nil)[0].Message().Content)

	loa := Loa{Id: 4, UserId: "7", Reason: "exams", Start: epoch, End: epoch.AddDate(0, 0, 3), Status: LOA_PENDING}
	message := LoaList([]Loa{loa})[0].Message()
	assert.Equal(t, "`#4` • <@7> | 2025-03-01 → 2025-03-04 | `pending` | Reason: exams", message.Content)
	require.NotNil(t, message.AllowedMentions)
	assert.Empty(t, message.AllowedMentions.Parse)
}

func TestFormatLongDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                       "0 seconds",
		time.Second:                             "1 second",
		time.Hour + 5*time.Minute:               "1 hour, 5 minutes",
		48 * time.Hour:                          "48 hours",
		2*time.Hour + time.Minute + time.Second: "2 hours, 1 minute, 1 second",
		-time.Hour:                              "0 seconds",
	}
	for duration, expected := range cases {
		assert.Equal(t, expected, FormatLongDuration(duration), duration.String())
	}
}

func TestParseModerationButton(t *testing.T) {
	id := uuid.New()

	action, parsed, ok := parseModerationButton(MODERATION_CONFIRM + ":" + id.String())
	require.True(t, ok)
	assert.Equal(t, MODERATION_CONFIRM, action)
	assert.Equal(t, id, parsed)

	action, _, ok = parseModerationButton(MODERATION_CANCEL + ":" + id.String())
	require.True(t, ok)
	assert.Equal(t, MODERATION_CANCEL, action)

	for _, customId := range []string{SHIFT_HELP_BUTTON, "mod_confirm", "mod_confirm:nope", "other:" + id.String()} {
		_, _, ok := parseModerationButton(customId)
		assert.False(t, ok, customId)
	}
}

func TestModerationLoggedColor(t *testing.T) {
	record := Moderation{Id: 3, RobloxId: 7, Username: "Someone", ModeratorId: "10", Punishment: "Warning", Reason: "spam", CreatedAt: epoch}
	embed := ModerationLogged(record, time.UTC).Message().Embeds[0]
	assert.Equal(t, colorOrange, embed.Color)
	assert.Equal(t, "03/01/2025 06:00 PM", embed.Fields[3].Value)

	record.Punishment = "Global Ban"
	assert.Equal(t, colorRed, ModerationLogged(record, time.UTC).Message().Embeds[0].Color)
}
