package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"netbot/internal/common"
	"netbot/internal/shift"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDatabaseBot(t *testing.T) *DatabaseBot {
	t.Helper()
	database, err := common.OpenDatabase(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	databaseBot, err := NewDatabaseBot(context.Background(), database, "guild")
	require.NoError(t, err)
	return databaseBot
}

func TestShiftSummary(t *testing.T) {
	ctx := context.Background()
	db := newDatabaseBot(t)

	summary, err := db.GetShiftSummary(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, ShiftSummary{}, summary)

	for _, duration := range []time.Duration{time.Hour, 30 * time.Minute} {
		record := shift.Record{
			Handle:   shift.Handle{Id: uuid.New(), UserId: "42", StartedAt: epoch, ChannelId: "general"},
			EndedAt:  epoch.Add(duration),
			Duration: duration,
			Reason:   "Manual /endclock",
		}
		require.NoError(t, db.SaveShift(ctx, record))
	}
	require.NoError(t, db.SaveShift(ctx, shift.Record{
		Handle:   shift.Handle{Id: uuid.New(), UserId: "43", StartedAt: epoch, Origin: shift.OriginAuto},
		EndedAt:  epoch.Add(time.Minute),
		Duration: time.Minute,
		Reason:   "Left the game",
	}))

	summary, err = db.GetShiftSummary(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, ShiftSummary{Count: 2, Total: 90 * time.Minute}, summary)
}

func TestLoaTransitions(t *testing.T) {
	ctx := context.Background()
	db := newDatabaseBot(t)

	first, err := db.AddLoa(ctx, Loa{UserId: "7", GuildId: "guild", Reason: "exams", Start: epoch, End: epoch.AddDate(0, 0, 3)})
	require.NoError(t, err)
	assert.Equal(t, LOA_PENDING, first.Status)
	second, err := db.AddLoa(ctx, Loa{UserId: "8", GuildId: "guild", Reason: "travel", Start: epoch.AddDate(0, 0, 1), End: epoch.AddDate(0, 0, 8)})
	require.NoError(t, err)
	assert.Greater(t, second.Id, first.Id)

	loas, err := db.GetLoas(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, loas, 2)
	assert.Equal(t, second.Id, loas[0].Id)
	assert.True(t, epoch.Equal(loas[1].Start))

	other, err := db.GetLoas(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)

	decided, err := db.DecideLoa(ctx, "guild", first.Id, true, "lead")
	require.NoError(t, err)
	assert.Equal(t, LOA_APPROVED, decided.Status)
	assert.Equal(t, common.UserId("lead"), decided.DecidedBy)

	again, err := db.DecideLoa(ctx, "guild", first.Id, false, "other-lead")
	assert.ErrorIs(t, err, ErrLoaDecided)
	assert.Equal(t, LOA_APPROVED, again.Status)
	assert.Equal(t, common.UserId("lead"), again.DecidedBy)

	_, err = db.DecideLoa(ctx, "guild", 999, false, "lead")
	assert.ErrorIs(t, err, ErrLoaNotFound)
	_, err = db.DecideLoa(ctx, "other", second.Id, false, "lead")
	assert.ErrorIs(t, err, ErrLoaNotFound)

	denied, err := db.DecideLoa(ctx, "guild", second.Id, false, "lead")
	require.NoError(t, err)
	assert.Equal(t, LOA_DENIED, denied.Status)
}

func TestGuildSettings(t *testing.T) {
	ctx := context.Background()
	db := newDatabaseBot(t)

	settings, err := db.GetSettings(ctx, "guild")
	require.NoError(t, err)
	assert.Equal(t, GuildSettings{GuildId: "guild"}, settings)

	require.NoError(t, db.SetSettings(ctx, GuildSettings{GuildId: "guild", BotlogChannelId: "1", LoaChannelId: "2"}))
	require.NoError(t, db.SetSettings(ctx, GuildSettings{GuildId: "guild", BotlogChannelId: "3", LoaChannelId: "2"}))

	settings, err = db.GetSettings(ctx, "guild")
	require.NoError(t, err)
	assert.Equal(t, GuildSettings{GuildId: "guild", BotlogChannelId: "3", LoaChannelId: "2"}, settings)
}

func TestGuildSettingsModlog(t *testing.T) {
	ctx := context.Background()
	db := newDatabaseBot(t)

	require.NoError(t, db.SetSettings(ctx, GuildSettings{GuildId: "guild", BotlogChannelId: "1", LoaChannelId: "2", ModlogChannelId: "3"}))
	settings, err := db.GetSettings(ctx, "guild")
	require.NoError(t, err)
	assert.Equal(t, "3", settings.ModlogChannelId)
}

func TestSettingsTableFromOlderSchema(t *testing.T) {
	ctx := context.Background()
	database, err := common.OpenDatabase(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate(ctx, `CREATE TABLE guild_settings (
		guild_id          TEXT PRIMARY KEY,
		botlog_channel_id TEXT NOT NULL DEFAULT '',
		loa_channel_id    TEXT NOT NULL DEFAULT ''
	)`, `INSERT INTO guild_settings (guild_id, botlog_channel_id, loa_channel_id) VALUES ('guild', '1', '2')`))

	db, err := NewDatabaseBot(ctx, database, "guild")
	require.NoError(t, err)
	settings, err := db.GetSettings(ctx, "guild")
	require.NoError(t, err)
	assert.Equal(t, GuildSettings{GuildId: "guild", BotlogChannelId: "1", LoaChannelId: "2"}, settings)

	// A second start finds the column in place
	_, err = NewDatabaseBot(ctx, database, "guild")
	require.NoError(t, err)
}

func TestModerationCases(t *testing.T) {
	ctx := context.Background()
	db := newDatabaseBot(t)

	for i, punishment := range []string{"Warning", "Mute", "Kick"} {
		moderation, err := db.AddModeration(ctx, Moderation{
			GuildId:     "guild",
			ModeratorId: "10",
			RobloxId:    7,
			Username:    "BusDriver",
			Punishment:  punishment,
			Reason:      "spam",
			CreatedAt:   epoch.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), moderation.Id)
	}
	_, err := db.AddModeration(ctx, Moderation{GuildId: "guild", ModeratorId: "10", RobloxId: 8, Username: "Other", Punishment: "Warning", Reason: "rude", CreatedAt: epoch})
	require.NoError(t, err)
	_, err = db.AddModeration(ctx, Moderation{GuildId: "other", ModeratorId: "10", RobloxId: 7, Username: "BusDriver", Punishment: "Warning", Reason: "rude", CreatedAt: epoch})
	require.NoError(t, err)

	moderations, err := db.GetModerations(ctx, "guild", 7, 2)
	require.NoError(t, err)
	require.Len(t, moderations, 2)
	assert.Equal(t, "Kick", moderations[0].Punishment)
	assert.Equal(t, "Mute", moderations[1].Punishment)
	assert.True(t, epoch.Add(2*time.Hour).Equal(moderations[0].CreatedAt))
	assert.Equal(t, common.RobloxId(7), moderations[0].RobloxId)
	assert.Equal(t, common.UserId("10"), moderations[0].ModeratorId)

	moderations, err = db.GetModerations(ctx, "guild", 7, 0)
	require.NoError(t, err)
	assert.Len(t, moderations, 3)

	stats, err := db.GetModeratorStats(ctx, "guild", "10")
	require.NoError(t, err)
	assert.Equal(t, ModeratorStats{Total: 4, Individuals: 2}, stats)
	stats, err = db.GetModeratorStats(ctx, "guild", "11")
	require.NoError(t, err)
	assert.Equal(t, ModeratorStats{}, stats)
}

func TestEditModeration(t *testing.T) {
	ctx := context.Background()
	db := newDatabaseBot(t)

	added, err := db.AddModeration(ctx, Moderation{GuildId: "guild", ModeratorId: "10", RobloxId: 7, Username: "BusDriver", Punishment: "Warning", Reason: "spam", CreatedAt: epoch})
	require.NoError(t, err)

	before, err := db.EditModeration(ctx, "guild", added.Id, "Time Ban", "repeated spam")
	require.NoError(t, err)
	assert.Equal(t, "Warning", before.Punishment)
	assert.Equal(t, "spam", before.Reason)

	after, err := db.GetModeration(ctx, "guild", added.Id)
	require.NoError(t, err)
	assert.Equal(t, "Time Ban", after.Punishment)
	assert.Equal(t, "repeated spam", after.Reason)

	_, err = db.EditModeration(ctx, "other", added.Id, "Kick", "nope")
	assert.ErrorIs(t, err, ErrModerationNotFound)
	_, err = db.GetModeration(ctx, "guild", 99)
	assert.ErrorIs(t, err, ErrModerationNotFound)
}

func TestLoaStats(t *testing.T) {
	ctx := context.Background()
	db := newDatabaseBot(t)

	add := func(days int) Loa {
		loa, err := db.AddLoa(ctx, Loa{UserId: "7", GuildId: "guild", Reason: "away", Start: epoch, End: epoch.AddDate(0, 0, days)})
		require.NoError(t, err)
		return loa
	}
	approved := add(3)
	alsoApproved := add(1)
	denied := add(5)
	add(2)
	_, err := db.DecideLoa(ctx, "guild", approved.Id, true, "lead")
	require.NoError(t, err)
	_, err = db.DecideLoa(ctx, "guild", alsoApproved.Id, true, "lead")
	require.NoError(t, err)
	_, err = db.DecideLoa(ctx, "guild", denied.Id, false, "lead")
	require.NoError(t, err)

	stats, err := db.GetLoaStats(ctx, "guild", "7")
	require.NoError(t, err)
	assert.Equal(t, LoaStats{Accepted: 2, Denied: 1, Pending: 1, Total: 96 * time.Hour}, stats)

	stats, err = db.GetLoaStats(ctx, "other", "7")
	require.NoError(t, err)
	assert.Equal(t, LoaStats{}, stats)
}
