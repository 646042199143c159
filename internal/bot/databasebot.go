package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"netbot/internal/common"
	"netbot/internal/shift"
)

const (
	LOA_PENDING  = "pending"
	LOA_APPROVED = "approved"
	LOA_DENIED   = "denied"
)

var (
	ErrLoaNotFound        = errors.New("no such LOA")
	ErrLoaDecided         = errors.New("LOA already decided")
	ErrModerationNotFound = errors.New("no such moderation case")
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS shifts (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		guild_id         TEXT NOT NULL,
		channel_id       TEXT NOT NULL,
		origin           TEXT NOT NULL,
		start_time       TEXT NOT NULL,
		end_time         TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		reason           TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS shifts_user ON shifts (guild_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS loas (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		guild_id   TEXT NOT NULL,
		reason     TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending',
		decided_by TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id          TEXT PRIMARY KEY,
		botlog_channel_id TEXT NOT NULL DEFAULT '',
		loa_channel_id    TEXT NOT NULL DEFAULT '',
		modlog_channel_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS moderations (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id         TEXT NOT NULL,
		moderator_id     TEXT NOT NULL,
		target_roblox_id INTEGER NOT NULL,
		target_username  TEXT NOT NULL,
		punishment       TEXT NOT NULL,
		reason           TEXT NOT NULL,
		created_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS moderations_target ON moderations (guild_id, target_roblox_id)`,
}

type Loa struct {
	Id        int64
	UserId    common.UserId
	GuildId   string
	Reason    string
	Start     time.Time
	End       time.Time
	Status    string
	DecidedBy common.UserId
}

type GuildSettings struct {
	GuildId         string
	BotlogChannelId string
	LoaChannelId    string
	ModlogChannelId string
}

// A confirmed moderation case against a roblox account
type Moderation struct {
	Id          int64
	GuildId     string
	ModeratorId common.UserId
	RobloxId    common.RobloxId
	Username    string
	Punishment  string
	Reason      string
	CreatedAt   time.Time
}

type ModeratorStats struct {
	Total       int
	Individuals int
}

// LOAs taken by a member. Total only counts approved ones
type LoaStats struct {
	Accepted int
	Denied   int
	Pending  int
	Total    time.Duration
}

// Totals of the closed shifts of a member
type ShiftSummary struct {
	Count int
	Total time.Duration
}

type DatabaseBot struct {
	*common.Database
	guildId string
}

// Shifts are recorded against the provided guild
func NewDatabaseBot(ctx context.Context, database *common.Database, guildId string) (*DatabaseBot, error) {
	if err := database.Migrate(ctx, schema...); err != nil {
		return nil, err
	}
	if err := database.EnsureColumn(ctx, "guild_settings", "modlog_channel_id", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return nil, err
	}
	return &DatabaseBot{database, guildId}, nil
}

func (db *DatabaseBot) SaveShift(ctx context.Context, record shift.Record) error {
	_, err := db.Conn.ExecContext(ctx, `INSERT INTO shifts
		(id, user_id, guild_id, channel_id, origin, start_time, end_time, duration_seconds, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Id.String(), string(record.UserId), db.guildId, record.ChannelId, record.Origin.String(),
		record.StartedAt.UTC().Format(common.TimeLayout), record.EndedAt.UTC().Format(common.TimeLayout),
		int64(record.Duration.Seconds()), record.Reason)
	if err != nil {
		return fmt.Errorf("could not save shift %s: %w", record.Id, err)
	}
	return nil
}

func (db *DatabaseBot) GetShiftSummary(ctx context.Context, userId common.UserId) (ShiftSummary, error) {
	var summary ShiftSummary
	var seconds int64
	err := db.Conn.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0) FROM shifts WHERE guild_id = ? AND user_id = ?",
		db.guildId, string(userId)).Scan(&summary.Count, &seconds)
	if err != nil {
		return ShiftSummary{}, fmt.Errorf("could not read shifts of %s: %w", userId, err)
	}
	summary.Total = time.Duration(seconds) * time.Second
	return summary, nil
}

// Store a new pending LOA and return it with its id
func (db *DatabaseBot) AddLoa(ctx context.Context, loa Loa) (Loa, error) {
	loa.Status = LOA_PENDING
	result, err := db.Conn.ExecContext(ctx, `INSERT INTO loas (user_id, guild_id, reason, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(loa.UserId), loa.GuildId, loa.Reason,
		loa.Start.UTC().Format(common.TimeLayout), loa.End.UTC().Format(common.TimeLayout), loa.Status)
	if err != nil {
		return Loa{}, fmt.Errorf("could not add LOA: %w", err)
	}
	if loa.Id, err = result.LastInsertId(); err != nil {
		return Loa{}, fmt.Errorf("could not add LOA: %w", err)
	}
	return loa, nil
}

// Newest first
func (db *DatabaseBot) GetLoas(ctx context.Context, guildId string) ([]Loa, error) {

	rows, err := db.Conn.QueryContext(ctx, `SELECT id, user_id, guild_id, reason, start_date, end_date, status, decided_by
		FROM loas WHERE guild_id = ? ORDER BY start_date DESC, id DESC`, guildId)
	if err != nil {
		return nil, fmt.Errorf("could not read LOAs: %w", err)
	}
	defer rows.Close()

	loas := []Loa{}
	for rows.Next() {
		loa, err := scanLoa(rows)
		if err != nil {
			return nil, err
		}
		loas = append(loas, loa)
	}
	return loas, rows.Err()
}

func (db *DatabaseBot) GetLoa(ctx context.Context, guildId string, id int64) (Loa, error) {
	row := db.Conn.QueryRowContext(ctx, `SELECT id, user_id, guild_id, reason, start_date, end_date, status, decided_by
		FROM loas WHERE guild_id = ? AND id = ?`, guildId, id)
	loa, err := scanLoa(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Loa{}, ErrLoaNotFound
	}
	return loa, err
}

// Move a pending LOA to approved or denied. Decided LOAs stay as they are
func (db *DatabaseBot) DecideLoa(ctx context.Context, guildId string, id int64, approve bool, decidedBy common.UserId) (Loa, error) {

	status := LOA_DENIED
	if approve {
		status = LOA_APPROVED
	}
	result, err := db.Conn.ExecContext(ctx, "UPDATE loas SET status = ?, decided_by = ? WHERE guild_id = ? AND id = ? AND status = ?",
		status, string(decidedBy), guildId, id, LOA_PENDING)
	if err != nil {
		return Loa{}, fmt.Errorf("could not decide LOA %d: %w", id, err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return Loa{}, fmt.Errorf("could not decide LOA %d: %w", id, err)
	}

	loa, err := db.GetLoa(ctx, guildId, id)
	if err != nil {
		return Loa{}, err
	}
	if updated == 0 {
		return loa, ErrLoaDecided
	}
	return loa, nil
}

// Unconfigured guilds get empty settings
func (db *DatabaseBot) GetSettings(ctx context.Context, guildId string) (GuildSettings, error) {
	settings := GuildSettings{GuildId: guildId}
	err := db.Conn.QueryRowContext(ctx, "SELECT botlog_channel_id, loa_channel_id, modlog_channel_id FROM guild_settings WHERE guild_id = ?", guildId).
		Scan(&settings.BotlogChannelId, &settings.LoaChannelId, &settings.ModlogChannelId)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return GuildSettings{}, fmt.Errorf("could not read settings of guild %s: %w", guildId, err)
	}
	return settings, nil
}

func (db *DatabaseBot) SetSettings(ctx context.Context, settings GuildSettings) error {
	_, err := db.Conn.ExecContext(ctx, `INSERT INTO guild_settings (guild_id, botlog_channel_id, loa_channel_id, modlog_channel_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET botlog_channel_id = excluded.botlog_channel_id, loa_channel_id = excluded.loa_channel_id,
		modlog_channel_id = excluded.modlog_channel_id`,
		settings.GuildId, settings.BotlogChannelId, settings.LoaChannelId, settings.ModlogChannelId)
	if err != nil {
		return fmt.Errorf("could not store settings of guild %s: %w", settings.GuildId, err)
	}
	return nil
}

func (db *DatabaseBot) AddModeration(ctx context.Context, moderation Moderation) (Moderation, error) {
	result, err := db.Conn.ExecContext(ctx, `INSERT INTO moderations
		(guild_id, moderator_id, target_roblox_id, target_username, punishment, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		moderation.GuildId, string(moderation.ModeratorId), int64(moderation.RobloxId), moderation.Username,
		moderation.Punishment, moderation.Reason, moderation.CreatedAt.UTC().Format(common.TimeLayout))
	if err != nil {
		return Moderation{}, fmt.Errorf("could not add moderation: %w", err)
	}
	if moderation.Id, err = result.LastInsertId(); err != nil {
		return Moderation{}, fmt.Errorf("could not add moderation: %w", err)
	}
	return moderation, nil
}

const moderationColumns = "id, guild_id, moderator_id, target_roblox_id, target_username, punishment, reason, created_at"

func (db *DatabaseBot) GetModeration(ctx context.Context, guildId string, id int64) (Moderation, error) {
	row := db.Conn.QueryRowContext(ctx, "SELECT "+moderationColumns+" FROM moderations WHERE guild_id = ? AND id = ?", guildId, id)
	moderation, err := scanModeration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Moderation{}, ErrModerationNotFound
	}
	return moderation, err
}

// Cases against a roblox account, newest first. No limit when limit <= 0
func (db *DatabaseBot) GetModerations(ctx context.Context, guildId string, robloxId common.RobloxId, limit int) ([]Moderation, error) {

	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Conn.QueryContext(ctx, "SELECT "+moderationColumns+` FROM moderations
		WHERE guild_id = ? AND target_roblox_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, guildId, int64(robloxId), limit)
	if err != nil {
		return nil, fmt.Errorf("could not read moderations of %d: %w", robloxId, err)
	}
	defer rows.Close()

	moderations := []Moderation{}
	for rows.Next() {
		moderation, err := scanModeration(rows)
		if err != nil {
			return nil, err
		}
		moderations = append(moderations, moderation)
	}
	return moderations, rows.Err()
}

// Change punishment and reason of a case. Returns the case as it was before
func (db *DatabaseBot) EditModeration(ctx context.Context, guildId string, id int64, punishment string, reason string) (Moderation, error) {

	before, err := db.GetModeration(ctx, guildId, id)
	if err != nil {
		return Moderation{}, err
	}
	result, err := db.Conn.ExecContext(ctx, "UPDATE moderations SET punishment = ?, reason = ? WHERE guild_id = ? AND id = ?",
		punishment, reason, guildId, id)
	if err != nil {
		return Moderation{}, fmt.Errorf("could not edit moderation %d: %w", id, err)
	}
	if updated, err := result.RowsAffected(); err != nil || updated == 0 {
		return Moderation{}, ErrModerationNotFound
	}
	return before, nil
}

func (db *DatabaseBot) GetModeratorStats(ctx context.Context, guildId string, moderatorId common.UserId) (ModeratorStats, error) {
	var stats ModeratorStats
	err := db.Conn.QueryRowContext(ctx, "SELECT COUNT(*), COUNT(DISTINCT target_roblox_id) FROM moderations WHERE guild_id = ? AND moderator_id = ?",
		guildId, string(moderatorId)).Scan(&stats.Total, &stats.Individuals)
	if err != nil {
		return ModeratorStats{}, fmt.Errorf("could not read moderations by %s: %w", moderatorId, err)
	}
	return stats, nil
}

func (db *DatabaseBot) GetLoaStats(ctx context.Context, guildId string, userId common.UserId) (LoaStats, error) {

	rows, err := db.Conn.QueryContext(ctx, "SELECT status, start_date, end_date FROM loas WHERE guild_id = ? AND user_id = ?",
		guildId, string(userId))
	if err != nil {
		return LoaStats{}, fmt.Errorf("could not read LOAs of %s: %w", userId, err)
	}
	defer rows.Close()

	var stats LoaStats
	for rows.Next() {
		var status, start, end string
		if err := rows.Scan(&status, &start, &end); err != nil {
			return LoaStats{}, fmt.Errorf("could not read LOA: %w", err)
		}
		switch status {
		case LOA_APPROVED:
			stats.Accepted++
			startTime, startErr := time.Parse(common.TimeLayout, start)
			endTime, endErr := time.Parse(common.TimeLayout, end)
			if startErr == nil && endErr == nil {
				stats.Total += endTime.Sub(startTime)
			}
		case LOA_DENIED:
			stats.Denied++
		case LOA_PENDING:
			stats.Pending++
		}
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoa(row scanner) (Loa, error) {
	var loa Loa
	var userId, decidedBy, start, end string
	if err := row.Scan(&loa.Id, &userId, &loa.GuildId, &loa.Reason, &start, &end, &loa.Status, &decidedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Loa{}, err
		}
		return Loa{}, fmt.Errorf("could not read LOA: %w", err)
	}
	loa.UserId = common.UserId(userId)
	loa.DecidedBy = common.UserId(decidedBy)
	var err error
	if loa.Start, err = time.Parse(common.TimeLayout, start); err != nil {
		return Loa{}, fmt.Errorf("LOA %d has a bad start date: %w", loa.Id, err)
	}
	if loa.End, err = time.Parse(common.TimeLayout, end); err != nil {
		return Loa{}, fmt.Errorf("LOA %d has a bad end date: %w", loa.Id, err)
	}
	return loa, nil
}

func scanModeration(row scanner) (Moderation, error) {
	var moderation Moderation
	var moderatorId, created string
	var robloxId int64
	err := row.Scan(&moderation.Id, &moderation.GuildId, &moderatorId, &robloxId, &moderation.Username,
		&moderation.Punishment, &moderation.Reason, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Moderation{}, err
		}
		return Moderation{}, fmt.Errorf("could not read moderation: %w", err)
	}
	moderation.ModeratorId = common.UserId(moderatorId)
	moderation.RobloxId = common.RobloxId(robloxId)
	if moderation.CreatedAt, err = time.Parse(common.TimeLayout, created); err != nil {
		return Moderation{}, fmt.Errorf("moderation %d has a bad date: %w", moderation.Id, err)
	}
	return moderation, nil
}
