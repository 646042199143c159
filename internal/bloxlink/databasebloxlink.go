package bloxlink

import (
	"context"
	"fmt"
	"time"

	"netbot/internal/common"
)

const schema = `CREATE TABLE IF NOT EXISTS bloxlink_links (
	discord_id TEXT PRIMARY KEY,
	roblox_id  INTEGER NOT NULL,
	fetched_at TEXT NOT NULL
)`

type DatabaseBloxlink struct {
	*common.Database
}

func NewDatabaseBloxlink(ctx context.Context, database *common.Database) (*DatabaseBloxlink, error) {
	if err := database.Migrate(ctx, schema); err != nil {
		return nil, err
	}
	return &DatabaseBloxlink{database}, nil
}

func (db *DatabaseBloxlink) GetLinks(ctx context.Context) ([]Link, error) {

	rows, err := db.Conn.QueryContext(ctx, "SELECT discord_id, roblox_id, fetched_at FROM bloxlink_links ORDER BY fetched_at")
	if err != nil {
		return nil, fmt.Errorf("could not read links: %w", err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var link Link
		var fetchedAt string
		if err := rows.Scan(&link.DiscordId, &link.RobloxId, &fetchedAt); err != nil {
			return nil, fmt.Errorf("could not read link: %w", err)
		}
		if link.FetchedAt, err = time.Parse(common.TimeLayout, fetchedAt); err != nil {
			return nil, fmt.Errorf("link of %s has a bad timestamp: %w", link.DiscordId, err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// A roblox account links to a single discord member, older
// rows pointing at the same roblox id are dropped
func (db *DatabaseBloxlink) SetLink(ctx context.Context, link Link) error {

	tx, err := db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not store link: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM bloxlink_links WHERE roblox_id = ? AND discord_id <> ?", link.RobloxId, link.DiscordId); err != nil {
		tx.Rollback()
		return fmt.Errorf("could not store link: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO bloxlink_links (discord_id, roblox_id, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(discord_id) DO UPDATE SET roblox_id = excluded.roblox_id, fetched_at = excluded.fetched_at`,
		link.DiscordId, link.RobloxId, link.FetchedAt.UTC().Format(common.TimeLayout))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("could not store link: %w", err)
	}
	return tx.Commit()
}

func (db *DatabaseBloxlink) DeleteLinksBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := db.Conn.ExecContext(ctx, "DELETE FROM bloxlink_links WHERE fetched_at < ?", before.UTC().Format(common.TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("could not purge links: %w", err)
	}
	return result.RowsAffected()
}
