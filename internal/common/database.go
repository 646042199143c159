package common

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Timestamps are stored as fixed width UTC text so they sort as strings
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Thin wrapper around a sqlite file shared by the components that
// need to persist something
type Database struct {
	Conn     *sql.DB
	filename string
}

func OpenDatabase(filename string) (*Database, error) {

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", filename)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", filename, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping database %s: %w", filename, err)
	}
	// sqlite only has one writer anyway
	conn.SetMaxOpenConns(1)

	log.Info().Msg(fmt.Sprintf("Opened database %s", filename))
	return &Database{Conn: conn, filename: filename}, nil
}

// Run the provided schema statements in a single transaction
func (db *Database) Migrate(ctx context.Context, statements ...string) error {

	tx, err := db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin migration: %w", err)
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			tx.Rollback()
			return fmt.Errorf("could not migrate database %s: %w", db.filename, err)
		}
	}
	return tx.Commit()
}

// Add a column to a table created by an older schema. Nothing happens
// when the column is already there
func (db *Database) EnsureColumn(ctx context.Context, table string, column string, definition string) error {

	rows, err := db.Conn.QueryContext(ctx, fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", table))
	if err != nil {
		return fmt.Errorf("could not read columns of %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("could not read columns of %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("could not read columns of %s: %w", table, err)
	}
	rows.Close()

	if _, err := db.Conn.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("could not add column %s to %s: %w", column, table, err)
	}
	log.Info().Msg(fmt.Sprintf("Added column %s to table %s", column, table))
	return nil
}

func (db *Database) Close() error {
	return db.Conn.Close()
}
