package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"housing-backend/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user TEXT,
		message TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// SQLiteMessageRepository stores chat streams in a SQLite file
type SQLiteMessageRepository struct {
	path string
}

// NewSQLiteMessageRepository creates a new SQLite message repository
func NewSQLiteMessageRepository(path string) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{path: path}
}

// open acquires a connection for a single call; callers must close it
func (r *SQLiteMessageRepository) open(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(r.path) == "" {
		return nil, fmt.Errorf("sqlite path is required: %w", ErrStorageUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w: %w", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", filepath.Clean(r.path)+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w: %w", ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w: %w", ErrStorageUnavailable, err)
	}
	return db, nil
}

// EnsureSchema creates both stream tables if absent
func (r *SQLiteMessageRepository) EnsureSchema(ctx context.Context) error {
	db, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stream := range models.Streams {
		table, _ := tableFor(stream)
		if _, err := db.ExecContext(ctx, fmt.Sprintf(sqliteSchema, table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w: %w", table, ErrStorageUnavailable, err)
		}
	}
	return nil
}

// Append inserts a message; id and timestamp are assigned by the database
func (r *SQLiteMessageRepository) Append(ctx context.Context, stream models.Stream, author, body string) (int64, error) {
	table, err := validateMessage(stream, author, body)
	if err != nil {
		return 0, err
	}

	db, err := r.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	query := fmt.Sprintf(`INSERT INTO %s (user, message) VALUES (?, ?)`, table)
	result, err := db.ExecContext(ctx, query, author, body)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w: %w", ErrStorageUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read message id: %w", err)
	}
	return id, nil
}

// ListAll returns every message of the stream, oldest first
func (r *SQLiteMessageRepository) ListAll(ctx context.Context, stream models.Stream) ([]models.ChatMessage, error) {
	table, err := tableFor(stream)
	if err != nil {
		return nil, err
	}

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := fmt.Sprintf(`
		SELECT id, user, message, timestamp
		FROM %s
		ORDER BY timestamp ASC, id ASC
	`, table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w: %w", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var (
			msg    models.ChatMessage
			author sql.NullString
			body   sql.NullString
			posted any
		)
		if err := rows.Scan(&msg.ID, &author, &body, &posted); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Author = author.String
		msg.Body = body.String
		if msg.PostedAt, err = parseTimestamp(posted); err != nil {
			return nil, fmt.Errorf("failed to parse message timestamp: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

var _ MessageRepository = (*SQLiteMessageRepository)(nil)
