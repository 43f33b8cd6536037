package repository

import (
	"context"
	"fmt"
	"strings"

	"housing-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		"user" TEXT,
		message TEXT,
		"timestamp" TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresMessageRepository stores chat streams in PostgreSQL
type PostgresMessageRepository struct {
	dsn string
}

// NewPostgresMessageRepository creates a new PostgreSQL message repository
func NewPostgresMessageRepository(dsn string) *PostgresMessageRepository {
	return &PostgresMessageRepository{dsn: dsn}
}

func (r *PostgresMessageRepository) connect(ctx context.Context) (*pgx.Conn, error) {
	if strings.TrimSpace(r.dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required: %w", ErrStorageUnavailable)
	}
	conn, err := pgx.Connect(ctx, r.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w: %w", ErrStorageUnavailable, err)
	}
	return conn, nil
}

// EnsureSchema creates both stream tables if absent
func (r *PostgresMessageRepository) EnsureSchema(ctx context.Context) error {
	conn, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	for _, stream := range models.Streams {
		table, _ := tableFor(stream)
		if _, err := conn.Exec(ctx, fmt.Sprintf(postgresSchema, table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w: %w", table, ErrStorageUnavailable, err)
		}
	}
	return nil
}

// Append inserts a message; id and timestamp are assigned by the database
func (r *PostgresMessageRepository) Append(ctx context.Context, stream models.Stream, author, body string) (int64, error) {
	table, err := validateMessage(stream, author, body)
	if err != nil {
		return 0, err
	}

	conn, err := r.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close(ctx)

	query := fmt.Sprintf(`INSERT INTO %s ("user", message) VALUES ($1, $2) RETURNING id`, table)
	var id int64
	if err := conn.QueryRow(ctx, query, author, body).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert message: %w: %w", ErrStorageUnavailable, err)
	}
	return id, nil
}

// ListAll returns every message of the stream, oldest first
func (r *PostgresMessageRepository) ListAll(ctx context.Context, stream models.Stream) ([]models.ChatMessage, error) {
	table, err := tableFor(stream)
	if err != nil {
		return nil, err
	}

	conn, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	query := fmt.Sprintf(`
		SELECT id, COALESCE("user", ''), COALESCE(message, ''), "timestamp"
		FROM %s
		ORDER BY "timestamp" ASC, id ASC
	`, table)
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w: %w", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Author, &msg.Body, &msg.PostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.PostedAt = msg.PostedAt.UTC()
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

var _ MessageRepository = (*PostgresMessageRepository)(nil)
