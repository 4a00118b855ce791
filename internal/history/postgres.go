package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string
}

// PostgresStore implements the Store interface using PostgreSQL with the
// pgvector extension for similarity search
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed history store
func NewPostgresStore(config PostgresConfig) (*PostgresStore, error) {
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// Ping tests the database connection
func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

// Close closes the database connection
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// Record stores a generated query. Re-running the same prompt updates the
// stored query instead of inserting a duplicate row.
func (ps *PostgresStore) Record(ctx context.Context, entry Entry) error {
	insertQuery := `
		INSERT INTO query_history (id, prompt, query_text, format, user_id, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (prompt, format) DO UPDATE SET
			query_text = EXCLUDED.query_text,
			user_id = EXCLUDED.user_id,
			created_at = EXCLUDED.created_at
	`

	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	vector := pgvector.NewVector(Embed(entry.Prompt))

	_, err := ps.db.ExecContext(ctx, insertQuery, id, entry.Prompt, entry.Query, entry.Format, nullable(entry.UserID), vector, createdAt)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}

	return nil
}

// Recent returns the most recently recorded entries, newest first
func (ps *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, prompt, query_text, format, COALESCE(user_id, ''), created_at
		FROM query_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := ps.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Query, &e.Format, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return entries, nil
}

// FindSimilar finds past prompts similar to the given one using cosine
// similarity over trigram embeddings
func (ps *PostgresStore) FindSimilar(ctx context.Context, prompt string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}
	vector := pgvector.NewVector(Embed(prompt))

	query := `
		SELECT id, prompt, query_text, format, COALESCE(user_id, ''),
		       1 - (embedding <=> $1) as similarity,
		       created_at
		FROM query_history
		WHERE 1 - (embedding <=> $1) > 0.3
		ORDER BY similarity DESC
		LIMIT $2
	`

	rows, err := ps.db.QueryContext(ctx, query, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar prompts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Query, &e.Format, &e.UserID, &e.Similarity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan similar prompt row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similar prompt rows: %w", err)
	}

	return entries, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
