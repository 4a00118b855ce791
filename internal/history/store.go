// Package history persists generated queries so past prompts can be
// browsed and reused for suggestions.
package history

import (
	"context"
	"time"
)

// Entry is one recorded prompt together with the query generated for it
type Entry struct {
	ID         string    `json:"id"`
	Prompt     string    `json:"prompt"`
	Query      string    `json:"query"`
	Format     string    `json:"format"`
	UserID     string    `json:"user_id,omitempty"`
	Similarity float64   `json:"similarity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store defines the interface for the prompt history backend
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	FindSimilar(ctx context.Context, prompt string, limit int) ([]Entry, error)
	Ping(ctx context.Context) error
	Close() error
}
