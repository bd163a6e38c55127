package dictionary

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads dictionary words from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a dictionary repository over an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadWords returns every word in the dictionary_words table.
func (r *Repository) LoadWords(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT word FROM dictionary_words`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dictionary words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan dictionary word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary words: %w", err)
	}
	return words, nil
}

// Contains checks a single word against the table without loading the whole
// list. Used by deployments too large to hold the dictionary in memory.
func (r *Repository) Contains(ctx context.Context, word string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM dictionary_words WHERE word = UPPER($1))`, word,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check dictionary word: %w", err)
	}
	return exists, nil
}
