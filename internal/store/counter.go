package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	util "whatbeats/internal/util"
)

// GlobalCounterStore tracks, per word, how many times it has ever been
// accepted as a winning guess. Backed by PostgreSQL; survives all sessions.
type GlobalCounterStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewGlobalCounterStore(db *sql.DB) *GlobalCounterStore {
	return &GlobalCounterStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the counts table if it is absent. Called once at
// startup, not per request.
func (s *GlobalCounterStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS global_guess_counts (
			word TEXT PRIMARY KEY,
			guess_count INTEGER NOT NULL DEFAULT 1
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating global_guess_counts table: %w", err)
	}
	return nil
}

// IncrementAndGet atomically bumps the count for a word and returns the new
// value. Best-effort: any failure is logged and reported as a nil count so a
// counter outage never aborts an otherwise-successful guess.
func (s *GlobalCounterStore) IncrementAndGet(ctx context.Context, word string) *int64 {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		util.LogWarn("Attempted to increment global count for empty word")
		return nil
	}

	query, args, err := s.sb.
		Insert("global_guess_counts").
		Columns("word", "guess_count").
		Values(normalized, 1).
		Suffix(`ON CONFLICT (word) DO UPDATE
			SET guess_count = global_guess_counts.guess_count + 1
			RETURNING guess_count`).
		ToSql()
	if err != nil {
		util.LogWarn("Building counter upsert for %q: %v", normalized, err)
		return nil
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		util.LogWarn("Incrementing global count for %q: %v", normalized, err)
		return nil
	}
	return &count
}

// Count reads the current count without incrementing. Returns 0 when the
// word has never been accepted.
func (s *GlobalCounterStore) Count(ctx context.Context, word string) (int64, error) {
	normalized := strings.ToLower(strings.TrimSpace(word))

	query, args, err := s.sb.
		Select("guess_count").
		From("global_guess_counts").
		Where(sq.Eq{"word": normalized}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building counter select: %w", err)
	}

	var count int64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading global count for %q: %w", normalized, err)
	}
	return count, nil
}

// Ping reports whether the backing database is reachable.
func (s *GlobalCounterStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
