// Package store holds the score records behind a swappable interface.
package store

import (
	"context"
	"errors"
	"time"

	"clicker-leaderboard/models"
)

// ErrNotFound is returned when no record matches a username.
var ErrNotFound = errors.New("score record not found")

// ScoreStore keeps at most one record per case-insensitive username.
// Implementations must make each call atomic.
type ScoreStore interface {
	// FindByUsername returns ErrNotFound when the user has no record.
	FindByUsername(ctx context.Context, username string) (models.ScoreRecord, error)

	// UpsertOnSubmit creates the record when missing. An existing record only
	// takes the new score and timestamp when score is strictly greater.
	// A nil timestamp means now.
	UpsertOnSubmit(ctx context.Context, username string, score int64, timestamp *time.Time) (models.ScoreRecord, bool, error)

	// SetAbsolute creates the record when missing and forces score, stamping it with now.
	SetAbsolute(ctx context.Context, username string, score int64) (models.ScoreRecord, error)

	// All returns a snapshot in store order.
	All(ctx context.Context) ([]models.ScoreRecord, error)

	// Kind names the backend, e.g. "memory" or "postgres".
	Kind() string
}

func now() time.Time {
	return time.Now().UTC()
}
