package store

import (
	"context"
	"sync"
	"time"

	"clicker-leaderboard/models"

	"github.com/google/uuid"
)

// MemoryStore lives for the lifetime of the process. All() returns records
// in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*models.ScoreRecord
	byKey   map[string]*models.ScoreRecord
	clock   func() time.Time
}

var _ ScoreStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[string]*models.ScoreRecord),
		clock: now,
	}
}

func (s *MemoryStore) Kind() string { return "memory" }

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (models.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byKey[models.UsernameKey(username)]
	if !ok {
		return models.ScoreRecord{}, ErrNotFound
	}
	return *rec, nil
}

func (s *MemoryStore) UpsertOnSubmit(_ context.Context, username string, score int64, timestamp *time.Time) (models.ScoreRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.clock()
	if timestamp != nil {
		ts = timestamp.UTC()
	}

	rec, ok := s.byKey[models.UsernameKey(username)]
	if !ok {
		rec = s.insert(username, score, ts)
		return *rec, true, nil
	}
	if score > rec.Score {
		rec.Score = score
		rec.Timestamp = ts
	}
	return *rec, false, nil
}

func (s *MemoryStore) SetAbsolute(_ context.Context, username string, score int64) (models.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.clock()
	rec, ok := s.byKey[models.UsernameKey(username)]
	if !ok {
		rec = s.insert(username, score, ts)
		return *rec, nil
	}
	rec.Score = score
	rec.Timestamp = ts
	return *rec, nil
}

func (s *MemoryStore) All(_ context.Context) ([]models.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ScoreRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = *rec
	}
	return out, nil
}

// insert must be called with mu held.
func (s *MemoryStore) insert(username string, score int64, ts time.Time) *models.ScoreRecord {
	rec := &models.ScoreRecord{
		ID:          uuid.NewString(),
		Username:    username,
		UsernameKey: models.UsernameKey(username),
		Score:       score,
		Timestamp:   ts,
		CreatedAt:   s.clock(),
	}
	s.records = append(s.records, rec)
	s.byKey[rec.UsernameKey] = rec
	return rec
}
