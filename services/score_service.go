package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"clicker-leaderboard/models"
	"clicker-leaderboard/store"
)

// LeaderboardSize is how many records the leaderboard returns.
const LeaderboardSize = 10

// ScoreService applies the submission and ranking rules on top of a ScoreStore.
// Writes for the same username are serialized, so the "is it higher" check
// and the rank read that follows cannot interleave with another write for
// that user.
type ScoreService struct {
	Store store.ScoreStore
	locks *keyedMutex
}

func NewScoreService(s store.ScoreStore) *ScoreService {
	return &ScoreService{Store: s, locks: newKeyedMutex()}
}

// Submit records a candidate score. The stored score only moves up.
// Rank is the user's position in the store sorted by score, with ties going
// to the earlier timestamp (see rankAfterSubmit).
func (s *ScoreService) Submit(ctx context.Context, username string, score int64, timestamp *time.Time) (models.SubmitResult, error) {
	if username == "" {
		return models.SubmitResult{}, invalid("Username and score are required")
	}
	if score < 0 {
		return models.SubmitResult{}, invalid("Score must be a non-negative integer")
	}

	unlock := s.locks.Lock(models.UsernameKey(username))
	defer unlock()

	rec, created, err := s.Store.UpsertOnSubmit(ctx, username, score, timestamp)
	if err != nil {
		return models.SubmitResult{}, fmt.Errorf("submit score: %w", err)
	}

	all, err := s.Store.All(ctx)
	if err != nil {
		return models.SubmitResult{}, fmt.Errorf("submit score: %w", err)
	}
	rank := rankAfterSubmit(all, rec.UsernameKey)

	verb := "updated"
	if created {
		verb = "saved"
		log.Printf("[SCORES] new player %q score=%d rank=%d", rec.Username, rec.Score, rank)
	}

	return models.SubmitResult{
		Success: true,
		Rank:    rank,
		Message: fmt.Sprintf("Score %s successfully", verb),
	}, nil
}

// Leaderboard returns the top records by score, earlier timestamp first on ties.
func (s *ScoreService) Leaderboard(ctx context.Context) ([]models.ScoreRecord, error) {
	all, err := s.Store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Timestamp.Before(all[j].Timestamp)
	})

	if len(all) > LeaderboardSize {
		all = all[:LeaderboardSize]
	}
	if all == nil {
		all = []models.ScoreRecord{}
	}
	return all, nil
}

// GetUserScore returns the record and its lookup rank.
func (s *ScoreService) GetUserScore(ctx context.Context, username string) (models.UserScore, error) {
	rec, err := s.Store.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.UserScore{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return models.UserScore{}, fmt.Errorf("get user score: %w", err)
	}

	all, err := s.Store.All(ctx)
	if err != nil {
		return models.UserScore{}, fmt.Errorf("get user score: %w", err)
	}

	return models.UserScore{
		ScoreRecord: rec,
		Rank:        rankOnLookup(all, rec.Score),
	}, nil
}

// Reset forces the user's score, creating the record when needed.
func (s *ScoreService) Reset(ctx context.Context, username string, score int64) (models.ScoreRecord, error) {
	if username == "" {
		return models.ScoreRecord{}, invalid("Username is required")
	}
	if score < 0 {
		return models.ScoreRecord{}, invalid("Score must be a non-negative integer")
	}

	unlock := s.locks.Lock(models.UsernameKey(username))
	defer unlock()

	rec, err := s.Store.SetAbsolute(ctx, username, score)
	if err != nil {
		return models.ScoreRecord{}, fmt.Errorf("reset score: %w", err)
	}
	log.Printf("[SCORES] reset %q to %d", rec.Username, rec.Score)
	return rec, nil
}

// rankAfterSubmit is the 1-based position of key after a stable sort by
// score descending. Equal scores go to the earlier timestamp, then store
// order, so a player who climbs into a tie ranks behind whoever held that
// score first. Unlike rankOnLookup, tied players never share a rank.
func rankAfterSubmit(records []models.ScoreRecord, key string) int {
	sorted := make([]models.ScoreRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	for i, rec := range sorted {
		if rec.UsernameKey == key {
			return i + 1
		}
	}
	return 0
}

// rankOnLookup is 1 plus the number of records with a strictly greater score.
// Tied players share a rank.
func rankOnLookup(records []models.ScoreRecord, score int64) int {
	rank := 1
	for _, rec := range records {
		if rec.Score > score {
			rank++
		}
	}
	return rank
}
