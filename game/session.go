// Package game is the clicker front-end logic: a local click counter that
// is reported to the leaderboard API on a fixed interval.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"clicker-leaderboard/client"
	"clicker-leaderboard/models"
)

// SyncInterval is how often the counter is submitted.
const SyncInterval = 3 * time.Second

const (
	minUsernameLen = 2
	maxUsernameLen = 20
	viewSize       = 10
)

var (
	ErrInvalidUsername = fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	ErrNotLoggedIn     = errors.New("not logged in")
)

// API is the subset of *client.Client the session needs.
type API interface {
	SubmitScore(ctx context.Context, username string, score int64, timestamp time.Time) (models.SubmitResult, error)
	Leaderboard(ctx context.Context) ([]models.ScoreRecord, error)
	GetUserScore(ctx context.Context, username string) (models.UserScore, error)
	ResetScore(ctx context.Context, username string, score int64) (models.ScoreRecord, error)
}

var _ API = (*client.Client)(nil)

// Session holds one player's game state. Click is safe to call from any
// goroutine while Run is syncing.
type Session struct {
	// OnSync, when set, is called after each successful Sync with the
	// refreshed leaderboard and the rank from the submission.
	OnSync func(rows []Row, rank int)

	api   API
	toast func(string)
	clock func() time.Time

	score atomic.Int64

	mu          sync.RWMutex
	username    string
	loggedIn    bool
	leaderboard []models.ScoreRecord
	lastRank    int
}

// NewSession reports toasts through toast, which may be nil.
func NewSession(api API, toast func(string)) *Session {
	if toast == nil {
		toast = func(string) {}
	}
	return &Session{
		api:   api,
		toast: toast,
		clock: time.Now,
	}
}

// Login resolves the remote record for username, creating it at 0 when it
// does not exist, then loads the leaderboard.
func (s *Session) Login(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if n := len([]rune(username)); n < minUsernameLen || n > maxUsernameLen {
		return ErrInvalidUsername
	}

	us, err := s.api.GetUserScore(ctx, username)
	switch {
	case err == nil:
		s.score.Store(us.Score)
		s.toast(fmt.Sprintf("Welcome back %s! Your current score: %d", username, us.Score))
	case client.IsNotFound(err):
		if _, err := s.api.ResetScore(ctx, username, 0); err != nil {
			s.toast("Error logging in. Please try again.")
			return fmt.Errorf("create %q: %w", username, err)
		}
		s.score.Store(0)
		s.toast(fmt.Sprintf("Welcome %s! Starting fresh!", username))
	default:
		s.toast("Error logging in. Please try again.")
		return fmt.Errorf("look up %q: %w", username, err)
	}

	s.mu.Lock()
	s.username = username
	s.loggedIn = true
	s.mu.Unlock()

	s.refreshLeaderboard(ctx)
	return nil
}

// Click adds one point to the local counter and returns the new value.
func (s *Session) Click() int64 {
	return s.score.Add(1)
}

func (s *Session) Score() int64 {
	return s.score.Load()
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Rank is the rank returned by the last successful submission, 0 before any.
func (s *Session) Rank() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRank
}

// Sync submits the counter and refreshes the leaderboard. The leaderboard is
// only refreshed after a successful submission.
func (s *Session) Sync(ctx context.Context) error {
	s.mu.RLock()
	username, loggedIn := s.username, s.loggedIn
	s.mu.RUnlock()
	if !loggedIn {
		return ErrNotLoggedIn
	}

	res, err := s.api.SubmitScore(ctx, username, s.score.Load(), s.clock())
	if err != nil {
		s.toast("Failed to save score: " + err.Error())
		return err
	}

	s.mu.Lock()
	s.lastRank = res.Rank
	s.mu.Unlock()

	s.refreshLeaderboard(ctx)
	if s.OnSync != nil {
		s.OnSync(s.View(), res.Rank)
	}
	return nil
}

// Run syncs immediately and then every SyncInterval until ctx is done.
// Failed ticks are not retried; the next tick simply tries again.
func (s *Session) Run(ctx context.Context) {
	s.run(ctx, SyncInterval)
}

func (s *Session) run(ctx context.Context, interval time.Duration) {
	_ = s.Sync(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Sync(ctx)
		}
	}
}

func (s *Session) refreshLeaderboard(ctx context.Context) {
	top, err := s.api.Leaderboard(ctx)
	if err != nil {
		s.toast("Failed to fetch leaderboard: " + err.Error())
		return
	}
	if len(top) > viewSize {
		top = top[:viewSize]
	}

	s.mu.Lock()
	s.leaderboard = top
	s.mu.Unlock()
}

// View returns the current leaderboard rows.
func (s *Session) View() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]Row, len(s.leaderboard))
	for i, rec := range s.leaderboard {
		rows[i] = Row{
			Position: i + 1,
			Medal:    medalFor(i),
			Username: rec.Username,
			Score:    rec.Score,
			IsYou:    models.UsernameKey(rec.Username) == models.UsernameKey(s.username),
		}
	}
	return rows
}
