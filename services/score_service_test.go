package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"clicker-leaderboard/store"
)

func newTestService() *ScoreService {
	return NewScoreService(store.NewMemoryStore())
}

func at(sec int) *time.Time {
	t := time.Date(2024, 1, 1, 0, 0, sec, 0, time.UTC)
	return &t
}

func TestSubmitScenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, "bob", 5, nil)
	if err != nil {
		t.Fatalf("submit bob: %v", err)
	}
	if !res.Success || res.Rank != 1 || res.Message != "Score saved successfully" {
		t.Fatalf("bob = %+v", res)
	}

	res, err = svc.Submit(ctx, "amy", 10, nil)
	if err != nil {
		t.Fatalf("submit amy: %v", err)
	}
	if res.Rank != 1 {
		t.Fatalf("amy rank = %d, want 1", res.Rank)
	}

	us, err := svc.GetUserScore(ctx, "bob")
	if err != nil {
		t.Fatalf("get bob: %v", err)
	}
	if us.Score != 5 || us.Rank != 2 {
		t.Fatalf("bob = score %d rank %d, want 5/2", us.Score, us.Rank)
	}
}

func TestSubmitMessages(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	res, _ := svc.Submit(ctx, "dana", 1, nil)
	if !strings.Contains(res.Message, "saved") {
		t.Fatalf("first message = %q", res.Message)
	}
	res, _ = svc.Submit(ctx, "dana", 2, nil)
	if !strings.Contains(res.Message, "updated") {
		t.Fatalf("second message = %q", res.Message)
	}
	res, _ = svc.Submit(ctx, "DANA", 0, nil)
	if res.Message != "Score updated successfully" {
		t.Fatalf("unchanged submit message = %q", res.Message)
	}
}

func TestSubmitIsMonotonic(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, score := range []int64{40, 12, 39, 0} {
		if _, err := svc.Submit(ctx, "erin", score, nil); err != nil {
			t.Fatalf("submit %d: %v", score, err)
		}
	}

	us, err := svc.GetUserScore(ctx, "erin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if us.Score != 40 {
		t.Fatalf("score = %d, want 40", us.Score)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "", 1, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty username: got %v", err)
	}
	if _, err := svc.Submit(ctx, "x", -1, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative score: got %v", err)
	}
	all, _ := svc.Store.All(ctx)
	if len(all) != 0 {
		t.Fatalf("invalid submits must not touch the store, got %d records", len(all))
	}
}

func TestRankAfterSubmitAndOnLookupDifferOnTies(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "first", 5, at(1)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := svc.Submit(ctx, "second", 5, at(2))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Rank != 2 {
		t.Fatalf("rank after submit = %d, want 2 (earlier timestamp wins the tie)", res.Rank)
	}

	us, err := svc.GetUserScore(ctx, "second")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if us.Rank != 1 {
		t.Fatalf("rank on lookup = %d, want 1 (ties share a rank)", us.Rank)
	}
}

func TestRankAfterSubmitClimbIntoTieRanksBehindHolder(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "a", 5, at(1)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(ctx, "b", 10, at(2)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := svc.Submit(ctx, "a", 10, at(3))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Rank != 2 {
		t.Fatalf("rank after climbing into a tie = %d, want 2", res.Rank)
	}

	top, err := svc.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if top[0].Username != "b" || top[1].Username != "a" {
		t.Fatalf("leaderboard order = %s, %s; want b, a", top[0].Username, top[1].Username)
	}

	us, err := svc.GetUserScore(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if us.Rank != 1 {
		t.Fatalf("rank on lookup = %d, want 1", us.Rank)
	}
}

func TestLeaderboardOrderingAndLimit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// p00..p14: scores 0..14; plus two players tied at 14 with different timestamps.
	for i := 0; i < 15; i++ {
		if _, err := svc.Submit(ctx, fmt.Sprintf("p%02d", i), int64(i), at(30)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if _, err := svc.Submit(ctx, "late", 14, at(50)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(ctx, "early", 14, at(10)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	top, err := svc.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != LeaderboardSize {
		t.Fatalf("len = %d, want %d", len(top), LeaderboardSize)
	}

	want := []string{"early", "p14", "late", "p13", "p12"}
	for i, name := range want {
		if top[i].Username != name {
			t.Fatalf("top[%d] = %s, want %s", i, top[i].Username, name)
		}
	}
	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		if prev.Score < cur.Score {
			t.Fatalf("not sorted by score at %d", i)
		}
		if prev.Score == cur.Score && prev.Timestamp.After(cur.Timestamp) {
			t.Fatalf("tie not broken by earlier timestamp at %d", i)
		}
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	top, err := newTestService().Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if top == nil || len(top) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", top)
	}
}

func TestGetUserScoreNotFound(t *testing.T) {
	_, err := newTestService().GetUserScore(context.Background(), "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetUserScoreCaseInsensitive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "Alice", 3, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	us, err := svc.GetUserScore(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if us.Username != "Alice" || us.Score != 3 || us.Rank != 1 {
		t.Fatalf("got %+v", us)
	}
}

func TestResetCreatesAndOverwrites(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	rec, err := svc.Reset(ctx, "carl", 0)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if rec.Username != "carl" || rec.Score != 0 {
		t.Fatalf("got %+v", rec)
	}

	if _, err := svc.Submit(ctx, "carl", 100, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	first, err := svc.Reset(ctx, "carl", 7)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	second, err := svc.Reset(ctx, "CARL", 7)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if first.Score != 7 || second.Score != 7 {
		t.Fatalf("scores = %d, %d, want 7", first.Score, second.Score)
	}
	if first.ID != second.ID {
		t.Fatalf("reset must update the record in place")
	}
	if second.Timestamp.Before(first.Timestamp) {
		t.Fatalf("reset timestamp went backwards")
	}
}

func TestConcurrentSubmitsKeepHighestScore(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(score int64) {
			defer wg.Done()
			res, err := svc.Submit(ctx, "hammer", score, nil)
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			if res.Rank != 1 {
				t.Errorf("rank = %d, want 1", res.Rank)
			}
		}(int64(i))
	}
	wg.Wait()

	us, err := svc.GetUserScore(ctx, "hammer")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if us.Score != 100 {
		t.Fatalf("score = %d, want 100", us.Score)
	}
	if n := svc.locks.size(); n != 0 {
		t.Fatalf("keyed locks leaked: %d", n)
	}
}
