package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"clicker-leaderboard/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
)

// ObjectUploader stores a blob and returns where it can be fetched.
type ObjectUploader interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// LeaderboardSource is satisfied by *services.ScoreService.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context) ([]models.ScoreRecord, error)
}

// Snapshot is the JSON document written for each export.
type Snapshot struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Entries     []models.ScoreRecord `json:"entries"`
}

// SnapshotWorker periodically exports the leaderboard to object storage.
// Each export writes a timestamped object and overwrites latest.json.
// Unchanged leaderboards are skipped.
type SnapshotWorker struct {
	Source   LeaderboardSource
	Uploader ObjectUploader
	Prefix   string
	Interval time.Duration

	clock    func() time.Time
	mu       sync.Mutex
	lastBody []byte
}

func NewSnapshotWorker(src LeaderboardSource, up ObjectUploader, prefix string, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		Source:   src,
		Uploader: up,
		Prefix:   slug.Make(prefix),
		Interval: interval,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce exports the current leaderboard. It returns the URL of the
// timestamped object, or "" when nothing changed since the last export.
func (w *SnapshotWorker) RunOnce(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := w.Source.Leaderboard(ctx)
	if err != nil {
		return "", fmt.Errorf("read leaderboard: %w", err)
	}

	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode leaderboard: %w", err)
	}
	if w.lastBody != nil && bytes.Equal(entriesJSON, w.lastBody) {
		return "", nil
	}

	now := w.clock()
	body, err := json.Marshal(Snapshot{GeneratedAt: now, Entries: entries})
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	url, err := w.Uploader.PutObject(ctx, w.key(now.Format("20060102T150405Z")), "application/json", body)
	if err != nil {
		return "", err
	}
	if _, err := w.Uploader.PutObject(ctx, w.key("latest"), "application/json", body); err != nil {
		return "", err
	}

	w.lastBody = entriesJSON
	return url, nil
}

func (w *SnapshotWorker) key(name string) string {
	return fmt.Sprintf("%s/leaderboards/%s.json", w.Prefix, name)
}

// Start schedules RunOnce every Interval until ctx is done.
func (w *SnapshotWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.Interval),
		gocron.NewTask(func() {
			url, err := w.RunOnce(ctx)
			switch {
			case err != nil:
				log.Printf("❌ [SNAPSHOT] export failed: %v", err)
			case url != "":
				log.Printf("✅ [SNAPSHOT] exported leaderboard to %s", url)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule snapshot job: %w", err)
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("[SNAPSHOT] scheduler shutdown: %v", err)
		}
		log.Println("[SNAPSHOT] stopped")
	}()
	return nil
}
