package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clicker-leaderboard/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps score records in Postgres. Uniqueness is enforced by the
// unique index on username_key.
type GormStore struct {
	DB *gorm.DB
}

var _ ScoreStore = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Kind() string { return "postgres" }

func (s *GormStore) FindByUsername(ctx context.Context, username string) (models.ScoreRecord, error) {
	var rec models.ScoreRecord
	err := s.DB.WithContext(ctx).
		Where("username_key = ?", models.UsernameKey(username)).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("find %q: %w", username, err)
	}
	return rec, nil
}

func (s *GormStore) UpsertOnSubmit(ctx context.Context, username string, score int64, timestamp *time.Time) (models.ScoreRecord, bool, error) {
	ts := now()
	if timestamp != nil {
		ts = timestamp.UTC()
	}

	var rec models.ScoreRecord
	created := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, ok, err := s.insertIfAbsent(tx, username, score, ts)
		if err != nil {
			return err
		}
		if ok {
			rec, created = inserted, true
			return nil
		}

		if err := s.lockByKey(tx, username, &rec); err != nil {
			return err
		}
		if score <= rec.Score {
			return nil
		}
		if err := tx.Model(&rec).Updates(map[string]interface{}{
			"score":     score,
			"timestamp": ts,
		}).Error; err != nil {
			return err
		}
		rec.Score = score
		rec.Timestamp = ts
		return nil
	})
	if err != nil {
		return models.ScoreRecord{}, false, fmt.Errorf("upsert %q: %w", username, err)
	}
	return rec, created, nil
}

func (s *GormStore) SetAbsolute(ctx context.Context, username string, score int64) (models.ScoreRecord, error) {
	ts := now()

	var rec models.ScoreRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, ok, err := s.insertIfAbsent(tx, username, score, ts)
		if err != nil {
			return err
		}
		if ok {
			rec = inserted
			return nil
		}

		if err := s.lockByKey(tx, username, &rec); err != nil {
			return err
		}
		if err := tx.Model(&rec).Updates(map[string]interface{}{
			"score":     score,
			"timestamp": ts,
		}).Error; err != nil {
			return err
		}
		rec.Score = score
		rec.Timestamp = ts
		return nil
	})
	if err != nil {
		return models.ScoreRecord{}, fmt.Errorf("set %q: %w", username, err)
	}
	return rec, nil
}

func (s *GormStore) All(ctx context.Context) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	if err := s.DB.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return records, nil
}

// insertIfAbsent reports false without error when a record for the
// username already exists.
func (s *GormStore) insertIfAbsent(tx *gorm.DB, username string, score int64, ts time.Time) (models.ScoreRecord, bool, error) {
	rec := models.ScoreRecord{
		ID:          uuid.NewString(),
		Username:    username,
		UsernameKey: models.UsernameKey(username),
		Score:       score,
		Timestamp:   ts,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username_key"}},
		DoNothing: true,
	}).Create(&rec)
	if res.Error != nil {
		return models.ScoreRecord{}, false, res.Error
	}
	return rec, res.RowsAffected == 1, nil
}

func (s *GormStore) lockByKey(tx *gorm.DB, username string, rec *models.ScoreRecord) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("username_key = ?", models.UsernameKey(username)).
		First(rec).Error
}
