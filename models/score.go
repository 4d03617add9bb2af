// models/score.go
package models

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ScoreRecord is the best known score of one player.
// UsernameKey is the lowercase form of Username and is what uniqueness is enforced on.
type ScoreRecord struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"not null"`
	UsernameKey string    `json:"-" gorm:"uniqueIndex;not null"`
	Score       int64     `json:"score" gorm:"not null;default:0"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`
	CreatedAt   time.Time `json:"-" gorm:"autoCreateTime"`
}

// UsernameKey normalizes a username for case-insensitive comparison.
func UsernameKey(username string) string {
	return cases.Lower(language.Und).String(username)
}

// UserScore is a record plus its rank, flattened in JSON.
type UserScore struct {
	ScoreRecord
	Rank int `json:"rank"`
}

// SubmitResult is returned by a score submission.
type SubmitResult struct {
	Success bool   `json:"success"`
	Rank    int    `json:"rank"`
	Message string `json:"message"`
}

// ResetResult is returned by a score reset.
type ResetResult struct {
	Success bool        `json:"success"`
	Score   ScoreRecord `json:"score"`
}
