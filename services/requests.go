package services

import (
	"bytes"
	"encoding/json"
	"log"
	"math"
	"time"
)

// maxScore is the largest integer a JSON number carries without loss.
const maxScore = 1<<53 - 1

// SubmitRequest is the body of POST /api/scores.
type SubmitRequest struct {
	Username  string          `json:"username"`
	Score     json.RawMessage `json:"score"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// timestampLayouts are the ISO-8601 forms accepted for a submitted timestamp.
// Fractional seconds are accepted after the seconds field of any layout.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse validates the request. A blank or unreadable timestamp yields nil,
// and the store then stamps the record with the server time.
func (r SubmitRequest) Parse() (string, int64, *time.Time, error) {
	if r.Username == "" {
		return "", 0, nil, invalid("Username and score are required")
	}
	if !hasValue(r.Score) {
		return "", 0, nil, invalid("Username and score are required")
	}
	score, err := parseScore(r.Score)
	if err != nil {
		return "", 0, nil, err
	}

	return r.Username, score, parseTimestamp(r.Timestamp), nil
}

// parseTimestamp reads value with the first matching layout. Layouts without
// a zone are read as UTC.
func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	log.Printf("[SCORES] unreadable timestamp %q, using server time", value)
	return nil
}

// ResetRequest is the optional body of PUT /api/scores/:username/reset.
type ResetRequest struct {
	Score json.RawMessage `json:"score,omitempty"`
}

// Parse returns the requested score, 0 when absent.
func (r ResetRequest) Parse() (int64, error) {
	if !hasValue(r.Score) {
		return 0, nil
	}
	return parseScore(r.Score)
}

func hasValue(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func parseScore(raw json.RawMessage) (int64, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, invalid("Score must be a number")
	}
	f, ok := v.(float64)
	if !ok {
		return 0, invalid("Score must be a number")
	}
	if f < 0 || f > maxScore || f != math.Trunc(f) {
		return 0, invalid("Score must be a non-negative integer")
	}
	return int64(f), nil
}
