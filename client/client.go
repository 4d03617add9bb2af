// Package client talks to the clicker leaderboard API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clicker-leaderboard/models"
	"clicker-leaderboard/utils"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int    `json:"-"`
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client for baseURL, e.g. "http://localhost:3001/api".
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: utils.HTTPClient,
	}
}

// SubmitScore posts a candidate score. A zero timestamp is left for the server to fill.
func (c *Client) SubmitScore(ctx context.Context, username string, score int64, timestamp time.Time) (models.SubmitResult, error) {
	body := map[string]interface{}{
		"username": username,
		"score":    score,
	}
	if !timestamp.IsZero() {
		body["timestamp"] = timestamp.UTC().Format(time.RFC3339Nano)
	}

	var out models.SubmitResult
	err := c.do(ctx, http.MethodPost, "/scores", body, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context) ([]models.ScoreRecord, error) {
	var out []models.ScoreRecord
	err := c.do(ctx, http.MethodGet, "/leaderboard", nil, &out)
	return out, err
}

func (c *Client) GetUserScore(ctx context.Context, username string) (models.UserScore, error) {
	var out models.UserScore
	err := c.do(ctx, http.MethodGet, "/scores/"+url.PathEscape(username), nil, &out)
	return out, err
}

func (c *Client) ResetScore(ctx context.Context, username string, score int64) (models.ScoreRecord, error) {
	var out models.ResetResult
	err := c.do(ctx, http.MethodPut, "/scores/"+url.PathEscape(username)+"/reset", map[string]int64{"score": score}, &out)
	return out.Score, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
