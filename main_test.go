package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clicker-leaderboard/services"
	"clicker-leaderboard/store"
)

func TestHealthz(t *testing.T) {
	app := newApp(services.NewScoreService(store.NewMemoryStore()), "*")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["store"] != "memory" {
		t.Fatalf("body = %v", body)
	}
}

func TestUnknownRouteThroughApp(t *testing.T) {
	app := newApp(services.NewScoreService(store.NewMemoryStore()), "*")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/nope", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAllowedOriginsTrimsSpaces(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	if got := allowedOrigins(); got != "http://a.test,http://b.test" {
		t.Fatalf("allowedOrigins = %q", got)
	}
}
