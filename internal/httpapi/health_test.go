package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth_AllUp(t *testing.T) {
	h := NewHandler(map[string]DependencyChecker{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return nil },
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Dependencies["store"].Status != "up" || resp.Dependencies["redis"].Status != "up" {
		t.Errorf("dependencies = %+v, want both up", resp.Dependencies)
	}
}

func TestHandleHealth_OneDown(t *testing.T) {
	h := NewHandler(map[string]DependencyChecker{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.handleHealth(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Dependencies["redis"].Status != "down" {
		t.Errorf("redis status = %q, want down", resp.Dependencies["redis"].Status)
	}
	if resp.Dependencies["redis"].Error == "" {
		t.Error("expected redis dependency to carry its error message")
	}
}
