package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/remote"
	"tally/internal/remote/memory"
	"tally/internal/storage"
	"tally/internal/store"
	tallysync "tally/internal/sync"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	local := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	reg := store.NewRegistry(local)
	reg.Init(context.Background())

	auth := remote.NewStaticAuth("user-1")
	bridge := tallysync.New(reg, auth,
		memory.NewCollection[core.Expense](),
		memory.NewCollection[core.Category](),
		memory.NewCollection[core.Budget]())
	bridge.AuthWait = 50 * time.Millisecond

	s := NewServer(":0", Deps{
		Registry: reg,
		Views:    store.NewViews(reg),
		Local:    local,
		Bridge:   bridge,
		UserID:   "user-1",
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

// newRawRequest builds a request carrying a raw string body, for payloads
// that are deliberately not valid JSON.
func newRawRequest(method, path, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	return req, httptest.NewRecorder()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy missing")
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/expenses?q=../../etc/passwd", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if s.detector.GetMetrics().SuspiciousRequests == 0 {
		t.Error("detector metric not incremented")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodGet, "/healthz", nil)
	rec := doJSON(t, s, http.MethodGet, "/api/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decodeBody[map[string]any](t, rec)
	if m["totalRequests"].(float64) < 1 {
		t.Errorf("totalRequests = %v", m["totalRequests"])
	}
}

func TestSyncLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/sync/status", nil)
	status := decodeBody[tallysync.Status](t, rec)
	if status.Running {
		t.Fatal("sync should not be running initially")
	}

	rec = doJSON(t, s, http.MethodPost, "/api/sync/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	status = decodeBody[tallysync.Status](t, rec)
	if !status.Running || status.UserID != "user-1" {
		t.Errorf("status after start = %+v", status)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/sync/stop", nil)
	status = decodeBody[tallysync.Status](t, rec)
	if status.Running {
		t.Errorf("status after stop = %+v", status)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/preferences", nil)
	prefs := decodeBody[core.Preferences](t, rec)
	if prefs.Currency != "USD" {
		t.Errorf("default currency = %q", prefs.Currency)
	}

	currency := "EUR"
	theme := core.ThemeLight
	rec = doJSON(t, s, http.MethodPut, "/api/preferences", map[string]any{
		"currency": currency,
		"theme":    theme,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	prefs = decodeBody[core.Preferences](t, rec)
	if prefs.Currency != "EUR" || prefs.Theme != core.ThemeLight {
		t.Errorf("updated prefs = %+v", prefs)
	}
	if prefs.Language != "en" {
		t.Errorf("untouched language = %q", prefs.Language)
	}
}
