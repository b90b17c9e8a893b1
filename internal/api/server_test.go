package api

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/job"
	"github.com/naki0227/nue/internal/store"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "nue.db"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewServer(zerolog.Nop(), st, 0), st
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestJobsEndpoint(t *testing.T) {
	s, st := testServer(t)

	now := time.Now().UTC()
	err := st.Record(job.Record{
		ID:         "abc123",
		Source:     "/data/raw/in.mp4",
		Document:   "/data/json/in.mp4.json",
		Output:     "/data/output/in_final.mp4",
		Status:     "done",
		StartedAt:  now,
		FinishedAt: now.Add(20 * time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/jobs?limit=5", nil)
	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body)
	}

	var resp struct {
		Jobs []jobResponse `json:"jobs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(resp.Jobs))
	}
	if resp.Jobs[0].ID != "abc123" || resp.Jobs[0].Status != "done" {
		t.Errorf("job = %+v", resp.Jobs[0])
	}
	if resp.Jobs[0].Error != "" {
		t.Errorf("error should be omitted, got %q", resp.Jobs[0].Error)
	}
}

func TestJobsEndpointEmpty(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
}
