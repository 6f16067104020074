package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ringhub/server/internal/admin"
	"ringhub/server/internal/lobby"
	"ringhub/server/internal/store"
)

type fakeSessionCounter int

func (f fakeSessionCounter) Len() int { return int(f) }

func newTestServer(t *testing.T, adminToken string) *Server {
	t.Helper()
	s, err := store.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	lb := lobby.New(nil)
	reg := admin.New(s, func() string { return "audit-1" })
	return New(lb, nil, reg, fakeSessionCounter(3), adminToken)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	if err := srv.handleHealth(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status field: got %q", resp.Status)
	}
}

func TestHandleRoomsListsCreatedRooms(t *testing.T) {
	srv := newTestServer(t, "")
	srv.lobby.CreateRoom(lobby.CreateRoomParams{Name: "arena", Max: 4, CreatorID: "owner"})

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	if err := srv.handleRooms(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var rooms []roomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "arena" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestHandleMetricsReportsSessionCount(t *testing.T) {
	srv := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	if err := srv.handleMetrics(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var m metricsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Sessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", m.Sessions)
	}
}

func TestBanRoutesRequireAdminToken(t *testing.T) {
	srv := newTestServer(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/bans", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/bans", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec = httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with correct token, got %d", rec.Code)
	}
}
