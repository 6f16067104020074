// Package httpapi is the read-mostly operator surface spec §9 adds on top
// of the game protocol: health, a room snapshot, scheduler/lobby metrics,
// version, and ban administration. Grounded on the teacher's Echo +
// middleware.Recover + slog request-logging server (internal/httpapi's
// prior incarnation), rebound to internal/lobby, internal/scheduler and
// internal/admin instead of the teacher's chat-channel store.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ringhub/server/internal/admin"
	"ringhub/server/internal/lobby"
	"ringhub/server/internal/scheduler"
)

// SessionCounter reports how many transport sessions are currently live,
// without httpapi needing to import the session package's concrete types.
type SessionCounter interface {
	Len() int
}

// Version is set by main at build/boot time and surfaced at /api/version.
var Version = "dev"

// Server is the ops Echo application.
type Server struct {
	echo      *echo.Echo
	lobby     *lobby.Lobby
	scheduler *scheduler.Scheduler
	admin      *admin.Registry
	sessions   SessionCounter
	adminToken string
	startedAt  time.Time
}

// New constructs the ops Echo app with its routes registered. adminToken
// gates the ban-mutating routes; an empty token disables them entirely
// rather than leaving them open.
func New(lb *lobby.Lobby, sch *scheduler.Scheduler, reg *admin.Registry, sessions SessionCounter, adminToken string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{echo: e, lobby: lb, scheduler: sch, admin: reg, sessions: sessions, adminToken: adminToken, startedAt: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Server) requireAdminToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.adminToken == "" || c.Request().Header.Get("X-Admin-Token") != s.adminToken {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin token")
		}
		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			path := req.URL.Path
			if path == "/health" {
				slog.Debug("http request", "method", req.Method, "path", path, "status", c.Response().Status, "duration_ms", time.Since(start).Milliseconds())
			} else {
				slog.Info("http request", "method", req.Method, "path", path, "status", c.Response().Status, "duration_ms", time.Since(start).Milliseconds(), "remote", c.RealIP())
			}
			return nil
		}
	}
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/api/version", s.handleVersion)
	s.echo.GET("/api/rooms", s.handleRooms)
	s.echo.GET("/api/metrics", s.handleMetrics)
	s.echo.GET("/api/bans", s.handleListBans, s.requireAdminToken)
	s.echo.DELETE("/api/bans/:id", s.handleDeleteBan, s.requireAdminToken)
}

// Run starts Echo and blocks until ctx cancellation or startup failure,
// mirroring the teacher's select-on-errCh-or-ctx.Done shutdown idiom.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down ops http server")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutCtx)
		slog.Info("ops http server stopped")
		return nil
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", UptimeS: int64(time.Since(s.startedAt).Seconds())})
}

type versionResponse struct {
	Version string `json:"version"`
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, versionResponse{Version: Version})
}

type roomResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Max     uint32 `json:"max"`
	Count   int    `json:"count"`
	Private bool   `json:"private"`
	State   string `json:"state"`
	OwnerID string `json:"owner_id"`
}

func (s *Server) handleRooms(c echo.Context) error {
	rooms := s.lobby.ListRooms()
	out := make([]roomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomResponse{
			ID: r.ID, Name: r.Name, Max: r.Max, Count: r.Count(),
			Private: r.Private, State: r.CurrentState().String(), OwnerID: r.CreatorID,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type metricsResponse struct {
	Players         int `json:"players"`
	Rooms           int `json:"rooms"`
	ScheduledEvents int `json:"scheduled_events"`
	Sessions        int `json:"sessions"`
}

func (s *Server) handleMetrics(c echo.Context) error {
	m := metricsResponse{
		Players: len(s.lobby.ListPlayers()),
		Rooms:   len(s.lobby.ListRooms()),
	}
	if s.scheduler != nil {
		m.ScheduledEvents = s.scheduler.Len()
	}
	if s.sessions != nil {
		m.Sessions = s.sessions.Len()
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleListBans(c echo.Context) error {
	bans, err := s.admin.LoadBans(c.Request().Context())
	if err != nil {
		slog.Error("load bans failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load bans")
	}
	return c.JSON(http.StatusOK, bans)
}

func (s *Server) handleDeleteBan(c echo.Context) error {
	playerID := c.Param("id")
	if playerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ban id is required")
	}
	actor := admin.Principal{ID: "ops-api", Name: "ops-api", Role: admin.RoleAdmin}
	removed, err := s.admin.Unban(c.Request().Context(), actor, playerID)
	if err != nil {
		slog.Error("unban failed", "player_id", playerID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove ban")
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "no such ban")
	}
	return c.NoContent(http.StatusNoContent)
}
