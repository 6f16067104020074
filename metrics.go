package main

import (
	"context"
	"log/slog"
	"time"

	"ringhub/server/internal/lobby"
	"ringhub/server/internal/scheduler"
	"ringhub/server/internal/session"
)

// RunMetrics logs lobby/scheduler/session counts every interval until ctx is
// canceled. Grounded on the teacher's metrics.go ticker, rebound from
// room.Stats() datagram/byte counters to the new domain's player/room/event
// counts.
func RunMetrics(ctx context.Context, lb *lobby.Lobby, sched *scheduler.Scheduler, registry *session.Registry, log *slog.Logger, interval time.Duration) {
	if log == nil {
		log = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			players := len(lb.ListPlayers())
			rooms := len(lb.ListRooms())
			sessions := registry.Len()
			if sessions == 0 && players == 0 {
				continue
			}
			log.Info("metrics", "players", players, "rooms", rooms, "sessions", sessions, "scheduled_events", sched.Len())
		}
	}
}
