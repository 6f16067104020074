package main

import "time"

// Operational limits governing the main-package wiring: shutdown drain
// windows and scheduler handler abandonment (spec §5).
const (
	// defaultShutdownDrain is how long a draining session is given to
	// finish in-flight reads after the shutdown notice goes out
	// (spec §5 "wait ≤ T, default 10s").
	defaultShutdownDrain = 10 * time.Second

	// defaultSchedulerDrain bounds how long shutdown waits for in-flight
	// scheduler handlers before abandoning them (spec §5).
	defaultSchedulerDrain = 5 * time.Second

	// defaultMaxPlayers is the admission cap enforced at accept (spec §5)
	// when the operator does not set -max-players. Zero would mean
	// unbounded, which is never what a production deploy wants by default.
	defaultMaxPlayers = 1000

	// defaultMinDist/defaultMaxDist are the server-wide positional-audio
	// distance defaults new rooms start with (SPEC_FULL §9
	// "positional_audio" config), absent a per-room override.
	defaultMinDist = 1.0
	defaultMaxDist = 50.0

	// defaultDataDir is where the SQLite database file lives when -data-dir
	// is left at its default.
	defaultDataDir = "."
)
