package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"ringhub/server/internal/admin"
	"ringhub/server/internal/store"
)

// RunCLI handles the thin admin subcommands spec §9 calls for (version,
// status, bans list/add/remove). Returns true if a subcommand was handled.
// Grounded on the teacher's cli.go subcommand switch, rebound from
// channel/settings CRUD to ban administration.
func RunCLI(args []string, dbPath string) bool {
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "version":
		fmt.Printf("ringhub server %s\n", Version)
		return true
	case "status":
		return cliStatus(dbPath)
	case "bans":
		return cliBans(args[1:], dbPath)
	default:
		return false
	}
}

func openQuietStore(dbPath string) *store.SQLiteStore {
	st, err := store.Open(dbPath, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	return st
}

func cliStatus(dbPath string) bool {
	st := openQuietStore(dbPath)
	defer st.Close()

	reg := admin.New(st, uuid.NewString)
	bans, err := reg.LoadBans(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	active := 0
	for _, b := range bans {
		if b.Active(time.Now()) {
			active++
		}
	}
	fmt.Printf("Database: %s\n", dbPath)
	fmt.Printf("Bans: %d (%d active)\n", len(bans), active)
	fmt.Printf("Version: %s\n", Version)
	return true
}

func cliBans(args []string, dbPath string) bool {
	st := openQuietStore(dbPath)
	defer st.Close()

	reg := admin.New(st, uuid.NewString)
	actor := admin.Principal{ID: "cli", Name: "cli", Role: admin.RoleAdmin}
	ctx := context.Background()

	if len(args) == 0 || args[0] == "list" {
		bans, err := reg.LoadBans(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(bans, "", "  ")
		fmt.Println(string(out))
		return true
	}

	if args[0] == "add" && len(args) > 1 {
		playerID := args[1]
		reason := ""
		if len(args) > 2 {
			reason = args[2]
		}
		var until *time.Time
		if len(args) > 3 {
			d, err := time.ParseDuration(args[3])
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad duration %q: %v\n", args[3], err)
				os.Exit(1)
			}
			t := time.Now().Add(d)
			until = &t
		}
		if err := reg.Ban(ctx, actor, playerID, reason, until); err != nil {
			fmt.Fprintf(os.Stderr, "ban failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Banned %s\n", playerID)
		return true
	}

	if args[0] == "remove" && len(args) > 1 {
		playerID := args[1]
		removed, err := reg.Unban(ctx, actor, playerID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unban failed: %v\n", err)
			os.Exit(1)
		}
		if !removed {
			fmt.Printf("No ban on record for %s\n", playerID)
			return true
		}
		fmt.Printf("Unbanned %s\n", playerID)
		return true
	}

	fmt.Fprintf(os.Stderr, "Usage: server bans [list|add <player-id> [reason] [duration]|remove <player-id>]\n")
	os.Exit(1)
	return true
}
