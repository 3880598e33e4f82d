package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/pv/foundry-portal/internal/dashboard"
	"github.com/pv/foundry-portal/internal/logger"
	"github.com/pv/foundry-portal/internal/viewer"
)

func main() {
	godotenv.Load()

	var (
		portalURL = flag.String("portal-url", envOr("PORTAL_URL", "http://localhost:5000"), "Portal server base URL")
		refresh   = flag.Duration("refresh", dashboard.DefaultPollInterval, "Dashboard refresh interval")
		fallback  = flag.String("fallback-background", "/static/images/background.jpg", "Background shown when a world image fails to load")
		password  = flag.String("password", envOr("PORTAL_PASSWORD", ""), "Portal password, empty skips login")
		role      = flag.String("role", "viewer", "Login role: viewer or admin")
		logFile   = flag.String("log-file", "", "Log destination, empty discards logs")
	)
	flag.Parse()

	// The terminal owns stdout; logs either go to a file or nowhere.
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.InitWriter(f, "text", slog.LevelInfo)
	} else {
		logger.Discard()
	}

	client := dashboard.NewClient(*portalURL)

	if *password != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := client.Login(ctx, *password, *role)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "login: %v\n", err)
			os.Exit(1)
		}
	}

	surface := viewer.NewSurface()
	loader := dashboard.NewBackgroundLoader(dashboard.NewHTTPImageProber(10*time.Second), *fallback)
	engine := dashboard.NewEngine(client, surface, loader)
	model := viewer.NewModel(engine, surface)

	program := tea.NewProgram(model, tea.WithAltScreen())

	// The poll cadence lives outside the program loop: the scheduler ticks
	// and the model reacts to the message.
	interval := *refresh
	if interval <= 0 {
		interval = dashboard.DefaultPollInterval
	}
	task := dashboard.Schedule(context.Background(), interval, func(context.Context) {
		program.Send(viewer.RefreshTickMsg{})
	})
	defer task.Stop()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "viewer: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
