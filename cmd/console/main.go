package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/mansion-engine/internal/config"
	"github.com/jwebster45206/mansion-engine/internal/logger"
	"github.com/jwebster45206/mansion-engine/internal/storage"
	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/session"
)

const logFile = "mansion-console.log"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// the console keeps its saves on disk unless told otherwise
	if os.Getenv("STORE_BACKEND") == "" {
		cfg.StoreBackend = config.StoreSQLite
	}

	// the terminal belongs to bubbletea, so logs go to a file
	log, closer, err := logger.ToFile(cfg, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.Open(ctx, cfg, log)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s store: %v\n", cfg.StoreBackend, err)
		os.Exit(1)
	}
	defer store.Close()

	toasts := notify.NewRecorder()
	scheduler := session.NewManualScheduler()
	s := session.New(session.Options{
		Store:             store,
		ProfileID:         cfg.ProfileID,
		Notifier:          toasts,
		Scheduler:         scheduler,
		Logger:            log,
		Features:          cfg.Features,
		DefaultDifficulty: cfg.DefaultDifficulty,
		DefeatDelay:       cfg.GhostDefeatDelay,
	})
	s.Start(context.Background())
	log.Info("Console session started", "profile_id", s.ProfileID(), "store", cfg.StoreBackend)

	p := tea.NewProgram(NewConsoleUI(s, toasts, scheduler), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
