package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"haru/internal/config"
	"haru/internal/controller"
	"haru/internal/prefs"
	"haru/internal/storage"
	"haru/internal/task"
	"haru/internal/ui"
)

func main() {
	configPath := config.ResolveConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logFile := initLogger(cfg.LogPath)
	if logFile != nil {
		defer logFile.Close()
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Seed(sampleTasks()); err != nil {
		fmt.Printf("failed to seed database: %v\n", err)
		os.Exit(1)
	}

	pm := prefs.Open(cfg.PrefsPath)

	// The app scope outlives the list screen; confirmed destructive
	// operations run on it.
	appCtx := context.Background()

	state := controller.NewState()
	ctrl := controller.NewTaskList(appCtx, store, pm, state)
	defer ctrl.Close()

	newEditor := func(s *controller.State, existing *task.Task) *controller.Editor {
		return controller.NewEditor(store, s, existing)
	}

	slog.Info("starting", "db", cfg.DBPath, "prefs", cfg.PrefsPath)
	if err := ui.Run(appCtx, ctrl, newEditor, cfg); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}

// initLogger points slog at the configured log file. Stdout belongs to
// the TUI, so a broken log path just silences logging.
func initLogger(path string) *os.File {
	if path == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, nil)))
	return f
}

// sampleTasks populates a brand-new database so the first launch has
// something to show.
func sampleTasks() []task.Task {
	return []task.Task{
		task.New("Wash the dishes", false),
		task.New("Do the laundry", false),
		task.New("Buy groceries", false),
		task.New("Prepare food", true),
		task.New("Call mom", false),
		task.New("Visit grandma", false).WithCompleted(true),
		task.New("Repair the bike", false).WithCompleted(true),
		task.New("Call the dentist", false),
	}
}
