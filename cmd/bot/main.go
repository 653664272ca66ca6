// Package main contains the entrypoint for the sweep bot application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/chatsweep/chatsweep/internal/bot"
	"github.com/chatsweep/chatsweep/internal/bot/handlers"
	"github.com/chatsweep/chatsweep/internal/bot/tasks"
	"github.com/chatsweep/chatsweep/internal/cleanup"
	"github.com/chatsweep/chatsweep/internal/config"
	"github.com/chatsweep/chatsweep/internal/database"
	"github.com/chatsweep/chatsweep/internal/logger"
	"github.com/chatsweep/chatsweep/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// database, telegram client, cleanup pipeline, scheduler), handles
// graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open message index database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Message index database unreachable", "error", err)
		return 1
	}

	taskStore := cleanup.NewFileStore(cfg.Cleanup.TaskFile)

	// The default handler indexes every message the bot sees; command
	// handlers are registered separately once the pipeline exists.
	recordDeps := handlers.HandlerDeps{Logger: log, Config: cfg, Store: store}
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewRecordHandler(recordDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	client := telegram.NewClient(tg, store, log)
	resolver := cleanup.NewPermissionResolver(client, store, log)
	batcher := cleanup.NewDeletionBatcher(client, taskStore, log,
		cfg.Cleanup.MaxRateLimitAttempts, cfg.Cleanup.ItemDelay, cfg.Cleanup.MaxErrors)
	reporter := cleanup.NewProgressReporter(client, taskStore, cfg.Telegram.SinkChatID, log)
	controller := cleanup.NewTaskController(taskStore, resolver, client, batcher, reporter, cleanup.Config{
		BatchSize:            cfg.Cleanup.BatchSize,
		PageSize:             cfg.Cleanup.PageSize,
		PageDelay:            cfg.Cleanup.PageDelay,
		ItemDelay:            cfg.Cleanup.ItemDelay,
		MaxRateLimitAttempts: cfg.Cleanup.MaxRateLimitAttempts,
		ReportInterval:       cfg.Cleanup.ReportInterval,
		MaxErrors:            cfg.Cleanup.MaxErrors,
	}, log)

	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Controller: controller,
	}
	if err := telegram.RegisterHandlers(ctx, tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:     log,
		Store:      store,
		Controller: controller,
		Config:     cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, tg, sched, controller)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
