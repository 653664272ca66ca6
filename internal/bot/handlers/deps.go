package handlers

import (
	"log/slog"

	"github.com/chatsweep/chatsweep/internal/cleanup"
	"github.com/chatsweep/chatsweep/internal/config"
	"github.com/chatsweep/chatsweep/internal/database"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Controller *cleanup.TaskController
}
