// Package tasks implements the bot's scheduled tasks: periodic status
// report refresh and message index maintenance.
package tasks

import (
	"log/slog"

	"github.com/chatsweep/chatsweep/internal/cleanup"
	"github.com/chatsweep/chatsweep/internal/config"
	"github.com/chatsweep/chatsweep/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger     *slog.Logger
	Store      database.Store
	Controller *cleanup.TaskController
	Config     *config.Config
}
