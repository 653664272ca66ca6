package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its registration
// pattern, middleware, and the description published to the command menu.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Description string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands, configured with their handlers and middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	command := func(cmd Command, description string, handler tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     string(cmd),
			Description: description,
			Handler:     handler,
			Middleware:  mw,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}

	registered := make(map[string]RegisteredHandler)

	registered["/start"] = command(CommandStart, "Introduce the bot", NewStartHandler(deps))
	registered["/help"] = command(CommandHelp, "Show available commands", NewHelpHandler(deps))

	registered["/sweep"] = command(CommandSweep, "Delete this chat's messages", NewSweepHandler(deps))
	registered["/sweep_stop"] = command(CommandSweepStop, "Stop the running sweep", NewSweepStopHandler(deps))
	registered["/sweep_status"] = command(CommandSweepStatus, "Show sweep progress", NewSweepStatusHandler(deps))
	registered["/sweep_pref"] = command(CommandSweepPref, "Toggle deleting others' messages", NewSweepPrefHandler(deps))

	registered["/sweep_tasks"] = command(CommandSweepTasks, "List all sweep tasks", NewSweepTasksHandler(deps), AdminOnly(deps))

	return registered
}
