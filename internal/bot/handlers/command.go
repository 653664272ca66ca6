package handlers

import "strings"

// Command enumerates the bot's command surface. Incoming text is mapped
// onto this closed set at the handler boundary; anything else is not a
// command of this bot.
type Command string

const (
	CommandStart       Command = "start"
	CommandHelp        Command = "help"
	CommandSweep       Command = "sweep"
	CommandSweepStop   Command = "sweep_stop"
	CommandSweepStatus Command = "sweep_status"
	CommandSweepPref   Command = "sweep_pref"
	CommandSweepTasks  Command = "sweep_tasks"
)

// knownCommands is the parse table for ParseCommand.
var knownCommands = map[string]Command{
	string(CommandStart):       CommandStart,
	string(CommandHelp):        CommandHelp,
	string(CommandSweep):       CommandSweep,
	string(CommandSweepStop):   CommandSweepStop,
	string(CommandSweepStatus): CommandSweepStatus,
	string(CommandSweepPref):   CommandSweepPref,
	string(CommandSweepTasks):  CommandSweepTasks,
}

// ParseCommand maps message text onto the command set, returning the
// command, its trailing argument, and whether the text is a known
// command. The @botname suffix Telegram appends in groups is tolerated.
func ParseCommand(text string) (Command, string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, arg, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")

	cmd, ok := knownCommands[strings.ToLower(head)]
	if !ok {
		return "", "", false
	}
	return cmd, strings.TrimSpace(arg), true
}
