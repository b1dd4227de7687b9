package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandStatus  Command = "status"
	CommandStart   Command = "start"
	CommandStop    Command = "stop"
	CommandToggle  Command = "toggle"
	CommandRestart Command = "restart"
	CommandHealth  Command = "health"
	CommandWatch   Command = "watch"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandStatus:  {},
	CommandStart:   {},
	CommandStop:    {},
	CommandToggle:  {},
	CommandRestart: {},
	CommandHealth:  {},
	CommandWatch:   {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
}

// Parse maps raw argv to one command. No command defaults to status so the
// binary can be dropped straight into a status-bar exec slot.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandStatus}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [command]

Commands:
  status    Resolve current state once and print one status line (default)
  start     Start the dictation service (requires a reachable microphone)
  stop      Stop the dictation service
  toggle    Start or stop the dictation service depending on current state
  restart   Restart the dictation service
  health    Run the stuck-state recovery check
  watch     Run the continuous status watcher (one JSON line per change)
  devices   List available audio input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/whisprbar/config.yaml)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
