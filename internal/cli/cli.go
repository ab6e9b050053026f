// Package cli dispatches the meshup command set. Every subcommand drives the
// same ops.Manager the interactive front-ends use; this layer only parses
// flags and renders results.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/frontend"
	"github.com/meshup-dev/meshup/internal/logging"
	"github.com/meshup-dev/meshup/internal/ops"
)

func Execute(args []string) int {
	args, verbose := splitVerbose(args)
	args = normalizeAliases(args)

	log, err := logging.New(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if len(args) == 0 {
		return runInteractive(log, "")
	}

	ctx := context.Background()
	cmd := args[0]
	switch cmd {
	case "install":
		return runInstall(ctx, log, args[1:])
	case "update":
		return runUpdate(ctx, log, args[1:])
	case "check":
		return runCheck(ctx, log, args[1:])
	case "configure":
		return runConfigure(ctx, log, args[1:])
	case "service":
		return runService(ctx, log, args[1:])
	case "logs":
		return runLogs(ctx, log, args[1:])
	case "hardware":
		return runHardware(ctx, log, args[1:])
	case "history":
		return runHistory(log, args[1:])
	case "debug":
		return runDebug(ctx, log, args[1:])
	case "ui":
		return runUI(log, args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		return 1
	}
}

// normalizeAliases maps the flag-style entry points onto subcommands, so
// `meshup --install beta` and `meshup install beta` are the same invocation.
func normalizeAliases(args []string) []string {
	if len(args) == 0 {
		return args
	}
	aliases := map[string]string{
		"--install":   "install",
		"--update":    "update",
		"--configure": "configure",
		"--check":     "check",
		"--debug":     "debug",
	}
	head := args[0]
	if eq := strings.Index(head, "="); eq > 0 && aliases[head[:eq]] != "" {
		// --install=beta
		return append([]string{aliases[head[:eq]], head[eq+1:]}, args[1:]...)
	}
	if cmd, ok := aliases[head]; ok {
		return append([]string{cmd}, args[1:]...)
	}
	return args
}

func splitVerbose(args []string) ([]string, bool) {
	out := args[:0:0]
	verbose := false
	for _, a := range args {
		if a == "--verbose" || a == "-v" {
			verbose = true
			continue
		}
		out = append(out, a)
	}
	return out, verbose
}

func newManager(log *zap.Logger) (*ops.Manager, error) {
	mgr, err := ops.New(os.Getenv("MESHUP_STATE_DIR"), log)
	if err != nil {
		return nil, err
	}
	mgr.Frontend = string(frontend.KindPlain)
	return mgr, nil
}

// exitCode maps an operation error onto the process exit status, preserving
// the external tool's own code when one exists.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if se, ok := errdefs.IsSubprocess(err); ok && se.ExitCode > 0 {
		return se.ExitCode
	}
	return 1
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return exitCode(err)
}

func reorderFlags(args []string, valueFlags map[string]bool) []string {
	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			if takesValue(a, valueFlags) && !strings.Contains(a, "=") && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positionals = append(positionals, a)
	}
	return append(flags, positionals...)
}

func takesValue(flagToken string, valueFlags map[string]bool) bool {
	if valueFlags[flagToken] {
		return true
	}
	if eq := strings.Index(flagToken, "="); eq > 0 {
		return valueFlags[flagToken[:eq]]
	}
	return false
}

func printUsage() {
	fmt.Print(`meshup - installer and configuration tool for meshtasticd

usage:
  meshup                                       interactive mode (gui/tui/cli, auto-detected)
  meshup --install {stable|beta|daily|alpha}   add channel repo and install meshtasticd
  meshup --update                              upgrade meshtasticd from its channel
  meshup --configure                           interactive configuration menu
  meshup --check                               system and radio health report
  meshup --debug                               print a debug report for bug filing

commands:
  install [stable|beta|daily|alpha]
  update
  check [--json]
  configure region <code> | preset <name> | port <dev> | template <name> [--deactivate]
  configure spi | web <on|off> [port] | edit | backup | restore <id> | profile
  service <status|start|stop|restart|enable|disable>
  logs [-n lines] [--follow]
  hardware [--json]
  history [--limit n] [--json]
  debug [--out file]
  ui [--ui gui|tui|cli]

global flags:
  --verbose    debug logging to stderr
`)
}
