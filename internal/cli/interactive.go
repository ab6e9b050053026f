package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/meshup-dev/meshup/internal/frontend"
	"github.com/meshup-dev/meshup/internal/frontend/gui"
	"github.com/meshup-dev/meshup/internal/frontend/plain"
	"github.com/meshup-dev/meshup/internal/frontend/tui"
)

// runUI is the explicit interactive entry point with a front-end override.
func runUI(log *zap.Logger, args []string) int {
	args = reorderFlags(args, map[string]bool{"--ui": true})
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	var ui string
	fs.StringVar(&ui, "ui", "", "front-end override (gui|tui|cli)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: meshup ui [--ui gui|tui|cli]")
		return 1
	}
	return runInteractive(log, ui)
}

// runInteractive probes the session, resolves the fallback order, and hands
// control to the first front-end that starts.
func runInteractive(log *zap.Logger, override string) int {
	ov, err := frontend.ParseKind(override)
	if err != nil {
		return fail(err)
	}

	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	snap := frontend.Probe(gui.Compiled)
	order := frontend.Resolve(snap, ov)
	log.Debug("front-end resolved",
		zap.Bool("display", snap.HasDisplay),
		zap.Bool("remote", snap.RemoteSession),
		zap.Any("order", order))

	launchers := map[frontend.Kind]frontend.Launcher{
		frontend.KindGUI:   gui.New(mgr),
		frontend.KindTUI:   tui.New(mgr),
		frontend.KindPlain: plain.New(mgr),
	}
	if err := frontend.Launch(context.Background(), order, launchers, log); err != nil {
		return fail(err)
	}
	return 0
}
