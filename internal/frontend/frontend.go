// Package frontend decides which presentation layer runs: the graphical
// window, the rich terminal UI, or the plain prompt-driven CLI. All three
// drive the same operations; this package only picks one and falls back in a
// fixed order when a candidate cannot start.
package frontend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meshup-dev/meshup/internal/errdefs"
)

type Kind string

const (
	KindGUI   Kind = "gui"
	KindTUI   Kind = "tui"
	KindPlain Kind = "cli"
)

func ParseKind(v string) (Kind, error) {
	switch Kind(v) {
	case "", KindGUI, KindTUI, KindPlain:
		return Kind(v), nil
	default:
		return "", fmt.Errorf("invalid front-end %q (gui|tui|cli)", v)
	}
}

// Launcher is one presentation layer. Run blocks until the front-end exits.
// A Run that cannot start for want of a toolkit or display must return an
// error wrapping errdefs.ErrMissingDependency; any other error stops the
// fallback chain and is surfaced as-is.
type Launcher interface {
	Kind() Kind
	Run(ctx context.Context) error
}

// Resolve computes the fallback order for a snapshot. The order always ends
// in KindPlain, which needs nothing from the host. An override is honored
// only when the snapshot shows its toolkit usable; otherwise resolution falls
// through to detection.
func Resolve(snap Snapshot, override Kind) []Kind {
	if override != "" && usable(snap, override) {
		if override == KindPlain {
			return []Kind{KindPlain}
		}
		return []Kind{override, KindPlain}
	}

	switch {
	case snap.HasDisplay && !snap.RemoteSession && snap.GUIToolkit:
		order := []Kind{KindGUI}
		if snap.TUIToolkit {
			order = append(order, KindTUI)
		}
		return append(order, KindPlain)
	case snap.TUIToolkit:
		return []Kind{KindTUI, KindPlain}
	default:
		return []Kind{KindPlain}
	}
}

// usable reports whether a kind's dependencies are present. An explicit
// override may reach the GUI from a remote session when the display is
// forwarded, so remoteness is not checked here.
func usable(snap Snapshot, k Kind) bool {
	switch k {
	case KindGUI:
		return snap.HasDisplay && snap.GUIToolkit
	case KindTUI:
		return snap.TUIToolkit
	default:
		return true
	}
}

// Launch tries each candidate in order. Missing-dependency failures move on
// to the next candidate; everything else is the operation's own problem and
// is returned unchanged.
func Launch(ctx context.Context, order []Kind, launchers map[Kind]Launcher, log *zap.Logger) error {
	for _, k := range order {
		l, ok := launchers[k]
		if !ok {
			log.Debug("front-end not registered", zap.String("frontend", string(k)))
			continue
		}
		err := l.Run(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, errdefs.ErrMissingDependency) {
			log.Warn("front-end unavailable, falling back",
				zap.String("frontend", string(k)),
				zap.Error(err))
			continue
		}
		return err
	}
	return fmt.Errorf("no front-end could start")
}
