//go:build nogui

package gui

import (
	"context"
	"fmt"

	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/frontend"
	"github.com/meshup-dev/meshup/internal/ops"
)

// Compiled reports whether this binary carries the graphical toolkit.
const Compiled = false

type Launcher struct {
	Mgr *ops.Manager
}

func New(mgr *ops.Manager) *Launcher { return &Launcher{Mgr: mgr} }

func (l *Launcher) Kind() frontend.Kind { return frontend.KindGUI }

func (l *Launcher) Run(context.Context) error {
	return fmt.Errorf("graphical front-end not built into this binary: %w", errdefs.ErrMissingDependency)
}
