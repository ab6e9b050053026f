// Package systemd controls the meshtasticd unit through systemctl and reads
// its journal through journalctl.
package systemd

import (
	"context"
	"strings"

	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/execx"
)

const DaemonUnit = "meshtasticd"

// Adapter shells out to systemctl. Unit defaults to the daemon unit.
type Adapter struct {
	Unit string
}

func New() *Adapter { return &Adapter{Unit: DaemonUnit} }

func (a *Adapter) Available(context.Context) bool {
	return execx.CommandExists("systemctl")
}

func (a *Adapter) Start(ctx context.Context) error   { return a.ctl(ctx, "start") }
func (a *Adapter) Stop(ctx context.Context) error    { return a.ctl(ctx, "stop") }
func (a *Adapter) Restart(ctx context.Context) error { return a.ctl(ctx, "restart") }
func (a *Adapter) Enable(ctx context.Context) error  { return a.ctl(ctx, "enable") }
func (a *Adapter) Disable(ctx context.Context) error { return a.ctl(ctx, "disable") }

func (a *Adapter) ctl(ctx context.Context, verb string) error {
	_, _, err := execx.Run(ctx, "systemctl", verb, a.Unit)
	return err
}

// Status holds the unit state as systemctl reports it.
type Status struct {
	Active  bool
	Enabled bool
	// State is the raw ActiveState (active, inactive, failed, ...).
	State string
}

// Status queries is-active and is-enabled. Both commands exit non-zero for
// inactive/disabled units, which is a state here, not an error.
func (a *Adapter) Status(ctx context.Context) (Status, error) {
	var st Status

	out, _, err := execx.Run(ctx, "systemctl", "is-active", a.Unit)
	state := strings.TrimSpace(out)
	if err != nil {
		if _, ok := errdefs.IsSubprocess(err); !ok {
			return st, err
		}
	}
	st.State = state
	st.Active = state == "active"

	out, _, err = execx.Run(ctx, "systemctl", "is-enabled", a.Unit)
	if err != nil {
		if _, ok := errdefs.IsSubprocess(err); !ok {
			return st, err
		}
	}
	st.Enabled = strings.TrimSpace(out) == "enabled"
	return st, nil
}

// Installed reports whether the unit file exists at all.
func (a *Adapter) Installed(ctx context.Context) bool {
	out, _, err := execx.Run(ctx, "systemctl", "list-unit-files", a.Unit+".service", "--no-legend")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}
