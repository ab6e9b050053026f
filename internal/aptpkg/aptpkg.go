// Package aptpkg drives the system package manager for the meshtasticd
// package and manages the per-channel apt repository definition.
package aptpkg

import (
	"context"
	"fmt"
	"strings"

	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/execx"
)

const DaemonPackage = "meshtasticd"

type Channel string

const (
	ChannelStable Channel = "stable"
	ChannelBeta   Channel = "beta"
	ChannelDaily  Channel = "daily"
	ChannelAlpha  Channel = "alpha"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelStable, ChannelBeta, ChannelDaily, ChannelAlpha:
		return true
	default:
		return false
	}
}

func ParseChannel(v string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(v)))
	if v == "" {
		return ChannelBeta, nil
	}
	if !c.Valid() {
		return "", fmt.Errorf("invalid channel %q (stable|beta|daily|alpha)", v)
	}
	return c, nil
}

func Channels() []Channel {
	return []Channel{ChannelStable, ChannelBeta, ChannelDaily, ChannelAlpha}
}

// nonInteractive keeps apt from prompting under any front-end; the tool
// surfaces apt's own errors instead.
var nonInteractive = []string{"DEBIAN_FRONTEND=noninteractive"}

// Adapter wraps the apt toolchain. Root redirects /etc writes in tests.
type Adapter struct {
	Root string
}

func New() *Adapter { return &Adapter{Root: "/"} }

func (a *Adapter) Available(context.Context) bool {
	return execx.CommandExists("apt-get")
}

// Update refreshes package indexes.
func (a *Adapter) Update(ctx context.Context) (string, error) {
	stdout, _, err := execx.RunEnv(ctx, nonInteractive, "apt-get", "update")
	return stdout, err
}

// Install installs or reinstalls the daemon package.
func (a *Adapter) Install(ctx context.Context) (string, error) {
	stdout, _, err := execx.RunEnv(ctx, nonInteractive, "apt-get", "install", "-y", DaemonPackage)
	return stdout, err
}

// Upgrade upgrades the daemon package only, never the whole system.
func (a *Adapter) Upgrade(ctx context.Context) (string, error) {
	stdout, _, err := execx.RunEnv(ctx, nonInteractive, "apt-get", "install", "-y", "--only-upgrade", DaemonPackage)
	return stdout, err
}

// InstalledVersion returns the installed daemon version, or ErrNotFound if
// the package is absent.
func (a *Adapter) InstalledVersion(ctx context.Context) (string, error) {
	stdout, _, err := execx.Run(ctx, "dpkg-query", "-W", "-f=${Version}", DaemonPackage)
	if err != nil {
		if se, ok := errdefs.IsSubprocess(err); ok && se.ExitCode == 1 {
			return "", fmt.Errorf("%w: package %s", errdefs.ErrNotFound, DaemonPackage)
		}
		return "", err
	}
	v := strings.TrimSpace(stdout)
	if v == "" {
		return "", fmt.Errorf("%w: package %s", errdefs.ErrNotFound, DaemonPackage)
	}
	return v, nil
}
