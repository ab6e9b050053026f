//go:build !nogui

// Package gui is the graphical front-end, a small fyne window over the
// shared operations layer. Build with -tags nogui for headless hosts.
package gui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/gen2brain/beeep"

	"github.com/meshup-dev/meshup/internal/aptpkg"
	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/frontend"
	"github.com/meshup-dev/meshup/internal/lora"
	"github.com/meshup-dev/meshup/internal/ops"
)

// Compiled reports whether this binary carries the graphical toolkit.
const Compiled = true

type Launcher struct {
	Mgr *ops.Manager
}

func New(mgr *ops.Manager) *Launcher { return &Launcher{Mgr: mgr} }

func (l *Launcher) Kind() frontend.Kind { return frontend.KindGUI }

func (l *Launcher) Run(ctx context.Context) error {
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return fmt.Errorf("no display server: %w", errdefs.ErrMissingDependency)
	}
	l.Mgr.Frontend = string(frontend.KindGUI)

	a := app.New()
	w := a.NewWindow("meshup: meshtasticd installer")
	w.Resize(fyne.NewSize(720, 520))
	w.CenterOnScreen()

	ui := &window{ctx: ctx, mgr: l.Mgr, win: w}
	w.SetContent(ui.content())
	w.ShowAndRun()
	return nil
}

type window struct {
	ctx context.Context
	mgr *ops.Manager
	win fyne.Window

	status *widget.Label
	output *widget.Entry
}

func (u *window) content() fyne.CanvasObject {
	u.status = widget.NewLabel("ready")
	u.output = widget.NewMultiLineEntry()
	u.output.Wrapping = fyne.TextWrapWord

	channel := widget.NewSelect(channelNames(), nil)
	channel.SetSelected(string(aptpkg.ChannelBeta))

	install := widget.NewButton("Install", func() {
		u.runOp("installing "+aptpkg.DaemonPackage, func() (string, error) {
			rec, err := u.mgr.Install(u.ctx, aptpkg.Channel(channel.Selected))
			if err == nil {
				_ = beeep.Notify("meshup", "meshtasticd "+rec.Version+" installed", "")
			}
			return "installed version " + rec.Version, err
		})
	})
	update := widget.NewButton("Update", func() {
		u.runOp("updating "+aptpkg.DaemonPackage, func() (string, error) {
			rec, err := u.mgr.Update(u.ctx)
			if err == nil {
				_ = beeep.Notify("meshup", "meshtasticd updated to "+rec.Version, "")
			}
			return "now at version " + rec.Version, err
		})
	})
	check := widget.NewButton("Check", func() {
		u.runOp("checking system", func() (string, error) {
			report := u.mgr.Check(u.ctx)
			var b strings.Builder
			b.WriteString(report.Host.Summary() + "\n\n")
			for _, c := range report.Checks {
				fmt.Fprintf(&b, "%-4s %-15s %s\n", c.Status, c.Name, c.Detail)
			}
			return b.String(), nil
		})
	})

	region := widget.NewSelect(lora.RegionCodes(), nil)
	applyRegion := widget.NewButton("Set region", func() {
		if region.Selected == "" {
			dialog.ShowInformation("meshup", "pick a region first", u.win)
			return
		}
		u.runOp("setting region", func() (string, error) {
			return "region set to " + region.Selected, u.mgr.SetRegion(region.Selected)
		})
	})

	preset := widget.NewSelect(lora.PresetNames(), nil)
	applyPreset := widget.NewButton("Apply preset", func() {
		if preset.Selected == "" {
			dialog.ShowInformation("meshup", "pick a preset first", u.win)
			return
		}
		u.runOp("applying preset", func() (string, error) {
			return "preset " + preset.Selected + " applied", u.mgr.ApplyPreset(preset.Selected)
		})
	})

	service := widget.NewSelect([]string{"status", "start", "stop", "restart", "enable", "disable"}, nil)
	service.SetSelected("status")
	runService := widget.NewButton("Run", func() {
		u.runOp("service "+service.Selected, func() (string, error) {
			st, err := u.mgr.Service(u.ctx, service.Selected)
			return fmt.Sprintf("meshtasticd: %s, enabled=%v", st.State, st.Enabled), err
		})
	})

	logsBtn := widget.NewButton("Show log tail", func() {
		u.runOp("reading daemon log", func() (string, error) {
			lines, err := u.mgr.TailLogs(u.ctx, 100)
			return strings.Join(lines, "\n"), err
		})
	})

	form := container.NewVBox(
		container.NewGridWithColumns(3,
			container.NewVBox(widget.NewLabel("Channel"), channel, install, update),
			container.NewVBox(widget.NewLabel("Region"), region, applyRegion),
			container.NewVBox(widget.NewLabel("Preset"), preset, applyPreset),
		),
		container.NewGridWithColumns(3,
			container.NewVBox(widget.NewLabel("Service"), service, runService),
			container.NewVBox(widget.NewLabel("Diagnostics"), check, logsBtn),
			container.NewVBox(),
		),
		u.status,
	)
	return container.NewBorder(form, nil, nil, nil, u.output)
}

// runOp keeps the window responsive while an operation runs and reports the
// result in the output pane.
func (u *window) runOp(label string, body func() (string, error)) {
	u.status.SetText(label + "…")
	go func() {
		text, err := body()
		if err != nil {
			u.status.SetText("failed")
			u.output.SetText(err.Error() + "\n\n" + text)
			dialog.ShowError(err, u.win)
			return
		}
		u.status.SetText("done")
		u.output.SetText(text)
	}()
}

func channelNames() []string {
	channels := aptpkg.Channels()
	out := make([]string, len(channels))
	for i, c := range channels {
		out[i] = string(c)
	}
	return out
}
