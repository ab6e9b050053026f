// Package plain is the prompt-driven fallback front-end. It needs nothing
// but stdin and stdout, so it must always be able to start.
package plain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/meshup-dev/meshup/internal/aptpkg"
	"github.com/meshup-dev/meshup/internal/frontend"
	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/lora"
	"github.com/meshup-dev/meshup/internal/ops"
)

type Launcher struct {
	Mgr *ops.Manager
	In  io.Reader
	Out io.Writer
}

func New(mgr *ops.Manager) *Launcher {
	return &Launcher{Mgr: mgr, In: os.Stdin, Out: os.Stdout}
}

func (l *Launcher) Kind() frontend.Kind { return frontend.KindPlain }

func (l *Launcher) Run(ctx context.Context) error {
	l.Mgr.Frontend = string(frontend.KindPlain)
	reader := bufio.NewReader(l.In)
	fmt.Fprintln(l.Out, "meshup: meshtasticd installer")
	for {
		choice, err := promptChoice(reader, l.Out, "Action",
			[]string{"install", "update", "check", "configure", "service", "logs", "hardware", "history", "debug", "quit"}, "check")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if choice == "quit" {
			return nil
		}
		if err := l.dispatch(ctx, reader, choice); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(l.Out, "error: %v\n", err)
		}
	}
}

// ConfigureMenu runs just the configuration submenu, for `meshup configure`
// with no arguments.
func (l *Launcher) ConfigureMenu(ctx context.Context) error {
	err := l.configure(ctx, bufio.NewReader(l.In))
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (l *Launcher) dispatch(ctx context.Context, reader *bufio.Reader, choice string) error {
	switch choice {
	case "install":
		ch, err := promptChoice(reader, l.Out, "Release channel",
			[]string{"stable", "beta", "daily", "alpha"}, string(aptpkg.ChannelBeta))
		if err != nil {
			return err
		}
		rec, err := l.Mgr.Install(ctx, aptpkg.Channel(ch))
		if err != nil {
			return err
		}
		fmt.Fprintf(l.Out, "installed %s %s\n", aptpkg.DaemonPackage, rec.Version)
	case "update":
		rec, err := l.Mgr.Update(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(l.Out, "now at %s %s\n", aptpkg.DaemonPackage, rec.Version)
	case "check":
		l.printReport(l.Mgr.Check(ctx))
	case "configure":
		return l.configure(ctx, reader)
	case "service":
		action, err := promptChoice(reader, l.Out, "Service action",
			[]string{"status", "start", "stop", "restart", "enable", "disable"}, "status")
		if err != nil {
			return err
		}
		st, err := l.Mgr.Service(ctx, action)
		if err != nil {
			return err
		}
		fmt.Fprintf(l.Out, "meshtasticd: %s, enabled=%v\n", st.State, st.Enabled)
	case "logs":
		return l.logs(ctx, reader)
	case "hardware":
		l.printScan(l.Mgr.HW.Detect(ctx))
	case "history":
		recs, err := l.Mgr.History(20)
		if err != nil {
			return err
		}
		for _, r := range recs {
			fmt.Fprintf(l.Out, "%s  %-18s %-8s %s\n", r.StartedAt, r.Kind, r.Status, r.LastError)
		}
	case "debug":
		fmt.Fprint(l.Out, l.Mgr.DebugReport(ctx))
	}
	return nil
}

func (l *Launcher) configure(ctx context.Context, reader *bufio.Reader) error {
	what, err := promptChoice(reader, l.Out, "Configure",
		[]string{"region", "preset", "port", "template", "spi", "web", "edit", "backup", "restore", "back"}, "region")
	if err != nil {
		return err
	}
	switch what {
	case "region":
		code, err := promptChoice(reader, l.Out, "LoRa region", lora.RegionCodes(), "")
		if err != nil {
			return err
		}
		return l.Mgr.SetRegion(code)
	case "preset":
		name, err := promptChoice(reader, l.Out, "Radio preset", lora.PresetNames(), "general")
		if err != nil {
			return err
		}
		if err := l.Mgr.ApplyPreset(name); err != nil {
			return err
		}
		if p, ok := lora.LookupPreset(name); ok {
			rng, speed := p.Settings.Estimate()
			fmt.Fprintf(l.Out, "range %s, speed %s\n", rng, speed)
		}
	case "port":
		port, err := promptString(reader, l.Out, "Serial port", "/dev/ttyUSB0")
		if err != nil {
			return err
		}
		return l.Mgr.SetPort(port)
	case "template":
		templates, err := l.Mgr.Conf.ListTemplates()
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Fprintln(l.Out, "no templates under available.d")
			return nil
		}
		names := make([]string, 0, len(templates))
		for _, t := range templates {
			marker := ""
			if t.Active {
				marker = " (active)"
			}
			fmt.Fprintf(l.Out, "  %s%s\n", t.Name, marker)
			names = append(names, t.Name)
		}
		name, err := promptChoice(reader, l.Out, "Template", names, names[0])
		if err != nil {
			return err
		}
		return l.Mgr.ActivateTemplate(name)
	case "spi":
		path, err := l.Mgr.EnableSPI()
		if err != nil {
			return err
		}
		fmt.Fprintf(l.Out, "SPI enabled in %s (reboot to apply)\n", path)
	case "web":
		enable, err := promptBool(reader, l.Out, "Enable web server", true)
		if err != nil {
			return err
		}
		port := 0
		if enable {
			raw, err := promptString(reader, l.Out, "Port", "443")
			if err != nil {
				return err
			}
			if _, err := fmt.Sscanf(raw, "%d", &port); err != nil {
				fmt.Fprintln(l.Out, "not a number")
				return nil
			}
		}
		return l.Mgr.SetWebserver(enable, port)
	case "edit":
		return l.Mgr.EditConfig(ctx)
	case "backup":
		b, err := l.Mgr.BackupConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(l.Out, "snapshot %s\n", b.ID)
	case "restore":
		backups, err := l.Mgr.ListBackups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Fprintln(l.Out, "no snapshots")
			return nil
		}
		ids := make([]string, 0, len(backups))
		for _, b := range backups {
			fmt.Fprintf(l.Out, "  %s  %s\n", b.ID, b.CreatedAt)
			ids = append(ids, b.ID)
		}
		id, err := promptChoice(reader, l.Out, "Snapshot", ids, ids[0])
		if err != nil {
			return err
		}
		return l.Mgr.RestoreBackup(id)
	}
	return nil
}

// logs prints a tail and, if asked, follows until interrupt.
func (l *Launcher) logs(ctx context.Context, reader *bufio.Reader) error {
	lines, err := l.Mgr.TailLogs(ctx, 30)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(l.Out, line)
	}
	follow, err := promptBool(reader, l.Out, "Follow", false)
	if err != nil || !follow {
		return err
	}
	fmt.Fprintln(l.Out, "following, interrupt to stop")
	fctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	err = l.Mgr.FollowLogs(fctx, 2*time.Second, func(line string) {
		fmt.Fprintln(l.Out, line)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (l *Launcher) printReport(report ops.CheckReport) {
	fmt.Fprintln(l.Out, report.Host.Summary())
	for _, c := range report.Checks {
		fmt.Fprintf(l.Out, "%-4s %-15s %s\n", c.Status, c.Name, c.Detail)
	}
}

func (l *Launcher) printScan(scan hardware.Scan) {
	fmt.Fprintf(l.Out, "board: %s\n", scan.BoardModel)
	if scan.HATProduct != "" {
		fmt.Fprintf(l.Out, "hat: %s\n", scan.HATProduct)
	}
	fmt.Fprintf(l.Out, "spi enabled: %v\n", scan.SPIEnabled)
	for _, u := range scan.USBModules {
		fmt.Fprintf(l.Out, "usb: %s %s %s\n", u.VendorProduct, u.Description, u.Device)
	}
	for _, r := range hardware.Recommend(scan) {
		fmt.Fprintf(l.Out, "suggestion: %s  %s\n", r.Flag, r.Description)
	}
}

func promptString(reader *bufio.Reader, out io.Writer, label string, defaultValue string) (string, error) {
	for {
		if defaultValue == "" {
			fmt.Fprintf(out, "%s: ", label)
		} else {
			fmt.Fprintf(out, "%s [%s]: ", label, defaultValue)
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Input is exhausted. A final unterminated line still
				// counts; otherwise the caller must stop prompting.
				line = strings.TrimSpace(line)
				if line != "" {
					return line, nil
				}
				return defaultValue, io.EOF
			}
			return "", err
		}
		value := strings.TrimSpace(line)
		if value != "" {
			return value, nil
		}
		if defaultValue != "" {
			return defaultValue, nil
		}
		fmt.Fprintln(out, "Value is required.")
	}
}

func promptChoice(reader *bufio.Reader, out io.Writer, label string, choices []string, defaultValue string) (string, error) {
	choiceSet := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		choiceSet[c] = struct{}{}
	}
	for {
		value, err := promptString(reader, out, fmt.Sprintf("%s (%s)", label, strings.Join(choices, "/")), defaultValue)
		if err != nil {
			return "", err
		}
		if _, ok := choiceSet[value]; ok {
			return value, nil
		}
		fmt.Fprintf(out, "Invalid choice %q. Expected one of: %s\n", value, strings.Join(choices, ", "))
	}
}

func promptBool(reader *bufio.Reader, out io.Writer, label string, defaultValue bool) (bool, error) {
	defaultToken := "no"
	if defaultValue {
		defaultToken = "yes"
	}
	value, err := promptChoice(reader, out, label, []string{"yes", "no"}, defaultToken)
	if err != nil {
		return false, err
	}
	return value == "yes", nil
}
