package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/meshup-dev/meshup/internal/aptpkg"
	"github.com/meshup-dev/meshup/internal/frontend/plain"
	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/lora"
)

func runInstall(ctx context.Context, log *zap.Logger, args []string) int {
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "usage: meshup install [stable|beta|daily|alpha]")
		return 1
	}
	raw := ""
	if len(args) == 1 {
		raw = args[0]
	}
	channel, err := aptpkg.ParseChannel(raw)
	if err != nil {
		return fail(err)
	}

	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	rec, err := mgr.Install(ctx, channel)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("installed %s %s from %s channel\n", aptpkg.DaemonPackage, rec.Version, channel)
	return 0
}

func runUpdate(ctx context.Context, log *zap.Logger, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "usage: meshup update")
		return 1
	}
	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	rec, err := mgr.Update(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s is now at %s\n", aptpkg.DaemonPackage, rec.Version)
	return 0
}

func runCheck(ctx context.Context, log *zap.Logger, args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "json output")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	report := mgr.Check(ctx)
	if asJSON {
		b, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(b))
	} else {
		fmt.Println(report.Host.Summary())
		for _, c := range report.Checks {
			fmt.Printf("%-4s %-15s %s\n", c.Status, c.Name, c.Detail)
		}
	}
	if report.Failed() {
		return 1
	}
	return 0
}

func runConfigure(ctx context.Context, log *zap.Logger, args []string) int {
	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	if len(args) == 0 {
		if err := plain.New(mgr).ConfigureMenu(ctx); err != nil {
			return fail(err)
		}
		return 0
	}

	usage := func() int {
		fmt.Fprintln(os.Stderr, "usage: meshup configure region <code> | preset <name> | port <dev> | template <name> [--deactivate] | spi | web <on|off> [port] | edit | backup | restore <id> | profile")
		return 1
	}
	switch args[0] {
	case "region":
		if len(args) != 2 {
			return usage()
		}
		err = mgr.SetRegion(args[1])
	case "preset":
		if len(args) != 2 {
			return usage()
		}
		if err = mgr.ApplyPreset(args[1]); err == nil {
			if p, ok := lora.LookupPreset(args[1]); ok {
				rng, speed := p.Settings.Estimate()
				fmt.Printf("range %s, speed %s\n", rng, speed)
			}
		}
	case "port":
		if len(args) != 2 {
			return usage()
		}
		err = mgr.SetPort(args[1])
	case "template":
		rest := reorderFlags(args[1:], nil)
		fs := flag.NewFlagSet("template", flag.ContinueOnError)
		var deactivate bool
		fs.BoolVar(&deactivate, "deactivate", false, "remove the template from config.d")
		if perr := fs.Parse(rest); perr != nil {
			return 1
		}
		if fs.NArg() != 1 {
			return usage()
		}
		if deactivate {
			err = mgr.DeactivateTemplate(fs.Arg(0))
		} else {
			err = mgr.ActivateTemplate(fs.Arg(0))
		}
	case "spi":
		path, serr := mgr.EnableSPI()
		if serr != nil {
			return fail(serr)
		}
		fmt.Printf("SPI enabled in %s (reboot to apply)\n", path)
		return 0
	case "web":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			return usage()
		}
		port := 0
		if len(args) == 3 {
			if _, perr := fmt.Sscanf(args[2], "%d", &port); perr != nil {
				return usage()
			}
		}
		err = mgr.SetWebserver(args[1] == "on", port)
	case "edit":
		err = mgr.EditConfig(ctx)
	case "backup":
		b, berr := mgr.BackupConfig()
		if berr != nil {
			return fail(berr)
		}
		fmt.Printf("snapshot %s\n", b.ID)
		return 0
	case "restore":
		if len(args) != 2 {
			return usage()
		}
		err = mgr.RestoreBackup(args[1])
	case "profile":
		matched, merr := mgr.MatchProfiles(ctx)
		if merr != nil {
			return fail(merr)
		}
		if len(matched) == 0 {
			fmt.Println("no hardware profile matches this host")
			return 0
		}
		p := matched[0]
		if err := mgr.ApplyProfile(p); err != nil {
			return fail(err)
		}
		fmt.Printf("applied profile %s (%s)\n", p.Metadata.Name, p.Lora.Module)
		return 0
	default:
		return usage()
	}
	if err != nil {
		return fail(err)
	}
	fmt.Println("done")
	return 0
}

func runService(ctx context.Context, log *zap.Logger, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: meshup service <status|start|stop|restart|enable|disable>")
		return 1
	}
	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	st, err := mgr.Service(ctx, args[0])
	if err != nil {
		return fail(err)
	}
	fmt.Printf("meshtasticd: %s, enabled=%v\n", st.State, st.Enabled)
	return 0
}

func runLogs(ctx context.Context, log *zap.Logger, args []string) int {
	args = reorderFlags(args, map[string]bool{"-n": true})
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	var n int
	var follow bool
	fs.IntVar(&n, "n", 50, "number of lines")
	fs.BoolVar(&follow, "follow", false, "keep streaming new lines")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	lines, err := mgr.TailLogs(ctx, n)
	if err != nil {
		return fail(err)
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	if !follow {
		return 0
	}

	fctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	err = mgr.FollowLogs(fctx, 2*time.Second, func(line string) { fmt.Println(line) })
	if err != nil && fctx.Err() == nil {
		return fail(err)
	}
	return 0
}

func runHardware(ctx context.Context, log *zap.Logger, args []string) int {
	fs := flag.NewFlagSet("hardware", flag.ContinueOnError)
	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "json output")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	scan := mgr.HW.Detect(ctx)
	if asJSON {
		b, _ := json.MarshalIndent(scan, "", "  ")
		fmt.Println(string(b))
		return 0
	}
	fmt.Printf("board: %s\n", scan.BoardModel)
	if scan.HATProduct != "" {
		fmt.Printf("hat: %s\n", scan.HATProduct)
	}
	fmt.Printf("spi enabled: %v\n", scan.SPIEnabled)
	for _, u := range scan.USBModules {
		fmt.Printf("usb: %s %s %s\n", u.VendorProduct, u.Description, u.Device)
	}
	for _, r := range hardware.Recommend(scan) {
		fmt.Printf("suggestion: %s  %s\n", r.Flag, r.Description)
	}
	return 0
}

func runHistory(log *zap.Logger, args []string) int {
	args = reorderFlags(args, map[string]bool{"--limit": true})
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	var limit int
	var asJSON bool
	fs.IntVar(&limit, "limit", 20, "max operations to list")
	fs.BoolVar(&asJSON, "json", false, "json output")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	recs, err := mgr.History(limit)
	if err != nil {
		return fail(err)
	}
	if asJSON {
		b, _ := json.MarshalIndent(recs, "", "  ")
		fmt.Println(string(b))
		return 0
	}
	for _, r := range recs {
		fmt.Printf("%s  %-18s %-8s %s\n", r.StartedAt, r.Kind, r.Status, r.LastError)
	}
	return 0
}

func runDebug(ctx context.Context, log *zap.Logger, args []string) int {
	args = reorderFlags(args, map[string]bool{"--out": true})
	fs := flag.NewFlagSet("debug", flag.ContinueOnError)
	var out string
	fs.StringVar(&out, "out", "", "write the report to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	mgr, err := newManager(log)
	if err != nil {
		return fail(err)
	}
	defer mgr.Close()

	report := mgr.DebugReport(ctx)
	if out == "" {
		fmt.Print(report)
		return 0
	}
	if err := os.WriteFile(out, []byte(report), 0o644); err != nil {
		return fail(err)
	}
	fmt.Printf("wrote %s\n", out)
	return 0
}
