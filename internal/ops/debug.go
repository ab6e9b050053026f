package ops

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DebugReport assembles a plain-text bundle for bug reports: host facts,
// hardware scan, check results, the active config, recent operations, and
// the daemon's recent journal.
func (m *Manager) DebugReport(ctx context.Context) string {
	var b strings.Builder
	section := func(name string) { fmt.Fprintf(&b, "\n== %s ==\n", name) }

	report := m.Check(ctx)

	b.WriteString("meshup debug report\n")
	section("host")
	b.WriteString(report.Host.Summary() + "\n")

	section("hardware")
	scan := report.Scan
	fmt.Fprintf(&b, "board: %s\n", orNone(scan.BoardModel))
	fmt.Fprintf(&b, "hat: %s\n", orNone(scan.HATProduct))
	fmt.Fprintf(&b, "spi enabled: %v, devices: %s\n", scan.SPIEnabled, orNone(strings.Join(scan.SPIDevices, ", ")))
	for _, u := range scan.USBModules {
		fmt.Fprintf(&b, "usb: %s %s %s\n", u.VendorProduct, u.Description, u.Device)
	}
	fmt.Fprintf(&b, "serial ports: %s\n", orNone(strings.Join(scan.USBSerialPorts, ", ")))

	section("checks")
	for _, c := range report.Checks {
		fmt.Fprintf(&b, "%-4s %-15s %s\n", c.Status, c.Name, c.Detail)
	}

	section("config")
	if raw, err := os.ReadFile(m.Conf.ConfigPath()); err == nil {
		b.Write(raw)
		if len(raw) > 0 && raw[len(raw)-1] != '\n' {
			b.WriteByte('\n')
		}
	} else {
		fmt.Fprintf(&b, "unreadable: %v\n", err)
	}

	section("operations")
	if recs, err := m.History(10); err == nil {
		for _, r := range recs {
			fmt.Fprintf(&b, "%s %s %s %s %s\n", r.StartedAt, r.Kind, r.Channel, r.Status, r.LastError)
		}
		if len(recs) > 0 {
			section("last operation events")
			if events, err := m.Events(recs[0].OperationID); err == nil {
				for _, e := range events {
					b.WriteString(e + "\n")
				}
			}
		}
	}

	section("daemon log")
	if lines, err := m.TailLogs(ctx, 50); err == nil {
		for _, l := range lines {
			b.WriteString(l + "\n")
		}
	} else {
		fmt.Fprintf(&b, "unavailable: %v\n", err)
	}

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
