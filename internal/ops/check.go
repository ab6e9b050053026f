package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/meshup-dev/meshup/internal/aptpkg"
	"github.com/meshup-dev/meshup/internal/execx"
	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/sysinfo"
	"github.com/meshup-dev/meshup/internal/systemd"
)

type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

type CheckReport struct {
	Host   sysinfo.Snapshot `json:"host"`
	Scan   hardware.Scan    `json:"scan"`
	Checks []Check          `json:"checks"`
}

const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// Failed reports whether any check failed outright.
func (r CheckReport) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// Check inspects the host without changing it: board, package manager, repo
// channel, installed daemon, service state, configuration, and radios.
func (m *Manager) Check(ctx context.Context) CheckReport {
	report := CheckReport{
		Host: sysinfo.Collect(),
		Scan: m.HW.Detect(ctx),
	}
	add := func(name, status, detail string) {
		report.Checks = append(report.Checks, Check{Name: name, Status: status, Detail: detail})
	}

	if report.Scan.IsRaspberryPi() {
		add("board", StatusPass, report.Scan.BoardModel)
	} else if report.Scan.BoardModel != "" {
		add("board", StatusWarn, report.Scan.BoardModel+" (not a Raspberry Pi)")
	} else {
		add("board", StatusWarn, "board model not readable")
	}

	if suite, err := m.Apt.DetectSuite(); err == nil {
		add("os", StatusPass, suite)
	} else {
		add("os", StatusFail, err.Error())
	}

	if m.Apt.Available(ctx) {
		add("apt", StatusPass, "apt-get on PATH")
	} else {
		add("apt", StatusFail, "apt-get not found; this tool manages Debian-family systems")
	}

	if ch := m.Apt.ConfiguredChannel(); ch != "" {
		add("repository", StatusPass, "channel "+string(ch))
	} else {
		add("repository", StatusWarn, "no channel repository configured; run install")
	}

	version, err := m.Apt.InstalledVersion(ctx)
	if err == nil {
		add("package", StatusPass, aptpkg.DaemonPackage+" "+version)
	} else {
		add("package", StatusWarn, aptpkg.DaemonPackage+" not installed")
	}
	installed := err == nil

	if !m.Sysd.Available(ctx) {
		add("service", StatusFail, "systemctl not found")
	} else if st, serr := m.Sysd.Status(ctx); serr != nil {
		add("service", StatusWarn, serr.Error())
	} else {
		detail := fmt.Sprintf("%s, enabled=%v", st.State, st.Enabled)
		switch {
		case st.Active:
			add("service", StatusPass, detail)
		case installed:
			add("service", StatusWarn, detail)
		default:
			add("service", StatusWarn, systemd.DaemonUnit+" not installed")
		}
	}

	if _, cerr := m.Conf.Load(); cerr == nil {
		add("config", StatusPass, m.Conf.ConfigPath())
	} else {
		add("config", StatusFail, cerr.Error())
	}

	if execx.CommandExists("meshtastic") {
		add("meshtastic-cli", StatusPass, "meshtastic on PATH")
	} else {
		add("meshtastic-cli", StatusWarn, "meshtastic CLI not found (optional)")
	}

	report.Checks = append(report.Checks, radioChecks(report.Scan)...)

	if report.Host.RootDiskFreeMB > 0 && report.Host.RootDiskFreeMB < 512 {
		add("disk", StatusWarn, fmt.Sprintf("%d MB free on /", report.Host.RootDiskFreeMB))
	} else if report.Host.RootDiskFreeMB > 0 {
		add("disk", StatusPass, fmt.Sprintf("%d MB free on /", report.Host.RootDiskFreeMB))
	}

	return report
}

func radioChecks(scan hardware.Scan) []Check {
	var out []Check
	if len(scan.USBModules) > 0 {
		var names []string
		for _, u := range scan.USBModules {
			names = append(names, u.Description)
		}
		out = append(out, Check{Name: "usb-radio", Status: StatusPass, Detail: strings.Join(names, ", ")})
	}
	switch {
	case scan.SPIEnabled && len(scan.SPIDevices) > 0:
		out = append(out, Check{Name: "spi", Status: StatusPass, Detail: strings.Join(scan.SPIDevices, ", ")})
	case scan.SPIEnabled:
		out = append(out, Check{Name: "spi", Status: StatusWarn, Detail: "SPI enabled but no spidev devices present"})
	case scan.HATProduct != "":
		out = append(out, Check{Name: "spi", Status: StatusWarn, Detail: "HAT detected but SPI disabled; enable dtparam=spi=on"})
	}
	if len(out) == 0 {
		out = append(out, Check{Name: "radio", Status: StatusWarn, Detail: "no USB or SPI radio detected"})
	}
	return out
}
