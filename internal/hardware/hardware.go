// Package hardware detects the host board and attached LoRa radios. All
// probes degrade to "absent" instead of failing so detection can run on any
// host.
package hardware

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/meshup-dev/meshup/internal/execx"
)

// Known USB serial bridges used by LoRa radios, keyed by vendor:product.
var knownUSBModules = map[string]string{
	"1a86:7523": "CH340 USB-Serial (common LoRa module)",
	"10c4:ea60": "CP2102 USB-Serial (Silicon Labs)",
	"0403:6001": "FT232 USB-Serial (FTDI)",
}

// Boot config locations, newest layout first.
var bootConfigPaths = []string{
	"/boot/firmware/config.txt",
	"/boot/config.txt",
}

type USBModule struct {
	VendorProduct string `json:"vendorProduct"`
	Description   string `json:"description"`
	Device        string `json:"device"`
}

type Scan struct {
	BoardModel     string      `json:"boardModel,omitempty"`
	CPUHardware    string      `json:"cpuHardware,omitempty"`
	CPURevision    string      `json:"cpuRevision,omitempty"`
	USBModules     []USBModule `json:"usbModules,omitempty"`
	USBSerialPorts []string    `json:"usbSerialPorts,omitempty"`
	SPIEnabled     bool        `json:"spiEnabled"`
	SPIDevices     []string    `json:"spiDevices,omitempty"`
	HATProduct     string      `json:"hatProduct,omitempty"`
}

// Recommendation is a suggested daemon connection derived from a scan.
type Recommendation struct {
	Flag        string `json:"flag"`
	Description string `json:"description"`
}

// Detector probes one host. Root is "/" in production and a temp tree in
// tests.
type Detector struct {
	Root string
}

func New() *Detector { return &Detector{Root: "/"} }

func (d *Detector) path(p string) string {
	return filepath.Join(d.Root, p)
}

// Detect runs every probe. Individual probe failures leave their fields
// empty rather than aborting the scan.
func (d *Detector) Detect(ctx context.Context) Scan {
	var s Scan
	s.BoardModel = d.boardModel()
	s.CPUHardware, s.CPURevision = d.cpuInfo()
	s.USBModules = d.usbModules(ctx)
	s.USBSerialPorts = d.usbSerialPorts()
	s.SPIEnabled = d.spiEnabled()
	if s.SPIEnabled {
		s.SPIDevices = d.spiDevices()
	}
	s.HATProduct = d.hatProduct()
	return s
}

func (d *Detector) boardModel() string {
	b, err := os.ReadFile(d.path("proc/device-tree/model"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(string(b), "\x00"))
}

func (d *Detector) cpuInfo() (hardware, revision string) {
	b, err := os.ReadFile(d.path("proc/cpuinfo"))
	if err != nil {
		return "", ""
	}
	for _, line := range strings.Split(string(b), "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "Hardware":
			hardware = strings.TrimSpace(v)
		case "Revision":
			revision = strings.TrimSpace(v)
		}
	}
	return hardware, revision
}

func (d *Detector) usbModules(ctx context.Context) []USBModule {
	stdout, _, err := execx.Run(ctx, "lsusb")
	if err != nil {
		return nil
	}
	return matchUSBModules(stdout)
}

func matchUSBModules(lsusbOutput string) []USBModule {
	var out []USBModule
	for _, line := range strings.Split(lsusbOutput, "\n") {
		lower := strings.ToLower(line)
		for vp, desc := range knownUSBModules {
			if strings.Contains(lower, vp) {
				out = append(out, USBModule{
					VendorProduct: vp,
					Description:   desc,
					Device:        strings.TrimSpace(line),
				})
			}
		}
	}
	return out
}

func (d *Detector) usbSerialPorts() []string {
	var ports []string
	for _, pattern := range []string{"dev/ttyUSB*", "dev/ttyACM*"} {
		matches, _ := filepath.Glob(d.path(pattern))
		for _, m := range matches {
			ports = append(ports, d.devicePath(m))
		}
	}
	return ports
}

// devicePath maps a matched path back to its absolute device name so test
// roots report the same paths production does.
func (d *Detector) devicePath(match string) string {
	rel, err := filepath.Rel(d.Root, match)
	if err != nil {
		return match
	}
	return "/" + filepath.ToSlash(rel)
}

func (d *Detector) spiEnabled() bool {
	for _, p := range bootConfigPaths {
		b, err := os.ReadFile(d.path(p))
		if err != nil {
			continue
		}
		if spiEnabledInConfig(string(b)) {
			return true
		}
	}
	return false
}

func spiEnabledInConfig(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "dtparam=") && strings.Contains(line, "spi=on") {
			return true
		}
	}
	return false
}

func (d *Detector) spiDevices() []string {
	matches, _ := filepath.Glob(d.path("dev/spidev*"))
	var out []string
	for _, m := range matches {
		out = append(out, d.devicePath(m))
	}
	return out
}

func (d *Detector) hatProduct() string {
	b, err := os.ReadFile(d.path("proc/device-tree/hat/product"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(string(b), "\x00"))
}

// Recommend derives connection flags for the daemon CLI from a scan. USB
// serial wins over SPI when both are present.
func Recommend(s Scan) []Recommendation {
	var recs []Recommendation
	if len(s.USBSerialPorts) > 0 {
		recs = append(recs, Recommendation{
			Flag:        "--port " + s.USBSerialPorts[0],
			Description: "use USB serial port " + s.USBSerialPorts[0],
		})
	}
	if len(s.SPIDevices) > 0 {
		recs = append(recs, Recommendation{
			Flag:        "--spi",
			Description: "use SPI-connected radio",
		})
	}
	return recs
}

// IsRaspberryPi reports whether the scan looks like a Pi board.
func (s Scan) IsRaspberryPi() bool {
	return strings.Contains(s.BoardModel, "Raspberry Pi")
}
