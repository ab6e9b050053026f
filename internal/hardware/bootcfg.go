package hardware

import (
	"fmt"
	"os"
	"strings"

	"github.com/meshup-dev/meshup/internal/errdefs"
)

// EnsureBootConfig appends the given dtparam/dtoverlay lines to the firmware
// boot config when they are not already present. It returns the path it
// touched; changes take effect on the next reboot.
func (d *Detector) EnsureBootConfig(lines []string) (string, error) {
	path := ""
	for _, p := range bootConfigPaths {
		if _, err := os.Stat(d.path(p)); err == nil {
			path = d.path(p)
			break
		}
	}
	if path == "" {
		return "", fmt.Errorf("%w: boot config (is this a Raspberry Pi?)", errdefs.ErrNotFound)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	present := map[string]bool{}
	for _, l := range strings.Split(string(raw), "\n") {
		present[strings.TrimSpace(l)] = true
	}

	var missing []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" && !present[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) == 0 {
		return path, nil
	}

	out := string(raw)
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	out += strings.Join(missing, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
