// Package privilege gates operations that mutate system state.
package privilege

import (
	"fmt"
	"os"

	"github.com/meshup-dev/meshup/internal/errdefs"
)

// IsRoot reports whether the process runs with effective uid 0.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// RequireRoot returns ErrPermissionDenied with sudo advice when the current
// process cannot perform op.
func RequireRoot(op string) error {
	if IsRoot() {
		return nil
	}
	return fmt.Errorf("%w: %s requires root, re-run with sudo", errdefs.ErrPermissionDenied, op)
}
