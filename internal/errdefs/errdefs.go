// Package errdefs defines the error taxonomy shared by every front-end and
// command wrapper. Only ErrMissingDependency triggers front-end fallback;
// everything else is surfaced to the user with the external command's text.
package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingDependency marks a toolkit or external tool that is not
	// installed on this host.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrPermissionDenied marks an operation that needs elevated privileges.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound marks an expected file or device that is absent.
	ErrNotFound = errors.New("not found")
)

// MissingDependency wraps ErrMissingDependency with the name of the thing
// that is absent.
func MissingDependency(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingDependency, name)
}

// SubprocessError reports a non-zero exit from an external command. The
// stderr text is kept verbatim so the authoritative tool's own message
// reaches the user.
type SubprocessError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *SubprocessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Cmd, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Cmd, e.ExitCode, msg)
}

// IsSubprocess reports whether err carries a SubprocessError and returns it.
func IsSubprocess(err error) (*SubprocessError, bool) {
	var se *SubprocessError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
