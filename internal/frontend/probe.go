package frontend

import (
	"os"

	"golang.org/x/term"
)

// Snapshot records what the session offers. It is taken once at startup and
// never mutated; any signal that cannot be read counts as absent, which
// biases resolution toward the plain CLI.
type Snapshot struct {
	HasDisplay    bool
	RemoteSession bool
	GUIToolkit    bool
	TUIToolkit    bool
}

// Probe inspects the process environment. guiCompiled says whether the
// graphical front-end was built into this binary.
func Probe(guiCompiled bool) Snapshot {
	isTTY := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	return probeFrom(os.Getenv, isTTY, guiCompiled)
}

func probeFrom(getenv func(string) string, isTTY bool, guiCompiled bool) Snapshot {
	return Snapshot{
		HasDisplay:    getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != "",
		RemoteSession: getenv("SSH_CONNECTION") != "" || getenv("SSH_TTY") != "" || getenv("SSH_CLIENT") != "",
		GUIToolkit:    guiCompiled,
		TUIToolkit:    isTTY && getenv("TERM") != "dumb" && getenv("TERM") != "",
	}
}
