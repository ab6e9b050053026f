package systemd

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/meshup-dev/meshup/internal/execx"
)

const cursorMarker = "-- cursor: "

// Tail returns the last n journal lines for the unit.
func (a *Adapter) Tail(ctx context.Context, n int) ([]string, error) {
	out, _, err := execx.Run(ctx, "journalctl", "-u", a.Unit, "-n", strconv.Itoa(n), "--no-pager", "-o", "short")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Follow polls the journal and feeds new lines to emit until ctx is
// cancelled. It uses journalctl cursors rather than a long-lived child
// process, so cancellation is immediate and no subprocess outlives the
// caller.
func (a *Adapter) Follow(ctx context.Context, interval time.Duration, emit func(line string)) error {
	if interval <= 0 {
		interval = time.Second
	}

	cursor, lines, err := a.readFrom(ctx, "")
	if err != nil {
		return err
	}
	for _, l := range lines {
		emit(l)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		next, lines, err := a.readFrom(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		for _, l := range lines {
			emit(l)
		}
		if next != "" {
			cursor = next
		}
	}
}

// readFrom fetches journal lines after the given cursor, or the most recent
// page when cursor is empty. It returns the new cursor alongside the lines.
func (a *Adapter) readFrom(ctx context.Context, cursor string) (string, []string, error) {
	args := []string{"-u", a.Unit, "--no-pager", "-o", "short", "--show-cursor"}
	if cursor == "" {
		args = append(args, "-n", "50")
	} else {
		args = append(args, "--after-cursor", cursor)
	}
	out, _, err := execx.Run(ctx, "journalctl", args...)
	if err != nil {
		return cursor, nil, err
	}

	var lines []string
	next := cursor
	for _, l := range splitLines(out) {
		if c, ok := strings.CutPrefix(l, cursorMarker); ok {
			next = strings.TrimSpace(c)
			continue
		}
		lines = append(lines, l)
	}
	return next, lines, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
