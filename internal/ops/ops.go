// Package ops is the shared command layer. All three front-ends and the
// direct CLI subcommands call the same Manager; the presentation
// layers only render its results.
package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/meshup-dev/meshup/internal/aptpkg"
	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/logs"
	"github.com/meshup-dev/meshup/internal/meshcfg"
	"github.com/meshup-dev/meshup/internal/privilege"
	store "github.com/meshup-dev/meshup/internal/store/sqlite"
	"github.com/meshup-dev/meshup/internal/systemd"
)

type Manager struct {
	stateDir string
	store    *store.Store
	log      *zap.Logger

	// Frontend names the presentation layer driving this Manager; it is
	// recorded on every journal row. Set by whichever front-end starts.
	Frontend string

	Apt  *aptpkg.Adapter
	Sysd *systemd.Adapter
	Conf *meshcfg.Dir
	HW   *hardware.Detector
}

func New(stateDir string, log *zap.Logger) (*Manager, error) {
	if stateDir == "" {
		stateDir = defaultStateDir()
	}
	s, err := store.Open(stateDir)
	if err != nil {
		return nil, err
	}
	return &Manager{
		stateDir: stateDir,
		store:    s,
		log:      log,
		Apt:      aptpkg.New(),
		Sysd:     systemd.New(),
		Conf:     meshcfg.Open(meshcfg.DefaultRoot),
		HW:       hardware.New(),
	}, nil
}

func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	return m.store.Close()
}

func (m *Manager) StateDir() string { return m.stateDir }

// Install adds the channel repository and installs the daemon package, then
// enables and starts the service.
func (m *Manager) Install(ctx context.Context, channel aptpkg.Channel) (store.OperationRecord, error) {
	if err := privilege.RequireRoot("install"); err != nil {
		return store.OperationRecord{}, err
	}
	rec := m.begin("install", string(channel))

	err := m.run(rec, func() (string, error) {
		suite, err := m.Apt.DetectSuite()
		if err != nil {
			return "", err
		}
		m.event(rec, "repo.configure", fmt.Sprintf("channel %s, suite %s", channel, suite), nil)
		if err := m.Apt.FetchKeyring(ctx, channel, suite); err != nil {
			return "", err
		}
		if err := m.Apt.WriteSources(channel, suite); err != nil {
			return "", err
		}

		m.event(rec, "apt.update", "refreshing package indexes", nil)
		if _, err := m.Apt.Update(ctx); err != nil {
			return "", err
		}
		m.event(rec, "apt.install", "installing "+aptpkg.DaemonPackage, nil)
		if _, err := m.Apt.Install(ctx); err != nil {
			return "", err
		}
		version, err := m.Apt.InstalledVersion(ctx)
		if err != nil {
			return "", err
		}

		m.event(rec, "service.enable", "enabling and starting "+systemd.DaemonUnit, nil)
		if err := m.Sysd.Enable(ctx); err != nil {
			return version, err
		}
		if err := m.Sysd.Start(ctx); err != nil {
			return version, err
		}
		return version, nil
	})
	return m.finish(rec, err)
}

// Update refreshes indexes, upgrades the daemon package only, and restarts
// the service when it was running.
func (m *Manager) Update(ctx context.Context) (store.OperationRecord, error) {
	if err := privilege.RequireRoot("update"); err != nil {
		return store.OperationRecord{}, err
	}
	rec := m.begin("update", string(m.Apt.ConfiguredChannel()))

	err := m.run(rec, func() (string, error) {
		m.event(rec, "apt.update", "refreshing package indexes", nil)
		if _, err := m.Apt.Update(ctx); err != nil {
			return "", err
		}
		m.event(rec, "apt.upgrade", "upgrading "+aptpkg.DaemonPackage, nil)
		if _, err := m.Apt.Upgrade(ctx); err != nil {
			return "", err
		}
		version, err := m.Apt.InstalledVersion(ctx)
		if err != nil {
			return "", err
		}

		st, err := m.Sysd.Status(ctx)
		if err == nil && st.Active {
			m.event(rec, "service.restart", "restarting "+systemd.DaemonUnit, nil)
			if err := m.Sysd.Restart(ctx); err != nil {
				return version, err
			}
		}
		return version, nil
	})
	return m.finish(rec, err)
}

// Service runs one lifecycle verb against the daemon unit. Status is
// read-only; everything else needs root.
func (m *Manager) Service(ctx context.Context, action string) (systemd.Status, error) {
	if action == "status" {
		return m.Sysd.Status(ctx)
	}
	if err := privilege.RequireRoot("service " + action); err != nil {
		return systemd.Status{}, err
	}
	rec := m.begin("service."+action, "")

	var do func(context.Context) error
	switch action {
	case "start":
		do = m.Sysd.Start
	case "stop":
		do = m.Sysd.Stop
	case "restart":
		do = m.Sysd.Restart
	case "enable":
		do = m.Sysd.Enable
	case "disable":
		do = m.Sysd.Disable
	default:
		err := fmt.Errorf("invalid service action %q (start|stop|restart|enable|disable|status)", action)
		_ = m.complete(rec, "", err)
		return systemd.Status{}, err
	}
	if _, err := m.finish(rec, m.run(rec, func() (string, error) {
		return "", do(ctx)
	})); err != nil {
		return systemd.Status{}, err
	}
	return m.Sysd.Status(ctx)
}

// TailLogs returns the last n daemon journal lines.
func (m *Manager) TailLogs(ctx context.Context, n int) ([]string, error) {
	return m.Sysd.Tail(ctx, n)
}

// FollowLogs streams new daemon journal lines to emit until ctx is
// cancelled.
func (m *Manager) FollowLogs(ctx context.Context, interval time.Duration, emit func(string)) error {
	return m.Sysd.Follow(ctx, interval, emit)
}

// History lists past operations, newest first.
func (m *Manager) History(limit int) ([]store.OperationRecord, error) {
	return m.store.ListOperations(limit)
}

// Events returns the jsonl event lines recorded for one operation.
func (m *Manager) Events(opID string) ([]string, error) {
	return logs.ReadEvents(m.stateDir, opID)
}

// begin journals the start of a mutating operation.
func (m *Manager) begin(kind, channel string) store.OperationRecord {
	rec := store.OperationRecord{
		OperationID: makeOperationID(),
		Kind:        kind,
		Channel:     channel,
		Frontend:    m.Frontend,
		Status:      "running",
		StartedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := m.store.InsertOperation(rec); err != nil {
		m.log.Warn("journal insert failed", zap.Error(err))
	}
	return rec
}

// run executes the operation body and stashes the resulting version on the
// record. Journaling failures never fail the operation itself.
func (m *Manager) run(rec store.OperationRecord, body func() (string, error)) error {
	version, err := body()
	rec.Version = version
	return m.complete(rec, version, err)
}

func (m *Manager) complete(rec store.OperationRecord, version string, err error) error {
	status := "succeeded"
	lastError := ""
	if err != nil {
		status = "failed"
		lastError = err.Error()
		m.event(rec, "operation.exit", "failed", err)
	} else {
		m.event(rec, "operation.exit", "completed", nil)
	}
	if uerr := m.store.UpdateOperationCompletion(rec.OperationID, status, version, exitCodeOf(err), lastError); uerr != nil {
		m.log.Warn("journal update failed", zap.Error(uerr))
	}
	return err
}

func (m *Manager) finish(rec store.OperationRecord, err error) (store.OperationRecord, error) {
	out, gerr := m.store.GetOperation(rec.OperationID)
	if gerr != nil {
		return rec, err
	}
	return out, err
}

func (m *Manager) event(rec store.OperationRecord, phase, msg string, err error) {
	e := logs.Event{Phase: phase, Channel: rec.Channel, Message: msg}
	if err != nil {
		e.Error = err.Error()
	}
	if aerr := logs.AppendEvent(m.stateDir, rec.OperationID, e); aerr != nil {
		m.log.Debug("event append failed", zap.Error(aerr))
	}
}

func makeOperationID() string {
	now := time.Now().UTC()
	return now.Format("20060102t150405") + fmt.Sprintf("%09d", now.Nanosecond())
}

func exitCodeOf(err error) *int {
	if se, ok := errdefs.IsSubprocess(err); ok {
		code := se.ExitCode
		return &code
	}
	return nil
}

// defaultStateDir is /var/lib/meshup for root and ~/.meshup otherwise, so
// unprivileged read-only commands still get a journal.
func defaultStateDir() string {
	if privilege.IsRoot() {
		return "/var/lib/meshup"
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".meshup")
	}
	return ".meshup"
}
