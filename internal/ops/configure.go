package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meshup-dev/meshup/internal/backup"
	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/execx"
	v1 "github.com/meshup-dev/meshup/internal/meshcfg/schema/v1"
	"github.com/meshup-dev/meshup/internal/privilege"
	"github.com/meshup-dev/meshup/internal/profile"
)

func (m *Manager) backupDir() string {
	return filepath.Join(m.stateDir, "backups")
}

// configure wraps a config mutation with a root check, a pre-change backup,
// and a journal entry. The backup is best-effort: a fresh system has nothing
// to snapshot yet.
func (m *Manager) configure(kind string, mutate func() error) error {
	if err := privilege.RequireRoot("configure"); err != nil {
		return err
	}
	rec := m.begin("configure."+kind, "")
	if b, err := backup.Create(m.Conf.Root, m.backupDir()); err == nil {
		m.event(rec, "config.backup", "snapshot "+b.ID, nil)
	}
	return m.complete(rec, "", mutate())
}

func (m *Manager) SetRegion(code string) error {
	return m.configure("region", func() error { return m.Conf.SetRegion(code) })
}

func (m *Manager) ApplyPreset(name string) error {
	return m.configure("preset", func() error { return m.Conf.ApplyPreset(name) })
}

func (m *Manager) ActivateTemplate(name string) error {
	return m.configure("template", func() error { return m.Conf.Activate(name) })
}

func (m *Manager) DeactivateTemplate(name string) error {
	return m.configure("template", func() error { return m.Conf.Deactivate(name) })
}

// ApplyProfile writes a matched HAT profile's radio parameters into the main
// config and makes sure its device-tree overlay lines are in the boot config.
func (m *Manager) ApplyProfile(p profile.Profile) error {
	return m.configure("profile", func() error {
		cfg, err := m.Conf.Load()
		if err != nil {
			return err
		}
		cfg.Lora.Module = p.Lora.Module
		cfg.Lora.SPIDev = p.Lora.SPIDev
		cfg.Lora.Port = ""
		cfg.Lora.CS = p.Lora.CS
		cfg.Lora.IRQ = p.Lora.IRQ
		cfg.Lora.Busy = p.Lora.Busy
		cfg.Lora.Reset = p.Lora.Reset
		if err := m.Conf.Save(cfg); err != nil {
			return err
		}
		if len(p.Overlays) > 0 {
			if _, err := m.HW.EnsureBootConfig(p.Overlays); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnableSPI turns the SPI bus on in the boot config. Takes effect on reboot.
func (m *Manager) EnableSPI() (string, error) {
	var path string
	err := m.configure("spi", func() error {
		var err error
		path, err = m.HW.EnsureBootConfig([]string{"dtparam=spi=on"})
		return err
	})
	return path, err
}

// SetWebserver enables or disables the daemon's built-in web server block.
func (m *Manager) SetWebserver(enable bool, port int) error {
	return m.configure("webserver", func() error {
		cfg, err := m.Conf.Load()
		if err != nil {
			return err
		}
		if !enable {
			cfg.Webserver = nil
		} else {
			if port == 0 {
				port = 443
			}
			cfg.Webserver = &v1.WebserverSection{Port: port, RootPath: "/usr/share/meshtasticd/web"}
		}
		return m.Conf.Save(cfg)
	})
}

// SetPort points the daemon at a USB serial radio, clearing any SPI
// transport.
func (m *Manager) SetPort(port string) error {
	return m.configure("port", func() error {
		cfg, err := m.Conf.Load()
		if err != nil {
			return err
		}
		cfg.Lora.Port = port
		cfg.Lora.SPIDev = ""
		return m.Conf.Save(cfg)
	})
}

// EditConfig opens the main config in the user's editor, then refuses to
// keep a result that no longer parses by restoring the pre-edit snapshot.
func (m *Manager) EditConfig(ctx context.Context) error {
	if err := privilege.RequireRoot("configure"); err != nil {
		return err
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "nano"
	}
	if !execx.CommandExists(editor) {
		return errdefs.MissingDependency(editor)
	}

	rec := m.begin("configure.edit", "")
	snap, snapErr := backup.Create(m.Conf.Root, m.backupDir())
	if snapErr == nil {
		m.event(rec, "config.backup", "snapshot "+snap.ID, nil)
	}

	err := func() error {
		if err := execx.Interactive(ctx, editor, m.Conf.ConfigPath()); err != nil {
			return err
		}
		if _, err := m.Conf.Load(); err != nil {
			if snapErr == nil {
				if rerr := backup.Restore(snap.Path, m.Conf.Root); rerr == nil {
					return fmt.Errorf("edited config rejected, previous config restored: %w", err)
				}
			}
			return fmt.Errorf("edited config rejected: %w", err)
		}
		return nil
	}()
	return m.complete(rec, "", err)
}

// BackupConfig snapshots the daemon config tree into the state directory.
func (m *Manager) BackupConfig() (backup.Backup, error) {
	return backup.Create(m.Conf.Root, m.backupDir())
}

func (m *Manager) ListBackups() ([]backup.Backup, error) {
	return backup.List(m.backupDir())
}

// RestoreBackup verifies and restores a snapshot by ID.
func (m *Manager) RestoreBackup(id string) error {
	return m.configure("restore", func() error {
		return backup.Restore(filepath.Join(m.backupDir(), id), m.Conf.Root)
	})
}

// MatchProfiles loads HAT profiles shipped under the config root and returns
// the ones matching the current hardware scan.
func (m *Manager) MatchProfiles(ctx context.Context) ([]profile.Profile, error) {
	profiles, err := profile.LoadDir(filepath.Join(m.Conf.Root, "profiles.d"))
	if err != nil {
		return nil, err
	}
	return profile.MatchScan(profiles, m.HW.Detect(ctx)), nil
}
