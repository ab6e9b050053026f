// Package backup snapshots the meshtasticd configuration tree into the state
// directory. Every snapshot carries a sha256 manifest so a restore can refuse
// tampered or truncated archives.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const manifestVersion = "meshup.backup/v1"

type Manifest struct {
	Version   string     `json:"version"`
	BackupID  string     `json:"backupId"`
	Source    string     `json:"source"`
	CreatedAt string     `json:"createdAt"`
	Files     []FileHash `json:"files"`
}

type FileHash struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

type Backup struct {
	ID   string
	Path string
	Manifest
}

// Create copies every regular file under confRoot into a new snapshot
// directory beneath outputDir and writes the digest manifest next to the
// payload.
func Create(confRoot, outputDir string) (Backup, error) {
	files, err := collectFiles(confRoot)
	if err != nil {
		return Backup{}, err
	}
	if len(files) == 0 {
		return Backup{}, fmt.Errorf("nothing to back up under %s", confRoot)
	}

	id := makeBackupID(files)
	dir := filepath.Join(outputDir, id)
	if err := os.MkdirAll(filepath.Join(dir, "payload"), 0o755); err != nil {
		return Backup{}, err
	}
	for _, fh := range files {
		src := filepath.Join(confRoot, fh.Path)
		dst := filepath.Join(dir, "payload", fh.Path)
		if err := copyFile(src, dst); err != nil {
			return Backup{}, err
		}
	}

	m := Manifest{
		Version:   manifestVersion,
		BackupID:  id,
		Source:    confRoot,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Files:     files,
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Backup{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), append(b, '\n'), 0o644); err != nil {
		return Backup{}, err
	}
	return Backup{ID: id, Path: dir, Manifest: m}, nil
}

// Load reads a snapshot directory and verifies every payload digest against
// the manifest.
func Load(dir string) (Backup, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return Backup{}, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Backup{}, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return Backup{}, fmt.Errorf("unsupported backup manifest version %q", m.Version)
	}
	for _, fh := range m.Files {
		if !fs.ValidPath(fh.Path) || strings.Contains(fh.Path, "..") {
			return Backup{}, fmt.Errorf("manifest entry escapes backup root: %s", fh.Path)
		}
		got, err := hashFile(filepath.Join(dir, "payload", fh.Path))
		if err != nil {
			return Backup{}, err
		}
		if got != fh.SHA256 {
			return Backup{}, fmt.Errorf("backup digest mismatch for %s", fh.Path)
		}
	}
	return Backup{ID: m.BackupID, Path: dir, Manifest: m}, nil
}

// Restore verifies the snapshot and writes its files back under confRoot.
func Restore(dir, confRoot string) error {
	b, err := Load(dir)
	if err != nil {
		return err
	}
	for _, fh := range b.Files {
		src := filepath.Join(dir, "payload", fh.Path)
		dst := filepath.Join(confRoot, fh.Path)
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// List returns the snapshots under outputDir, newest first. Directories with
// broken manifests are skipped.
func List(outputDir string) ([]Backup, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Backup
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		b, err := Load(filepath.Join(outputDir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func collectFiles(root string) ([]FileHash, error) {
	var out []FileHash
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		h, err := hashFile(path)
		if err != nil {
			return err
		}
		out = append(out, FileHash{Path: filepath.ToSlash(rel), SHA256: h})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func makeBackupID(files []FileHash) string {
	h := sha256.New()
	for _, fh := range files {
		fmt.Fprintf(h, "%s %s\n", fh.Path, fh.SHA256)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	return time.Now().UTC().Format("20060102T150405Z") + "-" + sum[:12]
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}
