package aptpkg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Channel package repositories on the openSUSE Build Service.
const repoBaseURL = "https://download.opensuse.org/repositories/network:/Meshtastic:/"

const (
	sourcesRelPath = "etc/apt/sources.list.d/meshtasticd.list"
	keyringRelPath = "usr/share/keyrings/meshtasticd-archive-keyring.gpg"
)

// RepoURL returns the package repository for a channel and distribution
// suite (for example Debian_12 or Raspbian_12).
func RepoURL(c Channel, suite string) string {
	return repoBaseURL + string(c) + "/" + suite + "/"
}

// KeyURL is the repository signing key location for a channel/suite.
func KeyURL(c Channel, suite string) string {
	return RepoURL(c, suite) + "Release.key"
}

func (a *Adapter) sourcesPath() string { return filepath.Join(a.Root, sourcesRelPath) }
func (a *Adapter) keyringPath() string { return filepath.Join(a.Root, keyringRelPath) }

// ConfiguredChannel reads the channel back out of the sources file, or
// "" when no repo is configured yet.
func (a *Adapter) ConfiguredChannel() Channel {
	b, err := os.ReadFile(a.sourcesPath())
	if err != nil {
		return ""
	}
	for _, c := range Channels() {
		if strings.Contains(string(b), "/Meshtastic:/"+string(c)+"/") {
			return c
		}
	}
	return ""
}

// WriteSources points apt at the channel repository. The suite comes from
// DetectSuite; the keyring must already be in place (FetchKeyring).
func (a *Adapter) WriteSources(c Channel, suite string) error {
	if !c.Valid() {
		return fmt.Errorf("invalid channel %q", c)
	}
	line := fmt.Sprintf("deb [signed-by=/%s] %s /\n", keyringRelPath, RepoURL(c, suite))
	if err := os.MkdirAll(filepath.Dir(a.sourcesPath()), 0o755); err != nil {
		return err
	}
	return os.WriteFile(a.sourcesPath(), []byte(line), 0o644)
}

// FetchKeyring downloads the repository signing key. apt verifies package
// signatures against it from then on; this tool does no verification of its
// own.
func (a *Adapter) FetchKeyring(ctx context.Context, c Channel, suite string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, KeyURL(c, suite), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch repository key: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch repository key: unexpected status %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(a.keyringPath()), 0o755); err != nil {
		return err
	}
	return os.WriteFile(a.keyringPath(), b, 0o644)
}

// DetectSuite maps /etc/os-release to the repository suite directory.
func (a *Adapter) DetectSuite() (string, error) {
	b, err := os.ReadFile(filepath.Join(a.Root, "etc/os-release"))
	if err != nil {
		return "", fmt.Errorf("read os-release: %w", err)
	}
	return suiteFromOSRelease(string(b))
}

func suiteFromOSRelease(content string) (string, error) {
	fields := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		fields[k] = strings.Trim(v, `"`)
	}
	id := fields["ID"]
	version := fields["VERSION_ID"]
	if id == "" || version == "" {
		return "", fmt.Errorf("os-release is missing ID or VERSION_ID")
	}
	switch id {
	case "debian":
		return "Debian_" + version, nil
	case "raspbian":
		return "Raspbian_" + version, nil
	case "ubuntu":
		return "Ubuntu_" + version, nil
	default:
		// Derivatives usually track Debian suites.
		if like := fields["ID_LIKE"]; strings.Contains(like, "debian") {
			return "Debian_" + version, nil
		}
		return "", fmt.Errorf("unsupported distribution %q", id)
	}
}
