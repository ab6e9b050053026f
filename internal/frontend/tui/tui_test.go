package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/logging"
	"github.com/meshup-dev/meshup/internal/meshcfg"
	"github.com/meshup-dev/meshup/internal/ops"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	mgr, err := ops.New(t.TempDir(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	mgr.HW = &hardware.Detector{Root: t.TempDir()}
	return newModel(mgr)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func enter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func TestMenuNavigation(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, 0, m.cursor)

	next, _ := m.Update(key("j"))
	m = next.(model)
	assert.Equal(t, 1, m.cursor)

	next, _ = m.Update(key("k"))
	m = next.(model)
	assert.Equal(t, 0, m.cursor)

	// cursor never leaves the menu
	next, _ = m.Update(key("k"))
	m = next.(model)
	assert.Equal(t, 0, m.cursor)
}

func TestQuitFromMenu(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRegionPickFlow(t *testing.T) {
	m := newTestModel(t)
	for i, item := range menuItems {
		if item.label == "region" {
			m.cursor = i
		}
	}
	next, _ := m.Update(enter())
	m = next.(model)
	assert.Equal(t, screenPick, m.screen)
	assert.Equal(t, "LoRa region", m.pickTitle)
	assert.NotEmpty(t, m.choices)

	// esc returns to the menu without applying anything
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(model)
	assert.Equal(t, screenMenu, m.screen)
}

func TestOpDoneShowsResultView(t *testing.T) {
	m := newTestModel(t)
	m.width, m.height = 80, 24

	next, _ := m.Update(opDoneMsg{title: "check", content: "all good"})
	m = next.(model)
	assert.Equal(t, screenView, m.screen)
	assert.Contains(t, m.View(), "check")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(model)
	assert.Equal(t, screenMenu, m.screen)
}

func TestOpDoneRendersError(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(opDoneMsg{title: "install", err: errors.New("apt broke")})
	m = next.(model)
	assert.Contains(t, m.view.View(), "apt broke")
}

func TestLogLinesFeedViewport(t *testing.T) {
	m := newTestModel(t)
	m.screen = screenLogs
	next, cmd := m.Update(logLinesMsg{lines: []string{"one", "two"}})
	m = next.(model)
	assert.Contains(t, m.view.View(), "two")
	assert.NotNil(t, cmd, "log view should schedule the next poll")
}

func TestMenuViewListsEntries(t *testing.T) {
	m := newTestModel(t)
	out := m.View()
	for _, item := range []string{"install", "update", "check", "logs"} {
		assert.True(t, strings.Contains(out, item), "menu should list %s", item)
	}
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, []string{"stable", "beta", "daily", "alpha"}, channelNames())
}

func TestTemplatesMenuListsAvailable(t *testing.T) {
	m := newTestModel(t)
	confRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(confRoot, "available.d"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(confRoot, "available.d", "lora-usb.yaml"), []byte("Lora:\n  Module: sx1262\n"), 0o644))
	m.mgr.Conf = meshcfg.Open(confRoot)

	for i, item := range menuItems {
		if item.label == "templates" {
			m.cursor = i
		}
	}
	next, _ := m.Update(enter())
	m = next.(model)
	assert.Equal(t, screenPick, m.screen)
	assert.Contains(t, m.choices, "lora-usb")
}

func TestTemplatesMenuWithoutTemplates(t *testing.T) {
	m := newTestModel(t)
	m.mgr.Conf = meshcfg.Open(t.TempDir())

	for i, item := range menuItems {
		if item.label == "templates" {
			m.cursor = i
		}
	}
	next, _ := m.Update(enter())
	m = next.(model)
	assert.Equal(t, screenView, m.screen)
	assert.Error(t, m.err)
}
