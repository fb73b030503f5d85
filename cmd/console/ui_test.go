package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/session"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

func newTestUI(t *testing.T) ConsoleUI {
	t.Helper()
	toasts := notify.NewRecorder()
	scheduler := session.NewManualScheduler()
	s := session.New(session.Options{
		Store:     storage.NewMemoryStore(),
		ProfileID: "console",
		Notifier:  toasts,
		Scheduler: scheduler,
		Features:  scene.AllFeatures(),
	})
	s.Start(context.Background())

	m := NewConsoleUI(s, toasts, scheduler)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(ConsoleUI)
}

func press(t *testing.T, m ConsoleUI, key string) (ConsoleUI, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(ConsoleUI), cmd
}

func TestConsoleUI_NumberKeysChoose(t *testing.T) {
	m := newTestUI(t)
	require.Equal(t, scene.DifficultySelect, m.session.CurrentScene().ID)

	m, _ = press(t, m, "2")
	assert.Equal(t, scene.Entrance, m.session.CurrentScene().ID)
	assert.Equal(t, 100, m.session.PlayerSummary().Health, "second option is normal")

	// out of range numbers are ignored
	m, _ = press(t, m, "9")
	assert.Equal(t, scene.Entrance, m.session.CurrentScene().ID)

	assert.Contains(t, m.View(), "Entrance")
}

func TestConsoleUI_TickDrainsToastsAndRunsScheduler(t *testing.T) {
	m := newTestUI(t)
	m, _ = press(t, m, "2")

	ran := false
	m.scheduler.After(0, func() { ran = true })

	next, cmd := m.Update(tickMsg(time.Now().Add(time.Second)))
	m = next.(ConsoleUI)
	assert.True(t, ran)
	assert.NotNil(t, cmd, "tick reschedules itself")

	require.NotEmpty(t, m.active)
	assert.Equal(t, "Game Saved! 💾", m.active[0].text)

	m.now = func() time.Time { return time.Now().Add(time.Minute) }
	next, _ = m.Update(tickMsg(time.Now()))
	assert.Empty(t, next.(ConsoleUI).active, "expired toasts are dropped")
}

func TestConsoleUI_UsePotionWithoutOne(t *testing.T) {
	m := newTestUI(t)
	m, _ = press(t, m, "2")
	m, _ = press(t, m, "i")

	require.Len(t, m.active, 1)
	assert.Equal(t, "You don't have Health Potion.", m.active[0].text)
}

func TestConsoleUI_CopyScene(t *testing.T) {
	m := newTestUI(t)
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m, _ = press(t, m, "y")
	assert.True(t, strings.HasPrefix(copied, m.session.CurrentScene().Title))
	assert.Contains(t, copied, "1. ")

	m.copyText = func(string) error { return errors.New("no clipboard") }
	m, _ = press(t, m, "y")
	assert.Equal(t, "Copy failed: no clipboard", m.active[len(m.active)-1].text)
}

func TestConsoleUI_AchievementsPanel(t *testing.T) {
	m := newTestUI(t)

	m, _ = press(t, m, "a")
	assert.True(t, m.showAchievements)
	assert.Contains(t, m.View(), "Hidden achievement")

	m, _ = press(t, m, "2")
	assert.False(t, m.showAchievements)
	assert.Equal(t, scene.DifficultySelect, m.session.CurrentScene().ID, "closing key is not a choice")
}

func TestConsoleUI_Quit(t *testing.T) {
	m := newTestUI(t)

	m, _ = press(t, m, "q")
	require.True(t, m.showQuitModal)

	m, cmd := press(t, m, "n")
	assert.False(t, m.showQuitModal)
	assert.Nil(t, cmd)

	m, _ = press(t, m, "q")
	_, cmd = press(t, m, "y")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSceneText(t *testing.T) {
	sc := scene.Scene{
		Title:   "Attic",
		Body:    []string{"Dusty.", "Quiet."},
		Choices: []scene.Choice{{Label: "Leave", Transition: scene.GoEntrance}},
	}
	assert.Equal(t, "Attic\n\nDusty.\nQuiet.\n\n1. Leave", sceneText(sc))
}
