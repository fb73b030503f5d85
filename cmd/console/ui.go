package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/session"
)

const (
	tickInterval = 100 * time.Millisecond
	toastTTL     = 3 * time.Second
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	session   *session.Session
	toasts    *notify.Recorder
	scheduler *session.ManualScheduler
	copyText  func(string) error
	now       func() time.Time

	sceneViewport viewport.Model
	metaViewport  viewport.Model
	ready         bool
	width         int
	height        int

	active []toast
	err    error

	showAchievements bool
	showQuitModal    bool
}

type toast struct {
	text    string
	expires time.Time
}

type tickMsg time.Time

var (
	scenePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(s *session.Session, toasts *notify.Recorder, scheduler *session.ManualScheduler) ConsoleUI {
	return ConsoleUI{
		session:       s,
		toasts:        toasts,
		scheduler:     scheduler,
		copyText:      clipboard.WriteAll,
		now:           time.Now,
		sceneViewport: viewport.New(50, 20),
		metaViewport:  viewport.New(20, 20),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ConsoleUI) Init() tea.Cmd {
	return tick()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		sceneWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - sceneWidth - 6

		m.sceneViewport.Width = sceneWidth - 2
		m.sceneViewport.Height = m.height - 5
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 3
		m.ready = true
		m.refresh()

	case tickMsg:
		// deferred game events (the ghost's killing blow) fire here
		if m.scheduler.RunDue(time.Time(msg)) > 0 {
			m.refresh()
		}
		m.collectToasts()
		return m, tick()

	case tea.KeyMsg:
		if m.showAchievements {
			// any key closes the panel
			m.showAchievements = false
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		}

		switch key := msg.String(); key {
		case "q":
			m.showQuitModal = true
			return m, nil
		case "a":
			m.showAchievements = true
			return m, nil
		case "i":
			res := m.session.UseItem(context.Background(), player.HealthPotion)
			m.push(res.Message)
			m.refresh()
			return m, nil
		case "y":
			if err := m.copyText(sceneText(m.session.CurrentScene())); err != nil {
				m.push("Copy failed: " + err.Error())
			} else {
				m.push("Scene copied to clipboard 📋")
			}
			return m, nil
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				m.choose(int(key[0] - '1'))
				return m, nil
			}
		}
	}

	m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

// choose applies the idx-th choice of the current scene
func (m *ConsoleUI) choose(idx int) {
	sc := m.session.CurrentScene()
	if idx < 0 || idx >= len(sc.Choices) {
		return
	}
	m.err = m.session.Choose(context.Background(), sc.Choices[idx].Transition)
	m.refresh()
}

func (m *ConsoleUI) push(text string) {
	m.active = append(m.active, toast{text: text, expires: m.now().Add(toastTTL)})
}

// collectToasts drains engine notifications into the toast bar and drops
// expired ones
func (m *ConsoleUI) collectToasts() {
	for _, n := range m.toasts.Drain() {
		m.push(toastText(n))
	}
	now := m.now()
	kept := m.active[:0]
	for _, t := range m.active {
		if now.Before(t.expires) {
			kept = append(kept, t)
		}
	}
	m.active = kept
}

func toastText(n notify.Notification) string {
	if id, ok := n.Data["achievement"].(string); ok {
		return n.Message + " 🏆 " + id
	}
	return n.Message
}

// refresh rebuilds both panels from the session
func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	width := m.sceneViewport.Width - 4
	content := renderScene(m.session.CurrentScene(), width)
	if m.err != nil {
		content += "\n" + dangerStyle.Render(wordwrap.String(m.err.Error(), width)) + "\n"
	}
	m.sceneViewport.SetContent(content)
	m.sceneViewport.GotoTop()
	m.metaViewport.SetContent(writeMetadata(m.session.PlayerSummary()))
}

func renderScene(sc scene.Scene, width int) string {
	if width < 20 {
		width = 20
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render(sc.Title) + "\n\n")
	for _, p := range sc.Body {
		content.WriteString(wordwrap.String(p, width) + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	for i, c := range sc.Choices {
		style := choiceStyle
		switch c.Style {
		case scene.StyleSuccess:
			style = successStyle
		case scene.StyleDanger:
			style = dangerStyle
		}
		content.WriteString(style.Render(fmt.Sprintf("%d. %s", i+1, c.Label)) + "\n")
	}
	return content.String()
}

// sceneText is the plain form copied to the clipboard
func sceneText(sc scene.Scene) string {
	var b strings.Builder
	b.WriteString(sc.Title + "\n\n")
	b.WriteString(strings.Join(sc.Body, "\n"))
	b.WriteString("\n")
	for i, c := range sc.Choices {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Label)
	}
	return b.String()
}

func writeMetadata(p session.PlayerSummary) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("STATUS") + "\n\n")

	content.WriteString("Difficulty:\n")
	content.WriteString(string(p.Difficulty) + "\n\n")

	healthStyle := successStyle
	switch p.HealthBand {
	case "warning":
		healthStyle = warningStyle
	case "critical":
		healthStyle = dangerStyle
	}
	content.WriteString("Health:\n")
	content.WriteString(healthStyle.Render(fmt.Sprintf("%d/%d", p.Health, p.MaxHealth)) + "\n\n")

	content.WriteString("Inventory:\n")
	if len(p.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, it := range p.Inventory {
		content.WriteString(fmt.Sprintf("%s %s\n", it.Icon, it.Name))
	}
	content.WriteString("\n")

	content.WriteString("Achievements:\n")
	content.WriteString(fmt.Sprintf("%d/%d\n\n", len(p.Achievements), p.AchievementsTotal))

	content.WriteString("Rooms visited:\n")
	content.WriteString(fmt.Sprintf("%d\n\n", len(p.VisitedRooms)))

	content.WriteString("Commands:\n")
	content.WriteString("• 1-9: Choose\n")
	content.WriteString("• i: Use potion\n")
	content.WriteString("• a: Achievements\n")
	content.WriteString("• y: Copy scene\n")
	content.WriteString("• q: Quit\n")

	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, nil
		}
		switch msg.String() {
		case "y", "Y", "q":
			return m, tea.Quit
		case "n", "N":
			m.showQuitModal = false
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Mansion?"))
	content.WriteString("\n\n")
	content.WriteString("Progress is kept at the last checkpoint.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderAchievements() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("🏆 Achievements"))
	content.WriteString("\n\n")
	for _, e := range m.session.AchievementBoard() {
		line := fmt.Sprintf("%s %s: %s", e.Icon, e.Name, e.Description)
		if e.Unlocked {
			content.WriteString(successStyle.Render(line))
		} else {
			content.WriteString(promptStyle.Render(line))
		}
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Press any key to close"))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showAchievements {
		return m.renderAchievements()
	}

	sceneWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - sceneWidth - 6

	var bar []string
	for _, t := range m.active {
		bar = append(bar, toastStyle.Render(t.text))
	}

	scenePanel := scenePanelStyle.Width(sceneWidth).Height(m.height - 1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.sceneViewport.View(),
			separatorStyle.Render(strings.Repeat("─", max(sceneWidth-4, 1))),
			strings.Join(bar, " "),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 1).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, scenePanel, metaPanel)
}
