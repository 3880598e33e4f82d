package viewer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pv/foundry-portal/internal/dashboard"
	"github.com/pv/foundry-portal/internal/portal"
)

type uiMode int

const (
	modeMain uiMode = iota
	modeSearch
	modeConfirm
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	noticeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215"))

	statusStyles = map[portal.Status]lipgloss.Style{
		portal.StatusActive:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		portal.StatusIdle:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		portal.StatusOffline: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// RefreshTickMsg requests a poll cycle. The dashboard scheduler sends it
// from outside the program loop.
type RefreshTickMsg struct{}

type refreshDoneMsg struct{}

type deleteDoneMsg struct{}

// Model is the terminal dashboard. All portal traffic happens inside tea.Cmd
// closures; Update and View only touch the surface snapshot.
type Model struct {
	engine  *dashboard.Engine
	surface *Surface

	search        textinput.Model
	mode          uiMode
	cursor        int
	pendingDelete *dashboard.WorldCard

	width    int
	height   int
	quitting bool
}

func NewModel(engine *dashboard.Engine, surface *Surface) Model {
	search := textinput.New()
	search.Placeholder = "world name"
	search.Prompt = "search: "
	search.CharLimit = 64

	return Model{
		engine:  engine,
		surface: surface,
		search:  search,
	}
}

func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case RefreshTickMsg:
		return m, m.refreshCmd()
	case refreshDoneMsg, deleteDoneMsg:
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearchMode(msg)
		case modeConfirm:
			return m.updateConfirmMode(msg)
		default:
			return m.updateMainMode(msg)
		}
	}
	return m, nil
}

func (m Model) updateMainMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink
	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case "r":
		return m, m.refreshCmd()
	case "d":
		card, ok := m.selectedWorld()
		if !ok {
			return m, nil
		}
		if !card.CanDelete {
			m.surface.Notify("Admin login required")
			return m, nil
		}
		m.pendingDelete = &card
		m.mode = modeConfirm
		return m, nil
	case "esc":
		m.surface.ClearNotice()
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMain
		m.search.Blur()
		m.search.SetValue("")
		m.engine.ApplyFilter("")
		m.clampCursor()
		return m, nil
	case "enter":
		m.mode = modeMain
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.engine.ApplyFilter(m.search.Value())
	m.clampCursor()
	return m, cmd
}

func (m Model) updateConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		card := m.pendingDelete
		m.pendingDelete = nil
		m.mode = modeMain
		if card == nil {
			return m, nil
		}
		return m, m.deleteCmd(*card)
	case "n", "N", "esc", "q":
		m.pendingDelete = nil
		m.mode = modeMain
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.surface.Snapshot()
	session := m.engine.Session()

	var b strings.Builder
	b.WriteString(m.renderHeader(session, snap))
	b.WriteString("\n\n")

	switch {
	case !session.Configured:
		b.WriteString(dimStyle.Render("Portal is not configured yet. Run initial setup on the server."))
		b.WriteString("\n")
	case session.ViewerLocked:
		b.WriteString(dimStyle.Render("Viewer access is locked. Restart with -password to log in."))
		b.WriteString("\n")
	default:
		b.WriteString(renderInstances(snap))
		b.WriteString("\n")
		b.WriteString(m.renderWorlds(snap))
	}

	if m.mode == modeSearch {
		b.WriteString("\n")
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	if m.mode == modeConfirm && m.pendingDelete != nil {
		b.WriteString("\n")
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Remove %q from world history? [y/N]", m.pendingDelete.Name)))
		b.WriteString("\n")
	}
	if snap.Notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(snap.Notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("j/k move  / search  d delete  r refresh  q quit"))
	return b.String()
}

func (m Model) renderHeader(session dashboard.SessionState, snap Snapshot) string {
	role := "viewer"
	if session.Admin {
		role = "admin"
	}

	active := 0
	for _, inst := range snap.Instances {
		if inst.Status == portal.StatusActive {
			active++
		}
	}
	return headerStyle.Render(fmt.Sprintf(
		"Foundry portal  instances:%d active:%d worlds:%d  role:%s",
		len(snap.Instances), active, len(snap.Worlds), role,
	))
}

func renderInstances(snap Snapshot) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Instances"))
	b.WriteString("\n")

	if len(snap.Instances) == 0 {
		b.WriteString(dimStyle.Render("  No instances configured."))
		b.WriteString("\n")
		return b.String()
	}

	for i, inst := range snap.Instances {
		b.WriteString("  ")
		b.WriteString(statusDot(inst.Status))
		b.WriteString(" ")
		b.WriteString(inst.Name)
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(inst.StatusTip))
		if bg, ok := snap.InstanceBackgrounds[i]; ok {
			b.WriteString("  ")
			b.WriteString(dimStyle.Render(bg))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderWorlds(snap Snapshot) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Worlds"))
	b.WriteString("\n")

	visible := visibleIndices(snap)
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("  " + dashboard.NoWorldsPlaceholder))
		b.WriteString("\n")
		return b.String()
	}

	for row, idx := range visible {
		card := snap.Worlds[idx]

		marker := "  "
		nameStyle := lipgloss.NewStyle()
		if row == m.cursor {
			marker = "> "
			nameStyle = selectedStyle
		}

		b.WriteString(marker)
		b.WriteString(statusDot(card.Status))
		b.WriteString(" ")
		b.WriteString(nameStyle.Render(card.Name))
		b.WriteString(dimStyle.Render("  (" + card.InstanceName + ", " + card.TimeLabel + ")"))
		b.WriteString("\n")

		detail := []string{card.StatusTip}
		if card.Players != "" {
			detail = append(detail, "Players: "+card.Players)
		}
		if card.JoinURL != "" {
			detail = append(detail, "Join: "+card.JoinURL)
		}
		if bg, ok := snap.WorldBackgrounds[idx]; ok {
			detail = append(detail, bg)
		}
		b.WriteString(dimStyle.Render("    " + strings.Join(detail, "  ")))
		b.WriteString("\n")
	}
	return b.String()
}

func statusDot(status portal.Status) string {
	style, ok := statusStyles[status]
	if !ok {
		return dimStyle.Render("●")
	}
	return style.Render("●")
}

func visibleIndices(snap Snapshot) []int {
	indices := make([]int, 0, len(snap.Worlds))
	for i := range snap.Worlds {
		if snap.Visible[i] {
			indices = append(indices, i)
		}
	}
	return indices
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	count := len(visibleIndices(m.surface.Snapshot()))
	if count == 0 {
		m.cursor = 0
		return
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= count {
		m.cursor = count - 1
	}
}

func (m Model) selectedWorld() (dashboard.WorldCard, bool) {
	snap := m.surface.Snapshot()
	visible := visibleIndices(snap)
	if len(visible) == 0 || m.cursor < 0 || m.cursor >= len(visible) {
		return dashboard.WorldCard{}, false
	}
	return snap.Worlds[visible[m.cursor]], true
}

func (m Model) refreshCmd() tea.Cmd {
	engine := m.engine
	query := m.search.Value()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		engine.RefreshSession(ctx)
		engine.RefreshInstances(ctx)
		engine.RefreshWorlds(ctx)
		engine.ApplyFilter(query)
		return refreshDoneMsg{}
	}
}

// deleteCmd runs the deletion with an always-true confirmer: the interactive
// prompt already happened in confirm mode.
func (m Model) deleteCmd(card dashboard.WorldCard) tea.Cmd {
	engine := m.engine
	surface := m.surface

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		engine.DeleteWorld(ctx, card,
			dashboard.ConfirmFunc(func(string) bool { return true }),
			surface)
		return deleteDoneMsg{}
	}
}
