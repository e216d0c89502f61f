package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
)

const historyLimit = 50

type HistoryModel struct {
	user identity.User
	scan *scan.Service

	table   table.Model
	entries []*scan.HistoryEntry
	loading bool
	err     error
}

func NewHistoryModel(u identity.User, scanSvc *scan.Service) HistoryModel {
	columns := []table.Column{
		{Title: "When", Width: 17},
		{Title: "Type", Width: 9},
		{Title: "Scanned", Width: 28},
		{Title: "Resolved", Width: 18},
		{Title: "Name", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return HistoryModel{
		user:    u,
		scan:    scanSvc,
		table:   t,
		loading: true,
	}
}

func (m HistoryModel) Title() string { return "Scan History" }

func (m HistoryModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m HistoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.entries = msg.entries
			m.refreshTable()
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 8)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *HistoryModel) refreshTable() {
	rows := make([]table.Row, len(m.entries))
	for i, e := range m.entries {
		rows[i] = table.Row{
			e.ScannedAt.Local().Format("2006-01-02 15:04"),
			string(e.Type),
			e.ScannedCode,
			e.ResolvedID,
			e.ResolvedName,
		}
	}

	m.table.SetRows(rows)
}

func (m HistoryModel) View() string {
	if m.loading {
		return frameStyle.Render("Loading scan history...")
	}

	if m.err != nil {
		return frameStyle.Render(errStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + helpStyle.Render(m.ShortHelp()))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.Title()),
		tableView,
		helpStyle.Render(m.ShortHelp()),
	))
}

type historyLoadedMsg struct {
	entries []*scan.HistoryEntry
	err     error
}

func (m HistoryModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := m.scan.History(ctx, m.user.Username, historyLimit)

		return historyLoadedMsg{entries: entries, err: err}
	}
}
