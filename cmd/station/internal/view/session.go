package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
	"github.com/NanayasWorkshop/MakerManager/internal/timetrack"
)

type SessionModel struct {
	user     identity.User
	sessions *session.Service
	tracker  *timetrack.Service

	sess    *session.Session
	entry   *timetrack.Entry
	spinner spinner.Model
	loading bool
	status  string
	err     error
}

func NewSessionModel(u identity.User, sessions *session.Service, tracker *timetrack.Service) SessionModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return SessionModel{
		user:     u,
		sessions: sessions,
		tracker:  tracker,
		spinner:  s,
		loading:  true,
	}
}

func (m SessionModel) Title() string { return "My Session" }

func (m SessionModel) ShortHelp() string {
	return "t: start/stop time | c: clear active job | r: refresh | Esc: back"
}

func (m SessionModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.sess = msg.sess
			m.entry = msg.entry
		}
		if msg.status != "" {
			m.status = msg.status
		}

		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			m.status = ""
			return m, tea.Batch(m.spinner.Tick, m.loadCmd())
		case "t":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.toggleTimeCmd())
		case "c":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.clearCmd())
		}
	}

	return m, nil
}

func (m SessionModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Session of "+m.user.DisplayName()) + "\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Loading...")
		return frameStyle.Render(b.String())
	}

	if m.err != nil {
		b.WriteString(errStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	if m.sess != nil {
		fmt.Fprintf(&b, "Active job:   %s\n", m.jobLine())

		if m.sess.ActiveSince != nil {
			fmt.Fprintf(&b, "Active since: %s\n", m.sess.ActiveSince.Local().Format("2006-01-02 15:04"))
		}

		if m.sess.PersonalJob != nil {
			fmt.Fprintf(&b, "Personal job: %s\n", m.sess.PersonalJob.JobID)
		}
	}

	b.WriteString("\n")

	if m.entry != nil {
		fmt.Fprintf(&b, "Tracking time on %s for %s\n", m.entry.JobReference, FormatDuration(m.entry.Duration(time.Now())))
	} else {
		b.WriteString("Not tracking time\n")
	}

	if m.status != "" {
		b.WriteString("\n" + okStyle.Render(m.status) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(m.ShortHelp()))

	return frameStyle.Render(b.String())
}

func (m SessionModel) jobLine() string {
	j := m.sess.ActiveJob
	if j == nil {
		return "none"
	}

	return fmt.Sprintf("%s %s", j.JobID, j.ProjectName)
}

type sessionLoadedMsg struct {
	sess   *session.Session
	entry  *timetrack.Entry
	status string
	err    error
}

func (m SessionModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sess, err := m.sessions.Bootstrap(ctx, m.user)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}

		entry, err := m.tracker.Active(ctx, m.user.Username)

		return sessionLoadedMsg{sess: sess, entry: entry, err: err}
	}
}

func (m SessionModel) toggleTimeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var status string

		running, err := m.tracker.Active(ctx, m.user.Username)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}

		if running != nil {
			stopped, err := m.tracker.Stop(ctx, m.user, nil)
			if err != nil {
				return sessionLoadedMsg{err: err}
			}

			status = "Time tracking stopped"
			if stopped != nil {
				status = fmt.Sprintf("Stopped after %s", FormatDuration(stopped.Duration(time.Now())))
			}
		} else {
			sess, err := m.sessions.Load(ctx, m.user)
			if err != nil {
				return sessionLoadedMsg{err: err}
			}

			j, err := sess.RequireActiveJob()
			if err != nil {
				return sessionLoadedMsg{err: err}
			}

			if _, err := m.tracker.Start(ctx, m.user, j, ""); err != nil {
				return sessionLoadedMsg{err: err}
			}

			status = "Started tracking " + j.JobID
		}

		loaded := m.loadCmd()().(sessionLoadedMsg)
		loaded.status = status

		return loaded
	}
}

func (m SessionModel) clearCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sess, err := m.sessions.ClearActiveJob(ctx, m.user)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}

		entry, err := m.tracker.Active(ctx, m.user.Username)

		return sessionLoadedMsg{sess: sess, entry: entry, status: "Active job cleared", err: err}
	}
}
