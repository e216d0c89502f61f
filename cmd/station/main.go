package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NanayasWorkshop/MakerManager/cmd/station/internal/view"
	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	activityStore "github.com/NanayasWorkshop/MakerManager/internal/activity/store"
	"github.com/NanayasWorkshop/MakerManager/internal/config"
	"github.com/NanayasWorkshop/MakerManager/internal/database"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/idgen"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	jobStore "github.com/NanayasWorkshop/MakerManager/internal/job/store"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	ledgerStore "github.com/NanayasWorkshop/MakerManager/internal/ledger/store"
	"github.com/NanayasWorkshop/MakerManager/internal/logger"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	machineStore "github.com/NanayasWorkshop/MakerManager/internal/machine/store"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
	scanStore "github.com/NanayasWorkshop/MakerManager/internal/scan/store"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
	sessionStore "github.com/NanayasWorkshop/MakerManager/internal/session/store"
	"github.com/NanayasWorkshop/MakerManager/internal/timetrack"
	timeStore "github.com/NanayasWorkshop/MakerManager/internal/timetrack/store"
)

type View int

const (
	ViewMenu View = iota
	ViewScan
	ViewSession
	ViewHistory
)

type model struct {
	user identity.User

	scanService    *scan.Service
	sessionService *session.Service
	ledgerService  *ledger.Service
	machineService *machine.Service
	timeService    *timetrack.Service

	currentView View

	scanView    view.ScanModel
	sessionView view.SessionModel
	historyView view.HistoryModel
}

func initialModel(cfg *config.Config) model {
	if cfg.Station.Username == "" {
		slog.Error("STATION_USER is required")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	u := identity.User{Username: cfg.Station.Username, FullName: cfg.Station.FullName}

	ids := idgen.New(db)
	jobSvc := job.NewService(jobStore.New(db), ids)
	activitySvc := activity.NewService(activityStore.New(db))
	timeSvc := timetrack.NewService(timeStore.New(db))
	sessionSvc := session.NewService(sessionStore.New(db), jobSvc, timeSvc, activitySvc)
	ledgerSvc := ledger.NewService(ledgerStore.New(db), ids, nil)
	machineSvc := machine.NewService(machineStore.New(db), ids, nil)
	scanSvc := scan.NewService(scanStore.New(db), nil)

	return model{
		user:           u,
		scanService:    scanSvc,
		sessionService: sessionSvc,
		ledgerService:  ledgerSvc,
		machineService: machineSvc,
		timeService:    timeSvc,
		currentView:    ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewScan
				m.scanView = view.NewScanModel(m.user, m.scanService, m.sessionService, m.ledgerService, m.machineService)

				return m, m.scanView.Init()
			case "2":
				m.currentView = ViewSession
				m.sessionView = view.NewSessionModel(m.user, m.sessionService, m.timeService)

				return m, m.sessionView.Init()
			case "3":
				m.currentView = ViewHistory
				m.historyView = view.NewHistoryModel(m.user, m.scanService)

				return m, m.historyView.Init()
			}
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewScan:
		var newModel tea.Model
		newModel, cmd = m.scanView.Update(msg)
		m.scanView = newModel.(view.ScanModel)
	case ViewSession:
		var newModel tea.Model
		newModel, cmd = m.sessionView.Update(msg)
		m.sessionView = newModel.(view.SessionModel)
	case ViewHistory:
		var newModel tea.Model
		newModel, cmd = m.historyView.Update(msg)
		m.historyView = newModel.(view.HistoryModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("MakerManager Station (%s)\n\n", m.user.DisplayName()) +
				"1. Scan\n" +
				"2. My Session\n" +
				"3. Scan History\n\n" +
				"q. Quit",
		)
	case ViewScan:
		return m.scanView.View()
	case ViewSession:
		return m.sessionView.View()
	case ViewHistory:
		return m.historyView.View()
	}

	return "Unknown View"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile("station.log", "station")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	slog.SetDefault(logger.NewTo(logFile, cfg.App.Env))

	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run station", "error", err)
		os.Exit(1)
	}
}
