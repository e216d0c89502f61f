package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

const (
	stationSetupMinutes     = 15
	stationEstimatedMinutes = 60
	stationCleanupMinutes   = 10
)

type scanState int

const (
	scanStateInput scanState = iota
	scanStateManual
	scanStateAction
	scanStateBusy
)

// scanInput holds huh form bindings. It lives on the heap so the bindings
// survive the model being copied between updates.
type scanInput struct {
	entityType string
	entityID   string
	remember   bool

	action   string
	quantity string
	notes    string
	confirm  bool
}

type ScanModel struct {
	user     identity.User
	scan     *scan.Service
	sessions *session.Service
	ledger   *ledger.Service
	machines *machine.Service

	state  scanState
	code   textinput.Model
	form   *huh.Form
	input  *scanInput
	match  *scan.Match
	status string
	err    error
}

func NewScanModel(
	u identity.User,
	scanSvc *scan.Service,
	sessions *session.Service,
	ledgerSvc *ledger.Service,
	machines *machine.Service,
) ScanModel {
	ti := textinput.New()
	ti.Placeholder = "Scan a QR code or type an id"
	ti.Width = 50
	ti.Focus()

	return ScanModel{
		user:     u,
		scan:     scanSvc,
		sessions: sessions,
		ledger:   ledgerSvc,
		machines: machines,
		code:     ti,
		input:    &scanInput{},
	}
}

func (m ScanModel) Title() string { return "Scan" }

func (m ScanModel) ShortHelp() string {
	switch m.state {
	case scanStateManual, scanStateAction:
		return "Esc: cancel"
	case scanStateBusy:
		return "Working..."
	}

	return "Enter: resolve | Esc: back"
}

func (m ScanModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resolvedMsg:
		return m.onResolved(msg)
	case actionDoneMsg:
		m.state = scanStateInput
		m.form = nil
		m.match = nil
		m.err = msg.err
		m.status = msg.summary
		m.code.SetValue("")
		m.code.Focus()

		return m, nil
	}

	switch m.state {
	case scanStateInput:
		return m.updateInput(msg)
	case scanStateManual:
		return m.updateForm(msg, ScanModel.manualDone)
	case scanStateAction:
		return m.updateForm(msg, ScanModel.actionDone)
	}

	return m, nil
}

func (m ScanModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyEnter:
			code := strings.TrimSpace(m.code.Value())
			if code == "" {
				return m, nil
			}

			m.state = scanStateBusy
			m.status = ""
			m.err = nil

			return m, m.resolveCmd(code)
		}
	}

	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)

	return m, cmd
}

func (m ScanModel) updateForm(msg tea.Msg, done func(ScanModel) (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = scanStateInput
		m.form = nil
		m.match = nil
		m.status = "Cancelled"
		m.code.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return done(m)
}

func (m ScanModel) onResolved(msg resolvedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, scan.ErrUnresolved) {
		*m.input = scanInput{entityType: string(scan.TypeMaterial)}
		m.form = m.buildManualForm()
		m.state = scanStateManual
		m.status = fmt.Sprintf("%q was not recognized. Enter it manually.", m.code.Value())

		return m, m.form.Init()
	}

	if msg.err != nil {
		m.state = scanStateInput
		m.err = msg.err

		return m, nil
	}

	m.match = msg.match
	*m.input = scanInput{}
	m.form = m.buildActionForm(msg.match)
	m.state = scanStateAction
	m.status = ""

	return m, m.form.Init()
}

func (m ScanModel) manualDone() (tea.Model, tea.Cmd) {
	m.state = scanStateBusy

	t := scan.Type(m.input.entityType)
	code := m.code.Value()
	id := m.input.entityID
	remember := m.input.remember

	return m, func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			match *scan.Match
			err   error
		)
		if remember {
			match, err = m.scan.Learn(ctx, m.user, code, t, id)
		} else {
			match, err = m.scan.ResolveAs(ctx, m.user, t, id)
		}

		return resolvedMsg{match: match, err: unresolvedAgain(err)}
	}
}

// unresolvedAgain keeps a failed manual entry from reopening the manual form.
func unresolvedAgain(err error) error {
	if errors.Is(err, scan.ErrUnresolved) {
		return fmt.Errorf("nothing found: %s", strings.TrimPrefix(err.Error(), scan.ErrUnresolved.Error()+": "))
	}

	return err
}

func (m ScanModel) actionDone() (tea.Model, tea.Cmd) {
	m.state = scanStateBusy
	match := m.match
	in := *m.input

	return m, func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		summary, err := m.perform(ctx, match, in)

		return actionDoneMsg{summary: summary, err: err}
	}
}

func (m ScanModel) buildManualForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What is it?").
				Options(
					huh.NewOption("Material", string(scan.TypeMaterial)),
					huh.NewOption("Machine", string(scan.TypeMachine)),
					huh.NewOption("Job", string(scan.TypeJob)),
				).
				Value(&m.input.entityType),
			huh.NewInput().
				Title("ID").
				Placeholder("M-RAW-00001").
				Value(&m.input.entityID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("id cannot be empty")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Remember this code?").
				Value(&m.input.remember),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ScanModel) buildActionForm(match *scan.Match) *huh.Form {
	switch match.Type {
	case scan.TypeMaterial:
		m.input.action = "withdraw"

		return huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(match.ID + " " + match.Name).
					Options(
						huh.NewOption("Withdraw", "withdraw"),
						huh.NewOption("Return", "return"),
					).
					Value(&m.input.action),
				huh.NewInput().
					Title("Quantity").
					Value(&m.input.quantity).
					Validate(func(s string) error {
						d, err := decimal.NewFromString(strings.TrimSpace(s))
						if err != nil || !d.IsPositive() {
							return errors.New("enter a positive number")
						}
						return nil
					}),
				huh.NewInput().
					Title("Notes").
					Value(&m.input.notes),
			),
		).WithWidth(50).WithShowHelp(false)

	case scan.TypeMachine:
		m.input.action = "start"

		return huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(match.ID + " " + match.Name).
					Options(
						huh.NewOption("Start usage", "start"),
						huh.NewOption("Stop usage", "stop"),
					).
					Value(&m.input.action),
				huh.NewInput().
					Title("Notes").
					Value(&m.input.notes),
			),
		).WithWidth(50).WithShowHelp(false)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Make %s (%s) your active job?", match.ID, match.Name)).
				Value(&m.input.confirm),
		),
	).WithWidth(50).WithShowHelp(false)
}

type resolvedMsg struct {
	match *scan.Match
	err   error
}

type actionDoneMsg struct {
	summary string
	err     error
}

func (m ScanModel) resolveCmd(code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		match, err := m.scan.Resolve(ctx, m.user, code)

		return resolvedMsg{match: match, err: err}
	}
}

func (m ScanModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Scan") + "\n\n")

	switch m.state {
	case scanStateManual, scanStateAction:
		if m.status != "" {
			b.WriteString(m.status + "\n\n")
		}
		b.WriteString(m.form.View())
	case scanStateBusy:
		b.WriteString("Working...")
	default:
		b.WriteString(m.code.View() + "\n\n")

		if m.err != nil {
			b.WriteString(errStyle.Render("Error: "+m.err.Error()) + "\n")
		} else if m.status != "" {
			b.WriteString(okStyle.Render(m.status) + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render(m.ShortHelp()))

	return frameStyle.Render(b.String())
}
