package tui

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// Model drives one quiz session from the keyboard using Bubble Tea.
type Model struct {
	session *app.Session
	updates <-chan domain.SessionUpdate
	state   domain.SessionState
	report  *domain.Report
	keys    keyMap
	help    help.Model
	results table.Model

	jumping  bool
	jumpBuf  string
	status   string
	noColor  bool
	quitting bool
}

// Options configures the live UI model.
type Options struct {
	NoColor bool
}

// NewModel builds a model over session. updates is normally the channel
// returned by session.Subscribe.
func NewModel(session *app.Session, updates <-chan domain.SessionUpdate, opts Options) Model {
	t := table.New(
		table.WithColumns(reportColumns(80)),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(opts.NoColor))
	m := Model{
		session: session,
		updates: updates,
		state:   session.State(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		results: t,
		noColor: opts.NoColor,
	}
	if sub, ok := session.Submission(); ok {
		m = m.withReport(sub)
	}
	return m
}

// Init waits for the first session update.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// Update consumes key presses and session updates.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = typed.Width
		m.results.SetWidth(typed.Width)
		m.results.SetColumns(reportColumns(typed.Width))
		m.results.SetHeight(max(typed.Height-8, 3))
		return m, nil
	case UpdateMsg:
		m = m.apply(typed.Update)
		return m, waitForUpdate(m.updates)
	case updatesClosedMsg:
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

// View renders the running quiz, or the report once the session has completed.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.report != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			renderReportHeader(*m.report, m.noColor),
			m.results.View(),
			m.help.ShortHelpView([]key.Binding{m.keys.Quit}),
		)
	}
	if m.state.Phase == domain.PhaseAbandoned {
		return stylize("Session abandoned.", m.noColor, colorWarn)
	}

	parts := []string{
		renderHeader(m.state, m.noColor),
		renderQuestion(m.state, m.noColor),
		renderOverview(m.state, m.noColor),
	}
	if m.jumping {
		parts = append(parts, "Jump to question: "+m.jumpBuf+"_")
	}
	if m.status != "" {
		parts = append(parts, stylize(m.status, m.noColor, colorWarn))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Report returns the scored report once the session has completed.
func (m Model) Report() (domain.Report, bool) {
	if m.report == nil {
		return domain.Report{}, false
	}
	return *m.report, true
}

// UpdateMsg wraps a session update for Bubble Tea.
type UpdateMsg struct {
	Update domain.SessionUpdate
}

type updatesClosedMsg struct{}

// waitForUpdate blocks until the session publishes an update.
func waitForUpdate(updates <-chan domain.SessionUpdate) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		update, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return UpdateMsg{Update: update}
	}
}

func (m Model) apply(update domain.SessionUpdate) Model {
	m.state = update.State
	if update.Kind == domain.UpdateCompleted && update.Submission != nil {
		m = m.withReport(*update.Submission)
	}
	return m
}

func (m Model) withReport(sub domain.Submission) Model {
	if m.report != nil {
		return m
	}
	report := app.Score(sub)
	m.report = &report
	m.jumping = false
	m.status = ""
	m.results.SetRows(reportRows(report))
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || (!m.jumping && key.Matches(msg, m.keys.Quit)) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.report != nil {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}
	if m.jumping {
		return m.handleJumpKey(msg), nil
	}

	var err error
	switch {
	case key.Matches(msg, m.keys.Select):
		n, _ := strconv.Atoi(msg.String())
		err = m.session.SelectAnswer(n - 1)
	case key.Matches(msg, m.keys.Next):
		err = m.session.Next()
	case key.Matches(msg, m.keys.Previous):
		err = m.session.Previous()
	case key.Matches(msg, m.keys.Jump):
		m.jumping = true
		m.jumpBuf = ""
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.session.Submit()
	default:
		return m, nil
	}
	m.status = statusFor(err)
	return m.refresh(), nil
}

func (m Model) handleJumpKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.jumping = false
		m.jumpBuf = ""
	case "backspace":
		if len(m.jumpBuf) > 0 {
			m.jumpBuf = m.jumpBuf[:len(m.jumpBuf)-1]
		}
	case "enter":
		m.jumping = false
		n, convErr := strconv.Atoi(m.jumpBuf)
		m.jumpBuf = ""
		if convErr != nil {
			m.status = statusFor(domain.ErrInvalidNavigation)
			return m
		}
		m.status = statusFor(m.session.JumpTo(n - 1))
		return m.refresh()
	default:
		if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' && len(m.jumpBuf) < 3 {
			m.jumpBuf += s
		}
	}
	return m
}

// refresh reads the session directly so the view does not lag behind the update stream.
func (m Model) refresh() Model {
	m.state = m.session.State()
	if sub, ok := m.session.Submission(); ok {
		m = m.withReport(sub)
	}
	return m
}

func statusFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrOptionNotFound):
		return "That option does not exist for this question."
	case errors.Is(err, domain.ErrInvalidNavigation):
		return "No such question."
	case errors.Is(err, domain.ErrSessionNotActive):
		return "The quiz is no longer active."
	default:
		return err.Error()
	}
}
