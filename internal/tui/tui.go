// Package tui provides the Bubble Tea admin console for the catalog.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"onlyhate/internal/admin"
	"onlyhate/internal/auth"
	"onlyhate/internal/catalog"
)

// Session is the sign-in state the console is gated on. *auth.Gate satisfies it.
type Session interface {
	Login(ctx context.Context, identifier, secret string) error
	Logout(ctx context.Context) error
	IsAuthenticated() bool
	User() (auth.User, bool)
}

// Screen is the view currently shown.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenList
	ScreenForm
	ScreenConfirm
)

var tabs = []catalog.Kind{catalog.KindBands, catalog.KindReleases, catalog.KindProducts}

// Message types
type (
	loginDoneMsg   struct{ err error }
	loggedOutMsg   struct{ err error }
	expiredMsg     struct{ err error }
	refreshDoneMsg struct{ err error }
	savedMsg       struct{ err error }
	deletedMsg     struct {
		removed bool
		err     error
	}
)

// Model is the Bubble Tea model for the admin console.
type Model struct {
	ctx     context.Context
	console *admin.Console
	session Session

	screen  Screen
	busy    bool
	status  string
	failed  bool
	spinner spinner.Model

	email      textinput.Model
	password   textinput.Model
	loginFocus int

	tab    int
	cursor []int

	form    admin.Form
	field   int
	editing bool
	input   textinput.Model
	area    textarea.Model

	width  int
	height int
}

// NewModel builds the console. A session that is already authenticated skips
// the login screen.
func NewModel(ctx context.Context, console *admin.Console, session Session) Model {
	email := textinput.New()
	email.Placeholder = "admin@onlyhate.com"
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#B3001B"))

	input := textinput.New()
	input.Width = 60
	area := textarea.New()
	area.SetWidth(60)
	area.SetHeight(8)

	m := Model{
		ctx:      ctx,
		console:  console,
		session:  session,
		screen:   ScreenLogin,
		spinner:  sp,
		email:    email,
		password: password,
		cursor:   make([]int, len(tabs)),
		input:    input,
		area:     area,
	}
	if session.IsAuthenticated() {
		m.screen = ScreenList
		m.busy = true
	}
	return m
}

// Screen reports the view currently shown.
func (m Model) Screen() Screen { return m.screen }

// Init loads the catalog when already signed in.
func (m Model) Init() tea.Cmd {
	if m.screen == ScreenList {
		return tea.Batch(m.refresh(), m.spinner.Tick)
	}
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(loginMessage(msg.err))
			m.password.SetValue("")
			return m, nil
		}
		m.password.SetValue("")
		m.screen = ScreenList
		m.busy = true
		m.setStatus("signed in")
		return m, tea.Batch(m.refresh(), m.spinner.Tick)

	case loggedOutMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.toLogin("signed out")
		return m, nil

	case expiredMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
		}
		return m, nil

	case refreshDoneMsg:
		m.busy = false
		if msg.err != nil {
			return m.handleErr(msg.err)
		}
		m.clampCursors()
		return m, nil

	case savedMsg:
		m.busy = false
		if msg.err != nil {
			return m.handleErr(msg.err)
		}
		m.setStatus(fmt.Sprintf("%s saved", m.form.Kind().Singular()))
		m.form = nil
		m.screen = ScreenList
		m.clampCursors()
		return m, nil

	case deletedMsg:
		m.busy = false
		m.screen = ScreenList
		if msg.err != nil {
			return m.handleErr(msg.err)
		}
		if msg.removed {
			m.setStatus(fmt.Sprintf("%s deleted", tabs[m.tab].Singular()))
		} else {
			m.setStatus("nothing to delete")
		}
		m.clampCursors()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.screen {
		case ScreenLogin:
			return m.updateLogin(msg)
		case ScreenList:
			return m.updateList(msg)
		case ScreenForm:
			return m.updateForm(msg)
		case ScreenConfirm:
			return m.updateConfirm(msg)
		}
	}

	return m.updateInputs(msg)
}

// updateInputs forwards non-key messages such as cursor blinks to the focused input.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.screen == ScreenLogin && m.loginFocus == 0:
		m.email, cmd = m.email.Update(msg)
	case m.screen == ScreenLogin:
		m.password, cmd = m.password.Update(msg)
	case m.editing && m.usesArea():
		m.area, cmd = m.area.Update(msg)
	case m.editing:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.focusLogin(1 - m.loginFocus)
		return m, nil
	case "enter":
		if m.loginFocus == 0 {
			m.focusLogin(1)
			return m, nil
		}
		email, password := strings.TrimSpace(m.email.Value()), m.password.Value()
		if email == "" || password == "" {
			m.setError("email and password are required")
			return m, nil
		}
		m.busy = true
		return m, tea.Batch(m.login(email, password), m.spinner.Tick)
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusLogin(i int) {
	m.loginFocus = i
	if i == 0 {
		m.email.Focus()
		m.password.Blur()
		return
	}
	m.password.Focus()
	m.email.Blur()
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		m.tab = (m.tab + 1) % len(tabs)
	case "shift+tab", "left", "h":
		m.tab = (m.tab + len(tabs) - 1) % len(tabs)
	case "1", "2", "3":
		m.tab = int(msg.String()[0] - '1')
	case "up", "k":
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab]--
		}
	case "down", "j":
		if m.cursor[m.tab] < len(rows)-1 {
			m.cursor[m.tab]++
		}
	case "r":
		m.busy = true
		return m, tea.Batch(m.refresh(), m.spinner.Tick)
	case "a":
		m.openForm(m.addForm())
	case "e", "enter":
		if len(rows) == 0 {
			return m, nil
		}
		form, err := m.editForm(rows[m.cursor[m.tab]].id)
		if err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.openForm(form)
	case "d", "x":
		if len(rows) == 0 {
			return m, nil
		}
		if err := m.view().RequestDelete(rows[m.cursor[m.tab]].id); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.screen = ScreenConfirm
	case "L":
		m.busy = true
		return m, tea.Batch(m.logout(), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.busy = true
		return m, tea.Batch(m.confirmDelete(), m.spinner.Tick)
	case "n", "N", "esc", "q":
		m.view().CancelDelete()
		m.screen = ScreenList
		m.setStatus("delete cancelled")
	}
	return m, nil
}

func (m *Model) openForm(form admin.Form) {
	m.form = form
	m.field = 0
	m.editing = false
	m.screen = ScreenForm
	m.status = ""
	m.failed = false
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.updateFieldEdit(msg)
	}

	fields := m.form.Fields()
	if m.field >= len(fields) {
		m.field = len(fields) - 1
	}
	current := fields[m.field]

	switch msg.String() {
	case "esc":
		m.form.Cancel()
		m.form = nil
		m.screen = ScreenList
		m.setStatus("changes discarded")
	case "ctrl+s":
		m.busy = true
		return m, tea.Batch(m.submit(), m.spinner.Tick)
	case "up", "k", "shift+tab":
		if m.field > 0 {
			m.field--
		}
	case "down", "j", "tab":
		if m.field < len(fields)-1 {
			m.field++
		}
	case "left", "h":
		m.cycle(current, -1)
	case "right", "l":
		m.cycle(current, 1)
	case " ":
		if current.Input == admin.InputToggle {
			m.apply(current.Name, toggled(current.Value))
		} else {
			m.cycle(current, 1)
		}
	case "enter":
		switch current.Input {
		case admin.InputToggle:
			m.apply(current.Name, toggled(current.Value))
		case admin.InputChoice, admin.InputReference:
			m.cycle(current, 1)
		case admin.InputLongText, admin.InputLines:
			m.editing = true
			m.area.SetValue(current.Value)
			m.area.Focus()
			return m, textarea.Blink
		default:
			m.editing = true
			m.input.SetValue(current.Value)
			m.input.CursorEnd()
			m.input.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m Model) updateFieldEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := m.form.Fields()[m.field].Name

	if m.usesArea() {
		if msg.String() == "esc" {
			m.editing = false
			m.area.Blur()
			m.apply(name, m.area.Value())
			return m, nil
		}
		var cmd tea.Cmd
		m.area, cmd = m.area.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		m.apply(name, m.input.Value())
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) usesArea() bool {
	if m.form == nil {
		return false
	}
	fields := m.form.Fields()
	if m.field >= len(fields) {
		return false
	}
	in := fields[m.field].Input
	return in == admin.InputLongText || in == admin.InputLines
}

// apply hands raw input to the form; rejected input shows up as a field error.
func (m *Model) apply(name, raw string) {
	if err := m.form.Set(name, raw); err != nil {
		m.setError(err.Error())
		return
	}
	m.status, m.failed = "", false
}

// cycle steps a choice or reference field through its options. Reference
// fields include an empty "none" entry.
func (m *Model) cycle(f admin.Field, step int) {
	if f.Input != admin.InputChoice && f.Input != admin.InputReference {
		return
	}
	values := make([]string, 0, len(f.Options)+1)
	if f.Input == admin.InputReference {
		values = append(values, "")
	}
	for _, o := range f.Options {
		values = append(values, o.Value)
	}
	if len(values) == 0 {
		return
	}
	i := slices.Index(values, f.Value)
	next := (i + step + len(values)) % len(values)
	if i < 0 && step < 0 {
		next = len(values) - 1
	}
	m.apply(f.Name, values[next])
}

func toggled(v string) string {
	if v == "yes" {
		return "no"
	}
	return "yes"
}

func (m *Model) clampCursors() {
	for i := range tabs {
		n := m.rowCount(i)
		if m.cursor[i] >= n {
			m.cursor[i] = max(n-1, 0)
		}
	}
}

func (m *Model) toLogin(status string) {
	m.screen = ScreenLogin
	m.form = nil
	m.editing = false
	m.password.SetValue("")
	m.focusLogin(0)
	m.setStatus(status)
}

// handleErr reports err; an expired session sends the user back to login.
func (m Model) handleErr(err error) (tea.Model, tea.Cmd) {
	var verr *catalog.ValidationError
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		m.toLogin("")
		m.setError("session expired, sign in again")
		return m, tea.Batch(textinput.Blink, m.expire())
	case errors.As(err, &verr):
		m.setError("fix the highlighted fields")
	case errors.Is(err, catalog.ErrVersionConflict):
		m.setError("changed by someone else; cancel and reopen to edit the latest version")
	default:
		m.setError(err.Error())
	}
	return m, nil
}

func (m *Model) setStatus(s string) { m.status, m.failed = s, false }
func (m *Model) setError(s string)  { m.status, m.failed = s, true }

func loginMessage(err error) string {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "Invalid email or password"
	}
	return err.Error()
}

// Commands

func (m Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.session.Login(m.ctx, email, password)}
	}
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg{err: m.session.Logout(m.ctx)}
	}
}

// expire drops the stored session so the next start asks for a login.
func (m Model) expire() tea.Cmd {
	return func() tea.Msg {
		return expiredMsg{err: m.session.Logout(m.ctx)}
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: m.console.Refresh(m.ctx)}
	}
}

func (m Model) submit() tea.Cmd {
	form := m.form
	return func() tea.Msg {
		return savedMsg{err: form.Submit(m.ctx)}
	}
}

func (m Model) confirmDelete() tea.Cmd {
	view := m.view()
	return func() tea.Msg {
		removed, err := view.ConfirmDelete(m.ctx)
		return deletedMsg{removed: removed, err: err}
	}
}

// Run starts the console on the terminal and blocks until the user quits.
func Run(ctx context.Context, console *admin.Console, session Session) error {
	p := tea.NewProgram(NewModel(ctx, console, session), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
