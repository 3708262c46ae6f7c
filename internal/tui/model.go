package tui

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/casadocigano/fidelidade/internal/app"
	"github.com/casadocigano/fidelidade/internal/authz"
	"github.com/casadocigano/fidelidade/internal/log"
	"github.com/casadocigano/fidelidade/internal/router"
)

// DefaultLoginEmail pre-fills the login form.
const DefaultLoginEmail = "admin@cdc.com"

const (
	noticeSessionEnded = "Sessão encerrada. Entre novamente."
	noticeAdminOnly    = "Acesso restrito a administradores."
)

// Options carries per-session defaults into the screens.
type Options struct {
	PerPage    int
	GiftName   string
	ExportDir  string
	LoginEmail string
}

func (o Options) withDefaults() Options {
	if o.PerPage <= 0 {
		o.PerPage = app.DefaultPerPage
	}
	if o.GiftName == "" {
		o.GiftName = "Brinde"
	}
	if o.ExportDir == "" {
		o.ExportDir = "."
	}
	if o.LoginEmail == "" {
		o.LoginEmail = DefaultLoginEmail
	}
	return o
}

// page is one screen. Pages are pointers so huh forms can bind to their fields.
type page interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	// Busy reports an in-flight request; the shell shows a spinner.
	Busy() bool
	// Capturing is true while a form or input owns the keyboard.
	Capturing() bool
	Close()
}

// env is what every page needs from the shell.
type env struct {
	ctx    context.Context
	shell  *app.Shell
	opts   Options
	styles Styles
}

// Model is the root Bubble Tea model. It follows the router: whenever the
// current route differs from the page on screen, the page is replaced.
type Model struct {
	env     *env
	keys    keyMap
	spinner spinner.Model

	route   string
	page    page
	pending string
	notice  string
	// signedOut marks a logout asked for by the user, which needs no notice.
	signedOut bool

	width    int
	height   int
	quitting bool
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style
	Border    lipgloss.Style
	NavActive lipgloss.Style
	NavItem   lipgloss.Style
	Pill      lipgloss.Style
	Help      lipgloss.Style
	Key       lipgloss.Style
	KeyDesc   lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2),
		NavActive: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		NavItem: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		Pill: lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

type keyMap struct {
	Quit   key.Binding
	Logout key.Binding
	Back   key.Binding
	Nav    []key.Binding
}

func defaultKeys() keyMap {
	km := keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "sair"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "logout"),
		),
		Back: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "voltar"),
		),
	}
	for i := 1; i <= 6; i++ {
		n := strconv.Itoa(i)
		km.Nav = append(km.Nav, key.NewBinding(
			key.WithKeys("alt+"+n, "f"+n),
			key.WithHelp("F"+n, "menu"),
		))
	}
	return km
}

// navigatedMsg reports the guard decision for a navigation started by the shell.
type navigatedMsg struct {
	path     string
	decision authz.Decision
}

// loggedOutMsg is returned once the local session has been cleared.
type loggedOutMsg struct {
	err error
}

// New builds the root model on the shell's current route.
func New(ctx context.Context, shell *app.Shell, opts Options) *Model {
	m := &Model{
		env: &env{
			ctx:    ctx,
			shell:  shell,
			opts:   opts.withDefaults(),
			styles: DefaultStyles(),
		},
		keys:    defaultKeys(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.route = shell.Router.Current()
	m.page = m.newPage(m.route)
	return m
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, shell *app.Shell, opts Options) error {
	p := tea.NewProgram(New(ctx, shell, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init initializes the TUI model (required by Bubble Tea)
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.page.Init(), m.spinner.Tick)
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.handleKeyPress(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case navigatedMsg:
		m.pending = ""
		if msg.decision.Denied() && msg.decision.Redirect == authz.LandingRoute {
			m.notice = noticeAdminOnly
		}

	case loggedOutMsg:
		if msg.err != nil {
			log.DefaultLogger().WithError(msg.err).Warn("logout could not clear the stored session")
		}
	}

	// Route changes happen inside commands (login, logout, a 401 anywhere).
	// Catching up before delivering msg means a response from the page that
	// caused the change reaches a new page and is dropped there.
	if cmd := m.syncRoute(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := m.page.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) syncRoute() tea.Cmd {
	current := m.env.shell.Router.Current()
	if m.page != nil && current == m.route {
		return nil
	}

	if m.page != nil {
		m.page.Close()
		switch {
		case current == router.RouteLogin && m.signedOut:
			m.signedOut = false
		case current == router.RouteLogin && m.route != router.RouteLogin:
			m.notice = noticeSessionEnded
		case m.route == router.RouteLogin:
			m.notice = ""
		}
	}
	m.route = current
	m.page = m.newPage(current)
	return m.page.Init()
}

func (m *Model) newPage(route string) page {
	seq := newRequestSeq(m.env.ctx)
	switch route {
	case router.RouteLogin:
		return newLoginPage(m.env, seq)
	case router.RouteClientes:
		return newClientesPage(m.env, seq)
	case router.RouteVisitas:
		return newVisitasPage(m.env, seq)
	case router.RouteResgates:
		return newResgatesPage(m.env, seq)
	case router.RouteAdmin:
		return newAdminPage(m.env, seq)
	default:
		return newDashboardPage(m.env, seq)
	}
}

// handleKeyPress handles the shell's global keys. It reports false when the
// key belongs to the page.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (bool, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		m.page.Close()
		return true, tea.Quit
	}

	// Nothing reacts while a guard is deciding.
	if m.pending != "" {
		return true, nil
	}

	loggedIn := m.env.shell.LoggedIn()

	switch {
	case key.Matches(msg, m.keys.Logout) && loggedIn:
		m.notice = ""
		m.signedOut = true
		return true, m.logout()
	case key.Matches(msg, m.keys.Back) && loggedIn:
		m.notice = ""
		return true, m.back()
	}

	if loggedIn {
		items := m.env.shell.NavItems()
		for i, b := range m.keys.Nav {
			if key.Matches(msg, b) && i < len(items) {
				m.notice = ""
				return true, m.Navigate(items[i].Path)
			}
		}
	}

	if !m.page.Capturing() && msg.String() == "q" {
		m.quitting = true
		m.page.Close()
		return true, tea.Quit
	}
	return false, nil
}

// Navigate asks the router for path. Until the guards answer the page body
// renders nothing.
func (m *Model) Navigate(path string) tea.Cmd {
	if path == m.route {
		return nil
	}
	m.pending = path
	ctx, r := m.env.ctx, m.env.shell.Router
	return func() tea.Msg {
		return navigatedMsg{path: path, decision: r.Navigate(ctx, path)}
	}
}

func (m *Model) back() tea.Cmd {
	m.pending = "back"
	ctx, r := m.env.ctx, m.env.shell.Router
	return func() tea.Msg {
		path, _ := r.Back(ctx)
		return navigatedMsg{path: path, decision: authz.Allow()}
	}
}

func (m *Model) logout() tea.Cmd {
	ctx, shell := m.env.ctx, m.env.shell
	return func() tea.Msg {
		return loggedOutMsg{err: shell.Logout(ctx)}
	}
}

// Route returns the route on screen.
func (m *Model) Route() string {
	return m.route
}

// Pending returns the route awaiting a guard decision, if any.
func (m *Model) Pending() string {
	return m.pending
}
