package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/casadocigano/fidelidade/internal/auth"
)

type loginValues struct {
	email    string
	password string
}

type loginPage struct {
	env    *env
	seq    *requestSeq
	values *loginValues
	form   *huh.Form
	busy   bool
	flash  flash
}

func newLoginPage(e *env, seq *requestSeq) *loginPage {
	p := &loginPage{
		env:    e,
		seq:    seq,
		values: &loginValues{email: e.opts.LoginEmail},
	}
	p.buildForm()
	return p
}

func (p *loginPage) buildForm() {
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&p.values.email).
				Validate(required),
			huh.NewInput().
				Title("Senha").
				EchoMode(huh.EchoModePassword).
				Value(&p.values.password).
				Validate(required),
		),
	).WithShowHelp(false).WithWidth(48)
}

func (p *loginPage) Init() tea.Cmd {
	return p.form.Init()
}

func (p *loginPage) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(result[*auth.Session]); ok {
		if !p.seq.current(r.token) {
			return nil
		}
		p.busy = false
		if r.err != nil {
			p.flash = errorFlash(errorText(r.err, "Falha no login"))
			p.values.password = ""
			p.buildForm()
			return p.form.Init()
		}
		// The shell resets the router to the dashboard; nothing else to do.
		return nil
	}

	if p.busy {
		return nil
	}

	model, cmd := p.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State == huh.StateCompleted {
		return tea.Batch(cmd, p.submit())
	}
	return cmd
}

// submit sends the credentials currently in the form.
func (p *loginPage) submit() tea.Cmd {
	p.flash = flash{}
	p.busy = true
	email := strings.TrimSpace(p.values.email)
	password := p.values.password
	shell := p.env.shell
	return request(p.seq, "login", func(ctx context.Context) (*auth.Session, error) {
		return shell.Login(ctx, email, password)
	})
}

func (p *loginPage) View() string {
	s := p.env.styles
	var b strings.Builder
	b.WriteString(s.Title.Render("Entrar"))
	b.WriteString("\n\n")
	if !p.busy {
		b.WriteString(p.form.View())
		b.WriteString("\n")
	}
	if f := p.flash.render(s); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	return b.String()
}

func (p *loginPage) Busy() bool      { return p.busy }
func (p *loginPage) Capturing() bool { return true }
func (p *loginPage) Close()          { p.seq.close() }
