package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/casadocigano/fidelidade/internal/platform"
)

type visitasPage struct {
	env *env
	seq *requestSeq

	cpf  *string
	form *huh.Form
	busy bool

	last  *platform.VisitResult
	flash flash
}

func newVisitasPage(e *env, seq *requestSeq) *visitasPage {
	p := &visitasPage{env: e, seq: seq, cpf: new(string)}
	p.buildForm()
	return p
}

func (p *visitasPage) buildForm() {
	*p.cpf = ""
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CPF do cliente").
				Value(p.cpf).
				Validate(required),
		),
	).WithShowHelp(false).WithWidth(40)
}

func (p *visitasPage) Init() tea.Cmd {
	return p.form.Init()
}

func (p *visitasPage) register(cpf string) tea.Cmd {
	p.flash = flash{}
	p.busy = true
	client := p.env.shell.Client
	return request(p.seq, "visit", func(ctx context.Context) (*platform.VisitResult, error) {
		return client.RegisterVisit(ctx, cpf)
	})
}

func (p *visitasPage) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(result[*platform.VisitResult]); ok {
		if !p.seq.current(r.token) {
			return nil
		}
		p.busy = false
		if r.err != nil {
			if platform.IsAuthFailure(r.err) {
				return nil
			}
			p.flash = errorFlash(errorText(r.err, "Erro ao registrar"))
		} else {
			p.last = r.value
			p.flash = successFlash("Visita registrada.")
		}
		p.buildForm()
		return p.form.Init()
	}

	if p.busy {
		return nil
	}

	model, cmd := p.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State == huh.StateCompleted {
		return tea.Batch(cmd, p.register(strings.TrimSpace(*p.cpf)))
	}
	return cmd
}

func (p *visitasPage) View() string {
	s := p.env.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Registrar visita"))
	b.WriteString("\n\n")
	if !p.busy {
		b.WriteString(p.form.View())
		b.WriteString("\n")
	}
	if f := p.flash.render(s); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	if p.last != nil {
		b.WriteString("\n")
		b.WriteString(renderVisit(s, p.last))
	}
	return b.String()
}

func renderVisit(s Styles, v *platform.VisitResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", s.Subtitle.Render(v.Client.Name), s.Muted.Render(v.Client.CPF))
	fmt.Fprintf(&b, "Visitas: %d / %d  %s\n", v.VisitsCount, v.Meta, eligibilityPill(s, v))
	if v.WhatsAppURL != nil && *v.WhatsAppURL != "" {
		fmt.Fprintf(&b, "WhatsApp: %s\n", *v.WhatsAppURL)
	}
	if v.WhatsAppImageURL != nil && *v.WhatsAppImageURL != "" {
		fmt.Fprintf(&b, "Arte: %s\n", *v.WhatsAppImageURL)
	}
	return b.String()
}

func eligibilityPill(s Styles, v *platform.VisitResult) string {
	if v.Eligible {
		return s.Pill.Background(lipgloss.Color("46")).Render("Elegível ao brinde")
	}
	return s.Pill.Background(lipgloss.Color("226")).Render(fmt.Sprintf("Faltam %d", v.Remaining()))
}

func (p *visitasPage) Busy() bool      { return p.busy }
func (p *visitasPage) Capturing() bool { return true }
func (p *visitasPage) Close()          { p.seq.close() }
