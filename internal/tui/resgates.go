package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/casadocigano/fidelidade/internal/platform"
)

type redeemValues struct {
	cpf  string
	gift string
}

type resgatesPage struct {
	env *env
	seq *requestSeq

	values *redeemValues
	form   *huh.Form
	busy   bool

	last  *platform.Redemption
	flash flash
}

func newResgatesPage(e *env, seq *requestSeq) *resgatesPage {
	p := &resgatesPage{env: e, seq: seq, values: &redeemValues{}}
	p.buildForm()
	return p
}

func (p *resgatesPage) buildForm() {
	p.values.cpf = ""
	p.values.gift = p.env.opts.GiftName
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CPF do cliente").
				Value(&p.values.cpf).
				Validate(required),
			huh.NewInput().
				Title("Brinde").
				Value(&p.values.gift),
		),
	).WithShowHelp(false).WithWidth(40)
}

func (p *resgatesPage) Init() tea.Cmd {
	return p.form.Init()
}

func (p *resgatesPage) redeem(cpf, gift string) tea.Cmd {
	p.flash = flash{}
	p.busy = true
	client := p.env.shell.Client
	return request(p.seq, "redeem", func(ctx context.Context) (*platform.Redemption, error) {
		return client.Redeem(ctx, cpf, gift)
	})
}

func (p *resgatesPage) Update(msg tea.Msg) tea.Cmd {
	if r, ok := msg.(result[*platform.Redemption]); ok {
		if !p.seq.current(r.token) {
			return nil
		}
		p.busy = false
		if r.err != nil {
			if platform.IsAuthFailure(r.err) {
				return nil
			}
			p.flash = errorFlash(errorText(r.err, "Erro ao resgatar"))
		} else {
			p.last = r.value
			p.flash = successFlash(fmt.Sprintf("Resgate #%d registrado: %s.", r.value.RedemptionID, r.value.GiftName))
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
		return tea.Batch(cmd, p.redeem(strings.TrimSpace(p.values.cpf), p.values.gift))
	}
	return cmd
}

func (p *resgatesPage) View() string {
	s := p.env.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Resgatar brinde"))
	b.WriteString("\n\n")
	if !p.busy {
		b.WriteString(p.form.View())
		b.WriteString("\n")
	}
	if f := p.flash.render(s); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	if p.last != nil && p.last.When != "" {
		b.WriteString(s.Muted.Render("Em " + p.last.When))
		b.WriteString("\n")
	}
	return b.String()
}

func (p *resgatesPage) Busy() bool      { return p.busy }
func (p *resgatesPage) Capturing() bool { return true }
func (p *resgatesPage) Close()          { p.seq.close() }
