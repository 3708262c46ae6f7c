package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/casadocigano/fidelidade/internal/export"
	"github.com/casadocigano/fidelidade/internal/platform"
)

type dashboardPage struct {
	env *env
	seq *requestSeq

	kpis      *platform.KPIs
	birthdays []platform.BirthdayCustomer
	table     table.Model

	loading   int
	exporting bool
	flash     flash
}

func newDashboardPage(e *env, seq *requestSeq) *dashboardPage {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Nome", Width: 28},
			{Title: "CPF", Width: 14},
			{Title: "Nascimento", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	return &dashboardPage{env: e, seq: seq, table: t}
}

func (p *dashboardPage) Init() tea.Cmd {
	return p.load()
}

func (p *dashboardPage) load() tea.Cmd {
	p.flash = flash{}
	p.loading = 2
	return tea.Batch(p.fetchKPIs(), p.fetchBirthdays())
}

func (p *dashboardPage) fetchKPIs() tea.Cmd {
	client := p.env.shell.Client
	return request(p.seq, "kpis", func(ctx context.Context) (*platform.KPIs, error) {
		return client.KPIs(ctx)
	})
}

func (p *dashboardPage) fetchBirthdays() tea.Cmd {
	client := p.env.shell.Client
	return request(p.seq, "birthdays", func(ctx context.Context) ([]platform.BirthdayCustomer, error) {
		return client.Birthdays(ctx)
	})
}

// exportBirthdays downloads the spreadsheet and saves it in the export dir.
func (p *dashboardPage) exportBirthdays() tea.Cmd {
	p.flash = flash{}
	p.exporting = true
	client, dir := p.env.shell.Client, p.env.opts.ExportDir
	return request(p.seq, "export", func(ctx context.Context) (string, error) {
		d, err := client.ExportBirthdays(ctx)
		if err != nil {
			return "", err
		}
		return export.SaveDownload(dir, d, false)
	})
}

func (p *dashboardPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case result[*platform.KPIs]:
		if !p.seq.current(msg.token) {
			return nil
		}
		p.done()
		if msg.err != nil {
			if !platform.IsAuthFailure(msg.err) {
				p.flash = errorFlash(errorText(msg.err, "Erro ao carregar indicadores"))
			}
			return nil
		}
		p.kpis = msg.value

	case result[[]platform.BirthdayCustomer]:
		if !p.seq.current(msg.token) {
			return nil
		}
		p.done()
		if msg.err != nil {
			if !platform.IsAuthFailure(msg.err) {
				p.flash = errorFlash(errorText(msg.err, "Erro ao carregar aniversariantes"))
			}
			return nil
		}
		p.birthdays = msg.value
		p.table.SetRows(birthdayRows(msg.value))

	case result[string]:
		if !p.seq.current(msg.token) {
			return nil
		}
		p.exporting = false
		if msg.err != nil {
			if !platform.IsAuthFailure(msg.err) {
				p.flash = errorFlash(errorText(msg.err, "Erro ao exportar"))
			}
			return nil
		}
		p.flash = successFlash("Planilha salva em " + msg.value)

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			if p.loading == 0 {
				return p.load()
			}
			return nil
		case "e":
			if !p.exporting {
				return p.exportBirthdays()
			}
			return nil
		}
		var cmd tea.Cmd
		p.table, cmd = p.table.Update(msg)
		return cmd
	}
	return nil
}

func (p *dashboardPage) done() {
	if p.loading > 0 {
		p.loading--
	}
}

func birthdayRows(list []platform.BirthdayCustomer) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, c := range list {
		rows = append(rows, table.Row{c.Name, c.CPF, deref(c.Birthday)})
	}
	return rows
}

func (p *dashboardPage) View() string {
	s := p.env.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Dashboard"))
	b.WriteString("\n\n")

	if p.kpis != nil {
		card := func(label string, value int) string {
			return s.Border.Render(fmt.Sprintf("%s\n%s", s.Muted.Render(label), s.Title.Render(fmt.Sprint(value))))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			card("Visitas (30 dias)", p.kpis.Visitas30d),
			card("Clientes", p.kpis.ClientesTotal),
			card("Resgates (30 dias)", p.kpis.Resgates30d),
		))
		b.WriteString("\n\n")
	}

	if p.birthdays != nil {
		b.WriteString(s.Subtitle.Render(fmt.Sprintf("Aniversariantes do mês: %d", len(p.birthdays))))
		b.WriteString("\n")
		if len(p.birthdays) > 0 {
			b.WriteString(p.table.View())
			b.WriteString("\n")
		}
	}

	if f := p.flash.render(s); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString(helpKeys(s, "r", "atualizar", "e", "exportar aniversariantes"))
	return b.String()
}

func (p *dashboardPage) Busy() bool      { return p.loading > 0 || p.exporting }
func (p *dashboardPage) Capturing() bool { return false }
func (p *dashboardPage) Close()          { p.seq.close() }
