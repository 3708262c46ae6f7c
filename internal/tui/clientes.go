package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/casadocigano/fidelidade/internal/app"
	"github.com/casadocigano/fidelidade/internal/platform"
)

type clientesMode int

const (
	clientesList clientesMode = iota
	clientesSearch
	clientesCreate
)

type clientesPage struct {
	env *env
	seq *requestSeq

	pager  *app.Pager
	items  []platform.Customer
	table  table.Model
	search textinput.Model

	mode   clientesMode
	draft  *platform.NewCustomer
	form   *huh.Form
	busy   bool
	saving bool
	flash  flash
}

func newClientesPage(e *env, seq *requestSeq) *clientesPage {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Nome", Width: 24},
			{Title: "CPF", Width: 14},
			{Title: "Telefone", Width: 14},
			{Title: "Email", Width: 24},
			{Title: "Nasc.", Width: 10},
			{Title: "Loja", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(e.opts.PerPage),
	)

	ti := textinput.New()
	ti.Placeholder = "CPF"
	ti.Prompt = "Buscar: "
	ti.CharLimit = 14

	return &clientesPage{
		env:    e,
		seq:    seq,
		pager:  app.NewPager(e.opts.PerPage),
		table:  t,
		search: ti,
	}
}

func (p *clientesPage) Init() tea.Cmd {
	return p.fetch()
}

// fetch loads the page the pager points at. Only the newest list request
// is applied, so quick paging never shows an older page last.
func (p *clientesPage) fetch() tea.Cmd {
	p.busy = true
	q := p.pager.Query()
	client := p.env.shell.Client
	return request(p.seq, "list", func(ctx context.Context) (*platform.CustomerPage, error) {
		return client.ListCustomers(ctx, q)
	})
}

func (p *clientesPage) buildForm() {
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Nome").Value(&p.draft.Name).Validate(required),
			huh.NewInput().Title("CPF").Value(&p.draft.CPF).Validate(required),
			huh.NewInput().Title("Telefone").Value(&p.draft.Phone),
			huh.NewInput().Title("Email").Value(&p.draft.Email),
			huh.NewInput().
				Title("Nascimento").
				Placeholder("AAAA-MM-DD").
				Value(&p.draft.Birthday).
				Validate(optionalDate),
		),
	).WithShowHelp(false).WithWidth(56)
}

func optionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.Parse(platform.DateLayout, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use o formato AAAA-MM-DD")
	}
	return nil
}

func (p *clientesPage) startCreate() tea.Cmd {
	p.flash = flash{}
	p.mode = clientesCreate
	if p.draft == nil {
		p.draft = &platform.NewCustomer{}
	}
	p.buildForm()
	return p.form.Init()
}

// create submits the draft customer.
func (p *clientesPage) create() tea.Cmd {
	p.flash = flash{}
	p.saving = true
	in := *p.draft
	in.Name = strings.TrimSpace(in.Name)
	in.CPF = strings.TrimSpace(in.CPF)
	in.Birthday = strings.TrimSpace(in.Birthday)
	client := p.env.shell.Client
	return request(p.seq, "create", func(ctx context.Context) (int, error) {
		return client.CreateCustomer(ctx, in)
	})
}

func (p *clientesPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case result[*platform.CustomerPage]:
		if !p.seq.current(msg.token) {
			return nil
		}
		p.busy = false
		if msg.err != nil {
			if !platform.IsAuthFailure(msg.err) {
				p.flash = errorFlash(errorText(msg.err, "Erro ao carregar clientes"))
			}
			return nil
		}
		p.pager.Update(msg.value)
		p.items = msg.value.Items
		p.table.SetRows(customerRows(msg.value.Items))
		return nil

	case result[int]:
		if !p.seq.current(msg.token) {
			return nil
		}
		p.saving = false
		if msg.err != nil {
			if platform.IsAuthFailure(msg.err) {
				return nil
			}
			p.flash = errorFlash(errorText(msg.err, "Erro ao criar cliente"))
			p.buildForm()
			return p.form.Init()
		}
		p.draft = nil
		p.form = nil
		p.mode = clientesList
		p.flash = successFlash(fmt.Sprintf("Cliente #%d criado.", msg.value))
		return p.fetch()

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	if p.mode == clientesCreate && p.form != nil && !p.saving {
		return p.updateForm(msg)
	}
	return nil
}

func (p *clientesPage) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch p.mode {
	case clientesSearch:
		switch msg.String() {
		case "enter":
			p.mode = clientesList
			p.search.Blur()
			p.flash = flash{}
			p.pager.Search(strings.TrimSpace(p.search.Value()))
			return p.fetch()
		case "esc":
			p.mode = clientesList
			p.search.Blur()
			return nil
		}
		var cmd tea.Cmd
		p.search, cmd = p.search.Update(msg)
		return cmd

	case clientesCreate:
		if p.saving {
			return nil
		}
		if msg.String() == "esc" {
			p.mode = clientesList
			p.form = nil
			return nil
		}
		return p.updateForm(msg)
	}

	switch msg.String() {
	case "/":
		p.mode = clientesSearch
		return p.search.Focus()
	case "c":
		return p.startCreate()
	case "right", "l":
		if p.pager.Next() {
			return p.fetch()
		}
		return nil
	case "left", "h":
		if p.pager.Prev() {
			return p.fetch()
		}
		return nil
	case "r":
		return p.fetch()
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return cmd
}

func (p *clientesPage) updateForm(msg tea.Msg) tea.Cmd {
	model, cmd := p.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State == huh.StateCompleted {
		return tea.Batch(cmd, p.create())
	}
	return cmd
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func customerRows(list []platform.Customer) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, c := range list {
		rows = append(rows, table.Row{
			strconv.Itoa(c.ID),
			c.Name,
			c.CPF,
			c.Phone,
			deref(c.Email),
			orDash(c.Birthday),
			platform.StoreName(nil, c.StoreID),
		})
	}
	return rows
}

func (p *clientesPage) View() string {
	s := p.env.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Clientes"))
	b.WriteString("\n\n")

	if p.mode == clientesCreate && p.form != nil {
		b.WriteString(s.Subtitle.Render("Novo cliente"))
		b.WriteString("\n")
		if !p.saving {
			b.WriteString(p.form.View())
			b.WriteString("\n")
		}
		if f := p.flash.render(s); f != "" {
			b.WriteString(f)
			b.WriteString("\n")
		}
		b.WriteString(helpKeys(s, "esc", "cancelar"))
		return b.String()
	}

	b.WriteString(p.search.View())
	b.WriteString("\n\n")
	if len(p.items) == 0 && !p.busy {
		b.WriteString(s.Muted.Render("Nenhum cliente encontrado."))
	} else {
		b.WriteString(p.table.View())
	}
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(fmt.Sprintf("Página %d de %d · %d clientes", p.pager.Page, p.pager.TotalPages(), p.pager.Total)))
	b.WriteString("\n")

	if f := p.flash.render(s); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString(helpKeys(s, "/", "buscar CPF", "←/→", "página", "c", "novo cliente", "r", "recarregar"))
	return b.String()
}

func (p *clientesPage) Busy() bool      { return p.busy || p.saving }
func (p *clientesPage) Capturing() bool { return p.mode != clientesList }
func (p *clientesPage) Close()          { p.seq.close() }
