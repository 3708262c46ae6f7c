package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/platform"
)

type adminMode int

const (
	adminList adminMode = iota
	adminCreate
	adminEdit
	adminDelete
)

const storeAll = "all"

// userDraft backs the create and edit forms.
type userDraft struct {
	id       int
	name     string
	email    string
	role     string
	store    string
	password string
	confirm  bool
}

func (d *userDraft) input() (platform.UserInput, error) {
	storeID, err := platform.ParseStoreID(d.store)
	if err != nil {
		return platform.UserInput{}, err
	}
	role, ok := auth.ParseRole(d.role)
	if !ok {
		return platform.UserInput{}, fmt.Errorf("perfil inválido: %s", d.role)
	}
	return platform.UserInput{
		Name:     strings.TrimSpace(d.name),
		Email:    strings.TrimSpace(d.email),
		Role:     role,
		StoreID:  storeID,
		Password: d.password,
	}, nil
}

type userUpdated struct{}
type userDeleted struct{}

type adminPage struct {
	env *env
	seq *requestSeq

	stores []platform.Store
	users  []auth.User
	table  table.Model

	mode    adminMode
	draft   *userDraft
	form    *huh.Form
	loading int
	saving  bool
	flash   flash
}

func newAdminPage(e *env, seq *requestSeq) *adminPage {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Nome", Width: 22},
			{Title: "Email", Width: 26},
			{Title: "Perfil", Width: 10},
			{Title: "Loja", Width: 14},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return &adminPage{env: e, seq: seq, table: t}
}

func (p *adminPage) Init() tea.Cmd {
	return p.load()
}

func (p *adminPage) load() tea.Cmd {
	p.loading = 2
	client := p.env.shell.Client
	return tea.Batch(
		request(p.seq, "stores", func(ctx context.Context) ([]platform.Store, error) {
			return client.ListStores(ctx)
		}),
		p.fetchUsers(),
	)
}

func (p *adminPage) fetchUsers() tea.Cmd {
	client := p.env.shell.Client
	return request(p.seq, "users", func(ctx context.Context) ([]auth.User, error) {
		return client.ListUsers(ctx)
	})
}

func (p *adminPage) selected() (auth.User, bool) {
	i := p.table.Cursor()
	if i < 0 || i >= len(p.users) {
		return auth.User{}, false
	}
	return p.users[i], true
}

func (p *adminPage) storeOptions() []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("Todas", storeAll)}
	for _, s := range p.stores {
		opts = append(opts, huh.NewOption(s.Name, strconv.Itoa(s.ID)))
	}
	return opts
}

func roleOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, r := range auth.Roles() {
		opts = append(opts, huh.NewOption(r.String(), r.String()))
	}
	return opts
}

func (p *adminPage) buildUserForm(editing bool) {
	passwordTitle := "Senha"
	password := huh.NewInput().EchoMode(huh.EchoModePassword).Value(&p.draft.password)
	if editing {
		passwordTitle = "Nova senha"
		password = password.Description("deixe em branco para manter a atual")
	} else {
		password = password.Validate(required)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Nome").Value(&p.draft.name).Validate(required),
			huh.NewInput().Title("Email").Value(&p.draft.email).Validate(required),
			huh.NewSelect[string]().Title("Perfil").Options(roleOptions()...).Value(&p.draft.role),
			huh.NewSelect[string]().Title("Loja").Options(p.storeOptions()...).Value(&p.draft.store),
			password.Title(passwordTitle),
		),
	).WithShowHelp(false).WithWidth(56)
}

func (p *adminPage) startCreate() tea.Cmd {
	p.flash = flash{}
	p.mode = adminCreate
	p.draft = &userDraft{role: auth.RoleAtendente.String(), store: storeAll}
	p.buildUserForm(false)
	return p.form.Init()
}

func (p *adminPage) startEdit() tea.Cmd {
	u, ok := p.selected()
	if !ok {
		return nil
	}
	p.flash = flash{}
	p.mode = adminEdit
	p.draft = &userDraft{id: u.ID, name: u.Name, email: u.Email, role: u.Role.String(), store: storeAll}
	if u.StoreID != nil {
		p.draft.store = strconv.Itoa(*u.StoreID)
	}
	p.buildUserForm(true)
	return p.form.Init()
}

func (p *adminPage) startDelete() tea.Cmd {
	u, ok := p.selected()
	if !ok {
		return nil
	}
	p.flash = flash{}
	p.mode = adminDelete
	p.draft = &userDraft{id: u.ID, name: u.Name}
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Excluir %s?", u.Name)).
				Affirmative("Excluir").
				Negative("Cancelar").
				Value(&p.draft.confirm),
		),
	).WithShowHelp(false)
	return p.form.Init()
}

// submit sends the finished form for the current mode.
func (p *adminPage) submit() tea.Cmd {
	client := p.env.shell.Client
	d := *p.draft

	switch p.mode {
	case adminDelete:
		if !d.confirm {
			p.cancel()
			return nil
		}
		p.saving = true
		return request(p.seq, "delete", func(ctx context.Context) (userDeleted, error) {
			return userDeleted{}, client.DeleteUser(ctx, d.id)
		})

	case adminCreate, adminEdit:
		in, err := d.input()
		if err != nil {
			p.flash = errorFlash(err.Error())
			p.buildUserForm(p.mode == adminEdit)
			return p.form.Init()
		}
		p.saving = true
		if p.mode == adminCreate {
			return request(p.seq, "create", func(ctx context.Context) (*auth.User, error) {
				return client.CreateUser(ctx, in)
			})
		}
		return request(p.seq, "update", func(ctx context.Context) (userUpdated, error) {
			return userUpdated{}, client.UpdateUser(ctx, d.id, in)
		})
	}
	return nil
}

func (p *adminPage) cancel() {
	p.mode = adminList
	p.form = nil
	p.draft = nil
}

// finish handles the outcome of a create, update or delete.
func (p *adminPage) finish(err error, failure, success string) tea.Cmd {
	p.saving = false
	if err != nil {
		if platform.IsAuthFailure(err) {
			return nil
		}
		p.flash = errorFlash(errorText(err, failure))
		if p.mode == adminDelete {
			p.cancel()
			return nil
		}
		p.buildUserForm(p.mode == adminEdit)
		return p.form.Init()
	}
	p.cancel()
	p.flash = successFlash(success)
	p.loading++
	return p.fetchUsers()
}

func (p *adminPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case result[[]platform.Store]:
		if !p.seq.current(msg.token) {
			return nil
		}
		p.done()
		if msg.err != nil {
			if !platform.IsAuthFailure(msg.err) {
				p.flash = errorFlash(errorText(msg.err, "Erro ao carregar lojas"))
			}
			return nil
		}
		p.stores = msg.value
		p.table.SetRows(userRows(p.users, p.stores))
		return nil

	case result[[]auth.User]:
		if !p.seq.current(msg.token) {
			return nil
		}
		p.done()
		if msg.err != nil {
			if !platform.IsAuthFailure(msg.err) {
				p.flash = errorFlash(errorText(msg.err, "Erro ao carregar usuários"))
			}
			return nil
		}
		p.users = msg.value
		p.table.SetRows(userRows(p.users, p.stores))
		return nil

	case result[*auth.User]:
		if !p.seq.current(msg.token) {
			return nil
		}
		return p.finish(msg.err, "Erro ao criar usuário", "Usuário criado.")

	case result[userUpdated]:
		if !p.seq.current(msg.token) {
			return nil
		}
		return p.finish(msg.err, "Erro ao atualizar usuário", "Usuário atualizado.")

	case result[userDeleted]:
		if !p.seq.current(msg.token) {
			return nil
		}
		return p.finish(msg.err, "Erro ao excluir usuário", "Usuário excluído.")

	case tea.KeyMsg:
		if p.mode == adminList {
			return p.handleListKey(msg)
		}
		if p.saving {
			return nil
		}
		if msg.String() == "esc" {
			p.cancel()
			return nil
		}
	}

	if p.mode != adminList && p.form != nil && !p.saving {
		model, cmd := p.form.Update(msg)
		if f, ok := model.(*huh.Form); ok {
			p.form = f
		}
		if p.form.State == huh.StateCompleted {
			return tea.Batch(cmd, p.submit())
		}
		return cmd
	}
	return nil
}

func (p *adminPage) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "n":
		return p.startCreate()
	case "e", "enter":
		return p.startEdit()
	case "d", "delete":
		return p.startDelete()
	case "r":
		if p.loading == 0 {
			p.flash = flash{}
			return p.load()
		}
		return nil
	}
	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return cmd
}

func (p *adminPage) done() {
	if p.loading > 0 {
		p.loading--
	}
}

func userRows(users []auth.User, stores []platform.Store) []table.Row {
	rows := make([]table.Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, table.Row{
			strconv.Itoa(u.ID),
			u.Name,
			u.Email,
			u.Role.String(),
			platform.StoreName(stores, u.StoreID),
		})
	}
	return rows
}

func (p *adminPage) View() string {
	s := p.env.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Administração"))
	b.WriteString("\n\n")

	switch p.mode {
	case adminCreate, adminEdit, adminDelete:
		title := map[adminMode]string{
			adminCreate: "Novo usuário",
			adminEdit:   "Editar usuário",
			adminDelete: "Excluir usuário",
		}[p.mode]
		b.WriteString(s.Subtitle.Render(title))
		b.WriteString("\n")
		if !p.saving && p.form != nil {
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

	b.WriteString(s.Subtitle.Render(fmt.Sprintf("%d lojas · %d usuários", len(p.stores), len(p.users))))
	b.WriteString("\n")
	b.WriteString(p.table.View())
	b.WriteString("\n")
	if f := p.flash.render(s); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString(helpKeys(s, "n", "novo", "e", "editar", "d", "excluir", "r", "recarregar"))
	return b.String()
}

func (p *adminPage) Busy() bool      { return p.loading > 0 || p.saving }
func (p *adminPage) Capturing() bool { return p.mode != adminList }
func (p *adminPage) Close()          { p.seq.close() }
