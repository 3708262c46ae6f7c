package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/app"
	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/authz"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/router"
	"github.com/casadocigano/fidelidade/internal/tui"
	"github.com/casadocigano/fidelidade/internal/ux"
)

func newAdminCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage stores and staff users (ADMIN only)",
		Long: `Manage stores and staff users.

Every admin command first navigates to the admin area through the same
guards as the console: a stored session is required and the backend must
confirm the ADMIN role. The cached profile alone is never trusted.

Examples:
  fidelidade admin stores
  fidelidade admin users list
  fidelidade admin users create --name Ana --email ana@cdc.com --role ATENDENTE --store 1
  fidelidade admin users update 7 --role GERENTE
  fidelidade admin users delete 7 --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	users := &cobra.Command{
		Use:   "users",
		Short: "Manage staff users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	users.AddCommand(
		newAdminUsersListCmd(c),
		newAdminUsersCreateCmd(c),
		newAdminUsersUpdateCmd(c),
		newAdminUsersDeleteCmd(c),
	)

	cmd.AddCommand(newAdminStoresCmd(c), users)
	return cmd
}

// RequireAdmin runs the admin route's guards and returns the shell only
// when they allow entry.
func (cc *CommandContext) RequireAdmin(ctx context.Context) (*app.Shell, error) {
	shell, err := cc.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	d := shell.Router.Navigate(ctx, router.RouteAdmin)
	switch {
	case d.Allowed():
		return shell, nil
	case d.Redirect == router.RouteLogin:
		if !shell.LoggedIn() && d.Reason != authz.ReasonRejected {
			return nil, errors.NewNotLoggedInError()
		}
		return nil, errors.New(errors.ErrCodeAuthSessionExpired, d.Reason).
			WithSuggestion("The local session was cleared").
			WithSuggestion("Run 'fidelidade auth login' again")
	case d.Reason == authz.ReasonUnconfirmed:
		return nil, errors.New(errors.ErrCodeAPIRequest, "could not confirm the ADMIN role with the backend").
			WithSuggestion("Run 'fidelidade doctor' to check connectivity")
	}
	return nil, errors.NewForbiddenError("the admin area")
}

func newAdminStoresCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List stores and their visit goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.RequireAdmin(cmd.Context())
			if err != nil {
				return err
			}

			stores, err := shell.Client.ListStores(cmd.Context())
			if err != nil {
				return cc.apiError(err)
			}
			t := ux.Table{Head: []string{"ID", "Loja", "Meta de visitas"}}
			for _, s := range stores {
				t.Body = append(t.Body, []string{strconv.Itoa(s.ID), s.Name, strconv.Itoa(s.MetaVisitas)})
			}
			return cc.Printer.Print(stores, t)
		},
	}
}

func newAdminUsersListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staff users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.RequireAdmin(cmd.Context())
			if err != nil {
				return err
			}

			users, err := shell.Client.ListUsers(cmd.Context())
			if err != nil {
				return cc.apiError(err)
			}
			// Store names are cosmetic; ids are shown if stores fail to load.
			stores, err := shell.Client.ListStores(cmd.Context())
			if err != nil {
				if platform.IsAuthFailure(err) {
					return cc.apiError(err)
				}
				cc.Logger.WithError(err).Warn("cannot load store names")
			}
			return cc.Printer.Print(users, userTable(users, stores))
		},
	}
}

// userFlags are the fields shared by users create and update.
type userFlags struct {
	name          string
	email         string
	role          string
	store         string
	password      string
	passwordStdin bool
}

func (f *userFlags) register(cmd *cobra.Command, passwordHelp string) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.email, "email", "", "login email")
	cmd.Flags().StringVar(&f.role, "role", "", "ATENDENTE, GERENTE or ADMIN")
	cmd.Flags().StringVar(&f.store, "store", "", `store id, or "all" for every store`)
	cmd.Flags().StringVar(&f.password, "password", "", passwordHelp)
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

func (f *userFlags) readPassword(cc *CommandContext) error {
	if !f.passwordStdin {
		return nil
	}
	p, err := cc.readLine()
	if err != nil {
		return err
	}
	f.password = p
	return nil
}

// input validates the flags into a request body.
func (f *userFlags) input() (platform.UserInput, error) {
	role, ok := auth.ParseRole(f.role)
	if !ok {
		return platform.UserInput{}, errors.New(errors.ErrCodeInputInvalid, fmt.Sprintf("invalid role %q", f.role)).
			WithSuggestion("Use one of: ATENDENTE, GERENTE, ADMIN")
	}
	store, err := platform.ParseStoreID(f.store)
	if err != nil {
		return platform.UserInput{}, errors.Wrap(errors.ErrCodeInputInvalid, "invalid --store", err)
	}
	return platform.UserInput{
		Name:     f.name,
		Email:    f.email,
		Role:     role,
		StoreID:  store,
		Password: f.password,
	}, nil
}

func roleOptions() []tui.Option {
	var opts []tui.Option
	for _, r := range auth.Roles() {
		opts = append(opts, tui.Option{Label: r.String(), Value: r.String()})
	}
	return opts
}

func newAdminUsersCreateCmd(c *cli) *cobra.Command {
	var f userFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff user",
		Long: `Create a staff user.

Missing name, email, role and password are prompted for on a terminal. The
store defaults to "all".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			if err := f.readPassword(cc); err != nil {
				return err
			}
			shell, err := cc.RequireAdmin(cmd.Context())
			if err != nil {
				return err
			}

			if err := cc.ask(&f.name, "name", tui.Prompt{Message: "Nome"}); err != nil {
				return err
			}
			if err := cc.ask(&f.email, "email", tui.Prompt{Message: "Email"}); err != nil {
				return err
			}
			if f.role == "" {
				role, err := cc.Prompter.Select("Perfil", roleOptions())
				if err != nil {
					return promptError(err, "role")
				}
				f.role = role
			}
			if err := cc.askPassword(&f.password, "password", "Senha"); err != nil {
				return err
			}

			in, err := f.input()
			if err != nil {
				return err
			}
			u, err := shell.Client.CreateUser(cmd.Context(), in)
			if err != nil {
				return cc.apiError(err)
			}
			return cc.Printer.Print(u, fmt.Sprintf("Usuário %s criado.", in.Email))
		},
	}

	f.register(cmd, "initial password (prefer --password-stdin)")
	return cmd
}

func newAdminUsersUpdateCmd(c *cli) *cobra.Command {
	var f userFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a staff user",
		Long: `Update a staff user.

Only the given flags change; the rest keep their current values. The
password is kept unless a new one is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			if err := f.readPassword(cc); err != nil {
				return err
			}
			shell, err := cc.RequireAdmin(cmd.Context())
			if err != nil {
				return err
			}

			current, err := findUser(cmd.Context(), shell.Client, id)
			if err != nil {
				return cc.apiError(err)
			}
			if f.name == "" {
				f.name = current.Name
			}
			if f.email == "" {
				f.email = current.Email
			}
			if f.role == "" {
				f.role = current.Role.String()
			}
			if !cmd.Flags().Changed("store") && current.StoreID != nil {
				f.store = strconv.Itoa(*current.StoreID)
			}

			in, err := f.input()
			if err != nil {
				return err
			}
			if err := shell.Client.UpdateUser(cmd.Context(), id, in); err != nil {
				return cc.apiError(err)
			}
			return cc.Printer.Print(map[string]int{"id": id}, fmt.Sprintf("Usuário #%d atualizado.", id))
		},
	}

	f.register(cmd, "new password (kept when empty)")
	return cmd
}

func newAdminUsersDeleteCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a staff user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.RequireAdmin(cmd.Context())
			if err != nil {
				return err
			}

			ok, err := cc.confirm(fmt.Sprintf("Excluir usuário #%d?", id), yes)
			if err != nil {
				return err
			}
			if !ok {
				return cc.Printer.Print(map[string]any{"id": id, "deleted": false}, "Cancelado.")
			}
			if err := shell.Client.DeleteUser(cmd.Context(), id); err != nil {
				return cc.apiError(err)
			}
			return cc.Printer.Print(map[string]any{"id": id, "deleted": true}, fmt.Sprintf("Usuário #%d excluído.", id))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func parseUserID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrCodeInputInvalid, fmt.Sprintf("invalid user id %q", s))
	}
	return id, nil
}

func findUser(ctx context.Context, client *platform.Client, id int) (*auth.User, error) {
	users, err := client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeInputInvalid, fmt.Sprintf("user #%d not found", id)).
		WithSuggestion("List users with 'fidelidade admin users list'")
}
