package cmd

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/tui"
	"github.com/casadocigano/fidelidade/internal/ux"
)

func newAuthCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the console session",
		Long: `Manage the console session.

The token and user profile returned by the backend are stored in the
configured session backend and reused by every other command until
'fidelidade auth logout' runs or the backend rejects the token.

Subcommands:
  login   Login with email and password
  logout  Forget the stored session
  status  Show the stored session without contacting the backend
  whoami  Ask the backend who owns the stored token

Examples:
  fidelidade auth login --email admin@cdc.com
  echo "$PASSWORD" | fidelidade auth login --email admin@cdc.com --password-stdin
  fidelidade auth status
  fidelidade auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newAuthLoginCmd(c),
		newAuthLogoutCmd(c),
		newAuthStatusCmd(c),
		newAuthWhoamiCmd(c),
	)
	return cmd
}

func newAuthLoginCmd(c *cli) *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		Long: `Login with email and password.

Missing values are prompted for when a terminal is attached. In scripts pass
--email together with --password-stdin so the password stays out of the
process list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if passwordStdin {
				if password, err = cc.readLine(); err != nil {
					return err
				}
			}
			if err := cc.ask(&email, "email", tui.Prompt{Message: "Email", Default: tui.DefaultLoginEmail}); err != nil {
				return err
			}
			if err := cc.askPassword(&password, "password", "Senha"); err != nil {
				return err
			}

			shell, err := cc.Shell(ctx)
			if err != nil {
				return err
			}
			session, err := shell.Login(ctx, email, password)
			if err != nil {
				return loginError(cc, err)
			}

			u := session.User
			return cc.Printer.Print(u, fmt.Sprintf("Logged in as %s (%s, %s)", u.Name, u.Role, u.StoreLabel()))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

// loginError reports a rejected login as bad credentials. The login endpoint
// answers 401 for a wrong password, which elsewhere means an expired session.
func loginError(cc *CommandContext, err error) error {
	var fe *errors.FidelidadeError
	if stderrors.As(err, &fe) {
		return err
	}
	if platform.StatusOf(err) == 0 {
		return cc.apiError(err)
	}
	return errors.Wrap(errors.ErrCodeAuthInvalidCreds, platform.Message(err, "Falha no login"), err).
		WithSuggestion("Check the email and password and try again")
}

func newAuthLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.Shell(cmd.Context())
			if err != nil {
				return err
			}

			was := shell.Session()
			if err := shell.Logout(cmd.Context()); err != nil {
				return err
			}
			if !was.Valid() {
				return cc.Printer.Print(map[string]bool{"logged_out": false}, "Not logged in.")
			}
			return cc.Printer.Print(map[string]bool{"logged_out": true}, "Logged out "+was.User.Email+".")
		},
	}
}

// sessionStatus is what auth status reports.
type sessionStatus struct {
	LoggedIn   bool       `json:"logged_in" yaml:"logged_in"`
	Backend    string     `json:"backend" yaml:"backend"`
	User       *auth.User `json:"user,omitempty" yaml:"user,omitempty"`
	StoreLabel string     `json:"store_label,omitempty" yaml:"store_label,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired    bool       `json:"expired" yaml:"expired"`
}

func (s sessionStatus) Headers() []string { return []string{"Campo", "Valor"} }

func (s sessionStatus) Rows() [][]string {
	if !s.LoggedIn {
		return [][]string{{"Sessão", "nenhuma"}, {"Backend", s.Backend}}
	}
	rows := [][]string{
		{"Nome", s.User.Name},
		{"Email", s.User.Email},
		{"Perfil", s.User.Role.String()},
		{"Loja", s.StoreLabel},
		{"Backend", s.Backend},
	}
	if s.ExpiresAt != nil {
		exp := s.ExpiresAt.Local().Format("02/01/2006 15:04")
		if s.Expired {
			exp += " (expirado)"
		}
		rows = append(rows, []string{"Expira", exp})
	}
	return rows
}

func newAuthStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show the stored session without contacting the backend.

The expiry is read from the token itself and is informative only: the backend
decides whether the token is still accepted. Use 'fidelidade auth whoami' to
ask it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.Shell(cmd.Context())
			if err != nil {
				return err
			}

			st := sessionStatus{Backend: cc.Config.Session.Backend}
			if s := shell.Session(); s.Valid() {
				st.LoggedIn = true
				st.User = &s.User
				st.StoreLabel = s.User.StoreLabel()
				if exp, ok := s.ExpiresAt(); ok {
					st.ExpiresAt = &exp
					st.Expired = s.Expired(time.Now())
				}
			}
			return cc.Printer.Print(st, st)
		},
	}
}

func newAuthWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Ask the backend who owns the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.RequireSession(cmd.Context())
			if err != nil {
				return err
			}

			me, err := shell.Client.Me(cmd.Context())
			if err != nil {
				return cc.apiError(err)
			}
			return cc.Printer.Print(me, userTable([]auth.User{*me}, nil))
		},
	}
}

// userTable renders users with their store names. A nil stores slice
// shows store ids.
func userTable(users []auth.User, stores []platform.Store) ux.Table {
	t := ux.Table{Head: []string{"ID", "Nome", "Email", "Perfil", "Loja"}}
	for _, u := range users {
		t.Body = append(t.Body, []string{
			strconv.Itoa(u.ID),
			u.Name,
			u.Email,
			u.Role.String(),
			platform.StoreName(stores, u.StoreID),
		})
	}
	return t
}
