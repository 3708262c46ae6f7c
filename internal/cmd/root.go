package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/config"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/tui"
)

// flagKeys maps persistent flags onto the configuration keys they override.
var flagKeys = map[string]string{
	"api-base":   "api_base",
	"format":     "defaults.format",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

// cli is the state shared by one command tree. NewRootCmd builds a fresh
// one per call, so tests can run trees side by side without global flags.
type cli struct {
	home      string
	ephemeral bool

	// prompter replaces the terminal prompter when set.
	prompter tui.Prompter

	cc *CommandContext
}

// NewRootCmd builds the fidelidade command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&cli{})
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "fidelidade",
		Short: "Terminal console for the Fidelidade loyalty program",
		Long: `fidelidade is the staff console of the Fidelidade loyalty program.

It talks to the loyalty backend to register customers and visits, redeem
gifts, follow the dashboard counters and, for administrators, manage store
users. Run 'fidelidade tui' for the full-screen console or use the commands
below from scripts.

The session is kept between runs in $FIDELIDADE_HOME (default ~/.fidelidade)
or in Redis when session.backend is redis.

Examples:
  fidelidade auth login --email admin@cdc.com
  fidelidade clientes list --cpf 123
  fidelidade visitas registrar 12345678900
  fidelidade tui`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.home, "home", "", "configuration directory (default $FIDELIDADE_HOME or ~/.fidelidade)")
	pf.String("api-base", "", "backend base URL, overrides api_base")
	pf.StringP("format", "f", "", "output format: text, json or yaml")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")
	pf.BoolVar(&c.ephemeral, "ephemeral", false, "keep the session in memory for this run only")

	root.AddCommand(
		newAuthCmd(c),
		newClientesCmd(c),
		newVisitasCmd(c),
		newResgatesCmd(c),
		newDashboardCmd(c),
		newAdminCmd(c),
		newTUICmd(c),
		newConfigCmd(c),
		newDoctorCmd(c),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the command tree and releases the session backend
// once the command returns.
func ExecuteContext(ctx context.Context) error {
	c := &cli{}
	root := newRootCmd(c)
	defer c.close()
	return root.ExecuteContext(ctx)
}

// loader prepares a config loader with the persistent flags bound.
func (c *cli) loader(cmd *cobra.Command) (*config.Loader, error) {
	l, err := config.NewLoader(c.home)
	if err != nil {
		return nil, err
	}
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := l.Viper().BindPFlag(key, f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "bind --"+name, err)
		}
	}
	return l, nil
}

// context loads the configuration and builds the CommandContext for a
// line-oriented command.
func (c *cli) context(cmd *cobra.Command) (*CommandContext, error) {
	return c.open(cmd, false)
}

// open is context with control over terminal logging. Full-screen commands
// pass interactive so log records never reach the terminal.
func (c *cli) open(cmd *cobra.Command, interactive bool) (*CommandContext, error) {
	if c.cc != nil {
		return c.cc, nil
	}

	l, err := c.loader(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := l.Load()
	if err != nil {
		return nil, err
	}
	if c.ephemeral {
		cfg.Session.Backend = auth.BackendMemory
	}

	prompter := c.prompter
	if prompter == nil {
		prompter = tui.NewPrompter()
	}

	cc, err := newCommandContext(cmd, cfg, prompter, interactive)
	if err != nil {
		return nil, err
	}
	c.cc = cc
	return cc, nil
}

func (c *cli) close() {
	if c.cc == nil {
		return
	}
	if err := c.cc.Close(); err != nil {
		c.cc.Logger.WithError(err).Warn("closing the session backend failed")
	}
	c.cc = nil
}
