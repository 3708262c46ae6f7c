package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/casadocigano/fidelidade/internal/config"
	"github.com/casadocigano/fidelidade/internal/errors"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the configuration",
		Long: `Show and edit the configuration.

Settings are merged from built-in defaults, $FIDELIDADE_HOME/config.yaml,
.env files, FIDELIDADE_* environment variables and the global flags, in that
order. 'config set' edits config.yaml only.

Keys:
  ` + strings.Join(config.Keys(), "\n  ") + `

Examples:
  fidelidade config view
  fidelidade config get api_base
  fidelidade config set api_base https://fidelidade.example.com
  fidelidade config set session.backend redis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newConfigViewCmd(c),
		newConfigPathCmd(c),
		newConfigGetCmd(c),
		newConfigSetCmd(c),
	)
	return cmd
}

func newConfigViewCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}

			red := cc.Config.Redacted()
			out, err := yaml.Marshal(red)
			if err != nil {
				return errors.Wrap(errors.ErrCodeConfigInvalid, "cannot render configuration", err)
			}
			return cc.Printer.Print(red, strings.TrimRight(string(out), "\n"))
		},
	}
}

func newConfigPathCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.loader(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.Path(l.Home()))
			return nil
		},
	}
}

func newConfigGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one effective setting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}

			red := cc.Config.Redacted()
			v, err := red.Get(args[0])
			if err != nil {
				return err
			}
			return cc.Printer.Print(map[string]string{args[0]: v}, v)
		},
	}
}

func newConfigSetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write one setting to config.yaml",
		Long: `Write one setting to config.yaml, creating the file when missing.

The rest of the file is kept. The configuration is loaded again afterwards
and a warning is printed when the result is not usable.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The current configuration may be the broken one being fixed,
			// so set only needs the home directory.
			l, err := c.loader(cmd)
			if err != nil {
				return err
			}
			path := config.Path(l.Home())
			if err := config.Set(path, args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", args[0], path)
			if _, err := config.Load(l.Home()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return nil
		},
	}
}
