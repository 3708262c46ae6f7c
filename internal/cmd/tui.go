package cmd

import (
	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/tui"
)

func newTUICmd(c *cli) *cobra.Command {
	var exportDir string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen console",
		Long: `Open the full-screen console.

The console starts on the dashboard when a session is stored and on the
login page otherwise. Logs go to logging.file when set and are discarded
otherwise, so they never draw over the screen.

Keys:
  F1-F6   switch pages (Alt+1 to Alt+6)
  Ctrl+L  logout
  Ctrl+B  back
  Ctrl+C  quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !tui.IsInteractive() {
				return errors.New(errors.ErrCodeInputRequired, "the console needs a terminal").
					WithSuggestion("Use the line commands, such as 'fidelidade clientes list', from scripts")
			}

			cc, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			shell, err := cc.Shell(cmd.Context())
			if err != nil {
				return err
			}

			return tui.Run(cmd.Context(), shell, tui.Options{
				PerPage:   cc.Config.Defaults.PerPage,
				GiftName:  cc.Config.Defaults.GiftName,
				ExportDir: exportDir,
			})
		},
	}

	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory for dashboard exports")
	return cmd
}
