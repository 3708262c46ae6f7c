package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/ux"
	"github.com/casadocigano/fidelidade/internal/version"
)

func newVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				format = "text"
			}
			printer, err := ux.NewPrinter(format, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
			if err != nil {
				return err
			}

			info := version.GetInfo()
			if verbose {
				return printer.Print(info, info.String())
			}
			return printer.Print(info, fmt.Sprintf("fidelidade %s", info.Short()))
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	return cmd
}
