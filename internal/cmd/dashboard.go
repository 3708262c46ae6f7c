package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/export"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/ux"
)

func newDashboardCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard counters and birthdays",
		Long: `Show the dashboard counters and this month's birthdays.

Examples:
  fidelidade dashboard kpis
  fidelidade dashboard aniversariantes -f json
  fidelidade dashboard export --output ~/planilhas`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newDashboardKPIsCmd(c),
		newDashboardBirthdaysCmd(c),
		newDashboardExportCmd(c),
	)
	return cmd
}

func newDashboardKPIsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Show visits, customers and redemptions for the last 30 days",
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

			k, err := shell.Client.KPIs(cmd.Context())
			if err != nil {
				return cc.apiError(err)
			}
			t := ux.Table{
				Head: []string{"Indicador", "Valor"},
				Body: [][]string{
					{"Visitas (30 dias)", strconv.Itoa(k.Visitas30d)},
					{"Clientes", strconv.Itoa(k.ClientesTotal)},
					{"Resgates (30 dias)", strconv.Itoa(k.Resgates30d)},
				},
			}
			return cc.Printer.Print(k, t)
		},
	}
}

func newDashboardBirthdaysCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "aniversariantes",
		Aliases: []string{"birthdays"},
		Short:   "List customers with a birthday this month",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.RequireSession(cmd.Context())
			if err != nil {
				return err
			}

			list, err := shell.Client.Birthdays(cmd.Context())
			if err != nil {
				return cc.apiError(err)
			}
			if list == nil {
				list = []platform.BirthdayCustomer{}
			}
			if len(list) == 0 {
				return cc.Printer.Print(list, "Nenhum aniversariante este mês.")
			}

			t := ux.Table{Head: []string{"ID", "Nome", "CPF", "Nascimento"}}
			for _, b := range list {
				t.Body = append(t.Body, []string{strconv.Itoa(b.ID), b.Name, b.CPF, orDash(b.Birthday)})
			}
			return cc.Printer.Print(list, t)
		},
	}
}

// exportResult describes a saved birthday export.
type exportResult struct {
	File   string   `json:"file" yaml:"file"`
	Bytes  int      `json:"bytes" yaml:"bytes"`
	Sheet  string   `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Header []string `json:"header,omitempty" yaml:"header,omitempty"`
	Rows   int      `json:"rows" yaml:"rows"`
}

func (r exportResult) String() string {
	if r.Sheet == "" {
		return fmt.Sprintf("Planilha salva em %s (%d bytes)", r.File, r.Bytes)
	}
	return fmt.Sprintf("Planilha salva em %s: %d aniversariantes na aba %s", r.File, r.Rows, r.Sheet)
}

func newDashboardExportCmd(c *cli) *cobra.Command {
	var (
		dir       string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the birthday spreadsheet",
		Long: `Download the birthday spreadsheet into a directory.

The file name comes from the server. An existing file is kept unless
--overwrite is given. The saved workbook is opened to report its rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			shell, err := cc.RequireSession(cmd.Context())
			if err != nil {
				return err
			}

			d, err := shell.Client.ExportBirthdays(cmd.Context())
			if err != nil {
				return cc.apiError(err)
			}
			path, err := export.SaveDownload(dir, d, overwrite)
			if err != nil {
				return err
			}

			res := exportResult{File: path, Bytes: len(d.Data)}
			if s, err := export.Inspect(d.Data); err != nil {
				cc.Logger.WithError(err).Warn("saved export is not a readable workbook", "file", path)
			} else {
				res.Sheet = s.Sheet
				res.Header = s.Header
				res.Rows = s.Rows
			}
			return cc.Printer.Print(res, res)
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", ".", "directory to save into")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")
	return cmd
}
