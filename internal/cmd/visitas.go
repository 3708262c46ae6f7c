package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/tui"
)

func newVisitasCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "visitas",
		Aliases: []string{"visits"},
		Short:   "Register customer visits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newVisitasRegistrarCmd(c))
	return cmd
}

// visitSummary renders a registered visit as a two-column table.
type visitSummary struct {
	*platform.VisitResult
}

func (v visitSummary) Headers() []string { return []string{"Campo", "Valor"} }

func (v visitSummary) Rows() [][]string {
	r := v.VisitResult
	status := "Elegível para brinde"
	if !r.Eligible {
		status = fmt.Sprintf("Faltam %d", r.Remaining())
	}
	rows := [][]string{
		{"Visita", "#" + strconv.Itoa(r.VisitID)},
		{"Cliente", r.Client.Name},
		{"CPF", r.Client.CPF},
		{"Visitas", fmt.Sprintf("%d / %d", r.VisitsCount, r.Meta)},
		{"Status", status},
	}
	if r.WhatsAppURL != nil && *r.WhatsAppURL != "" {
		rows = append(rows, []string{"WhatsApp", *r.WhatsAppURL})
	}
	if r.WhatsAppImageURL != nil && *r.WhatsAppImageURL != "" {
		rows = append(rows, []string{"Arte", *r.WhatsAppImageURL})
	}
	return rows
}

func newVisitasRegistrarCmd(c *cli) *cobra.Command {
	var cpf string

	cmd := &cobra.Command{
		Use:     "registrar [cpf]",
		Aliases: []string{"register"},
		Short:   "Register a visit for a customer",
		Long: `Register a visit for the customer with the given CPF.

The result shows the visit count against the store goal and, when the
backend provides them, the WhatsApp message link and the art to share.

Examples:
  fidelidade visitas registrar 12345678900
  fidelidade visitas registrar --cpf 12345678900 -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cpf = args[0]
			}
			shell, err := cc.RequireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := cc.ask(&cpf, "cpf", tui.Prompt{Message: "CPF do cliente"}); err != nil {
				return err
			}

			res, err := shell.Client.RegisterVisit(cmd.Context(), cpf)
			if err != nil {
				return cc.apiError(err)
			}
			return cc.Printer.Print(res, visitSummary{res})
		},
	}

	cmd.Flags().StringVar(&cpf, "cpf", "", "customer CPF")
	return cmd
}
