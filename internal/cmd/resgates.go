package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/tui"
)

func newResgatesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resgates",
		Aliases: []string{"redemptions"},
		Short:   "Redeem gifts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newResgatesCriarCmd(c))
	return cmd
}

func newResgatesCriarCmd(c *cli) *cobra.Command {
	var cpf, gift string

	cmd := &cobra.Command{
		Use:     "criar [cpf]",
		Aliases: []string{"create"},
		Short:   "Redeem a gift for a customer",
		Long: `Redeem a gift for the customer with the given CPF.

The backend refuses the redemption while the customer has not reached the
store's visit goal. The gift name defaults to defaults.gift_name.

Examples:
  fidelidade resgates criar 12345678900
  fidelidade resgates criar 12345678900 --gift "Café"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cpf = args[0]
			}
			if gift == "" {
				gift = cc.Config.Defaults.GiftName
			}
			shell, err := cc.RequireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := cc.ask(&cpf, "cpf", tui.Prompt{Message: "CPF do cliente"}); err != nil {
				return err
			}

			r, err := shell.Client.Redeem(cmd.Context(), cpf, gift)
			if err != nil {
				return cc.apiError(err)
			}
			return cc.Printer.Print(r, fmt.Sprintf("Resgate #%d registrado: %s (%s)", r.RedemptionID, r.GiftName, r.When))
		},
	}

	cmd.Flags().StringVar(&cpf, "cpf", "", "customer CPF")
	cmd.Flags().StringVar(&gift, "gift", "", "gift name (default defaults.gift_name)")
	return cmd
}
