package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/casadocigano/fidelidade/internal/app"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/export"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/tui"
	"github.com/casadocigano/fidelidade/internal/ux"
)

func newClientesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clientes",
		Aliases: []string{"customers"},
		Short:   "List, register and export customers",
		Long: `List, register and export loyalty customers.

Examples:
  fidelidade clientes list --cpf 123 --page 2
  fidelidade clientes create --name "Maria" --cpf 12345678900 --phone 11999990000
  fidelidade clientes export --output clientes.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newClientesListCmd(c),
		newClientesCreateCmd(c),
		newClientesExportCmd(c),
	)
	return cmd
}

// customerList is the machine-readable form of one listed page.
type customerList struct {
	Items   []platform.Customer `json:"items" yaml:"items"`
	Total   int                 `json:"total" yaml:"total"`
	Page    int                 `json:"page" yaml:"page"`
	PerPage int                 `json:"per_page" yaml:"per_page"`
	Pages   int                 `json:"pages" yaml:"pages"`
}

func newClientesListCmd(c *cli) *cobra.Command {
	var (
		cpf     string
		page    int
		perPage int
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers, optionally filtered by CPF",
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
			if perPage <= 0 {
				perPage = cc.Config.Defaults.PerPage
			}

			if all {
				items, err := fetchAllCustomers(cmd.Context(), shell.Client, cpf, perPage)
				if err != nil {
					return cc.apiError(err)
				}
				out := customerList{Items: items, Total: len(items), Page: 1, PerPage: len(items), Pages: 1}
				return cc.Printer.Print(out, customerTable(items))
			}

			pager := app.NewPager(perPage)
			pager.Search(cpf)
			if page > 1 {
				pager.Page = page
			}
			res, err := shell.Client.ListCustomers(cmd.Context(), pager.Query())
			if err != nil {
				return cc.apiError(err)
			}
			pager.Update(res)

			out := customerList{
				Items:   res.Items,
				Total:   res.Total,
				Page:    pager.Page,
				PerPage: pager.PerPage,
				Pages:   pager.TotalPages(),
			}
			if err := cc.Printer.Print(out, customerTable(res.Items)); err != nil {
				return err
			}
			if cc.Printer.Format() == "text" {
				fmt.Fprintf(cc.Out, "Página %d de %d · %d clientes\n", out.Page, out.Pages, out.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cpf, "cpf", "", "filter by CPF (partial match)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "page size (default defaults.per_page)")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.MarkFlagsMutuallyExclusive("page", "all")
	return cmd
}

// fetchAllCustomers walks the pager from page 1 until the last page.
func fetchAllCustomers(ctx context.Context, client *platform.Client, cpf string, perPage int) ([]platform.Customer, error) {
	pager := app.NewPager(perPage)
	pager.Search(cpf)

	var items []platform.Customer
	for {
		res, err := client.ListCustomers(ctx, pager.Query())
		if err != nil {
			return nil, err
		}
		pager.Update(res)
		items = append(items, res.Items...)
		if len(res.Items) == 0 || !pager.Next() {
			return items, nil
		}
	}
}

func customerTable(items []platform.Customer) ux.Table {
	t := ux.Table{Head: []string{"ID", "Nome", "CPF", "Telefone", "Email", "Nascimento", "Loja"}}
	for _, cu := range items {
		t.Body = append(t.Body, []string{
			strconv.Itoa(cu.ID),
			cu.Name,
			cu.CPF,
			cu.Phone,
			orDash(cu.Email),
			orDash(cu.Birthday),
			platform.StoreName(nil, cu.StoreID),
		})
	}
	return t
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func newClientesCreateCmd(c *cli) *cobra.Command {
	var in platform.NewCustomer

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a customer",
		Long: `Register a customer.

Name and CPF are required and prompted for when missing. The birthday uses
the YYYY-MM-DD layout.`,
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

			if err := cc.ask(&in.Name, "name", tui.Prompt{Message: "Nome"}); err != nil {
				return err
			}
			if err := cc.ask(&in.CPF, "cpf", tui.Prompt{Message: "CPF", Placeholder: "somente números"}); err != nil {
				return err
			}

			id, err := shell.Client.CreateCustomer(cmd.Context(), in)
			if err != nil {
				return cc.apiError(err)
			}
			return cc.Printer.Print(map[string]int{"id": id}, fmt.Sprintf("Cliente #%d criado.", id))
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&in.CPF, "cpf", "", "customer CPF")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Birthday, "birthday", "", "birthday as YYYY-MM-DD")
	return cmd
}

func newClientesExportCmd(c *cli) *cobra.Command {
	var (
		output    string
		cpf       string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export customers to a spreadsheet",
		Long: `Fetch every customer page and write them to an .xlsx workbook.

An existing file is kept unless --overwrite is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.context(cmd)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(output); err == nil {
					return errors.New(errors.ErrCodeFileWriteFailed, output+" already exists").
						WithSuggestion("Pass --overwrite to replace it")
				}
			}

			shell, err := cc.RequireSession(cmd.Context())
			if err != nil {
				return err
			}
			items, err := fetchAllCustomers(cmd.Context(), shell.Client, cpf, cc.Config.Defaults.PerPage)
			if err != nil {
				return cc.apiError(err)
			}

			storeName := func(id *int) string { return platform.StoreName(nil, id) }
			if err := export.WriteCustomersFile(output, items, storeName); err != nil {
				return err
			}

			summary := map[string]any{"file": output, "rows": len(items)}
			return cc.Printer.Print(summary, fmt.Sprintf("%d clientes exportados para %s", len(items), output))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "clientes.xlsx", "workbook to write")
	cmd.Flags().StringVar(&cpf, "cpf", "", "export only customers matching this CPF")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")
	return cmd
}
