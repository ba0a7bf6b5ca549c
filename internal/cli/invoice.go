package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/internal/session"
	"backoffice/internal/storeclient"
	"backoffice/pkg/money"
)

func (a *app) invoiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create, preview and list sales invoices",
	}
	cmd.AddCommand(a.invoiceCreateCommand(), a.invoiceTotalsCommand(), a.invoiceListCommand())
	return cmd
}

// fillLines adds the --part rows, or the --total when there are none.
func fillLines(s *session.InvoiceSession, parts []string, total string) error {
	for i, raw := range parts {
		p, err := parsePart(raw)
		if err != nil {
			return err
		}
		s.AddPart(p.number, p.description)
		if err := s.UpdatePart(i, p.qty, p.price); err != nil {
			return err
		}
	}
	if total != "" {
		s.SetGrossTotal(total)
	}
	return nil
}

func (a *app) invoiceCreateCommand() *cobra.Command {
	var (
		h           session.InvoiceHeader
		vehicle     uint
		invoiceType string
		parts       []string
		total       string
		downpayment string
		financed    string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sales invoice",
		Example: `  backoffice invoice create --customer 3 --branch 1 --number SI-2001 --date 2024-01-05 \
    --part "OF-1:Oil filter:2:100" --part "BP-9:Brake pad:1:50"

  backoffice invoice create --type Vehicle --vehicle 4 --customer 3 --branch 1 \
    --number SI-2002 --date 2024-01-06 --total 1120000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.newStore()
			if err != nil {
				return err
			}

			s := session.NewInvoice(store)
			s.SetType(invoiceType)
			if err := fillLines(s, parts, total); err != nil {
				return err
			}
			if vehicle != 0 {
				h.VehicleID = &vehicle
			}
			h.Downpayment = money.Parse(downpayment)
			h.AmountFinanced = money.Parse(financed)
			s.Header = h

			saved, err := s.Save(cmd.Context())
			if err != nil {
				return err
			}
			a.log.Info("Sales invoice created", zap.Uint("id", saved.ID), zap.String("number", saved.InvoiceNumber))
			fmt.Fprintf(cmd.OutOrStdout(), "Sales invoice %s (id %d) saved\n", saved.InvoiceNumber, saved.ID)
			printTotals(cmd.OutOrStdout(), saved.Parts, session.Totals{
				TotalSalesVATInclusive: saved.TotalSalesVATInclusive,
				VAT:                    saved.VAT,
				Net:                    saved.Net,
				TotalAmountPayable:     saved.TotalAmountPayable,
			})
			return nil
		},
	}
	fs := cmd.Flags()
	fs.UintVar(&h.CustomerID, "customer", 0, "Customer ID")
	fs.UintVar(&h.BranchID, "branch", 0, "Branch ID")
	fs.UintVar(&vehicle, "vehicle", 0, "Vehicle ID (Vehicle invoices)")
	fs.StringVar(&invoiceType, "type", model.InvoiceTypeParts, "Invoice type: Vehicle or Parts")
	fs.StringVar(&h.InvoiceNumber, "number", "", "Invoice number")
	fs.StringVar(&h.InvoiceDate, "date", "", "Invoice date (YYYY-MM-DD)")
	fs.StringVar(&h.BankTerms, "bank-terms", "", "Bank financing terms")
	fs.StringVar(&downpayment, "downpayment", "", "Downpayment")
	fs.StringVar(&financed, "financed", "", "Amount financed")
	fs.StringArrayVar(&parts, "part", nil, "Part line number:description:qty:price (repeatable)")
	fs.StringVar(&total, "total", "", "VAT-inclusive total when there are no parts")
	return cmd
}

func (a *app) invoiceTotalsCommand() *cobra.Command {
	var (
		parts []string
		total string
	)
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Preview line totals, VAT and net without contacting the store",
		Example: `  backoffice invoice totals --part "OF-1:Oil filter:2:100" --part "BP-9:Brake pad:1:50"
  backoffice invoice totals --total 1,120,000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := session.NewInvoice(nil)
			if err := fillLines(s, parts, total); err != nil {
				return err
			}
			printTotals(cmd.OutOrStdout(), partPayloads(s.Parts()), s.Totals())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&parts, "part", nil, "Part line number:description:qty:price (repeatable)")
	cmd.Flags().StringVar(&total, "total", "", "VAT-inclusive total when there are no parts")
	return cmd
}

func (a *app) invoiceListCommand() *cobra.Command {
	var q storeclient.InvoiceQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales invoices with amount applied and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.newStore()
			if err != nil {
				return err
			}
			invoices, meta, err := store.ListInvoices(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tDATE\tTYPE\tCUSTOMER\tPAYABLE\tAPPLIED\tBALANCE")
			for _, inv := range invoices {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.InvoiceType, inv.CustomerName,
					money.Format(inv.TotalAmountPayable), money.Format(inv.AmountApplied), money.Format(inv.Balance))
			}
			w.Flush()
			fmt.Fprintf(out, "Page %d of %d (%d invoices)\n", meta.Page, meta.TotalPages, meta.Total)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.UintVar(&q.CustomerID, "customer", 0, "Only invoices of this customer")
	fs.BoolVar(&q.OpenOnly, "open", false, "Only invoices with a positive balance")
	fs.StringVar(&q.InvoiceType, "type", "", "Vehicle or Parts")
	fs.StringVar(&q.Search, "search", "", "Search by invoice number")
	fs.IntVar(&q.Page, "page", 1, "Page number")
	fs.IntVar(&q.Limit, "limit", 20, "Items per page")
	return cmd
}

func partPayloads(parts []model.InvoicePart) []service.PartPayload {
	out := make([]service.PartPayload, 0, len(parts))
	for _, p := range parts {
		out = append(out, service.PartPayload{
			PartNumber:      p.PartNumber,
			ItemDescription: p.ItemDescription,
			Quantity:        p.Quantity,
			UnitPrice:       p.UnitPrice,
			TotalPrice:      p.TotalPrice,
		})
	}
	return out
}

func printTotals(out io.Writer, parts []service.PartPayload, t session.Totals) {
	if len(parts) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PART\tDESCRIPTION\tQTY\tUNIT PRICE\tTOTAL")
		for _, p := range parts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				p.PartNumber, p.ItemDescription, p.Quantity.String(), money.Format(p.UnitPrice), money.Format(p.TotalPrice))
		}
		w.Flush()
	}
	fmt.Fprintf(out, "Total sales (VAT inclusive): %s\n", money.Format(t.TotalSalesVATInclusive))
	fmt.Fprintf(out, "VAT (12%%):                   %s\n", money.Format(t.VAT))
	fmt.Fprintf(out, "Net of VAT:                  %s\n", money.Format(t.Net))
	fmt.Fprintf(out, "Total amount payable:        %s\n", money.Format(t.TotalAmountPayable))
}
