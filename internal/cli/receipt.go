package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"backoffice/internal/service"
	"backoffice/internal/session"
	"backoffice/pkg/money"
)

type receiptFlags struct {
	customer uint
	branch   uint
	number   string
	date     string
	amount   string
	note     string
	payments []string
	apply    []string
	unapply  []uint
}

func (f *receiptFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.UintVar(&f.customer, "customer", 0, "Customer ID")
	fs.UintVar(&f.branch, "branch", 0, "Branch ID")
	fs.StringVar(&f.number, "number", "", "Receipt number")
	fs.StringVar(&f.date, "date", "", "Receipt date (YYYY-MM-DD)")
	fs.StringVar(&f.amount, "amount", "", "Amount received")
	fs.StringVar(&f.note, "note", "", "Note")
	fs.StringArrayVar(&f.payments, "payment", nil, "Payment line method:reference:amount[:remarks] (repeatable)")
	fs.StringArrayVar(&f.apply, "apply", nil, "Apply to a sales invoice, invoiceID=amount (repeatable)")
}

func (a *app) receiptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Create and edit official receipts",
	}
	cmd.AddCommand(a.receiptCreateCommand(), a.receiptEditCommand())
	return cmd
}

func (a *app) receiptCreateCommand() *cobra.Command {
	f := &receiptFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a payment and apply it to the customer's sales invoices",
		Example: `  backoffice receipt create --customer 3 --branch 1 --number OR-1001 \
    --date 2024-02-10 --amount 1500 --payment Cash::1500 --apply 7=1000 --apply 8=500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.newStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s := session.NewReceipt(store)
			if f.customer != 0 {
				if err := s.SelectCustomer(ctx, f.customer); err != nil {
					return err
				}
			}
			s.Header = session.ReceiptHeader{
				BranchID:      f.branch,
				ReceiptNumber: f.number,
				ReceiptDate:   f.date,
				Note:          f.note,
			}
			s.SetAmount(f.amount)
			if err := applyPayments(s, f.payments); err != nil {
				return err
			}
			if err := applyAllocations(s, f.apply); err != nil {
				return err
			}

			saved, err := s.Save(ctx)
			if err != nil {
				return err
			}
			a.log.Info("Receipt created", zap.Uint("id", saved.ID), zap.String("number", saved.ReceiptNumber))
			printReceipt(cmd.OutOrStdout(), saved)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) receiptEditCommand() *cobra.Command {
	f := &receiptFlags{}
	cmd := &cobra.Command{
		Use:   "edit <receipt-id>",
		Short: "Change a saved receipt; only the flags given are changed",
		Long: `Load a receipt, re-fetch its customer's invoices and restore the saved
allocations, then apply the flags given. Changing --customer clears all
allocations before --apply is processed. --payment replaces every payment line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := a.newStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s, err := session.EditReceipt(ctx, store, id)
			if err != nil {
				return err
			}

			fs := cmd.Flags()
			if fs.Changed("customer") && f.customer != s.CustomerID() {
				if err := s.SelectCustomer(ctx, f.customer); err != nil {
					return err
				}
			}
			if fs.Changed("branch") {
				s.Header.BranchID = f.branch
			}
			if fs.Changed("number") {
				s.Header.ReceiptNumber = f.number
			}
			if fs.Changed("date") {
				s.Header.ReceiptDate = f.date
			}
			if fs.Changed("amount") {
				s.SetAmount(f.amount)
			}
			if fs.Changed("note") {
				s.Header.Note = f.note
			}
			if fs.Changed("payment") {
				for len(s.Payments()) > 0 {
					_ = s.RemovePayment(0)
				}
				if err := applyPayments(s, f.payments); err != nil {
					return err
				}
			}
			for _, invoiceID := range f.unapply {
				if s.Tracker().IsApplied(invoiceID) {
					if err := s.Tracker().Toggle(invoiceID); err != nil {
						return err
					}
				}
			}
			if err := applyAllocations(s, f.apply); err != nil {
				return err
			}

			saved, err := s.Save(ctx)
			if err != nil {
				return err
			}
			a.log.Info("Receipt updated", zap.Uint("id", saved.ID), zap.String("number", saved.ReceiptNumber))
			printReceipt(cmd.OutOrStdout(), saved)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().UintSliceVar(&f.unapply, "unapply", nil, "Remove the allocation for these invoice IDs")
	return cmd
}

func applyPayments(s *session.ReceiptSession, raw []string) error {
	for _, r := range raw {
		p, err := parsePayment(r)
		if err != nil {
			return err
		}
		s.AddPayment(p)
	}
	return nil
}

// applyAllocations toggles each invoice on (when not yet applied) and sets its amount.
func applyAllocations(s *session.ReceiptSession, raw []string) error {
	t := s.Tracker()
	for _, r := range raw {
		invoiceID, amount, err := parseApply(r)
		if err != nil {
			return err
		}
		if !t.IsApplied(invoiceID) {
			if err := t.Toggle(invoiceID); err != nil {
				return fmt.Errorf("invoice %d: %w", invoiceID, err)
			}
		}
		if err := t.SetAppliedAmount(invoiceID, amount); err != nil {
			return fmt.Errorf("invoice %d: %w", invoiceID, err)
		}
	}
	return nil
}

func printReceipt(out io.Writer, r service.ReceiptResponse) {
	fmt.Fprintf(out, "Receipt %s (id %d) saved\n", r.ReceiptNumber, r.ID)
	fmt.Fprintf(out, "Customer: %s  Branch: %s  Date: %s\n", r.CustomerName, r.BranchName, r.ReceiptDate)
	fmt.Fprintf(out, "Amount:   %s\n", money.Format(r.Amount))
	if len(r.SalesInvoice) == 0 {
		fmt.Fprintln(out, "No invoices applied")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "INVOICE\tAPPLIED\t")
	for _, a := range r.SalesInvoice {
		fmt.Fprintf(w, "%d\t%s\t\n", a.SalesInvoiceID, money.Format(a.AppliedAmount))
	}
	w.Flush()
	fmt.Fprintf(out, "Total applied: %s\n", money.Format(r.TotalApplied))
}
