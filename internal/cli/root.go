// Package cli wires the receipt and invoice form sessions to cobra commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"backoffice/internal/service"
	"backoffice/internal/session"
	"backoffice/internal/storeclient"
	"backoffice/pkg/response"
)

var version = "1.0.0"

// Store is the slice of the REST store the commands use.
type Store interface {
	session.ReceiptStore
	session.InvoiceStore
	ListInvoices(ctx context.Context, q storeclient.InvoiceQuery) ([]service.InvoiceResponse, response.Meta, error)
}

// StoreFactory opens the store lazily so offline commands never need it.
type StoreFactory func() (Store, error)

type app struct {
	log      *zap.Logger
	newStore StoreFactory
}

// NewRootCommand builds the backoffice command tree.
func NewRootCommand(newStore StoreFactory, log *zap.Logger) *cobra.Command {
	a := &app{log: log, newStore: newStore}

	root := &cobra.Command{
		Use:   "backoffice",
		Short: "Dealer back-office CLI for sales invoices and official receipts",
		Long: `backoffice drives the sales invoice and official receipt forms from the
command line. Invoices get their VAT split recomputed on every edit and
receipts can be applied across the customer's sales invoices.

The REST store address comes from BACKOFFICE_STORE_BASE_URL.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(a.receiptCommand(), a.invoiceCommand())
	return root
}
