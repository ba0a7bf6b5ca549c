package storeclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

const (
	customersPath = "/api/customers"
	invoicesPath  = "/api/sales-invoices"
	receiptsPath  = "/api/official-receipts"
)

// InvoiceQuery narrows ListInvoices. Zero values are left out of the query string.
type InvoiceQuery struct {
	CustomerID  uint
	InvoiceType string
	Search      string
	OpenOnly    bool
	Page        int
	Limit       int
}

func (q InvoiceQuery) values() url.Values {
	v := url.Values{}
	if q.CustomerID != 0 {
		v.Set("customer_id", strconv.FormatUint(uint64(q.CustomerID), 10))
	}
	if q.InvoiceType != "" {
		v.Set("type", q.InvoiceType)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.OpenOnly {
		v.Set("open", "true")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ListInvoices returns one page of invoices with their balances.
func (c *Client) ListInvoices(ctx context.Context, q InvoiceQuery) ([]service.InvoiceResponse, response.Meta, error) {
	var out []service.InvoiceResponse
	meta, err := c.do(ctx, http.MethodGet, invoicesPath, q.values(), nil, &out)
	if err != nil {
		return nil, response.Meta{}, err
	}
	if meta == nil {
		meta = &response.Meta{Page: 1, Limit: len(out), Total: int64(len(out)), TotalPages: 1}
	}
	return out, *meta, nil
}

// OpenInvoices loads every invoice of customerID, walking all pages. Fully paid invoices
// are included so an edited receipt can keep its existing allocations.
func (c *Client) OpenInvoices(ctx context.Context, customerID uint) ([]model.SalesInvoice, error) {
	var all []model.SalesInvoice
	for page := 1; ; page++ {
		batch, meta, err := c.ListInvoices(ctx, InvoiceQuery{CustomerID: customerID, Page: page, Limit: pagination.MaxLimit})
		if err != nil {
			return nil, err
		}
		for _, inv := range batch {
			m, err := toModel(inv)
			if err != nil {
				return nil, err
			}
			all = append(all, m)
		}
		if page >= meta.TotalPages || len(batch) == 0 {
			return all, nil
		}
	}
}

func toModel(inv service.InvoiceResponse) (model.SalesInvoice, error) {
	date, err := time.Parse("2006-01-02", inv.InvoiceDate)
	if err != nil {
		return model.SalesInvoice{}, fmt.Errorf("invoice %d: bad invoice_date %q: %w", inv.ID, inv.InvoiceDate, err)
	}
	out := model.SalesInvoice{
		ID:                     inv.ID,
		CustomerID:             inv.CustomerID,
		BranchID:               inv.BranchID,
		VehicleID:              inv.VehicleID,
		InvoiceType:            inv.InvoiceType,
		InvoiceNumber:          inv.InvoiceNumber,
		InvoiceDate:            date,
		TotalSalesVATInclusive: inv.TotalSalesVATInclusive,
		VAT:                    inv.VAT,
		Net:                    inv.Net,
		TotalAmountPayable:     inv.TotalAmountPayable,
		BankTerms:              inv.BankTerms,
		Downpayment:            inv.Downpayment,
		AmountFinanced:         inv.AmountFinanced,
		CreatedAt:              inv.CreatedAt,
		UpdatedAt:              inv.UpdatedAt,
	}
	for _, p := range inv.Parts {
		out.Parts = append(out.Parts, model.InvoicePart{
			SalesInvoiceID:  inv.ID,
			PartNumber:      p.PartNumber,
			ItemDescription: p.ItemDescription,
			Quantity:        p.Quantity,
			UnitPrice:       p.UnitPrice,
			TotalPrice:      p.TotalPrice,
		})
	}
	return out, nil
}

func (c *Client) GetInvoice(ctx context.Context, id uint) (service.InvoiceResponse, error) {
	var out service.InvoiceResponse
	_, err := c.do(ctx, http.MethodGet, idPath(invoicesPath, id), nil, nil, &out)
	return out, err
}

// SaveInvoice creates the invoice when id is zero and replaces it otherwise.
func (c *Client) SaveInvoice(ctx context.Context, id uint, req service.SaveInvoiceRequest) (service.InvoiceResponse, error) {
	var out service.InvoiceResponse
	err := c.save(ctx, invoicesPath, id, req, &out)
	return out, err
}

func (c *Client) GetReceipt(ctx context.Context, id uint) (service.ReceiptResponse, error) {
	var out service.ReceiptResponse
	_, err := c.do(ctx, http.MethodGet, idPath(receiptsPath, id), nil, nil, &out)
	return out, err
}

// SaveReceipt creates the receipt when id is zero and replaces it otherwise.
func (c *Client) SaveReceipt(ctx context.Context, id uint, req service.SaveReceiptRequest) (service.ReceiptResponse, error) {
	var out service.ReceiptResponse
	err := c.save(ctx, receiptsPath, id, req, &out)
	return out, err
}

// ListCustomers returns one page of customers matching search.
func (c *Client) ListCustomers(ctx context.Context, search string, page, limit int) ([]service.CustomerResponse, response.Meta, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out []service.CustomerResponse
	meta, err := c.do(ctx, http.MethodGet, customersPath, q, nil, &out)
	if err != nil {
		return nil, response.Meta{}, err
	}
	if meta == nil {
		meta = &response.Meta{}
	}
	return out, *meta, nil
}
