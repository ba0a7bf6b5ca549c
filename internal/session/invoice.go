package session

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/internal/totals"
	"backoffice/pkg/money"
)

// InvoiceStore is what an invoice form needs from the store.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id uint) (service.InvoiceResponse, error)
	// SaveInvoice creates the invoice when id is zero and replaces it otherwise.
	SaveInvoice(ctx context.Context, id uint, req service.SaveInvoiceRequest) (service.InvoiceResponse, error)
}

// InvoiceHeader holds the fields of an invoice form that do not feed the totals.
type InvoiceHeader struct {
	CustomerID     uint
	BranchID       uint
	VehicleID      *uint
	InvoiceNumber  string
	InvoiceDate    string // 2006-01-02
	BankTerms      string
	Downpayment    decimal.Decimal
	AmountFinanced decimal.Decimal
}

// Totals are the derived amounts shown under the parts table.
type Totals struct {
	TotalSalesVATInclusive decimal.Decimal
	VAT                    decimal.Decimal
	Net                    decimal.Decimal
	TotalAmountPayable     decimal.Decimal
}

// InvoiceSession is one sales invoice being created or edited. Every edit that feeds
// the totals recomputes them before returning.
type InvoiceSession struct {
	ID     uint
	Header InvoiceHeader

	invoiceType string
	gross       decimal.Decimal // typed total, used when there are no parts
	parts       []model.InvoicePart
	totals      Totals
	store       InvoiceStore
}

// NewInvoice starts an empty Parts invoice form.
func NewInvoice(store InvoiceStore) *InvoiceSession {
	s := &InvoiceSession{store: store, invoiceType: model.InvoiceTypeParts}
	s.recompute()
	return s
}

// EditInvoice loads invoice id into a new session.
func EditInvoice(ctx context.Context, store InvoiceStore, id uint) (*InvoiceSession, error) {
	saved, err := store.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice %d: %w", id, err)
	}

	s := &InvoiceSession{
		ID: saved.ID,
		Header: InvoiceHeader{
			CustomerID:     saved.CustomerID,
			BranchID:       saved.BranchID,
			VehicleID:      saved.VehicleID,
			InvoiceNumber:  saved.InvoiceNumber,
			InvoiceDate:    saved.InvoiceDate,
			BankTerms:      saved.BankTerms,
			Downpayment:    saved.Downpayment,
			AmountFinanced: saved.AmountFinanced,
		},
		invoiceType: saved.InvoiceType,
		gross:       saved.TotalSalesVATInclusive,
		store:       store,
	}
	for _, p := range saved.Parts {
		s.parts = append(s.parts, model.InvoicePart{
			PartNumber:      p.PartNumber,
			ItemDescription: p.ItemDescription,
			Quantity:        p.Quantity,
			UnitPrice:       p.UnitPrice,
		})
	}
	s.recompute()
	return s, nil
}

func (s *InvoiceSession) Type() string { return s.invoiceType }

// SetType switches between Vehicle and Parts. Parts rows are kept but only count
// toward the totals of a Parts invoice.
func (s *InvoiceSession) SetType(invoiceType string) {
	s.invoiceType = invoiceType
	s.recompute()
}

// AddPart appends an empty row with quantity 1 and price 0.
func (s *InvoiceSession) AddPart(partNumber, description string) {
	s.parts = append(s.parts, model.InvoicePart{
		PartNumber:      partNumber,
		ItemDescription: description,
		Quantity:        decimal.NewFromInt(1),
		UnitPrice:       decimal.Zero,
	})
	s.recompute()
}

func (s *InvoiceSession) RemovePart(i int) error {
	if i < 0 || i >= len(s.parts) {
		return fmt.Errorf("part %d: %w", i, ErrIndexOutOfRange)
	}
	s.parts = append(s.parts[:i], s.parts[i+1:]...)
	s.recompute()
	return nil
}

// UpdatePart sets quantity and unit price of row i from raw input; non-numeric text counts as zero.
func (s *InvoiceSession) UpdatePart(i int, rawQty, rawPrice string) error {
	if i < 0 || i >= len(s.parts) {
		return fmt.Errorf("part %d: %w", i, ErrIndexOutOfRange)
	}
	s.parts[i].Quantity = money.Parse(rawQty)
	s.parts[i].UnitPrice = money.Parse(rawPrice)
	s.recompute()
	return nil
}

// SetGrossTotal sets the VAT-inclusive total typed by the user. It is overridden by the
// parts sum whenever a Parts invoice has rows.
func (s *InvoiceSession) SetGrossTotal(raw string) {
	s.gross = money.Parse(raw)
	s.recompute()
}

// Parts returns a copy of the rows with their line totals.
func (s *InvoiceSession) Parts() []model.InvoicePart {
	return append([]model.InvoicePart(nil), s.parts...)
}

func (s *InvoiceSession) Totals() Totals { return s.totals }

func (s *InvoiceSession) countsParts() bool {
	return s.invoiceType == model.InvoiceTypeParts && len(s.parts) > 0
}

func (s *InvoiceSession) recompute() {
	in := model.SalesInvoice{TotalSalesVATInclusive: s.gross}
	if s.countsParts() {
		in.Parts = s.parts
	}
	out := totals.Recompute(in)
	if s.countsParts() {
		s.parts = out.Parts
	}
	s.totals = Totals{
		TotalSalesVATInclusive: out.TotalSalesVATInclusive,
		VAT:                    out.VAT,
		Net:                    out.Net,
		TotalAmountPayable:     out.TotalAmountPayable,
	}
}

// Payload builds the request body. Parts are sent only for a Parts invoice with rows.
func (s *InvoiceSession) Payload() service.SaveInvoiceRequest {
	req := service.SaveInvoiceRequest{
		CustomerID:             s.Header.CustomerID,
		BranchID:               s.Header.BranchID,
		InvoiceType:            s.invoiceType,
		InvoiceNumber:          s.Header.InvoiceNumber,
		InvoiceDate:            s.Header.InvoiceDate,
		TotalSalesVATInclusive: s.totals.TotalSalesVATInclusive,
		VAT:                    s.totals.VAT,
		Net:                    s.totals.Net,
		TotalAmountPayable:     s.totals.TotalAmountPayable,
		BankTerms:              s.Header.BankTerms,
		Downpayment:            s.Header.Downpayment,
		AmountFinanced:         s.Header.AmountFinanced,
	}
	if s.invoiceType == model.InvoiceTypeVehicle {
		req.VehicleID = s.Header.VehicleID
	}
	if s.countsParts() {
		for _, p := range s.parts {
			req.Parts = append(req.Parts, service.PartPayload{
				PartNumber:      p.PartNumber,
				ItemDescription: p.ItemDescription,
				Quantity:        p.Quantity,
				UnitPrice:       p.UnitPrice,
				TotalPrice:      p.TotalPrice,
			})
		}
	}
	return req
}

// Validate checks the required fields. It never touches the store.
func (s *InvoiceSession) Validate() error {
	verr := &ValidationError{}
	if err := checkStruct(s.Payload(), verr); err != nil {
		return err
	}
	if s.invoiceType == model.InvoiceTypeVehicle && (s.Header.VehicleID == nil || *s.Header.VehicleID == 0) {
		verr.add("vehicle_id", "is required")
	}
	return verr.orNil()
}

// Save validates and then creates or updates the invoice.
func (s *InvoiceSession) Save(ctx context.Context) (service.InvoiceResponse, error) {
	if err := s.Validate(); err != nil {
		return service.InvoiceResponse{}, err
	}
	saved, err := s.store.SaveInvoice(ctx, s.ID, s.Payload())
	if err != nil {
		return service.InvoiceResponse{}, err
	}
	s.ID = saved.ID
	return saved, nil
}
