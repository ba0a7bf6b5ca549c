// Package model holds the gorm entities of the dealer back office.
package model

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers, the same shape the admin UI posts.
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout is the wire format for calendar dates (receipt_date, invoice_date, date_of_birth).
const DateLayout = "2006-01-02"
