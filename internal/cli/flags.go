package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"backoffice/internal/service"
	"backoffice/pkg/money"
)

type partFlag struct {
	number      string
	description string
	qty         string
	price       string
}

// parsePart reads number:description:qty:price. The description may contain colons.
func parsePart(raw string) (partFlag, error) {
	fields := strings.Split(raw, ":")
	if len(fields) < 4 {
		return partFlag{}, fmt.Errorf("invalid --part %q, want number:description:qty:price", raw)
	}
	n := len(fields)
	return partFlag{
		number:      fields[0],
		description: strings.Join(fields[1:n-2], ":"),
		qty:         fields[n-2],
		price:       fields[n-1],
	}, nil
}

// parsePayment reads method:reference:amount[:remarks].
func parsePayment(raw string) (service.PaymentPayload, error) {
	fields := strings.SplitN(raw, ":", 4)
	if len(fields) < 3 {
		return service.PaymentPayload{}, fmt.Errorf("invalid --payment %q, want method:reference:amount[:remarks]", raw)
	}
	p := service.PaymentPayload{
		Method:    fields[0],
		Reference: fields[1],
		Amount:    money.Parse(fields[2]),
	}
	if len(fields) == 4 {
		p.Remarks = fields[3]
	}
	return p, nil
}

// parseApply reads invoiceID=amount.
func parseApply(raw string) (uint, decimal.Decimal, error) {
	id, amount, ok := strings.Cut(raw, "=")
	if !ok {
		return 0, decimal.Zero, fmt.Errorf("invalid --apply %q, want invoiceID=amount", raw)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || n == 0 {
		return 0, decimal.Zero, fmt.Errorf("invalid invoice id in --apply %q", raw)
	}
	return uint(n), money.Parse(amount), nil
}

func parseID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(n), nil
}
