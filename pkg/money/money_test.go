package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain integer", "250", "250"},
		{"decimal", "12.75", "12.75"},
		{"grouped", "1,250.50", "1250.5"},
		{"surrounding spaces", "  42 ", "42"},
		{"empty", "", "0"},
		{"letters", "abc", "0"},
		{"mixed", "12abc", "0"},
		{"negative", "-3", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.want).Equal(Parse(tt.raw)), "got %s", Parse(tt.raw))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.00", Format(decimal.Zero))
	assert.Equal(t, "26.79", Format(decimal.RequireFromString("26.785714285714285716")))
	assert.Equal(t, "1,250.50", Format(decimal.RequireFromString("1250.5")))
	assert.Equal(t, "1,000,000.00", Format(decimal.NewFromInt(1000000)))
}
