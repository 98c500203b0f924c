package ocr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FullRecord(t *testing.T) {
	raw := `{"expense_date":"2024-03-05","amount":42.50,"currency":"eur","vendor_name":" ACME Fuel ","category":"Fuel"}`

	out := Normalize(raw)
	assert.Equal(t, "2024-03-05", out.ExpenseDate)
	require.NotNil(t, out.Amount)
	assert.True(t, out.Amount.Equal(decimal.RequireFromString("42.5")))
	assert.Equal(t, "EUR", out.Currency)
	assert.Equal(t, "ACME Fuel", out.VendorName)
	assert.Equal(t, "fuel", out.Category)
}

func TestNormalize_FencedResponse(t *testing.T) {
	raw := "```json\n{\"vendor_name\":\"Cafe\",\"category\":\"meals\"}\n```"

	out := Normalize(raw)
	assert.Equal(t, "Cafe", out.VendorName)
	assert.Equal(t, "meals", out.Category)
	assert.Nil(t, out.Amount)
}

func TestNormalize_DefaultsInsteadOfFailing(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "receipt says hello"},
		{"wrong types", `{"expense_date":20240305,"amount":{"v":1},"currency":123,"vendor_name":null}`},
		{"bad values", `{"expense_date":"05.03.2024","amount":"-5","currency":"EURO","category":"spaceships"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.raw)
			assert.Empty(t, out.ExpenseDate)
			assert.Nil(t, out.Amount)
			assert.Empty(t, out.Currency)
			assert.Empty(t, out.VendorName)
			assert.Equal(t, "other", out.Category)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"10.000", "10000"},
		{"10,000", "10000"},
		{"42", "42"},
		{"Rp 12.500,00", "12500.00"},
		{"$99.99", "99.99"},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.in)
		require.NotNil(t, got, tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s -> %s", tt.in, got)
	}

	assert.Nil(t, ParseAmount("no numbers here"))
	assert.Nil(t, ParseAmount(""))
}
