package ocr

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfield/expensesync/internal/server/models"
)

// Extraction is the normalized result handed to the capture UI. A field the
// service did not produce, or produced with an unusable type or value, is
// null/empty rather than an error: a partial prefill is still useful.
type Extraction struct {
	ExpenseDate string           `json:"expense_date"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency"`
	VendorName  string           `json:"vendor_name"`
	Category    string           `json:"category"`
}

var (
	fenceRe    = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*[ \\t]*\\r?\\n?(.*?)```\\s*$")
	currencyRe = regexp.MustCompile(`^[A-Za-z]{3}$`)
	amountRe   = regexp.MustCompile(`[0-9][0-9.,]*`)
)

// Normalize parses the raw extraction text and applies the defaulting rules.
// It never fails: unparseable input yields an Extraction with every field
// defaulted (category "other").
func Normalize(raw string) Extraction {
	out := Extraction{Category: models.CategoryOther}

	body := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return out
	}

	if s, ok := fields["expense_date"].(string); ok {
		if _, err := time.Parse("2006-01-02", s); err == nil {
			out.ExpenseDate = s
		}
	}

	if a := parseAmountField(fields["amount"]); a != nil && a.IsPositive() {
		out.Amount = a
	}

	if s, ok := fields["currency"].(string); ok && currencyRe.MatchString(s) {
		out.Currency = strings.ToUpper(s)
	}

	if s, ok := fields["vendor_name"].(string); ok {
		out.VendorName = strings.TrimSpace(s)
	}

	if s, ok := fields["category"].(string); ok {
		out.Category = models.CoerceCategory(s)
	}

	return out
}

// parseAmountField accepts a JSON number or a free-form string. Strings
// tolerate both thousand-separator conventions: "1,234.56" and "1.234,56"
// normalize to the same value, as do bare digit runs like "10.000".
func parseAmountField(v any) *decimal.Decimal {
	switch a := v.(type) {
	case float64:
		d := decimal.NewFromFloat(a)
		return &d
	case string:
		return ParseAmount(a)
	default:
		return nil
	}
}

// ParseAmount extracts a decimal amount from receipt-style text. The last
// separator followed by exactly two digits is treated as the decimal point;
// every other separator is a thousands grouping mark.
func ParseAmount(s string) *decimal.Decimal {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "-") {
		return nil
	}
	match := amountRe.FindString(trimmed)
	if match == "" {
		return nil
	}

	lastDot := strings.LastIndex(match, ".")
	lastComma := strings.LastIndex(match, ",")
	sep := lastDot
	if lastComma > lastDot {
		sep = lastComma
	}

	intPart := match
	fracPart := ""
	if sep >= 0 && len(match)-sep-1 == 2 {
		intPart = match[:sep]
		fracPart = match[sep+1:]
	}

	digits := onlyDigits(intPart)
	if digits == "" {
		return nil
	}
	if fracPart != "" {
		digits += "." + fracPart
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return nil
	}
	return &d
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
