package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is the durable server-side expense record. Rows are append-only:
// created exactly once per successfully synced draft, never updated or
// deleted by this system.
type Expense struct {
	ID          string
	UserID      string
	ProjectID   string
	Amount      decimal.Decimal
	Currency    string
	VendorName  string
	Category    string
	ExpenseDate string
	ReceiptKey  string
	ReceiptURL  string
	CreatedAt   time.Time
}

// Categories every record is coerced into. Anything unrecognized becomes
// CategoryOther.
const (
	CategoryTravel    = "travel"
	CategoryMeals     = "meals"
	CategoryLodging   = "lodging"
	CategorySupplies  = "supplies"
	CategoryEquipment = "equipment"
	CategoryServices  = "services"
	CategoryFuel      = "fuel"
	CategoryOther     = "other"
)

var knownCategories = map[string]struct{}{
	CategoryTravel:    {},
	CategoryMeals:     {},
	CategoryLodging:   {},
	CategorySupplies:  {},
	CategoryEquipment: {},
	CategoryServices:  {},
	CategoryFuel:      {},
	CategoryOther:     {},
}

// CoerceCategory lower-cases and trims a free-form category and maps
// anything outside the fixed set to CategoryOther.
func CoerceCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := knownCategories[c]; ok {
		return c
	}
	return CategoryOther
}
