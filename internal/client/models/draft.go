// Package models defines client-side data models for the field-capture CLI.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Draft is a captured-but-unsynced expense sitting in the local queue. It is
// mutable only in its retry bookkeeping: once enqueued, the descriptive
// fields never change, and the row is deleted only after a successful sync.
type Draft struct {
	// ID is assigned by the store on insert; zero until persisted.
	ID int64

	// ProjectID names the owning project. Immutable once set.
	ProjectID string

	// Amount is the positive expense amount; required for sync eligibility.
	Amount decimal.Decimal

	// Currency is a 3-letter uppercase code.
	Currency string

	VendorName  string
	Category    string
	ExpenseDate string

	// ImageBase64 holds the receipt image; ImageMime its declared media type.
	ImageBase64 string
	ImageMime   string

	// CreatedAt is the capture timestamp, set once at enqueue.
	CreatedAt time.Time

	// RetryCount grows by one on every failed sync attempt and never resets.
	RetryCount int

	// LastError is the most recent failure message, overwritten each time.
	LastError string
}
