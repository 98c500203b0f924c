package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfield/expensesync/internal/client/api"
	"github.com/openfield/expensesync/internal/client/models"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// Capture records a new expense draft. The draft always lands in the local
// queue first and is reported as saved locally; reaching the server is the
// sync engine's job. When the server is reachable the receipt is run through
// OCR to prefill the prompts, but every field stays editable and capture
// works identically with no connectivity at all.
func (a *App) Capture(ctx context.Context) error {
	projectID, err := GetTextWithDefault(a.reader, "Project", a.config.DefaultProjectID, os.Stdout)
	if err != nil {
		return err
	}
	if projectID == "" {
		return fmt.Errorf("project is required")
	}

	path, err := getSimpleText(a.reader, "Receipt image path", os.Stdout)
	if err != nil {
		return err
	}
	raw, err := readFile(path)
	if err != nil {
		return fmt.Errorf("read receipt image: %w", err)
	}
	imageBase64 := base64.StdEncoding.EncodeToString(raw)
	mime := http.DetectContentType(raw)

	extraction := a.tryExtract(ctx, imageBase64, mime)

	amountDefault := ""
	if extraction.Amount != nil {
		amountDefault = extraction.Amount.String()
	}
	amountStr, err := GetTextWithDefault(a.reader, "Amount", amountDefault, os.Stdout)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("amount must be a positive number")
	}

	currencyDefault := extraction.Currency
	if currencyDefault == "" {
		currencyDefault = a.config.DefaultCurrency
	}
	currency, err := GetTextWithDefault(a.reader, "Currency", currencyDefault, os.Stdout)
	if err != nil {
		return err
	}

	vendor, err := GetTextWithDefault(a.reader, "Vendor", extraction.VendorName, os.Stdout)
	if err != nil {
		return err
	}

	categoryDefault := extraction.Category
	if categoryDefault == "" {
		categoryDefault = "other"
	}
	category, err := GetTextWithDefault(a.reader, "Category", categoryDefault, os.Stdout)
	if err != nil {
		return err
	}

	dateDefault := extraction.ExpenseDate
	if dateDefault == "" {
		dateDefault = time.Now().Format("2006-01-02")
	}
	expenseDate, err := GetTextWithDefault(a.reader, "Date (YYYY-MM-DD)", dateDefault, os.Stdout)
	if err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", expenseDate); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}

	id, err := a.queue.Enqueue(ctx, &models.Draft{
		ProjectID:   projectID,
		Amount:      amount,
		Currency:    currency,
		VendorName:  vendor,
		Category:    category,
		ExpenseDate: expenseDate,
		ImageBase64: imageBase64,
		ImageMime:   mime,
	})
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	n, err := a.queue.Count(ctx)
	if err != nil {
		n = -1
	}
	printlnFn(fmt.Sprintf("Draft #%d saved locally (%d queued).", id, n))

	a.controller.RequestSync()
	return nil
}

// tryExtract asks the server to OCR the receipt. Extraction is best effort:
// any failure (offline, logged out, unreadable image) yields an empty
// prefill and the user types the fields in.
func (a *App) tryExtract(ctx context.Context, imageBase64, mime string) *api.Extraction {
	if !a.api.HasToken() || !a.controller.Status().Online {
		return &api.Extraction{}
	}

	extraction, err := a.api.ExtractReceipt(ctx, imageBase64, mime)
	if err != nil {
		a.log.Warn(ctx, "receipt extraction failed", "error", err)
		return &api.Extraction{}
	}
	return extraction
}
