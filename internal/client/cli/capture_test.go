package cli

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfield/expensesync/internal/client/api"
	"github.com/openfield/expensesync/internal/client/config"
	"github.com/openfield/expensesync/internal/client/store"
	"github.com/openfield/expensesync/internal/client/sync"
	"github.com/openfield/expensesync/internal/logging"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nrest-of-image")

type stubAPI struct {
	token   bool
	pingErr error

	registered [][2]string
	logins     [][2]string
	loginErr   error

	extraction *api.Extraction
	extractErr error
	extracts   int
}

func (s *stubAPI) Register(_ context.Context, username, password string) error {
	s.registered = append(s.registered, [2]string{username, password})
	return nil
}

func (s *stubAPI) Login(_ context.Context, username, password string) error {
	if s.loginErr != nil {
		return s.loginErr
	}
	s.logins = append(s.logins, [2]string{username, password})
	s.token = true
	return nil
}

func (s *stubAPI) ClearToken()    { s.token = false }
func (s *stubAPI) HasToken() bool { return s.token }

func (s *stubAPI) Ping(context.Context) error { return s.pingErr }

func (s *stubAPI) ExtractReceipt(context.Context, string, string) (*api.Extraction, error) {
	s.extracts++
	if s.extractErr != nil {
		return nil, s.extractErr
	}
	return s.extraction, nil
}

func (s *stubAPI) PresignReceipt(context.Context, string, string) (*api.PresignedUpload, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubAPI) CreateExpense(context.Context, *api.ExpenseRecord) error {
	return fmt.Errorf("not implemented")
}

func newTestApp(t *testing.T, stub *stubAPI, input string) *App {
	t.Helper()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	queue, db, err := store.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	engine := sync.NewEngine(stub, queue, log)
	source := sync.NewChanEventSource()
	controller := sync.NewController(engine, queue, stub, log, sync.Intervals{
		OnlineCheck:  10 * time.Millisecond,
		Sync:         time.Hour,
		CountRefresh: time.Hour,
	}, source)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	return &App{
		config:     cfg,
		api:        stub,
		queue:      queue,
		controller: controller,
		engine:     engine,
		source:     source,
		log:        log,
		reader:     bufio.NewReader(strings.NewReader(input)),
	}
}

func stubReadFile(t *testing.T, content []byte) {
	t.Helper()
	orig := readFile
	readFile = func(string) ([]byte, error) { return content, nil }
	t.Cleanup(func() { readFile = orig })
}

func TestCapture_OfflineQueuesDraft(t *testing.T) {
	muteOutput(t)
	stubReadFile(t, pngBytes)

	stub := &stubAPI{pingErr: fmt.Errorf("unreachable")}
	// project, image path, amount, currency (default), vendor, category (default), date
	app := newTestApp(t, stub, strings.Join([]string{
		"bridge-2024", "receipt.png", "12.50", "", "Shell", "", "2024-04-01", "",
	}, "\n"))

	require.NoError(t, app.Capture(context.Background()))

	// nothing touched the network
	assert.Zero(t, stub.extracts)

	drafts, err := app.queue.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	d := drafts[0]
	assert.Equal(t, "bridge-2024", d.ProjectID)
	assert.True(t, d.Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "USD", d.Currency)
	assert.Equal(t, "Shell", d.VendorName)
	assert.Equal(t, "other", d.Category)
	assert.Equal(t, "2024-04-01", d.ExpenseDate)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), d.ImageBase64)
	assert.Equal(t, "image/png", d.ImageMime)
}

func TestCapture_PrefillsFromExtraction(t *testing.T) {
	muteOutput(t)
	stubReadFile(t, pngBytes)

	amount := decimal.RequireFromString("45000")
	stub := &stubAPI{
		token: true,
		extraction: &api.Extraction{
			ExpenseDate: "2024-03-09",
			Amount:      &amount,
			Currency:    "IDR",
			VendorName:  "Warung Sederhana",
			Category:    "meals",
		},
	}

	// accept every suggested default by pressing Enter
	app := newTestApp(t, stub, strings.Join([]string{
		"bridge-2024", "receipt.png", "", "", "", "", "", "",
	}, "\n"))

	app.controller.Start(context.Background())
	t.Cleanup(app.controller.Stop)
	require.Eventually(t, func() bool {
		return app.controller.Status().Online
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, app.Capture(context.Background()))
	assert.Equal(t, 1, stub.extracts)

	drafts, err := app.queue.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	d := drafts[0]
	assert.True(t, d.Amount.Equal(amount))
	assert.Equal(t, "IDR", d.Currency)
	assert.Equal(t, "Warung Sederhana", d.VendorName)
	assert.Equal(t, "meals", d.Category)
	assert.Equal(t, "2024-03-09", d.ExpenseDate)
}

func TestCapture_RejectsInvalidAmount(t *testing.T) {
	muteOutput(t)
	stubReadFile(t, pngBytes)

	stub := &stubAPI{pingErr: fmt.Errorf("unreachable")}

	for _, amount := range []string{"abc", "-5", "0"} {
		app := newTestApp(t, stub, strings.Join([]string{"p1", "receipt.png", amount}, "\n"))
		err := app.Capture(context.Background())
		require.Error(t, err, "amount %q", amount)
		assert.Contains(t, err.Error(), "positive")

		n, err := app.queue.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestCapture_RequiresProject(t *testing.T) {
	muteOutput(t)

	stub := &stubAPI{}
	app := newTestApp(t, stub, "\n")
	app.config.DefaultProjectID = ""

	err := app.Capture(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project")
}
