package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	sc "github.com/openfield/expensesync/internal/server/config"
)

func TestReceiptKey_Namespacing(t *testing.T) {
	key := ReceiptKey("user-1", "proj-9")

	parts := strings.Split(key, "/")
	assert.Len(t, parts, 4)
	assert.Equal(t, "receipts", parts[0])
	assert.Equal(t, "user-1", parts[1])
	assert.Equal(t, "proj-9", parts[2])
	assert.NotEmpty(t, parts[3])

	// fresh random suffix every time, so uploads never overwrite
	assert.NotEqual(t, key, ReceiptKey("user-1", "proj-9"))
}

func TestPublicURL(t *testing.T) {
	cfg := &sc.Config{S3PublicBaseURL: "http://127.0.0.1:9000/receipts/"}
	s := NewService(cfg)

	assert.Equal(t,
		"http://127.0.0.1:9000/receipts/receipts/u/p/abc",
		s.PublicURL("receipts/u/p/abc"))
}
