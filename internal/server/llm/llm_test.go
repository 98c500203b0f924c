package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return b
}

func TestGenerateSQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "user", req.Messages[1].Role)
		_, _ = w.Write(completionBody(t, "SELECT 1"))
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, "key", "test-model")
	sql, err := g.GenerateSQL(context.Background(), "how much?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", sql)
}

func TestGenerateSQL_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write(completionBody(t, "SELECT 2"))
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, "", "test-model")
	sql, err := g.GenerateSQL(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", sql)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateSQL_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, "", "test-model")
	_, err := g.GenerateSQL(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
