// Package llm turns an admin's natural-language question into a candidate
// SQL string by calling an external chat-completion service. The output is
// untrusted text; it must always pass through the sqlgate before execution.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Generator produces a candidate SQL statement for a question. The result
// may be wrapped in a fenced code block; unwrapping is the gate's job.
type Generator interface {
	GenerateSQL(ctx context.Context, question string) (string, error)
}

const systemPrompt = `You translate questions about expense data into a single PostgreSQL SELECT statement.
Only the table public.expenses exists, with columns:
  project_id text, amount numeric, currency char(3), vendor_name text,
  category text, expense_date date, created_at timestamptz.
Reply with the SQL statement only.`

// HTTPGenerator calls an OpenAI-style chat-completions endpoint.
type HTTPGenerator struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewHTTPGenerator(endpoint, apiKey, model string) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateSQL posts the question and returns the raw completion text.
// Rate-limit and server-side errors are retried a few times with capped
// exponential backoff; anything else fails immediately.
func (g *HTTPGenerator) GenerateSQL(ctx context.Context, question string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return "", err
	}

	var sql string
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		sql, err = g.complete(ctx, payload)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("sql generation failed: %w", err)
	}
	return sql, nil
}

func (g *HTTPGenerator) complete(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.RetryableError(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", retry.RetryableError(fmt.Errorf("llm endpoint: %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm endpoint: %s; body: %s", resp.Status, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}
