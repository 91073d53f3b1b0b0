package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"AwardScanner/internal/config"
	"AwardScanner/internal/ports"
)

// ChatGPTClient implements ports.CompletionClient backed by
// OpenAI-compatible chat/completions APIs. Every call is retried a bounded
// number of times with a fixed delay; failures after the last attempt are
// returned to the caller, which treats them as an empty chunk.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	retries      int
	retryDelay   time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ ports.CompletionClient = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. A missing API key,
// endpoint, or model means the capability cannot be constructed, and nil is
// returned so the caller can degrade to deterministic-only extraction.
func NewChatGPTClient(cfg config.ChatGPTConfig, ext config.ExtractionConfig, logger *slog.Logger) *ChatGPTClient {
	if cfg.APIKey == "" || cfg.Endpoint == "" || cfg.Model == "" {
		return nil
	}
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		retries:      ext.Retries,
		retryDelay:   ext.RetryDelay(),
		logger:       logger,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Complete posts the prompt as a user message and recovers the text payload
// from whatever response shape the API produced.
func (c *ChatGPTClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("completion client is nil")
	}

	rid := uuid.New().String()
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		text, err := c.send(ctx, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			c.debug("completion ok", "req_id", rid, "attempt", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(), "text_len", len(text))
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("no text payload in response")
		}
		lastErr = err
		c.debug("completion attempt failed", "req_id", rid, "attempt", attempt, "error", err)

		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", c.retries+1, lastErr)
}

func (c *ChatGPTClient) send(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": c.systemPrompt},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return ExtractText(raw), nil
}

func (c *ChatGPTClient) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
