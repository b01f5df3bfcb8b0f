// Package genai implements a small chat-completions client with built-in
// retry/backoff. It speaks the OpenAI-compatible /chat/completions wire
// format, so any endpoint exposing that surface works via BaseURL.
//
// Design goals:
//
//   - Keep a tiny, explicit API (Chat).
//   - Handle transient failures (429, 5xx) with exponential backoff.
//   - Respect context cancellation during requests and backoff waits.
//   - Be easy to test by injecting a custom RoundTripper and sleep function.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Generator produces one completion for a system/user prompt pair. The
// annotation workflows depend on this rather than on the concrete client.
type Generator interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Config configures the chat client.
//
// Zero values are given sensible defaults:
//   - BaseURL:        https://api.openai.com/v1
//   - Model:          gpt-3.5-turbo
//   - Timeout:        60s
//   - MaxRetries:     3
//   - InitialBackoff: 500ms
//   - MaxBackoff:     8s
type Config struct {
	// APIKey is sent as a bearer token. Required against the public API.
	APIKey string

	// BaseURL is the API root; /chat/completions is appended to it.
	BaseURL string

	// Model names the completion model to request.
	Model string

	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the base backoff for the first retry; each retry
	// doubles it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Transport is an optional custom RoundTripper for tests.
	Transport http.RoundTripper
}

// Client is a chat-completions client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// sleep is injectable to make tests fast and deterministic.
	sleep func(time.Duration)
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 8 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleep:          time.Sleep,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat sends one system/user prompt pair and returns the first choice's
// content, trimmed. Transient failures (network errors, 429, 5xx) are
// retried with exponential backoff; other statuses are final.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("genai: encode request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("genai: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			out, final, err := decodeChat(resp)
			if final {
				return out, err
			}
			lastErr = err
		}

		if attempt+1 >= attempts {
			return "", lastErr
		}
		if err := sleepWithContext(ctx, c.sleep, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

// decodeChat consumes one response. final=false means the caller should
// retry (429/5xx).
func decodeChat(resp *http.Response) (out string, final bool, err error) {
	defer resp.Body.Close()

	if isRetryableStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", false, fmt.Errorf("genai: retryable status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("genai: read response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", true, fmt.Errorf("genai: decode response (status %d): %w", resp.StatusCode, err)
	}
	if cr.Error != nil {
		return "", true, fmt.Errorf("genai: api error: %s", cr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", true, fmt.Errorf("genai: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(cr.Choices) == 0 {
		return "", true, fmt.Errorf("genai: response has no choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), true, nil
}

// isRetryableStatus reports whether the given HTTP status code should trigger
// a retry. 5xx and 429 are treated as transient; everything else is final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	d := initial << attempt
	if d > max {
		return max
	}
	return d
}

// sleepWithContext sleeps for d using the provided sleep function,
// but aborts early if ctx is canceled.
func sleepWithContext(ctx context.Context, sleep func(time.Duration), d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		sleep(0)
		return nil
	}
}
