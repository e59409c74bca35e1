package ollama

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

	"github.com/shopsmart/backend/internal/domain"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// ClientConfig holds configuration for the Ollama client
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client handles communication with an Ollama server
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
	logger      *slog.Logger
}

// Message is a single chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// NewClient creates a new Ollama client
func NewClient(config ClientConfig, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	perMinute := config.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 5)

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		rateLimiter: limiter,
		logger:      logger.With("component", "ollama"),
	}
}

// SetDebug enables or disables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the delay before retrying after attempt (1-based)
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// ListModels returns the names of the installed models
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var tags tagsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		} else if m.Model != "" {
			names = append(names, m.Model)
		}
	}
	return names, nil
}

// Chat sends messages to model and returns the assistant reply
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	var resp chatResponse
	req := chatRequest{Model: model, Messages: messages, Stream: false}
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// do executes a JSON request, retrying transport errors and 5xx responses
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = encoded
	}

	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		if c.debug {
			c.logger.Debug("request", "method", method, "url", reqURL, "attempt", attempt)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "ShopSmart/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrModelFailure, err)
			c.logger.Warn("request error", "attempt", attempt, "error", err)
			if !c.backoff(ctx, attempt) {
				return ctx.Err()
			}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("%w: status %d", domain.ErrModelFailure, resp.StatusCode)
			c.logger.Warn("server error", "attempt", attempt, "status", resp.StatusCode)
			if !c.backoff(ctx, attempt) {
				return ctx.Err()
			}
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s not found", domain.ErrCapabilityUnavailable, path)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status %d, body: %s", domain.ErrModelFailure, resp.StatusCode, truncate(string(data), 256))
		}
		if readErr != nil {
			return fmt.Errorf("%w: read body: %v", domain.ErrModelFailure, readErr)
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	c.logger.Warn("all retries failed", "url", reqURL)
	return lastErr
}

// backoff waits before the next attempt. It returns false if ctx ends first.
func (c *Client) backoff(ctx context.Context, attempt int) bool {
	if attempt >= maxAttempts {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
