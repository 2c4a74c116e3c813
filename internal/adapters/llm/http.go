// Package llm provides reasoner implementations: HTTP clients for the
// Anthropic Messages API and OpenAI-compatible chat completions, an offline
// keyword-driven mock, and a hybrid that serves domain questions locally.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout    = 120 * time.Second
	defaultMaxRetries = 3
	maxResponseBytes  = 8 << 20
)

// Options configures the HTTP reasoners.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	MaxRetries int
	Logger     *slog.Logger

	// RetryInterval is the first backoff delay. Zero uses the library default.
	RetryInterval time.Duration
}

// StatusError is a non-200 response from a provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status indicates a transient failure.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type poster struct {
	client        *http.Client
	maxRetries    int
	retryInterval time.Duration
	logger        *slog.Logger
}

func newPoster(opts Options) *poster {
	p := &poster{
		client:        opts.HTTPClient,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		logger:        opts.Logger,
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: defaultTimeout}
	}
	if p.maxRetries <= 0 {
		p.maxRetries = defaultMaxRetries
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// postJSON sends body as JSON and decodes a 200 response into out, retrying
// rate limits, server errors and transport failures with exponential backoff.
func (p *poster) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		start := time.Now()
		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		p.logger.Debug("reasoner response", "url", url, "status", resp.StatusCode, "bytes", len(data), "elapsed", time.Since(start))

		if resp.StatusCode != http.StatusOK {
			se := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 500)}
			if se.Retryable() {
				return se
			}
			return backoff.Permanent(se)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	if p.retryInterval > 0 {
		b.InitialInterval = p.retryInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.maxRetries)), ctx)

	err = backoff.RetryNotify(op, policy, func(err error, d time.Duration) {
		p.logger.Warn("retrying reasoner request", "error", err, "delay", d)
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return err
		}
		return fmt.Errorf("failed to call %s: %w", url, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
