package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Client sends logical requests to the translation service through a
// Transport, retrying transient failures with exponential backoff. A Client
// is safe for concurrent use; retry state is local to each call.
type Client struct {
	transport Transport
	cfg       Config
	logger    *slog.Logger

	// sleep is swapped out in tests to observe backoff without waiting
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a retrying client over the given transport.
func NewClient(transport Transport, cfg Config, logger *slog.Logger) *Client {
	if cfg.MaxRetries < 0 {
		logger.Warn("invalid max retries value, using default",
			"specified", cfg.MaxRetries,
			"default", DefaultConfig().MaxRetries)
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.BackoffTime <= 0 {
		logger.Warn("invalid backoff time value, using default",
			"specified", cfg.BackoffTime,
			"default", DefaultConfig().BackoffTime)
		cfg.BackoffTime = DefaultConfig().BackoffTime
	}
	if cfg.MaxInstructTokens <= 0 {
		cfg.MaxInstructTokens = DefaultConfig().MaxInstructTokens
	}

	return &Client{
		transport: transport,
		cfg:       cfg,
		logger:    logger.With("component", "provider_client"),
		sleep:     sleepContext,
	}
}

// Config returns the client's effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Send performs one logical request, retrying timeouts with exponential
// backoff and rate limits for as long as the service specifies a resume
// delay. The aborted flag is the caller's cooperative cancellation token:
// it is polled before every attempt and every sleep, and a set flag makes
// Send return (nil, nil) immediately. Cancellation is an outcome, not an
// error. A nil flag means the call cannot be cancelled.
func (c *Client) Send(ctx context.Context, req *Request, aborted func() bool) (*Response, error) {
	if aborted == nil {
		aborted = func() bool { return false }
	}

	attempt := 0
	for {
		if aborted() {
			c.logger.Debug("request aborted before attempt", "attempt", attempt+1)
			return nil, nil
		}

		resp, err := c.transport.Send(ctx, req)
		if err == nil {
			if aborted() {
				return nil, nil
			}
			if resp == nil {
				return nil, fmt.Errorf("%w: nil response", ErrResponse)
			}
			if resp.Text == "" {
				return nil, fmt.Errorf("%w: no choices returned in the response", ErrResponse)
			}
			return resp, nil
		}

		var terr *TransportError
		if !errors.As(err, &terr) {
			return nil, fmt.Errorf("%w: unexpected error communicating with provider: %v", ErrImpossible, err)
		}

		switch terr.Kind {
		case KindRateLimited:
			if terr.RetryAfter <= 0 {
				c.logger.Warn("rate limit hit, quota exceeded")
				return nil, fmt.Errorf("%w: no resume delay specified", ErrQuotaExceeded)
			}
			// Waiting out a server-specified delay does not consume a
			// retry slot.
			c.logger.Warn("rate limit hit, retrying after server delay",
				"delay", terr.RetryAfter)
			if err := c.sleep(ctx, terr.RetryAfter); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrImpossible, err)
			}

		case KindTimeout:
			if attempt >= c.cfg.MaxRetries {
				c.logger.Warn("maximum retry attempts reached",
					"max_retries", c.cfg.MaxRetries)
				return nil, fmt.Errorf("%w: exhausted retries after %d attempts",
					ErrImpossible, attempt+1)
			}
			if aborted() {
				return nil, nil
			}
			backoff := time.Duration(c.cfg.BackoffTime * math.Pow(2, float64(attempt)) * float64(time.Second))
			c.logger.Warn("provider timeout, retrying after backoff",
				"attempt", attempt+1,
				"backoff", backoff)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrImpossible, err)
			}
			attempt++

		case KindConnection:
			if aborted() {
				return nil, nil
			}
			// Connection failures are treated as non-transient.
			return nil, fmt.Errorf("%w: connection failure: %v", ErrImpossible, terr.Cause)

		default:
			return nil, fmt.Errorf("%w: unexpected error communicating with provider: %v", ErrImpossible, err)
		}
	}
}

// sleepContext waits for the given duration unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
