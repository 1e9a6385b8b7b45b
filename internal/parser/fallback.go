package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"invoiceflow/internal/port"
)

// defaultCircuitReset is how long a provider is skipped after a 429 that
// carried no Retry-After header.
const defaultCircuitReset = 60 * time.Second

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
	hinted  bool      // resetAt came from a Retry-After hint
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, c.hinted, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time, hinted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
	c.hinted = hinted
}

// FallbackClient tries completion clients in order, skipping those with open
// circuits. It implements port.CompletionClient.
type FallbackClient struct {
	clients  []port.CompletionClient
	circuits []*circuitState
	names    []string
	now      func() time.Time
}

// NewFallbackClient creates a FallbackClient from an ordered list of clients and their names.
func NewFallbackClient(clients []port.CompletionClient, names []string) *FallbackClient {
	circuits := make([]*circuitState, len(clients))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackClient{
		clients:  clients,
		circuits: circuits,
		names:    names,
		now:      time.Now,
	}
}

func (f *FallbackClient) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
	now := f.now()
	var lastErr error
	allRateLimited := true
	allPermanent := true
	var earliestReset time.Time
	hinted := false

	for i, c := range f.clients {
		if resetAt, fromHint, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("parser.FallbackClient: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
				hinted = fromHint
			}
			continue
		}

		out, err := c.Complete(ctx, req)
		if err == nil {
			return out, nil
		}

		log.Printf("parser.FallbackClient: %s failed: %v", f.names[i], err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			wait, fromHint := rlErr.RetryAfter, rlErr.RetryAfter > 0
			if !fromHint {
				wait = defaultCircuitReset
			}
			resetAt := now.Add(wait)
			f.circuits[i].open(resetAt, fromHint)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
				hinted = fromHint
			}
			allPermanent = false
		} else {
			allRateLimited = false
			if IsRetryable(err) {
				allPermanent = false
			}
		}
	}

	if lastErr == nil || allRateLimited {
		// Only a server hint is passed on; otherwise the caller's backoff applies.
		secs := 0
		if hinted {
			retryAfter := earliestReset.Sub(f.now())
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
			secs = int(retryAfter.Seconds())
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all providers rate limited"), secs)
	}

	if allPermanent {
		return nil, NewPermanentError("all", fmt.Errorf("all providers failed: %w", lastErr))
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// Close closes every wrapped client that holds resources.
func (f *FallbackClient) Close() error {
	var errs []error
	for _, c := range f.clients {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
