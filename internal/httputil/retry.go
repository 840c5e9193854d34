// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search, scoring,
// and enrichment clients.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay is the default first backoff delay. Tests override this
// to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultAttempts = 3

// Policy controls how a request is retried. The zero value uses three
// attempts and RetryBaseDelay.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int

	// BaseDelay is the delay before the first retry; it doubles after each.
	BaseDelay time.Duration
}

// Retryable reports whether an HTTP status signals a transient condition
// worth retrying: rate limiting or a server-side error. 501 means the
// server will never support the request and is not retried.
func Retryable(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status != http.StatusNotImplemented
}

// Do executes req, retrying rate-limit responses, server errors, and
// transport failures with exponential backoff (2s, 4s, ... by default).
//
// Request bodies are replayed through req.GetBody, which
// http.NewRequestWithContext sets for in-memory readers. After the last
// attempt a retryable response is returned as-is so the caller can
// classify it; a transport failure is returned as an error. Cancelling ctx
// during a wait returns ctx.Err().
func (p Policy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	base := p.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}
	if client == nil {
		client = http.DefaultClient
	}

	for attempt := 1; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if attempt >= attempts {
				return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
			}
		case !Retryable(resp.StatusCode):
			return resp, nil
		case attempt >= attempts:
			return resp, nil
		default:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		backoff := base << (attempt - 1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// DoWithRetry executes req with the given attempt budget and the default
// base delay. When attempts is 0 the default (3) is used.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, attempts int) (*http.Response, error) {
	return Policy{Attempts: attempts}.Do(ctx, client, req)
}

// IsCanceled reports whether err comes from context cancellation or a
// deadline, which callers propagate instead of classifying.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
