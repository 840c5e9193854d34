// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// Sentinel errors for the backend failure classes. Adapters wrap them in
// a *BackendError; callers test with errors.Is.
var (
	ErrBackendUnavailable = errors.New("search backend unavailable")
	ErrRateLimited        = errors.New("search backend rate limited")
	ErrQuotaExhausted     = errors.New("search backend quota exhausted")
	ErrPermanent          = errors.New("search backend rejected request")
	ErrMalformedResponse  = errors.New("search backend returned a malformed response")
	ErrNoBackends         = errors.New("no search backend available")
)

// ErrorKind classifies a backend failure.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = "rate_limited"
	KindUnavailable    ErrorKind = "backend_unavailable"
	KindQuotaExhausted ErrorKind = "quota_exhausted"
	KindPermanent      ErrorKind = "permanent"

	// KindMalformed is a 200 response whose body could not be decoded.
	// It fails the one request and leaves the backend enabled.
	KindMalformed ErrorKind = "malformed_response"
)

// BackendError is the typed failure every adapter returns. The core only
// looks at Kind, never at Body.
type BackendError struct {
	Provider   types.Provider
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: HTTP %d: %s", e.Provider, e.Kind, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
}

// Unwrap exposes the sentinels for Kind and the underlying cause. A rate
// limit that survived every retry is also an unavailable backend.
func (e *BackendError) Unwrap() []error {
	var errs []error
	switch e.Kind {
	case KindQuotaExhausted:
		errs = append(errs, ErrQuotaExhausted)
	case KindRateLimited:
		errs = append(errs, ErrRateLimited, ErrBackendUnavailable)
	case KindPermanent:
		errs = append(errs, ErrPermanent)
	case KindMalformed:
		errs = append(errs, ErrMalformedResponse)
	default:
		errs = append(errs, ErrBackendUnavailable)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// quotaCodes are machine-readable error codes that providers put in a
// JSON error body when an account has run out of credits.
var quotaCodes = map[string]bool{
	"insufficient_credits":  true,
	"no_more_credits":       true,
	"quota_exceeded":        true,
	"usage_limit_exceeded":  true,
	"plan_limit_exceeded":   true,
	"credits_exhausted":     true,
	"insufficient_quota":    true,
	"payment_required":      true,
	"monthly_limit_reached": true,
}

type errorBody struct {
	Code string `json:"code"`
	Tag  string `json:"tag"`
	Type string `json:"type"`
}

// classifyStatus maps a final non-200 response to a BackendError. 402 and
// the 432/433 plan-limit codes mean the account is out of credits, as does
// a quota code in the error body; 429 and 5xx are transient; any other
// status means the backend refused the request.
func classifyStatus(p types.Provider, status int, body []byte) *BackendError {
	e := &BackendError{Provider: p, StatusCode: status, Body: truncateBody(body)}
	switch {
	case status == http.StatusPaymentRequired, status == 432, status == 433, quotaBody(body):
		e.Kind = KindQuotaExhausted
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status >= 500:
		e.Kind = KindUnavailable
	default:
		e.Kind = KindPermanent
	}
	return e
}

func quotaBody(body []byte) bool {
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil {
		return false
	}
	for _, code := range []string{eb.Code, eb.Tag, eb.Type} {
		if quotaCodes[strings.ToLower(code)] {
			return true
		}
	}
	return false
}

// classifyTransport wraps a network-level failure.
func classifyTransport(p types.Provider, err error) *BackendError {
	return &BackendError{Provider: p, Kind: KindUnavailable, Err: err}
}

func kindOf(err error) ErrorKind {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnavailable
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
