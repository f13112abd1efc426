package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Error kinds used for retry classification of failures that carry no
// HTTP status
const (
	KindNetwork   = "NETWORK_ERROR"
	KindTimeout   = "TIMEOUT"
	KindConnReset = "ECONNRESET"
)

// Application error codes returned in the error envelope
const (
	CodeCooldownConflict = 4000
)

var (
	// ErrAuthRequired is returned before any network call when an endpoint
	// needs a token and none is stored
	ErrAuthRequired = errors.New("authentication required, login first")
)

// APIError is the single normalized failure produced at the network boundary
type APIError struct {
	Status     int
	Code       int
	Message    string
	Data       json.RawMessage
	Kind       string
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Status == 0 && e.Kind != "":
		return fmt.Sprintf("%s: %s", strings.ToLower(e.Kind), e.Message)
	case e.Code != 0:
		return fmt.Sprintf("%s (code %d, status %d)", e.Message, e.Code, e.Status)
	default:
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthError reports a token the server rejected
func (e *APIError) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized
}

// errorEnvelope mirrors {"error": {"message", "code", "data"}}
type errorEnvelope struct {
	Error struct {
		Message string          `json:"message"`
		Code    int             `json:"code"`
		Data    json.RawMessage `json:"data,omitempty"`
	} `json:"error"`
}

// newAPIError translates a non-2xx response into an APIError
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Code = envelope.Error.Code
		apiErr.Data = envelope.Error.Data
	} else if len(body) > 0 && len(body) < 512 {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}

	return apiErr
}

// newTransportError translates a failure to reach the server into an APIError
func newTransportError(err error) *APIError {
	kind := KindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case strings.Contains(err.Error(), "connection reset"):
		kind = KindConnReset
	}
	return &APIError{Kind: kind, Message: err.Error(), Err: err}
}

// parseRetryAfter accepts delta seconds, fractional seconds or an HTTP date
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// AsAPIError extracts an APIError from an error chain
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given application error code
func HasCode(err error, code int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == code
}

// IsRateLimitError reports a 429 response
func IsRateLimitError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusTooManyRequests
}

// RetryAfter returns the server-requested delay of a 429, or zero
func RetryAfter(err error) time.Duration {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return 0
	}
	return apiErr.RetryAfter
}
