package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind labels a failed review page request. The values double as
// Prometheus label values and keys of ScraperResult.ErrorsByType.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection"
	KindForbidden   ErrorKind = "forbidden"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindHTTPStatus  ErrorKind = "http_status"
)

// FetchError is a classified failure of one attempt to fetch a review page.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int // zero for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return string(fe.Kind)
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "other"
}

// classifyError turns a transport error or HTTP status into a *FetchError.
// Statuses outside 2xx always yield an error, and so does any error that
// arrived with a status (colly rejects some 2xx codes such as 204).
func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &FetchError{Kind: KindConnection, Err: err}
	}

	if statusCode != 0 && (err != nil || statusCode < 200 || statusCode > 299) {
		if err == nil {
			err = errors.New(http.StatusText(statusCode))
		}
		kind := KindHTTPStatus
		switch statusCode {
		case http.StatusForbidden:
			kind = KindForbidden
		case http.StatusNotFound:
			kind = KindNotFound
		case http.StatusTooManyRequests:
			kind = KindRateLimited
		}
		return &FetchError{Kind: kind, StatusCode: statusCode, Err: err}
	}

	return err
}
