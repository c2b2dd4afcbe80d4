package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sony/gobreaker/v2"

	"gridheat/internal/types"
)

// MaxDocumentBytes caps the size of a fetched boundary document.
const MaxDocumentBytes = 256 << 20

// Fetcher downloads boundary documents. Every request goes through a circuit
// breaker and a transport that negotiates gzip. There are no retries; a
// failed fetch is answered by the provider's fallback.
type Fetcher struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	userAgent string
}

// NewFetcher builds a Fetcher with its own http.Client.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	client := &http.Client{
		Timeout:   timeout,
		Transport: gzhttp.Transport(http.DefaultTransport),
	}
	return NewFetcherWithClient(client, userAgent)
}

// NewFetcherWithClient uses a caller-provided client, as tests do with
// httptest servers.
func NewFetcherWithClient(client *http.Client, userAgent string) *Fetcher {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "boundary-source",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Fetcher{client: client, breaker: cb, userAgent: userAgent}
}

// Fetch GETs url and returns the body. Non-2xx statuses, transport errors
// and oversized bodies are reported as ErrCodeBoundaryUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := f.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}
		req.Header.Set("Accept", "application/geo+json, application/json;q=0.9, */*;q=0.5")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			return nil, &statusError{code: resp.StatusCode}
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
		if err != nil {
			return nil, err
		}
		if len(data) > MaxDocumentBytes {
			return nil, fmt.Errorf("document exceeds %d bytes", MaxDocumentBytes)
		}
		return data, nil
	})
	if err != nil {
		return nil, mapFetchError(url, err)
	}
	return body, nil
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.code)
}

func mapFetchError(url string, err error) *types.AppError {
	details := map[string]any{"url": url}
	msg := "boundary request failed"

	var se *statusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		msg = "circuit breaker is open; boundary source unavailable"
	case errors.As(err, &se):
		msg = "boundary source returned an error status"
		details["status"] = se.code
	case errors.Is(err, context.DeadlineExceeded):
		msg = "boundary request timed out"
	}
	return types.NewAppError(types.ErrCodeBoundaryUnavailable, msg, err).WithDetails(details)
}
