// Package httpx performs the single blocking GET the monitoring engine
// needs: TLS, a mandatory User-Agent, optional extra headers, and a hard cap
// on the response body. Callers run it off the UI path; cancellation and
// deadlines come from the context plus the fetcher's own timeout.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"log/slog"
)

// MaxBodyBytes caps how much of a response is read. Counter APIs answer in
// well under 8 KiB; anything larger is truncated and left for the field
// extractor to reject.
const MaxBodyBytes = 8 * 1024

const defaultTimeout = 10 * time.Second

// Fetcher issues synchronous HTTPS GETs.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger

	// BaseURL overrides the https://{host} derivation when non-empty.
	// Tests point it at a local httptest server.
	BaseURL string
}

// New builds a Fetcher with a bounded request timeout.
func New(logger *slog.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Get fetches https://{host}{path} and returns up to MaxBodyBytes of the
// response body. The User-Agent is always set; extraHeaders are applied
// verbatim. Failures come back as a classified *Error.
func (f *Fetcher) Get(ctx context.Context, host, path, userAgent string, extraHeaders map[string]string) ([]byte, error) {
	base := f.BaseURL
	if base == "" {
		base = "https://" + host
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, NewError(ClassNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, classifyTransport(err)
	}
	if len(body) > MaxBodyBytes {
		// Truncation is survivable: the extractor simply may not find
		// its key in the clipped body.
		f.logger.Warn("response body truncated", "host", host, "path", path, "cap", MaxBodyBytes)
		body = body[:MaxBodyBytes]
	}
	return body, nil
}

func classifyTransport(err error) *Error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return NewError(ClassTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ClassTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewError(ClassNetwork, fmt.Errorf("dns lookup: %w", err))
	}
	return NewError(ClassNetwork, err)
}
