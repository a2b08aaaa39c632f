// Package content retrieves text from URLs in the three formats the
// intake pipeline handles: ordinary web pages, PDF documents, and
// YouTube transcripts. Failures are reported in-band with typed
// error_detail codes; the agent core treats any non-success status as
// "content unavailable" and moves on.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/knowbase/knowbase/internal/capability"
)

const (
	userAgent    = "Mozilla/5.0 (compatible; knowbase/1.0; +https://github.com/knowbase/knowbase)"
	fetchTimeout = 10 * time.Second
	maxBodyBytes = 8 << 20
)

// Fetcher implements capability.ContentFetcher over HTTP.
type Fetcher struct {
	client *http.Client
}

var _ capability.ContentFetcher = (*Fetcher)(nil)

// NewFetcher creates a content fetcher with the default timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: fetchTimeout}}
}

// get performs a GET with the standard headers and returns the body.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &httpStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

type httpStatusError struct {
	Code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// errorDetail maps a transport error to the wire-level detail code.
func errorDetail(err error, timeoutCode string) string {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP_ERROR_%d", statusErr.Code)
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return timeoutCode
	}
	return err.Error()
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout() || errors.Is(err, os.ErrDeadlineExceeded)
}
