package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/visitors"
)

// Fetcher retrieves the current document of a work.
type Fetcher interface {
	Fetch(ctx context.Context, work visitors.Work) (string, error)
}

// maxDocumentSize caps a download. The largest work is a few megabytes.
const maxDocumentSize = 64 << 20

// HTTPError is a non-success response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// HTTPFetcher downloads works from their published URL.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. A nil client gets a 60 second timeout.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if userAgent == "" {
		userAgent = "writings-update/1.0"
	}
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, work visitors.Work) (string, error) {
	url := work.URL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", errors.NewUnsupported("URL scheme", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xhtml+xml,text/html;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &HTTPError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(data), nil
}

// FileFetcher reads works from a directory of downloaded snapshots, for
// offline updates and tests.
type FileFetcher struct {
	Dir string
}

// Fetch implements Fetcher.
func (f FileFetcher) Fetch(ctx context.Context, work visitors.Work) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return snapshot.Read(snapshot.Path(f.Dir, work.Slug))
}
