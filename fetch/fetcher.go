// Package fetch retrieves raw product pages. The extraction core never
// fetches anything itself; it consumes the bytes these fetchers return.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxBodySize caps how much of a page is read; product pages beyond this are
// not worth parsing.
const maxBodySize = 4 << 20

// Fetcher retrieves the body of a product page. Implementations do not
// retry: a failed fetch is reported as that URL's error outcome.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages over plain HTTP, following redirects.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %v", url, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty body", url)
	}

	if reason, blocked := DetectBotWall(body); blocked {
		return nil, fmt.Errorf("fetch %s: %s", url, reason)
	}
	return body, nil
}
