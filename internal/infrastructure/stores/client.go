package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/basketly/backend/internal/domain"
	"golang.org/x/time/rate"
)

// searchResponse is the wire shape every retailer search endpoint returns.
type searchResponse struct {
	Products []RawProduct `json:"products"`
}

// Client is an HTTP collaborator for one retailer's search endpoint. It
// normalizes the retailer's raw records into canonical ProductRecords so
// source quirks never leak past this package.
type Client struct {
	id          string
	name        string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a store client. requestsPerMinute bounds how hard we hit
// a single retailer; scraped endpoints throttle aggressively when abused.
func NewClient(id, name, baseURL string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5)

	return &Client{
		id:      id,
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: limiter,
	}
}

// ID returns the store selector this client answers to.
func (c *Client) ID() string { return c.id }

// Name returns the store's display name.
func (c *Client) Name() string { return c.name }

// SetDebug enables verbose request logging.
func (c *Client) SetDebug(debug bool) { c.debug = debug }

// exponentialBackoff returns the sleep before retry attempt n (1-based).
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}

// Search queries the retailer and returns at most maxResults normalized
// records. Collaborators that return more than requested are truncated,
// never expanded.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.ProductRecord, error) {
	endpoint := fmt.Sprintf("%s/search", c.baseURL)
	params := url.Values{}
	params.Add("q", query)
	params.Add("limit", fmt.Sprintf("%d", maxResults))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	// Retry up to 3 times for transient failures
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if c.debug {
				log.Printf("[%s] request error (attempt %d): %v", c.id, attempt, err)
			}
			lastErr = err
			if sleepOrDone(ctx, exponentialBackoff(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if c.debug {
				log.Printf("[%s] status %d (attempt %d): %s", c.id, resp.StatusCode, attempt, string(body))
			}
			lastErr = fmt.Errorf("%w: %s returned status %d", domain.ErrStoreFetchFailed, c.id, resp.StatusCode)
			if sleepOrDone(ctx, exponentialBackoff(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		var searchResp searchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("%w: %s returned undecodable body: %v", domain.ErrStoreFetchFailed, c.id, err)
		}

		records := make([]domain.ProductRecord, 0, len(searchResp.Products))
		for _, raw := range searchResp.Products {
			if len(records) >= maxResults {
				break
			}
			records = append(records, Normalize(raw, c.name))
		}

		if c.debug {
			log.Printf("[%s] %d products for query %q", c.id, len(records), query)
		}
		return records, nil
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrStoreFetchFailed, lastErr)
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Basketly/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFetchFailed, err)
	}

	return resp, nil
}

// sleepOrDone waits for the backoff duration, returning true if the context
// was cancelled first.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
