package genius

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultFeedURL serves /{gameID}/data.json.
	DefaultFeedURL = "https://livestats.dcd.shared.geniussports.com/data"

	// UserAgent for feed and info requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultMaxRetries = 4
)

// ErrGameNotReady means the game's feed is missing or the game has not ended yet.
var ErrGameNotReady = errors.New("game not ready")

// StatusError is a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client fetches game feeds, retrying transient failures with exponential backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client

	MaxRetries      uint64
	InitialInterval time.Duration
}

// NewClient creates a feed client. An empty baseURL uses DefaultFeedURL and a
// nil httpClient gets a 30s timeout client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultFeedURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      httpClient,
		MaxRetries:      defaultMaxRetries,
		InitialInterval: 500 * time.Millisecond,
	}
}

// FeedURL returns the data.json address of a game.
func (c *Client) FeedURL(gameID string) string {
	return fmt.Sprintf("%s/%s/data.json", c.baseURL, gameID)
}

// FetchRaw downloads a game's data.json. 403 and 404 map to ErrGameNotReady;
// 5xx responses and network errors are retried.
func (c *Client) FetchRaw(ctx context.Context, gameID string) ([]byte, error) {
	url := c.FeedURL(gameID)

	var body []byte
	operation := func() error {
		b, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.InitialInterval
	b := backoff.WithContext(backoff.WithMaxRetries(policy, c.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		log.Printf("[genius-client] GET %s failed (%v), retrying in %s", url, err, wait)
	}
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrGameNotReady, &StatusError{URL: url, StatusCode: resp.StatusCode}))
	case resp.StatusCode >= 500:
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(&StatusError{URL: url, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return body, nil
}

// FetchFeed downloads and decodes a game's feed. It returns ErrGameNotReady
// when the game has not ended; the raw bytes are returned alongside so
// callers can cache exactly what was served.
func (c *Client) FetchFeed(ctx context.Context, gameID string) (*Feed, []byte, error) {
	raw, err := c.FetchRaw(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	feed, err := ParseFeed(raw)
	if err != nil {
		return nil, nil, err
	}
	if !Ended(feed) {
		return nil, nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotReady)
	}
	return feed, raw, nil
}
