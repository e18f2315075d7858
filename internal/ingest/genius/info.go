package genius

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// DefaultInfoURL serves the human readable match page at /{gameID}/.
const DefaultInfoURL = "https://fibalivestats.dcd.shared.geniussports.com/u/NBL"

// DateLayout is the day/month/two-digit-year date shown on the match page.
const DateLayout = "02/01/06"

var dateRe = regexp.MustCompile(`\d*/\d*/\d*`)

// GameInfo is the metadata scraped from the match page.
type GameInfo struct {
	Venue string
	Date  time.Time
}

// PageFetcher returns the HTML of a URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// InfoScraper fetches and parses match pages.
type InfoScraper struct {
	baseURL string
	fetcher PageFetcher
}

// NewInfoScraper creates a scraper. An empty baseURL uses DefaultInfoURL and a
// nil fetcher uses plain HTTP.
func NewInfoScraper(baseURL string, fetcher PageFetcher) *InfoScraper {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultInfoURL
	}
	if fetcher == nil {
		fetcher = &HTTPFetcher{Client: &http.Client{Timeout: 30 * time.Second}}
	}
	return &InfoScraper{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// InfoURL returns the match page address of a game.
func (s *InfoScraper) InfoURL(gameID string) string {
	return fmt.Sprintf("%s/%s/", s.baseURL, gameID)
}

// FetchGameInfo downloads and parses the match page of a game.
func (s *InfoScraper) FetchGameInfo(ctx context.Context, gameID string) (*GameInfo, error) {
	html, err := s.fetcher.FetchPage(ctx, s.InfoURL(gameID))
	if err != nil {
		return nil, fmt.Errorf("fetching match page: %w", err)
	}
	return ParseGameInfo(strings.NewReader(html))
}

// ParseGameInfo extracts the venue (third line of the second div.matchDetail)
// and the tip-off date (first d/m/y in the third div.matchDetail).
func ParseGameInfo(r io.Reader) (*GameInfo, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	blocks := doc.Find("div.matchDetail")
	if blocks.Length() < 3 {
		return nil, fmt.Errorf("expected 3 matchDetail blocks, found %d", blocks.Length())
	}

	venueText := asciiOnly(strings.TrimSpace(blocks.Eq(1).Text()))
	lines := strings.Split(strings.ReplaceAll(venueText, "\r\n", "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("venue block has %d lines", len(lines))
	}

	tipOff := asciiOnly(strings.TrimSpace(blocks.Eq(2).Text()))
	match := dateRe.FindString(tipOff)
	if match == "" {
		return nil, fmt.Errorf("no date in %q", tipOff)
	}
	date, err := time.Parse(DateLayout, match)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", match, err)
	}

	return &GameInfo{
		Venue: strings.TrimSpace(lines[2]),
		Date:  date,
	}, nil
}

func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 127 {
			return -1
		}
		return r
	}, s)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(body), nil
}

// BrowserRenderer fetches pages through headless Chrome, for match pages
// that fill in their details with JavaScript.
type BrowserRenderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

// NewBrowserRenderer starts a headless browser allocator.
func NewBrowserRenderer() *BrowserRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserRenderer{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  30 * time.Second,
	}
}

// Close releases the browser.
func (b *BrowserRenderer) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *BrowserRenderer) FetchPage(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	// stop the browser tab when the caller gives up
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`div.matchDetail`, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if html == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}
	return html, nil
}
