package genius

import (
	"context"
	"fmt"
	"log"

	"github.com/fortuna/stintstats/internal/cache"
	"github.com/fortuna/stintstats/internal/pbp"
)

// Ingester loads normalized games, serving feeds from the cache when it can.
type Ingester struct {
	client *Client
	feeds  cache.FeedStore
	info   *InfoScraper
}

// NewIngester wires a feed client with an optional feed cache and match page
// scraper (either may be nil).
func NewIngester(client *Client, feeds cache.FeedStore, info *InfoScraper) *Ingester {
	if client == nil {
		client = NewClient("", nil)
	}
	return &Ingester{client: client, feeds: feeds, info: info}
}

// LoadFeed returns the raw feed of an ended game. Only ended games are cached.
func (i *Ingester) LoadFeed(ctx context.Context, gameID string) (*Feed, error) {
	if i.feeds != nil {
		data, ok, err := i.feeds.GetFeed(ctx, gameID)
		if err != nil {
			log.Printf("[ingest] cache lookup for game %s failed: %v", gameID, err)
		}
		if ok {
			feed, err := ParseFeed(data)
			if err == nil && Ended(feed) {
				return feed, nil
			}
			log.Printf("[ingest] ignoring unusable cached feed for game %s", gameID)
		}
	}

	feed, raw, err := i.client.FetchFeed(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if i.feeds != nil {
		if err := i.feeds.PutFeed(ctx, gameID, raw); err != nil {
			log.Printf("[ingest] caching feed for game %s failed: %v", gameID, err)
		}
	}
	return feed, nil
}

// LoadGame returns the normalized game record of an ended game.
func (i *Ingester) LoadGame(ctx context.Context, gameID string) (*pbp.Game, error) {
	feed, err := i.LoadFeed(ctx, gameID)
	if err != nil {
		return nil, err
	}
	game, err := Normalize(feed)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}
	return game, nil
}

// LoadInfo scrapes venue and date. Failures are logged and yield nil.
func (i *Ingester) LoadInfo(ctx context.Context, gameID string) *GameInfo {
	if i.info == nil {
		return nil
	}
	info, err := i.info.FetchGameInfo(ctx, gameID)
	if err != nil {
		log.Printf("[ingest] ⚠️  No venue/date available for game %s: %v", gameID, err)
		return nil
	}
	return info
}
