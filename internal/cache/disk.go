package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// FeedStore is a place raw game feeds can be cached.
type FeedStore interface {
	Name() string
	GetFeed(ctx context.Context, gameID string) ([]byte, bool, error)
	PutFeed(ctx context.Context, gameID string, data []byte) error
}

// DiskCache stores feeds as data-{gameID}.json files in a directory.
type DiskCache struct {
	dir string
}

// NewDiskCache returns a cache rooted at dir, which must already exist.
func NewDiskCache(dir string) (*DiskCache, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dir)
	}
	return &DiskCache{dir: dir}, nil
}

// Name implements FeedStore.
func (d *DiskCache) Name() string {
	return "disk"
}

// Path returns the file a game's feed is cached in.
func (d *DiskCache) Path(gameID string) string {
	return filepath.Join(d.dir, fmt.Sprintf("data-%s.json", gameID))
}

// GetFeed reads a cached feed.
func (d *DiskCache) GetFeed(_ context.Context, gameID string) ([]byte, bool, error) {
	data, err := os.ReadFile(d.Path(gameID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// PutFeed writes a feed through a temp file and rename so readers never see
// a partial file.
func (d *DiskCache) PutFeed(_ context.Context, gameID string, data []byte) error {
	tmp, err := os.CreateTemp(d.dir, fmt.Sprintf(".data-%s-*.json", gameID))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, d.Path(gameID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming feed file: %w", err)
	}
	return nil
}

// Layered reads from the first store holding a feed and writes to all of them.
type Layered []FeedStore

func (l Layered) Name() string {
	return "layered"
}

// GetFeed returns the first hit and backfills the stores in front of it.
func (l Layered) GetFeed(ctx context.Context, gameID string) ([]byte, bool, error) {
	for i, s := range l {
		data, ok, err := s.GetFeed(ctx, gameID)
		if err != nil {
			log.Printf("[cache] %s lookup for game %s failed: %v", s.Name(), gameID, err)
			continue
		}
		if !ok {
			continue
		}
		for _, front := range l[:i] {
			if err := front.PutFeed(ctx, gameID, data); err != nil {
				log.Printf("[cache] %s backfill for game %s failed: %v", front.Name(), gameID, err)
			}
		}
		return data, true, nil
	}
	return nil, false, nil
}

// PutFeed writes to every store, returning the first error.
func (l Layered) PutFeed(ctx context.Context, gameID string, data []byte) error {
	var first error
	for _, s := range l {
		if err := s.PutFeed(ctx, gameID, data); err != nil {
			log.Printf("[cache] %s store for game %s failed: %v", s.Name(), gameID, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
