package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type memStore struct {
	name  string
	feeds map[string][]byte
	fail  bool
}

func (m *memStore) Name() string { return m.name }

func (m *memStore) GetFeed(_ context.Context, id string) ([]byte, bool, error) {
	if m.fail {
		return nil, false, errors.New("down")
	}
	d, ok := m.feeds[id]
	return d, ok, nil
}

func (m *memStore) PutFeed(_ context.Context, id string, data []byte) error {
	if m.fail {
		return errors.New("down")
	}
	m.feeds[id] = data
	return nil
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDiskCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, ok, err := d.GetFeed(ctx, "123"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	if err := d.PutFeed(ctx, "123", []byte(`{"pbp":[]}`)); err != nil {
		t.Fatal(err)
	}
	data, ok, err := d.GetFeed(ctx, "123")
	if err != nil || !ok || string(data) != `{"pbp":[]}` {
		t.Fatalf("got %q ok=%v err=%v", data, ok, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "data-123.json")); err != nil {
		t.Errorf("expected data-123.json: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestNewDiskCacheRequiresDirectory(t *testing.T) {
	if _, err := NewDiskCache(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("expected error for missing directory")
	}
}

func TestLayeredBackfillsFrontStores(t *testing.T) {
	ctx := context.Background()
	front := &memStore{name: "front", feeds: map[string][]byte{}}
	broken := &memStore{name: "broken", fail: true}
	back := &memStore{name: "back", feeds: map[string][]byte{"7": []byte("x")}}

	l := Layered{front, broken, back}
	data, ok, err := l.GetFeed(ctx, "7")
	if err != nil || !ok || string(data) != "x" {
		t.Fatalf("got %q ok=%v err=%v", data, ok, err)
	}
	if string(front.feeds["7"]) != "x" {
		t.Errorf("front store was not backfilled")
	}

	if err := l.PutFeed(ctx, "8", []byte("y")); err == nil {
		t.Errorf("expected the broken store's error")
	}
	if string(back.feeds["8"]) != "y" || string(front.feeds["8"]) != "y" {
		t.Errorf("healthy stores should still be written")
	}
}
