package client

import (
	"context"
	"testing"
	"time"

	"github.com/famomatic/nicov1/internal/watch"
)

func TestWatchCacheTTLExpiresEntries(t *testing.T) {
	c := &Client{
		config: Config{
			WatchCacheTTL: 5 * time.Millisecond,
		},
		watches: make(map[string]watchEntry),
	}
	c.putWatch("sm9", watchEntry{
		Data: &watch.WatchData{Video: watch.WatchVideo{ID: "sm9"}},
	})

	time.Sleep(15 * time.Millisecond)
	if _, ok := c.getWatch("sm9"); ok {
		t.Fatalf("expected watch entry to expire by ttl")
	}
	if len(c.watches) != 0 {
		t.Fatalf("expected expired entry to be removed, len=%d", len(c.watches))
	}
}

func TestWatchCacheMaxEntriesEvictsLRU(t *testing.T) {
	c := &Client{
		config: Config{
			WatchCacheMaxEntries: 2,
		},
		watches: make(map[string]watchEntry),
	}

	c.putWatch("sm1", watchEntry{Data: &watch.WatchData{}})
	time.Sleep(2 * time.Millisecond)
	c.putWatch("sm2", watchEntry{Data: &watch.WatchData{}})
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.getWatch("sm1"); !ok {
		t.Fatalf("expected entry sm1 to be present")
	}
	time.Sleep(2 * time.Millisecond)
	c.putWatch("sm3", watchEntry{Data: &watch.WatchData{}})

	if _, ok := c.getWatch("sm2"); ok {
		t.Fatalf("expected least-recently-used entry sm2 to be evicted")
	}
	if _, ok := c.getWatch("sm1"); !ok {
		t.Fatalf("expected entry sm1 to remain")
	}
	if _, ok := c.getWatch("sm3"); !ok {
		t.Fatalf("expected entry sm3 to remain")
	}
}

func TestEnsureWatchFetchesOncePerVideo(t *testing.T) {
	stub := newNiconicoStub(t)
	c := newStubClient(t, stub, Config{})

	ctx := context.Background()
	if _, _, err := c.ensureWatch(ctx, "sm9"); err != nil {
		t.Fatalf("ensureWatch() error: %v", err)
	}
	if _, _, err := c.ensureWatch(ctx, "sm9"); err != nil {
		t.Fatalf("ensureWatch() error: %v", err)
	}
	if stub.watchCalls != 1 {
		t.Fatalf("watch page fetched %d times, want 1", stub.watchCalls)
	}
}
