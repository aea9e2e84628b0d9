package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestCache(t *testing.T) (TreeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTreeCache(client, time.Minute, zerolog.Nop()), mr
}

func sampleTree() []models.CommentNode {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return []models.CommentNode{
		{
			ID:        "c-1",
			Author:    "Jane",
			Content:   "Root",
			CreatedAt: created,
			Approved:  true,
			Replies: []models.CommentNode{
				{ID: "c-2", Author: "Tom", Content: "Reply", CreatedAt: created, Approved: true, Replies: []models.CommentNode{}},
			},
		},
	}
}

func TestTreeCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, gen, ok := c.Get(ctx, "a-1")
	if ok {
		t.Fatal("Expected miss on empty cache")
	}
	if gen != 0 {
		t.Fatalf("Expected generation 0 for a fresh article, got %d", gen)
	}

	c.Set(ctx, "a-1", gen, sampleTree())

	if !mr.Exists(Key("a-1", 0)) {
		t.Fatalf("Expected key %s to be stored", Key("a-1", 0))
	}
	if ttl := mr.TTL(Key("a-1", 0)); ttl != time.Minute {
		t.Errorf("Expected TTL of 1m, got %v", ttl)
	}

	tree, _, ok := c.Get(ctx, "a-1")
	if !ok {
		t.Fatal("Expected hit after Set")
	}
	if len(tree) != 1 || len(tree[0].Replies) != 1 || tree[0].Replies[0].ID != "c-2" {
		t.Errorf("Unexpected tree %+v", tree)
	}
	if !tree[0].CreatedAt.Equal(sampleTree()[0].CreatedAt) {
		t.Errorf("CreatedAt not preserved: %v", tree[0].CreatedAt)
	}
}

func TestTreeCache_EmptyTreeIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "a-1", 0, []models.CommentNode{})

	tree, _, ok := c.Get(ctx, "a-1")
	if !ok {
		t.Fatal("Expected hit for cached empty tree")
	}
	if len(tree) != 0 {
		t.Errorf("Expected empty tree, got %v", tree)
	}
}

func TestTreeCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "a-1", 0, sampleTree())
	c.Set(ctx, "a-2", 0, sampleTree())
	c.Invalidate(ctx, "a-1")

	if _, gen, ok := c.Get(ctx, "a-1"); ok || gen != 1 {
		t.Errorf("Expected a-1 to miss at generation 1, got ok=%v gen=%d", ok, gen)
	}
	if _, _, ok := c.Get(ctx, "a-2"); !ok {
		t.Error("Invalidate must only touch its own article")
	}
	if mr.Exists(GenerationKey("a-2")) {
		t.Error("a-2 generation must be untouched")
	}
}

func TestTreeCache_SetAfterInvalidateIsNotServed(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	// a reader misses and goes to the database
	_, gen, ok := c.Get(ctx, "a-1")
	if ok {
		t.Fatal("Expected miss")
	}

	// a new comment lands while the reader is building its tree
	c.Invalidate(ctx, "a-1")

	// the reader stores the tree it built from the older state
	c.Set(ctx, "a-1", gen, sampleTree())

	if tree, _, ok := c.Get(ctx, "a-1"); ok {
		t.Errorf("Tree built before the invalidation must not be served, got %+v", tree)
	}
}

func TestTreeCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "a-1", 0, sampleTree())
	mr.FastForward(2 * time.Minute)

	if _, _, ok := c.Get(ctx, "a-1"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestTreeCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)

	mr.Set(Key("a-1", 0), "{not json")

	if _, _, ok := c.Get(context.Background(), "a-1"); ok {
		t.Error("Expected corrupt entry to be treated as a miss")
	}
}

func TestTreeCache_ServerDownIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	mr.Close()

	_, gen, ok := c.Get(ctx, "a-1")
	if ok {
		t.Error("Expected miss when Redis is unavailable")
	}
	if gen >= 0 {
		t.Errorf("Expected unknown generation, got %d", gen)
	}
	// must not panic
	c.Set(ctx, "a-1", gen, sampleTree())
	c.Invalidate(ctx, "a-1")
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(config.CacheConfig{}); err == nil {
		t.Error("Expected error for empty address")
	}

	mr := miniredis.RunT(t)
	client, err := NewClient(config.CacheConfig{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	client.Close()
}

func TestNoop(t *testing.T) {
	var c TreeCache = Noop{}
	ctx := context.Background()

	c.Set(ctx, "a-1", 0, sampleTree())
	if _, _, ok := c.Get(ctx, "a-1"); ok {
		t.Error("Noop must never hit")
	}
	c.Invalidate(ctx, "a-1")
}
