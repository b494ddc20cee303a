package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/technews/internal/port/cache/cachetest"
)

func TestCompliance(t *testing.T) {
	cachetest.RunComplianceTests(t, New())
}

func TestExpiredEntryNeverReturned(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 5*time.Minute)

	now = now.Add(5 * time.Minute)
	if _, found, _ := c.Get(ctx, "k"); !found {
		t.Fatal("entry should still be visible exactly at its expiry instant")
	}

	now = now.Add(time.Nanosecond)
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("entry returned after expiry")
	}
	// Passive expiry does not delete.
	if c.Len() != 1 {
		t.Fatalf("expected expired entry to remain until swept, len=%d", c.Len())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	now = now.Add(1000 * time.Hour)
	if _, found, _ := c.Get(ctx, "k"); !found {
		t.Fatal("zero TTL entry should not expire")
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	now := time.Now()
	c := New()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("a"), time.Minute)
	_ = c.Set(ctx, "long", []byte("b"), time.Hour)

	now = now.Add(2 * time.Minute)
	if removed := c.sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", c.Len())
	}
	if _, found, _ := c.Get(ctx, "long"); !found {
		t.Fatal("unexpired entry was swept")
	}
}

func TestStartSweeperStops(t *testing.T) {
	c := New()
	ctx := context.Background()
	_ = c.Set(ctx, "k", []byte("v"), time.Millisecond)

	cancel := c.StartSweeper(5 * time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if c.Len() != 0 {
		t.Fatal("sweeper did not reclaim the expired entry")
	}
}
