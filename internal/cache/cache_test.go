package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	defer m.Stop()
	ctx := context.Background()
	if err := m.SetWithTTL(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	v, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if v != "v" {
		t.Fatalf("got %q", v)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	defer m.Stop()
	ctx := context.Background()
	if err := m.SetWithTTL(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	keys, err := m.Keys(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Fatalf("expired key still listed: %v", keys)
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	defer m.Stop()
	ctx := context.Background()
	_ = m.SetWithTTL(ctx, "k", "v", time.Minute)
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}

func TestMemoryKeysPrefix(t *testing.T) {
	m := NewMemory()
	defer m.Stop()
	ctx := context.Background()
	_ = m.SetWithTTL(ctx, "location?driverId=1", "a", time.Minute)
	_ = m.SetWithTTL(ctx, "location?driverId=2", "b", time.Minute)
	_ = m.SetWithTTL(ctx, "otp?phone=01711111111", "c", time.Minute)
	keys, err := m.Keys(ctx, "location?driverId=")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 location keys, got %v", keys)
	}
}

func TestMemoryLastWriteWins(t *testing.T) {
	m := NewMemory()
	defer m.Stop()
	ctx := context.Background()
	_ = m.SetWithTTL(ctx, "k", "old", time.Minute)
	_ = m.SetWithTTL(ctx, "k", "new", time.Minute)
	v, _ := m.Get(ctx, "k")
	if v != "new" {
		t.Fatalf("expected overwrite, got %q", v)
	}
}
