package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k1 := Key("openai", "text-embedding-3-small", "fièvre")
	k2 := Key("openai", "text-embedding-3-small", "fièvre")
	if k1 != k2 {
		t.Error("identical parts must produce identical keys")
	}
	if !strings.HasPrefix(k1, "cephalo:v1:") {
		t.Errorf("key %q missing version prefix", k1)
	}
	if k1 == Key("ollama", "text-embedding-3-small", "fièvre") {
		t.Error("different provider must change the key")
	}
	// Part boundaries matter: ("ab","c") != ("a","bc").
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries must be part of the key")
	}
}

func TestMemoryCacheRoundtrip(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Hour)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache reported a hit")
	}

	if err := c.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "v" {
		t.Errorf("Get = %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestDiskCacheRoundtrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set(Key("p", "m", "text"), []byte("vec"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh instance over the same directory sees the entry.
	c2 := NewDiskCache(dir, time.Hour)
	got, found := c2.Get(Key("p", "m", "text"))
	if !found || string(got) != "vec" {
		t.Errorf("Get = %q, %v, want persisted value", got, found)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expired entry must not be served")
	}
}

func TestLayeredCachePromotes(t *testing.T) {
	dir := t.TempDir()

	// Seed the disk layer only.
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	layered := NewLayeredCache(time.Hour, dir, time.Hour)
	got, found := layered.Get("k")
	if !found || string(got) != "v" {
		t.Fatalf("layered Get = %q, %v", got, found)
	}

	// After promotion the memory layer serves it even if the disk
	// entry disappears.
	if err := disk.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := layered.Get("k"); !found {
		t.Error("promoted entry missing from memory layer")
	}
}
