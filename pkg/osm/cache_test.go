package osm

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	cache := NewTTLCache[string, int](time.Minute)

	cache.Set("a", 1)
	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := cache.Get("missing"); ok {
		t.Error("Get(missing) reported a hit")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	cache := NewTTLCache[string, int](10 * time.Millisecond)

	cache.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) returned expired entry")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after expired Get, want 0", cache.Len())
	}
}

func TestTTLCacheDelete(t *testing.T) {
	cache := NewTTLCache[string, int](time.Minute)
	cache.Set("a", 1)
	cache.Delete("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) found deleted entry")
	}
}

func TestTTLCachePurge(t *testing.T) {
	cache := NewTTLCache[string, int](time.Minute)
	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Purge()
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after Purge, want 0", cache.Len())
	}
}

func TestTTLCacheConcurrentAccess(t *testing.T) {
	cache := NewTTLCache[int, int](time.Minute)

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				cache.Set(i, g)
				cache.Get(i)
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
}
