package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatalf("a missing")
	}
	if !c.Add("c", 3) {
		t.Fatalf("adding a third entry should evict")
	}

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}

	if c.Add("a", 10) {
		t.Fatalf("replacing must not evict")
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("update lost: %v", v)
	}
}

func TestLRU_RemoveAndStats(t *testing.T) {
	type key struct{ id, day string }
	c := New[key, []byte](4)
	k := key{"s1", "2026-01-01"}
	c.Add(k, []byte("pdf"))
	c.Get(k)
	c.Remove(k)
	if _, ok := c.Get(k); ok {
		t.Fatalf("removed key still present")
	}
	c.Remove(k) // no-op

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestLRU_ConcurrentUse(t *testing.T) {
	c := New[string, int](16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("%d-%d", g, i%20)
				c.Add(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Fatalf("len = %d exceeds capacity", c.Len())
	}
}

func TestNew_PanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New[string, int](0)
}
