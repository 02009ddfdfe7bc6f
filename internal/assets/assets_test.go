package assets

import "testing"

func TestCacheGetSet(t *testing.T) {
	c := NewCache[int]()

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("Bunker", 7)
	v, ok := c.Get("BUNKER")
	if !ok || v != 7 {
		t.Fatalf("Get(BUNKER) = %d, %v; want 7, true", v, ok)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d, %d; want 1, 1", hits, misses)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d; want 1", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache[string]()
	c.Set("x", "y")
	c.Get("x")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	hits, misses := c.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("Stats() after Clear = %d, %d", hits, misses)
	}
}

func TestCacheEach(t *testing.T) {
	c := NewCache[int]()
	c.Set("a", 1)
	c.Set("b", 2)
	sum := 0
	c.Each(func(_ string, v int) { sum += v })
	if sum != 3 {
		t.Errorf("sum = %d; want 3", sum)
	}
}
