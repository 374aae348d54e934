package embeddings

import "testing"

func key(b byte) [16]byte {
	var k [16]byte
	k[0] = b
	return k
}

func TestLRU_GetMiss(t *testing.T) {
	c := newLRU(2)
	if _, ok := c.get(key(1)); ok {
		t.Fatal("get on empty cache should miss")
	}
}

func TestLRU_PutThenGet(t *testing.T) {
	c := newLRU(2)
	c.put(key(1), []float32{1, 2, 3})

	got, ok := c.get(key(1))
	if !ok {
		t.Fatal("expected a hit after put")
	}
	if len(got) != 3 || got[0] != 1 {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRU(2)
	c.put(key(1), []float32{1})
	c.put(key(2), []float32{2})
	c.put(key(3), []float32{3}) // evicts key 1, the least recently used

	if _, ok := c.get(key(1)); ok {
		t.Error("key 1 should have been evicted")
	}
	if _, ok := c.get(key(2)); !ok {
		t.Error("key 2 should still be present")
	}
	if _, ok := c.get(key(3)); !ok {
		t.Error("key 3 should still be present")
	}
}

func TestLRU_GetRefreshesRecency(t *testing.T) {
	c := newLRU(2)
	c.put(key(1), []float32{1})
	c.put(key(2), []float32{2})

	c.get(key(1)) // touch key 1, making key 2 the least recently used

	c.put(key(3), []float32{3}) // should evict key 2, not key 1

	if _, ok := c.get(key(1)); !ok {
		t.Error("key 1 should still be present after being touched")
	}
	if _, ok := c.get(key(2)); ok {
		t.Error("key 2 should have been evicted")
	}
}

func TestLRU_PutOverwritesExisting(t *testing.T) {
	c := newLRU(2)
	c.put(key(1), []float32{1})
	c.put(key(1), []float32{9, 9})

	got, ok := c.get(key(1))
	if !ok || len(got) != 2 || got[0] != 9 {
		t.Errorf("got %v, ok=%v, want [9 9], ok=true", got, ok)
	}
}
