// internal/cache/lru_test.go

package cache

import "testing"

func TestLRUEvictsLeastRecent(t *testing.T) {
	var evicted []any
	c := New(2)
	c.OnEvict = func(k, _ any) { evicted = append(evicted, k) }

	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatalf("expected hit for a")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("OnEvict saw %v", evicted)
	}
}

func TestLRUUpdateAndRemove(t *testing.T) {
	c := New(4)
	c.Add("k", 1)
	c.Add("k", 2)
	if v, _ := c.Get("k"); v.(int) != 2 {
		t.Fatalf("update lost: %v", v)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d", c.Len())
	}
	c.Remove("k")
	c.Remove("missing")
	if c.Len() != 0 {
		t.Fatalf("Len after Remove = %d", c.Len())
	}
}

func TestNewPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(0)
}
