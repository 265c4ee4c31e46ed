package cache

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestCache_GetPut(t *testing.T) {
	c := New[string, int](2)
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache should miss")
	}
	c.Put("a", 1)
	c.Put("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v; want 2, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if !slices.Equal(evicted, []string{"b"}) {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if st := c.Stats(); st.Evictions != 1 || st.Len != 2 || st.Capacity != 2 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestCache_GetOrCreate(t *testing.T) {
	c := New[int, string](4)
	calls := 0
	create := func() (string, error) {
		calls++
		return "v", nil
	}

	for range 3 {
		v, err := c.GetOrCreate(1, create)
		if err != nil || v != "v" {
			t.Fatalf("GetOrCreate = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	errBoom := errors.New("boom")
	if _, err := c.GetOrCreate(2, func() (string, error) { return "", errBoom }); !errors.Is(err, errBoom) {
		t.Errorf("GetOrCreate error = %v, want %v", err, errBoom)
	}
	if _, ok := c.Get(2); ok {
		t.Error("failed create must not be cached")
	}

	st := c.Stats()
	if st.Hits != 2 || st.Misses != 3 {
		t.Errorf("Hits/Misses = %d/%d, want 2/3", st.Hits, st.Misses)
	}
	if got := st.HitRate(); got != 0.4 {
		t.Errorf("HitRate() = %v, want 0.4", got)
	}
}

func TestCache_RemoveAndClear(t *testing.T) {
	c := New[int, int](8)
	var evicted []int
	c.OnEvict(func(k, _ int) { evicted = append(evicted, k) })
	for i := range 4 {
		c.Put(i, i)
	}

	if !c.Remove(2) || c.Remove(2) {
		t.Error("Remove should succeed exactly once")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	slices.Sort(evicted)
	if !slices.Equal(evicted, []int{0, 1, 2, 3}) {
		t.Errorf("evicted = %v, want [0 1 2 3]", evicted)
	}

	c.Put(9, 9)
	if v, ok := c.Get(9); !ok || v != 9 {
		t.Error("cache should be usable after Clear")
	}
}

func TestCache_MinimumCapacity(t *testing.T) {
	c := New[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get(2); !ok {
		t.Error("latest entry should be kept")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int, int](16)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				c.Put(g*100+i, i)
				c.Get(i)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 16 {
		t.Errorf("Len() = %d, want 16", c.Len())
	}
}
