package fractal

import (
	"fmt"
	"slices"
	"testing"

	"github.com/matzehuels/chaosgame/pkg/ifs"
)

func seq(x float64) ifs.PointSequence {
	return ifs.PointSequence{{X: x, Y: x}}
}

func TestResultCacheEvictsOldestInserted(t *testing.T) {
	c := NewResultCache(5)
	for i := 0; i < 5; i++ {
		if _, ok := c.Add(fmt.Sprintf("f%d", i), seq(float64(i))); ok {
			t.Fatalf("unexpected eviction while filling (i=%d)", i)
		}
	}

	evicted, ok := c.Add("f5", seq(5))
	if !ok || evicted != "f0" {
		t.Fatalf("Add(f5) evicted %q (ok=%v), want f0", evicted, ok)
	}
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
	if c.Contains("f0") {
		t.Error("f0 should have been evicted")
	}
	want := []string{"f1", "f2", "f3", "f4", "f5"}
	if got := c.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestResultCacheReadsDoNotReorder(t *testing.T) {
	c := NewResultCache(3)
	c.Add("a", seq(1))
	c.Add("b", seq(2))
	c.Add("c", seq(3))

	// Reading "a" repeatedly must not protect it: eviction is by insertion.
	for i := 0; i < 10; i++ {
		if _, ok := c.Get("a"); !ok {
			t.Fatal("a should be cached")
		}
	}
	evicted, ok := c.Add("d", seq(4))
	if !ok || evicted != "a" {
		t.Errorf("Add(d) evicted %q (ok=%v), want a", evicted, ok)
	}
}

func TestResultCacheReAddMovesToNewest(t *testing.T) {
	c := NewResultCache(2)
	c.Add("a", seq(1))
	c.Add("b", seq(2))

	if _, ok := c.Add("a", seq(10)); ok {
		t.Fatal("replacing an existing name must not evict")
	}
	got, _ := c.Get("a")
	if got[0].X != 10 {
		t.Errorf("Get(a) = %v, want replaced value", got)
	}
	if evicted, _ := c.Add("c", seq(3)); evicted != "b" {
		t.Errorf("Add(c) evicted %q, want b", evicted)
	}
}

func TestResultCacheRemoveAndPurge(t *testing.T) {
	c := NewResultCache(0)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", c.Capacity(), DefaultCapacity)
	}

	c.Add("a", seq(1))
	c.Add("b", seq(2))
	if !c.Remove("a") {
		t.Error("Remove(a) should report true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) should report false")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d, want 0", c.Len())
	}
}
