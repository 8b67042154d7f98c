// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](0, nil)
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache ok = true")
	}
	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if fmt.Sprint(evicted) != "[b]" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b still cached")
	}
	if s := c.Stats(); s.Evictions != 1 || s.Len != 2 || s.Capacity != 2 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestCacheSetReplaces(t *testing.T) {
	var evicted []int
	c := New[string, int](0, func(_ string, v int) { evicted = append(evicted, v) })
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	if fmt.Sprint(evicted) != "[1]" {
		t.Errorf("evicted = %v, want [1]", evicted)
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[int, string](0, nil)
	calls := 0
	create := func() (string, error) {
		calls++
		return "v", nil
	}
	for range 3 {
		v, err := c.GetOrCreate(1, create)
		if err != nil || v != "v" {
			t.Fatalf("GetOrCreate = (%q, %v)", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrCreate(2, func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("GetOrCreate error = %v, want boom", err)
	}
	if c.Len() != 1 {
		t.Errorf("failed create was stored")
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 2 || s.HitRate != 0.5 {
		t.Errorf("Stats = %+v, want 2 hits, 2 misses", s)
	}
}

func TestCacheDeleteFuncAndClear(t *testing.T) {
	evicted := 0
	c := New[int, int](0, func(int, int) { evicted++ })
	for i := range 10 {
		c.Set(i, i)
	}
	if n := c.DeleteFunc(func(k, _ int) bool { return k%2 == 0 }); n != 5 {
		t.Errorf("DeleteFunc removed %d, want 5", n)
	}
	if !c.Delete(1) || c.Delete(1) {
		t.Error("Delete(1) twice")
	}
	c.Clear()
	if c.Len() != 0 || evicted != 10 {
		t.Errorf("Len = %d, evicted = %d, want 0 and 10", c.Len(), evicted)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[int, int](16, nil)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				_, _ = c.GetOrCreate((g+i)%32, func() (int, error) { return i, nil })
			}
		}()
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Errorf("Len() = %d, want <= 16", c.Len())
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New[string, int](1000, nil)
	for i := range 100 {
		c.Set(strconv.Itoa(i), i)
	}
	b.ResetTimer()
	for b.Loop() {
		c.Get("50")
	}
}

func BenchmarkCacheGetOrCreate(b *testing.B) {
	c := New[string, int](1000, nil)
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	i := 0
	b.ResetTimer()
	for b.Loop() {
		_, _ = c.GetOrCreate(keys[i%100], func() (int, error) { return i, nil })
		i++
	}
}
