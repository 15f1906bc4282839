package com

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

type testClient struct {
	id     int
	closed int32
	m      NetMap[int, *testClient]
}

func (t *testClient) Id() int { return t.id }
func (t *testClient) Disconnect() {
	atomic.AddInt32(&t.closed, 1)
	if t.m.Map != nil {
		t.m.Remove(t)
	}
}

func TestMap(t *testing.T) {
	m := NewMap[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)

	if !m.Has("a") || m.Has("c") {
		t.Errorf("wrong Has")
	}
	if v, err := m.Find("b"); err != nil || v != 2 {
		t.Errorf("Find = %v, %v", v, err)
	}
	if _, err := m.Find("c"); err != ErrNotFound {
		t.Errorf("err = %v, want %v", err, ErrNotFound)
	}
	if !m.Update("a", func(v int) int { return v + 10 }) || m.Update("c", func(v int) int { return v }) {
		t.Errorf("wrong Update")
	}
	if v, ok := m.Pop("a"); !ok || v != 11 {
		t.Errorf("Pop = %v, %v", v, ok)
	}
	if _, ok := m.Pop("a"); ok {
		t.Errorf("popped twice")
	}
	if m.Len() != 1 {
		t.Errorf("len = %v", m.Len())
	}
}

func TestMapConcurrent(t *testing.T) {
	m := NewMap[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Put(i, i)
			m.Update(i, func(v int) int { return v * 2 })
		}(i)
	}
	wg.Wait()
	vv := m.Values()
	sort.Ints(vv)
	if len(vv) != 100 || vv[99] != 198 {
		t.Errorf("values = %v", vv)
	}
}

func TestNetMapDisconnectAll(t *testing.T) {
	m := NewNetMap[int, *testClient]()
	clients := []*testClient{{id: 1, m: m}, {id: 2, m: m}, {id: 3, m: m}}
	for _, c := range clients {
		m.Add(c)
	}
	m.DisconnectAll()

	for _, c := range clients {
		if atomic.LoadInt32(&c.closed) != 1 {
			t.Errorf("client %v closed %v times", c.id, c.closed)
		}
	}
	if m.Len() != 0 {
		t.Errorf("map still has %v clients", m.Len())
	}
}

func TestUidShort(t *testing.T) {
	id := NewUid()
	s := id.Short()
	if len(s) != 7 || s[:3] != id.String()[:3] {
		t.Errorf("short = %v", s)
	}
	if !NilUid.IsEmpty() || id.IsEmpty() {
		t.Errorf("wrong IsEmpty")
	}
}
