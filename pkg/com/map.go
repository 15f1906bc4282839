package com

import (
	"errors"
	"sync"
)

// Map defines a concurrent-safe map structure.
// Keep in mind that the map shouldn't be copied after creation.
type Map[K comparable, V any] struct {
	m  map[K]V
	mu sync.Mutex
}

var ErrNotFound = errors.New("not found")

func NewMap[K comparable, V any]() *Map[K, V] { return &Map[K, V]{m: make(map[K]V, 10)} }

func (m *Map[K, _]) Has(key K) bool    { _, err := m.Find(key); return err == nil }
func (m *Map[_, _]) Len() int          { m.mu.Lock(); defer m.mu.Unlock(); return len(m.m) }
func (m *Map[K, V]) Put(key K, v V)    { m.mu.Lock(); m.m[key] = v; m.mu.Unlock() }
func (m *Map[K, _]) RemoveByKey(key K) { m.mu.Lock(); delete(m.m, key); m.mu.Unlock() }

// Pop removes the value of the key and returns it.
func (m *Map[K, V]) Pop(key K) (v V, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = m.m[key]; ok {
		delete(m.m, key)
	}
	return
}

// Find returns the value of the key or ErrNotFound.
func (m *Map[K, V]) Find(key K) (v V, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.m[key]; ok {
		return c, nil
	}
	return v, ErrNotFound
}

// Update changes the value of the key in place.
// It reports false if there is no such key.
func (m *Map[K, V]) Update(key K, fn func(v V) V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	if ok {
		m.m[key] = fn(v)
	}
	return ok
}

// Values returns a copy of all the values.
func (m *Map[K, V]) Values() []V {
	m.mu.Lock()
	defer m.mu.Unlock()
	vv := make([]V, 0, len(m.m))
	for _, v := range m.m {
		vv = append(vv, v)
	}
	return vv
}

// NetClient is a remote side of a live connection.
type NetClient[K comparable] interface {
	Disconnect()
	Id() K
}

// NetMap keeps live connections by their ids.
type NetMap[K comparable, T NetClient[K]] struct{ *Map[K, T] }

func NewNetMap[K comparable, T NetClient[K]]() NetMap[K, T] { return NetMap[K, T]{NewMap[K, T]()} }

func (m NetMap[K, T]) Add(client T)    { m.Put(client.Id(), client) }
func (m NetMap[K, T]) Remove(client T) { m.RemoveByKey(client.Id()) }

// DisconnectAll closes every connection in the map.
// Values are copied first, so clients may remove themselves on close.
func (m NetMap[K, T]) DisconnectAll() {
	for _, c := range m.Values() {
		c.Disconnect()
	}
}
