// internal/session/memory.go
//
// In-process backend.  Each sid maps to a small key-value map held in an
// LRU, so a flood of anonymous browsers cannot grow memory without bound.

package session

import (
	"context"
	"sync"

	"github.com/yanizio/jobboard/internal/cache"
)

// Memory is the default Backend.  Values are lost on restart.
type Memory struct {
	mu  sync.Mutex // guards the per-sid maps stored in lru
	lru *cache.LRU
}

// NewMemory returns a Memory backend holding at most maxSessions browsers.
func NewMemory(maxSessions int) *Memory {
	return &Memory{lru: cache.New(maxSessions)}
}

func (m *Memory) Get(_ context.Context, sid, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lru.Get(sid)
	if !ok {
		return "", false, nil
	}
	val, found := v.(map[string]string)[key]
	return val, found, nil
}

func (m *Memory) Set(_ context.Context, sid, key, val string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.lru.Get(sid)
	if !ok {
		kv = map[string]string{}
		m.lru.Add(sid, kv)
	}
	kv.(map[string]string)[key] = val
	return nil
}

func (m *Memory) Remove(_ context.Context, sid string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lru.Get(sid)
	if !ok {
		return nil
	}
	kv := v.(map[string]string)
	for _, k := range keys {
		delete(kv, k)
	}
	if len(kv) == 0 {
		m.lru.Remove(sid)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
