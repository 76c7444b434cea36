// internal/auth/registry_test.go

package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T, opts RegistryOptions) (*Registry, *int) {
	t.Helper()
	var mu sync.Mutex
	built := 0
	r := NewRegistry(func(string) (Storage, Gateway) {
		mu.Lock()
		built++
		mu.Unlock()
		return newFakeStore(), newFakeGateway()
	}, opts)
	t.Cleanup(r.Close)
	return r, &built
}

func TestRegistryReusesController(t *testing.T) {
	r, built := newTestRegistry(t, RegistryOptions{})

	var wg sync.WaitGroup
	ctls := make([]*Controller, 16)
	for i := range ctls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctls[i] = r.Get("sid-a")
		}(i)
	}
	wg.Wait()

	for _, c := range ctls[1:] {
		if c != ctls[0] {
			t.Fatalf("different controllers for one sid")
		}
	}
	if *built != 1 {
		t.Fatalf("factory called %d times", *built)
	}
	if r.Get("sid-b") == ctls[0] {
		t.Fatalf("browsers share a controller")
	}
}

func TestRegistryBootstrapsInBackground(t *testing.T) {
	r, _ := newTestRegistry(t, RegistryOptions{})
	c := r.Get("sid-a")

	select {
	case <-c.Ready():
	case <-time.After(time.Second):
		t.Fatalf("bootstrap did not finish")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if s := c.WaitSettled(ctx); s.State.Kind() != Anonymous {
		t.Fatalf("kind = %v", s.State.Kind())
	}
}

func TestRegistryEvictsIdle(t *testing.T) {
	r, _ := newTestRegistry(t, RegistryOptions{IdleTTL: time.Minute})
	base := time.Now()
	r.now = func() time.Time { return base }

	old := r.Get("old")
	r.now = func() time.Time { return base.Add(50 * time.Second) }
	r.Get("new")

	r.sweep(base.Add(90 * time.Second))
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
	if r.Get("old") == old {
		t.Fatalf("idle controller survived")
	}
}

func TestRegistryEvictsLRU(t *testing.T) {
	r, _ := newTestRegistry(t, RegistryOptions{MaxEntries: 2})
	base := time.Now()
	for i, sid := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Second)
		r.now = func() time.Time { return at }
		r.Get(sid)
	}

	r.sweep(base.Add(3 * time.Second))
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}
	if _, ok := r.m.Load("a"); ok {
		t.Fatalf("least recently used controller kept")
	}
}
