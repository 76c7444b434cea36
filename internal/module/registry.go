// internal/module/registry.go
//
// A super-light registry for diagnostic modules: modules call
// Register(path, handler) in an init() function and the router mounts every
// registered path with Mount when modules are enabled.
//
// Handler signature:
//
//	func(env *Env, w http.ResponseWriter, r *http.Request)
//
// Env gives handlers process-wide facts (config, API breaker state, live
// controller count) without importing cmd/web.
package module

import (
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/jobboard/internal/config"
)

// Env is what handlers can see of the running process.
type Env struct {
	Config      *config.Config
	Breaker     func() string // API circuit-breaker state
	Controllers func() int    // live per-browser controllers
}

// Handler is what modules register.
type Handler func(env *Env, w http.ResponseWriter, r *http.Request)

var (
	mu       sync.RWMutex
	registry = map[string]Handler{}
)

// Register is called from module init() functions.
func Register(path string, h Handler) {
	mu.Lock()
	registry[path] = h
	mu.Unlock()
}

// Lookup returns the handler for an exact path or nil.
func Lookup(path string) Handler {
	mu.RLock()
	defer mu.RUnlock()
	return registry[path]
}

// Paths lists the registered paths, sorted.
func Paths() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Mount adds a GET route for every registered path.
func Mount(r chi.Router, env *Env) {
	for _, p := range Paths() {
		h := Lookup(p)
		r.Get(p, func(w http.ResponseWriter, r *http.Request) { h(env, w, r) })
	}
}
