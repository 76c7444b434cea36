// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At startup Mount() runs
// every component's Init() (when it implements Initializer) and then lets
// it add its routes to the shared router.  Components attach their own
// guard requirements, so two components may both own top-level paths.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/acl"
	"github.com/yanizio/jobboard/internal/view"
)

// Deps are the process-wide services handed to each component.
type Deps struct {
	View  *view.Engine
	Guard *acl.Guard
	Log   *zap.Logger
}

// Initializer is optional.  If a Component implements it, Mount calls
// Init(deps) once before Routes.
type Initializer interface {
	Init(Deps) error
}

// Component contract.
//
// Routes() registers page handlers directly on r, e.g.
//
//	r.With(g.Require(acl.Authenticated)).Get("/dashboard", c.dashboard)
type Component interface {
	Name() string
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.  A second
// registration under the same name replaces the first.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so route
// registration order is stable between runs.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises comps and adds their routes to r.
func Mount(r chi.Router, d Deps, comps ...Component) error {
	for _, c := range comps {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(d); err != nil {
				return fmt.Errorf("component %s: %w", c.Name(), err)
			}
		}
		c.Routes(r)
		d.Log.Debug("component mounted", zap.String("component", c.Name()))
	}
	return nil
}
