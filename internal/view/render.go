// internal/view/render.go
//
// Central view engine: template lookup, override chain, func-map injection,
// and an LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render       – run a component page inside the layout and write it.
//   - RenderStatus – same, with an explicit status code.
//   - Error        – the shared error page.
//   - Loading      – the neutral placeholder shown while a session resolves.
//
// Lookup precedence (first hit wins):
//   1. <override_dir>/<comp>/<name>.html
//   2. the component's embedded templates/<name>.html
//
// A page set is the layout, the page file, and every partial ("_*.html")
// from the same component, so sub-templates ({{ template "job_card" . }})
// work out-of-the-box.  Pages define "title" and "content"; the layout
// defines "layout" and calls both.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/cache"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/requestinfo"
)

//go:embed templates/*.html
var coreFS embed.FS

// Core is the component name of the engine's own pages.
const Core = "core"

// ErrNoTemplate is returned when no source provides the requested page.
var ErrNoTemplate = errors.New("view: template not found")

// Options configures an Engine.
type Options struct {
	OverrideDir string // optional on-disk overrides, see lookup precedence
	CacheSize   int    // parsed sets kept; <1 disables caching
}

// Engine renders pages.  Safe for concurrent use.
type Engine struct {
	override string
	lru      *cache.LRU // nil when caching is off

	mu    sync.RWMutex
	comps map[string]fs.FS
}

// New returns an Engine with the core templates registered.
func New(opts Options) *Engine {
	e := &Engine{override: opts.OverrideDir, comps: map[string]fs.FS{}}
	if opts.CacheSize > 0 {
		e.lru = cache.New(opts.CacheSize)
	}
	sub, _ := fs.Sub(coreFS, "templates")
	e.Register(Core, sub)
	return e
}

// Register adds a component's template tree (rooted at its templates dir).
func (e *Engine) Register(comp string, fsys fs.FS) {
	e.mu.Lock()
	e.comps[comp] = fsys
	e.mu.Unlock()
	if e.lru != nil {
		e.lru.Purge()
	}
}

//
// page model
//

// Page is the value every template receives.
type Page struct {
	Title   string
	Path    string
	Session auth.Snapshot
	User    api.User
	Notices []auth.Notice
	Info    *requestinfo.RequestInfo
	Form    form.State
	Data    any
}

// LoggedIn reports an authenticated session.
func (p Page) LoggedIn() bool { return p.Session.State.IsAuthenticated() }

// IsAdmin reports an authenticated administrator.
func (p Page) IsAdmin() bool { return p.Session.State.IsAdmin() }

// Resolved reports that the session is known, so the nav can be drawn.
func (p Page) Resolved() bool { return p.Session.State.Kind() != auth.Unknown }

// fill copies request-scoped state into p.  Notices are drained here, so
// each one is shown exactly once.  Pages without their own form state still
// get a CSRF token for the logout button and inline action forms.
func fill(r *http.Request, p *Page) error {
	if p.Form.CSRF == "" {
		tok, err := form.TokenFor(r)
		if err != nil {
			return err
		}
		p.Form.CSRF = tok
	}
	p.Path = r.URL.Path
	p.Info = requestinfo.FromContext(r.Context())
	if ctl := auth.FromContext(r.Context()); ctl != nil {
		p.Session = ctl.Snapshot()
		p.User, _ = p.Session.State.User()
		p.Notices = append(p.Notices, ctl.Notices()...)
	}
	return nil
}

//
// public helpers
//

// Render executes comp/name inside the layout with status 200.
func (e *Engine) Render(w http.ResponseWriter, r *http.Request, comp, name string, p Page) error {
	return e.RenderStatus(w, r, http.StatusOK, comp, name, p)
}

// RenderStatus renders into a buffer first, so a template error never
// leaves a half-written page.
func (e *Engine) RenderStatus(w http.ResponseWriter, r *http.Request, status int, comp, name string, p Page) error {
	t, err := e.load(comp, name)
	if err != nil {
		return err
	}
	if err := fill(r, &p); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("view %s/%s: %w", comp, name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// Error renders the shared error page.  Rendering failures fall back to
// plain text.
func (e *Engine) Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	p := Page{Title: http.StatusText(status), Data: msg}
	if err := e.RenderStatus(w, r, status, Core, "error", p); err != nil {
		zap.L().Error("render error page", zap.Error(err))
		http.Error(w, msg, status)
	}
}

// Loading returns the placeholder handler used by the route guard.
func (e *Engine) Loading() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := e.Render(w, r, Core, "loading", Page{Title: "Loading"}); err != nil {
			zap.L().Error("render loading page", zap.Error(err))
			http.Error(w, "Loading…", http.StatusOK)
		}
	})
}

//
// internal: load
//

func (e *Engine) load(comp, name string) (*template.Template, error) {
	key := comp + "::" + name
	if e.lru != nil {
		if v, ok := e.lru.Get(key); ok {
			return v.(*template.Template), nil
		}
	}

	e.mu.RLock()
	cfs, ok := e.comps[comp]
	core := e.comps[Core]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown component %q", ErrNoTemplate, comp)
	}

	t := template.New(name).Funcs(funcMap())
	if _, err := e.parseOne(t, core, "", "layout.html"); err != nil {
		return nil, err
	}
	found, err := e.parseOne(t, cfs, comp, name+".html")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoTemplate, comp, name)
	}
	partials, _ := fs.Glob(cfs, "_*.html")
	for _, p := range partials {
		if _, err := e.parseOne(t, cfs, comp, p); err != nil {
			return nil, err
		}
	}

	if e.lru != nil {
		e.lru.Add(key, t)
	}
	return t, nil
}

// parseOne adds file to t, preferring the override copy.  comp "" means
// the override root, used for the layout.
func (e *Engine) parseOne(t *template.Template, fsys fs.FS, comp, file string) (bool, error) {
	if e.override != "" {
		p := filepath.Join(e.override, comp, file)
		if b, err := os.ReadFile(p); err == nil {
			_, err = t.New(path.Join(comp, file)).Parse(string(b))
			return true, err
		}
	}
	b, err := fs.ReadFile(fsys, file)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_, err = t.New(path.Join(comp, file)).Parse(string(b))
	return true, err
}

//
// func-map builders
//

func funcMap() template.FuncMap {
	fm := template.FuncMap{
		"dict":        dict,
		"join":        strings.Join,
		"contains":    contains,
		"truncate":    truncate,
		"date":        date,
		"noticeClass": noticeClass,
		"statusClass": statusClass,
		"asset":       asset,
	}
	for k, v := range uaFuncMap() {
		fm[k] = v
	}
	return fm
}
