// internal/view/assets.go
//
// Static assets.  The stylesheet ships embedded; an override directory may
// shadow any file with <override_dir>/static/<file>.  Templates resolve
// asset URLs with {{ asset "app.css" }}.

package view

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed static
var staticFS embed.FS

// AssetPrefix is where Static is mounted.
const AssetPrefix = "/static/"

// asset maps a file under static/ to its URL.
func asset(name string) string { return AssetPrefix + strings.TrimPrefix(name, "/") }

// Static serves the embedded assets, preferring override copies.  Mount it
// at AssetPrefix.
func (e *Engine) Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	embedded := http.FileServer(http.FS(sub))
	return http.StripPrefix(AssetPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if e.override != "" {
			clean := path.Clean("/" + r.URL.Path)
			p := filepath.Join(e.override, "static", filepath.FromSlash(clean))
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				http.ServeFile(w, r, p)
				return
			}
		}
		embedded.ServeHTTP(w, r)
	}))
}
