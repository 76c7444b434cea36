// internal/module/registry_test.go

package module

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountServesRegisteredPaths(t *testing.T) {
	Register("/_t/ping", func(env *Env, w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(env.Breaker()))
	})
	t.Cleanup(func() {
		mu.Lock()
		delete(registry, "/_t/ping")
		mu.Unlock()
	})

	r := chi.NewRouter()
	Mount(r, &Env{Breaker: func() string { return "closed" }})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_t/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "closed", rec.Body.String())
	assert.Contains(t, Paths(), "/_t/ping")
	assert.Nil(t, Lookup("/_t/missing"))
}
