// Package module mounts independently middlewared HTTP handlers under
// single-level path prefixes.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/slate/pkg/middleware"
)

// Module strips its prefix from incoming requests and delegates to an inner
// router wrapped in the module's own middleware chain. The chain is sealed
// by the first request; Use panics afterwards.
type Module struct {
	prefix string
	router http.Handler
	chain  middleware.Chain

	once    sync.Once
	handler http.Handler
}

// New creates a Module with the given single-level prefix (e.g. "/api").
// Panics if the prefix is empty, missing a leading slash, or multi-level.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware to the module's chain. Earlier calls wrap later ones.
func (m *Module) Use(mw middleware.Func) {
	if m.handler != nil {
		panic(fmt.Errorf("module %s: middleware added after first request", m.prefix))
	}
	m.chain.Use(mw)
}

// Serve strips the module prefix from the request path and dispatches to
// the wrapped router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.once.Do(func() {
		m.handler = m.chain.Then(m.router)
	})

	inner := req.Clone(req.Context())
	inner.URL.Path = extractPath(req.URL.Path, m.prefix)
	inner.URL.RawPath = ""
	m.handler.ServeHTTP(w, inner)
}

func extractPath(fullPath, prefix string) string {
	path := strings.TrimPrefix(fullPath, prefix)
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case prefix[0] != '/':
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || len(prefix) == 1:
		return fmt.Errorf("module prefix must be a single-level sub-path: %s", prefix)
	}
	return nil
}
