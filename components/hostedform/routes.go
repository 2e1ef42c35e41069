package hostedform

import (
	"fmt"
	"net/http"
	"strings"
)

// routePath is the subtree the handler owns under its base path. The
// trailing slash makes the ServeMux pattern a prefix match.
const routePath = "/forms/"

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the full mount prefix for the form routes under
// basePath.
func MountPath(basePath string) string {
	return mountPath(basePath, routePath)
}

// RegisterRoutes registers the form handler under basePath on mux.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	opts := NewOptions(fns...)
	return RegisterRoutesWithOptions(mux, basePath, opts)
}

// RegisterRoutesWithOptions registers a handler under basePath using a
// pre-built Options value. An empty basePath falls back to
// opts.BasePath.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("hostedform: missing mux")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	if basePath == "" {
		basePath = opts.BasePath
	}
	pattern := mountPath(basePath, routePath)
	mux.Handle(pattern, &handler{opts: opts, prefix: pattern})
	return pattern, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
