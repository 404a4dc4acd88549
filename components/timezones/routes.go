package timezones

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the route under basePath.
func MountPath(basePath string, fns ...Option) string {
	return mountPath(basePath, NewOptions(fns...).RoutePath)
}

// Register mounts the handler on mux under basePath and returns the full
// route, which is what an async field's url should point at.
func Register(mux Mux, basePath string, fns ...Option) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("timezones: mux is nil")
	}
	opts := NewOptions(fns...)
	path := mountPath(basePath, opts.RoutePath)
	mux.Handle(path, HandlerWithOptions(opts))
	return path, nil
}

func mountPath(basePath, routePath string) string {
	base := "/" + strings.Trim(strings.TrimSpace(basePath), "/")
	route := "/" + strings.Trim(strings.TrimSpace(routePath), "/")
	if base == "/" {
		return route
	}
	return base + route
}
