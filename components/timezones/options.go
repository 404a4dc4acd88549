package timezones

import "net/http"

// GuardFunc rejects requests before any data is served. An error carrying a
// StatusCode method controls the response status.
type GuardFunc func(r *http.Request) error

// Options configures the handler.
type Options struct {
	// RoutePath is mounted under the base path given to Mount.
	RoutePath string
	// FieldID keys the label in each item; it must match the async field id.
	FieldID      string
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	Guard        GuardFunc

	// Zones replaces the embedded list.
	Zones []string
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the defaults: the full list for an empty query,
// capped at MaxLimit.
func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/timezones",
		FieldID:      "timezone",
		SearchParam:  "q",
		LimitParam:   "limit",
		DefaultLimit: 100,
		MaxLimit:     500,
	}
}

// NewOptions applies fns over the defaults, restoring defaults for zeroed
// fields.
func NewOptions(fns ...Option) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	def := DefaultOptions()
	if opts.RoutePath == "" {
		opts.RoutePath = def.RoutePath
	}
	if opts.FieldID == "" {
		opts.FieldID = def.FieldID
	}
	if opts.SearchParam == "" {
		opts.SearchParam = def.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = def.LimitParam
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = def.MaxLimit
	}
	if opts.Zones != nil {
		opts.Zones = append([]string{}, opts.Zones...)
	}
	return opts
}

// WithRoutePath sets the route under the base path.
func WithRoutePath(path string) Option {
	return func(o *Options) { o.RoutePath = path }
}

// WithFieldID sets the item key carrying the label.
func WithFieldID(id string) Option {
	return func(o *Options) { o.FieldID = id }
}

// WithLimits sets the default and maximum result counts.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(o *Options) {
		o.DefaultLimit = defaultLimit
		o.MaxLimit = maxLimit
	}
}

// WithGuard installs a request guard.
func WithGuard(guard GuardFunc) Option {
	return func(o *Options) { o.Guard = guard }
}

// WithZones serves zones instead of the embedded list.
func WithZones(zones []string) Option {
	return func(o *Options) {
		if zones == nil {
			o.Zones = nil
			return
		}
		o.Zones = append([]string{}, zones...)
	}
}

func clampLimit(limit int, opts Options) int {
	if limit <= 0 {
		limit = opts.DefaultLimit
	}
	if limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
