package remotecheck

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// GuardFunc authorises a request before the lookup runs.
type GuardFunc func(r *http.Request) error

// LookupFunc decides whether value is acceptable. values holds every
// parameter of the request, including additional fields. An error means the
// lookup could not be performed.
type LookupFunc func(ctx context.Context, value string, values url.Values) (bool, error)

// Recorder receives one observation per answered request.
type Recorder interface {
	ObserveRemoteCheck(endpoint string, valid bool, err error)
}

type Options struct {
	RoutePath string
	Param     string
	Guard     GuardFunc
	Lookup    LookupFunc
	Recorder  Recorder
	Timeout   time.Duration
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath: "/validate",
		Param:     "value",
		Timeout:   2 * time.Second,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/validate"
	}
	if opts.Param == "" {
		opts.Param = "value"
	}
	if opts.Timeout < 0 {
		opts.Timeout = 0
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithParam names the request parameter holding the value, usually the
// field name.
func WithParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Param = name
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLookup(fn LookupFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Lookup = fn
	}
}

func WithRecorder(r Recorder) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Recorder = r
	}
}

// WithTimeout bounds each lookup. Zero disables the bound.
func WithTimeout(d time.Duration) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Timeout = d
	}
}
