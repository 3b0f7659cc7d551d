package remotecheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goliatone/go-formguard/pkg/report"
	"github.com/goliatone/go-formguard/pkg/rules"
	"github.com/goliatone/go-formguard/pkg/server"
)

// Component bundles one check: its HTTP endpoint and the matching server
// check.
type Component struct {
	opts Options
}

// New constructs a component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns the net/http handler answering remote checks.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return Handler()
	}
	return HandlerWithOptions(c.opts)
}

// RegisterRoutes registers the component handler under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.opts)
}

// Check turns the component lookup into a server check for field, adding
// message when the submitted value is rejected.
func (c *Component) Check(field, message string) server.CheckFunc {
	return Check(field, message, c.opts.Lookup)
}

// Check builds a server check running lookup against the submitted value of
// field. Blank values and unknown fields are left to the declarative rules.
func Check(field, message string, lookup LookupFunc) server.CheckFunc {
	return func(ctx context.Context, snap rules.Snapshot, out report.Report) error {
		if lookup == nil {
			return ErrNoLookup
		}
		value, ok := snap.Lookup(field)
		if !ok || value.Blank() {
			return nil
		}
		valid, err := lookup(ctx, value.Text(), url.Values{field: {value.Text()}})
		if err != nil {
			return fmt.Errorf("remotecheck: %s: %w", field, err)
		}
		if !valid {
			out.Add(field, message)
		}
		return nil
	}
}
