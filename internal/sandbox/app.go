// Package sandbox is the demonstration application: a catalogue of sample
// forms served as descriptors, a submit endpoint validating posts with the
// server evaluator, and the remote check endpoints the sample forms call.
package sandbox

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formguard/components/remotecheck"
	"github.com/goliatone/go-formguard/internal/logging"
	"github.com/goliatone/go-formguard/internal/metrics"
	"github.com/goliatone/go-formguard/pkg/encoding"
	"github.com/goliatone/go-formguard/pkg/rules"
	"github.com/goliatone/go-formguard/pkg/server"
)

// ErrUnknownForm is returned for ids missing from the catalogue.
var ErrUnknownForm = errors.New("sandbox: unknown form")

// Options configures the application.
type Options struct {
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	MetricsPath      string
	RateLimit        int
	RateWindow       time.Duration
	LookupTimeout    time.Duration
	TakenUsernames   []string
	RegisteredEmails []string
	// Schemas are served next to the sample forms, keyed by schema name.
	Schemas []*rules.Schema
}

// DefaultOptions mirrors the defaults of the server configuration.
func DefaultOptions() Options {
	return Options{
		Logger:           zerolog.Nop(),
		MetricsPath:      "/metrics",
		RateLimit:        30,
		RateWindow:       time.Minute,
		LookupTimeout:    2 * time.Second,
		TakenUsernames:   []string{"admin", "test", "user"},
		RegisteredEmails: []string{"test@example.com", "admin@example.com"},
	}
}

// Form is one catalogue entry.
type Form struct {
	ID     string
	Title  string
	Schema *rules.Schema
}

// Descriptor encodes the form for clients.
func (f Form) Descriptor(enc *encoding.Registry) encoding.FormDescriptor {
	return enc.Describe(f.Schema, "/forms/"+f.ID, http.MethodPost)
}

// App holds the catalogue and the evaluator.
type App struct {
	opts      Options
	logger    zerolog.Logger
	registry  *rules.Registry
	encoder   *encoding.Registry
	evaluator *server.Evaluator
	usernames *remotecheck.Component
	emails    *remotecheck.Component

	mu    sync.RWMutex
	forms map[string]Form
	order []string

	handler http.Handler
}

// New builds the application and its router.
func New(opts Options) (*App, error) {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	logger := logging.Component(opts.Logger, "sandbox")

	reg := rules.NewRegistry()
	if err := RegisterKinds(reg); err != nil {
		return nil, err
	}

	evalOpts := []server.Option{
		server.WithRegistry(reg),
		server.WithLogger(logging.Component(opts.Logger, "server")),
	}
	if opts.Metrics != nil {
		evalOpts = append(evalOpts, server.WithRecorder(opts.Metrics))
	}

	a := &App{
		opts:      opts,
		logger:    logger,
		registry:  reg,
		encoder:   encoding.Default(),
		evaluator: server.New(evalOpts...),
		forms:     make(map[string]Form),
	}
	a.usernames = a.remoteComponent("/validate/username", "Username", opts.TakenUsernames)
	a.emails = a.remoteComponent("/validate/email", "Email", opts.RegisteredEmails)

	samples := []struct {
		model any
		title string
	}{
		{&SimpleConditional{}, "Simple conditional"},
		{&ConditionalValidation{}, "Conditional validation"},
		{&RemoteValidation{}, "Remote validation"},
		{&Register{}, "Register"},
		{&Price{}, "Price"},
		{&Comprehensive{}, "Comprehensive"},
	}
	for _, s := range samples {
		schema, err := a.evaluator.Schema(s.model)
		if err != nil {
			return nil, err
		}
		if err := a.add(Form{ID: schema.Name(), Title: s.title, Schema: schema}); err != nil {
			return nil, err
		}
	}
	extra := make([]*rules.Schema, 0, len(opts.Schemas))
	for _, schema := range opts.Schemas {
		if schema != nil {
			extra = append(extra, schema)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Name() < extra[j].Name() })
	for _, schema := range extra {
		if err := a.add(Form{ID: schema.Name(), Title: schema.Name(), Schema: schema}); err != nil {
			return nil, err
		}
	}

	remote := (RemoteValidation{}).FormName()
	a.evaluator.AddCheck(remote, "username", a.usernames.Check("Username", "Username is already taken"))
	a.evaluator.AddCheck(remote, "email", a.emails.Check("Email", "Email is already registered"))

	handler, err := a.routes()
	if err != nil {
		return nil, err
	}
	a.handler = handler
	return a, nil
}

func (a *App) remoteComponent(route, param string, reserved []string) *remotecheck.Component {
	fns := []remotecheck.OptionFn{
		remotecheck.WithRoutePath(route),
		remotecheck.WithParam(param),
		remotecheck.WithLookup(remotecheck.NewSet(reserved...).Available),
		remotecheck.WithTimeout(a.opts.LookupTimeout),
	}
	if a.opts.Metrics != nil {
		fns = append(fns, remotecheck.WithRecorder(a.opts.Metrics))
	}
	return remotecheck.New(fns...)
}

func (a *App) add(f Form) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.forms[f.ID]; exists {
		return fmt.Errorf("sandbox: duplicate form %q", f.ID)
	}
	a.forms[f.ID] = f
	a.order = append(a.order, f.ID)
	return nil
}

// Form returns the catalogue entry for id.
func (a *App) Form(id string) (Form, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	f, ok := a.forms[id]
	if !ok {
		return Form{}, fmt.Errorf("%w: %s", ErrUnknownForm, id)
	}
	return f, nil
}

// Forms lists the catalogue, samples first then extra schemas sorted by id.
func (a *App) Forms() []Form {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Form, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.forms[id])
	}
	return out
}

// Evaluator exposes the server evaluator, for registering extra checks.
func (a *App) Evaluator() *server.Evaluator {
	return a.evaluator
}

// Registry returns the kind registry the sample forms compile against.
func (a *App) Registry() *rules.Registry {
	return a.registry
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}
