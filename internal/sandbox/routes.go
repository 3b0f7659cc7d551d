package sandbox

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/goliatone/go-formguard/components/remotecheck"
)

func (a *App) routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(a.instrument)

	r.Get("/healthz", a.handleHealth)
	if a.opts.Metrics != nil {
		r.Handle(a.opts.MetricsPath, a.opts.Metrics.Handler())
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", a.handleListForms)
		r.Get("/{id}", a.handleDescribeForm)
		r.Post("/{id}", a.handleSubmitForm)
	})

	var regErr error
	r.Group(func(r chi.Router) {
		if a.opts.RateLimit > 0 && a.opts.RateWindow > 0 {
			r.Use(httprate.LimitByIP(a.opts.RateLimit, a.opts.RateWindow))
		}
		for _, c := range []*remotecheck.Component{a.usernames, a.emails} {
			if _, err := c.RegisterRoutes(r, ""); err != nil && regErr == nil {
				regErr = err
			}
		}
	})
	if regErr != nil {
		return nil, regErr
	}
	return r, nil
}
