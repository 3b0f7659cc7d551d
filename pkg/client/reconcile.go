package client

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-formguard/pkg/problem"
	"github.com/goliatone/go-formguard/pkg/report"
)

// Reconcile replaces whatever f displays with the server's error report.
// Every message is cleared first; then each field with messages shows its
// first one. Keys that match no field of f are kept as form level errors.
func (e *Evaluator) Reconcile(f *Form, errs map[string][]string) report.Mapping {
	mapping := report.Map(f.Names(), errs)

	f.mu.Lock()
	defer f.mu.Unlock()
	e.clearAllLocked(f)
	for _, name := range mapping.Fields.Fields() {
		msg, ok := mapping.Fields.First(name)
		if !ok {
			continue
		}
		e.showFieldLocked(f, name, e.sanitize(msg))
	}
	for _, msg := range mapping.Form {
		f.formErrors = append(f.formErrors, e.sanitize(msg))
	}
	if len(mapping.Form) > 0 {
		e.logger.Debug().
			Str("form", f.id).
			Strs("messages", mapping.Form).
			Msg("server errors not matched to a field")
	}
	return mapping
}

// ReconcileResponse reconciles a submit response. Only 4xx problem documents
// with a non-empty errors member are applied; anything else leaves the form
// untouched. It reports whether the response was applied.
func (e *Evaluator) ReconcileResponse(f *Form, resp *http.Response) (report.Mapping, bool) {
	if resp == nil {
		return report.Mapping{}, false
	}
	details, err := problem.FromResponse(resp)
	if err != nil {
		if !errors.Is(err, problem.ErrNotClientError) {
			e.logger.Debug().Err(err).Int("status", resp.StatusCode).Msg("response carries no validation errors")
		}
		return report.Mapping{}, false
	}
	if len(details.Errors) == 0 {
		return report.Mapping{}, false
	}
	return e.Reconcile(f, details.Errors), true
}
