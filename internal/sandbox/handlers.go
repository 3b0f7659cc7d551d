package sandbox

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-formguard/pkg/model"
	"github.com/goliatone/go-formguard/pkg/problem"
	"github.com/goliatone/go-formguard/pkg/rules"
)

const maxBodyBytes = 1 << 20

// SubmitMessage is the body of an accepted submission.
const SubmitMessage = "Form submitted successfully"

// FormSummary is one entry of the catalogue listing.
type FormSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Fields int    `json:"fields"`
	Href   string `json:"href"`
}

// SubmitResponse is returned for valid submissions.
type SubmitResponse struct {
	Message string `json:"message"`
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleListForms(w http.ResponseWriter, _ *http.Request) {
	forms := a.Forms()
	out := make([]FormSummary, 0, len(forms))
	for _, f := range forms {
		out = append(out, FormSummary{
			ID:     f.ID,
			Title:  f.Title,
			Fields: len(f.Schema.Names()),
			Href:   "/forms/" + f.ID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleDescribeForm(w http.ResponseWriter, r *http.Request) {
	f, ok := a.lookupForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f.Descriptor(a.encoder))
}

func (a *App) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	f, ok := a.lookupForm(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	snap, err := readSnapshot(r, f.Schema)
	if err != nil {
		a.logger.Debug().Err(err).Str("form", f.ID).Msg("unreadable submission")
		_ = problem.Write(w, problem.Details{
			Type:   problem.DefaultType,
			Title:  "The submission could not be read",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
		return
	}

	rep, err := a.evaluator.ValidateSnapshot(r.Context(), f.Schema, snap)
	if err != nil {
		a.logger.Error().Err(err).Str("form", f.ID).Msg("validation failed to complete")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !rep.Valid() {
		_ = problem.Write(w, problem.Validation(rep))
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{Message: SubmitMessage})
}

func (a *App) lookupForm(w http.ResponseWriter, r *http.Request) (Form, bool) {
	f, err := a.Form(chi.URLParam(r, "id"))
	if errors.Is(err, ErrUnknownForm) {
		_ = problem.Write(w, problem.Details{
			Title:  "Form not found",
			Status: http.StatusNotFound,
			Detail: err.Error(),
		})
		return Form{}, false
	}
	return f, err == nil
}

// readSnapshot decodes a JSON object or a form post, depending on the
// request content type.
func readSnapshot(r *http.Request, schema *rules.Schema) (rules.Snapshot, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.EqualFold(mediaType, "application/json") {
		data := make(map[string]any)
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			return nil, err
		}
		return model.FromMap(schema, data), nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return model.FromForm(schema, r.PostForm), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}
