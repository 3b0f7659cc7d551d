// Package problem implements the RFC 7807 validation problem document used to
// carry server-side validation failures back to the client.
package problem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formguard/pkg/report"
)

// Document defaults for validation failures.
const (
	ContentType  = "application/problem+json"
	DefaultType  = "https://tools.ietf.org/html/rfc7231#section-6.5.1"
	DefaultTitle = "One or more validation errors occurred"
)

var (
	// ErrNotClientError is returned when decoding a response outside 4xx.
	ErrNotClientError = errors.New("problem: response is not a client error")
	// ErrMalformed is returned when the body is not a problem document.
	ErrMalformed = errors.New("problem: malformed document")
)

// Details is a validation problem document.
type Details struct {
	Type     string        `json:"type,omitempty"`
	Title    string        `json:"title,omitempty"`
	Status   int           `json:"status,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Errors   report.Report `json:"errors"`
}

// Validation wraps r into a 400 problem document.
func Validation(r report.Report) Details {
	if r == nil {
		r = report.New()
	}
	return Details{
		Type:   DefaultType,
		Title:  DefaultTitle,
		Status: http.StatusBadRequest,
		Errors: r,
	}
}

// Write sends d with the problem content type. A zero status becomes 400.
func Write(w http.ResponseWriter, d Details) error {
	if d.Status == 0 {
		d.Status = http.StatusBadRequest
	}
	if d.Errors == nil {
		d.Errors = report.New()
	}
	w.Header().Set("Content-Type", ContentType+"; charset=utf-8")
	w.WriteHeader(d.Status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	return enc.Encode(d)
}

// Decode parses a problem document returned with status. Only 4xx responses
// are considered; errors entries may be arrays of strings or a single string.
// A document without an errors member decodes with an empty report.
func Decode(status int, body io.Reader) (Details, error) {
	if status < 400 || status >= 500 {
		return Details{}, fmt.Errorf("%w: status %d", ErrNotClientError, status)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return Details{}, fmt.Errorf("problem: read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Details{}, ErrMalformed
	}

	var doc struct {
		Type     string                     `json:"type"`
		Title    string                     `json:"title"`
		Status   int                        `json:"status"`
		Detail   string                     `json:"detail"`
		Instance string                     `json:"instance"`
		Errors   map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Details{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := Details{
		Type:     doc.Type,
		Title:    doc.Title,
		Status:   doc.Status,
		Detail:   doc.Detail,
		Instance: doc.Instance,
		Errors:   report.New(),
	}
	if out.Status == 0 {
		out.Status = status
	}
	for field, entry := range doc.Errors {
		for _, msg := range messages(entry) {
			out.Errors.Add(field, msg)
		}
	}
	return out, nil
}

// FromResponse decodes resp when it carries a client error. The body is
// consumed but not closed.
func FromResponse(resp *http.Response) (Details, error) {
	if resp == nil {
		return Details{}, ErrMalformed
	}
	return Decode(resp.StatusCode, resp.Body)
}

// IsProblem reports whether the content type names a problem document.
func IsProblem(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == ContentType
}

func messages(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	return nil
}
