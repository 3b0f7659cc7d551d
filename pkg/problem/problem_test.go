package problem

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/report"
)

func TestWriteDecode(t *testing.T) {
	r := report.New()
	r.Add("Username", "Username is already taken")

	rec := httptest.NewRecorder()
	if err := Write(rec, Validation(r)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !IsProblem(rec.Header().Get("Content-Type")) {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}

	got, err := Decode(rec.Code, rec.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Details{
		Type:   DefaultType,
		Title:  DefaultTitle,
		Status: http.StatusBadRequest,
		Errors: report.Report{"Username": {"Username is already taken"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("details mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Variants(t *testing.T) {
	body := `{"errors":{"Email":"Email is already registered","Phone":["",""],"Name":["A","B"],"Bad":42}}`
	got, err := Decode(http.StatusUnprocessableEntity, strings.NewReader(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := report.Report{
		"Email": {"Email is already registered"},
		"Name":  {"A", "B"},
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if got.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status fallback, got %d", got.Status)
	}
}

func TestDecode_Rejects(t *testing.T) {
	if _, err := Decode(http.StatusInternalServerError, strings.NewReader(`{}`)); !errors.Is(err, ErrNotClientError) {
		t.Fatalf("expected ErrNotClientError, got %v", err)
	}
	if _, err := Decode(http.StatusBadRequest, strings.NewReader(`<html>`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := Decode(http.StatusBadRequest, strings.NewReader(`{"errors":`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for truncated json, got %v", err)
	}
}

func TestIsProblem(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/problem+json", true},
		{"application/problem+json; charset=utf-8", true},
		{"Application/Problem+JSON", true},
		{"  application/problem+json ;charset=UTF-8", true},
		{"application/json", false},
		{"text/html; charset=utf-8", false},
		{"application/problem+json; charset", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsProblem(tt.contentType); got != tt.want {
			t.Fatalf("IsProblem(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
