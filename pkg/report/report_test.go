package report_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formguard/pkg/report"
)

func TestReport_AddAndFirst(t *testing.T) {
	r := report.New()
	r.Add("Username", "Username is required")
	r.Add("Username", "Username is already taken")
	r.Add("Username", "Username is required")
	r.Add("Email", "   ")

	if got, _ := r.First("Username"); got != "Username is required" {
		t.Fatalf("unexpected first message %q", got)
	}
	if r.Has("Email") {
		t.Fatalf("blank messages must be dropped")
	}
	if diff := cmp.Diff([]string{"Username"}, r.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if r.Valid() {
		t.Fatalf("report with messages must not be valid")
	}
	if !report.New().Valid() {
		t.Fatalf("empty report must be valid")
	}
}

func TestNormalize(t *testing.T) {
	got := report.Normalize(map[string][]string{
		"Email":    {" Email is already registered ", "Email is already registered"},
		"Username": {},
		"Phone":    {""},
	})
	want := report.Report{"Email": {"Email is already registered"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestMap(t *testing.T) {
	known := []string{"Name", "Owner.Email", "Owner.Phone", "Tags", "Owner"}
	payload := map[string][]string{
		"Name":                       {"Name is required"},
		"/body/owner/email":          {"Email invalid"},
		"$.body.Tags[0]":             {"Tags must be unique"},
		"request.payload.Owner":      {"Owner missing"},
		"non_field_errors":           {"Form level error"},
		"body/Owner/Phone/~1number":  {"Phone malformed"},
		"request/body/unknown-field": {"Should fall back to form errors"},
		"":                           {"Unscoped form error"},
	}

	mapped := report.Map(known, payload)

	wantFields := report.Report{
		"Name":        {"Name is required"},
		"Owner.Email": {"Email invalid"},
		"Tags":        {"Tags must be unique"},
		"Owner":       {"Owner missing"},
		"Owner.Phone": {"Phone malformed"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"Form level error", "Should fall back to form errors", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeMessages(t *testing.T) {
	merged := report.MergeMessages([]string{" First ", "Second"}, "Second", "third", "  ")
	if diff := cmp.Diff([]string{"First", "Second", "third"}, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}
