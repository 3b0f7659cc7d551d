package sandbox

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/internal/metrics"
	"github.com/goliatone/go-formguard/pkg/encoding"
	"github.com/goliatone/go-formguard/pkg/problem"
	"github.com/goliatone/go-formguard/pkg/report"
	"github.com/goliatone/go-formguard/pkg/rules"
)

func newTestApp(t *testing.T, mutate func(*Options)) *App {
	t.Helper()
	opts := DefaultOptions()
	opts.RateLimit = 0
	if mutate != nil {
		mutate(&opts)
	}
	app, err := New(opts)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func serve(app http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) report.Report {
	t.Helper()
	if !problem.IsProblem(rec.Header().Get("Content-Type")) {
		t.Fatalf("expected problem document, got %q", rec.Header().Get("Content-Type"))
	}
	details, err := problem.Decode(rec.Code, rec.Body)
	if err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return details.Errors
}

func TestListForms(t *testing.T) {
	app := newTestApp(t, nil)
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/forms", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var got []FormSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	ids := make([]string, 0, len(got))
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	want := []string{"simple-conditional", "conditional", "remote", "register", "price", "comprehensive"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestExtraSchemasAreServed(t *testing.T) {
	b := rules.NewBuilder("newsletter")
	b.Field("Email").Required("").Email("")
	schema, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	app := newTestApp(t, func(o *Options) { o.Schemas = []*rules.Schema{schema} })

	rec := serve(app, postForm("/forms/newsletter", url.Values{"Email": {"nope"}}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	errs := decodeProblem(t, rec)
	if _, ok := errs.First("Email"); !ok {
		t.Fatalf("expected an Email error, got %v", errs)
	}

	if _, err := New(Options{Schemas: []*rules.Schema{schema, schema}}); err == nil {
		t.Fatalf("expected duplicate form error")
	}
}

func TestDescribeForm(t *testing.T) {
	app := newTestApp(t, nil)
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/forms/simple-conditional", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var desc encoding.FormDescriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &desc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if desc.Action != "/forms/simple-conditional" || desc.Method != http.MethodPost {
		t.Fatalf("unexpected action/method %q %q", desc.Action, desc.Method)
	}

	var phone encoding.FieldDescriptor
	for _, f := range desc.Fields {
		if f.Name == "PhoneNumber" {
			phone = f
		}
	}
	want := map[string]string{
		"data-val":                              "true",
		"data-val-requiredif":                   "Phone number is required when terms are accepted",
		"data-val-requiredif-dependentproperty": "AcceptTerms",
		"data-val-requiredif-expectedvalue":     "true",
		"data-val-phone":                        "Please enter a valid phone number",
	}
	if diff := cmp.Diff(want, phone.Attributes.Map()); diff != "" {
		t.Fatalf("attributes mismatch (-want +got):\n%s", diff)
	}
	if phone.Label != "Phone Number" || phone.Input != "tel" {
		t.Fatalf("unexpected label/input %q %q", phone.Label, phone.Input)
	}
}

func TestDescribeUnknownForm(t *testing.T) {
	app := newTestApp(t, nil)
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/forms/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestSubmitForm(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		name string
		req  *http.Request
		want report.Report
	}{
		{
			name: "terms accepted without phone",
			req: postForm("/forms/simple-conditional", url.Values{
				"Email":       {"a@b.co"},
				"AcceptTerms": {"true"},
			}),
			want: report.Report{"PhoneNumber": {"Phone number is required when terms are accepted"}},
		},
		{
			name: "country branches",
			req: postJSON("/forms/conditional",
				`{"Country":"USA","UserType":"Premium","HasExistingAccount":true,"Email":"a@b.co","CreditCard":"4111 1111 1111 1112"}`),
			want: report.Report{
				"State":      {"State is required for USA"},
				"CreditCard": {"Please enter a valid credit card number"},
			},
		},
		{
			name: "new account needs password",
			req: postJSON("/forms/conditional",
				`{"Country":"Canada","Province":"QC","UserType":"Standard","Email":"a@b.co"}`),
			want: report.Report{"NewPassword": {"Password is required for new accounts"}},
		},
		{
			name: "passwords differ",
			req:  postJSON("/forms/register", `{"Password":"secret123","ConfirmPassword":"secret124"}`),
			want: report.Report{"ConfirmPassword": {"Passwords do not match"}},
		},
		{
			name: "taken username and email",
			req: postForm("/forms/remote", url.Values{
				"Username": {"Admin"},
				"Email":    {"test@example.com"},
				"Password": {"longenough"},
			}),
			want: report.Report{
				"Username": {"Username is already taken"},
				"Email":    {"Email is already registered"},
			},
		},
		{
			name: "price out of range",
			req:  postForm("/forms/price", url.Values{"ProductName": {"Lamp"}, "Price": {"0"}}),
			want: report.Report{"Price": {"Price must be between $0.01 and $999,999.99"}},
		},
		{
			name: "weak password and few tags",
			req: postForm("/forms/comprehensive", url.Values{
				"RequiredField":                  {"x"},
				"EmailWithMultipleValidators":    {"a@b.co"},
				"PasswordWithMultipleValidators": {"password1"},
				"Tags":                           {"a", "", "b"},
				"CheckboxOptions":                {"one"},
			}),
			want: report.Report{
				"PasswordWithMultipleValidators": {"Password must contain at least one lowercase letter, one uppercase letter and one number"},
				"Tags":                           {"Tags must have at least 3 items"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
			}
			if diff := cmp.Diff(tt.want, decodeProblem(t, rec)); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubmitFormAccepted(t *testing.T) {
	app := newTestApp(t, nil)
	rec := serve(app, postForm("/forms/simple-conditional", url.Values{
		"Email":       {"a@b.co"},
		"AcceptTerms": {"true"},
		"PhoneNumber": {"(555) 123-4567"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var got SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Message != SubmitMessage {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestSubmitMalformedJSON(t *testing.T) {
	app := newTestApp(t, nil)
	rec := serve(app, postJSON("/forms/register", `{"Password":`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if errs := decodeProblem(t, rec); !errs.Valid() {
		t.Fatalf("expected no field errors, got %v", errs)
	}
}

func TestRemoteEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	tests := []struct {
		target string
		want   bool
	}{
		{"/validate/username?Username=admin", false},
		{"/validate/username?Username=newcomer", true},
		{"/validate/email?Email=ADMIN@example.com", false},
		{"/validate/email?Email=fresh@example.com", true},
	}
	for _, tt := range tests {
		rec := serve(app, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", tt.target, rec.Code)
		}
		var got struct {
			Valid bool `json:"valid"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("%s: decode: %v", tt.target, err)
		}
		if got.Valid != tt.want {
			t.Fatalf("%s: valid = %v, want %v", tt.target, got.Valid, tt.want)
		}
	}
}

func TestRemoteEndpointsRateLimited(t *testing.T) {
	app := newTestApp(t, func(o *Options) { o.RateLimit = 1 })
	first := serve(app, httptest.NewRequest(http.MethodGet, "/validate/username?Username=a", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", first.Code)
	}
	second := serve(app, httptest.NewRequest(http.MethodGet, "/validate/username?Username=b", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit, got %d", second.Code)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	app := newTestApp(t, func(o *Options) { o.Metrics = metrics.New() })

	if rec := serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}
	serve(app, postForm("/forms/register", url.Values{}))

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`formguard_http_requests_total{method="GET",route="/healthz",status="200"} 1`,
		`formguard_validations_total{outcome="invalid",schema="register"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}
