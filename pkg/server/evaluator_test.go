package server

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/model"
	"github.com/goliatone/go-formguard/pkg/report"
	"github.com/goliatone/go-formguard/pkg/rules"
)

type registration struct {
	Username string `rules:"required|Username is required;length(min=3,max=50)|Username must be between 3 and 50 characters;remote(url=/validate/username)|Username is already taken"`
	Email    string `rules:"required|Email is required;email|Please enter a valid email address"`
	Password string `input:"password" rules:"required|Password is required;length(min=8,max=20)|Password must be between 8 and 20 characters"`
}

func (registration) FormName() string { return "registration" }

type conditional struct {
	AcceptTerms bool
	PhoneNumber string `rules:"requiredif(dependentproperty=AcceptTerms,expectedvalue=true)|Phone number is required when terms are accepted;phone|Please enter a valid phone number"`
}

func takenUsernames(taken ...string) CheckFunc {
	return func(_ context.Context, snap rules.Snapshot, out report.Report) error {
		v, _ := snap.Lookup("Username")
		for _, name := range taken {
			if strings.EqualFold(v.Text(), name) {
				out.Add("Username", "Username is already taken")
			}
		}
		return nil
	}
}

type recorder struct {
	mu          sync.Mutex
	validations []bool
	failures    []string
}

func (r *recorder) ObserveValidation(_ string, _ time.Duration, valid bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations = append(r.validations, valid)
}

func (r *recorder) ObserveFieldFailure(_, field, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, field+"/"+kind)
}

func TestValidate_ImperativeCheckAppends(t *testing.T) {
	rec := &recorder{}
	e := New(WithRecorder(rec))
	e.AddCheck("registration", "unique-username", takenUsernames("admin", "test", "user"))

	got, err := e.Validate(context.Background(), &registration{
		Username: "admin",
		Email:    "new@example.com",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := report.Report{"Username": {"Username is already taken"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Username/unique-username"}, rec.failures); diff != "" {
		t.Fatalf("recorded failures mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false}, rec.validations); diff != "" {
		t.Fatalf("recorded validations mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_DeclarativeFirstThenChecks(t *testing.T) {
	e := New()
	e.AddCheck("registration", "unique-username", func(_ context.Context, _ rules.Snapshot, out report.Report) error {
		out.Add("Username", "checked anyway")
		return nil
	})

	got, err := e.Validate(context.Background(), registration{Username: "ab", Email: "nope", Password: ""})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := report.Report{
		"Username": {"Username must be between 3 and 50 characters", "checked anyway"},
		"Email":    {"Please enter a valid email address"},
		"Password": {"Password is required"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Conditional(t *testing.T) {
	e := New()

	got, err := e.Validate(context.Background(), conditional{AcceptTerms: false})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !got.Valid() {
		t.Fatalf("expected valid report, got %v", got)
	}

	got, err = e.Validate(context.Background(), conditional{AcceptTerms: true})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if msg, _ := got.First("PhoneNumber"); msg != "Phone number is required when terms are accepted" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestValidateSnapshot_FormPost(t *testing.T) {
	e := New()
	schema, err := e.Schema(conditional{})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	snap := model.FromForm(schema, url.Values{"AcceptTerms": {"true", "false"}, "PhoneNumber": {"123"}})
	got, err := e.ValidateSnapshot(context.Background(), schema, snap)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if msg, _ := got.First("PhoneNumber"); msg != "Please enter a valid phone number" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestValidate_CheckErrorAborts(t *testing.T) {
	e := New()
	boom := errors.New("directory unavailable")
	e.AddCheck("registration", "lookup", func(context.Context, rules.Snapshot, report.Report) error {
		return boom
	})
	got, err := e.Validate(context.Background(), registration{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected check error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no report on error, got %v", got)
	}
}

func TestValidate_ConfigurationErrors(t *testing.T) {
	type broken struct {
		State string `rules:"requiredif(dependentproperty=Country,expectedvalue=USA)"`
	}
	if _, err := New().Validate(context.Background(), broken{}); !errors.Is(err, rules.ErrMissingDependentField) {
		t.Fatalf("expected ErrMissingDependentField, got %v", err)
	}
	if _, err := New().Validate(context.Background(), "not a struct"); !errors.Is(err, model.ErrNotStruct) {
		t.Fatalf("expected ErrNotStruct, got %v", err)
	}
}

func TestValidate_Concurrent(t *testing.T) {
	e := New()
	e.AddCheck("registration", "unique-username", takenUsernames("admin"))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "someone"
			if i%2 == 0 {
				name = "admin"
			}
			got, err := e.Validate(context.Background(), registration{Username: name, Email: "a@b.co", Password: "password1"})
			if err != nil {
				errs <- err
				return
			}
			if (i%2 == 0) == got.Valid() {
				errs <- errors.New("unexpected validity for " + name)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
