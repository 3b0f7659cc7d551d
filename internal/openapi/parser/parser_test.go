package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
	"github.com/goliatone/go-formguard/pkg/rules"
)

const registrationDoc = `
openapi: 3.0.3
info:
  title: Accounts
  version: 1.0.0
paths:
  /accounts:
    post:
      operationId: createAccount
      x-formguard:
        name: registration
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              type: object
              required: [Username, Email, Age]
              x-formguard:
                order: [Username, Email, Age, AcceptTerms, PhoneNumber, Password, ConfirmPassword]
              properties:
                Username:
                  type: string
                  minLength: 3
                  maxLength: 20
                  x-formguard:
                    messages:
                      required: Username is required
                    remote:
                      url: /validate/username
                      method: get
                      additionalFields: [Email]
                      message: Username is already taken
                Email:
                  type: string
                  format: email
                Age:
                  type: integer
                  minimum: 18
                  maximum: 120
                AcceptTerms:
                  type: boolean
                PhoneNumber:
                  type: string
                  x-formguard:
                    phone: true
                    requiredIf:
                      dependent: AcceptTerms
                      expected: true
                      message: Phone number is required when terms are accepted
                Password:
                  type: string
                  minLength: 8
                  pattern: "[A-Z]"
                ConfirmPassword:
                  type: string
                  x-formguard:
                    display: Confirm password
                    equalTo: Password
      responses:
        "201":
          description: created
    get:
      operationId: listAccounts
      responses:
        "200":
          description: ok
`

func parse(t *testing.T, doc string, opts ...pkgopenapi.ExtractorOption) (map[string]*rules.Schema, error) {
	t.Helper()
	document := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("registration.yaml"), []byte(doc))
	return New(pkgopenapi.NewExtractorOptions(opts...)).Schemas(context.Background(), document)
}

func TestSchemas_MapsKeywordsAndExtensions(t *testing.T) {
	schemas, err := parse(t, registrationDoc)
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	if len(schemas) != 1 {
		t.Fatalf("expected only the request body operation, got %d", len(schemas))
	}
	schema := schemas["createAccount"]
	if schema == nil || schema.Name() != "registration" {
		t.Fatalf("expected schema named registration, got %#v", schema)
	}

	wantOrder := []string{"Username", "Email", "Age", "AcceptTerms", "PhoneNumber", "Password", "ConfirmPassword"}
	if diff := cmp.Diff(wantOrder, schema.Names()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	kinds := func(name string) []rules.Kind {
		field, _ := schema.Field(name)
		out := make([]rules.Kind, 0, len(field.Rules))
		for _, r := range field.Rules {
			out = append(out, r.Kind)
		}
		return out
	}
	want := map[string][]rules.Kind{
		"Username":        {rules.KindRequired, rules.KindLength, rules.KindRemote},
		"Email":           {rules.KindRequired, rules.KindEmail},
		"Age":             {rules.KindRequired, rules.KindRange},
		"AcceptTerms":     {},
		"PhoneNumber":     {rules.KindRequiredIf, rules.KindPhone},
		"Password":        {rules.KindMinLength, rules.KindRegex},
		"ConfirmPassword": {rules.KindEqualTo},
	}
	for name, kinds0 := range want {
		if diff := cmp.Diff(kinds0, kinds(name)); diff != "" {
			t.Fatalf("%s kinds mismatch (-want +got):\n%s", name, diff)
		}
	}

	username, _ := schema.Field("Username")
	if r, _ := username.Rule(rules.KindRequired); r.Message != "Username is required" {
		t.Fatalf("expected custom required message, got %q", r.Message)
	}
	remote, _ := username.Remote()
	wantParams := map[string]string{
		rules.ParamURL:              "/validate/username",
		rules.ParamMethod:           "GET",
		rules.ParamAdditionalFields: "*.Email",
	}
	if diff := cmp.Diff(wantParams, remote.Params); diff != "" {
		t.Fatalf("remote params mismatch (-want +got):\n%s", diff)
	}

	age, _ := schema.Field("Age")
	if age.Type != rules.FieldTypeInteger {
		t.Fatalf("expected integer type, got %s", age.Type)
	}
	if r, _ := age.Rule(rules.KindRange); r.Params[rules.ParamMin] != "18" || r.Params[rules.ParamMax] != "120" {
		t.Fatalf("unexpected range params %v", r.Params)
	}

	phone, _ := schema.Field("PhoneNumber")
	cond, _ := phone.Rule(rules.KindRequiredIf)
	if cond.DependentProperty() != "AcceptTerms" {
		t.Fatalf("unexpected dependent %q", cond.DependentProperty())
	}
	if v, _ := cond.ExpectedValue(); v != "true" {
		t.Fatalf("unexpected expected value %q", v)
	}

	confirm, _ := schema.Field("ConfirmPassword")
	if confirm.Label() != "Confirm password" {
		t.Fatalf("unexpected label %q", confirm.Label())
	}
	if r, _ := confirm.Rule(rules.KindEqualTo); !strings.Contains(r.Message, "Password") {
		t.Fatalf("expected default equalto message, got %q", r.Message)
	}
}

func TestSchemas_RejectsUnknownDependent(t *testing.T) {
	doc := strings.Replace(registrationDoc, "dependent: AcceptTerms", "dependent: Ghost", 1)
	if _, err := parse(t, doc); err == nil || !strings.Contains(err.Error(), "createAccount") {
		t.Fatalf("expected build error naming the operation, got %v", err)
	}
}

func TestSchemas_NoBodies(t *testing.T) {
	doc := `
openapi: 3.0.3
info: {title: Empty, version: 1.0.0}
paths:
  /ping:
    get:
      responses:
        "200":
          description: ok
`
	if _, err := parse(t, doc); err == nil {
		t.Fatalf("expected error when no request bodies exist")
	}
}

func TestExtensionKeys(t *testing.T) {
	if diff := cmp.Diff([]string{"name", "order"}, OperationExtensionKeys()); diff != "" {
		t.Fatalf("operation keys mismatch (-want +got):\n%s", diff)
	}
	want := []string{
		"creditCard", "display", "equalTo", "input", "messages",
		"phone", "remote", "requiredIf", "requiredUnless", "rules",
	}
	if diff := cmp.Diff(want, FieldExtensionKeys()); diff != "" {
		t.Fatalf("field keys mismatch (-want +got):\n%s", diff)
	}
}
