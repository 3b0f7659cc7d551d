package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

const lintDoc = `
openapi: 3.0.3
info:
  title: Contacts
  version: 1.0.0
paths:
  /contacts:
    post:
      operationId: createContact
      x-formguard:
        name: contact
        colour: blue
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                Email:
                  type: string
                  format: email
                  x-formguard:
                    placeholder: you@example.com
                Phone:
                  type: string
                  x-formguard:
                    requiredIf:
                      dependent: Missing
                      expected: true
      responses:
        "201":
          description: created
`

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

func TestLintFile(t *testing.T) {
	path := writeDoc(t, lintDoc)
	extractor := formguard.NewOpenAPIExtractor(pkgopenapi.WithReferenceResolution(false))

	got, err := lintFile(context.Background(), extractor, path)
	if err != nil {
		t.Fatalf("lintFile: %v", err)
	}

	var locations []string
	for _, v := range got {
		if v.file != path {
			t.Fatalf("violation file = %q, want %q", v.file, path)
		}
		locations = append(locations, v.location)
	}
	want := []string{
		"paths > /contacts > post > colour",
		"paths > /contacts > post > requestBody > application/json > properties.Email > placeholder",
		"schemas",
	}
	if diff := cmp.Diff(want, locations); diff != "" {
		t.Fatalf("locations mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(got[0].message, `unsupported x-formguard key "colour"`) {
		t.Fatalf("unexpected message %q", got[0].message)
	}
	if !strings.Contains(got[2].message, "Missing") {
		t.Fatalf("extractor error should name the dependent, got %q", got[2].message)
	}
}

func TestLintFileClean(t *testing.T) {
	clean := strings.Replace(lintDoc, "        colour: blue\n", "", 1)
	clean = strings.Replace(clean, "                  x-formguard:\n                    placeholder: you@example.com\n", "", 1)
	clean = strings.Replace(clean, "dependent: Missing", "dependent: Email", 1)
	path := writeDoc(t, clean)

	got, err := lintFile(context.Background(), formguard.NewOpenAPIExtractor(pkgopenapi.WithReferenceResolution(false)), path)
	if err != nil {
		t.Fatalf("lintFile: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}
}

func TestLintFileMissing(t *testing.T) {
	_, err := lintFile(context.Background(), formguard.NewOpenAPIExtractor(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected read error")
	}
}
