package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

const stub = "openapi: 3.0.0\n"

func TestLoader_Sources(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	if err := os.WriteFile(path, []byte(stub), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(stub))
	}))
	defer srv.Close()

	l := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(fstest.MapFS{"specs/api.yaml": {Data: []byte(stub)}}),
		pkgopenapi.WithHTTPClient(srv.Client()),
	))

	for _, src := range []pkgopenapi.Source{
		pkgopenapi.SourceFromFile(path),
		pkgopenapi.SourceFromFS("specs/api.yaml"),
		pkgopenapi.SourceFromURL(srv.URL + "/api.yaml"),
	} {
		doc, err := l.Load(ctx, src)
		if err != nil {
			t.Fatalf("%s: load: %v", src.Kind(), err)
		}
		if string(doc.Raw()) != stub || doc.Location() != src.Location() {
			t.Fatalf("%s: unexpected document %q", src.Kind(), doc.Raw())
		}
	}

	if _, err := l.Load(ctx, pkgopenapi.SourceFromURL(srv.URL+"/missing.yaml")); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}

func TestLoader_HTTPDisabledByDefault(t *testing.T) {
	l := New(pkgopenapi.NewLoaderOptions())
	_, err := l.Load(context.Background(), pkgopenapi.SourceFromURL("https://example.com/api.yaml"))
	if !errors.Is(err, pkgopenapi.ErrSourceDisabled) {
		t.Fatalf("expected ErrSourceDisabled for url, got %v", err)
	}
	_, err = l.Load(context.Background(), pkgopenapi.SourceFromFS("api.yaml"))
	if !errors.Is(err, pkgopenapi.ErrSourceDisabled) {
		t.Fatalf("expected ErrSourceDisabled without a filesystem, got %v", err)
	}
}

func TestLoader_MaxDocumentBytes(t *testing.T) {
	files := fstest.MapFS{"api.yaml": {Data: []byte(stub)}}

	l := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(files),
		pkgopenapi.WithMaxDocumentBytes(int64(len(stub)-1)),
	))
	if _, err := l.Load(context.Background(), pkgopenapi.SourceFromFS("api.yaml")); !errors.Is(err, pkgopenapi.ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}

	l = New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(files),
		pkgopenapi.WithMaxDocumentBytes(int64(len(stub))),
	))
	if _, err := l.Load(context.Background(), pkgopenapi.SourceFromFS("/api.yaml")); err != nil {
		t.Fatalf("document at the limit should load: %v", err)
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New(pkgopenapi.NewLoaderOptions())
	if _, err := l.Load(ctx, pkgopenapi.SourceFromFile("api.yaml")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
