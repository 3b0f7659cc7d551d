package openapi

import (
	"context"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// ExtensionKey is the vendor extension carrying rules OpenAPI cannot express:
// conditional presence, remote checks, sibling equality and messages.
const ExtensionKey = "x-formguard"

// Extractor turns the request bodies of a document into validation schemas
// keyed by operation id.
type Extractor interface {
	Schemas(ctx context.Context, doc Document) (map[string]*rules.Schema, error)
}

// ExtractorOptions configures extraction.
type ExtractorOptions struct {
	// ResolveReferences validates the document and follows external $refs.
	ResolveReferences bool

	// Registry validates custom kinds named in extensions. Nil uses the
	// process default.
	Registry *rules.Registry

	// Methods limits extraction to these HTTP methods. Empty means POST, PUT
	// and PATCH.
	Methods []string
}

// ExtractorOption mutates ExtractorOptions during construction.
type ExtractorOption func(*ExtractorOptions)

// WithReferenceResolution toggles validation and external reference
// resolution.
func WithReferenceResolution(enabled bool) ExtractorOption {
	return func(opts *ExtractorOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithRegistry sets the kind registry used when building schemas.
func WithRegistry(reg *rules.Registry) ExtractorOption {
	return func(opts *ExtractorOptions) {
		opts.Registry = reg
	}
}

// WithMethods limits extraction to the given methods.
func WithMethods(methods ...string) ExtractorOption {
	return func(opts *ExtractorOptions) {
		opts.Methods = append([]string(nil), methods...)
	}
}

// NewExtractorOptions applies options over the defaults.
func NewExtractorOptions(options ...ExtractorOption) ExtractorOptions {
	cfg := ExtractorOptions{ResolveReferences: true}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
