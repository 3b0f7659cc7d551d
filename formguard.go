// Package formguard wires the validation packages together for callers that
// want one import: schema sources, the server evaluator and the client
// evaluator. The packages under pkg/ remain usable on their own.
package formguard

import (
	"context"
	"fmt"
	"time"

	internalLoader "github.com/goliatone/go-formguard/internal/openapi/loader"
	internalParser "github.com/goliatone/go-formguard/internal/openapi/parser"
	"github.com/goliatone/go-formguard/pkg/client"
	"github.com/goliatone/go-formguard/pkg/encoding"
	"github.com/goliatone/go-formguard/pkg/model"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
	"github.com/goliatone/go-formguard/pkg/report"
	"github.com/goliatone/go-formguard/pkg/rules"
	"github.com/goliatone/go-formguard/pkg/server"
)

// Rule aliases rules.Rule.
type Rule = rules.Rule

// Schema aliases rules.Schema.
type Schema = rules.Schema

// Report aliases report.Report, the field keyed failure map.
type Report = report.Report

// FormDescriptor aliases encoding.FormDescriptor.
type FormDescriptor = encoding.FormDescriptor

// DefaultFetchTimeout bounds remote OpenAPI fetches made by LoadOpenAPISchemas.
const DefaultFetchTimeout = 10 * time.Second

// NewOpenAPILoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewOpenAPILoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewOpenAPIExtractor constructs the kin-openapi backed schema extractor.
func NewOpenAPIExtractor(options ...pkgopenapi.ExtractorOption) pkgopenapi.Extractor {
	return internalParser.New(pkgopenapi.NewExtractorOptions(options...))
}

// LoadOpenAPISchemas loads src, following URLs with a default client, and
// extracts one schema per operation request body.
func LoadOpenAPISchemas(ctx context.Context, src pkgopenapi.Source, options ...pkgopenapi.ExtractorOption) (map[string]*rules.Schema, error) {
	loader := NewOpenAPILoader(pkgopenapi.WithHTTPFallback(DefaultFetchTimeout))
	return LoadOpenAPISchemasWith(ctx, loader, src, options...)
}

// LoadOpenAPISchemasWith is LoadOpenAPISchemas with a caller supplied loader.
func LoadOpenAPISchemasWith(ctx context.Context, loader pkgopenapi.Loader, src pkgopenapi.Source, options ...pkgopenapi.ExtractorOption) (map[string]*rules.Schema, error) {
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("formguard: load %s: %w", src.Location(), err)
	}
	return NewOpenAPIExtractor(options...).Schemas(ctx, doc)
}

// NewServerEvaluator constructs a server evaluator.
func NewServerEvaluator(options ...server.Option) *server.Evaluator {
	return server.New(options...)
}

// NewClientEvaluator constructs a client evaluator.
func NewClientEvaluator(options ...client.Option) *client.Evaluator {
	return client.New(options...)
}

// Describe compiles the model type of v and encodes every field, producing
// the descriptor a client rebuilds its form from.
func Describe(v any, action, method string) (FormDescriptor, error) {
	info, err := model.NewCompiler(nil).For(v)
	if err != nil {
		return FormDescriptor{}, err
	}
	return encoding.Describe(info.Schema, action, method), nil
}

// FormFor builds a client form for model v, ready to Attach.
func FormFor(v any, action string) (*client.Form, error) {
	desc, err := Describe(v, action, "POST")
	if err != nil {
		return nil, err
	}
	return client.FormFromDescriptor(desc), nil
}
