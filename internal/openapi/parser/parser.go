// Package parser extracts validation schemas from OpenAPI request bodies
// using kin-openapi.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// Parser implements pkgopenapi.Extractor.
type Parser struct {
	options pkgopenapi.ExtractorOptions
}

var _ pkgopenapi.Extractor = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ExtractorOptions) *Parser {
	return &Parser{options: options}
}

var bodyMediaTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"application/json",
}

// Schemas builds one schema per operation whose request body is an object.
// Schemas are keyed, and named, by operation id unless the operation
// extension sets a name.
func (p *Parser) Schemas(ctx context.Context, doc pkgopenapi.Document) (map[string]*rules.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.ResolveReferences {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}

	methods := p.methods()
	out := make(map[string]*rules.Schema)
	var errs []error
	items := spec.Paths.Map()
	paths := make([]string, 0, len(items))
	for path := range items {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		item := items[path]
		if item == nil {
			continue
		}
		for _, method := range methods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			body := requestSchema(op.RequestBody)
			if body == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			name := id
			if ext, err := decodeOperationExtension(op.Extensions); err != nil {
				errs = append(errs, fmt.Errorf("openapi parser: %s: %w", id, err))
				continue
			} else if ext.Name != "" {
				name = ext.Name
			}
			schema, err := p.build(name, body)
			if err != nil {
				errs = append(errs, fmt.Errorf("openapi parser: %s: %w", id, err))
				continue
			}
			out[id] = schema
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("openapi parser: no request bodies extracted")
	}
	return out, nil
}

func (p *Parser) methods() []string {
	if len(p.options.Methods) == 0 {
		return []string{"POST", "PUT", "PATCH"}
	}
	out := make([]string, 0, len(p.options.Methods))
	for _, m := range p.options.Methods {
		out = append(out, strings.ToUpper(strings.TrimSpace(m)))
	}
	return out
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range bodyMediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
			return objectOrNil(mt.Schema.Value)
		}
	}
	return nil
}

func objectOrNil(s *openapi3.Schema) *openapi3.Schema {
	if len(s.Properties) == 0 {
		return nil
	}
	return s
}

func (p *Parser) build(name string, body *openapi3.Schema) (*rules.Schema, error) {
	var opts []rules.BuilderOption
	if p.options.Registry != nil {
		opts = append(opts, rules.WithRegistry(p.options.Registry))
	}
	b := rules.NewBuilder(name, opts...)

	required := make(map[string]struct{}, len(body.Required))
	for _, r := range body.Required {
		required[r] = struct{}{}
	}

	for _, prop := range propertyOrder(body) {
		ref := body.Properties[prop]
		if ref == nil || ref.Value == nil {
			continue
		}
		ext, err := decodeFieldExtension(ref.Value.Extensions)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", prop, err)
		}
		_, isRequired := required[prop]
		declareField(b.Field(prop), ref.Value, ext, isRequired)
	}
	return b.Build()
}

// propertyOrder lists properties in the order given by the x-formguard order
// extension on the body, followed by the remaining names sorted.
func propertyOrder(body *openapi3.Schema) []string {
	ext, _ := decodeOperationExtension(body.Extensions)
	seen := make(map[string]struct{}, len(body.Properties))
	out := make([]string, 0, len(body.Properties))
	for _, name := range ext.Order {
		if _, ok := body.Properties[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	rest := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
