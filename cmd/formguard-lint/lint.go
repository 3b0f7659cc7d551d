package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	internalParser "github.com/goliatone/go-formguard/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

type violation struct {
	file     string
	location string
	message  string
}

// lintFile reports unsupported extension keys first, then every error the
// extractor raises while building schemas from the document.
func lintFile(ctx context.Context, extractor pkgopenapi.Extractor, path string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile(path), raw)
	if err != nil {
		return nil, fmt.Errorf("construct document: %w", err)
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	var result []violation
	if spec.Paths != nil {
		items := spec.Paths.Map()
		routes := make([]string, 0, len(items))
		for route := range items {
			routes = append(routes, route)
		}
		sort.Strings(routes)
		for _, route := range routes {
			item := items[route]
			if item == nil {
				continue
			}
			ops := item.Operations()
			methods := make([]string, 0, len(ops))
			for method := range ops {
				methods = append(methods, method)
			}
			sort.Strings(methods)
			for _, method := range methods {
				result = append(result, lintOperation(path, []string{"paths", route, strings.ToLower(method)}, ops[method])...)
			}
		}
	}

	if _, err := extractor.Schemas(ctx, doc); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				result = append(result, violation{file: path, location: "schemas", message: line})
			}
		}
	}
	return result, nil
}

func lintOperation(file string, path []string, op *openapi3.Operation) []violation {
	if op == nil {
		return nil
	}
	result := lintExtensions(file, path, op.Extensions, internalParser.OperationExtensionKeys())
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return result
	}
	mediaTypes := make([]string, 0, len(op.RequestBody.Value.Content))
	for mt := range op.RequestBody.Value.Content {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)
	for _, mt := range mediaTypes {
		media := op.RequestBody.Value.Content[mt]
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		body := media.Schema.Value
		base := appendPath(path, "requestBody", mt)
		result = append(result, lintExtensions(file, base, body.Extensions, internalParser.OperationExtensionKeys())...)

		props := make([]string, 0, len(body.Properties))
		for name := range body.Properties {
			props = append(props, name)
		}
		sort.Strings(props)
		for _, name := range props {
			ref := body.Properties[name]
			if ref == nil || ref.Value == nil {
				continue
			}
			result = append(result, lintExtensions(file, appendPath(base, "properties."+name), ref.Value.Extensions, internalParser.FieldExtensionKeys())...)
		}
	}
	return result
}

func lintExtensions(file string, path []string, extensions map[string]any, allowed []string) []violation {
	value, ok := extensions[pkgopenapi.ExtensionKey]
	if !ok {
		return nil
	}
	nested, ok := value.(map[string]any)
	if !ok {
		return []violation{{
			file:     file,
			location: formatLocation(path),
			message:  fmt.Sprintf("%s must be an object, found %T", pkgopenapi.ExtensionKey, value),
		}}
	}

	keys := make([]string, 0, len(nested))
	for key := range nested {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result []violation
	for _, key := range keys {
		if !slices.Contains(allowed, key) {
			result = append(result, violation{
				file:     file,
				location: formatLocation(appendPath(path, key)),
				message:  fmt.Sprintf("unsupported %s key %q (supported: %s)", pkgopenapi.ExtensionKey, key, strings.Join(allowed, ", ")),
			})
		}
	}
	return result
}

func appendPath(path []string, segments ...string) []string {
	next := append([]string(nil), path...)
	return append(next, segments...)
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
