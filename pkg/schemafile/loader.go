// Package schemafile loads rule schemas declared in JSON or YAML documents.
//
// A document maps schema names to ordered field declarations:
//
//	schemas:
//	  register:
//	    fields:
//	      - name: Password
//	        rules:
//	          - kind: required
//	          - kind: length
//	            params: {min: "8", max: "20"}
//	      - name: ConfirmPassword
//	        rules:
//	          - kind: equalto
//	            params: {other: "*.Password"}
package schemafile

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// Store holds the schemas loaded from a filesystem.
type Store struct {
	schemas map[string]*rules.Schema
	sources map[string]string
}

// Option configures loading.
type Option func(*options)

type options struct {
	registry *rules.Registry
}

// WithRegistry validates custom kinds against reg.
func WithRegistry(reg *rules.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// LoadFS walks fsys and builds every schema declared in JSON/YAML files.
// When fsys is nil or no schema files are present, the store is empty.
func LoadFS(fsys fs.FS, opts ...Option) (*Store, error) {
	var cfg options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	store := &Store{
		schemas: make(map[string]*rules.Schema),
		sources: make(map[string]string),
	}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schemafile: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		return store.add(doc, path, cfg)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Parse builds the schemas of a single document.
func Parse(data []byte, source string, opts ...Option) (*Store, error) {
	var cfg options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	store := &Store{
		schemas: make(map[string]*rules.Schema),
		sources: make(map[string]string),
	}
	if err := store.add(doc, source, cfg); err != nil {
		return nil, err
	}
	return store, nil
}

// Schema returns the named schema.
func (s *Store) Schema(name string) (*rules.Schema, bool) {
	if s == nil {
		return nil, false
	}
	schema, ok := s.schemas[name]
	return schema, ok
}

// Names lists the loaded schema names sorted.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the store holds any schemas.
func (s *Store) Empty() bool {
	return s == nil || len(s.schemas) == 0
}

type documentFile struct {
	Schemas map[string]schemaFile `json:"schemas" yaml:"schemas"`
}

type schemaFile struct {
	Fields []rules.FieldRules `json:"fields" yaml:"fields"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("schemafile: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("schemafile: parse %s: invalid JSON or YAML", source)
}

func (s *Store) add(doc documentFile, source string, cfg options) error {
	names := make([]string, 0, len(doc.Schemas))
	for name := range doc.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			errs = append(errs, fmt.Errorf("schemafile: file %s defines an empty schema name", source))
			continue
		}
		if prev, exists := s.sources[name]; exists {
			errs = append(errs, fmt.Errorf("schemafile: duplicate schema %q (files %s and %s)", name, prev, source))
			continue
		}
		schema, err := build(name, doc.Schemas[raw], cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("schemafile: %s (file %s): %w", name, source, err))
			continue
		}
		s.schemas[name] = schema
		s.sources[name] = source
	}
	return errors.Join(errs...)
}

func build(name string, file schemaFile, cfg options) (*rules.Schema, error) {
	var opts []rules.BuilderOption
	if cfg.registry != nil {
		opts = append(opts, rules.WithRegistry(cfg.registry))
	}
	b := rules.NewBuilder(name, opts...)
	for idx, field := range file.Fields {
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return nil, fmt.Errorf("field at index %d has no name", idx)
		}
		b.Declare(field)
	}
	return b.Build()
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
