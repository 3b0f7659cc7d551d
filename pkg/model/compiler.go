package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// ErrNotStruct is returned when a model is not a struct or pointer to struct.
var ErrNotStruct = errors.New("model: value must be a struct or pointer to struct")

// Declarer lets a model type add rules in code, after its struct tags have
// been read. Use it for rules that are awkward to express in a tag.
type Declarer interface {
	DeclareRules(b *rules.Builder)
}

// Namer overrides the schema name of a model type, which defaults to the Go
// type name.
type Namer interface {
	FormName() string
}

// TypeInfo is the compiled view of a model type: its schema plus one accessor
// per declared field.
type TypeInfo struct {
	Type   reflect.Type
	Schema *rules.Schema
	fields map[string][]int
}

// Compiler compiles model types into TypeInfo and caches the result per type.
// The cache is owned by the compiler; callers share a compiler to share work.
type Compiler struct {
	registry *rules.Registry
	mu       sync.RWMutex
	cache    map[reflect.Type]*TypeInfo
}

// NewCompiler builds a compiler validating against reg, or the default
// registry when reg is nil.
func NewCompiler(reg *rules.Registry) *Compiler {
	if reg == nil {
		reg = rules.Default()
	}
	return &Compiler{
		registry: reg,
		cache:    make(map[reflect.Type]*TypeInfo),
	}
}

// For compiles the type of v.
func (c *Compiler) For(v any) (*TypeInfo, error) {
	if v == nil {
		return nil, ErrNotStruct
	}
	return c.Compile(reflect.TypeOf(v))
}

// Compile returns the cached TypeInfo for t, compiling it on first use.
// Configuration errors such as a conditional rule naming a missing field are
// reported here, not during validation.
func (c *Compiler) Compile(t reflect.Type) (*TypeInfo, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	c.mu.RLock()
	info, ok := c.cache[t]
	c.mu.RUnlock()
	if ok {
		return info, nil
	}

	info, err := c.compile(t)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.cache[t]; ok {
		info = existing
	} else {
		c.cache[t] = info
	}
	c.mu.Unlock()
	return info, nil
}

func (c *Compiler) compile(t reflect.Type) (*TypeInfo, error) {
	b := rules.NewBuilder(schemaName(t), rules.WithRegistry(c.registry))
	fields := make(map[string][]int)

	var errs []error
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup(TagName); ok {
			tag = strings.TrimSpace(strings.Split(tag, ",")[0])
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}

		fb := b.Field(name).Type(fieldType(sf.Type))
		if display := sf.Tag.Get(TagDisplay); display != "" {
			fb.Display(display)
		}
		if input := sf.Tag.Get(TagInput); input != "" {
			fb.Input(input)
		}
		parsed, err := ParseRulesTag(sf.Tag.Get(TagRules))
		if err != nil {
			errs = append(errs, &rules.FieldError{Field: name, Err: err})
			continue
		}
		for _, r := range parsed {
			fb.Rule(r)
		}
		fields[name] = sf.Index
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("model: compile %s: %w", t, errors.Join(errs...))
	}

	if declarer, ok := declarerFor(t); ok {
		declarer.DeclareRules(b)
	}

	schema, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("model: compile %s: %w", t, err)
	}
	return &TypeInfo{Type: t, Schema: schema, fields: fields}, nil
}

func schemaName(t reflect.Type) string {
	if namer, ok := reflect.New(t).Interface().(Namer); ok {
		if name := strings.TrimSpace(namer.FormName()); name != "" {
			return name
		}
	}
	return t.Name()
}

func declarerFor(t reflect.Type) (Declarer, bool) {
	d, ok := reflect.New(t).Interface().(Declarer)
	return d, ok
}

func fieldType(t reflect.Type) rules.FieldType {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return rules.FieldTypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if _, ok := reflect.New(t).Interface().(fmt.Stringer); ok {
			return rules.FieldTypeString
		}
		return rules.FieldTypeInteger
	case reflect.Float32, reflect.Float64:
		return rules.FieldTypeNumber
	case reflect.Slice, reflect.Array:
		return rules.FieldTypeArray
	default:
		return rules.FieldTypeString
	}
}

// Snapshot returns a read-only view of model v. v must have the compiled type.
func (ti *TypeInfo) Snapshot(v any) (rules.Snapshot, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrNotStruct
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != ti.Type {
		return nil, fmt.Errorf("model: snapshot of %T with TypeInfo for %s", v, ti.Type)
	}
	return structSnapshot{info: ti, value: rv}, nil
}

type structSnapshot struct {
	info  *TypeInfo
	value reflect.Value
}

func (s structSnapshot) Lookup(name string) (rules.Value, bool) {
	index, ok := s.info.fields[name]
	if !ok {
		return rules.Value{}, false
	}
	fv, err := s.value.FieldByIndexErr(index)
	if err != nil {
		return rules.Absent(), true
	}
	return rules.ValueOf(fv.Interface()), true
}
