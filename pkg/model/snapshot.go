package model

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formguard/pkg/rules"
)

type schemaSnapshot struct {
	schema *rules.Schema
	values map[string]rules.Value
}

func (s schemaSnapshot) Lookup(name string) (rules.Value, bool) {
	if !s.schema.Has(name) {
		return rules.Value{}, false
	}
	if v, ok := s.values[name]; ok {
		return v, true
	}
	return rules.Absent(), true
}

// FromMap builds a snapshot from decoded JSON style data. Declared fields
// missing from data are Absent; keys the schema does not declare are invisible.
func FromMap(schema *rules.Schema, data map[string]any) rules.Snapshot {
	values := make(map[string]rules.Value, len(data))
	for _, field := range schema.Fields() {
		raw, ok := data[field.Name]
		if !ok {
			continue
		}
		values[field.Name] = typed(field.Type, rules.ValueOf(raw))
	}
	return schemaSnapshot{schema: schema, values: values}
}

// FromForm builds a snapshot from a form post. Checkbox fields read "true",
// "on" or "1" in any posted value as checked and are false otherwise. Numeric
// fields hold numbers when the text parses and stay text when it does not.
// Array fields drop blank posted items.
func FromForm(schema *rules.Schema, form url.Values) rules.Snapshot {
	values := make(map[string]rules.Value, len(form))
	for _, field := range schema.Fields() {
		posted, ok := form[field.Name]
		switch field.Type {
		case rules.FieldTypeBoolean:
			values[field.Name] = rules.Bool(checked(posted))
			continue
		case rules.FieldTypeArray:
			if ok {
				values[field.Name] = rules.List(nonBlank(posted)...)
			}
			continue
		}
		if !ok || len(posted) == 0 {
			continue
		}
		values[field.Name] = typed(field.Type, rules.String(posted[0]))
	}
	return schemaSnapshot{schema: schema, values: values}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func checked(values []string) bool {
	for _, v := range values {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true
		}
	}
	return false
}

func typed(ft rules.FieldType, v rules.Value) rules.Value {
	if v.Kind() != rules.ValueString {
		return v
	}
	text := strings.TrimSpace(v.Text())
	switch ft {
	case rules.FieldTypeInteger, rules.FieldTypeNumber:
		if text == "" {
			return v
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return rules.NumberText(f, v.Text())
		}
	case rules.FieldTypeBoolean:
		if b, err := strconv.ParseBool(text); err == nil {
			return rules.Bool(b)
		}
		if text == "" || strings.EqualFold(text, "off") {
			return rules.Bool(false)
		}
		if strings.EqualFold(text, "on") {
			return rules.Bool(true)
		}
	}
	return v
}
