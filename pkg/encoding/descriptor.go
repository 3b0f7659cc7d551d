package encoding

import (
	"github.com/goliatone/go-formguard/pkg/rules"
)

// FieldDescriptor is the wire description of one rendered field.
type FieldDescriptor struct {
	Name       string          `json:"name"`
	Label      string          `json:"label,omitempty"`
	Type       rules.FieldType `json:"type,omitempty"`
	Input      string          `json:"input"`
	Attributes AttributeSet    `json:"attributes"`
}

// FormDescriptor describes a form so non-HTML clients can rebuild it.
type FormDescriptor struct {
	ID     string            `json:"id"`
	Action string            `json:"action"`
	Method string            `json:"method"`
	Fields []FieldDescriptor `json:"fields"`
}

// Describe encodes every field of schema.
func (r *Registry) Describe(schema *rules.Schema, action, method string) FormDescriptor {
	desc := FormDescriptor{
		ID:     schema.Name(),
		Action: action,
		Method: method,
	}
	for _, field := range schema.Fields() {
		desc.Fields = append(desc.Fields, FieldDescriptor{
			Name:       field.Name,
			Label:      field.Label(),
			Type:       field.Type,
			Input:      InputType(field),
			Attributes: r.Encode(field),
		})
	}
	return desc
}

// InputType picks the HTML input type for a field.
func InputType(field rules.FieldRules) string {
	if field.Input != "" {
		return field.Input
	}
	switch field.Type {
	case rules.FieldTypeBoolean:
		return "checkbox"
	case rules.FieldTypeInteger, rules.FieldTypeNumber:
		return "number"
	}
	if _, ok := field.Rule(rules.KindEmail); ok {
		return "email"
	}
	if _, ok := field.Rule(rules.KindURL); ok {
		return "url"
	}
	if _, ok := field.Rule(rules.KindPhone); ok {
		return "tel"
	}
	return "text"
}

// Describe encodes schema with the default registry.
func Describe(schema *rules.Schema, action, method string) FormDescriptor {
	return Default().Describe(schema, action, method)
}
