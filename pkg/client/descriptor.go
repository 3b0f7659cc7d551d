package client

import (
	"github.com/goliatone/go-formguard/pkg/encoding"
)

// FormFromDescriptor rebuilds a form from its wire description: one element
// and one message target per field.
func FormFromDescriptor(d encoding.FormDescriptor) *Form {
	f := NewForm(d.ID)
	if d.Action != "" {
		f.SetAttr("action", d.Action)
	}
	if d.Method != "" {
		f.SetAttr("method", d.Method)
	}
	for _, field := range d.Fields {
		f.AddElement(ElementSpec{
			Name:       field.Name,
			ID:         field.Name,
			Type:       elementType(field.Input),
			Label:      field.Label,
			Value:      checkboxValue(field.Input),
			Attributes: field.Attributes,
		})
		f.AddTarget(field.Name)
	}
	return f
}

func elementType(input string) ElementType {
	switch ElementType(input) {
	case InputPassword, InputEmail, InputNumber, InputTel, InputURL,
		InputCheckbox, InputRadio, InputSelect, InputTextArea, InputHidden:
		return ElementType(input)
	default:
		return InputText
	}
}

func checkboxValue(input string) string {
	if ElementType(input) == InputCheckbox {
		return "true"
	}
	return ""
}
