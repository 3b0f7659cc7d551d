package parser

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// operationExtension is the x-formguard object on an operation or a request
// body schema.
type operationExtension struct {
	Name  string   `json:"name"`
	Order []string `json:"order"`
}

// fieldExtension is the x-formguard object on a property.
type fieldExtension struct {
	Display        string                `json:"display"`
	Input          string                `json:"input"`
	Messages       map[string]string     `json:"messages"`
	Phone          bool                  `json:"phone"`
	CreditCard     bool                  `json:"creditCard"`
	EqualTo        string                `json:"equalTo"`
	RequiredIf     *conditionalExtension `json:"requiredIf"`
	RequiredUnless *conditionalExtension `json:"requiredUnless"`
	Remote         *remoteExtension      `json:"remote"`
	Rules          []rules.Rule          `json:"rules"`
}

type conditionalExtension struct {
	Dependent string `json:"dependent"`
	Expected  any    `json:"expected"`
	Message   string `json:"message"`
}

type remoteExtension struct {
	URL              string   `json:"url"`
	Method           string   `json:"method"`
	AdditionalFields []string `json:"additionalFields"`
	Message          string   `json:"message"`
}

// OperationExtensionKeys lists the keys accepted in an x-formguard object on
// an operation or a request body schema.
func OperationExtensionKeys() []string {
	return jsonKeys(reflect.TypeOf(operationExtension{}))
}

// FieldExtensionKeys lists the keys accepted in an x-formguard object on a
// property.
func FieldExtensionKeys() []string {
	return jsonKeys(reflect.TypeOf(fieldExtension{}))
}

func jsonKeys(t reflect.Type) []string {
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys
}

func decodeOperationExtension(exts map[string]any) (operationExtension, error) {
	var out operationExtension
	err := decodeExtension(exts, &out)
	return out, err
}

func decodeFieldExtension(exts map[string]any) (fieldExtension, error) {
	var out fieldExtension
	err := decodeExtension(exts, &out)
	return out, err
}

func decodeExtension(exts map[string]any, dst any) error {
	raw, ok := exts[pkgopenapi.ExtensionKey]
	if !ok || raw == nil {
		return nil
	}
	var data []byte
	switch v := raw.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s: %w", pkgopenapi.ExtensionKey, err)
		}
		data = encoded
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%s: %w", pkgopenapi.ExtensionKey, err)
	}
	return nil
}

// declareField maps the keywords of one property onto rules. Presence comes
// first, then formats and bounds, then extension rules, so encoded order
// follows the usual unobtrusive layout.
func declareField(f *rules.FieldBuilder, s *openapi3.Schema, ext fieldExtension, required bool) {
	msg := func(kind rules.Kind) string {
		return ext.Messages[kind.String()]
	}

	f.Type(fieldType(firstSchemaType(s.Type)))
	switch {
	case ext.Display != "":
		f.Display(ext.Display)
	case s.Title != "":
		f.Display(s.Title)
	}
	if ext.Input != "" {
		f.Input(ext.Input)
	}

	if required {
		f.Required(msg(rules.KindRequired))
	}
	if c := ext.RequiredIf; c != nil {
		f.RequiredIf(c.Dependent, c.Expected, firstNonEmpty(c.Message, msg(rules.KindRequiredIf)))
	}
	if c := ext.RequiredUnless; c != nil {
		f.RequiredUnless(c.Dependent, c.Expected, firstNonEmpty(c.Message, msg(rules.KindRequiredUnless)))
	}

	switch strings.ToLower(s.Format) {
	case "email":
		f.Email(msg(rules.KindEmail))
	case "uri", "url":
		f.URL(msg(rules.KindURL))
	case "tel", "phone":
		f.Phone(msg(rules.KindPhone))
	case "credit-card", "creditcard":
		f.CreditCard(msg(rules.KindCreditCard))
	}
	if ext.Phone {
		f.Phone(msg(rules.KindPhone))
	}
	if ext.CreditCard {
		f.CreditCard(msg(rules.KindCreditCard))
	}

	var maxLength *int
	if s.MaxLength != nil {
		v := int(*s.MaxLength)
		maxLength = &v
	}
	switch {
	case s.MinLength > 0 && maxLength != nil:
		f.Length(int(s.MinLength), *maxLength, msg(rules.KindLength))
	case s.MinLength > 0:
		f.MinLength(int(s.MinLength), msg(rules.KindMinLength))
	case maxLength != nil:
		f.MaxLength(*maxLength, msg(rules.KindMaxLength))
	}

	if s.Min != nil || s.Max != nil {
		f.Rule(rangeRule(s.Min, s.Max, msg(rules.KindRange)))
	}
	if s.Pattern != "" {
		f.Regex(s.Pattern, msg(rules.KindRegex))
	}
	if ext.EqualTo != "" {
		f.EqualTo(ext.EqualTo, msg(rules.KindEqualTo))
	}
	if r := ext.Remote; r != nil {
		f.Remote(r.URL, firstNonEmpty(r.Message, msg(rules.KindRemote)), r.AdditionalFields...)
		if r.Method != "" {
			f.Param(rules.KindRemote, rules.ParamMethod, strings.ToUpper(r.Method))
		}
	}
	for _, rule := range ext.Rules {
		f.Rule(rule)
	}
}

func rangeRule(min, max *float64, message string) rules.Rule {
	rule := rules.Rule{Kind: rules.KindRange, Message: message, Params: map[string]string{}}
	if min != nil && !math.IsInf(*min, 0) {
		rule.Params[rules.ParamMin] = strconv.FormatFloat(*min, 'f', -1, 64)
	}
	if max != nil && !math.IsInf(*max, 0) {
		rule.Params[rules.ParamMax] = strconv.FormatFloat(*max, 'f', -1, 64)
	}
	return rule
}

func fieldType(t string) rules.FieldType {
	switch t {
	case "integer":
		return rules.FieldTypeInteger
	case "number":
		return rules.FieldTypeNumber
	case "boolean":
		return rules.FieldTypeBoolean
	case "array":
		return rules.FieldTypeArray
	default:
		return rules.FieldTypeString
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
