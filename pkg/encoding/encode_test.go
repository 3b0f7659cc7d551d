package encoding

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/goliatone/go-formguard/pkg/rules"
)

func TestEncode_ConditionalAndFormats(t *testing.T) {
	b := rules.NewBuilder("enc")
	b.Field("AcceptTerms").Type(rules.FieldTypeBoolean)
	b.Field("HasExistingAccount").Type(rules.FieldTypeBoolean)
	b.Field("PhoneNumber").
		RequiredIf("AcceptTerms", true, "Phone number is required when terms are accepted").
		Phone("Please enter a valid phone number")
	b.Field("NewPassword").
		RequiredUnless("HasExistingAccount", true, "New password is required").
		Length(8, 20, "Password must be between 8 and 20 characters")
	b.Field("Nickname").RequiredIf("AcceptTerms", nil, "Nickname is required")
	schema, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	phone, _ := schema.Field("PhoneNumber")
	want := []Attribute{
		{Key: "data-val", Value: "true"},
		{Key: "data-val-requiredif", Value: "Phone number is required when terms are accepted"},
		{Key: "data-val-requiredif-dependentproperty", Value: "AcceptTerms"},
		{Key: "data-val-requiredif-expectedvalue", Value: "true"},
		{Key: "data-val-phone", Value: "Please enter a valid phone number"},
	}
	if diff := cmp.Diff(want, Encode(phone).Attributes()); diff != "" {
		t.Fatalf("phone attributes mismatch (-want +got):\n%s", diff)
	}

	password, _ := schema.Field("NewPassword")
	got := Encode(password).Map()
	if got["data-val-requiredunless-invert"] != "true" {
		t.Fatalf("expected invert flag, got %v", got)
	}
	if got["data-val-length-min"] != "8" || got["data-val-length-max"] != "20" {
		t.Fatalf("unexpected length params %v", got)
	}

	nickname, _ := schema.Field("Nickname")
	set := Encode(nickname)
	if _, ok := set.Get("data-val-requiredif-expectedvalue"); ok {
		t.Fatalf("expected no expectedvalue attribute when undeclared")
	}
	if _, ok := set.Get("data-val-requiredif-invert"); ok {
		t.Fatalf("invert must only be written when true")
	}
}

func TestEncode_NoRulesIsEmpty(t *testing.T) {
	set := Encode(rules.FieldRules{Name: "Plain"})
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %v", set.Attributes())
	}
	if Decode(set) != nil {
		t.Fatalf("expected nil rules for unflagged set")
	}
}

func TestDecode_IgnoresExtraSegments(t *testing.T) {
	set := NewAttributeSet(
		Attribute{Key: "data-val", Value: "true"},
		Attribute{Key: "DATA-VAL-Range", Value: "Out of range"},
		Attribute{Key: "data-val-range-min", Value: "1"},
		Attribute{Key: "data-val-range-max-extra", Value: "5"},
		Attribute{Key: "data-valmsg-for", Value: "Qty"},
		Attribute{Key: "class", Value: "input"},
	)
	want := []rules.Rule{{
		Kind:    rules.KindRange,
		Message: "Out of range",
		Params:  map[string]string{"min": "1", "max": "5"},
	}}
	if diff := cmp.Diff(want, Decode(set)); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestAttributeSet_JSONPreservesOrder(t *testing.T) {
	set := NewAttributeSet(
		Attribute{Key: "data-val", Value: "true"},
		Attribute{Key: "data-val-required", Value: "Required"},
		Attribute{Key: "data-val-email", Value: "Bad <email>"},
	)
	raw, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if idx := strings.Index(string(raw), "data-val-required"); idx < 0 || idx > strings.Index(string(raw), "data-val-email") {
		t.Fatalf("unexpected order in %s", raw)
	}

	var decoded AttributeSet
	if err := json.Unmarshal([]byte(`{"data-val":"true","data-val-email":"E","data-val-required":"R"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var kinds []rules.Kind
	for _, r := range Decode(decoded) {
		kinds = append(kinds, r.Kind)
	}
	if diff := cmp.Diff([]rules.Kind{rules.KindEmail, rules.KindRequired}, kinds); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAttributeSet_HTMLEscapes(t *testing.T) {
	set := NewAttributeSet(
		Attribute{Key: "data-val", Value: "true"},
		Attribute{Key: "data-val-regex", Value: `Must match "x"`},
	)
	want := ` data-val="true" data-val-regex="Must match &#34;x&#34;"`
	if got := set.HTML(); got != want {
		t.Fatalf("html = %q, want %q", got, want)
	}
}

func TestAttributeSet_DeleteKeepsOrder(t *testing.T) {
	set := NewAttributeSet(
		Attribute{Key: "data-val", Value: "true"},
		Attribute{Key: "data-val-required", Value: "R"},
		Attribute{Key: "data-val-email", Value: "E"},
	)
	set.Delete("DATA-VAL-REQUIRED")
	set.Delete("missing")
	set.Set("data-val-url", "U")

	want := []Attribute{
		{Key: "data-val", Value: "true"},
		{Key: "data-val-email", Value: "E"},
		{Key: "data-val-url", Value: "U"},
	}
	if diff := cmp.Diff(want, set.Attributes()); diff != "" {
		t.Fatalf("attributes mismatch (-want +got):\n%s", diff)
	}
	if v, ok := set.Get("data-val-email"); !ok || v != "E" {
		t.Fatalf("get after delete = %q, %v", v, ok)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	kinds := gen.OneConstOf(
		rules.KindRequired, rules.KindEmail, rules.KindLength, rules.KindRange,
		rules.KindRegex, rules.KindRequiredIf, rules.KindRequiredUnless, rules.Kind("zipcode"),
	)
	paramNames := gen.OneGenOf(
		gen.OneConstOf("min", "max", "pattern", "dependentproperty", "expectedvalue", "other", "invert"),
		gen.Identifier(),
		gen.AlphaString(),
		gen.AnyString(),
	)

	ruleGen := gopter.CombineGens(kinds, gen.AnyString(), gen.MapOf(paramNames, gen.AlphaString())).
		Map(func(vals []interface{}) rules.Rule {
			kind := vals[0].(rules.Kind)
			params := vals[2].(map[string]string)
			if len(params) == 0 {
				params = nil
			}
			return rules.Rule{
				Kind:    kind,
				Message: vals[1].(string),
				Params:  params,
				Invert:  kind == rules.KindRequiredUnless,
			}
		})

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("decode inverts encode for accepted parameter names", prop.ForAll(
		func(list []rules.Rule) bool {
			field := rules.FieldRules{Name: "F"}
			seen := map[rules.Kind]bool{}
			for _, r := range list {
				if seen[r.Kind] {
					continue
				}
				seen[r.Kind] = true
				field.Rules = append(field.Rules, acceptedParams(r))
			}
			decoded := Decode(Encode(field))
			if len(field.Rules) == 0 {
				return decoded == nil
			}
			return cmp.Equal(field.Rules, decoded)
		},
		gen.SliceOf(ruleGen),
	))
	properties.Property("build rejects parameter names that cannot round trip", prop.ForAll(
		func(r rules.Rule) bool {
			if len(acceptedParams(r).Params) == len(r.Params) {
				return true
			}
			b := rules.NewBuilder("params")
			b.Field("F").Rule(r)
			_, err := b.Build()
			return errors.Is(err, rules.ErrInvalidRule)
		},
		ruleGen,
	))
	properties.TestingRun(t)
}

// acceptedParams drops the parameters Build would reject.
func acceptedParams(r rules.Rule) rules.Rule {
	if r.Params == nil {
		return r
	}
	kept := make(map[string]string, len(r.Params))
	for name, value := range r.Params {
		if rules.ValidParamName(name) {
			kept[name] = value
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	r.Params = kept
	return r
}

func TestDescribe(t *testing.T) {
	b := rules.NewBuilder("register")
	b.Field("Email").Required("").Email("")
	b.Field("Password").Input("password").Required("")
	b.Field("AcceptTerms").Type(rules.FieldTypeBoolean)
	schema, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	desc := Describe(schema, "/forms/register", "POST")
	var inputs []string
	for _, f := range desc.Fields {
		inputs = append(inputs, f.Input)
	}
	if diff := cmp.Diff([]string{"email", "password", "checkbox"}, inputs); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
	if desc.Fields[2].Attributes.Len() != 0 {
		t.Fatalf("expected no attributes for rule-less field")
	}
}
