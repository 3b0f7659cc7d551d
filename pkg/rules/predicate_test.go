package rules

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type userType int

const (
	userStandard userType = iota
	userPremium
)

func (u userType) String() string {
	if u == userPremium {
		return "Premium"
	}
	return "Standard"
}

func TestArmed(t *testing.T) {
	cases := []struct {
		name     string
		rule     Rule
		snapshot MapSnapshot
		want     bool
	}{
		{
			name:     "truthy checkbox",
			rule:     conditional(KindRequiredIf, "AcceptTerms", nil, ""),
			snapshot: MapSnapshot{"AcceptTerms": Bool(true)},
			want:     true,
		},
		{
			name:     "falsy checkbox",
			rule:     conditional(KindRequiredIf, "AcceptTerms", nil, ""),
			snapshot: MapSnapshot{"AcceptTerms": Bool(false)},
			want:     false,
		},
		{
			name:     "blank text is falsy",
			rule:     conditional(KindRequiredIf, "Nickname", nil, ""),
			snapshot: MapSnapshot{"Nickname": String("   ")},
			want:     false,
		},
		{
			name:     "numeric zero is falsy",
			rule:     conditional(KindRequiredIf, "Count", nil, ""),
			snapshot: MapSnapshot{"Count": Number(0)},
			want:     false,
		},
		{
			name:     "zero text is falsy",
			rule:     conditional(KindRequiredIf, "Count", nil, ""),
			snapshot: MapSnapshot{"Count": String("0")},
			want:     false,
		},
		{
			name:     "absent is falsy",
			rule:     conditional(KindRequiredIf, "Count", nil, ""),
			snapshot: MapSnapshot{"Count": Absent()},
			want:     false,
		},
		{
			name:     "expected bool against checkbox",
			rule:     conditional(KindRequiredIf, "AcceptTerms", true, ""),
			snapshot: MapSnapshot{"AcceptTerms": Bool(true)},
			want:     true,
		},
		{
			name:     "expected false against checkbox",
			rule:     conditional(KindRequiredIf, "AcceptTerms", false, ""),
			snapshot: MapSnapshot{"AcceptTerms": Bool(false)},
			want:     true,
		},
		{
			name:     "expected string is case insensitive",
			rule:     conditional(KindRequiredIf, "Country", "USA", ""),
			snapshot: MapSnapshot{"Country": String("usa")},
			want:     true,
		},
		{
			name:     "expected string mismatch",
			rule:     conditional(KindRequiredIf, "Country", "USA", ""),
			snapshot: MapSnapshot{"Country": String("Canada")},
			want:     false,
		},
		{
			name:     "enum compares by name",
			rule:     conditional(KindRequiredIf, "UserType", userPremium, ""),
			snapshot: MapSnapshot{"UserType": ValueOf(userPremium)},
			want:     true,
		},
		{
			name:     "enum name from text input",
			rule:     conditional(KindRequiredIf, "UserType", userPremium, ""),
			snapshot: MapSnapshot{"UserType": String("premium")},
			want:     true,
		},
		{
			name:     "unless inverts",
			rule:     conditional(KindRequiredUnless, "HasExistingAccount", true, ""),
			snapshot: MapSnapshot{"HasExistingAccount": Bool(true)},
			want:     false,
		},
		{
			name:     "unless armed when not matching",
			rule:     conditional(KindRequiredUnless, "HasExistingAccount", true, ""),
			snapshot: MapSnapshot{"HasExistingAccount": Bool(false)},
			want:     true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Armed(tc.rule, tc.snapshot)
			if err != nil {
				t.Fatalf("armed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("armed = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestArmed_MissingDependentField(t *testing.T) {
	rule := conditional(KindRequiredIf, "Ghost", true, "")
	_, err := Armed(rule, MapSnapshot{"Other": String("x")})
	if !errors.Is(err, ErrMissingDependentField) {
		t.Fatalf("expected ErrMissingDependentField, got %v", err)
	}
}

func TestArmed_InversionLaw(t *testing.T) {
	values := gen.OneGenOf(
		gen.Bool().Map(func(b bool) Value { return Bool(b) }),
		gen.AlphaString().Map(func(s string) Value { return String(s) }),
		gen.OneConstOf("true", "false", "USA", "Canada", "0", "", " ").Map(func(s string) Value { return String(s) }),
		gen.Float64Range(-2, 2).Map(func(f float64) Value { return Number(f) }),
	)
	expected := gen.OneConstOf("", "true", "false", "USA", "canada", "0")

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("requiredunless is the negation of requiredif", prop.ForAll(
		func(v Value, exp string) bool {
			var expectedValue any
			if exp != "" {
				expectedValue = exp
			}
			snap := MapSnapshot{"Dep": v}
			ifArmed, err := Armed(conditional(KindRequiredIf, "Dep", expectedValue, ""), snap)
			if err != nil {
				return false
			}
			unlessArmed, err := Armed(conditional(KindRequiredUnless, "Dep", expectedValue, ""), snap)
			if err != nil {
				return false
			}
			return ifArmed != unlessArmed
		},
		values, expected,
	))
	properties.TestingRun(t)
}
