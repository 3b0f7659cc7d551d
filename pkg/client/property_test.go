package client

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type conditionalInput struct {
	terms       bool
	phone       string
	country     string
	state       string
	province    string
	existing    bool
	newPassword string
}

func TestValidateFieldSync_Idempotent(t *testing.T) {
	inputs := gopter.CombineGens(
		gen.Bool(),
		gen.OneGenOf(gen.NumString(), gen.AlphaNumString()),
		gen.OneConstOf("", " ", "USA", "usa", "Canada", "Mexico"),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Bool(),
		gen.AnyString(),
	).Map(func(vals []interface{}) conditionalInput {
		return conditionalInput{
			terms:       vals[0].(bool),
			phone:       vals[1].(string),
			country:     vals[2].(string),
			state:       vals[3].(string),
			province:    vals[4].(string),
			existing:    vals[5].(bool),
			newPassword: vals[6].(string),
		}
	})

	ev := New()
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("validating twice gives the same messages and leaves values alone", prop.ForAll(
		func(in conditionalInput) bool {
			f := conditionalForm(t)
			f.Element("AcceptTerms").SetChecked(in.terms)
			f.Element("PhoneNumber").SetValue(in.phone)
			f.Element("Country").SetValue(in.country)
			f.Element("State").SetValue(in.state)
			f.Element("Province").SetValue(in.province)
			f.Element("HasExistingAccount").SetChecked(in.existing)
			f.Element("NewPassword").SetValue(in.newPassword)

			before := f.Values()
			for _, name := range f.Names() {
				el := f.Element(name)
				first := ev.ValidateFieldSync(el)
				second := ev.ValidateFieldSync(el)
				if !cmp.Equal(first, second) {
					return false
				}
			}
			return cmp.Equal(before, f.Values())
		},
		inputs,
	))
	properties.TestingRun(t)
}
