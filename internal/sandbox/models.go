package sandbox

import (
	"unicode"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// KindStrongPassword requires a lowercase letter, an uppercase letter and a
// digit. It shows how hosts add kinds the encoder and both evaluators pick up
// without further wiring.
const KindStrongPassword rules.Kind = "strongpassword"

// RegisterKinds adds the sandbox custom kinds to reg.
func RegisterKinds(reg *rules.Registry) error {
	return reg.Register(rules.KindSpec{
		Kind:    KindStrongPassword,
		Check:   checkStrongPassword,
		Message: `The {{ field }} field must mix upper case letters, lower case letters and digits.`,
	})
}

func checkStrongPassword(v rules.Value, _ rules.Rule, _ rules.Snapshot) bool {
	if v.Blank() {
		return true
	}
	var lower, upper, digit bool
	for _, r := range v.Text() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// SimpleConditional is the smallest conditional form: the phone number is
// only required once the terms are accepted.
type SimpleConditional struct {
	Email       string `display:"Email Address" rules:"required|Email is required;email|Please enter a valid email address"`
	AcceptTerms bool   `display:"Accept Terms and Conditions"`
	PhoneNumber string `display:"Phone Number" rules:"requiredif(dependentproperty=AcceptTerms,expectedvalue=true)|Phone number is required when terms are accepted;phone|Please enter a valid phone number"`
}

func (SimpleConditional) FormName() string { return "simple-conditional" }

// ConditionalValidation covers checkbox, select and inverted conditionals.
type ConditionalValidation struct {
	AcceptTerms        bool   `display:"Accept Terms and Conditions"`
	PhoneNumber        string `display:"Phone Number" rules:"requiredif(dependentproperty=AcceptTerms,expectedvalue=true)|Phone number is required when terms are accepted;phone|Please enter a valid phone number"`
	Country            string `display:"Country" input:"select" rules:"required|Country is required"`
	State              string `display:"State" rules:"requiredif(dependentproperty=Country,expectedvalue=USA)|State is required for USA"`
	Province           string `display:"Province" rules:"requiredif(dependentproperty=Country,expectedvalue=Canada)|Province is required for Canada"`
	UserType           string `display:"User Type" input:"select" rules:"required|User type is required"`
	CreditCard         string `display:"Credit Card" rules:"requiredif(dependentproperty=UserType,expectedvalue=Premium)|Credit card is required for Premium accounts;creditcard|Please enter a valid credit card number"`
	HasExistingAccount bool   `display:"I have an existing account"`
	NewPassword        string `display:"New Password" input:"password" rules:"requiredunless(dependentproperty=HasExistingAccount,expectedvalue=true)|Password is required for new accounts;length(min=8,max=20)|Password must be 8-20 characters"`
	Email              string `display:"Email" rules:"required|Email is required;email|Please enter a valid email address"`
}

func (ConditionalValidation) FormName() string { return "conditional" }

// RemoteValidation checks username and email availability against the
// sandbox endpoints.
type RemoteValidation struct {
	Username string `rules:"required|Username is required;length(min=3,max=50)|Username must be between 3 and 50 characters;remote(url=/validate/username)|Username is already taken"`
	Email    string `rules:"required|Email is required;email|Please enter a valid email address;remote(url=/validate/email)|Email is already registered"`
	Password string `input:"password" rules:"required|Password is required;length(min=8,max=20)|Password must be between 8 and 20 characters"`
}

func (RemoteValidation) FormName() string { return "remote" }

// Register pairs a password with its confirmation.
type Register struct {
	Password        string `input:"password" rules:"required|Password is required;length(min=8,max=100)|Password must be at least 8 characters"`
	ConfirmPassword string `display:"Confirm Password" input:"password" rules:"required|Please confirm your password;equalto(other=*.Password)|Passwords do not match"`
}

func (Register) FormName() string { return "register" }

// Price exercises decimal ranges.
type Price struct {
	ProductName string   `display:"Product Name" rules:"required|Product name is required;maxlength(max=100)|Product name must not exceed 100 characters"`
	Price       *float64 `display:"Price" rules:"required|Price is required;range(min=0.01,max=999999.99)|Price must be between $0.01 and $999,999.99"`
	Discount    *float64 `display:"Discount Amount" rules:"range(min=0.01,max=999999.99)|Discount must be between $0.01 and $999,999.99"`
}

func (Price) FormName() string { return "price" }

// Comprehensive stacks several rules per field, including the custom
// strongpassword kind.
type Comprehensive struct {
	RequiredField   string   `display:"Required Field" rules:"required|Required field is required"`
	Email           string   `form:"EmailWithMultipleValidators" display:"Email" rules:"required|Email is required;email|Please enter a valid email address;maxlength(max=100)|Email must not exceed 100 characters"`
	Password        string   `form:"PasswordWithMultipleValidators" display:"Password" input:"password" rules:"required|Password is required;length(min=8,max=20)|Password must be between 8 and 20 characters;strongpassword|Password must contain at least one lowercase letter, one uppercase letter and one number"`
	Age             *int     `rules:"range(min=18,max=120)|Age must be between 18 and 120"`
	WebsiteURL      string   `form:"WebsiteUrl" display:"Website" rules:"url|Please enter a valid URL"`
	PhoneNumber     string   `display:"Phone Number" rules:"phone|Please enter a valid phone number"`
	CreditCard      string   `display:"Credit Card" rules:"creditcard|Please enter a valid credit card number"`
	Tags            []string `rules:"minlength(min=3)|Tags must have at least 3 items;maxlength(max=10)|Tags cannot exceed 10 items"`
	CheckboxOptions []string `display:"Options" rules:"required|At least one option must be selected"`
}

func (Comprehensive) FormName() string { return "comprehensive" }
