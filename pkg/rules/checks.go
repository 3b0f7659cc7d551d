package rules

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	httpURLPattern  = regexp.MustCompile(`^https?://.+`)
	nonDigitPattern = regexp.MustCompile(`\D`)

	patternCache sync.Map // string -> *regexp.Regexp or nil for invalid
)

// falsy mirrors the short-circuit every format check applies before looking
// at the value: blank text and an unchecked box pass.
func falsy(v Value) bool {
	if b, ok := v.BoolValue(); ok {
		return !b
	}
	return v.Blank()
}

// IsEmail reports whether s looks like local@domain.tld.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsURL accepts absolute URLs with a scheme, falling back to a loose
// http(s) prefix match.
func IsURL(s string) bool {
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "") {
		return true
	}
	return httpURLPattern.MatchString(s)
}

// IsPhone accepts any text carrying at least ten digits.
func IsPhone(s string) bool {
	return len(nonDigitPattern.ReplaceAllString(s, "")) >= 10
}

// IsCreditCard strips non-digits and applies the Luhn checksum to numbers of
// 13 to 19 digits.
func IsCreditCard(s string) bool {
	digits := nonDigitPattern.ReplaceAllString(s, "")
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// MatchesPattern runs an unanchored search of pattern over s. An empty or
// uncompilable pattern matches everything.
func MatchesPattern(s, pattern string) bool {
	if pattern == "" {
		return true
	}
	re := compilePattern(pattern)
	if re == nil {
		return true
	}
	return re.MatchString(s)
}

// ValidPattern reports whether pattern compiles.
func ValidPattern(pattern string) bool {
	return pattern == "" || compilePattern(pattern) != nil
}

func compilePattern(pattern string) *regexp.Regexp {
	if cached, ok := patternCache.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		patternCache.Store(pattern, (*regexp.Regexp)(nil))
		return nil
	}
	patternCache.Store(pattern, re)
	return re
}

// StripPrefix removes the "*." prefix some encoders put in front of sibling
// field names.
func StripPrefix(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "*.")
}

func lengthOf(v Value) int {
	if v.Kind() == ValueList {
		return len(v.list)
	}
	return utf8.RuneCountInString(v.Text())
}

// intBound parses a length bound. ok is false for a malformed bound; a missing
// bound reports present=false.
func intBound(rule Rule, name string) (n int, present, ok bool) {
	raw, exists := rule.Param(name)
	raw = strings.TrimSpace(raw)
	if !exists || raw == "" {
		return 0, false, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, false
	}
	return n, true, true
}

func floatBound(rule Rule, name string, fallback float64) (float64, bool) {
	raw, exists := rule.Param(name)
	raw = strings.TrimSpace(raw)
	if !exists || raw == "" {
		return fallback, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func checkRequired(v Value, _ Rule, _ Snapshot) bool {
	return !v.Missing()
}

func checkEmail(v Value, _ Rule, _ Snapshot) bool {
	return falsy(v) || IsEmail(v.Text())
}

func checkMinLength(v Value, r Rule, _ Snapshot) bool {
	if falsy(v) {
		return true
	}
	min, present, ok := intBound(r, ParamMin)
	if !ok {
		return false
	}
	return !present || lengthOf(v) >= min
}

func checkMaxLength(v Value, r Rule, _ Snapshot) bool {
	if falsy(v) {
		return true
	}
	max, present, ok := intBound(r, ParamMax)
	if !ok {
		return false
	}
	return !present || lengthOf(v) <= max
}

func checkLength(v Value, r Rule, s Snapshot) bool {
	return checkMinLength(v, r, s) && checkMaxLength(v, r, s)
}

func checkRange(v Value, r Rule, _ Snapshot) bool {
	if falsy(v) {
		return true
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
	if err != nil || math.IsNaN(num) {
		return false
	}
	min, okMin := floatBound(r, ParamMin, math.Inf(-1))
	max, okMax := floatBound(r, ParamMax, math.Inf(1))
	if !okMin || !okMax {
		return false
	}
	return num >= min && num <= max
}

func checkURL(v Value, _ Rule, _ Snapshot) bool {
	return falsy(v) || IsURL(v.Text())
}

func checkPhone(v Value, _ Rule, _ Snapshot) bool {
	return falsy(v) || IsPhone(v.Text())
}

func checkCreditCard(v Value, _ Rule, _ Snapshot) bool {
	return falsy(v) || IsCreditCard(v.Text())
}

func checkRegex(v Value, r Rule, _ Snapshot) bool {
	if falsy(v) {
		return true
	}
	pattern, _ := r.Param(ParamPattern)
	return MatchesPattern(v.Text(), pattern)
}

func checkEqualTo(v Value, r Rule, snap Snapshot) bool {
	if falsy(v) {
		return true
	}
	other, _ := r.Param(ParamOther)
	other = StripPrefix(other)
	if other == "" {
		return true
	}
	if snap == nil {
		return false
	}
	sibling, ok := snap.Lookup(other)
	if !ok {
		return false
	}
	return v.Text() == sibling.Text()
}

// checkConditional runs the presence check once the rule is armed. Arming is
// resolved by the evaluator so a missing dependent field can be reported.
func checkConditional(v Value, _ Rule, _ Snapshot) bool {
	return !v.Missing()
}

func checkRemote(Value, Rule, Snapshot) bool {
	return true
}
