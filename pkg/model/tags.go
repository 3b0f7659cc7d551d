package model

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// Struct tags read by the compiler.
const (
	TagName    = "form"
	TagRules   = "rules"
	TagDisplay = "display"
	TagInput   = "input"
)

const tagSpecials = `;|,()=\`

// ParseRulesTag parses a rules tag. Clauses are separated by ";", each clause
// is kind[(param=value,...)][|message]. A backslash escapes any of ; | , ( ) =
// and itself; before other characters it is kept literally so regex patterns
// can be written naturally. Struct tag values are Go quoted strings, so a
// backslash is written twice inside the tag.
//
//	rules:"required|Email is required;email;length(min=8,max=20)"
func ParseRulesTag(tag string) ([]rules.Rule, error) {
	var out []rules.Rule
	for _, clause := range splitEscaped(tag, ';') {
		if strings.TrimSpace(clause) == "" {
			continue
		}
		rule, err := parseClause(clause)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func parseClause(clause string) (rules.Rule, error) {
	head, message, _ := cutEscaped(clause, '|')
	head = strings.TrimSpace(head)

	var rule rules.Rule
	rule.Message = strings.TrimSpace(unescape(message))

	open := indexEscaped(head, '(')
	if open < 0 {
		rule.Kind = rules.NormalizeKind(unescape(head))
	} else {
		if !strings.HasSuffix(head, ")") || strings.HasSuffix(head, `\)`) {
			return rules.Rule{}, fmt.Errorf("%w: unterminated parameters in %q", rules.ErrInvalidRule, clause)
		}
		rule.Kind = rules.NormalizeKind(unescape(head[:open]))
		params, err := parseParams(head[open+1 : len(head)-1])
		if err != nil {
			return rules.Rule{}, fmt.Errorf("%w: %v in %q", rules.ErrInvalidRule, err, clause)
		}
		rule.Params = params
	}
	if rule.Kind == "" {
		return rules.Rule{}, fmt.Errorf("%w: empty kind in %q", rules.ErrInvalidRule, clause)
	}
	if rule.Kind == rules.KindRequiredUnless {
		rule.Invert = true
	}
	return rule, nil
}

func parseParams(raw string) (map[string]string, error) {
	params := make(map[string]string)
	for _, pair := range splitEscaped(raw, ',') {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := cutEscaped(pair, '=')
		if !ok {
			return nil, fmt.Errorf("parameter %q has no value", strings.TrimSpace(pair))
		}
		key = strings.ToLower(strings.TrimSpace(unescape(key)))
		if key == "" {
			return nil, fmt.Errorf("empty parameter name")
		}
		params[key] = strings.TrimSpace(unescape(value))
	}
	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}

// splitEscaped splits s on unescaped sep, keeping escapes in the parts.
func splitEscaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(tagSpecials, s[i+1]) >= 0 {
			i++
			continue
		}
		if s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func indexEscaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(tagSpecials, s[i+1]) >= 0 {
			i++
			continue
		}
		if s[i] == c {
			return i
		}
	}
	return -1
}

func cutEscaped(s string, c byte) (before, after string, found bool) {
	idx := indexEscaped(s, c)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(tagSpecials, s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
