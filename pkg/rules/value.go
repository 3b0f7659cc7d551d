package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ValueKind classifies a field value.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueBool
	ValueNumber
	ValueList
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	case ValueNumber:
		return "number"
	case ValueList:
		return "list"
	default:
		return "absent"
	}
}

// Value is the typed, immutable view of one field's current value. Both the
// server and the client evaluators reduce their inputs to Values so the rule
// semantics are shared.
type Value struct {
	kind ValueKind
	str  string
	b    bool
	num  float64
	raw  string
	list []string
}

// Absent returns the value of a field that has no value at all.
func Absent() Value { return Value{} }

// String wraps a text value.
func String(s string) Value { return Value{kind: ValueString, str: s} }

// Bool wraps a checkbox-like value.
func Bool(b bool) Value { return Value{kind: ValueBool, b: b} }

// Number wraps a numeric value.
func Number(f float64) Value { return Value{kind: ValueNumber, num: f} }

// NumberText wraps a number parsed from text, keeping the text as submitted
// so format checks see what the user typed.
func NumberText(f float64, text string) Value {
	return Value{kind: ValueNumber, num: f, raw: text}
}

// List wraps a multi-valued field.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: ValueList, list: cp}
}

// ValueOf converts a Go value into a Value. Nil pointers become Absent, named
// types implementing fmt.Stringer (enums) are reduced to their name.
func ValueOf(v any) Value {
	switch typed := v.(type) {
	case nil:
		return Absent()
	case Value:
		return typed
	case string:
		return String(typed)
	case bool:
		return Bool(typed)
	case []string:
		return List(typed...)
	case float64:
		return Number(typed)
	case int:
		return Number(float64(typed))
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Absent()
		}
		rv = rv.Elem()
	}

	if rv.CanInterface() {
		if s, ok := rv.Interface().(fmt.Stringer); ok && rv.Kind() != reflect.Struct {
			return String(s.String())
		}
	}

	switch rv.Kind() {
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Slice, reflect.Array:
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, ValueOf(rv.Index(i).Interface()).Text())
		}
		return Value{kind: ValueList, list: items}
	default:
		if rv.CanInterface() {
			return String(fmt.Sprint(rv.Interface()))
		}
		return Absent()
	}
}

// Kind reports the value classification.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether the field carries no value.
func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// Items returns a copy of a list value's entries.
func (v Value) Items() []string {
	if v.kind != ValueList {
		return nil
	}
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out
}

// BoolValue returns the boolean payload and whether the value is a Bool.
func (v Value) BoolValue() (bool, bool) {
	return v.b, v.kind == ValueBool
}

// Text returns the string form used by comparisons and format checks:
// numbers parsed from text return that text, other numbers their canonical
// form. Lists are joined with a comma.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueNumber:
		if v.raw != "" {
			return v.raw
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Blank reports whether non-presence rules should be skipped for the value.
// Booleans are never blank: a checkbox always has a state.
func (v Value) Blank() bool {
	switch v.kind {
	case ValueAbsent:
		return true
	case ValueString:
		return strings.TrimSpace(v.str) == ""
	case ValueList:
		return len(v.list) == 0
	default:
		return false
	}
}

// Missing reports whether the value fails a presence check. An unchecked
// checkbox counts as missing.
func (v Value) Missing() bool {
	if v.kind == ValueBool {
		return !v.b
	}
	return v.Blank()
}

// Truthy applies the truthiness used by conditional rules without an
// expected value: false, blank text, numeric zero and absent are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueBool:
		return v.b
	case ValueNumber:
		return v.num != 0
	case ValueString:
		trimmed := strings.TrimSpace(v.str)
		if trimmed == "" {
			return false
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && f == 0 {
			return false
		}
		return true
	case ValueList:
		return len(v.list) > 0
	default:
		return false
	}
}

// EqualFold compares the value against a declared expected value. The
// literals "true" and "false" match booleans and their text forms, numeric
// text compares numerically, anything else compares case-insensitively.
func (v Value) EqualFold(expected string) bool {
	want := strings.TrimSpace(expected)
	got := strings.TrimSpace(v.Text())
	if v.kind == ValueAbsent {
		return want == ""
	}

	switch strings.ToLower(want) {
	case "true", "false":
		if b, ok := v.BoolValue(); ok {
			return strconv.FormatBool(b) == strings.ToLower(want)
		}
		return strings.EqualFold(got, want)
	}

	if wf, err := strconv.ParseFloat(want, 64); err == nil {
		if gf, err := strconv.ParseFloat(got, 64); err == nil {
			return wf == gf
		}
	}
	return strings.EqualFold(got, want)
}

// FormatExpected renders a declared expected value as attribute text.
func FormatExpected(v any) (string, bool) {
	val := ValueOf(v)
	if val.IsAbsent() {
		return "", false
	}
	return val.Text(), true
}
