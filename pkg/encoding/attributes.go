package encoding

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/goccy/go-json"
)

// Attribute is a single name/value pair.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AttributeSet is an insertion ordered set of HTML attributes. Order matters:
// the client evaluator runs non-presence rules in encoded order.
type AttributeSet struct {
	attrs []Attribute
	index map[string]int
}

// NewAttributeSet builds a set from pairs, keeping the first position of
// repeated keys and the last value.
func NewAttributeSet(attrs ...Attribute) AttributeSet {
	var set AttributeSet
	for _, a := range attrs {
		set.Set(a.Key, a.Value)
	}
	return set
}

// Set stores value under key. Keys are lowercased; an existing key keeps its
// position.
func (s *AttributeSet) Set(key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if idx, ok := s.index[key]; ok {
		s.attrs[idx].Value = value
		return
	}
	s.index[key] = len(s.attrs)
	s.attrs = append(s.attrs, Attribute{Key: key, Value: value})
}

// Delete removes key, keeping the order of the remaining attributes.
func (s *AttributeSet) Delete(key string) {
	key = strings.ToLower(strings.TrimSpace(key))
	idx, ok := s.index[key]
	if !ok {
		return
	}
	s.attrs = append(s.attrs[:idx], s.attrs[idx+1:]...)
	delete(s.index, key)
	for i := idx; i < len(s.attrs); i++ {
		s.index[s.attrs[i].Key] = i
	}
}

// Get returns the value stored under key.
func (s AttributeSet) Get(key string) (string, bool) {
	idx, ok := s.index[strings.ToLower(key)]
	if !ok {
		return "", false
	}
	return s.attrs[idx].Value, true
}

// Len reports the number of attributes.
func (s AttributeSet) Len() int {
	return len(s.attrs)
}

// Attributes returns a copy of the ordered pairs.
func (s AttributeSet) Attributes() []Attribute {
	out := make([]Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Map flattens the set into a map.
func (s AttributeSet) Map() map[string]string {
	out := make(map[string]string, len(s.attrs))
	for _, a := range s.attrs {
		out[a.Key] = a.Value
	}
	return out
}

// HTML renders the set as space separated, escaped attributes with a leading
// space, ready to splice into a tag.
func (s AttributeSet) HTML() string {
	var b strings.Builder
	for _, a := range s.attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Value))
		b.WriteByte('"')
	}
	return b.String()
}

// MarshalJSON writes the set as a JSON object preserving order.
func (s AttributeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range s.attrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values preserving key order.
func (s *AttributeSet) UnmarshalJSON(data []byte) error {
	dec := stdjson.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("encoding: attributes: %w", err)
	}
	if delim, ok := tok.(stdjson.Delim); !ok || delim != '{' {
		return fmt.Errorf("encoding: attributes must be a JSON object")
	}
	*s = AttributeSet{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("encoding: attributes: %w", err)
		}
		key, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("encoding: attribute %q: %w", key, err)
		}
		switch v := value.(type) {
		case string:
			s.Set(key, v)
		case nil:
			s.Set(key, "")
		default:
			s.Set(key, fmt.Sprint(v))
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("encoding: attributes: %w", err)
	}
	return nil
}
