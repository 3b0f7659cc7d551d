package report

import (
	"sort"
	"strings"
)

// Report collects validation messages per field name. The first message of a
// field is the one displayed.
type Report map[string][]string

// New returns an empty report.
func New() Report {
	return make(Report)
}

// Add appends message to field. Blank messages and exact duplicates are
// dropped.
func (r Report) Add(field, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	for _, existing := range r[field] {
		if existing == message {
			return
		}
	}
	r[field] = append(r[field], message)
}

// First returns the message shown for field.
func (r Report) First(field string) (string, bool) {
	messages := r[field]
	if len(messages) == 0 {
		return "", false
	}
	return messages[0], true
}

// Has reports whether field carries at least one message.
func (r Report) Has(field string) bool {
	return len(r[field]) > 0
}

// Valid reports whether no field carries a message.
func (r Report) Valid() bool {
	for _, messages := range r {
		if len(messages) > 0 {
			return false
		}
	}
	return true
}

// Fields lists the fields with messages in lexical order.
func (r Report) Fields() []string {
	out := make([]string, 0, len(r))
	for field, messages := range r {
		if len(messages) > 0 {
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}

// Merge appends every message of other.
func (r Report) Merge(other Report) {
	for field, messages := range other {
		for _, m := range messages {
			r.Add(field, m)
		}
	}
}

// Normalize trims and dedupes a raw payload, dropping empty entries.
func Normalize(raw map[string][]string) Report {
	out := make(Report, len(raw))
	for field, messages := range raw {
		if normalized := normalizeMessages(messages); len(normalized) > 0 {
			out[strings.TrimSpace(field)] = normalized
		}
	}
	return out
}

// MergeMessages concatenates and normalises message lists preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
