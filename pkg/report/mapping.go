package report

import (
	"strconv"
	"strings"
)

// Mapping splits a server payload into messages for known fields and
// form-level messages.
type Mapping struct {
	Fields Report
	Form   []string
}

// Map resolves payload keys against the known field names. Keys may be plain
// names, dotted paths, JSON pointers (/body/Email) or bracketed paths
// (Items[0].Name). Exact names win; otherwise the longest known prefix of the
// normalised path is used, after dropping wrapper segments such as body or
// data and numeric indexes. Keys that resolve to nothing become form-level
// messages so they are not lost.
func Map(known []string, payload map[string][]string) Mapping {
	mapping := Mapping{Fields: New()}
	if len(payload) == 0 {
		return mapping
	}

	names := make(map[string]struct{}, len(known))
	folded := make(map[string]string, len(known))
	for _, name := range known {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names[name] = struct{}{}
		folded[strings.ToLower(name)] = name
	}

	for raw, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		field, ok := resolve(raw, names, folded)
		if !ok {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		for _, m := range normalized {
			mapping.Fields.Add(field, m)
		}
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func resolve(raw string, names map[string]struct{}, folded map[string]string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if _, ok := names[trimmed]; ok {
		return trimmed, true
	}
	if isFormLevelKey(trimmed) {
		return "", false
	}

	best := ""
	for _, variant := range segmentVariants(pathSegments(trimmed)) {
		for end := len(variant); end > 0; end-- {
			name, ok := folded[strings.ToLower(strings.Join(variant[:end], "."))]
			if !ok {
				continue
			}
			if end > segmentCount(best) {
				best = name
			}
			break
		}
	}
	return best, best != ""
}

func segmentCount(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, ".") + 1
}

func pathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "", "//", "/").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func segmentVariants(segments []string) [][]string {
	if len(segments) == 0 {
		return nil
	}
	unwrapped := dropWrappers(segments)
	return [][]string{
		segments,
		unwrapped,
		dropIndexes(segments),
		dropIndexes(unwrapped),
	}
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
	"model":      {},
}

func dropWrappers(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func dropIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
