package remotecheck

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// Set is a concurrency safe, case-insensitive set of reserved values.
type Set struct {
	mu     sync.RWMutex
	values map[string]struct{}
}

// NewSet creates a set holding values.
func NewSet(values ...string) *Set {
	s := &Set{values: make(map[string]struct{}, len(values))}
	s.Add(values...)
	return s
}

// Add reserves values. Blank values are ignored.
func (s *Set) Add(values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		key := normalize(v)
		if key == "" {
			continue
		}
		s.values[key] = struct{}{}
	}
}

// Contains reports whether value is reserved.
func (s *Set) Contains(value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[normalize(value)]
	return ok
}

// Available is a LookupFunc accepting values not in the set.
func (s *Set) Available(_ context.Context, value string, _ url.Values) (bool, error) {
	return !s.Contains(value), nil
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
