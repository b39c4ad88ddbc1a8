// Package refset provides normalized membership sets built from companion
// reference tables (brand ASINs, competitor brand names).
package refset

import (
	"sort"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/Veraticus/kwtag/internal/normalize"
)

// Set is an immutable set of normalized identifiers. Membership and
// substring tests normalize their input with the same policy the set was
// built with. A Set is safe for concurrent use.
type Set struct {
	members map[string]struct{}
	matcher *ahocorasick.Matcher
	values  []string
	policy  normalize.Policy
}

// New builds a set from raw cell values. Blank values are skipped.
func New[T any](values []T, policy normalize.Policy) *Set {
	s := &Set{
		members: make(map[string]struct{}, len(values)),
		policy:  policy,
	}
	for _, v := range values {
		key := policy.Normalize(v)
		if key == "" {
			continue
		}
		if _, ok := s.members[key]; ok {
			continue
		}
		s.members[key] = struct{}{}
		s.values = append(s.values, key)
	}
	sort.Strings(s.values)
	if len(s.values) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(s.values)
	}
	return s
}

// Empty returns a set with no members.
func Empty(policy normalize.Policy) *Set {
	return New[string](nil, policy)
}

// Contains reports whether v, once normalized, is a member.
func (s *Set) Contains(v any) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[s.policy.Normalize(v)]
	return ok
}

// FindIn returns the members that occur as substrings of the normalized
// text, sorted.
func (s *Set) FindIn(text any) []string {
	if s == nil || s.matcher == nil {
		return nil
	}
	normalized := s.policy.Normalize(text)
	if normalized == "" {
		return nil
	}
	hits := s.matcher.MatchThreadSafe([]byte(normalized))
	if len(hits) == 0 {
		return nil
	}
	out := make([]string, 0, len(hits))
	seen := make(map[int]bool, len(hits))
	for _, idx := range hits {
		if idx < len(s.values) && !seen[idx] {
			seen[idx] = true
			out = append(out, s.values[idx])
		}
	}
	sort.Strings(out)
	return out
}

// ContainedIn reports whether any member occurs in the normalized text.
func (s *Set) ContainedIn(text any) bool {
	return len(s.FindIn(text)) > 0
}

// Len returns the number of distinct members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Values returns the sorted normalized members.
func (s *Set) Values() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.values...)
}
