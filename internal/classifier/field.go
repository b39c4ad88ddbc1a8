// Package classifier applies a normalizer and an ordered list of matchers to
// one field value, falling back to a configured default category.
package classifier

import (
	"errors"
	"strings"

	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
	"github.com/Veraticus/kwtag/internal/refset"
	"github.com/Veraticus/kwtag/internal/registry"
)

// ErrNoDefault is returned when a field classifier is built without a
// fallback category.
var ErrNoDefault = errors.New("field classifier requires a default category")

// Matcher tests normalized text and reports the category it implies.
type Matcher interface {
	Match(text string) (model.Category, bool)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(text string) (model.Category, bool)

// Match calls f.
func (f MatcherFunc) Match(text string) (model.Category, bool) {
	return f(text)
}

// Registry matches through a pattern registry lookup.
func Registry(r *registry.Registry) Matcher {
	return MatcherFunc(r.Lookup)
}

// Member matches when the text is a member of set.
func Member(set *refset.Set, category model.Category) Matcher {
	return MatcherFunc(func(text string) (model.Category, bool) {
		if set.Contains(text) {
			return category, true
		}
		return "", false
	})
}

// Substring matches when any member of set occurs inside the text.
func Substring(set *refset.Set, category model.Category) Matcher {
	return MatcherFunc(func(text string) (model.Category, bool) {
		if set.ContainedIn(text) {
			return category, true
		}
		return "", false
	})
}

// Tokens matches when the text contains any of the literal tokens.
func Tokens(category model.Category, tokens ...string) Matcher {
	lowered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	return MatcherFunc(func(text string) (model.Category, bool) {
		for _, t := range lowered {
			if strings.Contains(text, t) {
				return category, true
			}
		}
		return "", false
	})
}

// Field classifies a single field value. Matchers are tried in order and
// the first match wins.
type Field struct {
	def      model.Category
	matchers []Matcher
	policy   normalize.Policy
}

// NewField builds a field classifier.
func NewField(policy normalize.Policy, def model.Category, matchers ...Matcher) (*Field, error) {
	if def == "" {
		return nil, ErrNoDefault
	}
	return &Field{policy: policy, def: def, matchers: matchers}, nil
}

// Classify normalizes raw and returns the first matching category, or the
// default. It never returns an empty category.
func (f *Field) Classify(raw any) model.Category {
	c, _ := f.Explain(raw)
	return c
}

// Explain is Classify that also reports whether a matcher fired.
func (f *Field) Explain(raw any) (model.Category, bool) {
	text := f.policy.Normalize(raw)
	for _, m := range f.matchers {
		if c, ok := m.Match(text); ok && c != "" {
			return c, true
		}
	}
	return f.def, false
}

// Default returns the fallback category.
func (f *Field) Default() model.Category {
	return f.def
}
