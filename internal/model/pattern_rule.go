// Package model defines the core data structures for the tagging engine.
package model

import "fmt"

// RuleKind selects how a PatternRule is evaluated against normalized text.
type RuleKind string

// Rule kinds.
const (
	// RuleAlias maps a whole normalized value straight to a category.
	RuleAlias RuleKind = "alias"
	// RuleWord is a regular expression anchored on word boundaries.
	RuleWord RuleKind = "word"
	// RuleContains is a plain substring test.
	RuleContains RuleKind = "contains"
	// RuleTerm is a literal that must not touch a letter or digit on either
	// side. Unlike RuleWord the boundary is Unicode-aware.
	RuleTerm RuleKind = "term"
)

// PatternRule is one matcher belonging to a category.
type PatternRule struct {
	Kind    RuleKind `json:"kind" mapstructure:"kind"`
	Pattern string   `json:"pattern" mapstructure:"pattern"`
}

// Alias returns an exact-value rule.
func Alias(value string) PatternRule {
	return PatternRule{Kind: RuleAlias, Pattern: value}
}

// Word returns a word-boundary regex rule. The pattern is the body between
// the boundaries, so Word(`soft\s*gel`) matches "soft gel" and "softgel".
func Word(pattern string) PatternRule {
	return PatternRule{Kind: RuleWord, Pattern: pattern}
}

// Contains returns a substring rule.
func Contains(value string) PatternRule {
	return PatternRule{Kind: RuleContains, Pattern: value}
}

// Term returns a literal rule bounded by non-word runes, so Term("胶囊")
// matches "胶囊 60粒" but not "软胶囊".
func Term(value string) PatternRule {
	return PatternRule{Kind: RuleTerm, Pattern: value}
}

func (r PatternRule) String() string {
	switch r.Kind {
	case RuleWord:
		return fmt.Sprintf(`/\b%s\b/`, r.Pattern)
	case RuleContains:
		return fmt.Sprintf("*%s*", r.Pattern)
	case RuleTerm:
		return fmt.Sprintf("<%s>", r.Pattern)
	default:
		return fmt.Sprintf("=%s", r.Pattern)
	}
}
