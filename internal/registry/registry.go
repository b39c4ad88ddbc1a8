// Package registry holds ordered category → rule tables and evaluates text
// against them.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
)

// ErrInvalidRegistry is returned when a rule table cannot be compiled.
var ErrInvalidRegistry = errors.New("invalid pattern registry")

// Entry declares the rules of one category. Entries are evaluated in the
// order they are declared.
type Entry struct {
	Category model.Category
	Rules    []model.PatternRule
}

// TieBreak picks Winner whenever every category in When was detected.
type TieBreak struct {
	Winner model.Category
	When   []model.Category
}

// Options configures how detections are resolved.
type Options struct {
	// Multi is returned when several categories match and no tie-break
	// applies. Defaults to Bundle.
	Multi model.Category
	// Fallback is returned when nothing matches. Defaults to Others.
	Fallback  model.Category
	TieBreaks []TieBreak
}

type compiledRule struct {
	re     *regexp.Regexp
	needle string
	rule   model.PatternRule
	term   bool
}

type compiledEntry struct {
	category model.Category
	rules    []compiledRule
}

// Registry is an immutable, compiled rule table. It is safe for concurrent
// use.
type Registry struct {
	aliases   map[string]model.Category
	multi     model.Category
	fallback  model.Category
	entries   []compiledEntry
	declared  []Entry
	tieBreaks []TieBreak
}

// aliasKey folds alias keys so "CAPLET", "Caplet" and "caplet" collide.
var aliasKey = normalize.Collapsed

// New compiles entries into a Registry. Every problem with the table is
// reported here so that nothing can fail while rows are processed.
func New(entries []Entry, opts Options) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidRegistry)
	}
	if opts.Multi == "" {
		opts.Multi = model.CategoryBundle
	}
	if opts.Fallback == "" {
		opts.Fallback = model.CategoryOthers
	}

	r := &Registry{
		aliases:  make(map[string]model.Category),
		multi:    opts.Multi,
		fallback: opts.Fallback,
		entries:  make([]compiledEntry, 0, len(entries)),
		declared: entries,
	}

	seen := make(map[model.Category]bool, len(entries))
	for i, e := range entries {
		if e.Category == "" {
			return nil, fmt.Errorf("%w: entry %d has no category", ErrInvalidRegistry, i)
		}
		if seen[e.Category] {
			return nil, fmt.Errorf("%w: category %q declared twice", ErrInvalidRegistry, e.Category)
		}
		seen[e.Category] = true
		if len(e.Rules) == 0 {
			return nil, fmt.Errorf("%w: category %q has no rules", ErrInvalidRegistry, e.Category)
		}

		ce := compiledEntry{category: e.Category}
		for _, rule := range e.Rules {
			if strings.TrimSpace(rule.Pattern) == "" {
				return nil, fmt.Errorf("%w: category %q has an empty %s rule", ErrInvalidRegistry, e.Category, rule.Kind)
			}
			switch rule.Kind {
			case model.RuleAlias:
				key := aliasKey.Normalize(rule.Pattern)
				if prev, ok := r.aliases[key]; ok && prev != e.Category {
					return nil, fmt.Errorf("%w: alias %q maps to both %q and %q", ErrInvalidRegistry, rule.Pattern, prev, e.Category)
				}
				r.aliases[key] = e.Category
			case model.RuleWord:
				re, err := regexp.Compile(`(?i)\b(?:` + rule.Pattern + `)\b`)
				if err != nil {
					return nil, fmt.Errorf("%w: category %q pattern %q: %v", ErrInvalidRegistry, e.Category, rule.Pattern, err)
				}
				ce.rules = append(ce.rules, compiledRule{rule: rule, re: re})
			case model.RuleContains:
				ce.rules = append(ce.rules, compiledRule{rule: rule, needle: strings.ToLower(rule.Pattern)})
			case model.RuleTerm:
				ce.rules = append(ce.rules, compiledRule{rule: rule, needle: strings.ToLower(rule.Pattern), term: true})
			default:
				return nil, fmt.Errorf("%w: category %q has unknown rule kind %q", ErrInvalidRegistry, e.Category, rule.Kind)
			}
		}
		r.entries = append(r.entries, ce)
	}

	for _, tb := range opts.TieBreaks {
		if len(tb.When) < 2 {
			return nil, fmt.Errorf("%w: tie-break for %q needs at least two categories", ErrInvalidRegistry, tb.Winner)
		}
		if !seen[tb.Winner] {
			return nil, fmt.Errorf("%w: tie-break winner %q is not declared", ErrInvalidRegistry, tb.Winner)
		}
		for _, c := range tb.When {
			if !seen[c] {
				return nil, fmt.Errorf("%w: tie-break category %q is not declared", ErrInvalidRegistry, c)
			}
		}
	}
	r.tieBreaks = opts.TieBreaks

	return r, nil
}

// MustNew is New for built-in tables; it panics on error.
func MustNew(entries []Entry, opts Options) *Registry {
	r, err := New(entries, opts)
	if err != nil {
		panic(err)
	}
	return r
}

// Alias returns the category an exact alias maps to.
func (r *Registry) Alias(text string) (model.Category, bool) {
	c, ok := r.aliases[aliasKey.Normalize(text)]
	return c, ok
}

// Lookup returns the category for text: an exact alias first, otherwise the
// first declared category with a matching rule.
func (r *Registry) Lookup(text string) (model.Category, bool) {
	if c, ok := r.Alias(text); ok {
		return c, true
	}
	lower := strings.ToLower(text)
	for _, e := range r.entries {
		for _, cr := range e.rules {
			if cr.matches(lower) {
				return e.category, true
			}
		}
	}
	return "", false
}

// Hit is one category found by Detect.
type Hit struct {
	Category model.Category
	Tokens   []string
	// Rules is the number of rules of the category that matched.
	Rules int
}

// Detection is every category found in a text, in declared order.
type Detection struct {
	Hits []Hit
}

// Categories returns the detected categories without duplicates.
func (d Detection) Categories() []model.Category {
	out := make([]model.Category, 0, len(d.Hits))
	for _, h := range d.Hits {
		out = append(out, h.Category)
	}
	return out
}

// Tokens returns every matched token in detection order.
func (d Detection) Tokens() []string {
	var out []string
	for _, h := range d.Hits {
		out = append(out, h.Tokens...)
	}
	return out
}

// RuleHits returns the number of matching rules across all categories.
func (d Detection) RuleHits() int {
	n := 0
	for _, h := range d.Hits {
		n += h.Rules
	}
	return n
}

// Empty reports whether nothing was detected.
func (d Detection) Empty() bool {
	return len(d.Hits) == 0
}

// Detect scans every rule of every category and reports all hits with the
// tokens that matched.
func (r *Registry) Detect(text string) Detection {
	var d Detection
	if text == "" {
		return d
	}
	lower := strings.ToLower(text)
	for _, e := range r.entries {
		hit := Hit{Category: e.category}
		for _, cr := range e.rules {
			tokens := cr.find(lower)
			if len(tokens) == 0 {
				continue
			}
			hit.Rules++
			hit.Tokens = append(hit.Tokens, tokens...)
		}
		if hit.Rules > 0 {
			d.Hits = append(d.Hits, hit)
		}
	}
	return d
}

// Resolve collapses a detection to one category: the fallback when nothing
// matched, a declared tie-break winner, the single category, or Multi.
func (r *Registry) Resolve(d Detection) model.Category {
	if d.Empty() {
		return r.fallback
	}
	found := make(map[model.Category]bool, len(d.Hits))
	for _, h := range d.Hits {
		found[h.Category] = true
	}
	for _, tb := range r.tieBreaks {
		if containsAll(found, tb.When) {
			return tb.Winner
		}
	}
	if len(found) == 1 {
		return d.Hits[0].Category
	}
	return r.multi
}

// Classify detects and resolves in one step.
func (r *Registry) Classify(text string) model.Category {
	return r.Resolve(r.Detect(text))
}

// Fallback returns the category used when nothing matches.
func (r *Registry) Fallback() model.Category {
	return r.fallback
}

// Entries returns the declared table.
func (r *Registry) Entries() []Entry {
	return r.declared
}

// TieBreaks returns the configured tie-break rules.
func (r *Registry) TieBreaks() []TieBreak {
	return r.tieBreaks
}

// AliasCount returns the number of distinct folded alias keys.
func (r *Registry) AliasCount() int {
	return len(r.aliases)
}

func (cr compiledRule) matches(lower string) bool {
	if cr.re != nil {
		return cr.re.MatchString(lower)
	}
	if cr.term {
		return normalize.ContainsWord(lower, cr.needle)
	}
	return strings.Contains(lower, cr.needle)
}

func (cr compiledRule) find(lower string) []string {
	if cr.re != nil {
		return cr.re.FindAllString(lower, -1)
	}
	if cr.matches(lower) {
		return []string{cr.needle}
	}
	return nil
}

func containsAll(found map[model.Category]bool, want []model.Category) bool {
	for _, c := range want {
		if !found[c] {
			return false
		}
	}
	return true
}
