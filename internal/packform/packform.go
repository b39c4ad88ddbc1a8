// Package packform standardizes the dosage form of supplement listings and
// derives it from the product description when the form column is empty.
package packform

import (
	"math"
	"strings"

	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
	"github.com/Veraticus/kwtag/internal/registry"
)

// Default column names.
const (
	ColumnPackForm = "Pack form"
	ColumnProduct  = "Product"
)

// Flag keys set on every result. They double as output column names.
const (
	FlagPackForm               = "Pack form"
	FlagMatchedPackForm        = "Matched_Pack_Form"
	FlagMatchSource            = "Match_Source"
	FlagOriginallyEmpty        = "Is_Originally_Empty"
	FlagConfidence             = "Confidence_Score"
	FlagStandardizationApplied = "Standardization_Applied"
	FlagOriginalPackForm       = "Original_Pack_Form"
	flagDetected               = "detected"
)

// OutputColumns lists the columns appended to a processed table, in order.
var OutputColumns = []string{
	FlagMatchedPackForm,
	FlagMatchSource,
	FlagOriginallyEmpty,
	FlagConfidence,
	FlagStandardizationApplied,
}

// Labeler fills and standardizes the pack-form column of a row.
type Labeler struct {
	forms          *registry.Registry
	others         *registry.Registry
	packFormColumn string
	productColumn  string
}

// Option customizes a Labeler.
type Option func(*Labeler)

// WithColumns overrides the pack-form and product column names.
func WithColumns(packForm, product string) Option {
	return func(l *Labeler) {
		if packForm != "" {
			l.packFormColumn = packForm
		}
		if product != "" {
			l.productColumn = product
		}
	}
}

// New builds a Labeler over the default rule tables.
func New(opts ...Option) (*Labeler, error) {
	forms, err := registry.New(DefaultEntries(), registry.Options{TieBreaks: DefaultTieBreaks()})
	if err != nil {
		return nil, err
	}
	others, err := registry.New(OthersEntries(), registry.Options{})
	if err != nil {
		return nil, err
	}
	return NewWithRegistries(forms, others, opts...), nil
}

// NewWithRegistries builds a Labeler over caller-supplied tables. others may
// be nil.
func NewWithRegistries(forms, others *registry.Registry, opts ...Option) *Labeler {
	l := &Labeler{
		forms:          forms,
		others:         others,
		packFormColumn: ColumnPackForm,
		productColumn:  ColumnProduct,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Required returns the columns a table must declare.
func (l *Labeler) Required() []string {
	return []string{l.packFormColumn, l.productColumn}
}

// Registry returns the main form table.
func (l *Labeler) Registry() *registry.Registry {
	return l.forms
}

// Standardize maps an explicit pack-form value onto a canonical form. Values
// that match no rule are returned trimmed. changed reports whether the
// returned value differs from the input text.
func (l *Labeler) Standardize(v any) (form string, changed bool) {
	raw := normalize.Text(v)
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	form = trimmed
	if c, ok := l.forms.Lookup(normalize.Collapsed.Normalize(trimmed)); ok {
		form = c.String()
	}
	return form, form != raw
}

// Detect finds every form mentioned in a product description, including the
// Others sub-forms.
func (l *Labeler) Detect(product any) registry.Detection {
	text := normalize.Collapsed.Normalize(product)
	d := l.forms.Detect(text)
	if l.others == nil {
		return d
	}
	if sub := l.others.Detect(text); !sub.Empty() {
		names := make([]string, 0, len(sub.Hits))
		for _, h := range sub.Hits {
			names = append(names, h.Category.String())
		}
		d.Hits = append(d.Hits, registry.Hit{Category: model.CategoryOthers, Tokens: names, Rules: 1})
	}
	return d
}

// Classify labels one row. A present pack form is standardized; an empty one
// is derived from the product description.
func (l *Labeler) Classify(row model.Row) (model.Result, error) {
	original := row.Value(l.packFormColumn)
	res := model.Result{
		Flags: map[string]any{
			FlagOriginalPackForm:       strings.TrimSpace(normalize.Text(original)),
			FlagOriginallyEmpty:        normalize.IsBlank(original),
			FlagStandardizationApplied: false,
			FlagMatchedPackForm:        "",
			FlagMatchSource:            "",
			FlagConfidence:             0.0,
			flagDetected:               false,
		},
	}

	if !normalize.IsBlank(original) {
		form, changed := l.Standardize(original)
		res.Primary = model.Category(form)
		res.Flags[FlagPackForm] = form
		res.Flags[FlagStandardizationApplied] = changed
		return res, nil
	}

	d := l.Detect(row.Value(l.productColumn))
	res.Primary = l.forms.Resolve(d)
	res.Flags[FlagPackForm] = res.Primary.String()
	if d.Empty() {
		return res, nil
	}

	tokens := d.Tokens()
	res.Evidence = tokens
	res.Flags[flagDetected] = true
	res.Flags[FlagMatchedPackForm] = res.Primary.String()
	res.Flags[FlagMatchSource] = strings.Join(tokens, ", ")
	res.Flags[FlagConfidence] = Confidence(d.RuleHits())
	if res.Primary == model.CategoryBundle {
		res.Secondary = d.Categories()
	}
	return res, nil
}

// Confidence scores a detection by the number of rules that matched: one
// rule is 0.5, two or more is 1.
func Confidence(ruleHits int) float64 {
	return math.Min(float64(ruleHits)/2, 1)
}
