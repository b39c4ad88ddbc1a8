// Package insight splits search-term reports into branded and non-branded
// keywords and extracts the product parameters each term mentions.
package insight

import (
	"fmt"
	"strings"
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
)

// Output column names.
const (
	FlagBrands      = "品牌"
	FlagParams      = "特性参数"
	FlagKeywordType = "词性"
)

// shortBrand is the longest brand name, in runes, that must match as a
// whole word.
const shortBrand = 5

// Columns names the input columns.
type Columns struct {
	Term   string `mapstructure:"term"`
	Volume string `mapstructure:"volume"`
	Brand  string `mapstructure:"brand"`
}

// DefaultColumns returns the column names of the search-insight export.
func DefaultColumns() Columns {
	return Columns{Term: "搜索词", Volume: "搜索量", Brand: "品牌名称"}
}

// Classifier tags search terms against a brand list.
type Classifier struct {
	long    *ahocorasick.Matcher
	cols    Columns
	brands  []string
	short   []string
	variant []int
	params  []ParamGroup
}

// BrandsFromTable returns the distinct non-blank values of column, lower-cased,
// in first-appearance order.
func BrandsFromTable(t *model.Table, column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		b := normalize.Trimmed.Normalize(r.Value(column))
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// New builds a classifier. Brands of up to five runes match whole words only;
// longer names also match with punctuation or spaces removed.
func New(brands []string, params []ParamGroup, cols Columns) (*Classifier, error) {
	if cols.Term == "" {
		return nil, fmt.Errorf("%w: search term column is not set", common.ErrInvalidConfig)
	}
	for _, p := range params {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: parameter group without a name", common.ErrInvalidConfig)
		}
	}

	c := &Classifier{cols: cols, params: params}
	var dict []string
	seen := make(map[string]bool)
	for _, raw := range brands {
		b := normalize.Trimmed.Normalize(raw)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		c.brands = append(c.brands, b)
		if utf8.RuneCountInString(b) <= shortBrand {
			c.short = append(c.short, b)
			continue
		}
		idx := len(c.brands) - 1
		for _, v := range variants(b) {
			dict = append(dict, v)
			c.variant = append(c.variant, idx)
		}
	}
	if len(dict) > 0 {
		c.long = ahocorasick.NewStringMatcher(dict)
	}
	return c, nil
}

// Required returns the columns a table must declare.
func (c *Classifier) Required() []string {
	cols := []string{c.cols.Term}
	if c.cols.Volume != "" {
		cols = append(cols, c.cols.Volume)
	}
	return cols
}

// Brands returns the brand list in match order.
func (c *Classifier) Brands() []string {
	return c.brands
}

// Classify labels one row as Branded KWs or Non-Branded KWs. Matched brands
// become secondary labels; parameter matches are reported per group.
func (c *Classifier) Classify(row model.Row) (model.Result, error) {
	term := normalize.Trimmed.Normalize(row.Value(c.cols.Term))
	brands := c.MatchBrands(term)

	res := model.Result{
		Primary: model.CategoryNonBranded,
		Flags: map[string]any{
			FlagBrands: strings.Join(brands, ","),
		},
	}
	if len(brands) > 0 {
		res.Primary = model.CategoryBranded
		res.Secondary = make([]model.Category, len(brands))
		for i, b := range brands {
			res.Secondary[i] = model.Category(b)
		}
	}

	var all []string
	for _, p := range c.params {
		vals := matchValues(term, p.Values)
		res.Flags[p.Name] = strings.Join(vals, ",")
		all = appendUnique(all, vals...)
	}
	res.Flags[FlagParams] = strings.Join(all, ",")
	res.Flags[FlagKeywordType] = res.Primary.String()
	res.Evidence = append(append([]string(nil), brands...), all...)
	return res, nil
}

// MatchBrands returns the brands mentioned in an already lower-cased term, in
// brand-list order.
func (c *Classifier) MatchBrands(term string) []string {
	if term == "" {
		return nil
	}
	hit := make(map[string]bool)
	for _, b := range c.short {
		if normalize.ContainsWord(term, b) {
			hit[b] = true
		}
	}
	if c.long != nil {
		for _, i := range c.long.MatchThreadSafe([]byte(term)) {
			hit[c.brands[c.variant[i]]] = true
		}
	}
	if len(hit) == 0 {
		return nil
	}
	out := make([]string, 0, len(hit))
	for _, b := range c.brands {
		if hit[b] {
			out = append(out, b)
		}
	}
	return out
}

// variants returns the distinct non-empty spellings a long brand name is
// matched under.
func variants(b string) []string {
	stripped := normalize.StripPunct(b)
	candidates := []string{
		b,
		stripped,
		strings.ReplaceAll(b, " ", ""),
		strings.ReplaceAll(stripped, " ", ""),
	}
	var out []string
	for _, v := range candidates {
		if v != "" {
			out = appendUnique(out, v)
		}
	}
	return out
}

func matchValues(term string, values []string) []string {
	var out []string
	for _, v := range values {
		v = normalize.Trimmed.Normalize(v)
		if v != "" && strings.Contains(term, v) {
			out = appendUnique(out, v)
		}
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
