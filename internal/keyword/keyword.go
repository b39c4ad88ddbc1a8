// Package keyword tags advertising query rows as brand, competitor or
// category keywords, or as brand, competitor or auto-campaign ASIN targets.
package keyword

import (
	"regexp"
	"strings"

	"github.com/Veraticus/kwtag/internal/classifier"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
	"github.com/Veraticus/kwtag/internal/refset"
)

// Flag keys set on every result.
const (
	FlagNormalized = "Normalized"
	FlagCampaign   = "Campaign"
	FlagIsASIN     = "Is_ASIN"
)

var asinShape = regexp.MustCompile(`^b0[0-9a-z]{8}$`)

// IsASIN reports whether v, lower-cased with spaces removed, has the shape
// of an ASIN: "b0" followed by eight ASCII alphanumerics. Tabs, newlines and
// full-width characters disqualify the value.
func IsASIN(v any) bool {
	return asinShape.MatchString(strings.ReplaceAll(strings.ToLower(normalize.Text(v)), " ", ""))
}

// Classifier is the per-row decision tree for keyword/ASIN tagging.
type Classifier struct {
	keyword     *classifier.Field
	asin        *classifier.Field
	competitors *refset.Set
	tokens      []string
	profile     Profile
}

// New builds a classifier for a profile. brandASINs and competitors may be
// nil or empty; every membership test then reports "not found".
func New(p Profile, brandASINs, competitors *refset.Set) (*Classifier, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if brandASINs == nil {
		brandASINs = refset.Empty(normalize.Compacted)
	}
	if competitors == nil || !p.Competitors {
		competitors = refset.Empty(normalize.Compacted)
	}

	tokens := make([]string, 0, len(p.BrandTokens))
	for _, t := range p.BrandTokens {
		if t = normalize.Compacted.Normalize(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	kw, err := classifier.NewField(normalize.Compacted, p.Fallback,
		classifier.Tokens(model.CategoryBrandKW, tokens...),
		classifier.Substring(competitors, model.CategoryCompKW),
	)
	if err != nil {
		return nil, err
	}
	asin, err := classifier.NewField(normalize.Compacted, model.CategoryCompPAT,
		classifier.Member(brandASINs, model.CategoryBrandPAT),
	)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		tokens:      tokens,
		profile:     p,
		keyword:     kw,
		asin:        asin,
		competitors: competitors,
	}, nil
}

// Required returns the columns a table must declare.
func (c *Classifier) Required() []string {
	cols := []string{c.profile.QueryColumn}
	if c.profile.CampaignColumn != "" {
		cols = append(cols, c.profile.CampaignColumn)
	}
	return cols
}

// Profile returns the profile the classifier was built with.
func (c *Classifier) Profile() Profile {
	return c.profile
}

// Classify labels one row. Blank or garbage values fall through to the
// profile's fallback; the error is always nil.
func (c *Classifier) Classify(row model.Row) (model.Result, error) {
	query := row.Value(c.profile.QueryColumn)
	normalized := normalize.Compacted.Normalize(query)
	campaign := ""
	if c.profile.CampaignColumn != "" {
		campaign = normalize.Trimmed.Normalize(row.Value(c.profile.CampaignColumn))
	}

	res := model.Result{
		Flags: map[string]any{
			FlagNormalized: normalized,
			FlagCampaign:   campaign,
			FlagIsASIN:     false,
		},
	}

	if !IsASIN(query) {
		res.Primary = c.keyword.Classify(normalized)
		switch res.Primary {
		case model.CategoryBrandKW:
			res.Evidence = c.brandTokensIn(normalized)
		case model.CategoryCompKW:
			res.Evidence = c.competitors.FindIn(normalized)
		}
		return res, nil
	}

	res.Flags[FlagIsASIN] = true
	base := c.asin.Classify(normalized)
	res.Primary = base
	res.Evidence = []string{normalized}
	if c.profile.AutoOverride() {
		if remapped := AutoRemap(base, campaign); remapped != base {
			res.Primary = remapped
			res.Secondary = []model.Category{base}
		}
	}
	return res, nil
}

// AutoRemap applies the auto-campaign override to an identifier category:
// Brand PAT becomes Auto KW and CMP PAT becomes Auto PAT when the campaign
// type contains "auto". Any other input is returned unchanged.
func AutoRemap(base model.Category, campaign string) model.Category {
	if !strings.Contains(strings.ToLower(campaign), "auto") {
		return base
	}
	switch base {
	case model.CategoryBrandPAT:
		return model.CategoryAutoKW
	case model.CategoryCompPAT:
		return model.CategoryAutoPAT
	default:
		return base
	}
}

func (c *Classifier) brandTokensIn(normalized string) []string {
	var out []string
	for _, t := range c.tokens {
		if strings.Contains(normalized, t) {
			out = append(out, t)
		}
	}
	return out
}
