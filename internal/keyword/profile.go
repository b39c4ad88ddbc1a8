package keyword

import (
	"fmt"
	"strings"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
)

// Profile configures one deployment of the keyword tagger.
type Profile struct {
	Name string `mapstructure:"name" yaml:"name,omitempty"`
	// QueryColumn holds the keyword or ASIN text.
	QueryColumn string `mapstructure:"query_column" yaml:"query_column,omitempty"`
	// CampaignColumn holds the campaign type. Empty disables the auto
	// campaign override.
	CampaignColumn string `mapstructure:"campaign_column" yaml:"campaign_column,omitempty"`
	// Fallback is the category for keywords that match neither a brand
	// token nor a competitor.
	Fallback    model.Category `mapstructure:"fallback" yaml:"fallback,omitempty"`
	BrandTokens []string       `mapstructure:"brand_tokens" yaml:"brand_tokens,omitempty"`
	// QueryPosition and CampaignPosition are 1-based column positions.
	// When set, the header at that position is renamed to the configured
	// column name before tagging, so exports with localized headers work.
	QueryPosition    int `mapstructure:"query_position" yaml:"query_position,omitempty"`
	CampaignPosition int `mapstructure:"campaign_position" yaml:"campaign_position,omitempty"`
	// Competitors enables the CMP KW bucket, fed by the second column of
	// the reference table.
	Competitors bool `mapstructure:"competitors" yaml:"competitors,omitempty"`
}

// Bind renames positional columns of t to the profile's column names.
func (p Profile) Bind(t *model.Table) {
	if p.QueryPosition > 0 {
		t.RenameColumn(p.QueryPosition, p.QueryColumn)
	}
	if p.CampaignPosition > 0 && p.CampaignColumn != "" {
		t.RenameColumn(p.CampaignPosition, p.CampaignColumn)
	}
}

// AutoOverride reports whether identifier rows are remapped for auto
// campaigns.
func (p Profile) AutoOverride() bool {
	return p.CampaignColumn != ""
}

// Validate checks that the profile can be used to build a classifier.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.QueryColumn) == "" {
		return fmt.Errorf("%w: profile %q has no query column", common.ErrInvalidConfig, p.Name)
	}
	if p.Fallback == "" {
		return fmt.Errorf("%w: profile %q has no fallback category", common.ErrInvalidConfig, p.Name)
	}
	for _, t := range p.BrandTokens {
		if strings.TrimSpace(t) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: profile %q has no brand tokens", common.ErrInvalidConfig, p.Name)
}

// OnePlus is the phone-accessory deployment: keywords fall back to
// Non-brand KW and auto campaigns remap identifier rows.
func OnePlus() Profile {
	return Profile{
		Name:             "oneplus",
		QueryColumn:      "Query",
		CampaignColumn:   "Campaign Type",
		QueryPosition:    1,
		CampaignPosition: 5,
		Fallback:         model.CategoryNonBrandKW,
		BrandTokens:      []string{"oneplus"},
	}
}

// Blueland is the household-cleaning deployment: keywords are split into
// competitor and category buckets using the competitor brand list.
func Blueland() Profile {
	return Profile{
		Name:          "blueland",
		QueryColumn:   "Targeting",
		QueryPosition: 1,
		Fallback:      model.CategoryCateKW,
		BrandTokens:   []string{"blueland"},
		Competitors:   true,
	}
}

// Builtin returns the built-in profiles keyed by name.
func Builtin() map[string]Profile {
	return map[string]Profile{
		"oneplus":  OnePlus(),
		"blueland": Blueland(),
	}
}
