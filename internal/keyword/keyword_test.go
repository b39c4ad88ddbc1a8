package keyword

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
	"github.com/Veraticus/kwtag/internal/refset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onePlusRow(query, campaign any) model.Row {
	return model.Row{Fields: map[string]any{"Query": query, "Campaign Type": campaign}}
}

func TestClassifier_OnePlusScenarios(t *testing.T) {
	brandASINs := refset.New([]string{"b09xyz1234"}, normalize.Compacted)

	tests := []struct {
		name          string
		asins         *refset.Set
		query         any
		campaign      any
		want          model.Category
		wantSecondary []model.Category
	}{
		{
			name:     "brand keyword",
			asins:    refset.Empty(normalize.Compacted),
			query:    "oneplus 12",
			campaign: "Manual",
			want:     model.CategoryBrandKW,
		},
		{
			name:     "auto does not touch keywords",
			query:    "wireless earbuds",
			campaign: "Auto",
			want:     model.CategoryNonBrandKW,
		},
		{
			name:     "brand asin",
			asins:    brandASINs,
			query:    "B09XYZ1234",
			campaign: "Manual",
			want:     model.CategoryBrandPAT,
		},
		{
			name:          "competitor asin in auto campaign",
			asins:         refset.Empty(normalize.Compacted),
			query:         "B09AAA1111",
			campaign:      "Sponsored Auto Campaign",
			want:          model.CategoryAutoPAT,
			wantSecondary: []model.Category{model.CategoryCompPAT},
		},
		{
			name:          "brand asin in auto campaign",
			asins:         brandASINs,
			query:         "b09xyz1234",
			campaign:      "AUTO",
			want:          model.CategoryAutoKW,
			wantSecondary: []model.Category{model.CategoryBrandPAT},
		},
		{
			name:     "spaced brand token",
			query:    "One Plus Nord case",
			campaign: nil,
			want:     model.CategoryBrandKW,
		},
		{
			name:     "null query",
			query:    nil,
			campaign: "Auto",
			want:     model.CategoryNonBrandKW,
		},
		{
			name:     "nan query",
			query:    math.NaN(),
			campaign: math.NaN(),
			want:     model.CategoryNonBrandKW,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(OnePlus(), tt.asins, nil)
			require.NoError(t, err)

			res, err := c.Classify(onePlusRow(tt.query, tt.campaign))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Primary)
			assert.Equal(t, tt.wantSecondary, res.Secondary)
		})
	}
}

func TestClassifier_Blueland(t *testing.T) {
	asins := refset.New([]string{"B0BLUE0001"}, normalize.Compacted)
	competitors := refset.New([]string{"Seventh Generation", "method"}, normalize.Compacted)
	c, err := New(Blueland(), asins, competitors)
	require.NoError(t, err)
	assert.Equal(t, []string{"Targeting"}, c.Required())

	tests := []struct {
		query        string
		want         model.Category
		wantEvidence []string
	}{
		{query: "blueland refill tablets", want: model.CategoryBrandKW, wantEvidence: []string{"blueland"}},
		{query: "seventh generation dish soap", want: model.CategoryCompKW, wantEvidence: []string{"seventhgeneration"}},
		{query: "dish soap tablets", want: model.CategoryCateKW},
		{query: "B0BLUE0001", want: model.CategoryBrandPAT, wantEvidence: []string{"b0blue0001"}},
		{query: "B0OTHER001", want: model.CategoryCompPAT, wantEvidence: []string{"b0other001"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := c.Classify(model.Row{Fields: map[string]any{"Targeting": tt.query}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Primary)
			assert.Equal(t, tt.wantEvidence, res.Evidence)
		})
	}
}

func TestClassifier_BluelandIgnoresAutoWithoutCampaignColumn(t *testing.T) {
	c, err := New(Blueland(), nil, nil)
	require.NoError(t, err)

	res, err := c.Classify(model.Row{Fields: map[string]any{"Targeting": "B09AAA1111", "Campaign Type": "auto"}})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCompPAT, res.Primary)
}

func TestClassifier_CompetitorsDisabled(t *testing.T) {
	competitors := refset.New([]string{"method"}, normalize.Compacted)
	c, err := New(OnePlus(), nil, competitors)
	require.NoError(t, err)

	res, err := c.Classify(onePlusRow("method soap", "Manual"))
	require.NoError(t, err)
	assert.Equal(t, model.CategoryNonBrandKW, res.Primary)
}

func TestNew_InvalidProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
	}{
		{name: "no query column", profile: Profile{Name: "x", Fallback: model.CategoryCateKW, BrandTokens: []string{"x"}}},
		{name: "no fallback", profile: Profile{Name: "x", QueryColumn: "Query", BrandTokens: []string{"x"}}},
		{name: "no tokens", profile: Profile{Name: "x", QueryColumn: "Query", Fallback: model.CategoryCateKW, BrandTokens: []string{" "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.profile, nil, nil)
			require.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Nil(t, c)
		})
	}
}

func TestIsASIN(t *testing.T) {
	reference := regexp.MustCompile(`^b0[0-9a-zA-Z]{8}$`)
	ascii := []string{
		"B09XYZ1234", " b0 9xyz1234 ", "B09XYZ123", "B09XYZ12345", "A09XYZ1234",
		"b0-xyz1234", "", "   ", "B0\t9XYZ\n1234", strings.Repeat("b0", 1000),
	}
	for _, in := range ascii {
		want := reference.MatchString(strings.ReplaceAll(strings.ToLower(in), " ", ""))
		assert.Equal(t, want, IsASIN(in), "input %q", in)
	}

	garbage := []any{nil, math.NaN(), 1234567890, "b0日本語テキスト１", "\x00\xff\xfe", []byte{0xb0}}
	for _, in := range garbage {
		assert.NotPanics(t, func() { IsASIN(in) })
		assert.False(t, IsASIN(in), "input %v", in)
	}

	assert.False(t, IsASIN("ｂ０９ｘｙｚ１２３４"))
	assert.False(t, IsASIN("b09xyz\t1234"))
	assert.True(t, IsASIN("b09 xyz 1234"))
}

func TestAutoRemap(t *testing.T) {
	assert.Equal(t, model.CategoryAutoKW, AutoRemap(model.CategoryBrandPAT, "auto"))
	assert.Equal(t, model.CategoryAutoPAT, AutoRemap(model.CategoryCompPAT, "Sponsored AUTO"))
	assert.Equal(t, model.CategoryBrandPAT, AutoRemap(model.CategoryBrandPAT, "manual"))
	assert.Equal(t, model.CategoryCompPAT, AutoRemap(model.CategoryCompPAT, ""))
	assert.Equal(t, model.CategoryBrandKW, AutoRemap(model.CategoryBrandKW, "auto"))
}

func TestProfile_Bind(t *testing.T) {
	table := model.NewTable("data", []string{"客户搜索词", "b", "c", "d", "广告类型"}, [][]any{
		{"B09AAA1111", "", "", "", "Auto"},
	})
	OnePlus().Bind(table)
	assert.Equal(t, "Query", table.Columns[0])
	assert.Equal(t, "Campaign Type", table.Columns[4])

	c, err := New(OnePlus(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, table.MissingColumns(c.Required()...))

	res, err := c.Classify(table.Rows[0])
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAutoPAT, res.Primary)
}

func TestProfile_BindShortTable(t *testing.T) {
	table := model.NewTable("data", []string{"Targeting"}, [][]any{{"x"}})
	OnePlus().Bind(table)
	assert.Equal(t, []string{"Query"}, table.Columns)
	assert.Equal(t, []string{"Campaign Type"}, table.MissingColumns(OnePlus().QueryColumn, OnePlus().CampaignColumn))
}

func TestProfile_BindUsesPositionOverMatchingHeader(t *testing.T) {
	table := model.NewTable("data", []string{"客户搜索词", "b", "Campaign Type", "d", "广告类型"}, [][]any{
		{"B09AAA1111", "", "Manual", "", "SP Auto"},
	})
	OnePlus().Bind(table)

	c, err := New(OnePlus(), nil, nil)
	require.NoError(t, err)
	res, err := c.Classify(table.Rows[0])
	require.NoError(t, err)
	assert.Equal(t, "sp auto", res.Flags[FlagCampaign])
	assert.Equal(t, model.CategoryAutoPAT, res.Primary)
	assert.Equal(t, "Manual", table.Rows[0].Value("Campaign Type (3)"))
}
