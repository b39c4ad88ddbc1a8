package packform

import (
	"strings"
	"testing"

	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLabeler(t *testing.T) *Labeler {
	t.Helper()
	l, err := New()
	require.NoError(t, err)
	return l
}

func row(idx int, packForm, product any) model.Row {
	return model.Row{Index: idx, Fields: map[string]any{"Pack form": packForm, "Product": product}}
}

func TestLabeler_DerivesFromProduct(t *testing.T) {
	l := newLabeler(t)

	res, err := l.Classify(row(0, nil, "Vitamin C Gummies 60ct"))
	require.NoError(t, err)

	assert.Equal(t, model.CategoryGummy, res.Primary)
	assert.Equal(t, false, res.Flags[FlagStandardizationApplied])
	assert.Equal(t, true, res.Flags[FlagOriginallyEmpty])
	assert.Equal(t, "Gummy", res.Flags[FlagMatchedPackForm])
	assert.Equal(t, "gummies", res.Flags[FlagMatchSource])
	assert.InDelta(t, 0.5, res.Flags[FlagConfidence], 1e-9)
}

func TestLabeler_StandardizesPresentValue(t *testing.T) {
	l := newLabeler(t)

	tests := []struct {
		packForm    any
		want        model.Category
		wantChanged bool
	}{
		{packForm: "caplet", want: model.CategoryTablet, wantChanged: true},
		{packForm: "Tablet", want: model.CategoryTablet, wantChanged: false},
		{packForm: " Tablet ", want: model.CategoryTablet, wantChanged: true},
		{packForm: "SOFTGELS", want: model.CategorySoftgel, wantChanged: true},
		{packForm: "Vegetarian Capsules", want: model.CategoryCapsule, wantChanged: true},
		{packForm: "软胶囊", want: model.CategorySoftgel, wantChanged: true},
		{packForm: "tea bags", want: model.CategoryOthers, wantChanged: true},
		{packForm: "Mystery Form", want: "Mystery Form", wantChanged: false},
		{packForm: "  Mystery Form", want: "Mystery Form", wantChanged: true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.packForm.(string)), func(t *testing.T) {
			res, err := l.Classify(row(0, tt.packForm, "Fish Oil Softgels"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Primary)
			assert.Equal(t, tt.wantChanged, res.Flags[FlagStandardizationApplied])
			assert.Equal(t, false, res.Flags[FlagOriginallyEmpty])
			assert.Equal(t, "", res.Flags[FlagMatchSource])
		})
	}
}

func TestLabeler_Resolution(t *testing.T) {
	l := newLabeler(t)

	tests := []struct {
		name          string
		product       any
		want          model.Category
		wantSecondary []model.Category
	}{
		{name: "liquid drops tie-break", product: "Vitamin D3 Liquid Drops 1 fl oz", want: model.CategoryDrop},
		{name: "tincture with syrup", product: "Elderberry syrup tincture", want: model.CategoryDrop},
		{name: "bundle", product: "Capsules and Powder Combo", want: model.CategoryBundle,
			wantSecondary: []model.Category{model.CategoryCapsule, model.CategoryPowder}},
		{name: "others sub-form", product: "Nasal rinse kit", want: model.CategoryOthers},
		{name: "others with main form", product: "Green tea teabags with capsules", want: model.CategoryBundle,
			wantSecondary: []model.Category{model.CategoryCapsule, model.CategoryOthers}},
		{name: "cjk tablet term", product: "维生素C 片剂", want: model.CategoryTablet},
		{name: "cjk capsule term", product: "维生素B 胶囊 60粒", want: model.CategoryCapsule},
		{name: "softgel is not a capsule", product: "维生素E软胶囊 60粒", want: model.CategorySoftgel},
		{name: "embedded chewable tablet", product: "钙咀嚼片 60片", want: model.CategoryGummy},
		{name: "count suffix is not a tablet", product: "钙片60片", want: model.CategoryOthers},
		{name: "nothing", product: "Mystery wellness item", want: model.CategoryOthers},
		{name: "blank product", product: nil, want: model.CategoryOthers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := l.Classify(row(0, "", tt.product))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Primary)
			assert.Equal(t, tt.wantSecondary, res.Secondary)
			assert.Equal(t, true, res.Flags[FlagOriginallyEmpty])
		})
	}
}

func TestLabeler_NoMatchLeavesEvidenceEmpty(t *testing.T) {
	l := newLabeler(t)

	res, err := l.Classify(row(0, nil, "Mystery wellness item"))
	require.NoError(t, err)
	assert.Empty(t, res.Evidence)
	assert.Equal(t, "", res.Flags[FlagMatchedPackForm])
	assert.InDelta(t, 0.0, res.Flags[FlagConfidence], 1e-9)
}

func TestLabeler_OthersEvidenceNamesSubForm(t *testing.T) {
	l := newLabeler(t)

	res, err := l.Classify(row(0, nil, "Nasal rinse kit"))
	require.NoError(t, err)
	assert.Equal(t, "Nasal", res.Flags[FlagMatchSource])
}

func TestLabeler_CustomColumns(t *testing.T) {
	l, err := New(WithColumns("Form", "Title"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Form", "Title"}, l.Required())

	res, err := l.Classify(model.Row{Fields: map[string]any{"Form": nil, "Title": "Magnesium Powder"}})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryPowder, res.Primary)
}

func TestDefaultTablesCompile(t *testing.T) {
	_, err := registry.New(DefaultEntries(), registry.Options{TieBreaks: DefaultTieBreaks()})
	require.NoError(t, err)
	_, err = registry.New(OthersEntries(), registry.Options{})
	require.NoError(t, err)
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 0.0, Confidence(0), 1e-9)
	assert.InDelta(t, 0.5, Confidence(1), 1e-9)
	assert.InDelta(t, 1.0, Confidence(2), 1e-9)
	assert.InDelta(t, 1.0, Confidence(7), 1e-9)
}

func TestBuildReport(t *testing.T) {
	l := newLabeler(t)
	long := strings.Repeat("x", 100) + " capsules"

	rows := []model.Row{
		row(0, "caplet", long),
		row(1, "Tablet", "Zinc tablets"),
		row(2, nil, "Vitamin C Gummies 60ct"),
		row(3, "", "Mystery wellness item"),
		row(4, "gels", "Fish oil"),
	}
	labeled := make([]model.LabeledRow, 0, len(rows))
	for _, r := range rows {
		res, err := l.Classify(r)
		require.NoError(t, err)
		labeled = append(labeled, model.LabeledRow{Row: r, Result: res})
	}

	report := l.BuildReport(labeled)
	assert.Equal(t, 5, report.TotalRows)
	assert.Equal(t, 2, report.StandardizationApplied)
	assert.Equal(t, 2, report.OriginallyEmpty)
	assert.Equal(t, 1, report.SuccessfullyFilled)
	assert.Equal(t, 1, report.Unmatched)
	assert.InDelta(t, 0.5, report.FillRate(), 1e-9)
	assert.Equal(t, map[model.Category]int{
		model.CategoryTablet:  2,
		model.CategoryGummy:   1,
		model.CategoryOthers:  1,
		model.CategorySoftgel: 1,
	}, report.Distribution)

	require.Len(t, report.Examples, 2)
	assert.Equal(t, 1, report.Examples[0].Row)
	assert.Equal(t, "caplet", report.Examples[0].Original)
	assert.Equal(t, model.CategoryTablet, report.Examples[0].PackForm)
	assert.Equal(t, strings.Repeat("x", 80)+"...", report.Examples[0].Product)
	assert.Equal(t, model.CategorySoftgel, report.Examples[1].PackForm)
}
