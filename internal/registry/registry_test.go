package registry

import (
	"testing"

	"github.com/Veraticus/kwtag/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []Entry {
	return []Entry{
		{Category: model.CategoryTablet, Rules: []model.PatternRule{
			model.Alias("caplet"), model.Word("tablets?"), model.Word("tabs?"),
		}},
		{Category: model.CategoryDrop, Rules: []model.PatternRule{
			model.Word("drops?"), model.Word(`liquid\s*drops?`), model.Contains("滴剂"),
		}},
		{Category: model.CategoryLiquid, Rules: []model.PatternRule{
			model.Word("liquids?"), model.Word("syrups?"),
		}},
		{Category: model.CategoryGummy, Rules: []model.PatternRule{
			model.Word("gumm(?:y|ies)"), model.Contains("软糖"),
		}},
	}
}

func testOptions() Options {
	return Options{TieBreaks: []TieBreak{
		{When: []model.Category{model.CategoryLiquid, model.CategoryDrop}, Winner: model.CategoryDrop},
	}}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		entries []Entry
		opts    Options
	}{
		{
			name:   "empty registry",
			errMsg: "no entries",
		},
		{
			name:    "unparsable regex",
			entries: []Entry{{Category: model.CategoryTablet, Rules: []model.PatternRule{model.Word("[tablet")}}},
			errMsg:  `pattern "[tablet"`,
		},
		{
			name:    "missing category",
			entries: []Entry{{Rules: []model.PatternRule{model.Word("tablet")}}},
			errMsg:  "has no category",
		},
		{
			name:    "no rules",
			entries: []Entry{{Category: model.CategoryTablet}},
			errMsg:  "has no rules",
		},
		{
			name:    "empty pattern",
			entries: []Entry{{Category: model.CategoryTablet, Rules: []model.PatternRule{model.Contains(" ")}}},
			errMsg:  "empty contains rule",
		},
		{
			name: "duplicate category",
			entries: []Entry{
				{Category: model.CategoryTablet, Rules: []model.PatternRule{model.Word("tab")}},
				{Category: model.CategoryTablet, Rules: []model.PatternRule{model.Word("tablet")}},
			},
			errMsg: "declared twice",
		},
		{
			name: "conflicting alias",
			entries: []Entry{
				{Category: model.CategoryTablet, Rules: []model.PatternRule{model.Alias("chew")}},
				{Category: model.CategoryGummy, Rules: []model.PatternRule{model.Alias("CHEW")}},
			},
			errMsg: "maps to both",
		},
		{
			name:    "unknown kind",
			entries: []Entry{{Category: model.CategoryTablet, Rules: []model.PatternRule{{Kind: "glob", Pattern: "tab*"}}}},
			errMsg:  "unknown rule kind",
		},
		{
			name:    "undeclared tie-break",
			entries: testEntries(),
			opts: Options{TieBreaks: []TieBreak{
				{When: []model.Category{model.CategoryOil, model.CategoryDrop}, Winner: model.CategoryDrop},
			}},
			errMsg: `"Oil" is not declared`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.entries, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRegistry)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Nil(t, r)
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := New(testEntries(), testOptions())
	require.NoError(t, err)

	tests := []struct {
		text   string
		want   model.Category
		wantOK bool
	}{
		{text: "caplet", want: model.CategoryTablet, wantOK: true},
		{text: "CAPLET", want: model.CategoryTablet, wantOK: true},
		{text: "chewable tablets", want: model.CategoryTablet, wantOK: true},
		{text: "liquid drops", want: model.CategoryDrop, wantOK: true},
		{text: "维生素软糖", want: model.CategoryGummy, wantOK: true},
		{text: "tabletop", wantOK: false},
		{text: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := r.Lookup(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_DetectAndResolve(t *testing.T) {
	r, err := New(testEntries(), testOptions())
	require.NoError(t, err)

	tests := []struct {
		name       string
		text       string
		want       model.Category
		wantTokens []string
	}{
		{name: "single", text: "vitamin c gummies 60ct", want: model.CategoryGummy, wantTokens: []string{"gummies"}},
		{name: "nothing", text: "vitamin c 60ct", want: model.CategoryOthers},
		{name: "drop beats liquid", text: "liquid drops", want: model.CategoryDrop, wantTokens: []string{"drops", "liquid drops", "liquid"}},
		{name: "bundle", text: "tablets and gummies", want: model.CategoryBundle, wantTokens: []string{"tablets", "gummies"}},
		{name: "tie-break with extra category", text: "syrup drops tablets", want: model.CategoryDrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Detect(tt.text)
			assert.Equal(t, tt.want, r.Resolve(d))
			assert.Equal(t, tt.want, r.Classify(tt.text))
			if tt.wantTokens != nil {
				assert.Equal(t, tt.wantTokens, d.Tokens())
			}
		})
	}
}

func TestRegistry_DetectCountsRules(t *testing.T) {
	r, err := New(testEntries(), testOptions())
	require.NoError(t, err)

	d := r.Detect("liquid drops")
	require.Len(t, d.Hits, 2)
	assert.Equal(t, []model.Category{model.CategoryDrop, model.CategoryLiquid}, d.Categories())
	assert.Equal(t, 2, d.Hits[0].Rules)
	assert.Equal(t, 3, d.RuleHits())
}

func TestRegistry_CustomMultiAndFallback(t *testing.T) {
	r, err := New(testEntries(), Options{Multi: "Mixed", Fallback: "Unknown"})
	require.NoError(t, err)

	assert.Equal(t, model.Category("Unknown"), r.Classify("nothing here"))
	assert.Equal(t, model.Category("Mixed"), r.Classify("liquid drops"))
	assert.Equal(t, model.Category("Unknown"), r.Fallback())
}

func TestRegistry_IsDeterministic(t *testing.T) {
	r, err := New(testEntries(), testOptions())
	require.NoError(t, err)

	first := r.Detect("syrup drops tablets gummies")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, r.Detect("syrup drops tablets gummies"))
	}
	assert.Equal(t, 1, r.AliasCount())
	assert.Len(t, r.Entries(), 4)
}

func TestRegistry_TermRules(t *testing.T) {
	r, err := New([]Entry{
		{Category: model.CategoryCapsule, Rules: []model.PatternRule{model.Term("胶囊")}},
		{Category: model.CategorySoftgel, Rules: []model.PatternRule{model.Contains("软胶囊")}},
	}, Options{})
	require.NoError(t, err)

	tests := []struct {
		text       string
		want       model.Category
		wantTokens []string
	}{
		{text: "维生素b 胶囊 60粒", want: model.CategoryCapsule, wantTokens: []string{"胶囊"}},
		{text: "胶囊", want: model.CategoryCapsule, wantTokens: []string{"胶囊"}},
		{text: "维生素e软胶囊 60粒", want: model.CategorySoftgel, wantTokens: []string{"软胶囊"}},
		{text: "胶囊60粒", want: model.CategoryOthers},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d := r.Detect(tt.text)
			assert.Equal(t, tt.want, r.Resolve(d))
			assert.Equal(t, tt.wantTokens, d.Tokens())
		})
	}
}
