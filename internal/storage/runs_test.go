package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testRun(kind, source string, started time.Time, counts map[model.Category]int) *model.Run {
	total := 0
	for _, n := range counts {
		total += n
	}
	return &model.Run{
		Kind:      kind,
		Profile:   "oneplus",
		Source:    source,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Total:     total,
		Succeeded: total,
		Counts:    counts,
	}
}

func TestSaveRun_GetRun(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	run := testRun(model.RunKindTag, "data.xlsx", baseTime, map[model.Category]int{
		model.CategoryBrandKW:    3,
		model.CategoryNonBrandKW: 5,
	})
	run.Warnings = []string{"reference file unreadable"}
	run.Output = "out/data_tagged.xlsx"

	require.NoError(t, store.SaveRun(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunKindTag, got.Kind)
	assert.Equal(t, "oneplus", got.Profile)
	assert.Equal(t, "data.xlsx", got.Source)
	assert.Equal(t, "out/data_tagged.xlsx", got.Output)
	assert.True(t, baseTime.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, 8, got.Total)
	assert.Equal(t, run.Counts, got.Counts)
	assert.Equal(t, []string{"reference file unreadable"}, got.Warnings)
}

func TestSaveRun_Update(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	run := testRun(model.RunKindPackForm, "forms.xlsx", baseTime, map[model.Category]int{model.CategoryTablet: 2})
	require.NoError(t, store.SaveRun(ctx, run))

	run.Counts = map[model.Category]int{model.CategoryGummy: 1}
	run.Error = "write failed"
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]int{model.CategoryGummy: 1}, got.Counts)
	assert.Equal(t, "write failed", got.Error)
	assert.Empty(t, got.Warnings)
}

func TestSaveRun_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name string
		run  *model.Run
		want error
	}{
		{name: "nil", run: nil, want: ErrNilParameter},
		{name: "no kind", run: &model.Run{Source: "a", StartedAt: baseTime}, want: ErrInvalidRun},
		{name: "no source", run: &model.Run{Kind: "tag", StartedAt: baseTime}, want: ErrInvalidRun},
		{name: "no start", run: &model.Run{Kind: "tag", Source: "a"}, want: ErrInvalidRun},
		{name: "negative", run: &model.Run{Kind: "tag", Source: "a", StartedAt: baseTime, Failed: -1}, want: ErrInvalidRun},
		{name: "empty category", run: &model.Run{Kind: "tag", Source: "a", StartedAt: baseTime, Counts: map[model.Category]int{"": 1}}, want: ErrInvalidRun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, store.SaveRun(ctx, tt.run), tt.want)
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetRun(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRuns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for i, kind := range []string{model.RunKindTag, model.RunKindPackForm, model.RunKindTag, model.RunKindInsight} {
		run := testRun(kind, "file.xlsx", baseTime.Add(time.Duration(i)*time.Hour), map[model.Category]int{"x": i + 1})
		require.NoError(t, store.SaveRun(ctx, run))
	}

	all, err := store.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, model.RunKindInsight, all[0].Kind)
	assert.Equal(t, 4, all[0].Counts["x"])
	assert.Equal(t, 1, all[3].Counts["x"])

	tags, err := store.ListRuns(ctx, RunFilter{Kind: model.RunKindTag})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, 3, tags[0].Counts["x"])

	limited, err := store.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	recent, err := store.ListRuns(ctx, RunFilter{Since: baseTime.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestDeleteRunsBefore(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	old := testRun(model.RunKindTag, "old.xlsx", baseTime.Add(-48*time.Hour), map[model.Category]int{"x": 1})
	recent := testRun(model.RunKindTag, "new.xlsx", baseTime, map[model.Category]int{"x": 2})
	require.NoError(t, store.SaveRun(ctx, old))
	require.NoError(t, store.SaveRun(ctx, recent))

	deleted, err := store.DeleteRunsBefore(ctx, baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.GetRun(ctx, old.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	totals, err := store.CategoryTotals(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]int{"x": 2}, totals)
}

func TestCategoryTotals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, testRun(model.RunKindTag, "a.xlsx", baseTime,
		map[model.Category]int{model.CategoryBrandKW: 2, model.CategoryCompPAT: 1})))
	require.NoError(t, store.SaveRun(ctx, testRun(model.RunKindTag, "b.xlsx", baseTime.Add(time.Hour),
		map[model.Category]int{model.CategoryBrandKW: 3})))
	require.NoError(t, store.SaveRun(ctx, testRun(model.RunKindPackForm, "c.xlsx", baseTime,
		map[model.Category]int{model.CategoryTablet: 4})))

	tags, err := store.CategoryTotals(ctx, model.RunKindTag)
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]int{model.CategoryBrandKW: 5, model.CategoryCompPAT: 1}, tags)

	all, err := store.CategoryTotals(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNewRun(t *testing.T) {
	s := model.NewSummary(3)
	s.Succeeded = 2
	s.Counts[model.CategoryBrandKW] = 2
	s.Failures = []model.Failure{{Index: 1, Reason: "bad"}}
	s.Warnings = []string{"w"}

	run := model.NewRun(model.RunKindTag, "oneplus", "a.xlsx", baseTime, s)
	assert.Equal(t, 3, run.Total)
	assert.Equal(t, 2, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, []string{"w"}, run.Warnings)
	assert.Equal(t, map[model.Category]int{model.CategoryBrandKW: 2}, run.Counts)
}
