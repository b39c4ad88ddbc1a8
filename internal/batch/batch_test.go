package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/kwtag/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textTable(values ...any) *model.Table {
	records := make([][]any, len(values))
	for i, v := range values {
		records[i] = []any{v}
	}
	return model.NewTable("test", []string{"Text"}, records)
}

// echo labels a row with its text and fails on "bad" or panics on "boom".
var echo = RowClassifierFunc(func(row model.Row) (model.Result, error) {
	s, _ := row.Value("Text").(string)
	switch s {
	case "bad":
		return model.Result{}, errors.New("bad row")
	case "boom":
		panic("boom")
	}
	return model.Result{Primary: model.Category(s)}, nil
})

func TestRun_PreservesOrder(t *testing.T) {
	out, err := Run(context.Background(), textTable("c", "a", "b", "a"), echo, Options{})
	require.NoError(t, err)

	require.Len(t, out.Rows, 4)
	for i, want := range []model.Category{"c", "a", "b", "a"} {
		assert.Equal(t, want, out.Rows[i].Result.Primary)
		assert.Equal(t, i, out.Rows[i].Row.Index)
	}
	assert.Equal(t, map[model.Category]int{"a": 2, "b": 1, "c": 1}, out.Summary.Counts)
	assert.Equal(t, 4, out.Summary.Total)
	assert.Equal(t, 4, out.Summary.Succeeded)
}

func TestRun_IsolatesFailures(t *testing.T) {
	out, err := Run(context.Background(), textTable("a", "bad", "boom", "", "b"), echo, Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, out.Summary.Total)
	assert.Equal(t, 2, out.Summary.Succeeded)
	require.Len(t, out.Summary.Failures, 3)
	assert.Equal(t, 1, out.Summary.Failures[0].Index)
	assert.Equal(t, "bad row", out.Summary.Failures[0].Reason)
	assert.Equal(t, 2, out.Summary.Failures[1].Index)
	assert.Contains(t, out.Summary.Failures[1].Reason, "panic")
	assert.Equal(t, 3, out.Summary.Failures[2].Index)

	require.Len(t, out.Rows, 2)
	assert.Equal(t, 0, out.Rows[0].Row.Index)
	assert.Equal(t, 4, out.Rows[1].Row.Index)
}

func TestRun_MissingColumn(t *testing.T) {
	called := false
	rc := RowClassifierFunc(func(model.Row) (model.Result, error) {
		called = true
		return model.Result{Primary: "x"}, nil
	})

	out, err := Run(context.Background(), textTable("a"), rc, Options{Required: []string{"Text", "Campaign Type"}})
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Campaign Type")
	assert.Nil(t, out)
	assert.False(t, called)
}

func TestRun_Progress(t *testing.T) {
	tests := []struct {
		name  string
		every int
		rows  int
		want  []int
	}{
		{name: "every row", every: 0, rows: 3, want: []int{1, 2, 3}},
		{name: "interval", every: 2, rows: 5, want: []int{2, 4, 5}},
		{name: "interval larger than table", every: 10, rows: 3, want: []int{3}},
		{name: "empty table", every: 2, rows: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]any, tt.rows)
			for i := range values {
				values[i] = "x"
			}
			var got []int
			_, err := Run(context.Background(), textTable(values...), echo, Options{
				Every: tt.every,
				Progress: func(done, total int) {
					assert.Equal(t, tt.rows, total)
					got = append(got, done)
				},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc := RowClassifierFunc(func(row model.Row) (model.Result, error) {
		if row.Index == 1 {
			cancel()
		}
		return model.Result{Primary: "x"}, nil
	})

	out, err := Run(ctx, textTable("a", "b", "c", "d"), rc, Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, out)
	assert.Len(t, out.Rows, 2)
}

func TestRun_CopiesWarnings(t *testing.T) {
	out, err := Run(context.Background(), textTable("a"), echo, Options{Warnings: []string{"reference table unreadable"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"reference table unreadable"}, out.Summary.Warnings)
}
