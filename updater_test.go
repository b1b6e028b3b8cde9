package calc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdaterRowMajor(t *testing.T) {
	base := MustNewRange([][]Scalar{{1, 2}, {3, 4}})
	u := base.StartIncrementalUpdates(context.Background(), UpdaterOptions{})
	assert.NotEmpty(t, u.ID())

	require.NoError(t, u.PushAt(0, 1, "b"))
	require.NoError(t, u.PushMultipleAt(1, 0, []Scalar{"c", nil}))
	assert.Equal(t, 3, u.Pending())
	assert.Equal(t, [][]Scalar{{1.0, 2.0}, {3.0, 4.0}}, base.ToRows(), "nothing is visible before Apply")

	out, err := u.Apply()
	require.NoError(t, err)
	assert.Equal(t, [][]Scalar{{1.0, "b"}, {"c", nil}}, out.ToRows())
	assert.Equal(t, [][]Scalar{{1.0, 2.0}, {3.0, 4.0}}, base.ToRows(), "the base range is immutable")
	assert.Equal(t, []Scalar{1.0, "c", "b"}, out.Flatten(), "entries stay column-major")

	err = u.PushAt(0, 0, 1)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, FailedPrecondition, appErr.Code)
	_, err = u.Apply()
	require.ErrorAs(t, err, &appErr)
}

func TestUpdaterColumnMajor(t *testing.T) {
	u := NewEmptyRange(2, 3).StartIncrementalUpdates(context.Background(), UpdaterOptions{Order: UpdateColumnMajor})
	require.NoError(t, u.PushMultipleAt(0, 0, []Scalar{1, 2, 3}))
	require.NoError(t, u.PushAt(1, 1, 5))
	require.Error(t, u.PushAt(0, 1, 4), "column-major order went backwards")

	out, err := u.Apply()
	require.NoError(t, err)
	assert.Equal(t, [][]Scalar{{1.0, nil}, {2.0, 5.0}, {3.0, nil}}, out.ToRows())
}

func TestUpdaterOrdering(t *testing.T) {
	base := NewEmptyRange(3, 3)

	strict := base.StartIncrementalUpdates(context.Background(), UpdaterOptions{})
	require.NoError(t, strict.PushAt(1, 0, 1))
	requireFormulaError(t, strict.PushAt(0, 2, 2), ErrorCodeValue)
	requireFormulaError(t, strict.PushAt(-1, 0, 2), ErrorCodeValue)

	loose := base.StartIncrementalUpdates(context.Background(), UpdaterOptions{AllowUnordered: true})
	require.NoError(t, loose.PushAt(2, 2, "last"))
	require.NoError(t, loose.PushAt(0, 0, "first"))
	require.NoError(t, loose.PushAt(2, 2, "again"))
	out, err := loose.Apply()
	require.NoError(t, err)
	assert.Equal(t, "first", out.At(0, 0))
	assert.Equal(t, "again", out.At(2, 2), "the last write to a cell wins")
}

func TestUpdaterOrderingIgnoresRangeSize(t *testing.T) {
	tests := []struct {
		name   string
		base   *Range
		order  UpdateOrder
		first  [2]int
		second [2]int
		valid  bool
	}{
		{"row past width then next row", NewEmptyRange(2, 2), UpdateRowMajor, [2]int{0, 3}, [2]int{1, 0}, true},
		{"row backwards on zero width", NewEmptyRange(0, 3), UpdateRowMajor, [2]int{1, 0}, [2]int{0, 0}, false},
		{"column past height then next column", NewEmptyRange(2, 2), UpdateColumnMajor, [2]int{3, 0}, [2]int{0, 1}, true},
		{"column backwards on zero height", NewEmptyRange(3, 0), UpdateColumnMajor, [2]int{0, 1}, [2]int{0, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.base.StartIncrementalUpdates(context.Background(), UpdaterOptions{Order: tt.order})
			require.NoError(t, u.PushAt(tt.first[0], tt.first[1], 1))
			err := u.PushAt(tt.second[0], tt.second[1], 2)
			if !tt.valid {
				requireFormulaError(t, err, ErrorCodeValue)
				return
			}
			require.NoError(t, err)
			_, err = u.Apply()
			requireFormulaError(t, err, ErrorCodeRef)
		})
	}
}

func TestUpdaterApplyValidation(t *testing.T) {
	base := NewEmptyRange(2, 2)

	u := base.StartIncrementalUpdates(context.Background(), UpdaterOptions{})
	require.NoError(t, u.PushAt(2, 0, 1))
	_, err := u.Apply()
	requireFormulaError(t, err, ErrorCodeRef)

	protected := base.StartIncrementalUpdates(context.Background(), UpdaterOptions{
		Protected: []Coords{{ColStart: 1, RowStart: 1, ColEnd: 1, RowEnd: 1}},
	})
	require.NoError(t, protected.PushAt(0, 0, 1))
	require.NoError(t, protected.PushAt(1, 1, 1))
	_, err = protected.Apply()
	requireFormulaError(t, err, ErrorCodeBlocked)

	requireFormulaError(t, base.StartIncrementalUpdates(context.Background(), UpdaterOptions{}).PushAt(0, 0, struct{}{}), ErrorCodeValue)
}

func TestColumnBuckets(t *testing.T) {
	// a 2x3 range (height 2, width 3) written row by row
	r := NewEmptyRange(3, 2)
	staged := []entry{
		{idx: r.index(0, 0), v: "a"},
		{idx: r.index(0, 2), v: "c"},
		{idx: r.index(1, 1), v: "e"},
		{idx: r.index(1, 2), v: "f"},
	}
	got := columnBuckets(staged, 2, 3)
	idx := make([]int, len(got))
	for i, e := range got {
		idx[i] = e.idx
	}
	assert.Equal(t, []int{0, 3, 4, 5}, idx)
}

func TestMergeEntries(t *testing.T) {
	base := []entry{{idx: 0, v: 1.0}, {idx: 2, v: 2.0}, {idx: 4, v: 3.0}}
	staged := []entry{{idx: 1, v: "x"}, {idx: 2, v: nil}, {idx: 4, v: "y"}, {idx: 5, v: "z"}}
	got := mergeEntries(base, staged)
	assert.Equal(t, []entry{{idx: 0, v: 1.0}, {idx: 1, v: "x"}, {idx: 4, v: "y"}, {idx: 5, v: "z"}}, got)
}
