package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(a, b Scalar) (Scalar, error) {
	x, err := ToNumber(a, true)
	if err != nil {
		return nil, err
	}
	y, err := ToNumber(b, true)
	if err != nil {
		return nil, err
	}
	return x + y, nil
}

func TestBroadcastShape(t *testing.T) {
	tests := []struct {
		name           string
		w1, h1, w2, h2 int
		w, h           int
		ok             bool
	}{
		{"same", 3, 2, 3, 2, 3, 2, true},
		{"row against column", 3, 1, 1, 2, 3, 2, true},
		{"scalar", 1, 1, 4, 5, 4, 5, true},
		{"mismatch", 2, 2, 3, 2, 3, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := BroadcastShape(tt.w1, tt.h1, tt.w2, tt.h2)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestBroadcastStrict(t *testing.T) {
	row := MustNewRange([][]Scalar{{1, 2, 3}})
	col := MustNewRange([][]Scalar{{10}, {20}})

	out, err := row.Broadcast(col, add)
	require.NoError(t, err)
	assert.True(t, out.IsLiteral())
	assert.Equal(t, [][]Scalar{{11.0, 12.0, 13.0}, {21.0, 22.0, 23.0}}, out.ToRows())

	same, err := grid().Broadcast(grid(), add)
	require.NoError(t, err)
	assert.Equal(t, 18.0, same.At(2, 2))

	_, err = MustNewRange([][]Scalar{{1, 2}}).Broadcast(row, add)
	requireFormulaError(t, err, ErrorCodeValue)
}

func TestBroadcastLenient(t *testing.T) {
	a := MustNewRange([][]Scalar{{1, 2}})
	b := MustNewRange([][]Scalar{{10, 20, 30}, {40, 50, 60}})
	na := NewFormulaError(ErrorCodeNA, "")

	out, err := a.Broadcast(b, add, BroadcastOptions{Lenient: true, MismatchFill: na})
	require.NoError(t, err)
	require.Equal(t, 3, out.Width())
	require.Equal(t, 2, out.Height())
	assert.Equal(t, 11.0, out.At(0, 0))
	assert.Equal(t, 52.0, out.At(1, 1))
	assert.True(t, ScalarEqual(na, out.At(0, 2)))
	assert.True(t, ScalarEqual(na, out.At(1, 2)))

	empty, err := a.Broadcast(b, add, BroadcastOptions{Lenient: true})
	require.NoError(t, err)
	assert.Nil(t, empty.At(0, 2))
	assert.Equal(t, 4, empty.Len())
}

func TestBroadcastPropagatesCallbackErrors(t *testing.T) {
	a := MustNewRange([][]Scalar{{1, "x"}})
	_, err := a.Broadcast(MustNewScalarRange(1), add)
	requireFormulaError(t, err, ErrorCodeValue)
}

func TestBroadcastScalar(t *testing.T) {
	out, err := grid().BroadcastScalar(100, add)
	require.NoError(t, err)
	assert.Equal(t, [][]Scalar{{101.0, 102.0, 103.0}, {104.0, 105.0, 106.0}, {107.0, 108.0, 109.0}}, out.ToRows())

	_, err = grid().BroadcastScalar(struct{}{}, add)
	requireFormulaError(t, err, ErrorCodeValue)
}
