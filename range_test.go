package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refRange builds a reference range on sheet at origin from row-major rows
func refRange(t *testing.T, sheet string, origin CellCoords, rows [][]Scalar) *Range {
	t.Helper()
	lit, err := NewRange(rows)
	require.NoError(t, err)
	r := lit.derive(lit.width, lit.height)
	r.literal = false
	r.sheet = sheet
	r.origin = origin
	r.entries = lit.entries
	return r
}

func TestNewRange(t *testing.T) {
	r, err := NewRange([][]Scalar{
		{1, "a", true},
		{nil, 2.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 2, r.Height())
	assert.Equal(t, 4, r.Len())
	assert.True(t, r.IsLiteral())
	assert.Equal(t, 1.0, r.At(0, 0))
	assert.Equal(t, "a", r.At(0, 1))
	assert.Equal(t, true, r.At(0, 2))
	assert.Nil(t, r.At(1, 0))
	assert.Equal(t, 2.5, r.At(1, 1))
	assert.Nil(t, r.At(1, 2), "ragged rows are padded")
	assert.Nil(t, r.At(5, 5))
	assert.Nil(t, r.At(-1, 0))

	_, err = NewRange([][]Scalar{{struct{}{}}})
	require.Error(t, err)
	fe, ok := AsFormulaError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeValue, fe.Code)
}

func TestRangeConstructors(t *testing.T) {
	empty := NewEmptyRange(3, 2)
	assert.Equal(t, 3, empty.Width())
	assert.Equal(t, 2, empty.Height())
	assert.True(t, empty.IsEmpty())

	single := MustNewScalarRange("x")
	assert.True(t, single.IsSingleCell())
	assert.Equal(t, "x", single.TopLeft())
	assert.True(t, MustNewScalarRange(nil).IsEmpty())

	num, err := NewScalarRange(100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, num.TopLeft())
	assert.Equal(t, ScalarTypeNumber, TypeOf(num.TopLeft()))

	_, err = NewScalarRange(struct{}{})
	requireFormulaError(t, err, ErrorCodeValue)

	col, err := NewColumn([]Scalar{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, col.Width())
	assert.Equal(t, 3, col.Height())

	row, err := NewRow([]Scalar{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, row.Width())
	assert.Equal(t, 1, row.Height())

	assert.Panics(t, func() { MustNewRange([][]Scalar{{make(chan int)}}) })
}

func TestRangeToRowsAndEqual(t *testing.T) {
	rows := [][]Scalar{{1.0, nil}, {"b", false}}
	r := MustNewRange(rows)
	assert.Equal(t, rows, r.ToRows())

	other := MustNewRange([][]Scalar{{1, nil}, {"b", false}})
	assert.True(t, r.Equal(other))
	assert.False(t, r.Equal(MustNewRange([][]Scalar{{1, nil}, {"b", true}})))
	assert.False(t, r.Equal(r.Transpose()))

	withErr := MustNewRange([][]Scalar{{NewFormulaError(ErrorCodeNA, "a")}})
	assert.True(t, withErr.Equal(MustNewRange([][]Scalar{{NewFormulaError(ErrorCodeNA, "b")}})))
}

func TestRangeBoundsAndProvenance(t *testing.T) {
	r := refRange(t, "Data", CellCoords{ColIndex: 1, RowIndex: 2}, [][]Scalar{{1, 2}, {3, 4}})
	assert.False(t, r.IsLiteral())
	assert.Equal(t, "Data", r.Sheet())
	assert.Equal(t, Coords{ColStart: 1, RowStart: 2, ColEnd: 2, RowEnd: 3}, r.Bounds())
	assert.Equal(t, "Range(2x2 ref Data!B3:C4)[1, 2; 3, 4]", r.String())

	hinted := r.WithTypeHint(ScalarTypeNumber)
	hint, ok := hinted.TypeHint()
	assert.True(t, ok)
	assert.Equal(t, ScalarTypeNumber, hint)
	_, ok = r.TypeHint()
	assert.False(t, ok)
}

func TestScalarEqual(t *testing.T) {
	rich1, err := NewRichData("stock", map[string]any{"ticker": "ACME", "price": 12.5})
	require.NoError(t, err)
	rich2, err := NewRichData("stock", map[string]any{"ticker": "ACME", "price": 12.5})
	require.NoError(t, err)
	rich3, err := NewRichData("stock", map[string]any{"ticker": "OTHER"})
	require.NoError(t, err)

	tests := []struct {
		name string
		a, b Scalar
		want bool
	}{
		{"numbers", 1.0, 1.0, true},
		{"number vs text", 1.0, "1", false},
		{"nil", nil, nil, true},
		{"errors by code", NewFormulaError(ErrorCodeRef, "x"), NewFormulaError(ErrorCodeRef, "y"), true},
		{"error vs number", NewFormulaError(ErrorCodeRef, ""), 4.0, false},
		{"rich data", rich1, rich2, true},
		{"rich data payload", rich1, rich3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScalarEqual(tt.a, tt.b))
		})
	}
}

func TestRangeIterationOrder(t *testing.T) {
	r := MustNewRange([][]Scalar{
		{1, 2, 3},
		{4, nil, 6},
	})
	tests := []struct {
		name string
		opts IterOptions
		want []Scalar
	}{
		{"column-major", IterOptions{}, []Scalar{1.0, 4.0, 2.0, 3.0, 6.0}},
		{"row-major", IterOptions{Order: RowMajor}, []Scalar{1.0, 2.0, 3.0, 4.0, 6.0}},
		{"reverse column-major", IterOptions{Reverse: true}, []Scalar{6.0, 3.0, 2.0, 4.0, 1.0}},
		{"reverse row-major", IterOptions{Order: RowMajor, Reverse: true}, []Scalar{6.0, 4.0, 3.0, 2.0, 1.0}},
		{"include empty", IterOptions{Order: RowMajor, IncludeEmpty: true}, []Scalar{1.0, 2.0, 3.0, 4.0, nil, 6.0}},
		{"bounds", IterOptions{Bounds: &Coords{ColStart: 1, RowStart: 0, ColEnd: 2, RowEnd: 1}}, []Scalar{2.0, 3.0, 6.0}},
		{"bounds clipped", IterOptions{Bounds: &Coords{ColStart: 2, RowStart: 1, ColEnd: 9, RowEnd: 9}}, []Scalar{6.0}},
		{"bounds outside", IterOptions{Bounds: &Coords{ColStart: 5, RowStart: 5, ColEnd: 9, RowEnd: 9}}, []Scalar{}},
		{"inverted bounds", IterOptions{Bounds: &Coords{ColStart: 2, RowStart: 0, ColEnd: 1, RowEnd: 0}}, []Scalar{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Flatten(tt.opts))
		})
	}
}

func TestRangeEntriesPositions(t *testing.T) {
	r := MustNewRange([][]Scalar{{"a", nil}, {nil, "d"}})
	var got []CellCoords
	for c := range r.Entries() {
		got = append(got, c)
	}
	assert.Equal(t, []CellCoords{{ColIndex: 0, RowIndex: 0}, {ColIndex: 1, RowIndex: 1}}, got)
}

func TestValueOptionsDefaults(t *testing.T) {
	rows := [][]Scalar{{1, "2", true, "x", nil, NewFormulaError(ErrorCodeDiv0, "")}}
	literal := MustNewRange(rows)
	reference := refRange(t, "S", CellCoords{}, rows)
	div0 := NewFormulaError(ErrorCodeDiv0, "")

	tests := []struct {
		name string
		r    *Range
		opts ValueOptions
		want []Scalar
	}{
		{"literal coerces", literal, ValueOptions{Type: ScalarTypeNumber}, []Scalar{1.0, 2.0, 1.0, div0}},
		{"reference skips", reference, ValueOptions{Type: ScalarTypeNumber}, []Scalar{1.0, div0}},
		{"reference forced coercion", reference, ValueOptions{Type: ScalarTypeNumber, Coerce: Enabled, IncludeBoolean: Enabled}, []Scalar{1.0, 2.0, 1.0, div0}},
		{"literal without booleans", literal, ValueOptions{Type: ScalarTypeNumber, IncludeBoolean: Disabled}, []Scalar{1.0, 2.0, div0}},
		{"literal without coercion", literal, ValueOptions{Type: ScalarTypeNumber, Coerce: Disabled, IncludeBoolean: Disabled}, []Scalar{1.0, div0}},
		{"untyped", reference, ValueOptions{}, []Scalar{1.0, "2", true, "x", div0}},
		{"text from literal", literal, ValueOptions{Type: ScalarTypeString}, []Scalar{"1", "2", "TRUE", "x", div0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.Flatten(IterOptions{Order: RowMajor, ValueOptions: tt.opts})
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.True(t, ScalarEqual(tt.want[i], got[i]), "index %d: want %v got %v", i, tt.want[i], got[i])
			}
		})
	}
}

func TestValueOptionsIncludeMistyped(t *testing.T) {
	r := refRange(t, "S", CellCoords{}, [][]Scalar{{1, "x"}})
	got := r.Flatten(IterOptions{Order: RowMajor, ValueOptions: ValueOptions{Type: ScalarTypeNumber, IncludeMistyped: true}})
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0])
	fe := asError(got[1])
	require.NotNil(t, fe)
	assert.Equal(t, ErrorCodeValue, fe.Code)
}

func TestRangeCallbacks(t *testing.T) {
	r := MustNewRange([][]Scalar{{1, 2}, {3, 4}})

	v, ok := r.ForEach(func(c CellCoords, v Scalar) *Break {
		if v.(float64) > 2 {
			return Stop(c)
		}
		return nil
	}, IterOptions{Order: RowMajor})
	assert.True(t, ok)
	assert.Equal(t, CellCoords{ColIndex: 0, RowIndex: 1}, v)

	_, ok = r.ForEach(func(CellCoords, Scalar) *Break { return nil })
	assert.False(t, ok)

	positive := func(_ CellCoords, v Scalar) bool { return v.(float64) > 0 }
	assert.True(t, r.Every(positive))
	assert.True(t, r.Some(func(_ CellCoords, v Scalar) bool { return v == 4.0 }))
	assert.False(t, r.Some(func(_ CellCoords, v Scalar) bool { return v == 5.0 }))

	even := r.Filter(func(_ CellCoords, v Scalar) bool { return int(v.(float64))%2 == 0 })
	assert.Equal(t, [][]Scalar{{nil, 2.0}, {nil, 4.0}}, even.ToRows())

	doubled, err := r.Map(func(_ CellCoords, v Scalar) (Scalar, error) { return v.(float64) * 2, nil })
	require.NoError(t, err)
	assert.Equal(t, [][]Scalar{{2.0, 4.0}, {6.0, 8.0}}, doubled.ToRows())

	_, err = r.Map(func(CellCoords, Scalar) (Scalar, error) { return nil, NewFormulaError(ErrorCodeNum, "") })
	assert.Error(t, err)

	sum, err := Reduce(r, 0.0, func(acc float64, _ CellCoords, v Scalar) (float64, error) {
		return acc + v.(float64), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, sum)
}

func TestMapVisitsEmptyCells(t *testing.T) {
	r := MustNewRange([][]Scalar{{1, nil}})
	filled, err := r.Map(func(_ CellCoords, v Scalar) (Scalar, error) {
		if v == nil {
			return 0, nil
		}
		return v, nil
	}, IterOptions{IncludeEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, [][]Scalar{{1.0, 0.0}}, filled.ToRows())
}
