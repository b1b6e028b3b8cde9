package calc

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"google.golang.org/protobuf/proto"
)

// entry is one populated cell. idx is the column-major position
// (col*height + row) inside the owning range.
type entry struct {
	idx int
	v   Scalar
}

// Range is an immutable two-dimensional container of Scalars.
//
// storage is sparse: only populated cells are kept, sorted in column-major
// order. iteration that skips empty cells therefore costs time proportional
// to the populated cells, not the full rectangle. every transformation
// returns a new Range; the Updater is the only staged way to build one
// incrementally.
//
// a Range is either literal (materialized from a function argument or a
// computed array) or a reference into a worksheet. the two kinds iterate
// and broadcast identically but default to different read coercion, see
// ValueOptions.
type Range struct {
	width   int
	height  int
	entries []entry
	literal bool
	sheet   string     // owning worksheet for reference ranges
	origin  CellCoords // sheet position of the top-left cell
	hint    ScalarType
	hinted  bool

	rowOrderOnce sync.Once
	rowOrder     []int // entry positions sorted row-major, built lazily
}

// NewRange materializes a literal range from row-major rows. ragged rows
// are padded with empty cells to the widest row.
func NewRange(rows [][]Scalar) (*Range, error) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	height := len(rows)
	r := newRange(width, height, true)
	entries := make([]entry, 0, width*height)
	for rowIdx, row := range rows {
		for colIdx, raw := range row {
			v, err := NormalizeScalar(raw)
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			entries = append(entries, entry{idx: colIdx*height + rowIdx, v: v})
		}
	}
	r.setEntries(entries)
	return r, nil
}

// MustNewRange is NewRange for values known to be valid
func MustNewRange(rows [][]Scalar) *Range {
	r, err := NewRange(rows)
	if err != nil {
		panic(err)
	}
	return r
}

// NewEmptyRange creates a literal range with no populated cells
func NewEmptyRange(width, height int) *Range {
	return newRange(max(width, 0), max(height, 0), true)
}

// NewScalarRange wraps a single value as a 1x1 literal range. the value is
// normalized like any range input; unsupported kinds fail with #VALUE!.
func NewScalarRange(v any) (*Range, error) {
	s, err := NormalizeScalar(v)
	if err != nil {
		return nil, err
	}
	r := newRange(1, 1, true)
	if s != nil {
		r.entries = []entry{{idx: 0, v: s}}
	}
	return r, nil
}

// MustNewScalarRange is NewScalarRange for values known to be valid
func MustNewScalarRange(v any) *Range {
	r, err := NewScalarRange(v)
	if err != nil {
		panic(err)
	}
	return r
}

// NewColumn creates a Nx1 literal range
func NewColumn(values []Scalar) (*Range, error) {
	rows := make([][]Scalar, len(values))
	for i, v := range values {
		rows[i] = []Scalar{v}
	}
	return NewRange(rows)
}

// NewRow creates a 1xN literal range
func NewRow(values []Scalar) (*Range, error) {
	return NewRange([][]Scalar{values})
}

func newRange(width, height int, literal bool) *Range {
	return &Range{
		width:   width,
		height:  height,
		literal: literal,
	}
}

// derive creates an empty range with the same provenance as r
func (r *Range) derive(width, height int) *Range {
	out := newRange(width, height, r.literal)
	out.sheet = r.sheet
	out.origin = r.origin
	out.hint = r.hint
	out.hinted = r.hinted
	return out
}

// setEntries stores entries in column-major order. later duplicates win
// and empty values are dropped.
func (r *Range) setEntries(entries []entry) {
	sorted := slices.IsSortedFunc(entries, func(a, b entry) int { return a.idx - b.idx })
	if !sorted {
		slices.SortStableFunc(entries, func(a, b entry) int { return a.idx - b.idx })
	}
	out := entries[:0]
	for _, e := range entries {
		if n := len(out); n > 0 && out[n-1].idx == e.idx {
			out[n-1] = e
			continue
		}
		out = append(out, e)
	}
	// drop values overwritten with empty
	compact := out[:0]
	for _, e := range out {
		if e.v != nil {
			compact = append(compact, e)
		}
	}
	r.entries = compact
}

func (r *Range) index(row, col int) int {
	return col*r.height + row
}

func (r *Range) position(idx int) (row, col int) {
	if r.height == 0 {
		return 0, 0
	}
	return idx % r.height, idx / r.height
}

// Width is the number of columns
func (r *Range) Width() int {
	return r.width
}

// Height is the number of rows
func (r *Range) Height() int {
	return r.height
}

// IsLiteral reports whether the range was materialized from a value rather
// than read from a worksheet
func (r *Range) IsLiteral() bool {
	return r.literal
}

// Sheet returns the owning worksheet name for reference ranges
func (r *Range) Sheet() string {
	return r.sheet
}

// Origin returns the sheet position of the top-left cell
func (r *Range) Origin() CellCoords {
	return r.origin
}

// Bounds returns the sheet rectangle covered by the range
func (r *Range) Bounds() Coords {
	return Coords{
		ColStart: r.origin.ColIndex,
		RowStart: r.origin.RowIndex,
		ColEnd:   r.origin.ColIndex + r.width - 1,
		RowEnd:   r.origin.RowIndex + r.height - 1,
	}
}

// extent is the full rectangle in range-relative coordinates
func (r *Range) extent() Coords {
	return Coords{ColStart: 0, RowStart: 0, ColEnd: r.width - 1, RowEnd: r.height - 1}
}

// TypeHint returns the declared uniform type of the cells, if any
func (r *Range) TypeHint() (ScalarType, bool) {
	return r.hint, r.hinted
}

// WithTypeHint returns a copy of r declaring all cells to be of type t
func (r *Range) WithTypeHint(t ScalarType) *Range {
	out := r.derive(r.width, r.height)
	out.entries = r.entries
	out.hint = t
	out.hinted = true
	return out
}

// Len returns the number of populated cells
func (r *Range) Len() int {
	return len(r.entries)
}

// IsEmpty reports whether no cell is populated
func (r *Range) IsEmpty() bool {
	return len(r.entries) == 0
}

// IsSingleCell reports whether the range is 1x1
func (r *Range) IsSingleCell() bool {
	return r.width == 1 && r.height == 1
}

// At returns the value at a range-relative position, nil when empty or out
// of bounds
func (r *Range) At(row, col int) Scalar {
	if row < 0 || col < 0 || row >= r.height || col >= r.width {
		return nil
	}
	idx := r.index(row, col)
	i := sort.Search(len(r.entries), func(i int) bool { return r.entries[i].idx >= idx })
	if i < len(r.entries) && r.entries[i].idx == idx {
		return r.entries[i].v
	}
	return nil
}

// TopLeft returns the first cell's value
func (r *Range) TopLeft() Scalar {
	return r.At(0, 0)
}

// ToRows returns a dense row-major copy of the cells
func (r *Range) ToRows() [][]Scalar {
	rows := make([][]Scalar, r.height)
	for i := range rows {
		rows[i] = make([]Scalar, r.width)
	}
	for _, e := range r.entries {
		row, col := r.position(e.idx)
		rows[row][col] = e.v
	}
	return rows
}

// rowMajorOrder returns the entry positions sorted row-major. computed once
// per range, ranges are immutable.
func (r *Range) rowMajorOrder() []int {
	r.rowOrderOnce.Do(func() {
		order := make([]int, len(r.entries))
		for i := range order {
			order[i] = i
		}
		slices.SortFunc(order, func(a, b int) int {
			ra, ca := r.position(r.entries[a].idx)
			rb, cb := r.position(r.entries[b].idx)
			if ra != rb {
				return ra - rb
			}
			return ca - cb
		})
		r.rowOrder = order
	})
	return r.rowOrder
}

// Equal compares shape and cell values. provenance is ignored.
func (r *Range) Equal(other *Range) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.width != other.width || r.height != other.height || len(r.entries) != len(other.entries) {
		return false
	}
	for i, e := range r.entries {
		o := other.entries[i]
		if e.idx != o.idx || !ScalarEqual(e.v, o.v) {
			return false
		}
	}
	return true
}

// ScalarEqual compares two scalars. errors compare by code and rich data by
// type and payload.
func ScalarEqual(a, b Scalar) bool {
	switch av := a.(type) {
	case *FormulaError:
		bv, ok := b.(*FormulaError)
		return ok && av.Equals(bv)
	case RichData:
		bv, ok := b.(RichData)
		return ok && av.Type == bv.Type && proto.Equal(av.Payload, bv.Payload)
	default:
		return a == b
	}
}

func (r *Range) String() string {
	var b strings.Builder
	kind := "literal"
	if !r.literal {
		kind = "ref"
		if r.sheet != "" {
			kind = "ref " + r.sheet + "!" + r.Bounds().String()
		}
	}
	fmt.Fprintf(&b, "Range(%dx%d %s)[", r.height, r.width, kind)
	for i, row := range r.ToRows() {
		if i > 0 {
			b.WriteString("; ")
		}
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(FormatValue(v))
		}
	}
	b.WriteString("]")
	return b.String()
}
