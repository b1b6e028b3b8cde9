package calc

import (
	"iter"
	"sort"
)

// Order selects the traversal direction. ColumnMajor is the storage order
// and the cheaper choice whenever the caller does not observe the order.
type Order uint8

const (
	ColumnMajor Order = iota
	RowMajor
)

func (o Order) String() string {
	if o == RowMajor {
		return "row-major"
	}
	return "column-major"
}

// Toggle is a tri-state flag. Unset means the default for the range origin
// applies.
type Toggle uint8

const (
	Unset Toggle = iota
	Enabled
	Disabled
)

func (t Toggle) resolve(def bool) bool {
	switch t {
	case Enabled:
		return true
	case Disabled:
		return false
	default:
		return def
	}
}

// ValueOptions is the coercion policy applied to every value read.
//
//   - Type: the requested type, ScalarTypeNull returns values untouched
//   - Coerce: attempt best-effort conversion of mismatched values
//   - IncludeMistyped: surface values that still do not fit as #VALUE!
//     instead of skipping them
//   - IncludeBoolean: let booleans take part in numeric or text requests
//
// Coerce and IncludeBoolean default to Enabled for literal ranges and to
// Disabled for reference ranges. error values are always returned as-is.
type ValueOptions struct {
	Type            ScalarType
	Coerce          Toggle
	IncludeMistyped bool
	IncludeBoolean  Toggle
}

// IterOptions controls traversal. the zero value walks populated cells in
// column-major order without any coercion.
type IterOptions struct {
	Order        Order
	Bounds       *Coords // range-relative, clipped to the extent
	Reverse      bool
	IncludeEmpty bool
	ValueOptions
}

func firstOptions(opts []IterOptions) IterOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return IterOptions{}
}

// Break stops ForEach early and carries a result back to the caller
type Break struct {
	Value any
}

// Stop is shorthand for &Break{Value: v}
func Stop(v any) *Break {
	return &Break{Value: v}
}

// bounds returns the clipped traversal rectangle, ok=false when nothing
// can be visited
func (r *Range) bounds(opts IterOptions) (Coords, bool) {
	if r.width == 0 || r.height == 0 {
		return Coords{}, false
	}
	if opts.Bounds == nil {
		return r.extent(), true
	}
	if opts.Bounds.ColStart > opts.Bounds.ColEnd || opts.Bounds.RowStart > opts.Bounds.RowEnd {
		return Coords{}, false
	}
	return r.extent().Intersect(*opts.Bounds)
}

// Entries yields (position, value) pairs according to opts
func (r *Range) Entries(opts ...IterOptions) iter.Seq2[CellCoords, Scalar] {
	o := firstOptions(opts)
	return func(yield func(CellCoords, Scalar) bool) {
		b, ok := r.bounds(o)
		if !ok {
			return
		}
		emit := func(row, col int, v Scalar) bool {
			v, keep := r.convert(v, o.ValueOptions)
			if !keep {
				return true
			}
			return yield(CellCoords{ColIndex: col, RowIndex: row}, v)
		}
		if o.IncludeEmpty {
			r.walkDense(b, o, emit)
			return
		}
		r.walkSparse(b, o, emit)
	}
}

// walkSparse visits populated cells only
func (r *Range) walkSparse(b Coords, o IterOptions, emit func(row, col int, v Scalar) bool) {
	if o.Order == RowMajor {
		order := r.rowMajorOrder()
		for i := range order {
			pos := i
			if o.Reverse {
				pos = len(order) - 1 - i
			}
			e := r.entries[order[pos]]
			row, col := r.position(e.idx)
			if !b.Contains(CellCoords{ColIndex: col, RowIndex: row}) {
				continue
			}
			if !emit(row, col, e.v) {
				return
			}
		}
		return
	}

	// column-major: narrow to the column window with binary search
	lo := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].idx >= r.index(b.RowStart, b.ColStart)
	})
	hi := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].idx > r.index(b.RowEnd, b.ColEnd)
	})
	for i := lo; i < hi; i++ {
		pos := i
		if o.Reverse {
			pos = hi - 1 - (i - lo)
		}
		e := r.entries[pos]
		row, col := r.position(e.idx)
		if row < b.RowStart || row > b.RowEnd {
			continue
		}
		if !emit(row, col, e.v) {
			return
		}
	}
}

// walkDense visits every cell of the rectangle
func (r *Range) walkDense(b Coords, o IterOptions, emit func(row, col int, v Scalar) bool) {
	outerLen, innerLen := b.Width(), b.Height()
	if o.Order == RowMajor {
		outerLen, innerLen = b.Height(), b.Width()
	}
	total := outerLen * innerLen
	for n := 0; n < total; n++ {
		k := n
		if o.Reverse {
			k = total - 1 - n
		}
		outer, inner := k/innerLen, k%innerLen
		row, col := b.RowStart+inner, b.ColStart+outer
		if o.Order == RowMajor {
			row, col = b.RowStart+outer, b.ColStart+inner
		}
		if !emit(row, col, r.At(row, col)) {
			return
		}
	}
}

// convert applies the read policy to a single value. keep=false means the
// value is skipped.
func (r *Range) convert(v Scalar, o ValueOptions) (Scalar, bool) {
	if o.Type == ScalarTypeNull || v == nil {
		return v, true
	}
	if _, isErr := v.(*FormulaError); isErr {
		return v, true
	}
	if TypeOf(v) == o.Type {
		return v, true
	}
	mistyped := func() (Scalar, bool) {
		if o.IncludeMistyped {
			return newFormulaErrorf(ErrorCodeValue, "expected %s, got %s", o.Type, TypeOf(v)), true
		}
		return nil, false
	}

	if b, ok := v.(bool); ok {
		if !o.IncludeBoolean.resolve(r.literal) {
			return mistyped()
		}
		switch o.Type {
		case ScalarTypeNumber:
			return boolToNumber(b), true
		case ScalarTypeString:
			return boolToText(b), true
		}
		return mistyped()
	}

	if !o.Coerce.resolve(r.literal) {
		return mistyped()
	}
	if out, ok := coerceScalar(v, o.Type); ok {
		return out, true
	}
	return mistyped()
}

// Values yields values according to opts
func (r *Range) Values(opts ...IterOptions) iter.Seq[Scalar] {
	seq := r.Entries(opts...)
	return func(yield func(Scalar) bool) {
		for _, v := range seq {
			if !yield(v) {
				return
			}
		}
	}
}

// Flatten collects the visited values in traversal order
func (r *Range) Flatten(opts ...IterOptions) []Scalar {
	out := make([]Scalar, 0, len(r.entries))
	for v := range r.Values(opts...) {
		out = append(out, v)
	}
	return out
}

// ForEach calls fn for each visited cell. when fn returns a *Break the walk
// stops and its value is returned with ok=true.
func (r *Range) ForEach(fn func(CellCoords, Scalar) *Break, opts ...IterOptions) (any, bool) {
	for c, v := range r.Entries(opts...) {
		if brk := fn(c, v); brk != nil {
			return brk.Value, true
		}
	}
	return nil, false
}

// Every reports whether pred holds for all visited cells
func (r *Range) Every(pred func(CellCoords, Scalar) bool, opts ...IterOptions) bool {
	for c, v := range r.Entries(opts...) {
		if !pred(c, v) {
			return false
		}
	}
	return true
}

// Some reports whether pred holds for at least one visited cell
func (r *Range) Some(pred func(CellCoords, Scalar) bool, opts ...IterOptions) bool {
	for c, v := range r.Entries(opts...) {
		if pred(c, v) {
			return true
		}
	}
	return false
}

// Filter returns a same-shaped range holding the visited values for which
// pred holds; every other cell is empty.
func (r *Range) Filter(pred func(CellCoords, Scalar) bool, opts ...IterOptions) *Range {
	out := r.derive(r.width, r.height)
	var kept []entry
	for c, v := range r.Entries(opts...) {
		if v != nil && pred(c, v) {
			kept = append(kept, entry{idx: r.index(c.RowIndex, c.ColIndex), v: v})
		}
	}
	out.setEntries(kept)
	return out
}

// Map returns a copy of r with every visited cell replaced by fn's result.
// cells that are not visited keep their value.
func (r *Range) Map(fn func(CellCoords, Scalar) (Scalar, error), opts ...IterOptions) (*Range, error) {
	out := r.derive(r.width, r.height)
	out.hinted = false
	entries := make([]entry, len(r.entries), len(r.entries)+8)
	copy(entries, r.entries)
	for c, v := range r.Entries(opts...) {
		mapped, err := fn(c, v)
		if err != nil {
			return nil, err
		}
		mapped, err = NormalizeScalar(mapped)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{idx: r.index(c.RowIndex, c.ColIndex), v: mapped})
	}
	out.setEntries(entries)
	return out, nil
}

// Reduce folds the visited cells into an accumulator
func Reduce[T any](r *Range, init T, fn func(acc T, c CellCoords, v Scalar) (T, error), opts ...IterOptions) (T, error) {
	acc := init
	for c, v := range r.Entries(opts...) {
		next, err := fn(acc, c, v)
		if err != nil {
			return acc, err
		}
		acc = next
	}
	return acc, nil
}
