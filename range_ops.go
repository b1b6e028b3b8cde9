package calc

import "sort"

// Bound narrows one edge of a Slice request. edges that are not given
// default to the full extent of the range.
type Bound func(*Coords)

// FromCol sets the first column of a slice
func FromCol(col int) Bound {
	return func(c *Coords) { c.ColStart = col }
}

// ToCol sets the last column of a slice (inclusive)
func ToCol(col int) Bound {
	return func(c *Coords) { c.ColEnd = col }
}

// FromRow sets the first row of a slice
func FromRow(row int) Bound {
	return func(c *Coords) { c.RowStart = row }
}

// ToRow sets the last row of a slice (inclusive)
func ToRow(row int) Bound {
	return func(c *Coords) { c.RowEnd = row }
}

// Within sets all four edges at once
func Within(rect Coords) Bound {
	return func(c *Coords) { *c = rect }
}

// Slice returns the sub-range selected by bounds. inverted or negative
// edges fail with #VALUE!, edges past the extent with #REF!.
func (r *Range) Slice(bounds ...Bound) (*Range, error) {
	sel := r.extent()
	for _, b := range bounds {
		b(&sel)
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.ColEnd >= r.width || sel.RowEnd >= r.height {
		return nil, newFormulaErrorf(ErrorCodeRef, "slice %v exceeds %dx%d range", sel, r.height, r.width)
	}

	out := r.derive(sel.Width(), sel.Height())
	out.origin = CellCoords{
		ColIndex: r.origin.ColIndex + sel.ColStart,
		RowIndex: r.origin.RowIndex + sel.RowStart,
	}
	lo := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].idx >= r.index(sel.RowStart, sel.ColStart)
	})
	entries := make([]entry, 0)
	for _, e := range r.entries[lo:] {
		row, col := r.position(e.idx)
		if col > sel.ColEnd {
			break
		}
		if row < sel.RowStart || row > sel.RowEnd {
			continue
		}
		entries = append(entries, entry{idx: out.index(row-sel.RowStart, col-sel.ColStart), v: e.v})
	}
	// column-major input stays column-major after re-indexing
	out.entries = entries
	return out, nil
}

// Resize trims or pads the range to exactly width x height. cells added by
// padding hold fill (nil leaves them empty).
func (r *Range) Resize(width, height int, fill Scalar) *Range {
	width, height = max(width, 0), max(height, 0)
	out := r.derive(width, height)
	entries := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		row, col := r.position(e.idx)
		if row < height && col < width {
			entries = append(entries, entry{idx: out.index(row, col), v: e.v})
		}
	}
	if fill != nil {
		for col := 0; col < width; col++ {
			for row := 0; row < height; row++ {
				if row >= r.height || col >= r.width {
					entries = append(entries, entry{idx: out.index(row, col), v: fill})
				}
			}
		}
	}
	out.setEntries(entries)
	return out
}

// Transpose swaps rows and columns
func (r *Range) Transpose() *Range {
	out := r.derive(r.height, r.width)
	entries := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		row, col := r.position(e.idx)
		entries = append(entries, entry{idx: out.index(col, row), v: e.v})
	}
	out.setEntries(entries)
	return out
}

// Replace patches src into r with its top-left cell at (row, col). the
// footprint of src (clipped to r) is overwritten, empty source cells
// included; everything outside the footprint is untouched.
func (r *Range) Replace(row, col int, src *Range) (*Range, error) {
	if row < 0 || col < 0 {
		return nil, newFormulaErrorf(ErrorCodeValue, "negative replace position (%d, %d)", row, col)
	}
	if row >= r.height || col >= r.width {
		return nil, newFormulaErrorf(ErrorCodeRef, "replace position (%d, %d) outside %dx%d range", row, col, r.height, r.width)
	}
	footprint := Coords{
		ColStart: col,
		RowStart: row,
		ColEnd:   min(col+src.width-1, r.width-1),
		RowEnd:   min(row+src.height-1, r.height-1),
	}

	out := r.derive(r.width, r.height)
	entries := make([]entry, 0, len(r.entries)+len(src.entries))
	for _, e := range r.entries {
		erow, ecol := r.position(e.idx)
		if footprint.Contains(CellCoords{ColIndex: ecol, RowIndex: erow}) {
			continue
		}
		entries = append(entries, e)
	}
	for _, e := range src.entries {
		srow, scol := src.position(e.idx)
		trow, tcol := srow+row, scol+col
		if trow > footprint.RowEnd || tcol > footprint.ColEnd {
			continue
		}
		entries = append(entries, entry{idx: out.index(trow, tcol), v: e.v})
	}
	out.setEntries(entries)
	return out, nil
}

// ReplaceValues is Replace with a literal row-major array
func (r *Range) ReplaceValues(row, col int, rows [][]Scalar) (*Range, error) {
	src, err := NewRange(rows)
	if err != nil {
		return nil, err
	}
	return r.Replace(row, col, src)
}

// Fill sets every cell of bounds (the whole range when nil) to v
func (r *Range) Fill(v Scalar, bounds *Coords) (*Range, error) {
	v, err := NormalizeScalar(v)
	if err != nil {
		return nil, err
	}
	area, err := r.area(bounds)
	if err != nil {
		return nil, err
	}
	out := r.derive(r.width, r.height)
	entries := make([]entry, 0, len(r.entries)+area.Width()*area.Height())
	for _, e := range r.entries {
		row, col := r.position(e.idx)
		if area.Contains(CellCoords{ColIndex: col, RowIndex: row}) {
			continue
		}
		entries = append(entries, e)
	}
	if v != nil {
		for col := area.ColStart; col <= area.ColEnd; col++ {
			for row := area.RowStart; row <= area.RowEnd; row++ {
				entries = append(entries, entry{idx: out.index(row, col), v: v})
			}
		}
	}
	out.setEntries(entries)
	return out, nil
}

// FillEmptyOptions configures FillEmpty
type FillEmptyOptions struct {
	MinWidth  int
	MinHeight int
	Bounds    *Coords // applied after padding
}

// FillEmpty pads the range to at least MinWidth x MinHeight and then sets
// every empty cell inside Bounds to v. populated cells keep their value.
func (r *Range) FillEmpty(v Scalar, opts FillEmptyOptions) (*Range, error) {
	v, err := NormalizeScalar(v)
	if err != nil {
		return nil, err
	}
	padded := r
	if opts.MinWidth > r.width || opts.MinHeight > r.height {
		padded = r.Resize(max(r.width, opts.MinWidth), max(r.height, opts.MinHeight), nil)
	}
	area, err := padded.area(opts.Bounds)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return padded, nil
	}
	out := padded.derive(padded.width, padded.height)
	entries := make([]entry, len(padded.entries), len(padded.entries)+area.Width()*area.Height())
	copy(entries, padded.entries)
	for col := area.ColStart; col <= area.ColEnd; col++ {
		for row := area.RowStart; row <= area.RowEnd; row++ {
			if padded.At(row, col) == nil {
				entries = append(entries, entry{idx: out.index(row, col), v: v})
			}
		}
	}
	out.setEntries(entries)
	return out, nil
}

// area validates an optional range-relative rectangle
func (r *Range) area(bounds *Coords) (Coords, error) {
	if bounds == nil {
		if r.width == 0 || r.height == 0 {
			return Coords{}, NewFormulaError(ErrorCodeRef, "range is empty")
		}
		return r.extent(), nil
	}
	if err := bounds.Validate(); err != nil {
		return Coords{}, err
	}
	if bounds.ColEnd >= r.width || bounds.RowEnd >= r.height {
		return Coords{}, newFormulaErrorf(ErrorCodeRef, "bounds %v exceed %dx%d range", *bounds, r.height, r.width)
	}
	return *bounds, nil
}

// Intersect returns the overlap of r and other in sheet coordinates. when
// fn is nil the overlap holds r's values, otherwise fn(a, b) for each
// cell. ranges on different sheets or without overlap give #NULL!.
func (r *Range) Intersect(other *Range, fn func(a, b Scalar) (Scalar, error)) (*Range, error) {
	if r.sheet != other.sheet {
		return nil, NewFormulaError(ErrorCodeNull, "ranges are on different sheets")
	}
	if r.width == 0 || r.height == 0 || other.width == 0 || other.height == 0 {
		return nil, NewFormulaError(ErrorCodeNull, "empty range has no intersection")
	}
	overlap, ok := r.Bounds().Intersect(other.Bounds())
	if !ok {
		return nil, NewFormulaError(ErrorCodeNull, "ranges do not intersect")
	}

	out := r.derive(overlap.Width(), overlap.Height())
	out.origin = CellCoords{ColIndex: overlap.ColStart, RowIndex: overlap.RowStart}
	entries := make([]entry, 0)
	for col := overlap.ColStart; col <= overlap.ColEnd; col++ {
		for row := overlap.RowStart; row <= overlap.RowEnd; row++ {
			a := r.At(row-r.origin.RowIndex, col-r.origin.ColIndex)
			v := a
			if fn != nil {
				b := other.At(row-other.origin.RowIndex, col-other.origin.ColIndex)
				var err error
				if v, err = fn(a, b); err != nil {
					return nil, err
				}
				if v, err = NormalizeScalar(v); err != nil {
					return nil, err
				}
			}
			if v != nil {
				entries = append(entries, entry{idx: out.index(row-overlap.RowStart, col-overlap.ColStart), v: v})
			}
		}
	}
	out.entries = entries
	return out, nil
}
