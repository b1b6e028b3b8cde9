package calc

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
	"go.alis.build/alog"
)

// UpdaterOptions configures an incremental update transaction
type UpdaterOptions struct {
	// Order is the order writes arrive in. the zero value is row-major.
	Order UpdateOrder
	// AllowUnordered accepts out-of-order writes; Apply then sorts all
	// pending writes instead of streaming them.
	AllowUnordered bool
	// Protected cells (range-relative) reject writes with #BLOCKED!
	Protected []Coords
}

// UpdateOrder is the write order of an Updater. it differs from Order only
// in its zero value.
type UpdateOrder uint8

const (
	UpdateRowMajor UpdateOrder = iota
	UpdateColumnMajor
)

type write struct {
	row, col int
	v        Scalar
}

// Updater stages writes against a range and materializes them in one step.
// nothing is visible until Apply. an Updater is a single-writer
// transaction and is not safe for concurrent use.
type Updater struct {
	ctx       context.Context
	id        string
	base      *Range
	opts      UpdaterOptions
	writes    []write
	last      [2]int
	unordered bool
	applied   bool
}

// StartIncrementalUpdates opens a write transaction on r
func (r *Range) StartIncrementalUpdates(ctx context.Context, opts UpdaterOptions) *Updater {
	return &Updater{
		ctx:     ctx,
		id:      uuid.NewString(),
		base:    r,
		opts:    opts,
		last:    [2]int{-1, -1},
	}
}

// ID identifies the transaction in logs
func (u *Updater) ID() string {
	return u.id
}

// Pending returns the number of staged writes
func (u *Updater) Pending() int {
	return len(u.writes)
}

// key is the (major, minor) position of a cell in the transaction's write
// order. it does not depend on the range size, so writes outside the range
// are ordered too and left for Apply to reject.
func (u *Updater) key(row, col int) [2]int {
	if u.opts.Order == UpdateColumnMajor {
		return [2]int{col, row}
	}
	return [2]int{row, col}
}

func compareKeys(a, b [2]int) int {
	if c := cmp.Compare(a[0], b[0]); c != 0 {
		return c
	}
	return cmp.Compare(a[1], b[1])
}

// PushAt stages a single write. nil clears the cell.
func (u *Updater) PushAt(row, col int, v Scalar) error {
	if u.applied {
		return NewApplicationError(FailedPrecondition, "updater already applied")
	}
	v, err := NormalizeScalar(v)
	if err != nil {
		return err
	}
	if row < 0 || col < 0 {
		return newFormulaErrorf(ErrorCodeValue, "negative write position (%d, %d)", row, col)
	}
	k := u.key(row, col)
	if compareKeys(k, u.last) < 0 {
		if !u.opts.AllowUnordered {
			return newFormulaErrorf(ErrorCodeValue, "out of order write at (%d, %d)", row, col)
		}
		u.unordered = true
	} else {
		u.last = k
	}
	u.writes = append(u.writes, write{row: row, col: col, v: v})
	return nil
}

// PushMultipleAt stages consecutive writes along the minor axis of the
// transaction order, starting at (row, col)
func (u *Updater) PushMultipleAt(row, col int, values []Scalar) error {
	for i, v := range values {
		r, c := row, col+i
		if u.opts.Order == UpdateColumnMajor {
			r, c = row+i, col
		}
		if err := u.PushAt(r, c, v); err != nil {
			return err
		}
	}
	return nil
}

// Apply validates every staged write and returns the updated range. a
// write outside the range fails with #REF!, a write into a protected cell
// with #BLOCKED!. the updater cannot be used after a successful Apply.
func (u *Updater) Apply() (*Range, error) {
	if u.applied {
		return nil, NewApplicationError(FailedPrecondition, "updater already applied")
	}
	base := u.base
	for _, w := range u.writes {
		if w.row >= base.height || w.col >= base.width {
			return nil, newFormulaErrorf(ErrorCodeRef, "write at (%d, %d) outside %dx%d range", w.row, w.col, base.height, base.width)
		}
		cell := CellCoords{ColIndex: w.col, RowIndex: w.row}
		for _, p := range u.opts.Protected {
			if p.Contains(cell) {
				return nil, newFormulaErrorf(ErrorCodeBlocked, "write at %v hits protected area %v", cell, p)
			}
		}
	}

	staged := make([]entry, len(u.writes))
	for i, w := range u.writes {
		staged[i] = entry{idx: base.index(w.row, w.col), v: w.v}
	}
	switch {
	case u.unordered:
		alog.Debugf(u.ctx, "updater %s: sorting %d unordered writes", u.id, len(staged))
		slices.SortStableFunc(staged, func(a, b entry) int { return a.idx - b.idx })
	case u.opts.Order == UpdateRowMajor:
		staged = columnBuckets(staged, base.height, base.width)
	}

	out := base.derive(base.width, base.height)
	out.entries = mergeEntries(base.entries, staged)
	u.applied = true
	u.writes = nil
	return out, nil
}

// columnBuckets regroups row-major ordered entries by column. rows inside
// each column stay increasing, so the result is column-major sorted.
func columnBuckets(staged []entry, height, width int) []entry {
	if len(staged) == 0 || height == 0 {
		return staged
	}
	counts := make([]int, width+1)
	for _, e := range staged {
		counts[e.idx/height+1]++
	}
	for i := 1; i <= width; i++ {
		counts[i] += counts[i-1]
	}
	out := make([]entry, len(staged))
	for _, e := range staged {
		col := e.idx / height
		out[counts[col]] = e
		counts[col]++
	}
	return out
}

// mergeEntries merges sorted staged writes into sorted base entries. a
// staged write replaces the base value, the last staged write for a cell
// wins, and nil removes the cell.
func mergeEntries(base, staged []entry) []entry {
	out := make([]entry, 0, len(base)+len(staged))
	i, j := 0, 0
	for i < len(base) || j < len(staged) {
		if j == len(staged) || (i < len(base) && base[i].idx < staged[j].idx) {
			out = append(out, base[i])
			i++
			continue
		}
		idx := staged[j].idx
		v := staged[j].v
		for j+1 < len(staged) && staged[j+1].idx == idx {
			j++
			v = staged[j].v
		}
		j++
		if i < len(base) && base[i].idx == idx {
			i++
		}
		if v != nil {
			out = append(out, entry{idx: idx, v: v})
		}
	}
	return out
}
