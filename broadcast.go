package calc

// BroadcastOptions selects strict or lenient broadcasting
type BroadcastOptions struct {
	// Lenient expands mismatched shapes to their union instead of failing.
	// cells without a valid pair from both inputs hold MismatchFill.
	Lenient      bool
	MismatchFill Scalar
}

// BroadcastShape returns the result shape of broadcasting two shapes. each
// axis must be equal or 1 on one side; ok=false otherwise.
func BroadcastShape(w1, h1, w2, h2 int) (width, height int, ok bool) {
	width, okW := broadcastAxis(w1, w2)
	height, okH := broadcastAxis(h1, h2)
	return width, height, okW && okH
}

func broadcastAxis(a, b int) (int, bool) {
	switch {
	case a == b:
		return a, true
	case a == 1:
		return b, true
	case b == 1:
		return a, true
	default:
		return max(a, b), false
	}
}

// Broadcast applies fn to every pair of cells of r and other, replicating
// size-1 axes. the result is a literal range.
//
// in strict mode incompatible shapes fail with #VALUE!. in lenient mode the
// result has the union shape and any cell where either input has no value
// at that position (axis not 1 and index past its size) gets MismatchFill
// without calling fn.
func (r *Range) Broadcast(other *Range, fn func(a, b Scalar) (Scalar, error), opts ...BroadcastOptions) (*Range, error) {
	var o BroadcastOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	width, height, ok := BroadcastShape(r.width, r.height, other.width, other.height)
	if !ok && !o.Lenient {
		return nil, newFormulaErrorf(ErrorCodeValue, "cannot broadcast %dx%d with %dx%d", r.height, r.width, other.height, other.width)
	}
	fill, err := NormalizeScalar(o.MismatchFill)
	if err != nil {
		return nil, err
	}

	out := newRange(width, height, true)
	entries := make([]entry, 0, width*height)
	for col := 0; col < width; col++ {
		ac, aok := broadcastIndex(col, r.width)
		bc, bok := broadcastIndex(col, other.width)
		for row := 0; row < height; row++ {
			ar, arok := broadcastIndex(row, r.height)
			br, brok := broadcastIndex(row, other.height)
			var v Scalar
			if aok && bok && arok && brok {
				v, err = fn(r.At(ar, ac), other.At(br, bc))
				if err != nil {
					return nil, err
				}
				if v, err = NormalizeScalar(v); err != nil {
					return nil, err
				}
			} else {
				v = fill
			}
			if v != nil {
				entries = append(entries, entry{idx: out.index(row, col), v: v})
			}
		}
	}
	// produced in column-major order already
	out.entries = entries
	return out, nil
}

// broadcastIndex maps an output index onto an input axis of size n
func broadcastIndex(i, n int) (int, bool) {
	if n == 1 {
		return 0, true
	}
	return i, i < n
}

// BroadcastScalar applies fn(cell, v) to every cell of r
func (r *Range) BroadcastScalar(v Scalar, fn func(a, b Scalar) (Scalar, error)) (*Range, error) {
	other, err := NewScalarRange(v)
	if err != nil {
		return nil, err
	}
	return r.Broadcast(other, fn)
}
