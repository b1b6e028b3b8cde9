package calc

// ParamKind tags how an argument reached a function
type ParamKind uint8

const (
	// ParamMissing is an omitted positional argument
	ParamMissing ParamKind = iota
	// ParamLiteral is a scalar typed directly into the formula or computed
	ParamLiteral
	// ParamCellRef is a reference to exactly one cell
	ParamCellRef
	// ParamArray is an array literal or computed array
	ParamArray
	// ParamRange is a multi-cell sheet reference
	ParamRange
	// ParamUnion is a list of references, e.g. (A1:A3,C1:C3)
	ParamUnion
)

func (k ParamKind) String() string {
	switch k {
	case ParamMissing:
		return "missing"
	case ParamLiteral:
		return "literal"
	case ParamCellRef:
		return "cell"
	case ParamArray:
		return "array"
	case ParamRange:
		return "range"
	case ParamUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Param is a call argument as produced by the evaluator. exactly one of
// Value, Range or Union is meaningful, depending on Kind.
type Param struct {
	Kind  ParamKind
	Value Scalar
	Range *Range
	Union []*Range
}

// MissingParam is an omitted argument
func MissingParam() Param {
	return Param{Kind: ParamMissing}
}

// LiteralParam wraps a scalar. Go numeric kinds are normalized to float64;
// unsupported values become #VALUE!.
func LiteralParam(v any) Param {
	s, err := NormalizeScalar(v)
	if err != nil {
		s = asError(err)
	}
	return Param{Kind: ParamLiteral, Value: s}
}

// CellRefParam wraps a single-cell reference range
func CellRefParam(r *Range) Param {
	return Param{Kind: ParamCellRef, Value: r.TopLeft(), Range: r}
}

// ArrayParam wraps a literal or computed array
func ArrayParam(r *Range) Param {
	return Param{Kind: ParamArray, Range: r}
}

// RangeParam wraps a sheet reference. single-cell references become
// ParamCellRef.
func RangeParam(r *Range) Param {
	if r.IsSingleCell() && !r.IsLiteral() {
		return CellRefParam(r)
	}
	if r.IsLiteral() {
		return ArrayParam(r)
	}
	return Param{Kind: ParamRange, Range: r}
}

// UnionParam wraps a union of references
func UnionParam(ranges ...*Range) Param {
	return Param{Kind: ParamUnion, Union: ranges}
}

// IsArrayLike reports whether the argument carries more than a scalar
func (p Param) IsArrayLike() bool {
	return p.Kind == ParamArray || p.Kind == ParamRange || p.Kind == ParamUnion
}

// scalarValue extracts the leading value of an argument. ok=false when the
// argument is missing.
func (p Param) scalarValue() (Scalar, bool) {
	switch p.Kind {
	case ParamMissing:
		return nil, false
	case ParamLiteral, ParamCellRef:
		return p.Value, true
	case ParamArray, ParamRange:
		return p.Range.TopLeft(), true
	case ParamUnion:
		if len(p.Union) == 0 {
			return nil, false
		}
		return p.Union[0].TopLeft(), true
	}
	return nil, false
}

// size returns the number of cells an argument spans
func (p Param) size() int {
	switch p.Kind {
	case ParamMissing:
		return 0
	case ParamArray, ParamRange:
		return p.Range.Width() * p.Range.Height()
	case ParamUnion:
		n := 0
		for _, r := range p.Union {
			n += r.Width() * r.Height()
		}
		return n
	default:
		return 1
	}
}

// Item describes where a flattened value came from
type Item struct {
	Arg  int        // argument position
	Kind ParamKind  // kind of the argument
	Cell CellCoords // sheet position for references, array position otherwise
}
