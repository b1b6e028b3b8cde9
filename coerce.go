package calc

import (
	"context"

	"go.alis.build/alog"
)

// ToNumber converts a single scalar to a number.
//
// numbers pass through, empty cells read as 0, booleans become 0/1 only
// when allowBoolean is set, text is parsed and fails with #VALUE! when
// empty or not numeric. errors are returned as-is.
func ToNumber(v Scalar, allowBoolean bool) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case nil:
		return 0, nil
	case bool:
		if !allowBoolean {
			return 0, NewFormulaError(ErrorCodeValue, "boolean is not allowed as a number here")
		}
		return boolToNumber(x), nil
	case string:
		if x == "" {
			return 0, NewFormulaError(ErrorCodeValue, "empty text is not a number")
		}
		num, ok := ParseNumber(x)
		if !ok {
			return 0, newFormulaErrorf(ErrorCodeValue, "%q is not a number", x)
		}
		return num, nil
	case *FormulaError:
		return 0, x
	default:
		return 0, newFormulaErrorf(ErrorCodeValue, "%s is not a number", TypeOf(v))
	}
}

// AcceptNumber converts an argument to a number. a range or array with a
// single cell reads that cell; a larger one fails with #VALUE! unless
// allowArraylike is set, in which case its top-left cell is used.
func AcceptNumber(p Param, allowArraylike, allowBoolean bool) (float64, error) {
	switch p.Kind {
	case ParamMissing:
		return 0, nil
	case ParamLiteral, ParamCellRef:
		return ToNumber(p.Value, allowBoolean)
	case ParamUnion:
		if len(p.Union) == 1 {
			return AcceptNumber(RangeParam(p.Union[0]), allowArraylike, allowBoolean)
		}
		if !allowArraylike || len(p.Union) == 0 {
			return 0, NewFormulaError(ErrorCodeValue, "expected a number, got a union of ranges")
		}
		return ToNumber(p.Union[0].TopLeft(), allowBoolean)
	default:
		if p.size() != 1 && !allowArraylike {
			return 0, newFormulaErrorf(ErrorCodeValue, "expected a number, got a %dx%d %s", p.Range.Height(), p.Range.Width(), p.Kind)
		}
		return ToNumber(p.Range.TopLeft(), allowBoolean)
	}
}

// AcceptOptions configures Accept, AcceptArray and AcceptFlatArray
type AcceptOptions struct {
	// Type is the requested type; ScalarTypeNull returns values unparsed
	Type ScalarType
	// Optional allows the argument to be missing. Default is returned in
	// that case, or the zero value of Type when Default is nil.
	Optional bool
	// Default replaces a missing argument (implies Optional) and fills
	// empty cells of array arguments
	Default Scalar
	// AllowSingleValueAsArray lets a scalar stand in for a 1x1 array
	AllowSingleValueAsArray bool
}

// zeroOf is the value a missing argument takes for a target type
func zeroOf(t ScalarType) Scalar {
	switch t {
	case ScalarTypeNumber:
		return 0.0
	case ScalarTypeString:
		return ""
	case ScalarTypeBoolean:
		return false
	default:
		return nil
	}
}

// missing resolves an absent argument per opts
func (o AcceptOptions) missing() (Scalar, error) {
	if o.Default != nil {
		return NormalizeScalar(o.Default)
	}
	if o.Optional {
		return zeroOf(o.Type), nil
	}
	return nil, NewFormulaError(ErrorCodeNA, "missing required argument")
}

// Accept resolves an argument to a single value of opts.Type. array-shaped
// arguments contribute their top-left cell. errors short-circuit.
func Accept(p Param, opts AcceptOptions) (Scalar, error) {
	v, present := p.scalarValue()
	if !present || (v == nil && !p.IsArrayLike()) {
		return opts.missing()
	}
	if err := asError(v); err != nil {
		return nil, err
	}
	if opts.Type == ScalarTypeNull {
		return v, nil
	}
	return coerceTo(v, opts.Type)
}

// coerceTo applies the argument conversion rules for one value
func coerceTo(v Scalar, t ScalarType) (Scalar, error) {
	if err := asError(v); err != nil {
		return nil, err
	}
	switch t {
	case ScalarTypeNull:
		return v, nil
	case ScalarTypeNumber:
		return ToNumber(v, true)
	case ScalarTypeString:
		switch x := v.(type) {
		case nil:
			return "", nil
		case bool:
			return boolToText(x), nil
		}
		if out, ok := coerceScalar(v, ScalarTypeString); ok {
			return out, nil
		}
	case ScalarTypeBoolean:
		if v == nil {
			return false, nil
		}
		// text never becomes a boolean, not even "TRUE"
		if out, ok := coerceScalar(v, ScalarTypeBoolean); ok {
			return out, nil
		}
	case ScalarTypeRichData:
		if out, ok := coerceScalar(v, ScalarTypeRichData); ok {
			return out, nil
		}
	}
	return nil, newFormulaErrorf(ErrorCodeValue, "cannot use %s as %s", TypeOf(v), t)
}

// AcceptArray resolves an argument to dense row-major rows. empty cells are
// filled with opts.Default and, when opts.Type is set, every cell is
// converted to it. a scalar is wrapped as a 1x1 array only when
// AllowSingleValueAsArray is set.
func AcceptArray(p Param, opts AcceptOptions) ([][]Scalar, error) {
	var src *Range
	switch p.Kind {
	case ParamMissing:
		v, err := opts.missing()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return [][]Scalar{}, nil
		}
		return [][]Scalar{{v}}, nil
	case ParamLiteral:
		if err := asError(p.Value); err != nil {
			return nil, err
		}
		if !opts.AllowSingleValueAsArray {
			return nil, newFormulaErrorf(ErrorCodeValue, "expected an array, got %s", TypeOf(p.Value))
		}
		r, err := NewScalarRange(p.Value)
		if err != nil {
			return nil, err
		}
		src = r
	case ParamCellRef, ParamArray, ParamRange:
		src = p.Range
	case ParamUnion:
		if len(p.Union) != 1 {
			return nil, NewFormulaError(ErrorCodeValue, "expected an array, got a union of ranges")
		}
		src = p.Union[0]
	}

	def, err := NormalizeScalar(opts.Default)
	if err != nil {
		return nil, err
	}
	rows := src.ToRows()
	for _, row := range rows {
		for j, v := range row {
			if v == nil {
				v = def
			}
			if opts.Type != ScalarTypeNull && v != nil {
				if v, err = coerceTo(v, opts.Type); err != nil {
					return nil, err
				}
			}
			row[j] = v
		}
	}
	return rows, nil
}

// AcceptFlatArray is AcceptArray flattened in row-major order
func AcceptFlatArray(p Param, opts AcceptOptions) ([]Scalar, error) {
	rows, err := AcceptArray(p, opts)
	if err != nil {
		return nil, err
	}
	var out []Scalar
	for _, row := range rows {
		out = append(out, row...)
	}
	return out, nil
}

// FlattenOptions configures FlattenParams
type FlattenOptions struct {
	// Type is the requested type for every delivered value
	Type ScalarType
	// AllowUnion accepts union arguments; they fail with #VALUE! otherwise
	AllowUnion bool
	// Default is delivered for missing arguments; missing arguments are
	// skipped when it is nil
	Default Scalar
	// MinSize is the minimum number of arguments, #N/A below it
	MinSize int
	// PassErrors delivers error values to the hook instead of failing
	PassErrors bool
}

// FlattenParams walks a variadic argument list and delivers every value to
// hook. literals are converted with Accept, single-cell references are
// delivered as-is, and ranges, arrays and unions are flattened row by row
// with the read coercion of their origin: literal arrays coerce, references
// skip values that do not fit Type. a hook error stops the walk.
func FlattenParams(params []Param, opts FlattenOptions, hook func(v Scalar, item Item) error) error {
	if len(params) < opts.MinSize {
		return newFormulaErrorf(ErrorCodeNA, "expected at least %d arguments, got %d", opts.MinSize, len(params))
	}
	deliver := func(v Scalar, item Item) error {
		if err := asError(v); err != nil && !opts.PassErrors {
			return err
		}
		return hook(v, item)
	}
	flattenRange := func(arg int, kind ParamKind, r *Range) error {
		read := IterOptions{Order: RowMajor, ValueOptions: ValueOptions{Type: opts.Type}}
		for c, v := range r.Entries(read) {
			cell := c
			if !r.IsLiteral() {
				cell = CellCoords{ColIndex: r.origin.ColIndex + c.ColIndex, RowIndex: r.origin.RowIndex + c.RowIndex}
			}
			if err := deliver(v, Item{Arg: arg, Kind: kind, Cell: cell}); err != nil {
				return err
			}
		}
		return nil
	}

	for i, p := range params {
		switch p.Kind {
		case ParamMissing:
			if opts.Default == nil {
				continue
			}
			v, err := NormalizeScalar(opts.Default)
			if err != nil {
				return err
			}
			if err := deliver(v, Item{Arg: i, Kind: p.Kind}); err != nil {
				return err
			}
		case ParamLiteral:
			v, err := Accept(p, AcceptOptions{Type: opts.Type, Optional: true, Default: opts.Default})
			if err != nil {
				fe, ok := AsFormulaError(err)
				if !ok || !opts.PassErrors {
					return err
				}
				v = fe
			}
			if err := deliver(v, Item{Arg: i, Kind: p.Kind}); err != nil {
				return err
			}
		case ParamCellRef:
			if err := deliver(p.Value, Item{Arg: i, Kind: p.Kind, Cell: p.Range.Origin()}); err != nil {
				return err
			}
		case ParamArray, ParamRange:
			if err := flattenRange(i, p.Kind, p.Range); err != nil {
				return err
			}
		case ParamUnion:
			if !opts.AllowUnion {
				return NewFormulaError(ErrorCodeValue, "union arguments are not supported here")
			}
			for _, r := range p.Union {
				if err := flattenRange(i, p.Kind, r); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// FlattenDeep concatenates nested slices into one flat slice. a value that
// is not a slice is wrapped as a single element and logged, callers are
// expected to pass slices.
func FlattenDeep(ctx context.Context, v any) []Scalar {
	switch x := v.(type) {
	case []any:
		return flattenDeep(x, make([]Scalar, 0, len(x)))
	case [][]Scalar:
		out := make([]Scalar, 0)
		for _, row := range x {
			out = flattenDeep(row, out)
		}
		return out
	case *Range:
		return x.Flatten(IterOptions{Order: RowMajor})
	default:
		alog.Warnf(ctx, "FlattenDeep called with %T instead of a slice, wrapping it", v)
		return []Scalar{v}
	}
}

func flattenDeep(values []any, out []Scalar) []Scalar {
	for _, v := range values {
		switch x := v.(type) {
		case []any:
			out = flattenDeep(x, out)
		case [][]Scalar:
			for _, row := range x {
				out = flattenDeep(row, out)
			}
		case *Range:
			out = append(out, x.Flatten(IterOptions{Order: RowMajor})...)
		default:
			out = append(out, v)
		}
	}
	return out
}
