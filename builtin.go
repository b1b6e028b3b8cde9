package calc

import (
	"math"
	"math/rand/v2"
	"time"

	"google.golang.org/genproto/googleapis/type/date"
)

// Clock is the time source behind NOW and TODAY
type Clock interface {
	Now() time.Time
}

// WallClock reads the system clock
type WallClock struct{}

func (*WallClock) Now() time.Time { return time.Now() }

// RandomGenerator is the source behind RAND, values in [0, 1)
type RandomGenerator interface {
	Float64() float64
}

// DefaultRandomGenerator draws from the global math/rand/v2 source
type DefaultRandomGenerator struct{}

func (*DefaultRandomGenerator) Float64() float64 { return rand.Float64() }

// BuiltIn is one built-in function ready for registration
type BuiltIn struct {
	Declaration FunctionDeclaration
	Descriptors []FunctionDescriptor
	Impl        FunctionImpl
}

// BuiltInFunctions holds the built-in function library
type BuiltInFunctions struct {
	clock Clock
	rng   RandomGenerator
}

// NewBuiltInFunctions creates the library with the given time and random
// sources
func NewBuiltInFunctions(clock Clock, rng RandomGenerator) *BuiltInFunctions {
	return &BuiltInFunctions{clock: clock, rng: rng}
}

func numberParam(name string) ParameterDeclaration {
	return ParameterDeclaration{Name: name, ValueType: ValueType{Type: ScalarTypeNumber}}
}

func anyValue(name string) ParameterDeclaration {
	return ParameterDeclaration{Name: name, ValueType: ValueType{Type: ScalarTypeNull, Shape: ShapeMaterializedArray}}
}

func numbers(name string) ParameterDeclaration {
	return ParameterDeclaration{Name: name, Rest: true, ValueType: ValueType{Type: ScalarTypeNumber, Shape: ShapeReference}}
}

func returns(t ScalarType, shape RangeShape) ReturnType {
	return ReturnType{ValueType: ValueType{Type: t, Shape: shape}}
}

func english(display, category, summary string, params ...ParameterHelp) FunctionDescriptor {
	return FunctionDescriptor{
		Locale:      "en",
		DisplayName: display,
		Category:    category,
		Summary:     summary,
		Parameters:  params,
	}
}

// Definitions returns every built-in with its declaration and English
// descriptor
func (bf *BuiltInFunctions) Definitions() []BuiltIn {
	optional := func(p ParameterDeclaration) ParameterDeclaration {
		p.Optional = true
		return p
	}
	return []BuiltIn{
		{
			Declaration: FunctionDeclaration{Name: "SUM", Parameters: []ParameterDeclaration{numbers("number")}, Return: returns(ScalarTypeNumber, ShapeLiteral)},
			Descriptors: []FunctionDescriptor{english("SUM", "Math", "Adds its arguments.", ParameterHelp{Name: "number", Description: "Numbers or ranges to add."})},
			Impl:        bf.SUM,
		},
		{
			Declaration: FunctionDeclaration{Name: "COUNT", Parameters: []ParameterDeclaration{anyValueRest("value")}, Return: returns(ScalarTypeNumber, ShapeLiteral)},
			Descriptors: []FunctionDescriptor{english("COUNT", "Statistical", "Counts the numbers in the arguments.", ParameterHelp{Name: "value", Description: "Values or ranges to count."})},
			Impl:        bf.COUNT,
		},
		{
			Declaration: FunctionDeclaration{
				Name:       "IF",
				Parameters: []ParameterDeclaration{anyValue("condition"), optional(anyValue("value_if_true")), optional(anyValue("value_if_false"))},
				Return:     returns(ScalarTypeNull, ShapeMaterializedArray),
			},
			Descriptors: []FunctionDescriptor{english("IF", "Logical", "Returns one value when a condition holds and another when it does not.")},
			Impl:        bf.IF,
		},
		{
			Declaration: FunctionDeclaration{Name: "IFERROR", Parameters: []ParameterDeclaration{anyValue("value"), anyValue("value_if_error")}, Return: returns(ScalarTypeNull, ShapeMaterializedArray)},
			Descriptors: []FunctionDescriptor{english("IFERROR", "Logical", "Returns a fallback when a value is an error.")},
			Impl:        bf.IFERROR,
		},
		{
			Declaration: FunctionDeclaration{Name: "ERROR.TYPE", Parameters: []ParameterDeclaration{anyValue("error_val")}, Return: returns(ScalarTypeNumber, ShapeLiteral)},
			Descriptors: []FunctionDescriptor{english("ERROR.TYPE", "Information", "Returns the number of an error value.")},
			Impl:        bf.ERRORTYPE,
		},
		{
			Declaration: FunctionDeclaration{Name: "DATE", Parameters: []ParameterDeclaration{numberParam("year"), numberParam("month"), numberParam("day")}, Return: returns(ScalarTypeNumber, ShapeLiteral)},
			Descriptors: []FunctionDescriptor{english("DATE", "Date", "Returns the serial number of a date.")},
			Impl:        bf.DATE,
		},
		{
			Declaration: FunctionDeclaration{Name: "NOW", Return: returns(ScalarTypeNumber, ShapeLiteral), Volatile: true},
			Descriptors: []FunctionDescriptor{english("NOW", "Date", "Returns the current date and time.")},
			Impl:        bf.NOW,
		},
		{
			Declaration: FunctionDeclaration{Name: "TODAY", Return: returns(ScalarTypeNumber, ShapeLiteral), Volatile: true},
			Descriptors: []FunctionDescriptor{english("TODAY", "Date", "Returns the current date.")},
			Impl:        bf.TODAY,
		},
		{
			Declaration: FunctionDeclaration{Name: "RAND", Return: returns(ScalarTypeNumber, ShapeLiteral), Volatile: true},
			Descriptors: []FunctionDescriptor{english("RAND", "Math", "Returns a random number between 0 and 1.")},
			Impl:        bf.RAND,
		},
		{
			Declaration: FunctionDeclaration{Name: "TRANSPOSE", Parameters: []ParameterDeclaration{anyValue("array")}, Return: returns(ScalarTypeNull, ShapeMaterializedArray)},
			Descriptors: []FunctionDescriptor{english("TRANSPOSE", "Lookup", "Swaps the rows and columns of an array.")},
			Impl:        bf.TRANSPOSE,
		},
	}
}

func anyValueRest(name string) ParameterDeclaration {
	p := anyValue(name)
	p.Rest = true
	p.Shape = ShapeReference
	return p
}

// paramRange views any argument as a range. scalars become 1x1 ranges.
func paramRange(p Param) (*Range, error) {
	switch p.Kind {
	case ParamMissing:
		return MustNewScalarRange(nil), nil
	case ParamLiteral:
		return NewScalarRange(p.Value)
	case ParamUnion:
		if len(p.Union) != 1 {
			return nil, NewFormulaError(ErrorCodeValue, "union arguments are not supported here")
		}
		return p.Union[0], nil
	default:
		return p.Range, nil
	}
}

func (bf *BuiltInFunctions) SUM(ctx ExecutionContext, args []Param) (any, error) {
	sum := 0.0
	err := FlattenParams(args, FlattenOptions{Type: ScalarTypeNumber, AllowUnion: true, MinSize: 1}, func(v Scalar, _ Item) error {
		if num, ok := v.(float64); ok {
			sum += num
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// COUNT counts numbers. literal arguments also count when they read as a
// number; cells only when they hold one.
func (bf *BuiltInFunctions) COUNT(ctx ExecutionContext, args []Param) (any, error) {
	count := 0.0
	err := FlattenParams(args, FlattenOptions{AllowUnion: true, PassErrors: true}, func(v Scalar, item Item) error {
		if _, ok := v.(float64); ok {
			count++
			return nil
		}
		if item.Kind == ParamLiteral {
			if _, err := ToNumber(v, true); err == nil && v != nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return count, nil
}

// IF picks value_if_true or value_if_false per cell of the condition.
// array arguments of different shapes broadcast to their union, cells
// without a counterpart in every argument become #N/A.
func (bf *BuiltInFunctions) IF(ctx ExecutionContext, args []Param) (any, error) {
	cond, err := paramRange(args[0])
	if err != nil {
		return nil, err
	}
	whenTrue := MustNewScalarRange(0.0)
	if len(args) > 1 && args[1].Kind != ParamMissing {
		if whenTrue, err = paramRange(args[1]); err != nil {
			return nil, err
		}
	}
	whenFalse := MustNewScalarRange(false)
	if len(args) > 2 {
		if args[2].Kind == ParamMissing {
			whenFalse = MustNewScalarRange(0.0)
		} else if whenFalse, err = paramRange(args[2]); err != nil {
			return nil, err
		}
	}

	pick := func(c, t, f Scalar) Scalar {
		ok, err := IsTruthy(c)
		if fe, isFormula := AsFormulaError(err); isFormula {
			return fe
		}
		v := f
		if ok {
			v = t
		}
		if v == nil {
			return 0.0
		}
		return v
	}
	if cond.IsSingleCell() && whenTrue.IsSingleCell() && whenFalse.IsSingleCell() {
		return pick(cond.TopLeft(), whenTrue.TopLeft(), whenFalse.TopLeft()), nil
	}

	width := max(cond.Width(), whenTrue.Width(), whenFalse.Width())
	height := max(cond.Height(), whenTrue.Height(), whenFalse.Height())
	na := ctx.Errors().ByCode(ErrorCodeNA)
	updater := NewEmptyRange(width, height).StartIncrementalUpdates(ctx.Context(), UpdaterOptions{Order: UpdateColumnMajor})
	for col := 0; col < width; col++ {
		for row := 0; row < height; row++ {
			var v Scalar = na
			c, okC := broadcastAt(cond, row, col)
			t, okT := broadcastAt(whenTrue, row, col)
			f, okF := broadcastAt(whenFalse, row, col)
			if okC && okT && okF {
				v = pick(c, t, f)
			}
			if err := updater.PushAt(row, col, v); err != nil {
				return nil, err
			}
		}
	}
	return updater.Apply()
}

// broadcastAt reads r at an output position, replicating size-1 axes
func broadcastAt(r *Range, row, col int) (Scalar, bool) {
	rr, okR := broadcastIndex(row, r.Height())
	cc, okC := broadcastIndex(col, r.Width())
	if !okR || !okC {
		return nil, false
	}
	return r.At(rr, cc), true
}

// IFERROR replaces errors in value with value_if_error, cell by cell for
// array values
func (bf *BuiltInFunctions) IFERROR(ctx ExecutionContext, args []Param) (any, error) {
	fallback, err := Accept(args[1], AcceptOptions{Optional: true})
	if fe, ok := AsFormulaError(err); ok {
		fallback = fe
	} else if err != nil {
		return nil, err
	}
	if fallback == nil {
		fallback = 0.0
	}
	if !args[0].IsArrayLike() {
		v, _ := args[0].scalarValue()
		if asError(v) != nil {
			return fallback, nil
		}
		if v == nil {
			return 0.0, nil
		}
		return v, nil
	}
	src, err := paramRange(args[0])
	if err != nil {
		return nil, err
	}
	return src.Map(func(_ CellCoords, v Scalar) (Scalar, error) {
		if asError(v) != nil {
			return fallback, nil
		}
		return v, nil
	})
}

// ERRORTYPE returns the code of an error value, #N/A for anything else
func (bf *BuiltInFunctions) ERRORTYPE(ctx ExecutionContext, args []Param) (any, error) {
	v, _ := args[0].scalarValue()
	fe := asError(v)
	if fe == nil {
		return nil, ctx.Errors().NewTyped(ErrorCodeNA, "value is not an error", v)
	}
	return float64(ctx.Errors().ByCode(fe.Code).Code), nil
}

// DATE builds a serial date. years below 1900 are offset from 1900, month
// and day overflow roll into the next unit.
const maxDatePart = 1e7

func (bf *BuiltInFunctions) DATE(ctx ExecutionContext, args []Param) (any, error) {
	var parts [3]int
	for i := range parts {
		n, err := AcceptNumber(args[i], false, true)
		if err != nil {
			return nil, err
		}
		// anything larger lands past 9999-12-31 anyway
		if math.Abs(n) > maxDatePart {
			return nil, newFormulaErrorf(ErrorCodeNum, "date argument %v is out of range", n)
		}
		parts[i] = int(n)
	}
	year, month, day := parts[0], parts[1], parts[2]
	if year < 0 || year >= 10000 {
		return nil, newFormulaErrorf(ErrorCodeNum, "year %d is out of range", year)
	}
	if year < 1900 {
		year += 1900
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	serial, err := DateToSerial(&date.Date{Year: int32(t.Year()), Month: int32(t.Month()), Day: int32(t.Day())}, ctx.Runtime().DateSystem())
	if err != nil {
		return nil, err
	}
	ctx.SetFormatHint("yyyy-mm-dd")
	return serial, nil
}

func (bf *BuiltInFunctions) NOW(ctx ExecutionContext, args []Param) (any, error) {
	ctx.MarkVolatile()
	serial, err := ctx.TimeToSerial(ctx.Now())
	if err != nil {
		return nil, err
	}
	ctx.SetFormatHint("yyyy-mm-dd hh:mm:ss")
	return serial, nil
}

func (bf *BuiltInFunctions) TODAY(ctx ExecutionContext, args []Param) (any, error) {
	ctx.MarkVolatile()
	now := ctx.Now()
	serial, err := ctx.TimeToSerial(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	ctx.SetFormatHint("yyyy-mm-dd")
	return serial, nil
}

func (bf *BuiltInFunctions) RAND(ctx ExecutionContext, args []Param) (any, error) {
	ctx.MarkVolatile()
	return bf.rng.Float64(), nil
}

func (bf *BuiltInFunctions) TRANSPOSE(ctx ExecutionContext, args []Param) (any, error) {
	src, err := paramRange(args[0])
	if err != nil {
		return nil, err
	}
	return src.Transpose(), nil
}
