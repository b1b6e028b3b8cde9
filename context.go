package calc

import (
	"context"
	"time"

	"go.alis.build/alog"
)

// ExecutionContext is everything a function may ask of the host while it
// computes. implementations are used by one computation at a time.
type ExecutionContext interface {
	// Context carries cancellation and logging metadata
	Context() context.Context
	// Position is the sheet and cell being computed
	Position() (sheet string, cell CellCoords)
	// ResolveReference turns a reference string into a reference range,
	// #REF! when it cannot be parsed or does not resolve
	ResolveReference(ref string) (*Range, error)
	// ResolveCoords reads a rectangle of a sheet ("" for the current one)
	ResolveCoords(sheet string, coords Coords) (*Range, error)
	// SerialToTime and TimeToSerial convert serial dates in the workbook's
	// date system
	SerialToTime(serial float64) (time.Time, error)
	TimeToSerial(t time.Time) (float64, error)
	// Now is the current time of the host clock
	Now() time.Time
	// MarkVolatile flags the computation for re-evaluation on every
	// recalculation
	MarkVolatile()
	IsVolatile() bool
	// SetFormatHint suggests a number format for the result cell. stored
	// formatting is never changed.
	SetFormatHint(format string)
	FormatHint() string
	// LookupFunction finds a function by case-insensitive name
	LookupFunction(name string) (*Function, bool)
	// Runtime exposes locale and workbook facts
	Runtime() RuntimeInfo
	// Errors is the error table of the runtime
	Errors() *ErrorTable
}

// Evaluation is the ExecutionContext for computing one cell of a workbook
type Evaluation struct {
	ctx      context.Context
	runtime  *Runtime
	workbook *Workbook
	sheet    string
	cell     CellCoords
	volatile bool
	format   string
}

var _ ExecutionContext = (*Evaluation)(nil)

// NewEvaluation creates a context for computing cell on sheet
func (rt *Runtime) NewEvaluation(ctx context.Context, wb *Workbook, sheet string, cell CellCoords) *Evaluation {
	return &Evaluation{
		ctx:      ctx,
		runtime:  rt,
		workbook: wb,
		sheet:    sheet,
		cell:     cell,
	}
}

func (e *Evaluation) Context() context.Context {
	return e.ctx
}

func (e *Evaluation) Position() (string, CellCoords) {
	return e.sheet, e.cell
}

func (e *Evaluation) ResolveReference(ref string) (*Range, error) {
	parsed, err := ParseReference(ref)
	if err != nil {
		alog.Debugf(e.ctx, "unresolvable reference %q: %v", ref, err)
		return nil, err
	}
	if parsed.Name != "" {
		name, ok := e.workbook.Names().Resolve(parsed.Name)
		if !ok {
			return nil, newFormulaErrorf(ErrorCodeRef, "undefined name %s", parsed.Name)
		}
		return e.ResolveCoords(name.Sheet, name.Coords)
	}
	return e.ResolveCoords(parsed.Sheet, parsed.Coords.Coords)
}

func (e *Evaluation) ResolveCoords(sheet string, coords Coords) (*Range, error) {
	if sheet == "" {
		sheet = e.sheet
	}
	return e.workbook.Range(sheet, coords)
}

func (e *Evaluation) SerialToTime(serial float64) (time.Time, error) {
	return SerialToTime(serial, e.runtime.info.DateSystem())
}

func (e *Evaluation) TimeToSerial(t time.Time) (float64, error) {
	return TimeToSerial(t, e.runtime.info.DateSystem())
}

func (e *Evaluation) Now() time.Time {
	return e.runtime.clock.Now()
}

func (e *Evaluation) MarkVolatile() {
	e.volatile = true
}

func (e *Evaluation) IsVolatile() bool {
	return e.volatile
}

func (e *Evaluation) SetFormatHint(format string) {
	e.format = format
}

func (e *Evaluation) FormatHint() string {
	return e.format
}

func (e *Evaluation) LookupFunction(name string) (*Function, bool) {
	return e.runtime.functions.Lookup(name)
}

func (e *Evaluation) Runtime() RuntimeInfo {
	return e.runtime.info
}

func (e *Evaluation) Errors() *ErrorTable {
	return e.runtime.errors
}

// Call resolves and runs a function by name. unknown names give #NAME?.
func (e *Evaluation) Call(name string, args ...Param) (any, error) {
	f, ok := e.LookupFunction(name)
	if !ok {
		return nil, newFormulaErrorf(ErrorCodeName, "unknown function %s", name)
	}
	return f.Call(e, args)
}
