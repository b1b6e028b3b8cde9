package calc

import (
	"errors"
	"fmt"
)

// ErrorCode represents the numbered spreadsheet error taxonomy. the numeric
// values are persisted by consumers, so they must never be renumbered.
// codes 15, 17 and 18 are reserved and intentionally unused.
type ErrorCode uint8

const (
	ErrorCodeParse       ErrorCode = 0  // #PARSE! - formula text could not be parsed
	ErrorCodeNull        ErrorCode = 1  // #NULL! - no cells in common between ranges
	ErrorCodeDiv0        ErrorCode = 2  // #DIV/0! - division by zero
	ErrorCodeValue       ErrorCode = 3  // #VALUE! - wrong type of argument or operand
	ErrorCodeRef         ErrorCode = 4  // #REF! - invalid cell reference
	ErrorCodeName        ErrorCode = 5  // #NAME? - unrecognized function or name
	ErrorCodeNum         ErrorCode = 6  // #NUM! - number out of range
	ErrorCodeNA          ErrorCode = 7  // #N/A - value not available
	ErrorCodeGettingData ErrorCode = 8  // #GETTING_DATA - result still loading
	ErrorCodeSpill       ErrorCode = 9  // #SPILL! - array result blocked
	ErrorCodeConnect     ErrorCode = 10 // #CONNECT! - external service unreachable
	ErrorCodeBlocked     ErrorCode = 11 // #BLOCKED! - access to a resource blocked
	ErrorCodeUnknown     ErrorCode = 12 // #UNKNOWN! - unrecognized error
	ErrorCodeField       ErrorCode = 13 // #FIELD! - rich data field missing
	ErrorCodeCalc        ErrorCode = 14 // #CALC! - calculation engine limitation
	ErrorCodeBusy        ErrorCode = 16 // #BUSY! - host busy
	ErrorCodePython      ErrorCode = 19 // #PYTHON! - external interpreter failure
	ErrorCodeTimeout     ErrorCode = 20 // #TIMEOUT! - computation timed out
)

// errorLabels is the fixed code/label compatibility table
var errorLabels = map[ErrorCode]string{
	ErrorCodeParse:       "#PARSE!",
	ErrorCodeNull:        "#NULL!",
	ErrorCodeDiv0:        "#DIV/0!",
	ErrorCodeValue:       "#VALUE!",
	ErrorCodeRef:         "#REF!",
	ErrorCodeName:        "#NAME?",
	ErrorCodeNum:         "#NUM!",
	ErrorCodeNA:          "#N/A",
	ErrorCodeGettingData: "#GETTING_DATA",
	ErrorCodeSpill:       "#SPILL!",
	ErrorCodeConnect:     "#CONNECT!",
	ErrorCodeBlocked:     "#BLOCKED!",
	ErrorCodeUnknown:     "#UNKNOWN!",
	ErrorCodeField:       "#FIELD!",
	ErrorCodeCalc:        "#CALC!",
	ErrorCodeBusy:        "#BUSY!",
	ErrorCodePython:      "#PYTHON!",
	ErrorCodeTimeout:     "#TIMEOUT!",
}

// Valid reports whether the code is part of the taxonomy
func (c ErrorCode) Valid() bool {
	_, ok := errorLabels[c]
	return ok
}

// Label returns the display label for the code, or the #UNKNOWN! label for
// reserved and out-of-range codes.
func (c ErrorCode) Label() string {
	if label, ok := errorLabels[c]; ok {
		return label
	}
	return errorLabels[ErrorCodeUnknown]
}

// IsSystem reports whether the code belongs to the runtime family (host or
// environment conditions) rather than the user-facing formula family.
func (c ErrorCode) IsSystem() bool {
	switch c {
	case ErrorCodeGettingData, ErrorCodeConnect, ErrorCodeBlocked, ErrorCodeUnknown,
		ErrorCodeBusy, ErrorCodePython, ErrorCodeTimeout:
		return true
	default:
		return false
	}
}

// ErrorCodeFromLabel finds the code for a display label. labels are matched
// exactly as they are displayed.
func ErrorCodeFromLabel(label string) (ErrorCode, bool) {
	for code, l := range errorLabels {
		if l == label {
			return code, true
		}
	}
	return ErrorCodeUnknown, false
}

// FormulaError is a spreadsheet error value. it is both a Scalar that can be
// stored in a Range and a Go error that can be returned from coercion.
type FormulaError struct {
	Code    ErrorCode
	Message string
	Details any
}

// NewFormulaError creates a fresh error instance for code. an empty message
// falls back to the display label.
func NewFormulaError(code ErrorCode, message string) *FormulaError {
	if !code.Valid() {
		code = ErrorCodeUnknown
	}
	if message == "" {
		message = code.Label()
	}
	return &FormulaError{
		Code:    code,
		Message: message,
	}
}

// newFormulaErrorf is the formatted form of NewFormulaError
func newFormulaErrorf(code ErrorCode, format string, args ...any) *FormulaError {
	return NewFormulaError(code, fmt.Sprintf(format, args...))
}

func (e *FormulaError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Label()
}

// Label returns the display label, e.g. "#VALUE!"
func (e *FormulaError) Label() string {
	return e.Code.Label()
}

// IsSystem reports whether the error is a runtime/environment error
func (e *FormulaError) IsSystem() bool {
	return e.Code.IsSystem()
}

// Equals compares errors by code only. the message and details never take
// part in equality, formulas match errors by kind.
func (e *FormulaError) Equals(other *FormulaError) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Code == other.Code
}

// Is lets errors.Is match any FormulaError of the same code
func (e *FormulaError) Is(target error) bool {
	var other *FormulaError
	if !errors.As(target, &other) {
		return false
	}
	return e.Equals(other)
}

// AsFormulaError extracts a FormulaError from an error chain
func AsFormulaError(err error) (*FormulaError, bool) {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ErrorTable holds one built-in singleton per code plus a label index. it is
// populated once by NewErrorTable and only read afterwards.
type ErrorTable struct {
	byCode  map[ErrorCode]*FormulaError
	byLabel map[string]*FormulaError
}

// NewErrorTable builds the singleton registries
func NewErrorTable() *ErrorTable {
	table := &ErrorTable{
		byCode:  make(map[ErrorCode]*FormulaError, len(errorLabels)),
		byLabel: make(map[string]*FormulaError, len(errorLabels)),
	}
	for code, label := range errorLabels {
		builtIn := &FormulaError{Code: code, Message: label}
		table.byCode[code] = builtIn
		table.byLabel[label] = builtIn
	}
	return table
}

// ByCode returns the built-in singleton for code, or the #UNKNOWN! singleton
func (t *ErrorTable) ByCode(code ErrorCode) *FormulaError {
	if e, ok := t.byCode[code]; ok {
		return e
	}
	return t.byCode[ErrorCodeUnknown]
}

// ByLabel returns the built-in singleton for label, or the #UNKNOWN! singleton
func (t *ErrorTable) ByLabel(label string) *FormulaError {
	if e, ok := t.byLabel[label]; ok {
		return e
	}
	return t.byCode[ErrorCodeUnknown]
}

// IsBuiltIn reports whether e is one of the table's singletons
func (t *ErrorTable) IsBuiltIn(e *FormulaError) bool {
	return e != nil && t.byCode[e.Code] == e
}

// NewTyped mints a parameterized, non-singleton instance for code
func (t *ErrorTable) NewTyped(code ErrorCode, message string, details any) *FormulaError {
	builtIn := t.ByCode(code)
	e := NewFormulaError(builtIn.Code, message)
	e.Details = details
	return e
}

// NewTypedFromLabel is NewTyped keyed by display label
func (t *ErrorTable) NewTypedFromLabel(label string, message string, details any) *FormulaError {
	return t.NewTyped(t.ByLabel(label).Code, message, details)
}

// Len returns the number of registered codes
func (t *ErrorTable) Len() int {
	return len(t.byCode)
}
