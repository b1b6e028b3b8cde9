package calc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeLabels(t *testing.T) {
	tests := []struct {
		code  ErrorCode
		label string
	}{
		{ErrorCodeParse, "#PARSE!"},
		{ErrorCodeNull, "#NULL!"},
		{ErrorCodeDiv0, "#DIV/0!"},
		{ErrorCodeValue, "#VALUE!"},
		{ErrorCodeRef, "#REF!"},
		{ErrorCodeName, "#NAME?"},
		{ErrorCodeNum, "#NUM!"},
		{ErrorCodeNA, "#N/A"},
		{ErrorCodeGettingData, "#GETTING_DATA"},
		{ErrorCodeSpill, "#SPILL!"},
		{ErrorCodeConnect, "#CONNECT!"},
		{ErrorCodeBlocked, "#BLOCKED!"},
		{ErrorCodeUnknown, "#UNKNOWN!"},
		{ErrorCodeField, "#FIELD!"},
		{ErrorCodeCalc, "#CALC!"},
		{ErrorCodeBusy, "#BUSY!"},
		{ErrorCodePython, "#PYTHON!"},
		{ErrorCodeTimeout, "#TIMEOUT!"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.True(t, tt.code.Valid())
			assert.Equal(t, tt.label, tt.code.Label())
			code, ok := ErrorCodeFromLabel(tt.label)
			require.True(t, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestReservedErrorCodes(t *testing.T) {
	for _, code := range []ErrorCode{15, 17, 18, 21, 255} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			assert.False(t, code.Valid())
			assert.Equal(t, "#UNKNOWN!", code.Label())
			assert.Equal(t, ErrorCodeUnknown, NewFormulaError(code, "").Code)
		})
	}
	_, ok := ErrorCodeFromLabel("#value!")
	assert.False(t, ok, "labels match exactly")
}

func TestErrorFamilies(t *testing.T) {
	system := []ErrorCode{ErrorCodeGettingData, ErrorCodeConnect, ErrorCodeBlocked, ErrorCodeUnknown, ErrorCodeBusy, ErrorCodePython, ErrorCodeTimeout}
	for _, code := range system {
		assert.True(t, code.IsSystem(), code.Label())
	}
	for _, code := range []ErrorCode{ErrorCodeNull, ErrorCodeDiv0, ErrorCodeValue, ErrorCodeRef, ErrorCodeName, ErrorCodeNum, ErrorCodeNA, ErrorCodeSpill, ErrorCodeCalc} {
		assert.False(t, code.IsSystem(), code.Label())
	}
}

func TestFormulaErrorEquality(t *testing.T) {
	a := NewFormulaError(ErrorCodeDiv0, "division by zero in A1")
	b := NewFormulaError(ErrorCodeDiv0, "another message")
	c := NewFormulaError(ErrorCodeValue, "")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
	assert.Equal(t, "#VALUE!", c.Message)

	wrapped := fmt.Errorf("computing: %w", a)
	fe, ok := AsFormulaError(wrapped)
	require.True(t, ok)
	assert.Same(t, a, fe)
	assert.True(t, errors.Is(wrapped, NewFormulaError(ErrorCodeDiv0, "")))

	_, ok = AsFormulaError(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorTable(t *testing.T) {
	table := NewErrorTable()
	assert.Equal(t, len(errorLabels), table.Len())

	na := table.ByCode(ErrorCodeNA)
	assert.Same(t, na, table.ByCode(ErrorCodeNA))
	assert.Same(t, na, table.ByLabel("#N/A"))
	assert.True(t, table.IsBuiltIn(na))

	assert.Equal(t, ErrorCodeUnknown, table.ByCode(17).Code)
	assert.Equal(t, ErrorCodeUnknown, table.ByLabel("#NOPE!").Code)

	typed := table.NewTyped(ErrorCodeNum, "too large", map[string]any{"limit": 10})
	assert.NotSame(t, table.ByCode(ErrorCodeNum), typed)
	assert.False(t, table.IsBuiltIn(typed))
	assert.True(t, typed.Equals(table.ByCode(ErrorCodeNum)))
	assert.Equal(t, "too large", typed.Message)
	assert.Equal(t, map[string]any{"limit": 10}, typed.Details)

	byLabel := table.NewTypedFromLabel("#SPILL!", "blocked by B2", nil)
	assert.Equal(t, ErrorCodeSpill, byLabel.Code)
}

func TestApplicationError(t *testing.T) {
	cause := errors.New("disk gone")
	err := wrapApplicationError(NotFound, cause, "loading %s", "calc.yaml")
	assert.Equal(t, "loading calc.yaml: disk gone", err.Error())
	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &appErr)
	assert.Equal(t, NotFound, appErr.Code)
	assert.Equal(t, "bad", NewApplicationError(InvalidArgument, "bad").Error())

	assert.Equal(t, NotFound, CodeOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, Unknown, CodeOf(cause))
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, "NOT_FOUND", NotFound.String())
	assert.Equal(t, "CODE(42)", AppErrorCode(42).String())
}
