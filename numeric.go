package calc

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses spreadsheet numeric text: optional sign, digits with
// an optional decimal point, an optional exponent and an optional trailing
// percent sign. surrounding whitespace is ignored. "NaN", "Inf", hex
// floats and empty text are rejected.
func ParseNumber(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(s[:len(s)-1])
	}
	if !isNumericLiteral(s) {
		return 0, false
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false
	}
	if percent {
		num /= 100
	}
	return num, true
}

// isNumericLiteral validates [+-]digits[.digits][(e|E)[+-]digits]
func isNumericLiteral(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(s)
}

// FormatNumber renders a number the way the general cell format does:
// integers without a fraction, other values with at most 15 significant
// digits.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'G', 15, 64)
}

// FormatValue renders any scalar as display text
func FormatValue(v Scalar) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return FormatNumber(x)
	case string:
		return x
	case bool:
		return boolToText(x)
	case *FormulaError:
		return x.Label()
	case RichData:
		return "[" + x.Type + "]"
	default:
		return ""
	}
}

func boolToNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func boolToText(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// coerceScalar performs best-effort conversion of a non-boolean, non-error
// value. text never converts to boolean.
func coerceScalar(v Scalar, target ScalarType) (Scalar, bool) {
	switch target {
	case ScalarTypeNumber:
		switch x := v.(type) {
		case float64:
			return x, true
		case string:
			if num, ok := ParseNumber(x); ok {
				return num, true
			}
		}
	case ScalarTypeString:
		switch x := v.(type) {
		case string:
			return x, true
		case float64:
			return FormatNumber(x), true
		}
	case ScalarTypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, true
		case float64:
			return x != 0, true
		}
	case ScalarTypeRichData:
		if d, ok := v.(RichData); ok {
			return d, true
		}
	}
	return nil, false
}

// IsTruthy checks if a value counts as TRUE in a condition. text is only
// truthy when it reads "TRUE".
func IsTruthy(v Scalar) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case float64:
		return x != 0, nil
	case nil:
		return false, nil
	case string:
		switch strings.ToUpper(strings.TrimSpace(x)) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		}
		return false, newFormulaErrorf(ErrorCodeValue, "%q is not a logical value", x)
	case *FormulaError:
		return false, x
	default:
		return false, NewFormulaError(ErrorCodeValue, "value is not a logical value")
	}
}
