package calc

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Scalar represents a single storable cell value.
// types:
//   - float64: numeric values (other Go numeric kinds are normalized)
//   - string: text values
//   - bool: boolean values (TRUE/FALSE)
//   - nil: empty cells
//   - *FormulaError: error values (#DIV/0!, #VALUE!, etc.)
//   - RichData: typed extension values
//
// there is no date type, dates are serial numbers (see xldate.go).
type Scalar = any

// ScalarType is the discriminant used to request or declare a coercion
// target. it is distinct from the Scalar values themselves.
type ScalarType uint8

const (
	ScalarTypeNull ScalarType = iota
	ScalarTypeNumber
	ScalarTypeString
	ScalarTypeBoolean
	ScalarTypeError
	ScalarTypeRichData
)

var scalarTypeNames = [...]string{
	ScalarTypeNull:     "null",
	ScalarTypeNumber:   "number",
	ScalarTypeString:   "string",
	ScalarTypeBoolean:  "boolean",
	ScalarTypeError:    "error",
	ScalarTypeRichData: "rich_data",
}

func (t ScalarType) String() string {
	if int(t) < len(scalarTypeNames) {
		return scalarTypeNames[t]
	}
	return fmt.Sprintf("ScalarType(%d)", uint8(t))
}

// MarshalText renders the type by name for JSON and YAML catalogs
func (t ScalarType) MarshalText() ([]byte, error) {
	if int(t) >= len(scalarTypeNames) {
		return nil, fmt.Errorf("unknown scalar type %d", uint8(t))
	}
	return []byte(scalarTypeNames[t]), nil
}

// UnmarshalText parses a type name, case-insensitively
func (t *ScalarType) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	if name == "" {
		*t = ScalarTypeNull
		return nil
	}
	for i, n := range scalarTypeNames {
		if n == name {
			*t = ScalarType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown scalar type %q", string(text))
}

// RichData is an opaque extension value tagged with a type name, e.g. an
// entity card or a formatted number. the payload is a JSON object.
type RichData struct {
	Type    string
	Payload *structpb.Struct
}

// NewRichData builds a RichData value from a plain map payload
func NewRichData(typ string, payload map[string]any) (RichData, error) {
	if typ == "" {
		return RichData{}, NewFormulaError(ErrorCodeValue, "rich data requires a type")
	}
	s, err := structpb.NewStruct(payload)
	if err != nil {
		return RichData{}, newFormulaErrorf(ErrorCodeValue, "invalid rich data payload: %v", err)
	}
	return RichData{Type: typ, Payload: s}, nil
}

// Field returns a top-level payload field, or #FIELD! when it is absent
func (d RichData) Field(name string) (Scalar, error) {
	if d.Payload == nil {
		return nil, newFormulaErrorf(ErrorCodeField, "field %q not found", name)
	}
	v, ok := d.Payload.GetFields()[name]
	if !ok {
		return nil, newFormulaErrorf(ErrorCodeField, "field %q not found", name)
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return k.NumberValue, nil
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_BoolValue:
		return k.BoolValue, nil
	case *structpb.Value_NullValue:
		return nil, nil
	default:
		return nil, newFormulaErrorf(ErrorCodeField, "field %q is not a scalar", name)
	}
}

type richDataJSON struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON encodes the value as {"type": ..., "payload": {...}}
func (d RichData) MarshalJSON() ([]byte, error) {
	out := richDataJSON{Type: d.Type}
	if d.Payload != nil {
		payload, err := protojson.Marshal(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal rich data payload: %w", err)
		}
		out.Payload = payload
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form produced by MarshalJSON
func (d *RichData) UnmarshalJSON(data []byte) error {
	var in richDataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Type = in.Type
	d.Payload = nil
	if len(in.Payload) > 0 {
		payload := &structpb.Struct{}
		if err := protojson.Unmarshal(in.Payload, payload); err != nil {
			return fmt.Errorf("unmarshal rich data payload: %w", err)
		}
		d.Payload = payload
	}
	return nil
}

// TypeOf classifies a stored value
func TypeOf(v Scalar) ScalarType {
	switch v.(type) {
	case float64:
		return ScalarTypeNumber
	case string:
		return ScalarTypeString
	case bool:
		return ScalarTypeBoolean
	case *FormulaError:
		return ScalarTypeError
	case RichData, *RichData:
		return ScalarTypeRichData
	default:
		return ScalarTypeNull
	}
}

// NormalizeScalar converts Go numeric kinds to float64 and rejects values
// outside the closed scalar union.
func NormalizeScalar(v any) (Scalar, error) {
	switch n := v.(type) {
	case nil, float64, string, bool, *FormulaError, RichData:
		return v, nil
	case *RichData:
		if n == nil {
			return nil, nil
		}
		return *n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return nil, newFormulaErrorf(ErrorCodeValue, "unsupported cell value of type %T", v)
	}
}

// asError returns the error if value is a *FormulaError, nil otherwise
func asError(value Scalar) *FormulaError {
	if err, ok := value.(*FormulaError); ok {
		return err
	}
	return nil
}

// CellType represents numeric constants for the stored cell kind inside a
// worksheet chunk
type CellType uint8

const (
	CellValueTypeEmpty    CellType = 0
	CellValueTypeNumber   CellType = 1
	CellValueTypeString   CellType = 2
	CellValueTypeBoolean  CellType = 3
	CellValueTypeError    CellType = 4
	CellValueTypeRichData CellType = 5
)

// Cell represents a populated worksheet cell
type Cell struct {
	Type  CellType // kind of value stored
	Row   uint32   // zero-based row index
	Col   uint32   // zero-based column index
	Value Scalar   // actual cell value - type depends on cell type
}
