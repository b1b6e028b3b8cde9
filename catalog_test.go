package calc

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestCatalogFromRuntime(t *testing.T) {
	rt, err := NewRuntime(context.Background(), &Config{Locale: "en-US", LogLevel: "info", Functions: []string{"SUM", "IF", "RAND"}})
	require.NoError(t, err)

	c := NewCatalog(rt.Functions(), rt.Info().Tag(), false)
	assert.Equal(t, "en-US", c.Locale)
	require.Len(t, c.Functions, 3)
	assert.Equal(t, "IF", c.Functions[0].Declaration.Name)
	assert.Equal(t, "RAND", c.Functions[1].Declaration.Name)
	assert.True(t, c.Functions[1].Declaration.Volatile)
	require.NotNil(t, c.Functions[2].Descriptor)
	assert.Equal(t, "Math", c.Functions[2].Descriptor.Category)

	var buf bytes.Buffer
	require.NoError(t, c.WriteJSON(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	functions := decoded["functions"].([]any)
	sum := functions[2].(map[string]any)["declaration"].(map[string]any)
	assert.Equal(t, "SUM", sum["name"])
	assert.Equal(t, "number", sum["return"].(map[string]any)["type"])
}

func TestCatalogYAMLRoundTrip(t *testing.T) {
	rt, err := NewRuntime(context.Background(), nil)
	require.NoError(t, err)
	c := NewCatalog(rt.Functions(), language.English, false)

	var buf bytes.Buffer
	require.NoError(t, c.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "name: ERROR.TYPE")
	assert.Contains(t, buf.String(), "shape: materialized-array")

	parsed, err := ParseCatalog(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, c.Locale, parsed.Locale)
	require.Len(t, parsed.Functions, len(c.Functions))
	for i := range c.Functions {
		assert.Equal(t, c.Functions[i].Declaration, parsed.Functions[i].Declaration)
		assert.Equal(t, c.Functions[i].Descriptor, parsed.Functions[i].Descriptor)
	}
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(`
locale: en
functions:
  - declaration:
      name: ROUND.TO
      parameters:
        - name: value
          type: number
        - name: mode
          optional: true
          type: string
          legalValues: [up, down, 0]
      return:
        type: number
    descriptor:
      locale: en
      displayName: ROUND.TO
      summary: Rounds a number.
  - declaration:
      name: LATER
      parameters: []
      return:
        type: null
        shape: materialized-array
        async: true
`))
	require.NoError(t, err)
	require.Len(t, c.Functions, 2)
	decl := c.Functions[0].Declaration
	assert.Equal(t, ScalarTypeNumber, decl.Parameters[0].Type)
	assert.Equal(t, []Scalar{"up", "down", 0.0}, decl.Parameters[1].LegalValues)
	assert.True(t, c.Functions[1].Declaration.Return.Async)
	assert.Equal(t, ShapeMaterializedArray, c.Functions[1].Declaration.Return.Shape)

	reg := NewFunctionRegistry()
	require.NoError(t, c.Register(reg, map[string]FunctionImpl{
		"ROUND.TO": func(ExecutionContext, []Param) (any, error) { return 1.0, nil },
	}))
	f, ok := reg.Lookup("round.to")
	require.True(t, ok)
	d, ok := f.Descriptor(language.English)
	require.True(t, ok)
	assert.Equal(t, "Rounds a number.", d.Summary)

	ev, _ := newTestEvaluation(t)
	later, _ := reg.Lookup("LATER")
	_, err = later.Call(ev, nil)
	requireFormulaError(t, err, ErrorCodeCalc)

	_, err = ParseCatalog([]byte("functions:\n  - declaration:\n      name: '1BAD'\n"))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, InvalidArgument, appErr.Code)

	_, err = ParseCatalog([]byte("functions: {"))
	require.ErrorAs(t, err, &appErr)
}
