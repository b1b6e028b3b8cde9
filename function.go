package calc

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// RangeShape is how an argument or result is shaped
type RangeShape uint8

const (
	// ShapeLiteral is a plain scalar value
	ShapeLiteral RangeShape = iota
	// ShapeReference is a reference into a sheet
	ShapeReference
	// ShapeMaterializedArray is an array value
	ShapeMaterializedArray
)

var rangeShapeNames = map[RangeShape]string{
	ShapeLiteral:           "literal",
	ShapeReference:         "reference",
	ShapeMaterializedArray: "materialized-array",
}

func (s RangeShape) String() string {
	if name, ok := rangeShapeNames[s]; ok {
		return name
	}
	return "literal"
}

func (s RangeShape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *RangeShape) UnmarshalText(text []byte) error {
	for shape, name := range rangeShapeNames {
		if name == string(text) {
			*s = shape
			return nil
		}
	}
	return fmt.Errorf("unknown range shape %q", text)
}

// ValueType describes the values a parameter takes or a function returns
type ValueType struct {
	Type  ScalarType `json:"type" yaml:"type"`
	Shape RangeShape `json:"shape" yaml:"shape"`
	Depth int        `json:"depth,omitempty" yaml:"depth,omitempty"` // array nesting depth
}

// ParameterDeclaration describes one formal parameter
type ParameterDeclaration struct {
	Name        string   `json:"name" yaml:"name"`
	Optional    bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
	Rest        bool     `json:"rest,omitempty" yaml:"rest,omitempty"`
	LegalValues []Scalar `json:"legalValues,omitempty" yaml:"legalValues,omitempty"`
	ValueType   `yaml:",inline"`
}

// ReturnType describes a function result. async and streaming results are
// a contract for the evaluator; this package never schedules anything.
type ReturnType struct {
	ValueType `yaml:",inline"`
	Async     bool `json:"async,omitempty" yaml:"async,omitempty"`
	Streaming bool `json:"streaming,omitempty" yaml:"streaming,omitempty"`
}

// FunctionDeclaration is the locale-independent signature of a function
type FunctionDeclaration struct {
	Name       string                 `json:"name" yaml:"name"`
	Parameters []ParameterDeclaration `json:"parameters" yaml:"parameters,omitempty"`
	Return     ReturnType             `json:"return" yaml:"return"`
	Volatile   bool                   `json:"volatile,omitempty" yaml:"volatile,omitempty"`
}

// Validate checks the declaration is well formed: a valid name, unique
// parameter names, no required parameter after an optional one and a rest
// parameter only in last position.
func (d FunctionDeclaration) Validate() error {
	if !validFunctionName(d.Name) {
		return NewApplicationError(InvalidArgument, "invalid function name: "+d.Name)
	}
	seen := make(map[string]struct{}, len(d.Parameters))
	optional := false
	for i, p := range d.Parameters {
		if p.Name == "" {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("%s: parameter %d has no name", d.Name, i))
		}
		key := strings.ToUpper(p.Name)
		if _, dup := seen[key]; dup {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("%s: duplicate parameter %s", d.Name, p.Name))
		}
		seen[key] = struct{}{}
		if p.Rest && i != len(d.Parameters)-1 {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("%s: rest parameter %s must be last", d.Name, p.Name))
		}
		if optional && !p.Optional && !p.Rest {
			return NewApplicationError(InvalidArgument, fmt.Sprintf("%s: required parameter %s follows an optional one", d.Name, p.Name))
		}
		optional = optional || p.Optional
		for _, v := range p.LegalValues {
			if _, err := NormalizeScalar(v); err != nil {
				return wrapApplicationError(InvalidArgument, err, "%s: legal value of %s", d.Name, p.Name)
			}
		}
	}
	return nil
}

func validFunctionName(name string) bool {
	if name == "" || !isLetter(rune(name[0])) {
		return false
	}
	for _, ch := range name {
		if !isLetter(ch) && !(ch >= '0' && ch <= '9') && ch != '.' && ch != '_' {
			return false
		}
	}
	return true
}

// Arity returns the minimum and maximum argument count, max is -1 when the
// last parameter is a rest parameter
func (d FunctionDeclaration) Arity() (minArgs, maxArgs int) {
	for _, p := range d.Parameters {
		if !p.Optional && !p.Rest {
			minArgs++
		}
	}
	if n := len(d.Parameters); n > 0 && d.Parameters[n-1].Rest {
		// a required rest parameter needs one value
		if !d.Parameters[n-1].Optional {
			minArgs++
		}
		return minArgs, -1
	}
	return minArgs, len(d.Parameters)
}

// CheckArity fails with #N/A when n arguments cannot satisfy the signature
func (d FunctionDeclaration) CheckArity(n int) error {
	minArgs, maxArgs := d.Arity()
	if n < minArgs {
		return newFormulaErrorf(ErrorCodeNA, "%s expects at least %d arguments, got %d", d.Name, minArgs, n)
	}
	if maxArgs >= 0 && n > maxArgs {
		return newFormulaErrorf(ErrorCodeNA, "%s expects at most %d arguments, got %d", d.Name, maxArgs, n)
	}
	return nil
}

// Parameter returns the declaration matching argument position i. the rest
// parameter covers every position past the end.
func (d FunctionDeclaration) Parameter(i int) (ParameterDeclaration, bool) {
	n := len(d.Parameters)
	switch {
	case i < 0 || n == 0:
		return ParameterDeclaration{}, false
	case i < n:
		return d.Parameters[i], true
	case d.Parameters[n-1].Rest:
		return d.Parameters[n-1], true
	default:
		return ParameterDeclaration{}, false
	}
}

// CheckLegalValue fails with #VALUE! when v is not one of the enumerated
// values of parameter i. text compares case-insensitively.
func (d FunctionDeclaration) CheckLegalValue(i int, v Scalar) error {
	p, ok := d.Parameter(i)
	if !ok || len(p.LegalValues) == 0 || v == nil {
		return nil
	}
	for _, legal := range p.LegalValues {
		legal, _ = NormalizeScalar(legal)
		if a, ok := legal.(string); ok {
			if b, ok := v.(string); ok && strings.EqualFold(a, b) {
				return nil
			}
			continue
		}
		if ScalarEqual(legal, v) {
			return nil
		}
	}
	return newFormulaErrorf(ErrorCodeValue, "%s: %s is not a legal value for %s", d.Name, FormatValue(v), p.Name)
}

// ParameterHelp is localized help for one parameter
type ParameterHelp struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// FunctionDescriptor is the localized presentation of a function
type FunctionDescriptor struct {
	Locale      string          `json:"locale" yaml:"locale"`
	DisplayName string          `json:"displayName" yaml:"displayName"`
	Summary     string          `json:"summary,omitempty" yaml:"summary,omitempty"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty"`
	Hidden      bool            `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Parameters  []ParameterHelp `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// FunctionImpl computes a function. the result is a Scalar or a *Range.
type FunctionImpl func(ctx ExecutionContext, args []Param) (any, error)

// Function is a registered function: its declaration, descriptors and
// implementation. registrations are immutable.
type Function struct {
	Declaration FunctionDeclaration
	Descriptors []FunctionDescriptor
	impl        FunctionImpl
	matcher     language.Matcher
}

// Descriptor picks the descriptor best matching tag. the first descriptor
// is the fallback; ok=false when there are none.
func (f *Function) Descriptor(tag language.Tag) (FunctionDescriptor, bool) {
	if len(f.Descriptors) == 0 {
		return FunctionDescriptor{}, false
	}
	_, idx, _ := f.matcher.Match(tag)
	return f.Descriptors[idx], true
}

// Call checks arity and enumerated literal values, marks the computation
// volatile when declared so, and runs the implementation
func (f *Function) Call(ctx ExecutionContext, args []Param) (any, error) {
	if err := f.Declaration.CheckArity(len(args)); err != nil {
		return nil, err
	}
	for i, arg := range args {
		if arg.Kind != ParamLiteral {
			continue
		}
		if err := f.Declaration.CheckLegalValue(i, arg.Value); err != nil {
			return nil, err
		}
	}
	if f.Declaration.Volatile {
		ctx.MarkVolatile()
	}
	if f.impl == nil {
		return nil, newFormulaErrorf(ErrorCodeCalc, "%s has no implementation", f.Declaration.Name)
	}
	return f.impl(ctx, args)
}

// FunctionRegistry maps upper-cased function names to registrations.
// registration normally happens at start-up; lookups may run concurrently.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]*Function
}

// NewFunctionRegistry creates an empty registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]*Function)}
}

// Register validates and adds a function. registering a name twice fails
// with AlreadyExists; descriptors with unparseable locales are rejected.
func (fr *FunctionRegistry) Register(decl FunctionDeclaration, impl FunctionImpl, descriptors ...FunctionDescriptor) error {
	if err := decl.Validate(); err != nil {
		return err
	}
	tags := make([]language.Tag, 0, len(descriptors))
	for _, d := range descriptors {
		tag, err := language.Parse(d.Locale)
		if err != nil {
			return wrapApplicationError(InvalidArgument, err, "%s: descriptor locale %q", decl.Name, d.Locale)
		}
		tags = append(tags, tag)
	}
	f := &Function{
		Declaration: decl,
		Descriptors: slices.Clone(descriptors),
		impl:        impl,
		matcher:     language.NewMatcher(tags),
	}

	key := strings.ToUpper(decl.Name)
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if _, exists := fr.functions[key]; exists {
		return NewApplicationError(AlreadyExists, "function already registered: "+decl.Name)
	}
	fr.functions[key] = f
	return nil
}

// Lookup finds a function by case-insensitive name
func (fr *FunctionRegistry) Lookup(name string) (*Function, bool) {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	f, ok := fr.functions[strings.ToUpper(strings.TrimSpace(name))]
	return f, ok
}

// Names returns the registered names, sorted
func (fr *FunctionRegistry) Names() []string {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	names := make([]string, 0, len(fr.functions))
	for name := range fr.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered functions
func (fr *FunctionRegistry) Len() int {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	return len(fr.functions)
}
