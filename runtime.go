package calc

import (
	"context"
	"fmt"

	"go.alis.build/alog"
)

// Runtime owns everything shared by the computations of a workbook: the
// error table, locale facts, the function registry and the clock. it is
// built once and read-only afterwards.
type Runtime struct {
	errors    *ErrorTable
	info      RuntimeInfo
	functions *FunctionRegistry
	clock     Clock
	rng       RandomGenerator
}

// Option customizes a Runtime
type Option func(*Runtime)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c Clock) Option {
	return func(rt *Runtime) { rt.clock = c }
}

// WithRandom replaces the random source
func WithRandom(g RandomGenerator) Option {
	return func(rt *Runtime) { rt.rng = g }
}

// NewRuntime builds a runtime from cfg (DefaultConfig when nil) and
// registers the enabled built-in functions. empty fields of cfg take their
// defaults; cfg itself is not modified. the log level is process-wide and
// left to the caller, see Config.Level.
func NewRuntime(ctx context.Context, cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		c := *cfg
		c.setDefaults()
		if err := c.validate("config"); err != nil {
			return nil, err
		}
		cfg = &c
	}

	info, err := NewRuntimeInfo(cfg.Locale, cfg.Date1904)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		errors:    NewErrorTable(),
		info:      info,
		functions: NewFunctionRegistry(),
		clock:     &WallClock{},
		rng:       &DefaultRandomGenerator{},
	}
	for _, opt := range opts {
		opt(rt)
	}

	builtins := NewBuiltInFunctions(rt.clock, rt.rng)
	for _, b := range builtins.Definitions() {
		if !cfg.enabled(b.Declaration.Name) {
			continue
		}
		if err := rt.functions.Register(b.Declaration, b.Impl, b.Descriptors...); err != nil {
			return nil, fmt.Errorf("registering %s: %w", b.Declaration.Name, err)
		}
	}
	for _, name := range cfg.Functions {
		if _, ok := rt.functions.Lookup(name); !ok {
			return nil, NewApplicationError(NotFound, "unknown built-in function: "+name)
		}
	}
	alog.Infof(ctx, "runtime ready: locale=%s date_system=%s functions=%d", info.Locale, info.DateSystem(), rt.functions.Len())
	return rt, nil
}

// Errors returns the error table
func (rt *Runtime) Errors() *ErrorTable {
	return rt.errors
}

// Info returns the locale and workbook facts
func (rt *Runtime) Info() RuntimeInfo {
	return rt.info
}

// Functions returns the function registry
func (rt *Runtime) Functions() *FunctionRegistry {
	return rt.functions
}
