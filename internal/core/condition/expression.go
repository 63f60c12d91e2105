// Package condition compiles boolean row filters written in the expr
// language. Row fields are top-level variables; sprig functions are
// available under "sprig", and get/has look up fields whose names are not
// valid identifiers.
//
//	status == "Planned" && has("cleaner")
//	sprig.lower(role) in ["cleaner", "porter"]
package condition

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"

	"github.com/aevon-lab/raster/internal/core/model"
)

var sprigFuncMap = sprig.GenericFuncMap()

// Expression is a compiled row filter.
type Expression struct {
	source  string
	program *vm.Program
}

var _ model.Condition = (*Expression)(nil)

// Compile parses source into an Expression.
func Compile(source string) (*Expression, error) {
	program, err := expr.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("unable to compile condition '%s': %w", source, err)
	}
	return &Expression{source: source, program: program}, nil
}

// Parse returns model.Always for a blank source and a compiled Expression
// otherwise.
func Parse(source string) (model.Condition, error) {
	if strings.TrimSpace(source) == "" {
		return model.Always, nil
	}
	return Compile(source)
}

func (e *Expression) String() string { return e.source }

// Eval runs the expression against row.
func (e *Expression) Eval(row model.ModelData) (bool, error) {
	result, err := expr.Run(e.program, env(row))
	if err != nil {
		return false, fmt.Errorf("unable to evaluate condition '%s': %w", e.source, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition '%s' returned %T, not bool", e.source, result)
	}
	return b, nil
}

// Check implements model.Condition. Evaluation errors reject the row.
func (e *Expression) Check(row model.ModelData) bool {
	ok, err := e.Eval(row)
	if err != nil {
		slog.Debug("condition rejected row", "condition", e.source, "error", err)
		return false
	}
	return ok
}

func env(row model.ModelData) map[string]interface{} {
	m := make(map[string]interface{})
	if r, ok := row.(model.Row); ok {
		for k, v := range r {
			m[k] = v
		}
	}
	m["sprig"] = sprigFuncMap
	m["get"] = func(name string) interface{} {
		if row == nil {
			return nil
		}
		v, _ := row.Get(name)
		return v
	}
	m["has"] = func(name string) bool {
		if row == nil {
			return false
		}
		_, ok := row.Get(name)
		return ok
	}
	return m
}
