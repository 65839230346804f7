package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// UnitFilter reports whether a unit may appear in query results.
type UnitFilter func(domain.TextUnit) bool

// FilterCompiler turns CEL expressions over unit metadata into UnitFilters.
//
// Expressions see the variables source, doc_type, page, document_id and extra,
// for example `doc_type == "pdf" && page > 2`. The name avoids CEL's builtin
// type identifier. Compiled programs are cached by
// expression text.
type FilterCompiler struct {
	env *cel.Env

	mu    sync.Mutex
	cache map[string]cel.Program
}

// NewFilterCompiler creates a compiler with the unit metadata environment.
func NewFilterCompiler() (*FilterCompiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("source", cel.StringType),
		cel.Variable("doc_type", cel.StringType),
		cel.Variable("page", cel.IntType),
		cel.Variable("document_id", cel.StringType),
		cel.Variable("extra", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create filter environment: %w", err)
	}
	return &FilterCompiler{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Compile returns the filter for expr, or nil when expr is blank.
// Invalid or non-boolean expressions fail with domain.ErrInvalidInput.
func (c *FilterCompiler) Compile(expr string) (UnitFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	prg, err := c.program(expr)
	if err != nil {
		return nil, err
	}

	return func(u domain.TextUnit) bool {
		out, _, err := prg.Eval(unitActivation(u))
		if err != nil {
			return false
		}
		b, ok := out.Value().(bool)
		return ok && b
	}, nil
}

func (c *FilterCompiler) program(expr string) (cel.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prg, ok := c.cache[expr]; ok {
		return prg, nil
	}

	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: filter %q: %v", domain.ErrInvalidInput, expr, issues.Err())
	}
	if out := ast.OutputType().String(); out != "bool" && out != "dyn" {
		return nil, fmt.Errorf("%w: filter %q evaluates to %s, not bool", domain.ErrInvalidInput, expr, out)
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %q: %v", domain.ErrInvalidInput, expr, err)
	}

	c.cache[expr] = prg
	return prg, nil
}

func unitActivation(u domain.TextUnit) map[string]any {
	extra := u.Metadata.Extra
	if extra == nil {
		extra = map[string]string{}
	}
	return map[string]any{
		"source":      u.Metadata.Source,
		"doc_type":    u.Metadata.DocType.String(),
		"page":        int64(u.Metadata.LocatorOrZero()),
		"document_id": u.Metadata.DocumentID,
		"extra":       extra,
	}
}
