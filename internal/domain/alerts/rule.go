// Package alerts evaluates reorder rules over product stock state and
// keeps a log of every sweep.
package alerts

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/domain/catalogs/product"
)

// DefaultRule fires when an active product sits at or below its
// reorder level.
const DefaultRule = "stock_quantity <= reorder_level && is_active"

// Rule is a compiled reorder expression. Expressions see the product
// fields stock_quantity, reorder_level, is_active, name and sku, and
// must evaluate to a boolean.
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks a rule expression.
func Compile(expr string) (*Rule, error) {
	env, err := cel.NewEnv(
		cel.Variable("stock_quantity", cel.IntType),
		cel.Variable("reorder_level", cel.IntType),
		cel.Variable("is_active", cel.BoolType),
		cel.Variable("name", cel.StringType),
		cel.Variable("sku", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("build rule environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperror.NewValidation(fmt.Sprintf("invalid alert rule: %v", issues.Err()))
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperror.NewValidation("alert rule must evaluate to a boolean")
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build rule program: %w", err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// MustCompile compiles a rule and panics on error. Use for the
// built-in default only.
func MustCompile(expr string) *Rule {
	r, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return r
}

// Expression returns the source expression.
func (r *Rule) Expression() string {
	return r.expr
}

// Evaluate runs the rule against one product.
func (r *Rule) Evaluate(p *product.Product) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{
		"stock_quantity": p.StockQuantity,
		"reorder_level":  p.ReorderLevel,
		"is_active":      p.IsActive,
		"name":           p.Name,
		"sku":            p.SKU,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate alert rule for %s: %w", p.SKU, err)
	}
	fired, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("alert rule for %s returned %T, want bool", p.SKU, out.Value())
	}
	return fired, nil
}
