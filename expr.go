package excelei

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
)

// ExpressionCache memoizes compiled expressions per item type and expression text.
// It is safe for concurrent use. Entries are never evicted, so it is meant for
// expressions declared once (column layouts, package-level configurators), not
// for text generated per call.
type ExpressionCache struct {
	programs sync.Map // exprKey → *CompiledExpression
}

type exprKey struct {
	env    reflect.Type
	source string
}

// DefaultExpressionCache is shared by expression columns that are not given a cache.
var DefaultExpressionCache = NewExpressionCache()

// NewExpressionCache creates an empty cache.
func NewExpressionCache() *ExpressionCache {
	return &ExpressionCache{}
}

// CompiledExpression is an expr-lang program bound to one item type.
type CompiledExpression struct {
	Source string
	Env    reflect.Type
	// Member is the referenced member name when the expression is a direct
	// member reference such as "Name", "Address.City" or "Qty ?? 0".
	Member  string
	program *vm.Program
}

// Compile returns the cached program for (env, source), compiling it on first use.
// Concurrent first uses may compile twice; the first stored program wins.
func (c *ExpressionCache) Compile(env reflect.Type, source string) (*CompiledExpression, error) {
	key := exprKey{env: env, source: source}
	if cached, ok := c.programs.Load(key); ok {
		return cached.(*CompiledExpression), nil
	}
	sample, err := envSample(env)
	if err != nil {
		return nil, err
	}
	opts := []expr.Option{expr.Env(sample), hyperlinkFunc}
	if env.Kind() == reflect.Map {
		opts = append(opts, expr.AllowUndefinedVariables())
	}
	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, configErrorf("compile expression %q: %v", source, err)
	}
	compiled := &CompiledExpression{
		Source:  source,
		Env:     env,
		Member:  memberName(program.Node()),
		program: program,
	}
	actual, _ := c.programs.LoadOrStore(key, compiled)
	return actual.(*CompiledExpression), nil
}

// Len reports the number of cached programs.
func (c *ExpressionCache) Len() int {
	n := 0
	c.programs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func envSample(env reflect.Type) (any, error) {
	switch {
	case env.Kind() == reflect.Struct:
		return reflect.Zero(env).Interface(), nil
	case env.Kind() == reflect.Pointer && env.Elem().Kind() == reflect.Struct:
		return reflect.New(env.Elem()).Interface(), nil
	case env.Kind() == reflect.Map && env.Key().Kind() == reflect.String:
		return reflect.MakeMap(env).Interface(), nil
	}
	return nil, configErrorf("expressions need a struct or string-keyed map item type, got %s", env)
}

// ResultType is the type inferred by the expression checker, or the empty
// interface when the checker could not tell.
func (e *CompiledExpression) ResultType() reflect.Type {
	if t := e.program.Node().Type(); t != nil {
		return t
	}
	return anyType
}

// Eval runs the expression against item. A nil item, or one that is not of the
// compiled item type, evaluates to nil.
func (e *CompiledExpression) Eval(item any) (any, error) {
	v := reflect.ValueOf(item)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil, nil
	}
	if v.Type() != e.Env && !(e.Env.Kind() == reflect.Pointer && v.Type() == e.Env.Elem()) &&
		!(v.Kind() == reflect.Pointer && v.Type().Elem() == e.Env) {
		return nil, nil
	}
	out, err := expr.Run(e.program, item)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", e.Source, err)
	}
	return out, nil
}

// memberName resolves the member a direct member-reference expression points at.
func memberName(node ast.Node) string {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		if n.Value == "$env" {
			return ""
		}
		return n.Value
	case *ast.MemberNode:
		if n.Method {
			return ""
		}
		if s, ok := n.Property.(*ast.StringNode); ok {
			return s.Value
		}
	case *ast.ChainNode:
		return memberName(n.Node)
	case *ast.BinaryNode:
		if n.Operator == "??" {
			return memberName(n.Left)
		}
	case *ast.BuiltinNode:
		if len(n.Arguments) == 1 && (n.Name == "int" || n.Name == "float" || n.Name == "string") {
			return memberName(n.Arguments[0])
		}
	}
	return ""
}
