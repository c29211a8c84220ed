package scope

import (
	"errors"
	"fmt"
	"time"
)

// ErrGuardRejected is returned when a guard predicate evaluates to false. The
// guarded enter never runs in that case.
var ErrGuardRejected = errors.New("scope: guard rejected")

// ErrGuardNotBoolean indicates a guard expression produced a non-boolean
// verdict.
var ErrGuardNotBoolean = errors.New("scope: guard expression must produce a boolean")

// GuardOption configures a Guard instance.
type GuardOption func(*Guard)

// GuardWithEvaluator selects the engine used to compile and run the guard
// expression. Defaults to the expr engine.
func GuardWithEvaluator(evaluator Evaluator) GuardOption {
	return func(g *Guard) {
		if evaluator != nil {
			g.evaluator = evaluator
		}
	}
}

// GuardWithLogger attaches a logger invoked for every guard evaluation.
func GuardWithLogger(logger EvaluatorLogger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// GuardWithProgramCache wires a ProgramCache into the default expr engine.
// Ignored when GuardWithEvaluator supplies a custom engine.
func GuardWithProgramCache(cache ProgramCache) GuardOption {
	return func(g *Guard) {
		g.cache = cache
	}
}

// GuardWithFunctionRegistry wires a FunctionRegistry into the default expr
// engine. Ignored when GuardWithEvaluator supplies a custom engine.
func GuardWithFunctionRegistry(registry *FunctionRegistry) GuardOption {
	return func(g *Guard) {
		if registry == nil {
			return
		}
		g.registry = registry.Clone()
	}
}

// Guard is a compiled scope-admission predicate. Stacks and groups evaluate it
// before entering a new scope or context; a false verdict rejects the enter
// with ErrGuardRejected.
type Guard struct {
	expr      string
	evaluator Evaluator
	compiled  CompiledRule
	logger    EvaluatorLogger
	cache     ProgramCache
	registry  *FunctionRegistry
}

// NewGuard compiles expression once and returns the reusable guard.
func NewGuard(expression string, opts ...GuardOption) (*Guard, error) {
	if expression == "" {
		return nil, fmt.Errorf("scope: guard expression must not be empty")
	}
	g := &Guard{expr: expression}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if g.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(g.cache))
		}
		if g.registry != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(g.registry))
		}
		g.evaluator = NewExprEvaluator(exprOpts...)
	}
	compiled, err := g.evaluator.Compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(evaluatorEngineName(g.evaluator), expression, "", err)
	}
	g.compiled = compiled
	return g, nil
}

// Expression returns the source expression the guard was compiled from.
func (g *Guard) Expression() string {
	if g == nil {
		return ""
	}
	return g.expr
}

// Allow evaluates the guard against ctx. The verdict must be a boolean;
// anything else fails with ErrGuardNotBoolean.
func (g *Guard) Allow(ctx GuardContext) (bool, error) {
	if g == nil || g.compiled == nil {
		return true, nil
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	engine := evaluatorEngineName(g.evaluator)
	start := time.Now()
	value, evalErr := g.compiled.Evaluate(ctx)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, g.expr, ctx.scopeLabel(), evalErr)

	verdict := false
	if evalErr == nil {
		ok := false
		verdict, ok = value.(bool)
		if !ok {
			evalErr = wrapEvaluationError(engine, g.expr, ctx.scopeLabel(),
				fmt.Errorf("%w: got %T", ErrGuardNotBoolean, value))
		}
	}

	g.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     g.expr,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return false, evalErr
	}
	return verdict, nil
}

// check runs the guard and folds a false verdict into ErrGuardRejected. Shared
// by Stack.WithNewScope and WithGroup.Emplace.
func (g *Guard) check(ctx GuardContext) error {
	if g == nil {
		return nil
	}
	ok, err := g.Allow(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrGuardRejected, g.expr)
	}
	return nil
}

func (g *Guard) evaluatorLogger() EvaluatorLogger {
	if g != nil && g.logger != nil {
		return g.logger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*scope.exprEvaluator":
		return "expr"
	case "*scope.celEvaluator":
		return "cel"
	case "*scope.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
