package scope

import "time"

// ScopeInfo names the nesting level a guard evaluation runs against.
type ScopeInfo struct {
	Name     string
	Label    string
	Depth    int
	Metadata map[string]any
}

func (s ScopeInfo) isZero() bool {
	return s.Name == "" && s.Label == "" && s.Depth == 0 && len(s.Metadata) == 0
}

// GuardContext carries inputs needed when evaluating a guard expression.
type GuardContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Scope    ScopeInfo
}

func (ctx GuardContext) withDefaultNow() GuardContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx GuardContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx GuardContext) withDefaultMaps() GuardContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx GuardContext) scopeLabel() string {
	if ctx.Scope.Name != "" {
		return ctx.Scope.Name
	}
	if ctx.Scope.Label != "" {
		return ctx.Scope.Label
	}
	return "unknown"
}

func (ctx GuardContext) scopeBinding() map[string]any {
	if ctx.Scope.isZero() {
		return nil
	}
	binding := map[string]any{
		"name":  ctx.Scope.Name,
		"label": ctx.Scope.Label,
		"depth": ctx.Scope.Depth,
	}
	if len(ctx.Scope.Metadata) > 0 {
		binding["metadata"] = copyMetadata(ctx.Scope.Metadata)
	}
	return binding
}

// Evaluator executes guard expressions against a guard context.
type Evaluator interface {
	Evaluate(ctx GuardContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx GuardContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
