package scope

import (
	"context"

	"github.com/goliatone/go-scope/pkg/lifecycle"
)

// GroupOption configures a WithGroup on construction.
type GroupOption func(*groupConfig)

type groupConfig struct {
	label   string
	logger  TeardownLogger
	guard   *Guard
	emitter *lifecycle.Emitter
}

// GroupWithLabel sets a human-friendly label used in log and trace output.
func GroupWithLabel(label string) GroupOption {
	return func(cfg *groupConfig) {
		cfg.label = label
	}
}

// GroupWithTeardownLogger attaches a logger that observes every exit-hook
// failure during teardown, including suppressed ones.
func GroupWithTeardownLogger(logger TeardownLogger) GroupOption {
	return func(cfg *groupConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// GroupWithGuard gates Emplace behind a scope-admission predicate. A rejected
// enter returns ErrGuardRejected and the enter hook never runs.
func GroupWithGuard(guard *Guard) GroupOption {
	return func(cfg *groupConfig) {
		cfg.guard = guard
	}
}

// GroupWithHooks attaches lifecycle hooks notified on context enter, exit, and
// suppressed teardown failures.
func GroupWithHooks(hooks lifecycle.Hooks) GroupOption {
	return func(cfg *groupConfig) {
		cfg.emitter = lifecycle.NewEmitter(hooks, lifecycle.Config{Enabled: true})
	}
}

// WithGroup owns an ordered collection of entered contexts that are torn down
// together in reverse insertion order. The zero value is ready to use; options
// require NewWithGroup. Like With, a group governs strictly nested lifetimes
// within one logical control flow and is not safe for concurrent mutation.
//
// Teardown never leaks entries: every exit hook runs even when earlier ones
// fail. The first failure observed while no ambient failure is in flight is
// the one the caller sees; every other failure is suppressed and reported only
// through the teardown logger and lifecycle hooks.
type WithGroup[C Context] struct {
	entries []*With[C]
	cfg     groupConfig
}

// NewWithGroup constructs an empty group with the supplied options.
func NewWithGroup[C Context](opts ...GroupOption) *WithGroup[C] {
	g := &WithGroup[C]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&g.cfg)
		}
	}
	return g
}

// Size returns the number of entries not yet torn down.
func (g *WithGroup[C]) Size() int {
	return len(g.entries)
}

// Emplace enters ctx and appends it to the group. When the guard rejects or
// the enter hook fails the group is left unchanged and the error propagates.
func (g *WithGroup[C]) Emplace(ctx C) error {
	if err := g.cfg.guard.check(GuardContext{
		Snapshot: ctx,
		Scope: ScopeInfo{
			Name:  g.cfg.label,
			Depth: len(g.entries),
		},
	}); err != nil {
		return err
	}
	entry, err := Enter(ctx)
	if err != nil {
		return err
	}
	g.entries = append(g.entries, entry)
	g.emit(lifecycle.BuildContextEnteredEvent(lifecycle.EventInput{
		Label: g.cfg.label,
		Index: len(g.entries) - 1,
	}))
	return nil
}

// EmplaceFunc constructs a context via build, then enters and appends it. A
// construction error leaves the group unchanged, same as an enter failure.
func (g *WithGroup[C]) EmplaceFunc(build func() (C, error)) error {
	ctx, err := build()
	if err != nil {
		return err
	}
	return g.Emplace(ctx)
}

// Close tears the group down on the normal path: no ambient failure is in
// flight, so the first exit-hook failure is returned. The group always ends
// empty.
func (g *WithGroup[C]) Close() error {
	return g.close(false)
}

// Teardown is the defer form of Close. It samples *errp once as the
// ambient-failure-in-flight flag: when an error is already propagating, every
// teardown failure is suppressed so the original error is the only one the
// caller observes; otherwise the first teardown failure is stored into *errp.
//
//	func visit() (err error) {
//		group := scope.NewWithGroup[*constraint]()
//		defer group.Teardown(&err)
//		...
//	}
func (g *WithGroup[C]) Teardown(errp *error) {
	if errp == nil {
		panic("scope: Teardown requires a non-nil error pointer")
	}
	unwinding := *errp != nil
	if err := g.close(unwinding); err != nil && *errp == nil {
		*errp = err
	}
}

// close removes and exits entries most-recent first. Each entry is detached
// from the slice before its exit hook runs so Size stays truthful when the
// hook fails.
func (g *WithGroup[C]) close(unwinding bool) error {
	var first error
	for len(g.entries) > 0 {
		index := len(g.entries) - 1
		entry := g.entries[index]
		g.entries[index] = nil
		g.entries = g.entries[:index]

		err := entry.Exit()
		if err == nil {
			g.emit(lifecycle.BuildContextExitedEvent(lifecycle.EventInput{
				Label: g.cfg.label,
				Index: index,
			}))
			continue
		}
		if unwinding || first != nil {
			g.teardownLogger().LogTeardown(TeardownLogEvent{
				Label:      g.cfg.label,
				Index:      index,
				Unwinding:  unwinding,
				Suppressed: true,
				Err:        err,
			})
			g.emit(lifecycle.BuildTeardownSuppressedEvent(lifecycle.EventInput{
				Label:     g.cfg.label,
				Index:     index,
				Unwinding: unwinding,
				Err:       err,
			}))
			continue
		}
		first = err
		g.teardownLogger().LogTeardown(TeardownLogEvent{
			Label: g.cfg.label,
			Index: index,
			Err:   err,
		})
	}
	return first
}

func (g *WithGroup[C]) teardownLogger() TeardownLogger {
	if g.cfg.logger != nil {
		return g.cfg.logger
	}
	return noopTeardownLogger{}
}

func (g *WithGroup[C]) emit(event lifecycle.Event) {
	if g.cfg.emitter == nil {
		return
	}
	_ = g.cfg.emitter.Emit(context.Background(), event)
}

// WithGroupScope runs body inside a fresh stack level whose per-level group is
// torn down when the level exits. This is the canonical composition for
// traversals that accumulate scoped contexts per nesting depth:
//
//	stack := scope.NewStack[scope.WithGroup[*constraint]]()
//	err := scope.WithGroupScope(stack, func() error {
//		return stack.Current().Emplace(newConstraint(cond))
//	})
func WithGroupScope[C Context](s *Stack[WithGroup[C]], body func() error) error {
	return s.WithNewScope(func() (err error) {
		defer s.Current().Teardown(&err)
		err = body()
		return err
	})
}
