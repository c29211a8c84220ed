package scope

// Context is the lifecycle contract consumed by With and WithGroup. EnterScope
// runs once right after the context value is bound; ExitScope runs once at
// teardown. Either hook may fail.
type Context interface {
	EnterScope() error
	ExitScope() error
}

// With binds one context value to an entered scope. It is the library's RAII
// analogue: Enter pairs the value with its enter hook, Exit releases it. A
// With is a unique, non-transferable binding; use it behind the pointer Enter
// returns and never copy the pointed-to value. Scopes are expected to exit in
// the reverse order they were entered.
type With[C Context] struct {
	ctx    C
	exited bool
}

// Enter invokes ctx's enter hook and returns the entered wrapper. When the
// enter hook fails no wrapper is returned and the exit hook will never run for
// ctx.
func Enter[C Context](ctx C) (*With[C], error) {
	if err := ctx.EnterScope(); err != nil {
		return nil, err
	}
	return &With[C]{ctx: ctx}, nil
}

// Get exposes the owned context for the lifetime of the wrapper.
func (w *With[C]) Get() *C {
	return &w.ctx
}

// Exit invokes the exit hook exactly once and surfaces its error to the
// caller. Aggregation and suppression of teardown errors is WithGroup's job; a
// bare With simply propagates. Calling Exit twice is a contract violation and
// panics.
func (w *With[C]) Exit() error {
	if w.exited {
		panic("scope: With exited twice")
	}
	w.exited = true
	return w.ctx.ExitScope()
}

// Exited reports whether the exit hook already ran.
func (w *With[C]) Exited() bool {
	return w.exited
}
