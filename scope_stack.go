package scope

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-scope/layering"
	"github.com/goliatone/go-scope/pkg/lifecycle"
)

// StackOption configures a Stack on construction.
type StackOption func(*stackConfig)

type stackConfig struct {
	label   string
	guard   *Guard
	emitter *lifecycle.Emitter
}

// StackWithLabel sets a human-friendly label used in events and guard scopes.
func StackWithLabel(label string) StackOption {
	return func(cfg *stackConfig) {
		cfg.label = label
	}
}

// StackWithGuard gates WithNewScope behind a scope-admission predicate. A
// rejected push returns ErrGuardRejected and no frame is appended.
func StackWithGuard(guard *Guard) StackOption {
	return func(cfg *stackConfig) {
		cfg.guard = guard
	}
}

// StackWithHooks attaches lifecycle hooks notified on every frame push and
// pop.
func StackWithHooks(hooks lifecycle.Hooks) StackOption {
	return func(cfg *stackConfig) {
		cfg.emitter = lifecycle.NewEmitter(hooks, lifecycle.Config{Enabled: true})
	}
}

// frame is one nesting level. Frames are individually heap allocated so the
// pointer Current returns stays valid however the frames slice grows or
// shrinks at the end.
type frame[T any] struct {
	id    string
	value T
}

// Stack maintains hierarchical state during recursive tree traversal. Each
// nesting level owns one value of type T, default-initialized on push and
// dropped on pop. A freshly constructed stack holds one base level.
//
// The pointer returned by Current remains valid across any sequence of
// push/pop operations at the end of the stack, including reentrant
// WithNewScope calls triggered from code that is still holding it. Only
// popping the frame itself invalidates the pointer. Stacks are single-owner
// structures: the frame order encodes one logical call-nesting order, so
// concurrent mutation is not supported.
type Stack[T any] struct {
	frames []*frame[T]
	cfg    stackConfig
}

// NewStack constructs a stack holding one base level.
func NewStack[T any](opts ...StackOption) *Stack[T] {
	s := &Stack[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&s.cfg)
		}
	}
	s.push()
	return s
}

// Size returns the number of active levels.
func (s *Stack[T]) Size() int {
	return len(s.frames)
}

// Empty reports whether no levels are active.
func (s *Stack[T]) Empty() bool {
	return len(s.frames) == 0
}

// Current returns a stable pointer to the innermost level's value. Calling
// Current on an emptied stack is a contract violation and panics; normal usage
// never empties the stack.
func (s *Stack[T]) Current() *T {
	if len(s.frames) == 0 {
		panic("scope: Current on empty stack")
	}
	return &s.frames[len(s.frames)-1].value
}

// CurrentID returns the innermost level's frame identifier, usable for
// correlating lifecycle events and traces.
func (s *Stack[T]) CurrentID() string {
	if len(s.frames) == 0 {
		panic("scope: CurrentID on empty stack")
	}
	return s.frames[len(s.frames)-1].id
}

// WithNewScope appends a new default-initialized level, runs body, then
// removes the level. The pop runs exactly once per push on every exit path:
// normal return, returned error, or panic propagating out of body.
func (s *Stack[T]) WithNewScope(body func() error) error {
	if err := s.cfg.guard.check(GuardContext{
		Scope: ScopeInfo{
			Name:  s.cfg.label,
			Depth: len(s.frames),
		},
	}); err != nil {
		return err
	}
	s.push()
	defer s.pop()
	return body()
}

// InNewScope is the value-returning form of Stack.WithNewScope. It exists as a
// free function because methods cannot introduce type parameters.
func InNewScope[T, R any](s *Stack[T], body func() (R, error)) (R, error) {
	var result R
	err := s.WithNewScope(func() error {
		var bodyErr error
		result, bodyErr = body()
		return bodyErr
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// Merged resolves the stack into one effective value, with inner levels
// overriding outer ones field by field. Useful when T is a snapshot of
// scope-local bindings and the traversal needs the visible set at the current
// depth.
func Merged[T any](s *Stack[T]) T {
	values := make([]T, 0, len(s.frames))
	for i := len(s.frames) - 1; i >= 0; i-- {
		values = append(values, s.frames[i].value)
	}
	return layering.MergeLayers(values...)
}

func (s *Stack[T]) push() {
	f := &frame[T]{id: uuid.NewString()}
	s.frames = append(s.frames, f)
	s.emit(lifecycle.BuildScopeEnteredEvent(lifecycle.EventInput{
		FrameID: f.id,
		Label:   s.cfg.label,
		Depth:   len(s.frames),
	}))
}

func (s *Stack[T]) pop() {
	if len(s.frames) == 0 {
		panic("scope: pop on empty stack")
	}
	index := len(s.frames) - 1
	f := s.frames[index]
	s.frames[index] = nil
	s.frames = s.frames[:index]
	s.emit(lifecycle.BuildScopeExitedEvent(lifecycle.EventInput{
		FrameID: f.id,
		Label:   s.cfg.label,
		Depth:   index + 1,
	}))
}

func (s *Stack[T]) emit(event lifecycle.Event) {
	if s.cfg.emitter == nil {
		return
	}
	_ = s.cfg.emitter.Emit(context.Background(), event)
}
