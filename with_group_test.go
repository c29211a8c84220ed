package scope

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-scope/pkg/lifecycle"
)

func TestEmplaceGrowsSize(t *testing.T) {
	var log []string
	group := NewWithGroup[*probe]()

	for n := 1; n <= 5; n++ {
		if err := group.Emplace(newProbe(&log, fmt.Sprintf("c%d", n))); err != nil {
			t.Fatalf("unexpected emplace error: %v", err)
		}
		if got := group.Size(); got != n {
			t.Fatalf("expected size %d after %d emplaces, got %d", n, n, got)
		}
	}
}

func TestCloseExitsInReverseOrder(t *testing.T) {
	var log []string
	group := NewWithGroup[*probe]()
	for _, name := range []string{"a", "b", "c"} {
		if err := group.Emplace(newProbe(&log, name)); err != nil {
			t.Fatalf("unexpected emplace error: %v", err)
		}
	}

	if err := group.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	want := []string{"enter:a", "enter:b", "enter:c", "exit:c", "exit:b", "exit:a"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, log)
		}
	}
	if got := group.Size(); got != 0 {
		t.Fatalf("expected empty group after close, got %d", got)
	}
}

func TestEnterFailureLeavesGroupUnchanged(t *testing.T) {
	var log []string
	group := NewWithGroup[*probe]()
	if err := group.Emplace(newProbe(&log, "ok")); err != nil {
		t.Fatalf("unexpected emplace error: %v", err)
	}

	wantErr := errors.New("enter refused")
	bad := newProbe(&log, "bad")
	bad.enterErr = wantErr
	if err := group.Emplace(bad); !errors.Is(err, wantErr) {
		t.Fatalf("expected enter error, got %v", err)
	}
	if got := group.Size(); got != 1 {
		t.Fatalf("expected size 1 after failed emplace, got %d", got)
	}

	if err := group.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	for _, event := range log {
		if event == "exit:bad" {
			t.Fatalf("exit hook ran for a context that never entered: %v", log)
		}
	}
}

func TestEmplaceFuncConstructionFailure(t *testing.T) {
	group := NewWithGroup[*probe]()
	wantErr := errors.New("cannot build")
	err := group.EmplaceFunc(func() (*probe, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected construction error, got %v", err)
	}
	if got := group.Size(); got != 0 {
		t.Fatalf("expected unchanged group, got size %d", got)
	}
}

func TestCloseSurfacesFirstErrorAndDrainsAll(t *testing.T) {
	var log []string
	group := NewWithGroup[*probe]()

	a := newProbe(&log, "a")
	b := newProbe(&log, "b")
	c := newProbe(&log, "c")
	c.exitErr = errors.New("c exit failed")
	for _, ctx := range []*probe{a, b, c} {
		if err := group.Emplace(ctx); err != nil {
			t.Fatalf("unexpected emplace error: %v", err)
		}
	}

	err := group.Close()
	if !errors.Is(err, c.exitErr) {
		t.Fatalf("expected c's exit error, got %v", err)
	}
	if got := group.Size(); got != 0 {
		t.Fatalf("expected empty group after failing close, got %d", got)
	}
	// Best-effort cleanup continued past the failure.
	sawA, sawB := false, false
	for _, event := range log {
		if event == "exit:a" {
			sawA = true
		}
		if event == "exit:b" {
			sawB = true
		}
	}
	if !sawA || !sawB {
		t.Fatalf("expected a and b exits despite c failing, got %v", log)
	}
}

func TestCloseKeepsFirstOfSeveralErrors(t *testing.T) {
	var log []string
	group := NewWithGroup[*probe]()

	first := newProbe(&log, "first")
	first.exitErr = errors.New("first exit failed")
	second := newProbe(&log, "second")
	second.exitErr = errors.New("second exit failed")
	for _, ctx := range []*probe{first, second} {
		if err := group.Emplace(ctx); err != nil {
			t.Fatalf("unexpected emplace error: %v", err)
		}
	}

	// Teardown is reverse order, so "second" fails first and wins.
	err := group.Close()
	if !errors.Is(err, second.exitErr) {
		t.Fatalf("expected the first-encountered error, got %v", err)
	}
	if got := group.Size(); got != 0 {
		t.Fatalf("expected empty group, got %d", got)
	}
}

func TestTeardownSuppressesDuringUnwind(t *testing.T) {
	var log []string
	var suppressed []TeardownLogEvent

	ambient := errors.New("ambient failure")
	run := func() (err error) {
		group := NewWithGroup[*probe](
			GroupWithTeardownLogger(TeardownLoggerFunc(func(event TeardownLogEvent) {
				if event.Suppressed {
					suppressed = append(suppressed, event)
				}
			})),
		)
		defer group.Teardown(&err)

		one := newProbe(&log, "one")
		two := newProbe(&log, "two")
		two.exitErr = errors.New("two exit failed")
		if err := group.Emplace(one); err != nil {
			return err
		}
		if err := group.Emplace(two); err != nil {
			return err
		}
		return ambient
	}

	err := run()
	if !errors.Is(err, ambient) || err != ambient {
		t.Fatalf("only the ambient error may escape, got %v", err)
	}
	sawOne, sawTwo := false, false
	for _, event := range log {
		if event == "exit:one" {
			sawOne = true
		}
		if event == "exit:two" {
			sawTwo = true
		}
	}
	if !sawOne || !sawTwo {
		t.Fatalf("all exits must run during unwind, got %v", log)
	}
	if len(suppressed) != 1 || !suppressed[0].Unwinding {
		t.Fatalf("expected one suppressed unwind event, got %+v", suppressed)
	}
}

func TestTeardownStoresFirstErrorOnNormalPath(t *testing.T) {
	var log []string
	exitErr := errors.New("exit failed")

	run := func() (err error) {
		group := NewWithGroup[*probe]()
		defer group.Teardown(&err)

		bad := newProbe(&log, "bad")
		bad.exitErr = exitErr
		return group.Emplace(bad)
	}

	if err := run(); !errors.Is(err, exitErr) {
		t.Fatalf("expected teardown error via errp, got %v", err)
	}
}

func TestTeardownNilPointerPanics(t *testing.T) {
	group := NewWithGroup[*probe]()
	defer func() {
		if recovered := recover(); recovered == nil {
			t.Fatalf("expected Teardown(nil) to panic")
		}
	}()
	group.Teardown(nil)
}

func TestZeroValueGroupIsUsable(t *testing.T) {
	var log []string
	var group WithGroup[*probe]
	if err := group.Emplace(newProbe(&log, "a")); err != nil {
		t.Fatalf("unexpected emplace error: %v", err)
	}
	if err := group.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if got := group.Size(); got != 0 {
		t.Fatalf("expected empty group, got %d", got)
	}
}

func TestGroupGuardRejectsEmplace(t *testing.T) {
	var log []string
	guard, err := NewGuard("depth < 1")
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	group := NewWithGroup[*probe](GroupWithLabel("constraints"), GroupWithGuard(guard))

	if err := group.Emplace(newProbe(&log, "a")); err != nil {
		t.Fatalf("unexpected emplace error: %v", err)
	}
	err = group.Emplace(newProbe(&log, "b"))
	if !errors.Is(err, ErrGuardRejected) {
		t.Fatalf("expected ErrGuardRejected, got %v", err)
	}
	if got := group.Size(); got != 1 {
		t.Fatalf("expected rejected emplace to leave group unchanged, got %d", got)
	}
	for _, event := range log {
		if event == "enter:b" {
			t.Fatalf("enter hook ran for rejected context: %v", log)
		}
	}
	if err := group.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

func TestGroupEmitsLifecycleEvents(t *testing.T) {
	var log []string
	capture := &lifecycle.CaptureHook{}
	group := NewWithGroup[*probe](
		GroupWithLabel("constraints"),
		GroupWithHooks(lifecycle.Hooks{capture}),
	)

	bad := newProbe(&log, "bad")
	bad.exitErr = errors.New("bad exit")
	good := newProbe(&log, "good")
	goodToo := newProbe(&log, "good-too")
	for _, ctx := range []*probe{good, bad, goodToo} {
		if err := group.Emplace(ctx); err != nil {
			t.Fatalf("unexpected emplace error: %v", err)
		}
	}

	// "good-too" exits clean, then "bad" fails and is surfaced, then "good"
	// exits clean; nothing is suppressed on this path.
	if err := group.Close(); err == nil {
		t.Fatalf("expected close error")
	}

	var verbs []string
	for _, event := range capture.Events {
		verbs = append(verbs, event.Verb)
	}
	want := []string{
		lifecycle.VerbContextEntered,
		lifecycle.VerbContextEntered,
		lifecycle.VerbContextEntered,
		lifecycle.VerbContextExited,
		lifecycle.VerbContextExited,
	}
	if len(verbs) != len(want) {
		t.Fatalf("expected verbs %v, got %v", want, verbs)
	}
	for i := range want {
		if verbs[i] != want[i] {
			t.Fatalf("expected verbs %v, got %v", want, verbs)
		}
	}
}

func TestGroupSuppressedEventDuringUnwind(t *testing.T) {
	var log []string
	capture := &lifecycle.CaptureHook{}

	run := func() (err error) {
		group := NewWithGroup[*probe](
			GroupWithLabel("constraints"),
			GroupWithHooks(lifecycle.Hooks{capture}),
		)
		defer group.Teardown(&err)

		bad := newProbe(&log, "bad")
		bad.exitErr = errors.New("bad exit")
		if err := group.Emplace(bad); err != nil {
			return err
		}
		return errors.New("ambient")
	}
	if err := run(); err == nil || err.Error() != "ambient" {
		t.Fatalf("expected ambient error, got %v", err)
	}

	found := false
	for _, event := range capture.Events {
		if event.Verb == lifecycle.VerbTeardownSuppressed {
			found = true
			if !event.Suppressed {
				t.Fatalf("suppressed event not flagged: %+v", event)
			}
			if event.Error == "" {
				t.Fatalf("suppressed event missing error text: %+v", event)
			}
		}
	}
	if !found {
		t.Fatalf("expected a teardown.suppressed event, got %+v", capture.Events)
	}
}

func TestWithGroupScopeTearsDownPerLevel(t *testing.T) {
	var log []string
	stack := NewStack[WithGroup[*probe]]()

	err := WithGroupScope(stack, func() error {
		if err := stack.Current().Emplace(newProbe(&log, "outer")); err != nil {
			return err
		}
		return WithGroupScope(stack, func() error {
			return stack.Current().Emplace(newProbe(&log, "inner"))
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"enter:outer", "enter:inner", "exit:inner", "exit:outer"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, log)
		}
	}
	if got := stack.Size(); got != 1 {
		t.Fatalf("expected base level only, got %d", got)
	}
}
