package scope

import (
	"errors"
	"fmt"
	"testing"
)

// probe is the test context type: it records enter/exit ordering and can be
// told to fail either hook.
type probe struct {
	name     string
	log      *[]string
	enterErr error
	exitErr  error
}

func (p *probe) EnterScope() error {
	if p.enterErr != nil {
		return p.enterErr
	}
	*p.log = append(*p.log, "enter:"+p.name)
	return nil
}

func (p *probe) ExitScope() error {
	*p.log = append(*p.log, "exit:"+p.name)
	return p.exitErr
}

func newProbe(log *[]string, name string) *probe {
	return &probe{name: name, log: log}
}

func TestEnterRunsHookOnce(t *testing.T) {
	var log []string
	entered, err := Enter(newProbe(&log, "a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log) != 1 || log[0] != "enter:a" {
		t.Fatalf("expected single enter event, got %v", log)
	}
	if entered.Exited() {
		t.Fatalf("freshly entered wrapper reported exited")
	}

	if err := entered.Exit(); err != nil {
		t.Fatalf("unexpected exit error: %v", err)
	}
	if len(log) != 2 || log[1] != "exit:a" {
		t.Fatalf("expected exit event, got %v", log)
	}
}

func TestEnterFailureProducesNoWrapper(t *testing.T) {
	var log []string
	wantErr := errors.New("enter refused")
	ctx := newProbe(&log, "a")
	ctx.enterErr = wantErr

	entered, err := Enter(ctx)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected enter error, got %v", err)
	}
	if entered != nil {
		t.Fatalf("expected no wrapper on enter failure")
	}
	if len(log) != 0 {
		t.Fatalf("no hook should have recorded events, got %v", log)
	}
}

func TestExitPropagatesHookError(t *testing.T) {
	var log []string
	ctx := newProbe(&log, "a")
	ctx.exitErr = errors.New("exit failed")

	entered, err := Enter(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := entered.Exit(); !errors.Is(err, ctx.exitErr) {
		t.Fatalf("expected exit hook error, got %v", err)
	}
	// The hook still ran; failure does not skip it.
	if log[len(log)-1] != "exit:a" {
		t.Fatalf("expected exit event, got %v", log)
	}
}

func TestDoubleExitPanics(t *testing.T) {
	var log []string
	entered, err := Enter(newProbe(&log, "a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := entered.Exit(); err != nil {
		t.Fatalf("unexpected exit error: %v", err)
	}

	defer func() {
		if recovered := recover(); recovered == nil {
			t.Fatalf("expected second Exit to panic")
		}
	}()
	_ = entered.Exit()
}

func TestGetExposesOwnedContext(t *testing.T) {
	var log []string
	entered, err := Enter(newProbe(&log, "a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		if err := entered.Exit(); err != nil {
			t.Fatalf("unexpected exit error: %v", err)
		}
	}()

	(*entered.Get()).name = "renamed"
	if got := (*entered.Get()).name; got != "renamed" {
		t.Fatalf("expected mutation through Get to stick, got %q", got)
	}
}

func ExampleEnter() {
	var log []string
	entered, err := Enter(newProbe(&log, "pass"))
	if err != nil {
		fmt.Println("enter failed:", err)
		return
	}
	defer func() {
		_ = entered.Exit()
	}()
	fmt.Println(log[0])
	// Output: enter:pass
}
