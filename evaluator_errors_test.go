package scope

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorAddsMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "depth < 2", "visit", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "depth < 2" || evalErr.Scope != "visit" {
		t.Fatalf("metadata not captured: %+v", evalErr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to unwrap to base")
	}
	if !strings.Contains(err.Error(), "scope:") {
		t.Fatalf("expected scope prefix in %q", err.Error())
	}
}

func TestWrapEvaluationErrorFillsMissingFields(t *testing.T) {
	inner := &EvaluationError{Err: errors.New("boom")}
	err := wrapEvaluationError("cel", "true", "visit", inner)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr != inner {
		t.Fatalf("expected the existing wrapper to be reused")
	}
	if evalErr.Engine != "cel" || evalErr.Expr != "true" || evalErr.Scope != "visit" {
		t.Fatalf("missing fields not filled: %+v", evalErr)
	}
}

func TestWrapEvaluatorErrorIdempotent(t *testing.T) {
	already := fmt.Errorf("scope: expr evaluator: %w", errors.New("boom"))
	if got := wrapEvaluatorError("expr", already); got != already {
		t.Fatalf("expected prefixed error to pass through, got %v", got)
	}
	if got := wrapEvaluatorError("expr", nil); got != nil {
		t.Fatalf("expected nil passthrough, got %v", got)
	}
}

func TestEvaluationErrorEmptyExpression(t *testing.T) {
	err := &EvaluationError{Engine: "expr", Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "expr=<empty>") {
		t.Fatalf("expected empty-expression marker in %q", err.Error())
	}
}
