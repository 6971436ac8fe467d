package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	inner := Cycle("move would close a loop")
	wrapped := fmt.Errorf("update chapter: %w", inner)

	if KindOf(wrapped) != KindCycle {
		t.Fatalf("kind: want=%q got=%q", KindCycle, KindOf(wrapped))
	}
	if !IsKind(wrapped, KindCycle) {
		t.Fatalf("IsKind failed on wrapped error")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain error should have empty kind")
	}
	if KindOf(nil) != "" {
		t.Fatalf("nil error should have empty kind")
	}
}

func TestErrorMessageIncludesField(t *testing.T) {
	err := Validation("title", "chapter title is required")
	if got := err.Error(); got != "title: chapter title is required" {
		t.Fatalf("message: got %q", got)
	}

	nf := NotFound("chapter")
	if got := nf.Error(); got != "chapter not found" {
		t.Fatalf("message: got %q", got)
	}
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("write file", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("storage error does not unwrap to its cause")
	}
	if KindOf(err) != KindStorage {
		t.Fatalf("kind: want=%q got=%q", KindStorage, KindOf(err))
	}
}
