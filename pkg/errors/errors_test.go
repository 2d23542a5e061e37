package errors_test

import (
	"errors"
	"strings"
	"testing"

	xerrors "github.com/scgcore/quantd/pkg/errors"
)

func TestWrap(t *testing.T) {

	t.Run("it records the caller and keeps the cause", func(t *testing.T) {
		cause := errors.New("fake error")
		wrapped := xerrors.Wrap(cause)

		if !errors.Is(wrapped, cause) {
			t.Error("the cause should be reachable with errors.Is")
		}

		msg := wrapped.Error()
		if !strings.Contains(msg, "errors_test.go") {
			t.Errorf("message should name the caller's file: %s", msg)
		}
		if !strings.Contains(msg, " <- fake error") {
			t.Errorf("message should chain to the cause: %s", msg)
		}
	})

	t.Run("it chains wrapped errors bottom-up", func(t *testing.T) {
		cause := errors.New("innermost")
		twice := xerrors.Wrap(xerrors.Wrap(cause))

		if got := strings.Count(twice.Error(), " <- "); got != 2 {
			t.Errorf("expected 2 chain separators, got %d: %s", got, twice.Error())
		}
	})

	t.Run("it carries a note when given", func(t *testing.T) {
		wrapped := xerrors.WrapWithNote("while doing the thing", errors.New("fake error"))
		if !strings.Contains(wrapped.Error(), "(while doing the thing)") {
			t.Errorf("message should carry the note: %s", wrapped.Error())
		}
	})
}
