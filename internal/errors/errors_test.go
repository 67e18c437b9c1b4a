package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestLayoutErrorFormatting(t *testing.T) {
	err := New(LayoutRatioMismatch, "ratio and panes length differ").
		WithPath("preset.layout").
		WithDetail("ratio_length", 2).
		WithDetail("panes_length", 1)

	msg := err.Error()
	if !strings.HasPrefix(msg, "LAYOUT_RATIO_MISMATCH [") {
		t.Errorf("Error() = %q, want LAYOUT_RATIO_MISMATCH prefix", msg)
	}
	if !strings.Contains(msg, "path=preset.layout") {
		t.Errorf("Error() = %q, want path detail", msg)
	}
	if !strings.Contains(msg, "panes_length=1") || !strings.Contains(msg, "ratio_length=2") {
		t.Errorf("Error() = %q, want both length details", msg)
	}
}

func TestLayoutErrorDetailOrderStable(t *testing.T) {
	err := New(FocusConflict, "multiple panes request focus").
		WithDetail("b", 2).
		WithDetail("a", 1)

	// Details render in sorted key order regardless of insertion order.
	msg := err.Error()
	if strings.Index(msg, "a=1") > strings.Index(msg, "b=2") {
		t.Errorf("Error() = %q, want details sorted by key", msg)
	}
}

func TestLayoutErrorCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := New(CommandFailed, "backend command failed").WithCause(cause)

	if !Is(err, cause) {
		t.Error("Is(err, cause) should be true via Unwrap")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"structured", New(InvalidPane, "no such pane"), InvalidPane},
		{"wrapped", fmt.Errorf("outer: %w", New(UserCancelled, "declined")), UserCancelled},
		{"plain", stderrors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := New(MissingTarget, "step has no target pane").WithPath("step-3")
	if !IsCode(err, MissingTarget) {
		t.Error("IsCode(err, MissingTarget) should be true")
	}
	if IsCode(err, InvalidPane) {
		t.Error("IsCode(err, InvalidPane) should be false")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(UserCancelled, "user declined pane kill")
	if !Is(err, New(UserCancelled, "")) {
		t.Error("Is should match LayoutErrors by code")
	}
	if Is(err, New(InvalidPane, "")) {
		t.Error("Is should not match a different code")
	}
}

func TestWrapCommandPreservesStructured(t *testing.T) {
	inner := New(TemplateTokenError, "unknown pane name").WithDetail("token", "pane_id")
	wrapped := WrapCommand(inner, []string{"send-keys", "-t", "%1"})

	if wrapped != error(inner) {
		t.Error("WrapCommand should return structured errors unchanged")
	}
}

func TestWrapCommandWrapsPlain(t *testing.T) {
	plain := stderrors.New("exit status 1")
	wrapped := WrapCommand(plain, []string{"split-window", "-h"})

	if !IsCode(wrapped, CommandFailed) {
		t.Errorf("CodeOf() = %q, want COMMAND_FAILED", CodeOf(wrapped))
	}
	if !Is(wrapped, plain) {
		t.Error("wrapped error should unwrap to the original")
	}

	var le *LayoutError
	if !As(wrapped, &le) {
		t.Fatal("wrapped error should be a *LayoutError")
	}
	if le.Details["command"] != "split-window -h" {
		t.Errorf("Details[command] = %v, want joined argv", le.Details["command"])
	}
}

func TestWrapCommandNil(t *testing.T) {
	if WrapCommand(nil, []string{"kill-pane"}) != nil {
		t.Error("WrapCommand(nil) should be nil")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}

	base := stderrors.New("base")
	err := Wrapf(base, "configuring pane %s", "%4")
	if !Is(err, base) {
		t.Error("Wrapf should preserve the error chain")
	}
	if !strings.Contains(err.Error(), "configuring pane %4") {
		t.Errorf("Error() = %q, want context message", err.Error())
	}
}
