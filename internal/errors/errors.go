// Package errors provides centralized error definitions and error handling
// utilities for vde-layout. Every failure produced by the compile, plan, emit,
// and execute stages carries a stable code from the taxonomy below, plus
// optional location context (a layout path or step id) and a details map.
//
// # Usage
//
// Creating errors:
//
//	err := errors.New(errors.LayoutRatioMismatch, "ratio and panes length differ").
//		WithPath("preset.layout").
//		WithDetail("ratio_length", 2).
//		WithDetail("panes_length", 1)
//
// Checking errors:
//
//	if errors.IsCode(err, errors.UserCancelled) { ... }
//
//	var layoutErr *errors.LayoutError
//	if errors.As(err, &layoutErr) { ... }
//
// Command failures from the tmux collaborator are wrapped with WrapCommand,
// which preserves any already-structured error rather than re-coding it.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code identifies a failure class. Codes are stable across releases; the CLI
// boundary maps them to exit codes and user-visible formatting.
type Code string

// Compile-time codes.
const (
	// PresetParseError indicates the preset document could not be parsed.
	PresetParseError Code = "PRESET_PARSE_ERROR"
	// PresetInvalidDocument indicates the document root is not a mapping.
	PresetInvalidDocument Code = "PRESET_INVALID_DOCUMENT"
	// LayoutInvalidNode indicates a layout node is neither a split nor a terminal.
	LayoutInvalidNode Code = "LAYOUT_INVALID_NODE"
	// LayoutInvalidOrientation indicates a split type other than horizontal/vertical.
	LayoutInvalidOrientation Code = "LAYOUT_INVALID_ORIENTATION"
	// LayoutPanesMissing indicates a split node without child panes.
	LayoutPanesMissing Code = "LAYOUT_PANES_MISSING"
	// LayoutRatioMissing indicates a split node without a ratio array.
	LayoutRatioMissing Code = "LAYOUT_RATIO_MISSING"
	// LayoutRatioMismatch indicates ratio and panes arrays of different lengths.
	LayoutRatioMismatch Code = "LAYOUT_RATIO_MISMATCH"
	// RatioInvalidValue indicates a ratio entry that is not finite-positive
	// and not a fixed-cell token.
	RatioInvalidValue Code = "RATIO_INVALID_VALUE"
)

// Discovery codes, produced before compilation starts.
const (
	// ConfigNotFound indicates no preset file exists on any search path.
	ConfigNotFound Code = "CONFIG_NOT_FOUND"
	// PresetNotFound indicates the named preset is not defined in any
	// discovered file.
	PresetNotFound Code = "PRESET_NOT_FOUND"
)

// Plan-time codes.
const (
	// FocusConflict indicates more than one terminal requested focus.
	FocusConflict Code = "FOCUS_CONFLICT"
	// NoTerminalPanes indicates a layout with no terminal leaves.
	NoTerminalPanes Code = "NO_TERMINAL_PANES"
	// RatioWeightMissing indicates a split whose ratio has fixed-cell entries
	// but no weighted entry to absorb the remaining space.
	RatioWeightMissing Code = "RATIO_WEIGHT_MISSING"
)

// Execution-time codes.
const (
	// MissingTarget indicates a command step without target pane metadata.
	MissingTarget Code = "MISSING_TARGET"
	// InvalidPane indicates a virtual pane id that could not be resolved to a
	// live pane, or a split that produced no new pane.
	InvalidPane Code = "INVALID_PANE"
	// InvalidPlan indicates an emission that is structurally unusable.
	InvalidPlan Code = "INVALID_PLAN"
	// TemplateTokenError indicates an unresolvable template token in a command.
	TemplateTokenError Code = "TEMPLATE_TOKEN_ERROR"
	// NotInTmuxSession indicates current-window mode outside a tmux client.
	NotInTmuxSession Code = "NOT_IN_TMUX_SESSION"
	// UserCancelled indicates the user declined the pane-kill confirmation.
	UserCancelled Code = "USER_CANCELLED"
	// CommandFailed wraps a backend command failure that carries no
	// more specific code of its own.
	CommandFailed Code = "COMMAND_FAILED"
)

// LayoutError is the structured error type shared by all pipeline stages.
type LayoutError struct {
	// Code is the stable failure class.
	Code Code
	// Message is a human-readable description.
	Message string
	// Path locates the failure: a layout path such as "preset.layout.panes[1]"
	// for compile/plan errors, or a step id for execution errors. Optional.
	Path string
	// Details carries supplementary structured context. Optional.
	Details map[string]any

	cause error
}

// New creates a LayoutError with the given code and message.
func New(code Code, message string) *LayoutError {
	return &LayoutError{Code: code, Message: message}
}

// Newf creates a LayoutError with a formatted message.
func Newf(code Code, format string, args ...any) *LayoutError {
	return &LayoutError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPath attaches the layout path or step id where the failure occurred.
func (e *LayoutError) WithPath(path string) *LayoutError {
	e.Path = path
	return e
}

// WithDetail attaches one key of supplementary context.
func (e *LayoutError) WithDetail(key string, value any) *LayoutError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *LayoutError) WithCause(cause error) *LayoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *LayoutError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	for _, k := range sortedDetailKeys(e.Details) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
	}

	prefix := string(e.Code)
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", e.Code, strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error.
func (e *LayoutError) Unwrap() error {
	return e.cause
}

// Is matches any *LayoutError with the same code, so sentinel-style
// comparisons against a zero-message error of the expected code work.
func (e *LayoutError) Is(target error) bool {
	var le *LayoutError
	if errors.As(target, &le) {
		return e.Code == le.Code
	}
	return false
}

func sortedDetailKeys(details map[string]any) []string {
	if len(details) == 0 {
		return nil
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CodeOf returns the code carried by err, or "" when err carries none.
func CodeOf(err error) Code {
	var le *LayoutError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsStructured reports whether err is (or wraps) a LayoutError.
func IsStructured(err error) bool {
	var le *LayoutError
	return errors.As(err, &le)
}

// WrapCommand wraps a backend command failure. An error that is already
// structured is returned as-is so its original code survives the replay loop;
// anything else becomes a CommandFailed error carrying the argv in details.
func WrapCommand(err error, argv []string) error {
	if err == nil {
		return nil
	}
	if IsStructured(err) {
		return err
	}
	return New(CommandFailed, "backend command failed").
		WithDetail("command", strings.Join(argv, " ")).
		WithCause(err)
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
