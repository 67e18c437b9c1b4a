// Package executor replays a plan emission against a tmux backend. It owns
// the virtual-to-real pane id map for the duration of one run, acquires the
// target window, replays split and focus steps in emission order, configures
// every terminal, and restores focus last.
//
// Execution is a single logical thread of control: no two backend-mutating
// commands run concurrently, because each split's correctness depends on
// observing the pane set immediately before and after the previous command.
// There is no rollback; once a mutation has happened it stands, and a
// failure aborts the replay at the failing step.
package executor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yuki-yano/vde-layout/internal/emit"
	"github.com/yuki-yano/vde-layout/internal/errors"
	"github.com/yuki-yano/vde-layout/internal/logging"
	"github.com/yuki-yano/vde-layout/internal/preset"
	"github.com/yuki-yano/vde-layout/internal/tmux"
)

// WindowMode selects where panes are created.
type WindowMode string

const (
	// NewWindow creates a fresh window for the layout.
	NewWindow WindowMode = "new-window"
	// CurrentWindow reuses the active window, destroying its other panes
	// after confirmation.
	CurrentWindow WindowMode = "current-window"
)

// ConfirmFunc is asked before destroying panes in current-window mode.
// Returning false aborts the run before any mutation.
type ConfirmFunc func(ctx context.Context, panesToClose []string, dryRun bool) (bool, error)

// State names the executor lifecycle phases. Failed is absorbing and
// reachable from any state.
type State string

const (
	StateIdle                 State = "idle"
	StateAcquiringWindow      State = "acquiring_window"
	StateReplayingSteps       State = "replaying_steps"
	StateConfiguringTerminals State = "configuring_terminals"
	StateRestoringFocus       State = "restoring_focus"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// Options configures a run.
type Options struct {
	// Mode defaults to NewWindow.
	Mode WindowMode
	// WindowName names the created window in new-window mode. Optional.
	WindowName string
	// Confirm gates pane destruction in current-window mode. Nil proceeds.
	Confirm ConfirmFunc
	// Logger defaults to a no-op logger.
	Logger *logging.Logger
}

// Executor applies one PlanEmission. Not reusable across runs: the pane map
// is created empty per Apply call and discarded at run end.
type Executor struct {
	runner tmux.Runner
	opts   Options
	logger *logging.Logger

	state        State
	paneMap      map[string]string
	nameIndex    map[string]string
	windowTarget string
	emission     *emit.PlanEmission
	executed     int
}

// New creates an Executor over the given runner.
func New(runner tmux.Runner, opts Options) *Executor {
	if opts.Mode == "" {
		opts.Mode = NewWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Executor{
		runner: runner,
		opts:   opts,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (e *Executor) State() State { return e.state }

// Apply replays the emission and returns the number of executed steps.
// On failure the count covers the steps completed before the failing one.
func (e *Executor) Apply(ctx context.Context, em *emit.PlanEmission) (int, error) {
	if em == nil || em.Summary.InitialPaneID == "" {
		e.state = StateFailed
		return 0, errors.New(errors.InvalidPlan, "emission is missing an initial pane id")
	}

	e.paneMap = make(map[string]string)
	e.nameIndex = buildNameIndex(em.Terminals)
	e.emission = em
	e.executed = 0
	defer func() { e.paneMap = nil }()

	e.setState(StateAcquiringWindow)
	if err := e.acquireWindow(ctx, em.Summary.InitialPaneID); err != nil {
		e.state = StateFailed
		return e.executed, err
	}

	e.setState(StateReplayingSteps)
	if err := e.replaySteps(ctx, em.Steps); err != nil {
		e.state = StateFailed
		return e.executed, err
	}

	e.setState(StateConfiguringTerminals)
	if err := e.configureTerminals(ctx, em.Terminals); err != nil {
		e.state = StateFailed
		return e.executed, err
	}

	e.setState(StateRestoringFocus)
	if err := e.restoreFocus(ctx, em.Summary.FocusPaneID); err != nil {
		e.state = StateFailed
		return e.executed, err
	}

	e.setState(StateDone)
	return e.executed, nil
}

func (e *Executor) setState(s State) {
	e.state = s
	e.logger.Debug("executor state change", "state", string(s))
}

// acquireWindow binds the emission's initial virtual pane id to a real pane:
// the attached pane in current-window mode (after optionally killing the
// window's other panes), or the pane of a freshly created window.
func (e *Executor) acquireWindow(ctx context.Context, initialPaneID string) error {
	log := e.logger.WithPhase("acquire_window")

	switch e.opts.Mode {
	case CurrentWindow:
		if !e.runner.DryRun() && !tmux.InsideTmux() {
			return errors.New(errors.NotInTmuxSession, "current-window mode requires running inside a tmux session")
		}

		current := tmux.CurrentPaneID()
		if current == "" {
			if e.runner.DryRun() {
				current = "%0"
			} else {
				out, err := e.exec(ctx, []string{"display-message", "-p", "#{pane_id}"})
				if err != nil {
					return err
				}
				current = strings.TrimSpace(out)
			}
		}

		panes, err := e.listPanes(ctx)
		if err != nil {
			return err
		}

		var panesToClose []string
		for _, pane := range panes {
			if pane != current {
				panesToClose = append(panesToClose, pane)
			}
		}

		if len(panesToClose) > 0 {
			// Confirm first; decline must be a pure no-mutation return.
			if e.opts.Confirm != nil {
				ok, err := e.opts.Confirm(ctx, panesToClose, e.runner.DryRun())
				if err != nil {
					return err
				}
				if !ok {
					return errors.New(errors.UserCancelled, "user declined closing existing panes").
						WithDetail("panes", panesToClose)
				}
			}
			if _, err := e.exec(ctx, []string{"kill-pane", "-a", "-t", current}); err != nil {
				return err
			}
			log.Info("closed existing panes", "count", len(panesToClose))
		}

		e.register(initialPaneID, current)
		return nil

	case NewWindow:
		argv := []string{"new-window", "-P", "-F", "#{window_id}:#{pane_id}"}
		if e.opts.WindowName != "" {
			argv = append(argv, "-n", e.opts.WindowName)
		}
		out, err := e.exec(ctx, argv)
		if err != nil {
			return err
		}

		window, pane, found := strings.Cut(strings.TrimSpace(out), ":")
		if !found || pane == "" {
			return errors.New(errors.InvalidPane, "new-window returned no pane id").
				WithDetail("output", out)
		}
		e.windowTarget = window
		e.register(initialPaneID, pane)
		log.Info("created window", "window", window, "pane", pane)
		return nil

	default:
		return errors.Newf(errors.InvalidPlan, "unknown window mode %q", e.opts.Mode)
	}
}

// replaySteps executes command steps strictly in emission order. A split's
// created-pane registration completes before anything referencing it runs.
func (e *Executor) replaySteps(ctx context.Context, steps []emit.CommandStep) error {
	log := e.logger.WithPhase("replay_steps")

	for _, step := range steps {
		if step.TargetPaneID == "" {
			return errors.New(errors.MissingTarget, "step has no target pane id").
				WithPath(step.ID)
		}

		real, ok := e.resolvePane(step.TargetPaneID)
		if !ok {
			return errors.New(errors.InvalidPane, "target pane is not registered").
				WithPath(step.ID).
				WithDetail("pane", step.TargetPaneID)
		}

		switch step.Kind {
		case emit.StepSplit:
			if err := e.executeSplit(ctx, step, real); err != nil {
				return err
			}
		case emit.StepFocus:
			if _, err := e.exec(ctx, []string{"select-pane", "-t", real}); err != nil {
				return err
			}
		default:
			return errors.Newf(errors.InvalidPlan, "unknown step kind %q", step.Kind).
				WithPath(step.ID)
		}

		e.executed++
		log.Debug("executed step", "step", step.ID, "summary", step.Summary)
	}

	return nil
}

// executeSplit snapshots the pane set around the split command and diffs the
// snapshots to learn the new real pane id, then registers the created
// virtual id against it.
func (e *Executor) executeSplit(ctx context.Context, step emit.CommandStep, target string) error {
	before, err := e.listPanes(ctx)
	if err != nil {
		return err
	}

	argv := []string{"split-window", orientationFlag(step.Orientation), "-t", target}
	if step.FixedCells > 0 {
		argv = append(argv, "-l", strconv.Itoa(step.FixedCells))
	} else {
		argv = append(argv, "-p", strconv.Itoa(step.Percentage))
	}
	if _, err := e.exec(ctx, argv); err != nil {
		return err
	}

	after, err := e.listPanes(ctx)
	if err != nil {
		return err
	}

	created := diffPanes(before, after)
	if created == "" {
		return errors.New(errors.InvalidPane, "split produced no new pane").
			WithPath(step.ID).
			WithDetail("target", target)
	}

	e.register(step.CreatedPaneID, created)
	return nil
}

// configureTerminals applies per-terminal setup in emission order: title,
// delay, working directory, environment exports, then the command itself.
func (e *Executor) configureTerminals(ctx context.Context, terminals []emit.EmittedTerminal) error {
	log := e.logger.WithPhase("configure_terminals")

	for _, term := range terminals {
		real, ok := e.resolvePane(term.PaneID)
		if !ok {
			return errors.New(errors.InvalidPane, "terminal pane is not registered").
				WithPath(term.PaneID).
				WithDetail("pane", term.PaneID)
		}

		if term.Title != "" {
			if _, err := e.exec(ctx, []string{"select-pane", "-t", real, "-T", term.Title}); err != nil {
				return err
			}
		}

		// Delay is a pure time suspension; skipped under dry-run.
		if term.Delay > 0 && !e.runner.DryRun() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(term.Delay) * time.Millisecond):
			}
		}

		if term.Cwd != "" {
			if err := e.sendKeys(ctx, real, "cd "+shellQuote(term.Cwd)); err != nil {
				return err
			}
		}

		for _, key := range sortedKeys(term.Env) {
			line := fmt.Sprintf("export %s=%s", key, shellQuote(term.Env[key]))
			if err := e.sendKeys(ctx, real, line); err != nil {
				return err
			}
		}

		if term.Command != "" {
			command, err := e.substituteTokens(term.Command, real)
			if err != nil {
				return err
			}
			if term.Ephemeral {
				command = appendExitSuffix(command, term.CloseOnError)
			}
			if err := e.sendKeys(ctx, real, command); err != nil {
				return err
			}
		}

		log.Debug("configured terminal", "pane", term.PaneID, "real", real)
	}

	return nil
}

// restoreFocus runs after terminal configuration, which may have changed the
// active pane.
func (e *Executor) restoreFocus(ctx context.Context, focusPaneID string) error {
	real, ok := e.resolvePane(focusPaneID)
	if !ok {
		return errors.New(errors.InvalidPane, "focus pane is not registered").
			WithPath(focusPaneID).
			WithDetail("pane", focusPaneID)
	}
	_, err := e.exec(ctx, []string{"select-pane", "-t", real})
	return err
}

func (e *Executor) exec(ctx context.Context, argv []string) (string, error) {
	out, err := e.runner.Execute(ctx, argv)
	if err != nil {
		return "", errors.WrapCommand(err, argv)
	}
	return out, nil
}

// listPanes returns the real pane ids of the target window.
func (e *Executor) listPanes(ctx context.Context) ([]string, error) {
	argv := []string{"list-panes"}
	if e.windowTarget != "" {
		argv = append(argv, "-t", e.windowTarget)
	}
	argv = append(argv, "-F", "#{pane_id}")

	out, err := e.exec(ctx, argv)
	if err != nil {
		return nil, err
	}

	var panes []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			panes = append(panes, line)
		}
	}
	return panes, nil
}

func (e *Executor) sendKeys(ctx context.Context, pane, line string) error {
	_, err := e.exec(ctx, []string{"send-keys", "-t", pane, line, "Enter"})
	return err
}

func orientationFlag(o preset.Orientation) string {
	if o == preset.Vertical {
		return "-v"
	}
	return "-h"
}

// diffPanes returns the single pane present in after but not before, or ""
// when the split created nothing observable.
func diffPanes(before, after []string) string {
	known := make(map[string]bool, len(before))
	for _, pane := range before {
		known[pane] = true
	}
	for _, pane := range after {
		if !known[pane] {
			return pane
		}
	}
	return ""
}

// appendExitSuffix makes an ephemeral pane close itself: unconditionally
// when closeOnError is set, only after success otherwise.
func appendExitSuffix(command string, closeOnError bool) string {
	if closeOnError {
		return command + "; exit"
	}
	return command + " && exit"
}

// shellQuote single-quotes a value for send-keys, escaping embedded quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildNameIndex(terminals []emit.EmittedTerminal) map[string]string {
	index := make(map[string]string, len(terminals))
	for _, term := range terminals {
		if term.Name == "" {
			continue
		}
		// First occurrence wins for duplicate names.
		if _, exists := index[term.Name]; !exists {
			index[term.Name] = term.PaneID
		}
	}
	return index
}
