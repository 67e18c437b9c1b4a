// Package tmux provides the command-executing collaborator consumed by the
// plan executor: a Runner abstraction over the tmux binary, plus helpers for
// detecting the surrounding tmux client.
//
// The executor never shells out directly; it hands argv slices to a Runner.
// CommandRunner drives a live tmux server, DryRunner simulates one so the
// same replay code path works without side effects.
package tmux

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/yuki-yano/vde-layout/internal/logging"
)

// Runner executes tmux commands. Execute receives argv without the leading
// binary name and returns trimmed stdout; listing and creation commands
// return newline-joined identifiers.
type Runner interface {
	Execute(ctx context.Context, argv []string) (string, error)
	// DryRun reports whether this runner mutates a live backend.
	DryRun() bool
}

// EnvTmux is set by tmux inside any client.
const EnvTmux = "TMUX"

// EnvTmuxPane carries the real pane id of the attached pane.
const EnvTmuxPane = "TMUX_PANE"

// InsideTmux reports whether the process runs inside a tmux client.
func InsideTmux() bool {
	return os.Getenv(EnvTmux) != ""
}

// CurrentPaneID returns the real pane id hinted by the environment, or ""
// when the hint is absent.
func CurrentPaneID() string {
	return os.Getenv(EnvTmuxPane)
}

// CommandRunner executes tmux commands against a live server.
type CommandRunner struct {
	// Bin is the tmux binary. Defaults to "tmux" resolved via PATH.
	Bin string
	// ExtraEnv are KEY=VALUE entries appended to the process environment.
	ExtraEnv []string

	logger *logging.Logger
}

// NewRunner creates a live CommandRunner.
func NewRunner(logger *logging.Logger) *CommandRunner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &CommandRunner{Bin: "tmux", logger: logger}
}

// DryRun implements Runner.
func (r *CommandRunner) DryRun() bool { return false }

// Execute runs `tmux <argv...>` and returns stdout trimmed of trailing
// newlines. Stderr is folded into the returned error.
func (r *CommandRunner) Execute(ctx context.Context, argv []string) (string, error) {
	bin := r.Bin
	if bin == "" {
		bin = "tmux"
	}

	cmd := exec.CommandContext(ctx, bin, argv...)
	if len(r.ExtraEnv) > 0 {
		cmd.Env = append(os.Environ(), r.ExtraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("executing tmux command", "argv", strings.Join(argv, " "))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("tmux %s: %w", strings.Join(argv, " "), err)
		}
		return "", fmt.Errorf("tmux %s: %w: %s", strings.Join(argv, " "), err, msg)
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}

// IsAvailable reports whether the tmux binary can be resolved.
func (r *CommandRunner) IsAvailable() bool {
	bin := r.Bin
	if bin == "" {
		bin = "tmux"
	}
	_, err := exec.LookPath(bin)
	return err == nil
}
