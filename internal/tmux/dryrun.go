package tmux

import (
	"context"
	"fmt"
	"strings"
)

// DryRunner simulates a tmux server in memory: pane creation, listing, and
// killing behave like the live backend so the executor replays the exact
// same code path, while every received argv is recorded for inspection.
// It is not safe for concurrent use; the executor is single-threaded.
type DryRunner struct {
	// Commands records every argv passed to Execute, in order.
	Commands [][]string

	panes      []string
	nextPane   int
	nextWindow int
}

// NewDryRunner creates a simulator with a single existing pane %0,
// mirroring the state of a fresh tmux window.
func NewDryRunner() *DryRunner {
	return &DryRunner{panes: []string{"%0"}, nextPane: 1, nextWindow: 1}
}

// DryRun implements Runner.
func (d *DryRunner) DryRun() bool { return true }

// Execute implements Runner over the in-memory pane set.
func (d *DryRunner) Execute(_ context.Context, argv []string) (string, error) {
	recorded := make([]string, len(argv))
	copy(recorded, argv)
	d.Commands = append(d.Commands, recorded)

	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}

	switch argv[0] {
	case "list-panes":
		return strings.Join(d.panes, "\n"), nil
	case "split-window":
		id := d.newPane()
		return id, nil
	case "new-window":
		window := fmt.Sprintf("@%d", d.nextWindow)
		d.nextWindow++
		// A new window starts with a single fresh pane.
		d.panes = d.panes[:0]
		id := d.newPane()
		return window + ":" + id, nil
	case "kill-pane":
		if keep := argValue(argv, "-t"); keep != "" && hasFlag(argv, "-a") {
			d.panes = []string{keep}
		}
		return "", nil
	case "display-message":
		if len(d.panes) > 0 {
			return d.panes[0], nil
		}
		return "%0", nil
	default:
		// select-pane, send-keys and friends mutate nothing observable here.
		return "", nil
	}
}

func (d *DryRunner) newPane() string {
	id := fmt.Sprintf("%%%d", d.nextPane)
	d.nextPane++
	d.panes = append(d.panes, id)
	return id
}

// Panes returns the current simulated pane set.
func (d *DryRunner) Panes() []string {
	out := make([]string, len(d.panes))
	copy(out, d.panes)
	return out
}

func argValue(argv []string, flag string) string {
	for i, a := range argv {
		if a == flag && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return ""
}

func hasFlag(argv []string, flag string) bool {
	for _, a := range argv {
		if a == flag {
			return true
		}
	}
	return false
}
