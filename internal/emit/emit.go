// Package emit lowers a layout plan into an ordered sequence of backend
// command steps plus flattened terminal configurations. The emission is a
// total function over a valid plan, and its content hash is stable for equal
// plans, which is what ties dry-run output to live execution.
package emit

import (
	"fmt"
	"math"
	"strconv"

	"github.com/yuki-yano/vde-layout/internal/plan"
	"github.com/yuki-yano/vde-layout/internal/preset"
)

// StepKind discriminates the two command step shapes.
type StepKind string

const (
	StepSplit StepKind = "split"
	StepFocus StepKind = "focus"
)

// CommandStep is one backend mutation. Split steps divide the target pane,
// producing the created pane; focus steps activate the target pane. Steps
// are generated depth-first, a split node's own steps before its children's,
// matching backend creation order dependencies.
type CommandStep struct {
	// ID identifies the step for error attribution, e.g. "step-3".
	ID   string   `json:"id"`
	Kind StepKind `json:"kind"`
	// TargetPaneID is the virtual id the step operates on.
	TargetPaneID string `json:"targetPaneId"`
	// CreatedPaneID is the virtual id of the pane a split produces.
	CreatedPaneID string `json:"createdPaneId,omitempty"`
	// Orientation of a split step.
	Orientation preset.Orientation `json:"orientation,omitempty"`
	// Percentage is the split size in percent of the target pane, clamped to
	// [1,99]. Zero when FixedCells is set.
	Percentage int `json:"percentage,omitempty"`
	// FixedCells requests a fixed-size split in terminal cells instead of a
	// percentage.
	FixedCells int `json:"fixedCells,omitempty"`
	// Summary is a one-line human-readable description.
	Summary string `json:"summary"`
}

// EmittedTerminal is a flattened terminal configuration, one per leaf,
// in depth-first order.
type EmittedTerminal struct {
	PaneID       string            `json:"paneId"`
	Name         string            `json:"name"`
	Command      string            `json:"command,omitempty"`
	Cwd          string            `json:"cwd,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	Delay        int               `json:"delay,omitempty"`
	Title        string            `json:"title,omitempty"`
	Focus        bool              `json:"focus"`
	Ephemeral    bool              `json:"ephemeral,omitempty"`
	CloseOnError bool              `json:"closeOnError,omitempty"`
}

// Summary aggregates emission counts and anchor pane ids.
type Summary struct {
	StepCount int `json:"stepCount"`
	// FocusPaneID is the virtual id of the resolved focus terminal.
	FocusPaneID string `json:"focusPaneId"`
	// InitialPaneID is the virtual id bound to the pane that exists before
	// any split runs.
	InitialPaneID string `json:"initialPaneId"`
}

// PlanEmission is the emitter output: the full replayable command sequence,
// terminal configs, and a content hash over the canonical form of
// {focusPaneId, root, steps}.
type PlanEmission struct {
	Steps     []CommandStep
	Terminals []EmittedTerminal
	Summary   Summary
	Hash      string
}

// Emit lowers a layout plan. Emitting the same plan twice yields an
// identical step list and hash.
func Emit(p *plan.LayoutPlan) (*PlanEmission, error) {
	em := &PlanEmission{}

	emitSplits(p.Root, em)

	em.Steps = append(em.Steps, CommandStep{
		ID:           stepID(len(em.Steps)),
		Kind:         StepFocus,
		TargetPaneID: p.FocusPaneID,
		Summary:      fmt.Sprintf("focus pane %s", p.FocusPaneID),
	})

	collectTerminals(p.Root, &em.Terminals)

	em.Summary = Summary{
		StepCount:     len(em.Steps),
		FocusPaneID:   p.FocusPaneID,
		InitialPaneID: p.Root.ID(),
	}

	hash, err := hashEmission(p, em.Steps)
	if err != nil {
		return nil, err
	}
	em.Hash = hash

	return em, nil
}

// emitSplits walks the tree depth-first. A split with k panes emits k-1
// steps before descending: step i targets sibling i-1 and creates sibling i.
func emitSplits(node plan.Node, em *PlanEmission) {
	split, ok := node.(*plan.SplitNode)
	if !ok {
		return
	}

	for i := 1; i < len(split.Panes); i++ {
		step := CommandStep{
			ID:            stepID(len(em.Steps)),
			Kind:          StepSplit,
			TargetPaneID:  split.Panes[i-1].ID(),
			CreatedPaneID: split.Panes[i].ID(),
			Orientation:   split.Orientation,
		}

		if entry := split.Ratio[i]; entry.Fixed {
			step.FixedCells = entry.Cells
			step.Summary = fmt.Sprintf("split %s %s at %d cells creating %s",
				step.TargetPaneID, split.Orientation, entry.Cells, step.CreatedPaneID)
		} else {
			step.Percentage = splitPercentage(split.Ratio, i)
			step.Summary = fmt.Sprintf("split %s %s at %d%% creating %s",
				step.TargetPaneID, split.Orientation, step.Percentage, step.CreatedPaneID)
		}

		em.Steps = append(em.Steps, step)
	}

	for _, child := range split.Panes {
		emitSplits(child, em)
	}
}

// splitPercentage sizes the pane created by step i as its share of what
// remains after steps 1..i-1: round(100 * sum(ratio[i:]) / sum(ratio[i-1:])),
// clamped to [1,99]. Each split divides only what is left of its own pane,
// which is how successive multiplexer splits compose. Fixed-cell entries do
// not participate in the weighted sums.
func splitPercentage(ratio []preset.RatioEntry, i int) int {
	sumFrom := func(start int) float64 {
		total := 0.0
		for _, entry := range ratio[start:] {
			if !entry.Fixed {
				total += entry.Weight
			}
		}
		return total
	}

	denominator := sumFrom(i - 1)
	if denominator == 0 {
		return 50
	}

	pct := int(math.Round(100 * sumFrom(i) / denominator))
	if pct < 1 {
		pct = 1
	}
	if pct > 99 {
		pct = 99
	}
	return pct
}

// collectTerminals flattens every terminal leaf in depth-first order.
func collectTerminals(node plan.Node, out *[]EmittedTerminal) {
	switch n := node.(type) {
	case *plan.TerminalNode:
		*out = append(*out, EmittedTerminal{
			PaneID:       n.PaneID,
			Name:         n.Name,
			Command:      n.Command,
			Cwd:          n.Cwd,
			Env:          n.Env,
			Delay:        n.Delay,
			Title:        n.Title,
			Focus:        n.Focus,
			Ephemeral:    n.Ephemeral,
			CloseOnError: n.CloseOnError,
		})
	case *plan.SplitNode:
		for _, child := range n.Panes {
			collectTerminals(child, out)
		}
	}
}

func stepID(index int) string {
	return "step-" + strconv.Itoa(index+1)
}
