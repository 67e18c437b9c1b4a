// Package plan turns a compiled preset into a layout plan: every node gets a
// deterministic dotted-path id, ratios are normalized, and exactly one
// terminal ends up focused. Ids are a pure function of tree shape and order,
// never of runtime state, which is what makes dry-run and live execution
// replay the same plan.
package plan

import (
	"strconv"

	"github.com/yuki-yano/vde-layout/internal/errors"
	"github.com/yuki-yano/vde-layout/internal/preset"
)

// RootID is the id of the tree root. Children append ".<siblingIndex>".
const RootID = "root"

// Node is a planned layout node: a *TerminalNode or a *SplitNode.
type Node interface {
	// ID returns the deterministic dotted-path id, e.g. "root.1.0".
	ID() string
}

// TerminalNode is a planned terminal pane.
type TerminalNode struct {
	PaneID string
	// Focus is true on exactly one terminal in the tree; the planner rewrites
	// it so single focus is a structural guarantee, not a convention.
	Focus bool

	Name         string
	Command      string
	Cwd          string
	Env          map[string]string
	Ephemeral    bool
	CloseOnError bool
	Delay        int
	Title        string
	Options      map[string]any
}

// ID implements Node.
func (n *TerminalNode) ID() string { return n.PaneID }

// SplitNode is a planned split with normalized ratio entries: weighted
// entries are fractions summing to 1; fixed-cell entries keep their shape
// for emission-time dynamic sizing.
type SplitNode struct {
	PaneID      string
	Orientation preset.Orientation
	Ratio       []preset.RatioEntry
	Panes       []Node
}

// ID implements Node.
func (n *SplitNode) ID() string { return n.PaneID }

// LayoutPlan is the planner output. FocusPaneID names exactly one reachable
// terminal.
type LayoutPlan struct {
	Root        Node
	FocusPaneID string
}

// Build plans a compiled preset. When the preset has no layout it
// synthesizes a single focused terminal at the root running the preset's
// top-level command.
func Build(p *preset.CompiledPreset) (*LayoutPlan, error) {
	if p.Layout == nil {
		root := &TerminalNode{
			PaneID:  RootID,
			Name:    p.Name,
			Command: p.Command,
			Focus:   true,
		}
		return &LayoutPlan{Root: root, FocusPaneID: RootID}, nil
	}

	root, err := assignIDs(p.Layout, RootID)
	if err != nil {
		return nil, err
	}

	var terminalIDs, focusIDs []string
	collect(root, &terminalIDs, &focusIDs)

	if len(focusIDs) > 1 {
		return nil, errors.New(errors.FocusConflict, "multiple terminals request focus").
			WithPath("preset.layout").
			WithDetail("panes", focusIDs)
	}
	if len(terminalIDs) == 0 {
		return nil, errors.New(errors.NoTerminalPanes, "layout contains no terminal panes").
			WithPath("preset.layout")
	}

	focusID := terminalIDs[0]
	if len(focusIDs) == 1 {
		focusID = focusIDs[0]
	}
	rewriteFocus(root, focusID)

	return &LayoutPlan{Root: root, FocusPaneID: focusID}, nil
}

// assignIDs walks the compiled tree depth-first, assigning each child
// "<parentID>.<siblingIndex>" and normalizing split ratios.
func assignIDs(node preset.Node, id string) (Node, error) {
	switch n := node.(type) {
	case *preset.Terminal:
		return &TerminalNode{
			PaneID:       id,
			Focus:        n.Focus,
			Name:         n.Name,
			Command:      n.Command,
			Cwd:          n.Cwd,
			Env:          n.Env,
			Ephemeral:    n.Ephemeral,
			CloseOnError: n.CloseOnError,
			Delay:        n.Delay,
			Title:        n.Title,
			Options:      n.Options,
		}, nil
	case *preset.Split:
		ratio, err := normalizeRatio(n.Ratio, id)
		if err != nil {
			return nil, err
		}
		split := &SplitNode{
			PaneID:      id,
			Orientation: n.Orientation,
			Ratio:       ratio,
			Panes:       make([]Node, len(n.Panes)),
		}
		for i, child := range n.Panes {
			planned, err := assignIDs(child, childID(id, i))
			if err != nil {
				return nil, err
			}
			split.Panes[i] = planned
		}
		return split, nil
	default:
		return nil, errors.Newf(errors.InvalidPlan, "unknown layout node type %T", node).WithPath(id)
	}
}

// childID derives a child id from its parent id and sibling index.
func childID(parent string, index int) string {
	return parent + "." + strconv.Itoa(index)
}

// normalizeRatio converts weighted entries to fractions summing to 1.
// An all-zero weighted ratio of length n becomes n equal 1/n shares. Fixed
// entries pass through; they require at least one weighted sibling to absorb
// the remaining space.
func normalizeRatio(ratio []preset.RatioEntry, id string) ([]preset.RatioEntry, error) {
	weighted := 0
	sum := 0.0
	for _, entry := range ratio {
		if entry.Fixed {
			continue
		}
		weighted++
		sum += entry.Weight
	}

	hasFixed := weighted < len(ratio)
	if hasFixed && weighted == 0 {
		return nil, errors.New(errors.RatioWeightMissing, "split with fixed-cell entries requires at least one weighted entry").
			WithPath(id)
	}

	out := make([]preset.RatioEntry, len(ratio))
	for i, entry := range ratio {
		if entry.Fixed {
			out[i] = entry
			continue
		}
		if sum == 0 {
			out[i] = preset.RatioEntry{Weight: 1 / float64(weighted)}
		} else {
			out[i] = preset.RatioEntry{Weight: entry.Weight / sum}
		}
	}
	return out, nil
}

// collect gathers terminal ids and focus-requesting ids in depth-first order.
func collect(node Node, terminalIDs, focusIDs *[]string) {
	switch n := node.(type) {
	case *TerminalNode:
		*terminalIDs = append(*terminalIDs, n.PaneID)
		if n.Focus {
			*focusIDs = append(*focusIDs, n.PaneID)
		}
	case *SplitNode:
		for _, child := range n.Panes {
			collect(child, terminalIDs, focusIDs)
		}
	}
}

// rewriteFocus sets Focus on every terminal to (id == focusID).
func rewriteFocus(node Node, focusID string) {
	switch n := node.(type) {
	case *TerminalNode:
		n.Focus = n.PaneID == focusID
	case *SplitNode:
		for _, child := range n.Panes {
			rewriteFocus(child, focusID)
		}
	}
}
