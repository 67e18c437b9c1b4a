package plan

import (
	"math"
	"reflect"
	"testing"

	"github.com/yuki-yano/vde-layout/internal/errors"
	"github.com/yuki-yano/vde-layout/internal/preset"
)

func terminal(name string, focus bool) *preset.Terminal {
	return &preset.Terminal{Name: name, Focus: focus}
}

func weights(ws ...float64) []preset.RatioEntry {
	out := make([]preset.RatioEntry, len(ws))
	for i, w := range ws {
		out[i] = preset.RatioEntry{Weight: w}
	}
	return out
}

func TestBuildAssignsDeterministicIDs(t *testing.T) {
	compiled := &preset.CompiledPreset{
		Name: "dev",
		Layout: &preset.Split{
			Orientation: preset.Horizontal,
			Ratio:       weights(1, 1, 1),
			Panes: []preset.Node{
				terminal("a", false),
				&preset.Split{
					Orientation: preset.Vertical,
					Ratio:       weights(1, 2),
					Panes:       []preset.Node{terminal("b", false), terminal("c", false)},
				},
				terminal("d", false),
			},
		},
	}

	p, err := Build(compiled)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	root := p.Root.(*SplitNode)
	if root.PaneID != "root" {
		t.Errorf("root id = %q, want root", root.PaneID)
	}

	wantIDs := []string{"root.0", "root.1", "root.2"}
	for i, want := range wantIDs {
		if got := root.Panes[i].ID(); got != want {
			t.Errorf("Panes[%d].ID() = %q, want %q", i, got, want)
		}
	}

	inner := root.Panes[1].(*SplitNode)
	if inner.Panes[0].ID() != "root.1.0" || inner.Panes[1].ID() != "root.1.1" {
		t.Errorf("inner ids = %q, %q", inner.Panes[0].ID(), inner.Panes[1].ID())
	}
}

func TestBuildIDDeterminism(t *testing.T) {
	mk := func() *preset.CompiledPreset {
		return &preset.CompiledPreset{
			Layout: &preset.Split{
				Orientation: preset.Horizontal,
				Ratio:       weights(1, 1),
				Panes:       []preset.Node{terminal("a", false), terminal("b", true)},
			},
		}
	}

	first, err := Build(mk())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := Build(mk())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("structurally identical presets should plan identically")
	}
}

func TestBuildSingleFocusInvariant(t *testing.T) {
	compiled := &preset.CompiledPreset{
		Layout: &preset.Split{
			Orientation: preset.Horizontal,
			Ratio:       weights(1, 1, 1),
			Panes: []preset.Node{
				terminal("a", false),
				terminal("b", true),
				terminal("c", false),
			},
		},
	}

	p, err := Build(compiled)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.FocusPaneID != "root.1" {
		t.Errorf("FocusPaneID = %q, want root.1", p.FocusPaneID)
	}

	var focused []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *TerminalNode:
			if v.Focus {
				focused = append(focused, v.PaneID)
			}
		case *SplitNode:
			for _, c := range v.Panes {
				walk(c)
			}
		}
	}
	walk(p.Root)

	if len(focused) != 1 || focused[0] != p.FocusPaneID {
		t.Errorf("focused terminals = %v, want exactly [%s]", focused, p.FocusPaneID)
	}
}

func TestBuildDefaultFocusIsFirstTerminal(t *testing.T) {
	compiled := &preset.CompiledPreset{
		Layout: &preset.Split{
			Orientation: preset.Vertical,
			Ratio:       weights(1, 1),
			Panes:       []preset.Node{terminal("top", false), terminal("bottom", false)},
		},
	}

	p, err := Build(compiled)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.FocusPaneID != "root.0" {
		t.Errorf("FocusPaneID = %q, want root.0", p.FocusPaneID)
	}
}

func TestBuildFocusConflict(t *testing.T) {
	compiled := &preset.CompiledPreset{
		Layout: &preset.Split{
			Orientation: preset.Horizontal,
			Ratio:       weights(1, 1),
			Panes:       []preset.Node{terminal("a", true), terminal("b", true)},
		},
	}

	_, err := Build(compiled)
	if !errors.IsCode(err, errors.FocusConflict) {
		t.Fatalf("CodeOf() = %q, want FOCUS_CONFLICT", errors.CodeOf(err))
	}

	var le *errors.LayoutError
	if !errors.As(err, &le) {
		t.Fatal("expected *LayoutError")
	}
	panes, ok := le.Details["panes"].([]string)
	if !ok || len(panes) != 2 {
		t.Errorf("Details[panes] = %v, want both conflicting ids", le.Details["panes"])
	}
}

func TestBuildNoTerminalPanes(t *testing.T) {
	// Not constructible from a valid document, but the planner guards anyway.
	compiled := &preset.CompiledPreset{
		Layout: &preset.Split{Orientation: preset.Horizontal},
	}

	_, err := Build(compiled)
	if !errors.IsCode(err, errors.NoTerminalPanes) {
		t.Errorf("CodeOf() = %q, want NO_TERMINAL_PANES", errors.CodeOf(err))
	}
}

func TestBuildSynthesizesLayout(t *testing.T) {
	p, err := Build(&preset.CompiledPreset{Name: "min", Command: "htop"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	term, ok := p.Root.(*TerminalNode)
	if !ok {
		t.Fatalf("Root = %T, want *TerminalNode", p.Root)
	}
	if term.PaneID != "root" || !term.Focus {
		t.Errorf("synthesized terminal = %+v", term)
	}
	if term.Command != "htop" {
		t.Errorf("Command = %q, want htop", term.Command)
	}
	if p.FocusPaneID != "root" {
		t.Errorf("FocusPaneID = %q, want root", p.FocusPaneID)
	}
}

func TestNormalizeRatioFractions(t *testing.T) {
	compiled := &preset.CompiledPreset{
		Layout: &preset.Split{
			Orientation: preset.Horizontal,
			Ratio:       weights(1, 3),
			Panes:       []preset.Node{terminal("a", false), terminal("b", false)},
		},
	}

	p, err := Build(compiled)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	root := p.Root.(*SplitNode)
	sum := 0.0
	for _, entry := range root.Ratio {
		sum += entry.Weight
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("normalized ratio sum = %v, want 1", sum)
	}
	if math.Abs(root.Ratio[0].Weight-0.25) > 1e-9 {
		t.Errorf("Ratio[0] = %v, want 0.25", root.Ratio[0].Weight)
	}
}

func TestNormalizeRatioZeroSum(t *testing.T) {
	out, err := normalizeRatio(weights(0, 0, 0), "root")
	if err != nil {
		t.Fatalf("normalizeRatio() error = %v", err)
	}
	for i, entry := range out {
		if math.Abs(entry.Weight-1.0/3) > 1e-9 {
			t.Errorf("out[%d] = %v, want 1/3", i, entry.Weight)
		}
	}
}

func TestNormalizeRatioKeepsFixedEntries(t *testing.T) {
	ratio := []preset.RatioEntry{
		{Fixed: true, Cells: 20},
		{Weight: 1},
		{Weight: 1},
	}

	out, err := normalizeRatio(ratio, "root")
	if err != nil {
		t.Fatalf("normalizeRatio() error = %v", err)
	}
	if !out[0].Fixed || out[0].Cells != 20 {
		t.Errorf("out[0] = %+v, want fixed 20 cells", out[0])
	}
	if math.Abs(out[1].Weight-0.5) > 1e-9 || math.Abs(out[2].Weight-0.5) > 1e-9 {
		t.Errorf("weighted entries = %+v, %+v, want 0.5 each", out[1], out[2])
	}
}

func TestBuildRatioWeightMissing(t *testing.T) {
	compiled := &preset.CompiledPreset{
		Layout: &preset.Split{
			Orientation: preset.Vertical,
			Ratio: []preset.RatioEntry{
				{Fixed: true, Cells: 10},
				{Fixed: true, Cells: 20},
			},
			Panes: []preset.Node{terminal("a", false), terminal("b", false)},
		},
	}

	_, err := Build(compiled)
	if !errors.IsCode(err, errors.RatioWeightMissing) {
		t.Errorf("CodeOf() = %q, want RATIO_WEIGHT_MISSING", errors.CodeOf(err))
	}
}
