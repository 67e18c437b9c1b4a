// Package preset compiles declarative layout documents into validated
// CompiledPreset trees. Compilation is a pure function: it classifies every
// node as a split or a terminal exactly once, validates split invariants
// (orientation, ratio/pane arity, positive ratio entries), and normalizes
// terminal configuration. All failures carry a stable code and the dotted
// path of the offending node.
package preset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yuki-yano/vde-layout/internal/errors"
)

// DefaultName is assigned when the document does not name itself.
const DefaultName = "preset"

// fixedCellSuffix marks a ratio entry as a fixed cell count, e.g. "40px".
const fixedCellSuffix = "px"

// Recognized terminal keys. Anything else lands in the options bag.
var terminalKeys = map[string]bool{
	"name":         true,
	"command":      true,
	"cwd":          true,
	"env":          true,
	"focus":        true,
	"ephemeral":    true,
	"closeOnError": true,
	"delay":        true,
	"title":        true,
}

// Compile parses a YAML document and compiles it into a CompiledPreset.
// The source label is carried into every error for attribution.
func Compile(doc []byte, source string) (*CompiledPreset, error) {
	var value any
	if err := yaml.Unmarshal(doc, &value); err != nil {
		return nil, errors.New(errors.PresetParseError, "preset document is not valid YAML").
			WithPath("preset").
			WithDetail("source", source).
			WithCause(err)
	}
	return CompileValue(value, source)
}

// CompileValue compiles an already-decoded document value. Both entry points
// converge on the same CompiledPreset shape.
func CompileValue(value any, source string) (*CompiledPreset, error) {
	root, ok := asMapping(value)
	if !ok {
		return nil, errors.New(errors.PresetInvalidDocument, "preset document root must be a mapping").
			WithPath("preset").
			WithDetail("source", source)
	}

	compiled := &CompiledPreset{
		Name:    DefaultName,
		Source:  source,
		Version: asString(root["version"]),
		Command: asString(root["command"]),
	}
	if name := asString(root["name"]); name != "" {
		compiled.Name = name
	}

	if layout, present := root["layout"]; present && layout != nil {
		node, err := compileNode(layout, "preset.layout")
		if err != nil {
			return nil, err
		}
		compiled.Layout = node
	}

	return compiled, nil
}

// compileNode classifies and validates a single layout node.
func compileNode(value any, path string) (Node, error) {
	m, ok := asMapping(value)
	if !ok {
		return nil, errors.New(errors.LayoutInvalidNode, "layout node must be a mapping").
			WithPath(path)
	}

	_, hasType := m["type"]
	_, hasPanes := m["panes"]
	_, hasCommand := m["command"]
	_, hasName := m["name"]

	switch {
	case hasType || hasPanes:
		return compileSplit(m, path)
	case hasCommand || hasName:
		return compileTerminal(m), nil
	default:
		return nil, errors.New(errors.LayoutInvalidNode, "layout node is neither a split nor a terminal").
			WithPath(path)
	}
}

func compileSplit(m map[string]any, path string) (Node, error) {
	orientation := Orientation(asString(m["type"]))
	if !orientation.Valid() {
		return nil, errors.Newf(errors.LayoutInvalidOrientation, "split type must be %q or %q", Horizontal, Vertical).
			WithPath(path).
			WithDetail("type", asString(m["type"]))
	}

	panes, ok := asSequence(m["panes"])
	if !ok || len(panes) == 0 {
		return nil, errors.New(errors.LayoutPanesMissing, "split requires a non-empty panes array").
			WithPath(path)
	}

	ratioRaw, ok := asSequence(m["ratio"])
	if !ok || len(ratioRaw) == 0 {
		return nil, errors.New(errors.LayoutRatioMissing, "split requires a non-empty ratio array").
			WithPath(path)
	}

	if len(ratioRaw) != len(panes) {
		return nil, errors.New(errors.LayoutRatioMismatch, "ratio and panes must have equal lengths").
			WithPath(path).
			WithDetail("ratio_length", len(ratioRaw)).
			WithDetail("panes_length", len(panes))
	}

	ratio := make([]RatioEntry, len(ratioRaw))
	for i, entry := range ratioRaw {
		parsed, err := parseRatioEntry(entry)
		if err != nil {
			return nil, errors.New(errors.RatioInvalidValue, "ratio entries must be finite positive numbers or fixed-cell tokens").
				WithPath(path).
				WithDetail("index", i).
				WithDetail("value", fmt.Sprintf("%v", entry))
		}
		ratio[i] = parsed
	}

	children := make([]Node, len(panes))
	for i, pane := range panes {
		child, err := compileNode(pane, fmt.Sprintf("%s.panes[%d]", path, i))
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	return &Split{Orientation: orientation, Ratio: ratio, Panes: children}, nil
}

// compileTerminal normalizes a terminal node. Terminals have no failure
// modes: unknown keys become options, non-string env values are dropped.
func compileTerminal(m map[string]any) Node {
	t := &Terminal{
		Name:         asString(m["name"]),
		Command:      asString(m["command"]),
		Cwd:          asString(m["cwd"]),
		Focus:        asBool(m["focus"]),
		Ephemeral:    asBool(m["ephemeral"]),
		CloseOnError: asBool(m["closeOnError"]),
		Title:        asString(m["title"]),
	}

	if delay, ok := asInt(m["delay"]); ok && delay > 0 {
		t.Delay = delay
	}

	if envRaw, ok := asMapping(m["env"]); ok {
		env := make(map[string]string)
		for k, v := range envRaw {
			if s, ok := v.(string); ok {
				env[k] = s
			}
			// Non-string values are silently dropped.
		}
		if len(env) > 0 {
			t.Env = env
		}
	}

	for k, v := range m {
		if terminalKeys[k] {
			continue
		}
		if t.Options == nil {
			t.Options = make(map[string]any)
		}
		t.Options[k] = v
	}

	return t
}

// parseRatioEntry accepts a finite positive number or a fixed-cell token of
// the form "<n>px".
func parseRatioEntry(value any) (RatioEntry, error) {
	switch v := value.(type) {
	case int:
		if v <= 0 {
			return RatioEntry{}, fmt.Errorf("non-positive ratio %d", v)
		}
		return RatioEntry{Weight: float64(v)}, nil
	case int64:
		if v <= 0 {
			return RatioEntry{}, fmt.Errorf("non-positive ratio %d", v)
		}
		return RatioEntry{Weight: float64(v)}, nil
	case float64:
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return RatioEntry{}, fmt.Errorf("invalid ratio %v", v)
		}
		return RatioEntry{Weight: v}, nil
	case string:
		raw, ok := strings.CutSuffix(v, fixedCellSuffix)
		if !ok {
			return RatioEntry{}, fmt.Errorf("unrecognized ratio token %q", v)
		}
		cells, err := strconv.Atoi(raw)
		if err != nil || cells <= 0 {
			return RatioEntry{}, fmt.Errorf("invalid fixed-cell token %q", v)
		}
		return RatioEntry{Fixed: true, Cells: cells}, nil
	default:
		return RatioEntry{}, fmt.Errorf("unsupported ratio type %T", value)
	}
}

// asMapping coerces YAML mapping shapes. yaml.v3 produces map[string]any for
// string-keyed mappings but map[any]any when any key is non-string.
func asMapping(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				continue
			}
			out[key] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asSequence(value any) ([]any, bool) {
	seq, ok := value.([]any)
	return seq, ok
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asBool(value any) bool {
	b, _ := value.(bool)
	return b
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
