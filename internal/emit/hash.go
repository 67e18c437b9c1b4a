package emit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/yuki-yano/vde-layout/internal/plan"
	"github.com/yuki-yano/vde-layout/internal/preset"
)

// hashEnvelope is the canonical form digested into the emission hash.
// Field order is fixed by struct declaration; maps are rewritten into
// sorted slices so marshaling is deterministic.
type hashEnvelope struct {
	FocusPaneID string        `json:"focusPaneId"`
	Root        any           `json:"root"`
	Steps       []CommandStep `json:"steps"`
}

type hashTerminal struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Name         string     `json:"name"`
	Command      string     `json:"command,omitempty"`
	Cwd          string     `json:"cwd,omitempty"`
	Env          []hashPair `json:"env,omitempty"`
	Focus        bool       `json:"focus"`
	Ephemeral    bool       `json:"ephemeral,omitempty"`
	CloseOnError bool       `json:"closeOnError,omitempty"`
	Delay        int        `json:"delay,omitempty"`
	Title        string     `json:"title,omitempty"`
	Options      []hashPair `json:"options,omitempty"`
}

type hashSplit struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Orientation preset.Orientation `json:"orientation"`
	Ratio       []hashRatio        `json:"ratio"`
	Panes       []any              `json:"panes"`
}

type hashRatio struct {
	Weight float64 `json:"weight,omitempty"`
	Fixed  bool    `json:"fixed,omitempty"`
	Cells  int     `json:"cells,omitempty"`
}

type hashPair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// hashEmission digests {focusPaneId, root, steps} with SHA-256 and returns
// the hex-encoded hash. Identical plans always hash identically.
func hashEmission(p *plan.LayoutPlan, steps []CommandStep) (string, error) {
	envelope := hashEnvelope{
		FocusPaneID: p.FocusPaneID,
		Root:        canonicalNode(p.Root),
		Steps:       steps,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:]), nil
}

// canonicalNode converts a plan node into a deterministic marshal shape.
func canonicalNode(node plan.Node) any {
	switch n := node.(type) {
	case *plan.TerminalNode:
		return hashTerminal{
			ID:           n.PaneID,
			Kind:         "terminal",
			Name:         n.Name,
			Command:      n.Command,
			Cwd:          n.Cwd,
			Env:          sortedStringPairs(n.Env),
			Focus:        n.Focus,
			Ephemeral:    n.Ephemeral,
			CloseOnError: n.CloseOnError,
			Delay:        n.Delay,
			Title:        n.Title,
			Options:      sortedAnyPairs(n.Options),
		}
	case *plan.SplitNode:
		ratio := make([]hashRatio, len(n.Ratio))
		for i, entry := range n.Ratio {
			ratio[i] = hashRatio{Weight: entry.Weight, Fixed: entry.Fixed, Cells: entry.Cells}
		}
		panes := make([]any, len(n.Panes))
		for i, child := range n.Panes {
			panes[i] = canonicalNode(child)
		}
		return hashSplit{
			ID:          n.PaneID,
			Kind:        "split",
			Orientation: n.Orientation,
			Ratio:       ratio,
			Panes:       panes,
		}
	default:
		return nil
	}
}

func sortedStringPairs(m map[string]string) []hashPair {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]hashPair, len(keys))
	for i, k := range keys {
		pairs[i] = hashPair{Key: k, Value: m[k]}
	}
	return pairs
}

func sortedAnyPairs(m map[string]any) []hashPair {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]hashPair, len(keys))
	for i, k := range keys {
		pairs[i] = hashPair{Key: k, Value: m[k]}
	}
	return pairs
}
