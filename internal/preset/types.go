package preset

// Orientation is the direction of a split: horizontal panes sit side by
// side, vertical panes are stacked.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Valid reports whether the orientation is one of the two known values.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// NodeKind discriminates the two layout node shapes.
type NodeKind string

const (
	KindTerminal NodeKind = "terminal"
	KindSplit    NodeKind = "split"
)

// Node is a layout tree node: exactly one of Terminal or Split.
// Kind is classified once at compile time; later stages switch on the
// concrete type and never probe fields.
type Node interface {
	Kind() NodeKind
}

// Terminal is a leaf pane running a single command.
type Terminal struct {
	// Name identifies the pane for {{pane_id:<name>}} template resolution.
	Name string
	// Command is the shell command sent to the pane after setup. Optional.
	Command string
	// Cwd is the working directory the pane changes into before Command.
	Cwd string
	// Env holds string-valued environment exports. Non-string values in the
	// source document are dropped at compile time.
	Env map[string]string
	// Focus marks this pane as the focus requester.
	Focus bool
	// Ephemeral panes close automatically once Command completes.
	Ephemeral bool
	// CloseOnError makes an ephemeral pane close even when Command fails.
	CloseOnError bool
	// Delay is the pause in milliseconds before Command is sent.
	Delay int
	// Title is the pane title, set before any keystrokes.
	Title string
	// Options is the bag of unrecognized top-level keys, kept opaque.
	Options map[string]any
}

// Kind implements Node.
func (*Terminal) Kind() NodeKind { return KindTerminal }

// RatioEntry is one sizing entry of a split. Either a positive weight or a
// fixed cell count; fixed entries keep their structural shape through
// planning so the emitter can produce cell-based sizing.
type RatioEntry struct {
	// Weight is the proportional share. Zero when Fixed.
	Weight float64
	// Fixed marks a fixed-cell entry.
	Fixed bool
	// Cells is the fixed size in terminal cells. Zero unless Fixed.
	Cells int
}

// Split is an interior node dividing space among ordered children.
// Invariant (validated at compile time): len(Ratio) == len(Panes), every
// ratio entry positive or fixed-cell.
type Split struct {
	Orientation Orientation
	Ratio       []RatioEntry
	Panes       []Node
}

// Kind implements Node.
func (*Split) Kind() NodeKind { return KindSplit }

// CompiledPreset is the validated output of the compiler. Immutable once
// returned.
type CompiledPreset struct {
	// Name is the preset name; defaults to "preset" when the document
	// carries none.
	Name string
	// Version is an optional version tag from the document.
	Version string
	// Command is the top-level command, used only when Layout is nil.
	Command string
	// Layout is the root layout node, nil when the document has none.
	Layout Node
	// Source labels where the document came from, for error attribution.
	Source string
}
