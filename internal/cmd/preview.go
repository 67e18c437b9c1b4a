package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/yuki-yano/vde-layout/internal/config"
	"github.com/yuki-yano/vde-layout/internal/emit"
	"github.com/yuki-yano/vde-layout/internal/util"
)

var previewCmd = &cobra.Command{
	Use:   "preview [preset]",
	Short: "Render the command plan for a preset without applying it",
	Long: `Compile a preset and print its command plan: one line per step,
the terminal assignments, and the plan content hash. The rendered plan
is exactly what 'vde start' replays.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

var (
	previewTitleStyle = lipgloss.NewStyle().Bold(true)
	previewStepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	previewFocusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	previewDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runPreview(cmd *cobra.Command, args []string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	value, source, err := store.Resolve(name)
	if err != nil {
		return err
	}

	compiled, em, err := buildEmission(value, source)
	if err != nil {
		return err
	}

	renderEmission(cmd.OutOrStdout(), compiled.Name, em, config.Get().UI.NoColor)
	return nil
}

// renderEmission prints the plan, one line per step. Styling is skipped when
// noColor is set so the output stays pipe-friendly.
func renderEmission(w io.Writer, name string, em *emit.PlanEmission, noColor bool) {
	style := func(s lipgloss.Style, text string) string {
		if noColor {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintln(w, style(previewTitleStyle, fmt.Sprintf("preset %q — %d steps", name, em.Summary.StepCount)))
	fmt.Fprintln(w)

	for _, step := range em.Steps {
		line := fmt.Sprintf("  %-8s %s", step.ID, step.Summary)
		if step.Kind == emit.StepFocus {
			fmt.Fprintln(w, style(previewFocusStyle, line))
		} else {
			fmt.Fprintln(w, style(previewStepStyle, line))
		}
	}

	fmt.Fprintln(w)
	for _, term := range em.Terminals {
		marker := " "
		if term.Focus {
			marker = "*"
		}
		command := term.Command
		if command == "" {
			command = "(shell)"
		}
		label := term.Name
		if label == "" {
			label = term.PaneID
		}
		fmt.Fprintf(w, "  %s %-12s %-10s %s\n",
			marker, label, term.PaneID, util.TruncateANSI(command, 48))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, style(previewDimStyle,
		fmt.Sprintf("  focus %s · hash %s", em.Summary.FocusPaneID, shortHash(em.Hash))))
}

// renderPlain is renderEmission without styling, for logs and tests.
func renderPlain(em *emit.PlanEmission, name string) string {
	var b strings.Builder
	renderEmission(&b, name, em, true)
	return b.String()
}
