package cmd

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered presets",
	Long: `List every preset found on the search paths, with the file it was
loaded from. Project definitions shadow global ones of the same name.`,
	RunE: runList,
}

var listFilter string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Glob pattern to filter preset names (e.g. 'dev-*')")
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}

	var matcher glob.Glob
	if listFilter != "" {
		matcher, err = glob.Compile(listFilter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern %q: %w", listFilter, err)
		}
	}

	out := cmd.OutOrStdout()
	matched := 0
	for _, name := range store.Names() {
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		matched++
		fmt.Fprintf(out, "%-20s %s\n", name, store.Source(name))
	}

	if matched == 0 {
		if listFilter != "" {
			fmt.Fprintf(out, "no presets match %q\n", listFilter)
		} else {
			fmt.Fprintln(out, "no presets defined")
		}
	}
	return nil
}
