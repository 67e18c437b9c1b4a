// Package cmd wires the CLI surface: start, preview, list, version. The
// root command with a bare preset argument behaves like start.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yuki-yano/vde-layout/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "vde [preset]",
	Short: "Declarative tmux layout orchestrator",
	Long: `vde compiles YAML layout presets into tmux pane arrangements.
Presets are discovered in the project .vde directory and the user
config directory, project definitions taking precedence.

Running vde with a preset name is shorthand for 'vde start <preset>'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/vde/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	registerStartFlags(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VDE")
	// e.g. VDE_START_WINDOW_NAME for start.window_name
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
