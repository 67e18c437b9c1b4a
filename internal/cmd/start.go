package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yuki-yano/vde-layout/internal/config"
	"github.com/yuki-yano/vde-layout/internal/errors"
	"github.com/yuki-yano/vde-layout/internal/executor"
	"github.com/yuki-yano/vde-layout/internal/logging"
	"github.com/yuki-yano/vde-layout/internal/tmux"
	"github.com/yuki-yano/vde-layout/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start [preset]",
	Short: "Apply a layout preset",
	Long: `Apply a layout preset to tmux. Without a preset name the default
preset is used; on a terminal with several presets defined, an
interactive picker opens instead.

By default the layout is created in a new window. With --current-window
the attached window is reused and its other panes are closed after
confirmation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

var (
	startDryRun        bool
	startCurrentWindow bool
	startWindowName    string
	startYes           bool
	startWatch         bool
)

func init() {
	rootCmd.AddCommand(startCmd)
	registerStartFlags(startCmd)
}

func registerStartFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&startDryRun, "dry-run", false, "Simulate without touching tmux")
	cmd.Flags().BoolVar(&startCurrentWindow, "current-window", false, "Reuse the attached window instead of creating one")
	cmd.Flags().StringVar(&startWindowName, "window-name", "", "Name for the created window (default: preset name)")
	cmd.Flags().BoolVarP(&startYes, "yes", "y", false, "Skip the close-panes confirmation")
	cmd.Flags().BoolVarP(&startWatch, "watch", "w", false, "Re-apply when the preset file changes")
}

func runStart(cmd *cobra.Command, args []string) error {
	settings := config.Get()

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer logger.Close()

	store, err := loadStore()
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		name, err = choosePreset(store)
		if err != nil {
			return err
		}
	}

	value, source, err := store.Resolve(name)
	if err != nil {
		return err
	}

	apply := func(ctx context.Context, value any, source string) error {
		return applyPreset(ctx, cmd, settings, logger, value, source)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := apply(ctx, value, source); err != nil {
		return err
	}
	if !startWatch {
		return nil
	}
	return watchPreset(ctx, cmd, source, name, apply)
}

// choosePreset picks a preset when none was named: the only preset, the
// interactive picker on a terminal, otherwise the default preset.
func choosePreset(store *config.Store) (string, error) {
	names := store.Names()
	if len(names) == 1 {
		return names[0], nil
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return tui.PickPreset(names)
	}
	return config.DefaultPresetName, nil
}

func applyPreset(ctx context.Context, cmd *cobra.Command, settings *config.Settings, logger *logging.Logger, value any, source string) error {
	compiled, em, err := buildEmission(value, source)
	if err != nil {
		return err
	}

	runner, err := selectRunner(logger)
	if err != nil {
		return err
	}

	windowName := startWindowName
	if windowName == "" {
		windowName = settings.Start.WindowName
	}
	if windowName == "" {
		windowName = compiled.Name
	}

	mode := executor.NewWindow
	if startCurrentWindow || settings.Start.CurrentWindow {
		mode = executor.CurrentWindow
	}

	exec := executor.New(runner, executor.Options{
		Mode:       mode,
		WindowName: windowName,
		Confirm:    confirmFunc(cmd, settings),
		Logger:     logger.WithPreset(compiled.Name),
	})

	count, err := exec.Apply(ctx, em)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dry, ok := runner.(*tmux.DryRunner); ok {
		for _, argv := range dry.Commands {
			fmt.Fprintf(out, "tmux %s\n", strings.Join(argv, " "))
		}
		fmt.Fprintf(out, "\ndry run: %d steps, %d panes, hash %s\n",
			count, len(dry.Panes()), shortHash(em.Hash))
		return nil
	}

	fmt.Fprintf(out, "applied %q: %d steps, focus %s, hash %s\n",
		compiled.Name, count, em.Summary.FocusPaneID, shortHash(em.Hash))
	return nil
}

func selectRunner(logger *logging.Logger) (tmux.Runner, error) {
	if startDryRun {
		return tmux.NewDryRunner(), nil
	}
	runner := tmux.NewRunner(logger)
	if !runner.IsAvailable() {
		return nil, errors.New(errors.CommandFailed, "tmux binary not found in PATH")
	}
	if !tmux.InsideTmux() {
		return nil, errors.New(errors.NotInTmuxSession, "vde must run inside a tmux session (or use --dry-run)")
	}
	return runner, nil
}

// confirmFunc builds the pane-kill gate: auto-accept with --yes or when
// confirmation is disabled in settings, otherwise a y/N prompt.
func confirmFunc(cmd *cobra.Command, settings *config.Settings) executor.ConfirmFunc {
	if startYes || !settings.Start.ConfirmClose {
		return func(context.Context, []string, bool) (bool, error) { return true, nil }
	}
	return func(_ context.Context, panesToClose []string, dryRun bool) (bool, error) {
		if dryRun {
			return true, nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Close %d existing pane(s) %v? [y/N] ", len(panesToClose), panesToClose)
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, nil
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}

// watchPreset re-applies the preset whenever its file changes. Editors often
// replace files on save, so both writes and creates count, debounced.
func watchPreset(ctx context.Context, cmd *cobra.Command, source, name string, apply func(context.Context, any, string) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(source); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, press Ctrl-C to stop\n", source)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-fire:
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			fresh, err := config.Discover(cwd)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
				continue
			}
			value, src, err := fresh.Resolve(name)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
				continue
			}
			if err := apply(ctx, value, src); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "re-apply failed: %v\n", err)
			}
			// Editors that replace the file drop the watch; re-add.
			_ = watcher.Add(source)
		}
	}
}

func newLogger(settings *config.Settings) (*logging.Logger, error) {
	if !settings.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(settings.Logging.File, settings.Logging.Level)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
