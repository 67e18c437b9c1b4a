package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// setupLayout writes a project layout file and changes into its directory.
func setupLayout(t *testing.T, content string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := os.MkdirAll(filepath.Join(dir, ".vde"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".vde", "layout.yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	original, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(original) })
}

const testLayout = `
presets:
  dev:
    name: dev
    layout:
      type: horizontal
      ratio: [1, 1]
      panes:
        - name: editor
          command: nvim
          focus: true
        - name: shell
  ops:
    name: ops
    layout: {name: htop, command: htop}
`

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if !strings.HasPrefix(rootCmd.Use, "vde") {
		t.Errorf("rootCmd.Use = %q, want vde prefix", rootCmd.Use)
	}

	expectedCmds := []string{"start", "preview", "list", "version"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestListCommand(t *testing.T) {
	setupLayout(t, testLayout)

	output, err := executeCommand(rootCmd, "list")
	if err != nil {
		t.Fatalf("list failed: %v\nOutput: %s", err, output)
	}
	for _, name := range []string{"dev", "ops"} {
		if !strings.Contains(output, name) {
			t.Errorf("list output missing preset %q:\n%s", name, output)
		}
	}
}

func TestListCommandFilter(t *testing.T) {
	setupLayout(t, testLayout)
	defer func() { listFilter = "" }()

	output, err := executeCommand(rootCmd, "list", "--filter", "d*")
	if err != nil {
		t.Fatalf("list --filter failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "dev") {
		t.Errorf("filtered output missing dev:\n%s", output)
	}
	if strings.Contains(output, "ops") {
		t.Errorf("filtered output should not contain ops:\n%s", output)
	}
}

func TestListCommandBadFilter(t *testing.T) {
	setupLayout(t, testLayout)
	defer func() { listFilter = "" }()

	if _, err := executeCommand(rootCmd, "list", "--filter", "[broken"); err == nil {
		t.Error("list with malformed filter should fail")
	}
}

func TestPreviewCommand(t *testing.T) {
	setupLayout(t, testLayout)

	output, err := executeCommand(rootCmd, "preview", "dev")
	if err != nil {
		t.Fatalf("preview failed: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{"step-1", "nvim", "hash"} {
		if !strings.Contains(output, want) {
			t.Errorf("preview output missing %q:\n%s", want, output)
		}
	}
}

func TestPreviewUnknownPreset(t *testing.T) {
	setupLayout(t, testLayout)

	if _, err := executeCommand(rootCmd, "preview", "ghost"); err == nil {
		t.Error("preview of unknown preset should fail")
	}
}

func TestStartDryRun(t *testing.T) {
	setupLayout(t, testLayout)
	defer resetStartFlags()

	output, err := executeCommand(rootCmd, "start", "dev", "--dry-run")
	if err != nil {
		t.Fatalf("start --dry-run failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "split-window") {
		t.Errorf("dry-run output missing split command:\n%s", output)
	}
	if !strings.Contains(output, "dry run:") {
		t.Errorf("dry-run output missing summary:\n%s", output)
	}
}

func TestStartDryRunCompileError(t *testing.T) {
	setupLayout(t, `
presets:
  broken:
    layout:
      type: diagonal
      ratio: [1]
      panes: [{name: a}]
`)
	defer resetStartFlags()

	_, err := executeCommand(rootCmd, "start", "broken", "--dry-run")
	if err == nil {
		t.Fatal("start of invalid preset should fail")
	}
	if !strings.Contains(err.Error(), "LAYOUT_INVALID_ORIENTATION") {
		t.Errorf("error = %v, want orientation code", err)
	}
}

func TestBuildEmission(t *testing.T) {
	value := map[string]any{
		"name": "dev",
		"layout": map[string]any{
			"name":    "editor",
			"command": "nvim",
		},
	}

	compiled, em, err := buildEmission(value, "test")
	if err != nil {
		t.Fatalf("buildEmission() error = %v", err)
	}
	if compiled.Name != "dev" {
		t.Errorf("compiled name = %q, want dev", compiled.Name)
	}
	if em.Summary.StepCount != 1 {
		t.Errorf("StepCount = %d, want 1 (focus only)", em.Summary.StepCount)
	}
	if em.Hash == "" {
		t.Error("emission hash is empty")
	}
}

func TestRenderPlain(t *testing.T) {
	compiled, em, err := buildEmission(map[string]any{
		"name":   "dev",
		"layout": map[string]any{"name": "editor", "command": "nvim", "focus": true},
	}, "test")
	if err != nil {
		t.Fatalf("buildEmission() error = %v", err)
	}

	out := renderPlain(em, compiled.Name)
	if !strings.Contains(out, `preset "dev"`) {
		t.Errorf("render missing preset header:\n%s", out)
	}
	if !strings.Contains(out, "nvim") {
		t.Errorf("render missing terminal command:\n%s", out)
	}
	if !strings.Contains(out, "* ") && !strings.Contains(out, "*") {
		t.Errorf("render missing focus marker:\n%s", out)
	}
}

func TestShortHash(t *testing.T) {
	full := strings.Repeat("a", 64)
	if got := shortHash(full); got != strings.Repeat("a", 12) {
		t.Errorf("shortHash() = %q, want 12 chars", got)
	}
	if got := shortHash("abc"); got != "abc" {
		t.Errorf("shortHash(short) = %q, want unchanged", got)
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(rootCmd, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(output, "vde") {
		t.Errorf("version output = %q", output)
	}
}

func resetStartFlags() {
	startDryRun = false
	startCurrentWindow = false
	startWindowName = ""
	startYes = false
	startWatch = false
}
