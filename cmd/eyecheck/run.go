package main

import (
	"fmt"
	"math/rand/v2"

	"eyecare_backend/internal/tui"
	"eyecare_backend/pkg/visiontest"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	runKind string
	runSeed uint64
	runEye  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Take a vision test interactively",
	Long: `Run a vision test in the terminal.

Sit at arm's length from the screen and cover the eye you are not testing.
Pick the option matching the symbol shown with the arrow keys and enter,
or press its number. Press r after a result to take the test again.`,
	Example: `  eyecheck run --test tumbling_e --eye left
  eyecheck run -t contrast --seed 42`,
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	def, err := visiontest.Lookup(visiontest.Kind(runKind))
	if err != nil {
		return err
	}
	switch runEye {
	case "left", "right", "both":
	default:
		return fmt.Errorf("invalid eye %q: use left, right or both", runEye)
	}
	seed := runSeed
	if !cmd.Flags().Changed("seed") {
		seed = rand.Uint64()
	}

	final, err := tea.NewProgram(tui.New(def, seed, tui.Options{Eye: runEye, NoColor: noColor})).Run()
	if err != nil {
		return fmt.Errorf("run %s: %w", def.Kind, err)
	}

	results := final.(tui.Model).Results()
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No test finished.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "Run %d: %s (%d rounds)\n", i+1, r.FinalLabel, len(r.History))
	}
	fmt.Fprintf(out, "Seed %d\n", seed)
	return nil
}
