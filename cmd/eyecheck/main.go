// Command eyecheck runs the staircase eye tests in a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var noColor bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "eyecheck",
	Short: "Terminal staircase eye tests",
	Long: `eyecheck runs the same staircase eye tests the EyeCare backend serves.

Each test starts on its easiest level and climbs one level per correct
answer until the first miss or the last level. Results are a screening
aid only and not a medical diagnosis.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	runCmd.Flags().StringVarP(&runKind, "test", "t", "visual_acuity", "Test kind to run")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Stimulus seed (default: random)")
	runCmd.Flags().StringVar(&runEye, "eye", "both", "Eye under test: left, right or both")

	testsCmd.Flags().BoolVar(&testsYAML, "yaml", false, "Print the full catalog as YAML")
	testsCmd.Flags().BoolVar(&testsJSON, "json", false, "Print the full catalog as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(testsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
