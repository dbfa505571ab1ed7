package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"eyecare_backend/pkg/visiontest"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	testsYAML bool
	testsJSON bool
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List the available vision tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCatalog(cmd.OutOrStdout(), visiontest.All())
	},
}

func printCatalog(w io.Writer, defs []*visiontest.Definition) error {
	switch {
	case testsYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(defs); err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		return enc.Close()
	case testsJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tLEVELS\tRANGE")
	for _, d := range defs {
		first, last := d.Levels[0].Label, d.Levels[len(d.Levels)-1].Label
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s .. %s\n", d.Kind, d.Name, len(d.Levels), first, last)
	}
	return tw.Flush()
}
