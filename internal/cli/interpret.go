package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/leafdoctor/internal/detector"
)

// newInterpretCmd runs the disease interpreter locally on saved model prose
func newInterpretCmd() *cobra.Command {
	var notPlant bool

	cmd := &cobra.Command{
		Use:   "interpret [file]",
		Short: "Interpret a model analysis offline (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open analysis: %w", err)
				}
				defer f.Close()
				r = f
			}

			text, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read analysis: %w", err)
			}

			res := detector.Interpret(string(text), !notPlant)
			out := map[string]interface{}{
				"disease":     res.Disease,
				"plantType":   res.PlantType,
				"confidence":  res.Confidence,
				"severity":    res.Severity,
				"description": res.Description,
				"treatments":  res.Treatments,
				"kind":        string(res.Kind),
				"source":      res.Source,
			}
			if getOutputFormat() != "table" {
				return writeOutput(cmd.OutOrStdout(), getOutputFormat(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Disease:     %s\n", res.Disease)
			if res.PlantType != "" {
				fmt.Fprintf(w, "Plant:       %s\n", res.PlantType)
			}
			fmt.Fprintf(w, "Severity:    %s\n", formatSeverity(res.Severity))
			fmt.Fprintf(w, "Confidence:  %s\n", formatConfidence(res.Confidence))
			fmt.Fprintf(w, "Match:       %s (%s)\n", res.Kind, res.Source)
			fmt.Fprintln(w, strings.TrimSpace(res.Description))
			for _, t := range res.Treatments {
				fmt.Fprintf(w, "  - %s\n", t)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notPlant, "not-plant", false, "treat the image as containing no plant")

	return cmd
}

func newKnowledgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "knowledge",
		Short: "List the built-in disease knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := detector.KnowledgeEntries()
			if getOutputFormat() != "table" {
				return printOutput(entries)
			}

			t := NewTable("DISEASE", "SEVERITY", "FIRST TREATMENT")
			t.writer = cmd.OutOrStdout()
			for _, e := range entries {
				first := ""
				if len(e.Treatments) > 0 {
					first = e.Treatments[0]
				}
				t.AddRow(e.Name, formatSeverity(e.Severity), truncate(first, 50))
			}
			t.Render()
			return nil
		},
	}
}
