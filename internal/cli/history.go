package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/leafdoctor/pkg/client"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past diagnoses",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryRecentCmd())
	cmd.AddCommand(newHistoryGetCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all diagnoses",
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnoses, err := apiClient.Diagnoses().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list diagnoses: %w", err)
			}
			return renderDiagnoses(diagnoses)
		},
	}
}

func newHistoryRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the latest diagnoses",
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnoses, err := apiClient.Diagnoses().Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list diagnoses: %w", err)
			}
			return renderDiagnoses(diagnoses)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of diagnoses")

	return cmd
}

func newHistoryGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one diagnosis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid diagnosis ID: %s", args[0])
			}

			d, err := apiClient.Diagnoses().Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get diagnosis: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(d)
			}
			printDiagnosis(d)
			return nil
		},
	}
}

func renderDiagnoses(diagnoses []client.Diagnosis) error {
	if getOutputFormat() != "table" {
		return printOutput(diagnoses)
	}

	t := NewTable("ID", "DATE", "DISEASE", "SEVERITY", "CONFIDENCE")
	for _, d := range diagnoses {
		t.AddRow(
			strconv.FormatInt(d.ID, 10),
			d.CreatedAt.Format("2006-01-02 15:04"),
			truncate(d.Disease, 40),
			formatSeverity(d.Severity),
			formatConfidence(d.Confidence),
		)
	}
	t.Render()
	return nil
}
