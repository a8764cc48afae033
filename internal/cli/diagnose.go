package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/leafdoctor/pkg/client"
)

func newDiagnoseCmd() *cobra.Command {
	var startTrial bool

	cmd := &cobra.Command{
		Use:   "diagnose <image>",
		Short: "Diagnose a plant disease from a leaf photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			d, err := uploadImage(ctx, args[0])
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.CanStartTrial() && startTrial {
				if _, err := apiClient.Trial().Start(ctx); err != nil {
					return fmt.Errorf("failed to start trial: %w", err)
				}
				fmt.Fprintln(os.Stderr, "Free trial started.")
				d, err = uploadImage(ctx, args[0])
			}
			if err != nil {
				return explainDenial(err)
			}

			if getOutputFormat() != "table" {
				return printOutput(d)
			}
			printDiagnosis(d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&startTrial, "start-trial", false, "start the free trial if the account has no access yet")

	return cmd
}

func uploadImage(ctx context.Context, path string) (*client.Diagnosis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return apiClient.Diagnoses().Diagnose(ctx, filepath.Base(path), f)
}

// explainDenial turns access denials into actionable messages
func explainDenial(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case client.CodeNoAccess:
		if apiErr.CanStartTrial() {
			return fmt.Errorf("%s\nRun 'leafdoctor trial start' or retry with --start-trial", apiErr.Message)
		}
		return errors.New(apiErr.Message)
	case client.CodeTrialEnded, client.CodePremiumRequired:
		return errors.New(apiErr.Message)
	}
	if apiErr.IsRateLimited() {
		return fmt.Errorf("too many diagnoses, try again later")
	}
	return err
}

func printDiagnosis(d *client.Diagnosis) {
	fmt.Printf("Disease:     %s\n", d.Disease)
	fmt.Printf("Severity:    %s\n", formatSeverity(d.Severity))
	fmt.Printf("Confidence:  %s\n", formatConfidence(d.Confidence))
	if plant, ok := d.Metadata["plantType"].(string); ok && plant != "" {
		fmt.Printf("Plant:       %s\n", plant)
	}
	fmt.Printf("ID:          %s\n", strconv.FormatInt(d.ID, 10))
	fmt.Println()
	fmt.Println(strings.TrimSpace(d.Description))
	if len(d.Treatments) > 0 {
		fmt.Println()
		fmt.Println("Treatments:")
		for _, t := range d.Treatments {
			fmt.Printf("  - %s\n", t)
		}
	}
}
