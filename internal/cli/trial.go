package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTrialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Manage the free trial",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the one-time free trial",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := apiClient.Trial().Start(cmd.Context())
			if err != nil {
				return explainDenial(err)
			}
			if getOutputFormat() != "table" {
				return printOutput(resp)
			}
			fmt.Printf("Trial started: %d days left\n", resp.DaysLeft)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the trial state",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := apiClient.Trial().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get trial status: %w", err)
			}
			if getOutputFormat() != "table" {
				return printOutput(status)
			}
			switch {
			case status.IsInTrial && status.DaysLeft != nil:
				fmt.Printf("In trial, %d days left\n", *status.DaysLeft)
			case status.TrialEnded:
				fmt.Println("Trial ended")
			default:
				fmt.Println("Trial not started")
			}
			return nil
		},
	})

	return cmd
}
