package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSubscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage the premium subscription",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "confirm <payment-intent-id>",
		Short: "Activate premium after a completed payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := apiClient.Subscription().Confirm(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to confirm payment: %w", err)
			}
			if getOutputFormat() != "table" {
				return printOutput(sub)
			}
			if sub.PremiumUntil != nil {
				fmt.Printf("Premium active until %s\n", sub.PremiumUntil.Format("2006-01-02"))
			} else {
				fmt.Println("Premium active")
			}
			return nil
		},
	})

	return cmd
}
