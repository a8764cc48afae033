package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and account summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			summary := map[string]interface{}{}

			ready, err := apiClient.Ready(ctx)
			if err != nil {
				summary["server"] = fmt.Sprintf("unavailable (%v)", err)
			} else {
				summary["server"] = ready.Status
				if ready.Model != "" {
					summary["model"] = fmt.Sprintf("%s (%s)", ready.Model, ready.Oracle)
				}
			}

			// Account details need a stored session
			if token := viper.GetString("auth.token"); token != "" {
				apiClient.SetToken(token)
				if user, err := apiClient.GetCurrentUser(ctx); err == nil {
					summary["user"] = user.Username
					summary["plan"] = user.Plan()
					summary["diagnoses"] = user.DiagnosisCount
					if user.TrialStatus.DaysLeft != nil {
						summary["trialDaysLeft"] = *user.TrialStatus.DaysLeft
					}
				}
			}

			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			fmt.Println("Leaf Doctor")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Server:        %v\n", summary["server"])
			if model, ok := summary["model"]; ok {
				fmt.Printf("  Model:         %v\n", model)
			}
			if _, ok := summary["user"]; !ok {
				fmt.Println("  Account:       not logged in")
				return nil
			}
			fmt.Printf("  Account:       %v (%v)\n", summary["user"], summary["plan"])
			if days, ok := summary["trialDaysLeft"]; ok {
				fmt.Printf("  Trial:         %v days left\n", days)
			}
			fmt.Printf("  Diagnoses:     %v\n", summary["diagnoses"])
			return nil
		},
	}
}
