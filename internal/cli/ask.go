package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var disease string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the plant care assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := apiClient.Assistant().Ask(cmd.Context(), strings.Join(args, " "), disease)
			if err != nil {
				return explainDenial(err)
			}

			if getOutputFormat() != "table" {
				return printOutput(map[string]string{"response": answer})
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&disease, "disease", "", "disease the question is about, e.g. \"Tomato Late Blight\"")

	return cmd
}
