package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/leafdoctor/pkg/client"
)

func newAnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Usage and disease analytics (premium)",
	}

	cmd.AddCommand(newAnalyticsUsageCmd())
	cmd.AddCommand(newAnalyticsDiseasesCmd())
	cmd.AddCommand(newAnalyticsActivitiesCmd())

	return cmd
}

func newAnalyticsUsageCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show daily usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &client.UsageOptions{}
			var err error
			if opts.StartDate, err = parseDay(from); err != nil {
				return err
			}
			if opts.EndDate, err = parseDay(to); err != nil {
				return err
			}

			usage, err := apiClient.Analytics().Usage(cmd.Context(), opts)
			if err != nil {
				return explainDenial(err)
			}

			if getOutputFormat() != "table" {
				return printOutput(usage)
			}

			t := NewTable("DATE", "DIAGNOSES", "LOGINS", "FEATURES")
			for _, u := range usage {
				t.AddRow(u.Date, strconv.Itoa(u.DiagnosisCount), strconv.Itoa(u.LoginCount), featureSummary(u.FeatureUsage))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")

	return cmd
}

func newAnalyticsDiseasesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "diseases",
		Short: "Show the most diagnosed diseases",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Analytics().DiseaseStats(cmd.Context(), limit)
			if err != nil {
				return explainDenial(err)
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			t := NewTable("DISEASE", "COUNT", "AVG CONFIDENCE")
			for _, s := range stats {
				t.AddRow(truncate(s.DiseaseType, 40), strconv.FormatInt(s.Count, 10), formatConfidence(s.AvgConfidence))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of diseases")

	return cmd
}

func newAnalyticsActivitiesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Show recent account activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			activities, err := apiClient.Analytics().Activities(cmd.Context(), limit)
			if err != nil {
				return explainDenial(err)
			}

			if getOutputFormat() != "table" {
				return printOutput(activities)
			}

			t := NewTable("TIME", "ACTIVITY")
			for _, a := range activities {
				t.AddRow(a.CreatedAt.Format("2006-01-02 15:04"), a.ActivityType)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of activities")

	return cmd
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// featureSummary renders feature counters as "a=1 b=2" in key order
func featureSummary(usage map[string]interface{}) string {
	keys := make([]string, 0, len(usage))
	for k := range usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, usage[k]))
	}
	return strings.Join(parts, " ")
}
