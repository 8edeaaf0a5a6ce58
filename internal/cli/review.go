package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pathakanu/memoflow/internal/bot"
	"github.com/pathakanu/memoflow/internal/model"
)

func newReviewCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Generate and browse reviews",
	}

	var frequency string
	run := &cobra.Command{
		Use:   "run",
		Short: "Generate a review now",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rt.svc.GetSettings(cmd.Context()).ReviewFrequency
			if frequency != "" {
				parsed, err := model.ParseFrequency(frequency)
				if err != nil {
					return err
				}
				f = parsed
			}
			result, err := rt.svc.TriggerReview(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("failed to generate review: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), bot.FormatReview(result, rt.cfg.LocalTimezone))
			return nil
		},
	}
	run.Flags().StringVar(&frequency, "frequency", "", "override the configured frequency")

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the review history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeReviews(cmd.OutOrStdout(), rt.svc.ListReviews(cmd.Context()), format)
		},
	}
	list.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")

	cmd.AddCommand(run, list)
	return cmd
}

func writeReviews(w io.Writer, reviews []model.AIReviewResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reviews)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reviews); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
