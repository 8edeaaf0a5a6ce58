package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pathakanu/memoflow/internal/model"
)

func newSettingsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change review settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := rt.svc.GetSettings(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "frequency: %s\ntime: %s\n", s.ReviewFrequency, s.ReviewTime)
			return nil
		},
	})

	var frequency, at string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the review frequency and time",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := rt.svc.GetSettings(cmd.Context())
			if cmd.Flags().Changed("frequency") {
				s.ReviewFrequency = model.ReviewFrequency(frequency)
			}
			if cmd.Flags().Changed("time") {
				s.ReviewTime = at
			}
			saved, err := rt.svc.SetSettings(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "frequency: %s\ntime: %s\n", saved.ReviewFrequency, saved.ReviewTime)
			return nil
		},
	}
	set.Flags().StringVar(&frequency, "frequency", "", "daily, weekly or monthly")
	set.Flags().StringVar(&at, "time", "", "review time as HH:MM")
	cmd.AddCommand(set)
	return cmd
}
