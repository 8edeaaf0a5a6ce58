package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pathakanu/memoflow/internal/model"
)

func newMemoCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Add, list and delete memos",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <text>",
		Short: "Capture a memo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			memo, _, err := rt.svc.AddMemo(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", memo.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List memos grouped by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			memos := rt.svc.ListMemos(cmd.Context())
			printGroups(cmd.OutOrStdout(), model.GroupByDay(memos, rt.svc.Now(), rt.cfg.LocalTimezone), rt)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a memo by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			memos, err := rt.svc.RemoveMemo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d memos left\n", len(memos))
			return nil
		},
	})
	return cmd
}

func printGroups(w io.Writer, groups []model.DayGroup, rt *runtime) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "Your mind is clear. Capture a fragment to start your flow.")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(g.Label))
		for _, m := range g.Memos {
			fmt.Fprintf(w, "  %s  %s  %s\n", m.Created().In(rt.cfg.LocalTimezone).Format("15:04"), m.ID, m.Content)
		}
	}
}
