package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/okian/weris/internal/adapters/repository"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 10

func newHistoryCommand(st *state) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if st.cfg.HistoryDB == "" {
				return errors.New("history is disabled: set history_db or --history-db")
			}
			ctx := cmd.Context()
			store, err := repository.OpenSQLite(ctx, st.cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Latest(ctx, limit)
			if err != nil {
				return err
			}
			total, err := store.Count(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tRUN\tWEEK\tSTRESS\tPREDICTION\tTABLES")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%d\n",
					r.CreatedAt.Format(time.RFC3339), r.RunID, r.Week, r.StressLevel, r.Prediction, r.TablesScored)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d runs\n", len(records), total)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of runs to show")
	return cmd
}
