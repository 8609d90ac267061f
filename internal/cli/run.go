package cli

import (
	"fmt"
	"io"
	"sort"

	app "github.com/okian/weris/internal/app"
	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/logger"
	"github.com/okian/weris/pkg/metrics"
	"github.com/spf13/cobra"
)

func newRunCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Score, classify and deliver one result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, st)
		},
	}
}

func runPipeline(cmd *cobra.Command, st *state) (err error) {
	ctx := cmd.Context()
	defer flushMetrics(cmd, st, &err)

	svc, closeFn, err := app.FromConfig(ctx, st.cfg, st.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			st.log.Warn(ctx, "failed to close history", logger.Error(cerr))
		}
	}()

	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func printReport(w io.Writer, r app.Report) {
	names := r.Symptoms.Names()
	sort.Strings(names)

	fmt.Fprintf(w, "run:          %s\n", r.RunID)
	fmt.Fprintf(w, "week:         %d\n", r.Result.Week)
	fmt.Fprint(w, "symptoms:    ")
	for _, n := range names {
		fmt.Fprintf(w, " %s=%t", n, r.Symptoms[n])
	}
	fmt.Fprintln(w)
	for _, t := range r.Tables {
		fmt.Fprintf(w, "table:        %s score=%.2f matched=%d\n", t.Table, t.Score, t.Matched)
	}
	fmt.Fprintf(w, "stress level: %.2f\n", model.Round2(r.Result.StressLevel))
	fmt.Fprintf(w, "prediction:   %s\n", r.Result.Prediction)
}

// flushMetrics writes the metrics textfile when configured. A write failure
// is reported only if the command itself succeeded.
func flushMetrics(cmd *cobra.Command, st *state, errp *error) {
	if st.cfg == nil || st.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(st.cfg.MetricsFile); err != nil {
		st.log.Warn(cmd.Context(), "failed to write metrics", logger.String("path", st.cfg.MetricsFile), logger.Error(err))
		if *errp == nil {
			*errp = err
		}
	}
}
