package cli

import (
	"context"
	"time"

	app "github.com/okian/weris/internal/app"
	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/internal/scheduler"
	"github.com/okian/weris/pkg/logger"
	"github.com/okian/weris/pkg/metrics"
	"github.com/spf13/cobra"
)

const stopTimeout = 30 * time.Second

func newScheduleCommand(st *state) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchedule(cmd, st, runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "Also run once immediately")
	return cmd
}

func runSchedule(cmd *cobra.Command, st *state, runNow bool) error {
	ctx := cmd.Context()
	log := st.log.Named("schedule")

	svc, closeFn, err := app.FromConfig(ctx, st.cfg, st.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			log.Warn(ctx, "failed to close history", logger.Error(cerr))
		}
	}()

	sched, err := scheduler.New(st.cfg.Timezone)
	if err != nil {
		return err
	}

	job := func() { runScheduled(ctx, svc, st, log) }
	if err := sched.Schedule(st.cfg.Schedule, job); err != nil {
		return err
	}

	if runNow {
		job()
	}

	sched.Start()
	log.Info(ctx, "scheduler started",
		logger.String("schedule", st.cfg.Schedule),
		logger.String("timezone", sched.Location().String()),
		logger.Any("next", sched.Next()))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	sched.Stop(stopCtx)
	log.Info(stopCtx, "scheduler stopped")
	return nil
}

// runScheduled performs one run. Failures are logged and the schedule
// keeps going.
func runScheduled(ctx context.Context, svc *app.Service, st *state, log logger.Logger) {
	report, err := svc.Run(ctx)
	if err != nil {
		log.Error(ctx, "scheduled run failed", logger.Error(err))
	} else {
		log.Info(ctx, "scheduled run completed",
			logger.String("run_id", report.RunID),
			logger.Float64("stress_level", model.Round2(report.Result.StressLevel)),
			logger.String("prediction", report.Result.Prediction))
	}

	if st.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(st.cfg.MetricsFile); err != nil {
		log.Warn(ctx, "failed to write metrics", logger.String("path", st.cfg.MetricsFile), logger.Error(err))
	}
}
