// Package cli exposes the pipeline and its stores as cobra commands.
package cli

import (
	"context"
	"fmt"

	"github.com/okian/weris/internal/config"
	"github.com/okian/weris/pkg/logger"
	"github.com/spf13/cobra"
)

// Flag names. Each one overrides the config key of the same meaning.
const (
	flagConfig        = "config"
	flagEnvFile       = "env-file"
	flagLogLevel      = "log-level"
	flagLogFormat     = "log-format"
	flagIntake        = "intake"
	flagIntakePath    = "intake-path"
	flagIntakeURL     = "intake-url"
	flagReferenceMode = "reference-mode"
	flagReference     = "reference"
	flagChunkSize     = "chunk-size"
	flagModel         = "model"
	flagSink          = "sink"
	flagSinkPath      = "sink-path"
	flagSinkURL       = "sink-url"
	flagTimeout       = "timeout-ms"
	flagHistoryDB     = "history-db"
	flagMetricsFile   = "metrics-file"
	flagSchedule      = "schedule"
	flagTimezone      = "timezone"
)

const defaultEnvFile = ".env"

// state is shared by all subcommands of one invocation.
type state struct {
	cfg *config.Config
	log logger.Logger
}

// NewRootCommand builds the weris command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "weris",
		Short: "Weekly stress index scorer",
		Long: "weris scores reported symptoms against reference tables, classifies the\n" +
			"(week, stress level) point with a nearest-neighbour model and delivers the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, st)
		},
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "Path to a YAML config file (overrides WERIS_CONFIG)")
	pf.String(flagEnvFile, defaultEnvFile, "Dotenv file exported before config is loaded")
	pf.String(flagLogLevel, "", "Log level: debug, info, warn, error")
	pf.String(flagLogFormat, "", "Log format: text or json")
	pf.String(flagIntake, "", "Symptom source: file or remote")
	pf.String(flagIntakePath, "", "Symptom file path")
	pf.String(flagIntakeURL, "", "Symptom service URL")
	pf.String(flagReferenceMode, "", "Reference loading: eager or streaming")
	pf.StringSlice(flagReference, nil, "Reference table CSV files")
	pf.Int(flagChunkSize, 0, "Rows per chunk in streaming mode")
	pf.String(flagModel, "", "Classifier model blob path")
	pf.String(flagSink, "", "Result target: file or remote")
	pf.String(flagSinkPath, "", "Result file path")
	pf.String(flagSinkURL, "", "Result service URL")
	pf.Int(flagTimeout, 0, "Remote request timeout in milliseconds")
	pf.String(flagHistoryDB, "", "SQLite run history database")
	pf.String(flagMetricsFile, "", "Write Prometheus metrics to this textfile after the command")
	pf.String(flagSchedule, "", "Cron spec for the schedule command")
	pf.String(flagTimezone, "", "Time zone for the schedule command")

	root.AddCommand(newRunCommand(st))
	root.AddCommand(newModelCommand(st))
	root.AddCommand(newHistoryCommand(st))
	root.AddCommand(newScheduleCommand(st))
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (st *state) setup(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString(flagEnvFile)
	if err := config.LoadEnvFile(envFile, cmd.Flags().Changed(flagEnvFile)); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString(flagConfig)
	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.InitWithOptions(logger.Options{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
		Writer: cmd.ErrOrStderr(),
	}); err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	st.cfg = cfg
	st.log = logger.Get()
	return nil
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	stringFlags := map[string]*string{
		flagLogLevel:      &cfg.LogLevel,
		flagLogFormat:     &cfg.LogFormat,
		flagIntake:        &cfg.IntakeSource,
		flagIntakePath:    &cfg.IntakePath,
		flagIntakeURL:     &cfg.IntakeURL,
		flagReferenceMode: &cfg.ReferenceMode,
		flagModel:         &cfg.ModelPath,
		flagSink:          &cfg.SinkTarget,
		flagSinkPath:      &cfg.SinkPath,
		flagSinkURL:       &cfg.SinkURL,
		flagHistoryDB:     &cfg.HistoryDB,
		flagMetricsFile:   &cfg.MetricsFile,
		flagSchedule:      &cfg.Schedule,
		flagTimezone:      &cfg.Timezone,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	intFlags := map[string]*int{
		flagChunkSize: &cfg.ChunkSize,
		flagTimeout:   &cfg.RemoteTimeoutMS,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed(flagReference) {
		v, err := flags.GetStringSlice(flagReference)
		if err != nil {
			return err
		}
		cfg.ReferencePaths = v
	}
	return nil
}
