package service

import (
	"context"
	"fmt"

	"github.com/okian/weris/internal/adapters/http/client"
	"github.com/okian/weris/internal/adapters/intake"
	"github.com/okian/weris/internal/adapters/repository"
	"github.com/okian/weris/internal/adapters/sink"
	"github.com/okian/weris/internal/config"
	"github.com/okian/weris/internal/domain/classifier"
	"github.com/okian/weris/internal/domain/reference"
	"github.com/okian/weris/internal/domain/scoring"
	"github.com/okian/weris/pkg/logger"
)

// FromConfig assembles a Service from cfg; extra options are applied last.
// The returned close func releases the history store and is safe to call when
// history is disabled.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, extra ...Option) (*Service, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }
	httpClient := client.New(cfg.RemoteTimeout())

	var src intake.Source
	switch cfg.IntakeSource {
	case config.IntakeRemote:
		src = intake.NewRemoteSource(cfg.IntakeURL, httpClient, intake.WithLogger(log.Named("intake")))
	default:
		src = intake.NewFileSource(cfg.IntakePath, intake.WithLogger(log.Named("intake")))
	}

	refOpts := []reference.Option{
		reference.WithChunkSize(cfg.ChunkSize),
		reference.WithLogger(log.Named("reference")),
	}
	var loader reference.Loader
	switch cfg.ReferenceMode {
	case config.ReferenceStreaming:
		loader = reference.NewStreamingLoader(cfg.ReferencePaths, refOpts...)
	default:
		loader = reference.NewEagerLoader(cfg.ReferencePaths, refOpts...)
	}

	var out sink.Sink
	switch cfg.SinkTarget {
	case config.SinkRemote:
		out = sink.NewRemoteSink(cfg.SinkURL, httpClient, sink.WithLogger(log.Named("sink")))
	default:
		out = sink.NewFileSink(cfg.SinkPath, sink.WithLogger(log.Named("sink")))
	}

	opts := []Option{
		WithIntake(src),
		WithLoader(loader),
		WithScorer(scoring.NewWeightedScorer(scoring.WithLogger(log.Named("scoring")))),
		WithModelProvider(classifier.NewStore(cfg.ModelPath, classifier.WithLogger(log.Named("classifier")))),
		WithSink(out),
		WithLogger(log.Named("pipeline")),
	}

	closeFn := noop
	if cfg.HistoryDB != "" {
		store, err := repository.OpenSQLite(ctx, cfg.HistoryDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		opts = append(opts, WithHistory(store))
		closeFn = store.Close
	}

	return New(append(opts, extra...)...), closeFn, nil
}
