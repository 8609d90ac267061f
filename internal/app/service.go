// Package service wires intake, reference tables, scoring, classification and
// result delivery into a single run.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/okian/weris/internal/adapters/http/client"
	"github.com/okian/weris/internal/adapters/intake"
	"github.com/okian/weris/internal/adapters/repository"
	"github.com/okian/weris/internal/adapters/sink"
	"github.com/okian/weris/internal/domain/classifier"
	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/internal/domain/reference"
	"github.com/okian/weris/internal/domain/scoring"
	"github.com/okian/weris/pkg/logger"
	"github.com/okian/weris/pkg/metrics"
)

// Pipeline stages, used as metric and log labels.
const (
	StageIntake    = "intake"
	StageReference = "reference"
	StageScore     = "score"
	StageClassify  = "classify"
	StageSink      = "sink"
)

// ModelProvider returns the classifier model for the run.
type ModelProvider interface {
	Get(ctx context.Context) (*classifier.Model, error)
}

// Report describes a completed run.
type Report struct {
	RunID    string
	Symptoms model.SymptomFlags
	Result   model.StressResult
	Tables   []scoring.TableScore
}

// StageError tags a run failure with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// Service runs the stress pipeline once per Run call.
type Service struct {
	intake  intake.Source
	loader  reference.Loader
	scorer  scoring.Scorer
	models  ModelProvider
	sink    sink.Sink
	history repository.Store

	newRunID func() string
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithIntake sets the symptom source.
func WithIntake(src intake.Source) Option {
	return func(s *Service) { s.intake = src }
}

// WithLoader sets the reference table loader.
func WithLoader(l reference.Loader) Option {
	return func(s *Service) { s.loader = l }
}

// WithScorer replaces the default weighted scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithModelProvider sets where the classifier model comes from.
func WithModelProvider(p ModelProvider) Option {
	return func(s *Service) { s.models = p }
}

// WithSink sets the primary result destination.
func WithSink(sk sink.Sink) Option {
	return func(s *Service) { s.sink = sk }
}

// WithHistory records every delivered result in store.
func WithHistory(store repository.Store) Option {
	return func(s *Service) { s.history = store }
}

// WithRunIDGenerator overrides how run IDs are minted.
func WithRunIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newRunID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Intake, loader, model provider and sink are
// required; Run fails without them.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:   scoring.NewWeightedScorer(),
		newRunID: uuid.NewString,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes intake, scoring, classification and delivery in order. Any
// error aborts the run before the sink is written.
func (s *Service) Run(ctx context.Context) (Report, error) {
	if err := s.validate(); err != nil {
		return Report{}, err
	}

	report := Report{RunID: s.newRunID()}
	ctx = client.WithRequestID(ctx, report.RunID)
	log := s.logger.With(logger.String("run_id", report.RunID))
	start := time.Now()

	err := s.run(ctx, log, &report)
	if err != nil {
		stage := StageIntake
		var se *StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		metrics.RecordRun("failure")
		metrics.RecordError(stage, model.Kind(err))
		log.Error(ctx, "run failed",
			logger.String("stage", stage),
			logger.String("kind", model.Kind(err)),
			logger.Error(err))
		return report, err
	}

	metrics.RecordRun("success")
	log.Info(ctx, "run completed",
		logger.Int("week", int(report.Result.Week)),
		logger.Float64("stress_level", model.Round2(report.Result.StressLevel)),
		logger.String("prediction", report.Result.Prediction),
		logger.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, report *Report) error {
	var in model.Intake
	if err := stage(ctx, StageIntake, func() (err error) {
		in, err = s.intake.Fetch(ctx)
		return err
	}); err != nil {
		return err
	}
	report.Symptoms = in.Symptoms

	columns := in.Symptoms.Names()
	sort.Strings(columns)

	var tables []reference.Table
	if err := stage(ctx, StageReference, func() (err error) {
		tables, err = s.loader.Load(ctx, columns)
		return err
	}); err != nil {
		return err
	}

	var scored scoring.Result
	if err := stage(ctx, StageScore, func() (err error) {
		scored, err = s.scorer.Score(ctx, in.Symptoms, tables)
		return err
	}); err != nil {
		return err
	}
	report.Tables = scored.Tables
	metrics.UpdateStressIndex(scored.StressIndex)
	metrics.UpdateTablesScored(len(scored.Tables))
	metrics.RecordSymptomsMatched(scored.Matched())
	log.Debug(ctx, "stress index computed",
		logger.Float64("stress_index", scored.StressIndex),
		logger.Int("tables", len(scored.Tables)),
		logger.Int("matched", scored.Matched()))

	var label string
	if err := stage(ctx, StageClassify, func() error {
		m, err := s.models.Get(ctx)
		if err != nil {
			return err
		}
		label, err = classifier.Classify(m, in.Week, scored.StressIndex)
		return err
	}); err != nil {
		return err
	}
	metrics.RecordPrediction(label)

	report.Result = model.StressResult{
		Week:        in.Week,
		StressLevel: scored.StressIndex,
		Prediction:  label,
	}

	return stage(ctx, StageSink, func() error {
		return s.deliver(ctx, report)
	})
}

// deliver writes the result to the primary sink, then to history.
func (s *Service) deliver(ctx context.Context, report *Report) error {
	out := sink.Multi{s.sink}
	if s.history != nil {
		out = append(out, sink.Func(func(ctx context.Context, res model.StressResult) error {
			return s.history.Save(ctx, repository.Record{
				RunID:        report.RunID,
				Week:         int(res.Week),
				StressLevel:  model.Round2(res.StressLevel),
				Prediction:   res.Prediction,
				TablesScored: len(report.Tables),
			})
		}))
	}
	return out.Write(ctx, report.Result)
}

// stage times fn and tags its error with name.
func stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, Err: err}
	}
	start := time.Now()
	err := fn()
	metrics.RecordStageLatency(name, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

func (s *Service) validate() error {
	switch {
	case s.intake == nil:
		return errors.New("service: intake source not configured")
	case s.loader == nil:
		return errors.New("service: reference loader not configured")
	case s.models == nil:
		return errors.New("service: model provider not configured")
	case s.sink == nil:
		return errors.New("service: result sink not configured")
	}
	return nil
}
