// Package scoring turns symptom flags and reference tables into a bounded
// stress index.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/internal/domain/reference"
	"github.com/okian/weris/pkg/logger"
)

// Fixed contribution of one symptom to a table score.
const (
	weightReportedPositive = 1.3 // reported, reference value == 1
	weightReportedOther    = 0.8 // reported, reference value != 1
	weightAbsentPositive   = 0.3 // not reported, reference value == 1
	weightAbsentOther      = 0.0 // not reported, reference value != 1
)

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithLogger sets the logger used for per-table breakdowns.
func WithLogger(l logger.Logger) Option {
	return func(s *WeightedScorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxIndex overrides the stress index cap.
func WithMaxIndex(max float64) Option {
	return func(s *WeightedScorer) {
		if max > 0 {
			s.maxIndex = max
		}
	}
}

// TableScore is the accumulated score of a single reference table.
type TableScore struct {
	Table   string
	Score   float64
	Matched int
}

// Result contains the stress index and how it was reached.
type Result struct {
	// StressIndex is the capped mean of table scores, unrounded.
	StressIndex float64
	Tables      []TableScore
}

// Matched returns the number of symptom/table pairs that hit a column.
func (r Result) Matched() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Matched
	}
	return n
}

// Scorer computes a stress index from symptom flags and reference tables.
type Scorer interface {
	Score(ctx context.Context, flags model.SymptomFlags, tables []reference.Table) (Result, error)
}

// WeightedScorer implements Scorer with the fixed weight rule.
type WeightedScorer struct {
	maxIndex float64
	logger   logger.Logger
}

// NewWeightedScorer creates a scorer with the default cap of model.MaxStressIndex.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		maxIndex: model.MaxStressIndex,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weight returns the contribution of one symptom given the user's flag and
// the table's first-row value.
func Weight(reported bool, ref float64) float64 {
	positive := ref == 1
	switch {
	case reported && positive:
		return weightReportedPositive
	case reported:
		return weightReportedOther
	case positive:
		return weightAbsentPositive
	default:
		return weightAbsentOther
	}
}

// Score computes min(mean(table scores), cap). Symptoms without a column in a
// table contribute nothing to that table. With no tables it returns
// model.ErrNoData.
func (s *WeightedScorer) Score(ctx context.Context, flags model.SymptomFlags, tables []reference.Table) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if len(tables) == 0 {
		return Result{}, fmt.Errorf("score: %w", model.ErrNoData)
	}

	// Fixed order keeps float sums reproducible.
	names := flags.Names()
	sort.Strings(names)

	res := Result{Tables: make([]TableScore, 0, len(tables))}
	var total float64
	for _, t := range tables {
		ts := TableScore{Table: t.Name}
		for _, name := range names {
			ref, ok := t.FirstValue(name)
			if !ok {
				continue
			}
			ts.Score += Weight(flags[name], ref)
			ts.Matched++
		}
		total += ts.Score
		res.Tables = append(res.Tables, ts)

		s.logger.Debug(ctx, "table scored",
			logger.String("table", ts.Table),
			logger.Float64("score", ts.Score),
			logger.Int("matched", ts.Matched))
	}

	res.StressIndex = math.Min(total/float64(len(tables)), s.maxIndex)
	return res, nil
}
