// Package sink delivers a run result to its destination.
package sink

import (
	"context"
	"fmt"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/logger"
)

// Sink persists or transmits one result. Implementations do not retry.
type Sink interface {
	Write(ctx context.Context, res model.StressResult) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, res model.StressResult) error

// Write calls f.
func (f Func) Write(ctx context.Context, res model.StressResult) error { return f(ctx, res) }

// Option applies a configuration option to a sink.
type Option func(*options)

type options struct {
	logger logger.Logger
}

func newOptions(opts []Option) options {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the sink logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Multi writes to each sink in order and stops at the first failure.
type Multi []Sink

// Write fans res out to every sink.
func (m Multi) Write(ctx context.Context, res model.StressResult) error {
	for i, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, res); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}
