// Package intake obtains the symptom flags and observation week for a run,
// either from a local JSON file or from a remote symptom service.
package intake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/logger"
)

// weekKey is the reserved key holding the observation week.
const weekKey = "week"

// Source yields exactly one intake per call. Implementations do not retry.
type Source interface {
	Fetch(ctx context.Context) (model.Intake, error)
}

// Option applies a configuration option to a source.
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

// WithLogger sets the logger used to report the received intake.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// parseWeek converts a decoded JSON value into a week. Only integral
// numbers >= 1 are accepted.
func parseWeek(v any) (model.Week, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("week %v is not a number: %w", v, model.ErrInvalidWeek)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("week %s is not an integer: %w", n, model.ErrInvalidWeek)
	}
	w := model.Week(i)
	if !w.Valid() {
		return 0, fmt.Errorf("week %d is below 1: %w", i, model.ErrInvalidWeek)
	}
	return w, nil
}

func logIntake(ctx context.Context, l logger.Logger, source string, in model.Intake) {
	l.Info(ctx, "intake received",
		logger.String("source", source),
		logger.Int("week", int(in.Week)),
		logger.Int("symptoms", len(in.Symptoms)),
		logger.Any("flags", map[string]bool(in.Symptoms)))
}
