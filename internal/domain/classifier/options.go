package classifier

import "github.com/okian/weris/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTrainingSet replaces the bootstrap samples used when no blob exists.
func WithTrainingSet(samples []Sample, k int) Option {
	return func(s *Store) {
		if len(samples) > 0 {
			s.samples = append([]Sample(nil), samples...)
		}
		if k > 0 {
			s.k = k
		}
	}
}
