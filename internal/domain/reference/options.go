package reference

import "github.com/okian/weris/pkg/logger"

// Option applies a configuration option to a loader.
type Option func(*options)

type options struct {
	chunkSize int
	logger    logger.Logger
}

func newOptions(opts []Option) options {
	o := options{chunkSize: DefaultChunkSize, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithChunkSize sets the number of rows per chunk in streaming mode.
func WithChunkSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithLogger sets the logger used to report skipped tables.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
