package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/logger"
	"github.com/okian/weris/pkg/metrics"
)

// StreamingLoader reads reference files chunk by chunk and stops as soon as
// every requested column is resolved. Missing files are skipped.
type StreamingLoader struct {
	paths []string
	opts  options
}

// NewStreamingLoader creates a chunked loader over the given reference files.
func NewStreamingLoader(paths []string, opts ...Option) *StreamingLoader {
	return &StreamingLoader{paths: append([]string(nil), paths...), opts: newOptions(opts)}
}

// Load resolves columns per file. For each column only the first chunk that
// contains it is used; a missing file is logged and skipped. The result may
// hold fewer tables than paths, including none.
func (l *StreamingLoader) Load(ctx context.Context, columns []string) ([]Table, error) {
	tables := make([]Table, 0, len(l.paths))
	for _, path := range l.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := l.loadStreaming(ctx, path, columns)
		if errors.Is(err, model.ErrMissingFile) {
			metrics.RecordTableSkipped()
			l.opts.logger.Warn(ctx, "reference table missing, skipping",
				logger.String("path", path))
			continue
		}
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (l *StreamingLoader) loadStreaming(ctx context.Context, path string, columns []string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, fmt.Errorf("reference table %s: %w", path, model.ErrMissingFile)
		}
		return Table{}, fmt.Errorf("open reference table %s: %w", path, err)
	}
	defer f.Close()

	cr, err := NewChunkReader(f, l.opts.chunkSize)
	if err != nil {
		return Table{}, fmt.Errorf("reference table %s: %w", path, err)
	}

	pending := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		pending[c] = struct{}{}
	}
	values := make(map[string]float64, len(columns))

	chunks := 0
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return Table{}, err
		}
		chunk, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("reference table %s: %w", path, err)
		}
		chunks++
		for col := range pending {
			if v, ok := chunk.FirstValue(col); ok {
				values[col] = v
				delete(pending, col)
			}
		}
	}

	l.opts.logger.Debug(ctx, "reference table streamed",
		logger.String("table", filepath.Base(path)),
		logger.Int("chunks", chunks),
		logger.Int("resolved", len(values)),
		logger.Int("unresolved", len(pending)))

	return Table{Name: filepath.Base(path), values: values}, nil
}
