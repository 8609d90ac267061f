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
)

// EagerLoader reads every reference file completely. All files are required.
type EagerLoader struct {
	paths []string
	opts  options
}

// NewEagerLoader creates a loader over the given reference files.
func NewEagerLoader(paths []string, opts ...Option) *EagerLoader {
	return &EagerLoader{paths: append([]string(nil), paths...), opts: newOptions(opts)}
}

// Load reads each file in full and keeps the first row of every column. A
// missing file fails the whole load with model.ErrMissingFile.
func (l *EagerLoader) Load(ctx context.Context, _ []string) ([]Table, error) {
	tables := make([]Table, 0, len(l.paths))
	for _, path := range l.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := loadEager(path)
		if err != nil {
			return nil, err
		}
		l.opts.logger.Debug(ctx, "reference table loaded",
			logger.String("table", t.Name), logger.Int("columns", t.Len()))
		tables = append(tables, t)
	}
	return tables, nil
}

func loadEager(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, fmt.Errorf("reference table %s: %w", path, model.ErrMissingFile)
		}
		return Table{}, fmt.Errorf("open reference table %s: %w", path, err)
	}
	defer f.Close()

	cr, err := NewChunkReader(f, DefaultChunkSize)
	if err != nil {
		return Table{}, fmt.Errorf("reference table %s: %w", path, err)
	}

	var first *Chunk
	for {
		chunk, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("reference table %s: %w", path, err)
		}
		if first == nil {
			first = &chunk
		}
	}

	values := make(map[string]float64, len(cr.Header()))
	if first != nil {
		for _, col := range cr.Header() {
			if _, seen := values[col]; seen {
				continue
			}
			if v, ok := first.FirstValue(col); ok {
				values[col] = v
			}
		}
	}
	return Table{Name: filepath.Base(path), values: values}, nil
}
