package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/logger"
)

// FileSink writes {"week", "stress_level"} as indented JSON.
type FileSink struct {
	path string
	opts options
}

// NewFileSink creates a sink that replaces the file at path on every write.
func NewFileSink(path string, opts ...Option) *FileSink {
	return &FileSink{path: path, opts: newOptions(opts)}
}

type fileRecord struct {
	Week        int     `json:"week"`
	StressLevel float64 `json:"stress_level"`
}

// Write stores res. The previous file is replaced atomically; any I/O
// failure is model.ErrWrite.
func (s *FileSink) Write(ctx context.Context, res model.StressResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileRecord{
		Week:        int(res.Week),
		StressLevel: model.Round2(res.StressLevel),
	}, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal result: %w: %v", model.ErrWrite, err)
	}
	data = append(data, '\n')

	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.opts.logger.Info(ctx, "result written", logger.String("path", s.path))
	return nil
}

// fileMode is applied to written files; temp files start out owner-only.
const fileMode = 0o644

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w: %v", path, model.ErrWrite, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w: %v", path, model.ErrWrite, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w: %v", path, model.ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %v", path, model.ErrWrite, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w: %v", path, model.ErrWrite, err)
	}
	return nil
}
