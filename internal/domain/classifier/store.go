package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/pkg/logger"
	"github.com/okian/weris/pkg/metrics"
)

// Store owns the persisted model blob. Get is idempotent: the first call
// loads or trains the model and later calls return the same instance.
type Store struct {
	path    string
	samples []Sample
	k       int
	logger  logger.Logger

	mu    sync.Mutex
	model *Model
}

// NewStore creates a store for the blob at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		samples: Bootstrap,
		k:       DefaultK,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the blob location.
func (s *Store) Path() string { return s.path }

// Get returns the model, training and persisting the bootstrap model when no
// blob exists. A blob that exists but cannot be decoded is an error.
func (s *Store) Get(ctx context.Context) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return s.model, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := s.load()
	switch {
	case err == nil:
		metrics.RecordModelEvent("loaded")
		s.logger.Debug(ctx, "model loaded", logger.String("path", s.path), logger.Int("samples", len(m.Labels)))
	case errors.Is(err, model.ErrModelNotFound):
		m, err = s.train(ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.model = m
	return m, nil
}

// Retrain discards any persisted blob and writes a freshly trained model.
func (s *Store) Retrain(ctx context.Context) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := s.train(ctx)
	if err != nil {
		return nil, err
	}
	s.model = m
	return m, nil
}

func (s *Store) load() (*Model, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("model %s: %w", s.path, model.ErrModelNotFound)
		}
		return nil, fmt.Errorf("read model %s: %w", s.path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", s.path, err)
	}
	return m, nil
}

func (s *Store) train(ctx context.Context) (*Model, error) {
	m, err := Train(s.samples, s.k)
	if err != nil {
		return nil, err
	}
	if err := s.save(m); err != nil {
		return nil, err
	}
	metrics.RecordModelEvent("trained")
	s.logger.Info(ctx, "model trained",
		logger.String("path", s.path),
		logger.Int("samples", len(m.Labels)),
		logger.Int("k", m.K))
	return m, nil
}

// save writes the blob next to its destination and renames it into place.
func (s *Store) save(m *Model) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w: %v", model.ErrWrite, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model: %w: %v", model.ErrWrite, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w: %v", model.ErrWrite, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod model: %w: %v", model.ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w: %v", model.ErrWrite, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename model: %w: %v", model.ErrWrite, err)
	}
	return nil
}
