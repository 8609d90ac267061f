package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/internal/schema"
)

// FileSource reads a flat JSON object from disk. Every key except "week"
// names a symptom; a value of 1 (or true) marks it reported.
type FileSource struct {
	path string
	opts options
}

// NewFileSource creates a source for the record at path.
func NewFileSource(path string, opts ...Option) *FileSource {
	return &FileSource{path: path, opts: newOptions(opts)}
}

// Fetch reads and converts the record.
func (s *FileSource) Fetch(ctx context.Context) (model.Intake, error) {
	if err := ctx.Err(); err != nil {
		return model.Intake{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Intake{}, fmt.Errorf("symptom file %s: %w", s.path, model.ErrMissingFile)
		}
		return model.Intake{}, fmt.Errorf("read symptom file %s: %w", s.path, err)
	}

	if err := schema.ValidateBytes(schema.SymptomFile, data); err != nil {
		return model.Intake{}, fmt.Errorf("symptom file %s: %w: %v", s.path, model.ErrMalformedInput, err)
	}

	var record map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return model.Intake{}, fmt.Errorf("symptom file %s: %w: %v", s.path, model.ErrMalformedInput, err)
	}

	raw, ok := record[weekKey]
	if !ok || raw == nil {
		return model.Intake{}, fmt.Errorf("symptom file %s has no week: %w", s.path, model.ErrInvalidWeek)
	}
	week, err := parseWeek(raw)
	if err != nil {
		return model.Intake{}, fmt.Errorf("symptom file %s: %w", s.path, err)
	}

	flags := make(model.SymptomFlags, len(record)-1)
	for name, v := range record {
		if name == weekKey {
			continue
		}
		flags[name] = reported(v)
	}

	in := model.Intake{Symptoms: flags, Week: week}
	logIntake(ctx, s.opts.logger, "file", in)
	return in, nil
}

// reported treats numeric 1 and boolean true as a reported symptom.
func reported(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 1
	default:
		return false
	}
}
