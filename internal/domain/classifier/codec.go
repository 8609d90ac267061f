package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/internal/schema"
)

// Encode serialises m to its JSON blob.
func Encode(m *Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a JSON model blob. Any defect is reported as
// model.ErrModelCorrupt.
func Decode(data []byte) (*Model, error) {
	if err := schema.ValidateBytes(schema.ModelBlob, data); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrModelCorrupt, err)
	}
	var m Model
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w: %v", model.ErrModelCorrupt, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
