// Package schema validates loosely typed JSON payloads at the system
// boundary before they are converted to domain types.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalid is returned when a document does not satisfy its schema.
var ErrInvalid = errors.New("schema validation failed")

// Schema is a named JSON Schema definition.
type Schema struct {
	Name       string
	Definition map[string]any
}

// schemaCache caches compiled schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// Validate checks a decoded JSON value (as produced by encoding/json into
// any) against s.
func Validate(s *Schema, doc any) error {
	if s == nil {
		return nil
	}
	compiled, err := compiled(s)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, s.Name, err)
	}
	return nil
}

// ValidateBytes parses raw JSON and validates it against s.
func ValidateBytes(s *Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %s: invalid JSON: %v", ErrInvalid, s.Name, err)
	}
	return Validate(s, doc)
}

func compiled(s *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(s.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go maps of typed slices.
	defBytes, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", s.Name)
	if err := c.AddResource(url, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(s.Name, sch)
	return sch, nil
}
